package view

import (
	"errors"
	"fmt"
	"time"

	"github.com/ritzau/block-visualizer/pkg/layout"
	"github.com/ritzau/block-visualizer/pkg/mapper"
)

// State of the shell
type State string

const (
	StateEmpty     State = "empty"
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateLayingOut State = "laying_out"
)

// Basis selects which diagram a layout runs on
type Basis string

const (
	// BasisCurrent lays out the edited diagram and keeps the edits
	BasisCurrent Basis = "current"
	// BasisOriginal discards edits and lays out the diagram as fetched
	BasisOriginal Basis = "original"
)

// ParseBasis accepts "current" (or empty) and "original"
func ParseBasis(s string) (Basis, error) {
	switch s {
	case "", string(BasisCurrent):
		return BasisCurrent, nil
	case string(BasisOriginal):
		return BasisOriginal, nil
	default:
		return BasisCurrent, fmt.Errorf("unknown layout basis %q (want current or original)", s)
	}
}

// ErrorKind classifies user-visible failures
type ErrorKind string

const (
	KindNetwork           ErrorKind = "network"
	KindMalformedDocument ErrorKind = "malformed_document"
	KindLayoutEngine      ErrorKind = "layout_engine"
)

// LastError is the failure shown in the error banner until dismissed or
// replaced by a successful load
type LastError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

var (
	// ErrSuperseded is returned by a layout whose result was discarded because a
	// newer layout or load started before it finished
	ErrSuperseded = errors.New("layout superseded by a newer request")

	// ErrUnknownNode is returned when an edit names a node that does not exist
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownEdge is returned when an edit names an edge that does not exist
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrBusy is returned when an operation is not allowed while loading
	ErrBusy = errors.New("shell is loading")
)

// classify maps a pipeline error to the kind shown to the user. Anything that
// is neither a mapping nor a layout failure happened while fetching.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, mapper.ErrMalformedGraphDocument):
		return KindMalformedDocument
	case errors.Is(err, layout.ErrLayoutEngine):
		return KindLayoutEngine
	default:
		return KindNetwork
	}
}
