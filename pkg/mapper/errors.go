package mapper

import (
	"errors"
	"fmt"
)

// ErrMalformedGraphDocument matches every MalformedGraphDocumentError via errors.Is
var ErrMalformedGraphDocument = errors.New("malformed graph document")

// MalformedGraphDocumentError reports where a fetched document departs from the
// expected {namespace: {blocks: {...}, links: [...]}} shape
type MalformedGraphDocumentError struct {
	Path   string // JSON path of the offending value, e.g. "data.links[3].source"
	Reason string
	Err    error // underlying decode error, if any
}

func (e *MalformedGraphDocumentError) Error() string {
	msg := fmt.Sprintf("malformed graph document: %s", e.Reason)
	if e.Path != "" {
		msg = fmt.Sprintf("malformed graph document at %s: %s", e.Path, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedGraphDocumentError) Is(target error) bool {
	return target == ErrMalformedGraphDocument
}

func (e *MalformedGraphDocumentError) Unwrap() error {
	return e.Err
}

func malformed(path, reason string, err error) error {
	return &MalformedGraphDocumentError{Path: path, Reason: reason, Err: err}
}
