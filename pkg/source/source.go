package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ritzau/block-visualizer/pkg/config"
)

// Source delivers the raw graph document.
// Implementations must respect the context for cancellation.
type Source interface {
	// Name identifies the source in logs and status messages (URL or path)
	Name() string

	// Fetch returns the document bytes
	Fetch(ctx context.Context) ([]byte, error)
}

// ErrNetwork matches every NetworkError via errors.Is
var ErrNetwork = errors.New("network error")

// NetworkError is returned when the document could not be retrieved.
// StatusCode is zero for transport and file errors.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("fetching %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetching %s failed", e.URL)
	}
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// New picks a source for the configured endpoint: http(s) URLs are fetched over
// HTTP, file:// URLs and bare paths are read from disk.
func New(cfg *config.Config) Source {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	switch {
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		return NewHTTPSource(endpoint, cfg.Fetch.Timeout)
	case strings.HasPrefix(endpoint, "file://"):
		return NewFileSource(strings.TrimPrefix(endpoint, "file://"))
	default:
		return NewFileSource(endpoint)
	}
}

// timeoutContext applies d to ctx unless d is zero
func timeoutContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
