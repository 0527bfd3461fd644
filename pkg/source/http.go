package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ritzau/block-visualizer/pkg/logging"
)

// DefaultMaxBytes caps the size of a fetched document
const DefaultMaxBytes int64 = 32 << 20

// HTTPSource fetches the document with a plain GET
type HTTPSource struct {
	URL      string
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
}

// NewHTTPSource creates an HTTP source with the default client
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:      url,
		Client:   http.DefaultClient,
		Timeout:  timeout,
		MaxBytes: DefaultMaxBytes,
	}
}

func (s *HTTPSource) Name() string {
	return s.URL
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	logger := logging.New("source.http")

	ctx, cancel := timeoutContext(ctx, s.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, &NetworkError{URL: s.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: s.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, &NetworkError{URL: s.URL, StatusCode: resp.StatusCode}
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &NetworkError{URL: s.URL, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(data)) > limit {
		return nil, &NetworkError{
			URL:        s.URL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("document exceeds %d bytes", limit),
		}
	}

	logger.Debug("fetched document", "url", s.URL, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}
