package posesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/2beens/formcheck/internal/formcheck"
	"github.com/2beens/formcheck/internal/telemetry/tracing"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPSource asks a local pose provider for its latest frame. The provider
// answers 200 with a frame, or 204 once the stream has ended.
type HTTPSource struct {
	url        string
	httpClient *http.Client

	mu   sync.Mutex
	last time.Time
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (s *HTTPSource) Next(ctx context.Context) (_ formcheck.Frame, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "posesource.http.next")
	defer func() {
		if errors.Is(err, io.EOF) || errors.Is(err, ErrNoNewFrame) {
			span.End()
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return formcheck.Frame{}, fmt.Errorf("create pose request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return formcheck.Frame{}, fmt.Errorf("get pose: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return formcheck.Frame{}, io.EOF
	default:
		return formcheck.Frame{}, fmt.Errorf("pose provider responded with status %d", resp.StatusCode)
	}

	var frame formcheck.Frame
	if err := json.NewDecoder(resp.Body).Decode(&frame); err != nil {
		return formcheck.Frame{}, fmt.Errorf("decode pose frame: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !frame.Timestamp.IsZero() && !frame.Timestamp.After(s.last) {
		return formcheck.Frame{}, ErrNoNewFrame
	}
	s.last = frame.Timestamp

	return frame, nil
}
