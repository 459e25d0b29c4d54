// Package coach talks to the external service that turns a session summary
// into a short coaching message. Only structured data is sent; no prose is
// generated here.
package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2beens/formcheck/internal/formcheck"
	"github.com/2beens/formcheck/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultTimeout = 10 * time.Second

type ErrorSummary struct {
	ErrorType   string   `json:"errorType"`
	Count       int      `json:"count"`
	Percentage  float64  `json:"percentage"`
	Corrections []string `json:"corrections"`
}

type Request struct {
	Exercise     string         `json:"exercise"`
	TotalReps    int            `json:"totalReps"`
	FormAccuracy int            `json:"formAccuracy"`
	AverageScore float64        `json:"averageScore"`
	CommonErrors []ErrorSummary `json:"commonErrors"`
}

type Response struct {
	Message string `json:"message"`
}

// NewRequest builds the coach input from a finished session, attaching the
// correction cues of the rules behind every common error.
func NewRequest(summary formcheck.Summary) Request {
	corrections := make(map[string][]string)
	for _, rule := range formcheck.Rules(summary.Exercise) {
		corrections[rule.ErrorType] = append(corrections[rule.ErrorType], rule.Correction)
	}

	errs := make([]ErrorSummary, 0, len(summary.CommonErrors))
	for _, ce := range summary.CommonErrors {
		cs := corrections[ce.ErrorType]
		if cs == nil {
			cs = []string{}
		}
		errs = append(errs, ErrorSummary{
			ErrorType:   ce.ErrorType,
			Count:       ce.Count,
			Percentage:  ce.Percentage,
			Corrections: cs,
		})
	}

	return Request{
		Exercise:     summary.Exercise.String(),
		TotalReps:    summary.TotalReps,
		FormAccuracy: summary.FormAccuracy,
		AverageScore: summary.AverageScore,
		CommonErrors: errs,
	}
}

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) Coach(ctx context.Context, req Request) (_ Response, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coach.client.coach")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("exercise", req.Exercise))

	reqBytes, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal coach request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBytes))
	if err != nil {
		return Response{}, fmt.Errorf("create coach request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("call coach: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, fmt.Errorf("coach responded with status %d", resp.StatusCode)
	}

	var coachResp Response
	if err := json.NewDecoder(resp.Body).Decode(&coachResp); err != nil {
		return Response{}, fmt.Errorf("decode coach response: %w", err)
	}

	log.Tracef("coach message received for %s (%d chars)", req.Exercise, len(coachResp.Message))
	return coachResp, nil
}

// NoopClient is used when coaching is disabled.
type NoopClient struct{}

func (NoopClient) Coach(context.Context, Request) (Response, error) {
	return Response{}, nil
}
