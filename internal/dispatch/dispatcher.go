// Package dispatch delivers the one-time final report to the external
// evaluation endpoint. Delivery is retried with bounded exponential
// backoff; exhaustion is an operational warning, never a reason to
// re-open the session or fail the conversational reply. The at-most-once
// guarantee lives in the session's completion latch, not here — by the
// time a payload reaches this package the flip has already happened.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	hpotel "github.com/Tusharkanta407/HoneyPot/internal/otel"
)

var tracer = hpotel.Tracer("github.com/Tusharkanta407/HoneyPot/internal/dispatch")

// Defaults mirror the evaluation endpoint's tolerances.
const (
	DefaultTimeout         = 5 * time.Second
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 500 * time.Millisecond
)

// Outcome reports how a dispatch attempt run ended.
type Outcome struct {
	Delivered  bool
	Attempts   int
	StatusCode int
	Err        error
}

// Dispatcher POSTs final reports to a fixed endpoint.
type Dispatcher struct {
	endpoint        string
	client          *http.Client
	maxAttempts     int
	initialInterval time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient overrides the HTTP client (timeouts included).
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithMaxAttempts bounds the total number of delivery attempts.
func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithInitialInterval sets the first backoff delay between attempts.
func WithInitialInterval(iv time.Duration) Option {
	return func(d *Dispatcher) {
		if iv > 0 {
			d.initialInterval = iv
		}
	}
}

// NewDispatcher creates a dispatcher for the given callback endpoint.
func NewDispatcher(endpoint string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		endpoint:        endpoint,
		client:          &http.Client{Timeout: DefaultTimeout},
		maxAttempts:     DefaultMaxAttempts,
		initialInterval: DefaultInitialInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers the payload, retrying transient failures. It returns
// the outcome rather than only an error so callers can archive attempts
// regardless of success. Dispatch never panics and never retries beyond
// its bound; callers must not invoke it twice for the same session.
func (d *Dispatcher) Dispatch(ctx context.Context, p *Payload) Outcome {
	ctx, span := tracer.Start(ctx, "dispatch.callback")
	defer span.End()

	body, err := json.Marshal(p)
	if err != nil {
		// Payload is plain data; this only fires on programmer error.
		return Outcome{Err: fmt.Errorf("marshalling report payload: %w", err)}
	}

	var out Outcome
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.initialInterval

	operation := func() error {
		out.Attempts++
		status, err := d.post(ctx, body)
		out.StatusCode = status
		if err != nil {
			out.Err = err
			return err
		}
		out.Delivered = true
		out.Err = nil
		return nil
	}

	err = backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(d.maxAttempts-1)), ctx))

	span.SetAttributes(
		attribute.Bool("dispatch.delivered", out.Delivered),
		attribute.Int("dispatch.attempts", out.Attempts),
		attribute.String("session_id", p.SessionID),
	)

	if err != nil {
		log.Warn().
			Err(out.Err).
			Str("session_id", p.SessionID).
			Int("attempts", out.Attempts).
			Func(hpotel.LogTraceFields(ctx)).
			Msg("callback_delivery_failed")
		return out
	}

	log.Info().
		Str("session_id", p.SessionID).
		Int("attempts", out.Attempts).
		Int("status", out.StatusCode).
		Func(hpotel.LogTraceFields(ctx)).
		Msg("callback_delivered")
	return out
}

// post performs one delivery attempt.
func (d *Dispatcher) post(ctx context.Context, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("posting callback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return resp.StatusCode, fmt.Errorf("callback HTTP %d: %s", resp.StatusCode, snippet)
	}
	return resp.StatusCode, nil
}
