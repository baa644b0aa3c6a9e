package contentsource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"escaperooms-directory/pkg/logger"
	"escaperooms-directory/pkg/metrics"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultPageSize       = 100
	DefaultRequestTimeout = 15 * time.Second
)

// Options configures a Client. Zero values fall back to the defaults above;
// BreakerFailures of zero disables the circuit breaker.
type Options struct {
	Endpoint        string
	Token           string
	PageSize        int
	RequestTimeout  time.Duration
	BreakerFailures uint32
	BreakerOpenFor  time.Duration
	HTTPClient      *http.Client
}

// Client talks to the CMS GraphQL endpoint.
type Client struct {
	endpoint   string
	token      string
	pageSize   int
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	tracer     trace.Tracer
}

// NewClient creates a new content source client
func NewClient(opts Options) *Client {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.BreakerOpenFor <= 0 {
		opts.BreakerOpenFor = 30 * time.Second
	}

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "content-source",
		MaxRequests: 1,
		Timeout:     opts.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return failures > 0 && counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.GlobalLogger.Printf("Circuit breaker '%s' state changed from %v to %v", name, from, to)
		},
		// a structured error from the CMS means it is up
		IsSuccessful: func(err error) bool {
			return err == nil || !IsUnavailable(err)
		},
	})

	return &Client{
		endpoint:   opts.Endpoint,
		token:      opts.Token,
		pageSize:   opts.PageSize,
		timeout:    opts.RequestTimeout,
		httpClient: opts.HTTPClient,
		breaker:    breaker,
		tracer:     otel.Tracer("escaperooms-directory/contentsource"),
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// execute runs one GraphQL operation under the per-request timeout and the
// circuit breaker, decoding the data member into out.
func (c *Client) execute(ctx context.Context, op, query string, vars map[string]interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "contentsource."+op, trace.WithAttributes(attribute.String("source.endpoint", c.endpoint)))
	defer span.End()

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, op, query, vars, out)
	})
	metrics.SourceRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &SourceUnavailableError{Op: op, Err: err}
	}
	if err != nil {
		kind := "source_error"
		if IsUnavailable(err) {
			kind = "unavailable"
		}
		metrics.SourceErrorsTotal.WithLabelValues(kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		return err
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, query string, vars map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &SourceUnavailableError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to send %s request: url=%s, error=%v", op, c.endpoint, err)
		return &SourceUnavailableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to read %s response body: url=%s, status=%s, error=%v", op, c.endpoint, resp.Status, err)
		return &SourceUnavailableError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		logger.GlobalLogger.Errorf("Content source %s failed: url=%s, status=%s", op, c.endpoint, resp.Status)
		return &SourceUnavailableError{Op: op, Err: fmt.Errorf("status %s", resp.Status)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var envelope graphQLResponse
		msgs := []string{resp.Status}
		if json.Unmarshal(raw, &envelope) == nil {
			for _, e := range envelope.Errors {
				msgs = append(msgs, e.Message)
			}
		}
		logger.GlobalLogger.Errorf("Content source %s rejected: url=%s, status=%s, response=%s", op, c.endpoint, resp.Status, truncate(raw))
		return &SourceError{Op: op, StatusCode: resp.StatusCode, Messages: msgs}
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		logger.GlobalLogger.Errorf("Failed to decode %s response: url=%s, response=%s, error=%v", op, c.endpoint, truncate(raw), err)
		return &SourceError{Op: op, StatusCode: resp.StatusCode, Messages: []string{"malformed response: " + err.Error()}}
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return &SourceError{Op: op, Messages: msgs}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &SourceError{Op: op, Messages: []string{"response has no data"}}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &SourceError{Op: op, Messages: []string{"unexpected data shape: " + err.Error()}}
	}
	return nil
}

func truncate(b []byte) string {
	const limit = 512
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
