package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/loanportal/portal-client/internal/api/metrics"
	"github.com/loanportal/portal-client/internal/core/domain"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultTimeout = 15 * time.Second

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 4 << 20

	tracerName = "github.com/loanportal/portal-client/internal/infrastructure/remote"
)

// Config holds the backend connection settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the loan portal backend. It implements both
// ports.RemoteAuthClient and ports.LoanClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	log        zerolog.Logger
}

// New creates a Client. Empty config fields fall back to defaults.
func New(cfg Config, log zerolog.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    base,
		httpClient: client,
		tracer:     otel.Tracer(tracerName),
		log:        log,
	}
}

// call describes one backend request.
type call struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	creds    *domain.Credentials
	fallback string
}

// do executes rc and returns the raw success body. Any failure comes back as
// *Error with a normalized message.
func (c *Client) do(ctx context.Context, rc call) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "portal."+rc.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", rc.method),
		attribute.String("url.path", rc.path),
	)

	start := time.Now()
	body, status, err := c.roundTrip(ctx, rc)
	code := "error"
	if status != 0 {
		code = strconv.Itoa(status)
	}
	metrics.RemoteRequestDuration.WithLabelValues(rc.op, code).Observe(time.Since(start).Seconds())

	if err == nil && status >= 200 && status < 300 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		return body, nil
	}

	f := &Failure{StatusCode: status, Body: body, Err: err}
	rerr := newError(rc.op, f, rc.fallback)
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	span.SetStatus(codes.Error, rerr.Message)

	c.log.Debug().
		Str("op", rc.op).
		Int("status", status).
		Str("message", rerr.Message).
		Msg("backend call failed")
	return nil, rerr
}

func (c *Client) roundTrip(ctx context.Context, rc call) ([]byte, int, error) {
	target := c.baseURL + rc.path
	if len(rc.query) > 0 {
		target += "?" + rc.query.Encode()
	}

	var reader io.Reader
	if rc.body != nil {
		raw, err := json.Marshal(rc.body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, target, reader)
	if err != nil {
		return nil, 0, err
	}
	if rc.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if rc.creds != nil {
		req.SetBasicAuth(rc.creds.Email, rc.creds.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// decode unmarshals a success body, reporting bad payloads as *Error.
func decode(op string, body []byte, v any, fallback string) error {
	if err := json.Unmarshal(body, v); err != nil {
		return newError(op, &Failure{Err: fmt.Errorf("decode %s response: %w", op, err)}, fallback)
	}
	return nil
}

func text(body []byte) string {
	return strings.TrimSpace(string(body))
}
