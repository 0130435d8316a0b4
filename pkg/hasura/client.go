// Package hasura issues named GraphQL operations against the upstream API on
// behalf of the caller.
package hasura

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNoData is returned when the response envelope carries neither data
	// nor errors.
	ErrNoData = errors.New("response has no data")

	tracer = otel.Tracer("aerie-gateway-hasura")
)

const maxErrorBody = 2048

// GraphQLError is one entry of the response's errors list.
type GraphQLError struct {
	Message    string          `json:"message"`
	Path       []any           `json:"path,omitempty"`
	Extensions json.RawMessage `json:"extensions,omitempty"`
}

// ResponseError reports an upstream rejection: a non-2xx status or a
// response with GraphQL errors.
type ResponseError struct {
	Operation  string
	StatusCode int
	Errors     []GraphQLError
	Body       string
}

func (e *ResponseError) Error() string {
	if len(e.Errors) > 0 {
		msgs := make([]string, 0, len(e.Errors))
		for _, ge := range e.Errors {
			msgs = append(msgs, ge.Message)
		}
		return fmt.Sprintf("%s: %s", e.Operation, strings.Join(msgs, "; "))
	}
	if e.Body != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: status %d", e.Operation, e.StatusCode)
}

type request struct {
	Query         string `json:"query"`
	Variables     any    `json:"variables,omitempty"`
	OperationName string `json:"operationName"`
}

// Marshal encodes v the way request bodies go on the wire: compact and
// without HTML escaping, so <, > and & are sent as single bytes.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

type ClientOptions struct {
	Endpoint string
	// Timeout bounds each call. Zero leaves it to the transport.
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
}

func NewClient(opts ClientOptions) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		endpoint: opts.Endpoint,
		timeout:  opts.Timeout,
		http:     hc,
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Execute posts op with vars and decodes the response's data object into out.
// The caller's Identity is taken from ctx. out may be nil.
func (c *Client) Execute(ctx context.Context, op Operation, vars any, out any) (err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "hasura."+op.Name, trace.WithAttributes(
		attribute.String("graphql.operation.name", op.Name),
		attribute.String("http.url", c.endpoint),
	))
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		m := getMetrics()
		m.requestTotal.WithLabelValues(op.Name, result).Inc()
		m.requestDuration.WithLabelValues(op.Name, result).Observe(time.Since(start).Seconds())
		span.End()
	}()

	body, err := Marshal(request{Query: op.Query, Variables: vars, OperationName: op.Name})
	if err != nil {
		return errors.Wrapf(err, "encode %s", op.Name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "build %s request", op.Name)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	IdentityFrom(ctx).apply(req.Header)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "call %s", op.Name)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read %s response", op.Name)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := &ResponseError{Operation: op.Name, StatusCode: resp.StatusCode}
		if decodeErr == nil && len(env.Errors) > 0 {
			rerr.Errors = env.Errors
		} else {
			rerr.Body = truncate(string(raw), maxErrorBody)
		}
		return rerr
	}
	if decodeErr != nil {
		return errors.Wrapf(decodeErr, "decode %s response", op.Name)
	}
	if len(env.Errors) > 0 {
		return &ResponseError{Operation: op.Name, StatusCode: resp.StatusCode, Errors: env.Errors}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return errors.Wrap(ErrNoData, op.Name)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrapf(err, "decode %s data", op.Name)
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
