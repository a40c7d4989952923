package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"

	"github.com/Raheemullah8/hms-portal/internal/observability/metrics"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

const (
	defaultTimeout = 15 * time.Second
	maxLoggedBody  = 300
)

// TokenSource supplies the bearer token for each request. An empty token
// sends no Authorization header.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Request describes one backend call relative to the client's base.
type Request struct {
	Method string
	Path   string
	Params url.Values
	Body   any
	Header http.Header
}

// Client is the base query shared by every resource module. Clients derived
// with Sub share the underlying http.Client, so cookies set by one module are
// sent by all of them.
type Client struct {
	baseURL        string
	name           string
	httpClient     *http.Client
	tokens         TokenSource
	logger         *logging.Logger
	metrics        *metrics.CacheMetrics
	onUnauthorized func(*Error)
	tracer         trace.Tracer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient sends through a copy of hc, so later options and the
// cookie jar fill-in never touch the caller's client. Its transport and
// jar, if any, are shared.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			clone := *hc
			c.httpClient = &clone
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.CacheMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithOnUnauthorized registers a hook fired on every 401 response.
func WithOnUnauthorized(fn func(*Error)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New constructs a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		name:       "root",
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.Default(),
		tracer:     otel.Tracer("hms.internal.transport"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err == nil {
			c.httpClient.Jar = jar
		}
	}
	return c
}

// Sub derives a client rooted at path below this client's base.
func (c *Client) Sub(path string) *Client {
	clone := *c
	trimmed := strings.Trim(path, "/")
	if trimmed != "" {
		clone.baseURL = c.baseURL + "/" + trimmed
		clone.name = trimmed
	}
	return &clone
}

// Named returns a copy labelled name in logs and metrics.
func (c *Client) Named(name string) *Client {
	clone := *c
	if name != "" {
		clone.name = name
	}
	return &clone
}

// BaseURL returns the absolute base this client resolves paths against.
func (c *Client) BaseURL() string { return c.baseURL }

// Name is the label used in logs and metrics.
func (c *Client) Name() string { return c.name }

// HTTPClient exposes the shared http.Client.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

// Do performs req and decodes a 2xx JSON body into out. It returns nil on
// success and never a typed nil.
func (c *Client) Do(ctx context.Context, req Request, out any) *Error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	endpoint := c.resolve(req.Path, req.Params)

	ctx, span := c.tracer.Start(ctx, "transport.request", trace.WithAttributes(
		attribute.String("hms.api", c.name),
		attribute.String("http.method", method),
		attribute.String("http.path", req.Path),
	))
	defer span.End()

	started := time.Now()
	status, terr := c.do(ctx, method, endpoint, req, out)
	c.metrics.ObserveRequest(c.name, method, status, time.Since(started))
	span.SetAttributes(attribute.Int("http.status_code", status))
	if terr != nil {
		span.RecordError(terr)
		span.SetStatus(codes.Error, string(terr.Kind))
		if terr.Kind == KindServer && terr.Status == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(terr)
		}
		return terr
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, req Request, out any) (int, *Error) {
	var bodyReader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return 0, &Error{Kind: KindDecode, Message: "could not encode request", Err: fmt.Errorf("marshal request: %w", err)}
		}
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return 0, &Error{Kind: KindNetwork, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.logger.Debug("request aborted", "api", c.name, "method", method, "url", endpoint, "error", err)
		} else {
			c.logger.Warn("request failed", "api", c.name, "method", method, "url", endpoint, "error", err)
		}
		return 0, &Error{Kind: KindNetwork, Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &Error{Kind: KindNetwork, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, c.serverError(method, req.Path, resp.StatusCode, respBody)
	}

	if len(bytes.TrimSpace(respBody)) == 0 || out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, &Error{Kind: KindDecode, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.StatusCode, nil
}

func (c *Client) serverError(method, path string, status int, body []byte) *Error {
	snippet := logging.Redact(string(body))
	if len(snippet) > maxLoggedBody {
		snippet = snippet[:maxLoggedBody]
	}
	c.logger.Warn("backend non-2xx response", "api", c.name, "method", method, "status", status, "path", path, "body", snippet)

	terr := &Error{
		Kind:   KindServer,
		Status: status,
		Err:    fmt.Errorf("%s: %s", http.StatusText(status), snippet),
	}
	if json.Valid(body) {
		terr.Data = json.RawMessage(append([]byte(nil), body...))
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			terr.Message = payload.Message
		}
	}
	return terr
}

func (c *Client) resolve(path string, params url.Values) string {
	endpoint := c.baseURL
	if trimmed := strings.TrimPrefix(path, "/"); trimmed != "" {
		endpoint += "/" + trimmed
	} else if path == "/" {
		endpoint += "/"
	}
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + params.Encode()
	}
	return endpoint
}
