package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/kgviz/pkg/errors"
	"github.com/matzehuels/kgviz/pkg/observability"
)

// RequestIDHeader carries a fresh UUID on every outgoing request so that
// backend logs can be correlated with client warnings.
const RequestIDHeader = "X-Request-ID"

// Options configures a [Client].
type Options struct {
	// Timeout bounds each request. Zero means no timeout; cancellation then
	// comes only from the context.
	Timeout time.Duration

	// Headers are applied to every request.
	Headers map[string]string

	// Logger receives transport warnings. Nil means log.Default().
	Logger *log.Logger

	// HTTPClient overrides the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client provides the shared JSON round trip used by backend API clients.
// Each call is exactly one HTTP request; nothing is retried or cached.
type Client struct {
	http    *http.Client
	baseURL string
	headers map[string]string
	logger  *log.Logger
}

// NewClient creates a Client rooted at baseURL (e.g. "http://localhost:8000").
func NewClient(baseURL string, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = NewHTTPClient(opts.Timeout)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: opts.Headers,
		logger:  logger,
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// Logger returns the client's logger.
func (c *Client) Logger() *log.Logger { return c.logger }

// Do sends one request and decodes the response envelope.
//
// body, when non-nil, is JSON-encoded. The returned envelope is populated
// whenever the backend produced a decodable body, including when it reports
// ret != 0; in that case the error is an APPLICATION_ERROR carrying msg.
// Everything that prevents a decodable body (network failure, non-2xx
// status, malformed JSON) is a TRANSPORT_ERROR and is logged as a warning.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (Envelope, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return Envelope{}, errors.Wrap(errors.ErrCodeTransport, err, "invalid url %s%s", c.baseURL, path)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Envelope{}, errors.Wrap(errors.ErrCodeInternal, err, "encode %s %s body", method, path)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return Envelope{}, errors.Wrap(errors.ErrCodeTransport, err, "build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, u.Host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return Envelope{}, c.transportFailure(ctx, method, u.Host, path, reqID,
			errors.Wrap(errors.ErrCodeTransport, err, "%s %s", method, path))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, u.Host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return Envelope{}, c.transportFailure(ctx, method, u.Host, path, reqID,
			errors.Wrap(errors.ErrCodeTransport, err, "%s %s", method, path))
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Envelope{}, c.transportFailure(ctx, method, u.Host, path, reqID,
			errors.Wrap(errors.ErrCodeTransport, err, "%s %s: malformed response body", method, path))
	}

	if env.Ret != 0 {
		hooks.OnAppError(ctx, method, path, env.Ret)
		c.logger.Debug("backend rejected request", "method", method, "path", path, "ret", env.Ret, "msg", env.Message(), "request_id", reqID)
		msg := env.Message()
		if msg == "" {
			msg = fmt.Sprintf("backend returned ret=%d", env.Ret)
		}
		return env, errors.New(errors.ErrCodeApplication, "%s", msg)
	}
	return env, nil
}

func (c *Client) transportFailure(ctx context.Context, method, host, path, reqID string, err error) error {
	observability.HTTP().OnError(ctx, method, host, path, err)
	c.logger.Warn("request failed", "method", method, "path", path, "request_id", reqID, "err", err)
	return err
}

// Get performs a GET and decodes envelope data into v (which may be nil).
func (c *Client) Get(ctx context.Context, path string, query url.Values, v any) error {
	env, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return env.Decode(v)
}

// Post performs a POST with a JSON body and decodes envelope data into v.
func (c *Client) Post(ctx context.Context, path string, body, v any) error {
	env, err := c.Do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return env.Decode(v)
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) error {
	_, err := c.Do(ctx, http.MethodPut, path, nil, body)
	return err
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	default:
		return &StatusError{Code: code}
	}
}
