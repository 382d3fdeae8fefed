package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
)

const (
	defaultTimeout        = 10 * time.Second
	errorBodyReadLimit    = 4096
	genericFailureMessage = "request to retail api failed"
	headerAuthorization   = "Authorization"
	headerContentType     = "Content-Type"
	headerAccept          = "Accept"
	contentTypeJSON       = "application/json"
)

var errBaseURLRequired = errors.New("upstream base url is required")

// Client performs JSON requests against the retail REST API.
type Client struct {
	httpClient   *http.Client
	baseURL      *url.URL
	serviceToken string
	forwardUser  bool
	observer     Observer
}

// Observer is notified after every call; status is 0 on transport failure.
type Observer interface {
	ObserveUpstream(operation string, status int, duration time.Duration)
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithServiceToken sets the token used when no caller token is on the context.
func WithServiceToken(token string) Option {
	return func(c *Client) {
		c.serviceToken = strings.TrimSpace(token)
	}
}

// WithForwardedUserToken makes the client prefer the caller's bearer token.
func WithForwardedUserToken(enabled bool) Option {
	return func(c *Client) {
		c.forwardUser = enabled
	}
}

// WithObserver registers a metrics observer.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithTimeout overrides the HTTP timeout on the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	parsed, err := url.Parse(strings.TrimRight(trimmed, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing upstream base url: %w", err)
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     parsed,
		forwardUser: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Request describes a single call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// FailureCode classifies non-2xx and transport failures. Defaults to CodeFetchFailure.
	FailureCode pkgerrors.Code
	// Operation names the call in error messages, e.g. "list variants".
	Operation string
}

// Do executes req and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "upstream client not configured")
	}
	code := req.FailureCode
	if code == "" {
		code = pkgerrors.CodeFetchFailure
	}
	op := req.Operation
	if op == "" {
		op = strings.ToLower(req.Method) + " " + req.Path
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			return err
		}
		return pkgerrors.Wrap(code, err, "build "+op+" request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(op, 0, start)
		return pkgerrors.Wrap(code, err, op+": "+genericFailureMessage)
	}
	defer func() { _ = resp.Body.Close() }()
	c.observe(op, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp, code, op)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return pkgerrors.Wrap(code, err, "decode "+op+" response")
	}
	return nil
}

func (c *Client) observe(op string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(op, status, time.Since(start))
	}
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set(headerAccept, contentTypeJSON)
	if body != nil {
		httpReq.Header.Set(headerContentType, contentTypeJSON)
	}
	if token := c.tokenFor(ctx); token != "" {
		httpReq.Header.Set(headerAuthorization, "Bearer "+token)
	}
	return httpReq, nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	path = strings.TrimLeft(path, "/")
	if err := checkPath(path); err != nil {
		return "", err
	}
	u := *c.baseURL
	rawPath := strings.TrimRight(u.EscapedPath(), "/") + "/" + path
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request path")
	}
	u.Path, u.RawPath = decoded, rawPath
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (c *Client) tokenFor(ctx context.Context) string {
	if c.forwardUser {
		if token := BearerTokenFromContext(ctx); token != "" {
			return token
		}
	}
	return c.serviceToken
}

// StatusError carries the HTTP status and server message of a failed call.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream responded %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream responded %d: %s", e.StatusCode, e.Message)
}

// StatusCodeOf returns the upstream status carried by err, or 0.
func StatusCodeOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func statusError(resp *http.Response, code pkgerrors.Code, op string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	cause := &StatusError{StatusCode: resp.StatusCode, Message: serverMessage(raw)}

	if resp.StatusCode == http.StatusNotFound && code == pkgerrors.CodeFetchFailure {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, op+": not found")
	}

	message := cause.Message
	if message == "" {
		message = genericFailureMessage
	}
	return pkgerrors.Wrap(code, cause, message).WithDetails(map[string]any{
		"operation":       op,
		"upstream_status": resp.StatusCode,
	})
}

// serverMessage pulls a human-readable message out of the common error payload shapes.
func serverMessage(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}

	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	if len(payload.Error) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(payload.Error, &asString); err == nil {
		return strings.TrimSpace(asString)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}
