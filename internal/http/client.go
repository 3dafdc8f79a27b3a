package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/publicsuffix"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "ipam-client/1.0"

// Logger is the logging interface used by the HTTP client.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// CSRFProvider supplies the CSRF token for mutating requests.
type CSRFProvider interface {
	CSRFToken(ctx context.Context) (string, error)
	Invalidate()
}

// Request describes one API call.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Cached     bool
}

// Client sends requests to the IPAM backend. Session cookies live in a cookie
// jar; mutating requests carry the CSRF token.
type Client struct {
	baseURL      *url.URL
	retryClient  *retryablehttp.Client
	jar          http.CookieJar
	csrf         CSRFProvider
	logger       Logger
	debug        bool
	userAgent    string
	timeout      time.Duration
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	cache        *ipam.CacheManager
	policy       *ipam.CachingPolicy
	interceptors *ipam.InterceptorChain
	sessionID    string
	csrfCookie   string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every request and response.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the timeout of a single round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetryConfig enables retries of idempotent requests.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryMax = retryMax
		c.retryWaitMin = waitMin
		c.retryWaitMax = waitMax
	}
}

// WithCache serves cacheable GET requests from manager.
func WithCache(manager *ipam.CacheManager, policy *ipam.CachingPolicy) Option {
	return func(c *Client) {
		c.cache = manager
		c.policy = policy
	}
}

// WithSession seeds the cookie jar with an existing session.
func WithSession(sessionID, csrfToken string) Option {
	return func(c *Client) {
		c.sessionID = sessionID
		c.csrfCookie = csrfToken
	}
}

// WithRequestInterceptor appends interceptor to the request chain.
func WithRequestInterceptor(interceptor ipam.RequestInterceptor) Option {
	return func(c *Client) {
		c.interceptors.AddRequestInterceptor(interceptor)
	}
}

// NewClient creates a client for baseURL. csrf may be nil for read-only use.
func NewClient(baseURL string, csrf CSRFProvider, opts ...Option) *Client {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		parsed = &url.URL{}
	}

	client := &Client{
		baseURL:      parsed,
		csrf:         csrf,
		userAgent:    DefaultUserAgent,
		timeout:      constants.DefaultHTTPTimeout,
		retryMax:     constants.DefaultRetryMax,
		retryWaitMin: constants.DefaultRetryWaitMin,
		retryWaitMax: constants.DefaultRetryWaitMax,
		interceptors: ipam.NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	// cookiejar.New never returns an error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	client.jar = jar
	client.seedSession()

	client.retryClient = client.newRetryClient()
	client.buildInterceptors()

	return client
}

func (c *Client) newRetryClient() *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{
		Timeout: c.timeout,
		Jar:     c.jar,
	}
	retryClient.RetryMax = c.retryMax
	retryClient.RetryWaitMin = c.retryWaitMin
	retryClient.RetryWaitMax = c.retryWaitMax
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	if c.logger != nil && c.debug {
		retryClient.Logger = &leveledLogger{logger: c.logger}
	}

	return retryClient
}

func (c *Client) buildInterceptors() {
	chain := ipam.NewInterceptorChain()
	chain.AddRequestInterceptor(ipam.RequestIDInterceptor())
	chain.AddRequestInterceptor(ipam.HeaderInterceptor(map[string]string{
		"Accept":     "application/json",
		"User-Agent": c.userAgent,
	}))

	if c.csrf != nil {
		chain.AddRequestInterceptor(ipam.CSRFInterceptor(c.csrf.CSRFToken, c.baseURL.String()+"/"))
	}

	for _, interceptor := range c.interceptors.RequestInterceptors() {
		chain.AddRequestInterceptor(interceptor)
	}

	if c.logger != nil && c.debug {
		chain.AddRequestInterceptor(ipam.LoggingInterceptor(c.logger))
		chain.AddResponseInterceptor(ipam.LoggingResponseInterceptor(c.logger))
	}

	c.interceptors = chain
}

func (c *Client) seedSession() {
	var cookies []*http.Cookie

	if c.sessionID != "" {
		cookies = append(cookies, &http.Cookie{Name: constants.SessionCookieName, Value: c.sessionID, Path: "/"})
	}

	if c.csrfCookie != "" {
		cookies = append(cookies, &http.Cookie{Name: constants.CSRFCookieName, Value: c.csrfCookie, Path: "/"})
	}

	if len(cookies) > 0 {
		c.jar.SetCookies(c.baseURL, cookies)
	}
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookie returns the value of the named cookie for the API host.
func (c *Client) Cookie(name string) string {
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		if cookie.Name == name {
			return cookie.Value
		}
	}

	return ""
}

// ClearSession drops the session cookies and every cached response.
func (c *Client) ClearSession(ctx context.Context) {
	c.jar.SetCookies(c.baseURL, []*http.Cookie{
		{Name: constants.SessionCookieName, Path: "/", MaxAge: -1},
		{Name: constants.CSRFCookieName, Path: "/", MaxAge: -1},
	})

	c.invalidateCache(ctx)
}

// Do sends req. Non-2xx answers return the response together with an
// *ipam.APIError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	cacheKey, cacheable := c.cacheKey(req)
	if cacheable {
		data, cacheErr := c.cache.Get(ctx, cacheKey)
		if cacheErr == nil {
			return &Response{StatusCode: http.StatusOK, Headers: http.Header{}, Body: data, Cached: true}, nil
		}
	}

	resp, err := c.send(ctx, req, body)
	if err != nil {
		return resp, err
	}

	if isCSRFFailure(req.Method, resp) && c.csrf != nil {
		c.csrf.Invalidate()

		resp, err = c.send(ctx, req, body)
		if err != nil {
			return resp, err
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp, ipam.ParseAPIError(resp.StatusCode, resp.Body)
	}

	switch {
	case cacheable && c.policy.ShouldCache(req.Method, req.Path, resp.StatusCode):
		c.storeCache(ctx, cacheKey, resp)
	case ipam.IsMutating(req.Method):
		c.invalidateCache(ctx)
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, req *Request, body []byte) (*Response, error) {
	intercepted := &ipam.Request{
		Method:   req.Method,
		Path:     req.Path,
		Headers:  make(http.Header),
		Body:     body,
		Metadata: map[string]interface{}{},
	}

	for key, value := range req.Headers {
		intercepted.Headers.Set(key, value)
	}

	if body != nil {
		intercepted.Headers.Set("Content-Type", "application/json")
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		return nil, fmt.Errorf("preparing request: %w", err)
	}

	target := c.baseURL.JoinPath(req.Path)
	if strings.HasSuffix(req.Path, "/") && !strings.HasSuffix(target.Path, "/") {
		target.Path += "/"
	}

	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var rawBody interface{}
	if intercepted.Body != nil {
		rawBody = intercepted.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(withRetryable(ctx, req.Method), req.Method, target.String(), rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = intercepted.Headers

	httpResp, err := c.retryClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}

	intercepted.Metadata["status_code"] = resp.StatusCode

	interceptedResp := &ipam.Response{StatusCode: resp.StatusCode, Headers: resp.Headers, Body: resp.Body}
	if resp.StatusCode >= http.StatusBadRequest {
		interceptedResp.Error = ipam.ParseAPIError(resp.StatusCode, resp.Body)
	}

	err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, interceptedResp)
	if err != nil {
		return resp, fmt.Errorf("processing response: %w", err)
	}

	return resp, nil
}

func (c *Client) cacheKey(req *Request) (string, bool) {
	if c.cache == nil || c.policy == nil || req.Method != http.MethodGet {
		return "", false
	}

	if !c.policy.ShouldCache(req.Method, req.Path, http.StatusOK) {
		return "", false
	}

	params := make(map[string]string, len(req.Query))
	for key, values := range req.Query {
		params[key] = strings.Join(values, ",")
	}

	return c.cache.GetCacheKey(req.Method, req.Path, params), true
}

func (c *Client) storeCache(ctx context.Context, key string, resp *Response) {
	err := c.cache.SetWithETag(ctx, key, resp.Body, resp.Headers.Get("ETag"), 0)
	if err != nil && c.logger != nil {
		c.logger.Warn("cache store failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (c *Client) invalidateCache(ctx context.Context) {
	if c.cache == nil {
		return
	}

	err := c.cache.Invalidate(ctx)
	if err != nil && c.logger != nil {
		c.logger.Warn("cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func encodeBody(body interface{}) ([]byte, error) {
	switch value := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return value, nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		return data, nil
	}
}

// isCSRFFailure reports a 403 caused by a stale CSRF token.
func isCSRFFailure(method string, resp *Response) bool {
	if !ipam.IsMutating(method) || resp.StatusCode != http.StatusForbidden {
		return false
	}

	return bytes.Contains(bytes.ToLower(resp.Body), []byte("csrf"))
}

type retryableKey struct{}

func withRetryable(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, retryableKey{}, !ipam.IsMutating(method))
}

// checkRetry applies the default policy to idempotent requests only.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if retryable, ok := ctx.Value(retryableKey{}).(bool); ok && !retryable {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		return false, err
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// leveledLogger adapts Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fieldsOf(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsOf(keysAndValues))
}

func fieldsOf(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
