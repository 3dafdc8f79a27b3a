package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ipamhttp "github.com/fivetwenty-io/ipam-client/internal/http"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCSRFProvider for testing.
type MockCSRFProvider struct {
	mu          sync.Mutex
	tokens      []string
	calls       int
	invalidated int
}

func (m *MockCSRFProvider) CSRFToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := m.tokens[min(m.calls, len(m.tokens)-1)]
	m.calls++

	return token, nil
}

func (m *MockCSRFProvider) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invalidated++
}

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func (l *MockLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.logs))
	for _, entry := range l.logs {
		msg, _ := entry["msg"].(string)
		out = append(out, msg)
	}

	return out
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/hosts/7/", request.URL.Path)
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, ipamhttp.DefaultUserAgent, request.Header.Get("User-Agent"))
			assert.NotEmpty(t, request.Header.Get(ipam.HeaderRequestID))
			assert.Empty(t, request.Header.Get(ipam.HeaderCSRFToken), "reads carry no csrf token")

			_ = json.NewEncoder(writer).Encode(map[string]interface{}{"id": 7, "hostname": "web1"})
		}))
		defer server.Close()

		client := ipamhttp.NewClient(server.URL, &MockCSRFProvider{tokens: []string{"csrf"}})

		resp, err := client.Get(context.Background(), "/api/hosts/7/", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var host ipam.Host

		require.NoError(t, json.Unmarshal(resp.Body, &host))
		assert.Equal(t, "web1", host.Hostname)
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/hosts/", request.URL.Path)
			assert.Equal(t, "page=2&page_size=50", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := ipamhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/api/hosts/", url.Values{"page": {"2"}, "page_size": {"50"}})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("mutating request carries csrf token and referer", func(t *testing.T) {
		t.Parallel()

		var server *httptest.Server

		server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
			assert.Equal(t, "token-1", request.Header.Get(ipam.HeaderCSRFToken))
			assert.Equal(t, server.URL+"/", request.Header.Get(ipam.HeaderReferer))

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "web1", body["hostname"])

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := ipamhttp.NewClient(server.URL, &MockCSRFProvider{tokens: []string{"token-1"}})

		resp, err := client.Post(context.Background(), "/api/hosts/", map[string]string{"hostname": "web1"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"detail": "Not found."}`))
		}))
		defer server.Close()

		client := ipamhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/api/hosts/999/", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		apiErr := &ipam.APIError{}
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Not found.", apiErr.Detail)
		assert.True(t, ipam.IsNotFound(err))
	})

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusBadRequest)
			_, _ = writer.Write([]byte(`{"ip_address": ["Enter a valid IPv4 or IPv6 address."]}`))
		}))
		defer server.Close()

		client := ipamhttp.NewClient(server.URL, &MockCSRFProvider{tokens: []string{"t"}})

		_, err := client.Patch(context.Background(), "/api/hosts/1/", map[string]string{"ip_address": "nope"})
		require.Error(t, err)
		assert.True(t, ipam.IsValidation(err))
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "ipam-cli/2.0", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := ipamhttp.NewClient(server.URL, nil, ipamhttp.WithUserAgent("ipam-cli/2.0"))

		req := &ipamhttp.Request{
			Method: http.MethodGet,
			Path:   "/api/hosts/",
			Headers: map[string]string{
				"X-Custom-Header": "custom-value",
			},
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := ipamhttp.NewClient(server.URL, nil, ipamhttp.WithLogger(logger), ipamhttp.WithDebug(true))

		_, err := client.Get(context.Background(), "/api/hosts/", nil)
		require.NoError(t, err)

		messages := logger.messages()
		assert.Contains(t, messages, "API Request")
		assert.Contains(t, messages, "API Response")
	})

	t.Run("without debug nothing is logged", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := ipamhttp.NewClient(server.URL, nil, ipamhttp.WithLogger(logger))

		_, err := client.Get(context.Background(), "/api/hosts/", nil)
		require.NoError(t, err)
		assert.Empty(t, logger.messages())
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*ipamhttp.Client, context.Context) (*ipamhttp.Response, error)
	}{
		{
			name:   "GET",
			method: http.MethodGet,
			fn: func(c *ipamhttp.Client, ctx context.Context) (*ipamhttp.Response, error) {
				return c.Get(ctx, "/test/", nil)
			},
		},
		{
			name:   "POST",
			method: http.MethodPost,
			fn: func(c *ipamhttp.Client, ctx context.Context) (*ipamhttp.Response, error) {
				return c.Post(ctx, "/test/", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PUT",
			method: http.MethodPut,
			fn: func(c *ipamhttp.Client, ctx context.Context) (*ipamhttp.Response, error) {
				return c.Put(ctx, "/test/", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PATCH",
			method: http.MethodPatch,
			fn: func(c *ipamhttp.Client, ctx context.Context) (*ipamhttp.Response, error) {
				return c.Patch(ctx, "/test/", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: http.MethodDelete,
			fn: func(c *ipamhttp.Client, ctx context.Context) (*ipamhttp.Response, error) {
				return c.Delete(ctx, "/test/")
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/test/", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := ipamhttp.NewClient(server.URL, &MockCSRFProvider{tokens: []string{"t"}})
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()
	t.Run("retries on 5xx errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := ipamhttp.NewClient(server.URL, nil, ipamhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test/", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("retries on rate limiting", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 2 {
				writer.WriteHeader(http.StatusTooManyRequests)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := ipamhttp.NewClient(server.URL, nil, ipamhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test/", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := ipamhttp.NewClient(server.URL, nil, ipamhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test/", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("does not retry mutating requests", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := ipamhttp.NewClient(server.URL, &MockCSRFProvider{tokens: []string{"t"}},
			ipamhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Post(context.Background(), "/api/hosts/", map[string]string{"hostname": "a"})
		require.Error(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("retries are off by default", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := ipamhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/test/", nil)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestClient_CSRFRefresh(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		attempts.Add(1)

		if request.Header.Get(ipam.HeaderCSRFToken) != "fresh" {
			writer.WriteHeader(http.StatusForbidden)
			_, _ = writer.Write([]byte(`{"detail": "CSRF Failed: CSRF token incorrect."}`))

			return
		}

		writer.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	provider := &MockCSRFProvider{tokens: []string{"stale", "fresh"}}
	client := ipamhttp.NewClient(server.URL, provider)

	resp, err := client.Delete(context.Background(), "/api/hosts/1/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, 1, provider.invalidated)
}

func TestClient_ForbiddenWithoutCSRFIsNotRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		attempts.Add(1)
		writer.WriteHeader(http.StatusForbidden)
		_, _ = writer.Write([]byte(`{"detail": "You do not have permission to perform this action."}`))
	}))
	defer server.Close()

	client := ipamhttp.NewClient(server.URL, &MockCSRFProvider{tokens: []string{"t"}})

	_, err := client.Delete(context.Background(), "/api/hosts/1/")
	require.Error(t, err)
	assert.True(t, ipam.IsForbidden(err))
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_Session(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/api/login/":
			http.SetCookie(writer, &http.Cookie{Name: "sessionid", Value: "new-session", Path: "/"})
			writer.WriteHeader(http.StatusOK)
		default:
			cookie, err := request.Cookie("sessionid")
			if err != nil {
				writer.WriteHeader(http.StatusForbidden)

				return
			}

			_, _ = writer.Write([]byte(`{"username": "` + cookie.Value + `"}`))
		}
	}))
	defer server.Close()

	client := ipamhttp.NewClient(server.URL, &MockCSRFProvider{tokens: []string{"t"}}, ipamhttp.WithSession("seeded", "csrf-cookie"))
	assert.Equal(t, "seeded", client.Cookie("sessionid"))
	assert.Equal(t, "csrf-cookie", client.Cookie("csrftoken"))

	resp, err := client.Get(context.Background(), "/api/users/me/", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username": "seeded"}`, string(resp.Body))

	_, err = client.Post(context.Background(), "/api/login/", map[string]string{"username": "u", "password": "p"})
	require.NoError(t, err)
	assert.Equal(t, "new-session", client.Cookie("sessionid"))

	client.ClearSession(context.Background())
	assert.Empty(t, client.Cookie("sessionid"))

	_, err = client.Get(context.Background(), "/api/users/me/", nil)
	require.Error(t, err)
	assert.True(t, ipam.IsForbidden(err))
}

func TestClient_ResponseCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hits.Add(1)

		_, _ = writer.Write([]byte(`{"count": 0, "results": []}`))
	}))
	defer server.Close()

	manager := ipam.NewCacheManager(ipam.NewMemoryCache(10), ipam.DefaultCacheOptions())
	client := ipamhttp.NewClient(server.URL, &MockCSRFProvider{tokens: []string{"t"}},
		ipamhttp.WithCache(manager, ipam.DefaultCachingPolicy()))

	ctx := context.Background()
	query := url.Values{"page": {"1"}}

	first, err := client.Get(ctx, "/api/hosts/", query)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := client.Get(ctx, "/api/hosts/", query)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, int32(1), hits.Load())

	_, err = client.Get(ctx, "/api/logs/", nil)
	require.NoError(t, err)
	_, err = client.Get(ctx, "/api/logs/", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load(), "the audit log is never cached")

	_, err = client.Delete(ctx, "/api/hosts/1/")
	require.NoError(t, err)

	third, err := client.Get(ctx, "/api/hosts/", query)
	require.NoError(t, err)
	assert.False(t, third.Cached, "a mutation invalidates cached reads")

	stats := manager.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
}

var errCacheDown = errors.New("cache down")

// brokenCache fails every write.
type brokenCache struct {
	*ipam.NoOpCache
}

func (brokenCache) Set(ctx context.Context, key string, entry *ipam.CacheEntry) error {
	return errCacheDown
}

func TestClient_ResponseCacheStoreFailureIsLogged(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"count": 0, "results": []}`))
	}))
	defer server.Close()

	logger := &MockLogger{}
	manager := ipam.NewCacheManager(brokenCache{ipam.NewNoOpCache()}, ipam.DefaultCacheOptions())
	client := ipamhttp.NewClient(server.URL, nil,
		ipamhttp.WithLogger(logger), ipamhttp.WithCache(manager, ipam.DefaultCachingPolicy()))

	resp, err := client.Get(context.Background(), "/api/hosts/", nil)
	require.NoError(t, err, "a failing cache does not fail the request")
	assert.JSONEq(t, `{"count": 0, "results": []}`, string(resp.Body))
	assert.Contains(t, logger.messages(), "cache store failed")
}
