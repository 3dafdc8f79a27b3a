package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/ipam-client/internal/client"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

const testCSRFToken = "csrf-token"

// recordedRequest is what the fake backend saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	CSRF   string
	Body   map[string]any
}

// fakeBackend serves the session endpoints and whatever routes a test adds.
type fakeBackend struct {
	*httptest.Server

	mux      *http.ServeMux
	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	backend := &fakeBackend{mux: http.NewServeMux()}

	backend.HandleFunc("GET /api/csrf/", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: testCSRFToken, Path: "/"})
		writeJSON(w, http.StatusOK, ipam.CSRFToken{Token: testCSRFToken})
	})

	backend.Server = httptest.NewServer(http.HandlerFunc(backend.serve))
	t.Cleanup(backend.Close)

	return backend
}

func (b *fakeBackend) HandleFunc(pattern string, handler http.HandlerFunc) {
	b.mux.HandleFunc(pattern, handler)
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	recorded := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		CSRF:   r.Header.Get(ipam.HeaderCSRFToken),
	}

	if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &recorded.Body)
		r.Body = io.NopCloser(bytes.NewReader(raw))
	}

	b.mu.Lock()
	b.requests = append(b.requests, recorded)
	b.mu.Unlock()

	b.mux.ServeHTTP(w, r)
}

// Requests returns the recorded requests, excluding the CSRF bootstrap.
func (b *fakeBackend) Requests() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []recordedRequest

	for _, req := range b.requests {
		if req.Path != "/api/csrf/" {
			out = append(out, req)
		}
	}

	return out
}

func (b *fakeBackend) Client(t *testing.T) *Client {
	t.Helper()

	return b.ClientWith(t, &ipam.Config{})
}

func (b *fakeBackend) ClientWith(t *testing.T, config *ipam.Config) *Client {
	t.Helper()

	config.APIEndpoint = b.URL

	client, err := New(context.Background(), config)
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func strPtr(s string) *string {
	return &s
}
