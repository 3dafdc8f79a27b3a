package commands_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/ipam-client/cmd/ipam/commands"
	"github.com/fivetwenty-io/ipam-client/pkg/ipam"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// ipamBackend is an in-memory IPAM server with session login.
type ipamBackend struct {
	*httptest.Server

	mu     sync.Mutex
	hosts  map[int]ipam.Host
	nextID int
	logs   []ipam.LogEntry
}

func newIPAMBackend(t *testing.T) *ipamBackend {
	t.Helper()

	b := &ipamBackend{hosts: map[int]ipam.Host{}, nextID: 1}

	for _, host := range []ipam.Host{
		{Hostname: "web01", IPAddress: "10.0.0.1", Domain: "example.com", Owner: "ops", Active: true},
		{Hostname: "web02", IPAddress: "10.0.0.2", Domain: "example.com", Owner: "ops", Active: true},
		{Hostname: "db01", IPAddress: "10.0.1.1", Domain: "example.com", Owner: "dba", Active: true},
	} {
		b.add(host)
	}

	for i := 1; i <= 3; i++ {
		b.logs = append(b.logs, ipam.LogEntry{
			ID:       i,
			Username: "admin",
			Action:   "update",
			Message:  "change " + strconv.Itoa(i),
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/csrf/{$}", b.csrf)
	mux.HandleFunc("POST /api/login/{$}", b.login)
	mux.HandleFunc("POST /api/logout/{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/users/me/{$}", b.me)
	mux.HandleFunc("GET /api/hosts/{$}", b.listHosts)
	mux.HandleFunc("POST /api/hosts/{$}", b.createHost)
	mux.HandleFunc("GET /api/hosts/{id}/", b.getHost)
	mux.HandleFunc("PUT /api/hosts/{id}/", b.updateHost)
	mux.HandleFunc("DELETE /api/hosts/{id}/", b.deleteHost)
	mux.HandleFunc("GET /api/search/{$}", b.search)
	mux.HandleFunc("GET /api/logs/{$}", b.listLogs)

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)

	return b
}

func (b *ipamBackend) add(host ipam.Host) ipam.Host {
	host.ID = b.nextID
	b.nextID++
	b.hosts[host.ID] = host

	return host
}

func (b *ipamBackend) host(id int) (ipam.Host, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	host, ok := b.hosts[id]

	return host, ok
}

func (b *ipamBackend) hostCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.hosts)
}

func (b *ipamBackend) csrf(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-1", Path: "/"})
	writeJSON(w, http.StatusOK, ipam.CSRFToken{Token: "csrf-1"})
}

func (b *ipamBackend) login(w http.ResponseWriter, r *http.Request) {
	var creds ipam.Credentials

	_ = json.NewDecoder(r.Body).Decode(&creds)

	if creds.Username != "admin" || creds.Password != "secret" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"Invalid credentials."}})

		return
	}

	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "session-1", Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-2", Path: "/"})
	writeJSON(w, http.StatusOK, ipam.User{ID: 1, Username: "admin"})
}

func (b *ipamBackend) me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("sessionid")
	if err != nil || cookie.Value != "session-1" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})

		return
	}

	writeJSON(w, http.StatusOK, ipam.User{ID: 1, Username: "admin", Email: "admin@example.com", IsStaff: true, IsActive: true})
}

func paginate[T any](r *http.Request, items []T) ipam.ListResponse[T] {
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(query.Get("page_size"))
	if err != nil || size < 1 {
		size = ipam.DefaultPageSize
	}

	list := ipam.ListResponse[T]{Count: len(items), Results: []T{}}

	start := (page - 1) * size
	for i := start; i < start+size && i < len(items); i++ {
		list.Results = append(list.Results, items[i])
	}

	if start+size < len(items) {
		next := fmt.Sprintf("http://%s%s?page=%d&page_size=%d", r.Host, r.URL.Path, page+1, size)
		list.Next = &next
	}

	return list
}

func (b *ipamBackend) listHosts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]int, 0, len(b.hosts))
	for id := range b.hosts {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	search := r.URL.Query().Get("search")

	hosts := make([]ipam.Host, 0, len(ids))
	for _, id := range ids {
		if strings.Contains(b.hosts[id].Hostname, search) {
			hosts = append(hosts, b.hosts[id])
		}
	}

	writeJSON(w, http.StatusOK, paginate(r, hosts))
}

func (b *ipamBackend) getHost(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	host, ok := b.host(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})

		return
	}

	writeJSON(w, http.StatusOK, host)
}

func (b *ipamBackend) createHost(w http.ResponseWriter, r *http.Request) {
	var host ipam.Host

	_ = json.NewDecoder(r.Body).Decode(&host)

	b.mu.Lock()
	host = b.add(host)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, host)
}

func (b *ipamBackend) updateHost(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	var host ipam.Host

	_ = json.NewDecoder(r.Body).Decode(&host)
	host.ID = id

	b.mu.Lock()
	b.hosts[id] = host
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, host)
}

func (b *ipamBackend) deleteHost(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	b.mu.Lock()
	delete(b.hosts, id)
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (b *ipamBackend) search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("search")

	b.mu.Lock()
	results := []ipam.SearchResult{}

	for id := 1; id < b.nextID; id++ {
		host, ok := b.hosts[id]
		if ok && strings.Contains(host.Hostname, term) {
			results = append(results, ipam.SearchResult{Kind: "host", ID: id, Label: host.FQDN(), Detail: host.IPAddress})
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, paginate(r, results))
}

func (b *ipamBackend) listLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, paginate(r, b.logs))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeConfig creates a config file in a temporary directory.
func writeConfig(t *testing.T, values map[string]any) string {
	t.Helper()

	configFile := filepath.Join(t.TempDir(), "config.yml")

	data, err := yaml.Marshal(values)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configFile, data, 0o600))

	return configFile
}

func readConfig(t *testing.T, configFile string) commands.Config {
	t.Helper()

	data, err := os.ReadFile(configFile)
	require.NoError(t, err)

	var config commands.Config
	require.NoError(t, yaml.Unmarshal(data, &config))

	return config
}

// runCLI executes the ipam command with a fresh viper instance. Commands
// share viper's global state, so tests using it must not run in parallel.
func runCLI(t *testing.T, configFile, stdin string, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	root := commands.NewRootCommand("1.2.3", "abc123", "2026-01-01")

	var stdout, stderr bytes.Buffer

	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", configFile}, args...))

	err := root.Execute()

	return stdout.String(), err
}
