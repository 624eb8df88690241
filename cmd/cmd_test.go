package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"toolrent-cli/api"
	"toolrent-cli/storage"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

type fakeServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeServer) handle(method, path string, fn func(w http.ResponseWriter, r *http.Request)) {
	f.routes[method+" "+path] = fn
}

func (f *fakeServer) reply(method, path string, status int, body any) {
	f.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	fn, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	fn(w, r)
}

func (f *fakeServer) calls(method, path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, req := range f.requests {
		if req.Method == method && req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

// newTestEnv points the CLI at a fake API and a temporary config dir.
func newTestEnv(t *testing.T) *fakeServer {
	t.Helper()
	fake := &fakeServer{routes: map[string]func(w http.ResponseWriter, r *http.Request){}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("TOOLRENT_CONFIG_DIR", dir)
	t.Setenv("TOOLRENT_API_URL", srv.URL)
	t.Chdir(dir)

	prevNow := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = prevNow })
	return fake
}

func loginAs(t *testing.T, token string, user api.User) {
	t.Helper()
	raw, err := json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, storage.FileSession{}.Save(&storage.SessionData{JWT: token, User: raw}))
}

func runCLI(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	prevOut, prevIn := stdout, stdin
	stdout = &out
	stdin = strings.NewReader(input)
	t.Cleanup(func() {
		stdout = prevOut
		stdin = prevIn
	})

	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	teardown()
	return out.String(), err
}
