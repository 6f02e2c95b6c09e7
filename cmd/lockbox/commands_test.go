package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found_error"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func withTestClient(t *testing.T, ts *testServer) {
	t.Helper()
	orig := newAPIClient
	newAPIClient = func() (*apiClient, error) {
		return ts.client(), nil
	}
	t.Cleanup(func() { newAPIClient = orig })
}

func TestGetCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /v1/secrets/github_token": `{"key":"github_token","value":"ghp_abc"}`,
	})
	withTestClient(t, ts)

	getCmd.SetContext(context.Background())
	if err := getCmd.RunE(getCmd, []string{"github_token"}); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("recorded %d requests, want 1", len(ts.requests))
	}
	req := ts.requests[0]
	if req.Method != "GET" || req.Path != "/v1/secrets/github_token" {
		t.Errorf("request = %s %s, want GET /v1/secrets/github_token", req.Method, req.Path)
	}
	if req.Auth != "Bearer test-token" {
		t.Errorf("auth header = %q, want bearer token", req.Auth)
	}
}

func TestSetCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"PUT /v1/secrets/db_password": `{}`,
	})
	withTestClient(t, ts)

	setCmd.SetContext(context.Background())
	if err := setCmd.RunE(setCmd, []string{"db_password", "hunter2"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("recorded %d requests, want 1", len(ts.requests))
	}
	if want := `{"value":"hunter2"}`; ts.requests[0].Body != want {
		t.Errorf("body = %q, want %q", ts.requests[0].Body, want)
	}
}

func TestSetCommandEscapesKey(t *testing.T) {
	// The route map matches on the decoded path; the recorded request
	// keeps the escaped form.
	ts := newTestServer(t, map[string]string{
		"PUT /v1/secrets/a/b": `{}`,
	})
	withTestClient(t, ts)

	setCmd.SetContext(context.Background())
	if err := setCmd.RunE(setCmd, []string{"a/b", "v"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got := ts.requests[0].Path; got != "/v1/secrets/a%2Fb" {
		t.Errorf("path = %q, want escaped key segment", got)
	}
}

func TestUnsetCommandErrorSurfaces(t *testing.T) {
	ts := newTestServer(t, nil)
	withTestClient(t, ts)

	unsetCmd.SetContext(context.Background())
	err := unsetCmd.RunE(unsetCmd, []string{"missing"})
	if err == nil {
		t.Fatal("expected error from 404 response, got nil")
	}
}

func TestPurgeRequiresConfirm(t *testing.T) {
	ts := newTestServer(t, nil)
	withTestClient(t, ts)

	purgeCmd.SetContext(context.Background())
	if err := purgeCmd.RunE(purgeCmd, nil); err != nil {
		t.Fatalf("purge without --confirm failed: %v", err)
	}
	if len(ts.requests) != 0 {
		t.Errorf("purge without --confirm sent %d requests, want 0", len(ts.requests))
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "lockbox.pid")

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile failed: %v", err)
	}

	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile failed: %v", err)
	}
	if pid <= 0 {
		t.Errorf("pid = %d, want the current process id", pid)
	}

	removePIDFile(path)
	if _, err := readPIDFile(path); err == nil {
		t.Error("readPIDFile succeeded after removal, want error")
	}
}
