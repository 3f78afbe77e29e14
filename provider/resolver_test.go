package provider

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convodesk/convodesk/domains/channel"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

// fakeTransport answers per-request and records every URL it saw.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []string
	handler func(req *http.Request) (*http.Response, error)
}

func (ft *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ft.mu.Lock()
	ft.calls = append(ft.calls, req.URL.String())
	ft.mu.Unlock()
	return ft.handler(req)
}

func (ft *fakeTransport) callCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.calls)
}

func (ft *fakeTransport) urls() []string {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	out := make([]string, len(ft.calls))
	copy(out, ft.calls)
	return out
}

func testCredential() channel.Credential {
	return channel.Credential{
		InstanceID:  "inst-123",
		SecretToken: "tok-abc",
		AuthMode:    channel.AuthTokenInPath,
	}
}

func newTestResolver(t *testing.T, ft *fakeTransport) *Resolver {
	t.Helper()
	r, err := NewResolver("https://provider.test", testCredential(), DefaultHypotheses, &http.Client{Transport: ft})
	require.NoError(t, err)
	return r
}

func TestResolveConvergesOnWinningHypothesis(t *testing.T) {
	// Only the legacy singular prefix answers without an error marker,
	// regardless of its position in the list.
	ft := &fakeTransport{handler: func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Path, "/instance/inst-123/token/") {
			return jsonResponse(200, `{"connected": true}`), nil
		}
		return jsonResponse(200, `{"error": "instance not found"}`), nil
	}}

	r := newTestResolver(t, ft)
	resp, err := r.Resolve(context.Background(), http.MethodGet, "/connection", nil)
	require.NoError(t, err)
	require.True(t, resp.Succeeded)
	assert.Equal(t, true, resp.Body["connected"])
	require.NotNil(t, r.LastGood())
	assert.Equal(t, "legacy singular prefix, token in path", r.LastGood().Description)
}

func TestResolveUsesCachedHypothesisWithoutScanning(t *testing.T) {
	ft := &fakeTransport{handler: func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Path, "/instance/inst-123/token/") {
			return jsonResponse(200, `{"status": "open"}`), nil
		}
		return jsonResponse(200, `{"error": "instance not found"}`), nil
	}}

	r := newTestResolver(t, ft)
	_, err := r.Resolve(context.Background(), http.MethodGet, "/connection", nil)
	require.NoError(t, err)

	before := ft.callCount()
	resp, err := r.Resolve(context.Background(), http.MethodGet, "/connection", nil)
	require.NoError(t, err)
	require.True(t, resp.Succeeded)

	// The second call must hit the provider exactly once: no scan.
	assert.Equal(t, 1, ft.callCount()-before)
}

func TestResolveReprobesWhenCachedHypothesisStartsFailing(t *testing.T) {
	winner := func(path string) bool { return strings.HasPrefix(path, "/v2/instances/") }
	ft := &fakeTransport{}
	ft.handler = func(req *http.Request) (*http.Response, error) {
		if winner(req.URL.Path) {
			return jsonResponse(200, `{"status": "open"}`), nil
		}
		return jsonResponse(200, `{"error": "instance not found"}`), nil
	}

	r := newTestResolver(t, ft)
	_, err := r.Resolve(context.Background(), http.MethodGet, "/connection", nil)
	require.NoError(t, err)
	assert.Equal(t, "versioned v2 prefix, token in path", r.LastGood().Description)

	// The previously winning shape goes dark; a different one now answers.
	winner = func(path string) bool { return strings.HasPrefix(path, "/instances/inst-123/token/") }
	resp, err := r.Resolve(context.Background(), http.MethodGet, "/connection", nil)
	require.NoError(t, err)
	require.True(t, resp.Succeeded)
	assert.Equal(t, "current shape, token embedded in path", r.LastGood().Description)
}

func TestResolveAllInstanceNotFoundIsInvalidCredentials(t *testing.T) {
	ft := &fakeTransport{handler: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"error": "instance not found"}`), nil
	}}

	r := newTestResolver(t, ft)
	resp, err := r.Resolve(context.Background(), http.MethodGet, "/connection", nil)
	require.NoError(t, err)
	require.False(t, resp.Succeeded)
	require.NotNil(t, resp.Failure)
	assert.Equal(t, FailureInvalidCredentials, resp.Failure.Kind)
	assert.Len(t, resp.Failure.Attempts, len(DefaultHypotheses))
}

func TestResolveAllGenericNotFoundIsAPIIncompatible(t *testing.T) {
	ft := &fakeTransport{handler: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(404, `{"message": "NOT_FOUND"}`), nil
	}}

	r := newTestResolver(t, ft)
	resp, err := r.Resolve(context.Background(), http.MethodGet, "/connection", nil)
	require.NoError(t, err)
	require.False(t, resp.Succeeded)
	assert.Equal(t, FailureAPIIncompatible, resp.Failure.Kind)
}

func TestResolveMixedFailuresAreTransient(t *testing.T) {
	i := 0
	ft := &fakeTransport{}
	ft.handler = func(req *http.Request) (*http.Response, error) {
		i++
		if i%2 == 0 {
			return jsonResponse(500, `{"error": "internal"}`), nil
		}
		return jsonResponse(200, `{"error": "instance not found"}`), nil
	}

	r := newTestResolver(t, ft)
	resp, err := r.Resolve(context.Background(), http.MethodGet, "/connection", nil)
	require.NoError(t, err)
	require.False(t, resp.Succeeded)
	assert.Equal(t, FailureTransient, resp.Failure.Kind)
}

func TestResolveSetsAuthHeadersPerHypothesis(t *testing.T) {
	var sawHeaderToken, sawPathToken bool
	ft := &fakeTransport{}
	ft.handler = func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Client-Token") == "tok-abc" {
			sawHeaderToken = true
		}
		if strings.Contains(req.URL.Path, "/token/tok-abc") {
			sawPathToken = true
		}
		return jsonResponse(200, `{"error": "instance not found"}`), nil
	}

	r := newTestResolver(t, ft)
	_, err := r.Resolve(context.Background(), http.MethodGet, "/connection", nil)
	require.NoError(t, err)
	assert.True(t, sawHeaderToken, "header-auth hypotheses must send the Token header")
	assert.True(t, sawPathToken, "path-auth hypotheses must embed the token in the URL")
}

func TestNewResolverRejectsEmptyHypothesisList(t *testing.T) {
	_, err := NewResolver("https://provider.test", testCredential(), nil, &http.Client{})
	assert.Error(t, err)
}
