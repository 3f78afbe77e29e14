package provider

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convodesk/convodesk/domains/channel"
)

func newTestClient(t *testing.T, ft *fakeTransport) *Client {
	t.Helper()
	c, err := NewClient(testCredential(), Config{
		BaseURL:    "https://provider.test",
		HTTPClient: &http.Client{Transport: ft},
	})
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsMissingCredentials(t *testing.T) {
	_, err := NewClient(channel.Credential{}, Config{BaseURL: "https://provider.test"})
	require.Error(t, err)
	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrMissingCredentials, pe.Class)
}

func TestGetStatusDerivesConnectedFromVocabulary(t *testing.T) {
	ft := &fakeTransport{handler: func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/connection") && strings.Contains(req.URL.Path, "/instances/inst-123/token/") {
			// No boolean flag, only a status word the provider has used.
			return jsonResponse(200, `{"status": "Open"}`), nil
		}
		return jsonResponse(200, `{"error": "not found"}`), nil
	}}

	c := newTestClient(t, ft)
	status, err := c.GetStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, "/connection", status.Endpoint)
}

func TestGetStatusNegatedVocabularyNeverDerivesConnected(t *testing.T) {
	// Negated forms carry their positive counterpart as a substring; a body
	// that says "disconnected" must never read as connected and must not
	// short-circuit the QR path.
	bodies := []string{
		`{"connected": false, "status": "disconnected"}`,
		`{"state": "unpaired"}`,
		`{"session": "CLOSED"}`,
		`{"status": "logged_out"}`,
	}
	for _, body := range bodies {
		ft := &fakeTransport{handler: func(req *http.Request) (*http.Response, error) {
			if strings.HasSuffix(req.URL.Path, "/connection") && strings.Contains(req.URL.Path, "/instances/inst-123/token/") {
				return jsonResponse(200, body), nil
			}
			return jsonResponse(200, `{"error": "not found"}`), nil
		}}

		c := newTestClient(t, ft)
		status, err := c.GetStatus(context.Background())
		require.NoError(t, err, body)
		assert.False(t, status.Connected, body)
		assert.Equal(t, "/connection", status.Endpoint, body)
	}
}

func TestGetStatusFallsBackToInformationalEndpoint(t *testing.T) {
	ft := &fakeTransport{handler: func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/instances/inst-123/token/") {
			return jsonResponse(200, `{"error": "not found"}`), nil
		}
		// /device only answers when a device is paired; its body carries no
		// status field at all.
		if strings.HasSuffix(req.URL.Path, "/device") {
			return jsonResponse(200, `{"phone": "5511999990000", "name": "Agent Phone"}`), nil
		}
		return jsonResponse(500, `{"error": "internal"}`), nil
	}}

	c := newTestClient(t, ft)
	status, err := c.GetStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, "/device", status.Endpoint)
}

func TestGetStatusStopsEarlyAfterConsecutiveNotFound(t *testing.T) {
	ft := &fakeTransport{handler: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"error": "instance not found"}`), nil
	}}

	c := newTestClient(t, ft)
	_, err := c.GetStatus(context.Background())
	require.Error(t, err)
	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidCredentials, pe.Class)

	// Probing must stop after the third not-found endpoint; the tail of the
	// chain is never touched.
	for _, url := range ft.urls() {
		assert.NotContains(t, url, "/device")
		assert.NotContains(t, url, "/me")
	}
}

func TestGetQRCodeShortCircuitsWhenConnected(t *testing.T) {
	ft := &fakeTransport{handler: func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/connection") && strings.Contains(req.URL.Path, "/instances/inst-123/token/") {
			return jsonResponse(200, `{"connected": true}`), nil
		}
		return jsonResponse(200, `{"error": "not found"}`), nil
	}}

	c := newTestClient(t, ft)
	qr, err := c.GetQRCode(context.Background())
	require.NoError(t, err)
	assert.False(t, qr.Needed)

	for _, url := range ft.urls() {
		assert.NotContains(t, url, "qr", "no QR endpoint may be called when already connected")
	}
}

func TestGetQRCodeShortCircuitsOnInvalidCredentials(t *testing.T) {
	ft := &fakeTransport{handler: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"error": "instance not found"}`), nil
	}}

	c := newTestClient(t, ft)
	_, err := c.GetQRCode(context.Background())
	require.Error(t, err)
	pe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidCredentials, pe.Class)

	for _, url := range ft.urls() {
		assert.NotContains(t, url, "qr")
	}
}

func TestGetQRCodeAcceptsHistoricalPayloadKeys(t *testing.T) {
	ft := &fakeTransport{handler: func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/instances/inst-123/token/") {
			return jsonResponse(200, `{"error": "not found"}`), nil
		}
		switch {
		case strings.HasSuffix(req.URL.Path, "/connection"):
			return jsonResponse(200, `{"connected": false}`), nil
		case strings.HasSuffix(req.URL.Path, "/qr-code"):
			// Answers, but under none of the known keys.
			return jsonResponse(200, `{"expires": 20}`), nil
		case strings.HasSuffix(req.URL.Path, "/qrcode"):
			return jsonResponse(200, `{"base64": "ABC123"}`), nil
		default:
			return jsonResponse(500, `{"error": "internal"}`), nil
		}
	}}

	c := newTestClient(t, ft)
	qr, err := c.GetQRCode(context.Background())
	require.NoError(t, err)
	assert.True(t, qr.Needed)
	assert.Equal(t, "ABC123", qr.Payload)
}

func TestSendTextStripsPhoneToDigits(t *testing.T) {
	var gotBody string
	ft := &fakeTransport{}
	ft.handler = func(req *http.Request) (*http.Response, error) {
		if req.Body != nil {
			b := make([]byte, 1024)
			n, _ := req.Body.Read(b)
			gotBody = string(b[:n])
		}
		return jsonResponse(200, `{"messageId": "m1"}`), nil
	}

	c := newTestClient(t, ft)
	resp, err := c.SendText(context.Background(), "+55 (11) 99999-0000", "hello")
	require.NoError(t, err)
	assert.Equal(t, "m1", resp["messageId"])
	assert.Contains(t, gotBody, `"5511999990000"`)
	assert.NotContains(t, gotBody, "+55")
}
