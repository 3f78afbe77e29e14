package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/convodesk/convodesk/domains/channel"
	"github.com/convodesk/convodesk/pkg/phoneutil"
)

// DefaultTimeout bounds every outbound provider HTTP attempt. The original
// operator deployments never documented a value, so it is explicit
// configuration here rather than a guess baked into call sites.
const DefaultTimeout = 10 * time.Second

// ErrorClass is the operator-facing provider error taxonomy.
type ErrorClass string

const (
	ErrMissingCredentials   ErrorClass = "missing_credentials"
	ErrInvalidCredentials   ErrorClass = "invalid_credentials"
	ErrAPIIncompatible      ErrorClass = "api_incompatible"
	ErrAuthenticationFailed ErrorClass = "authentication_failed"
	ErrUnclassified         ErrorClass = "unclassified"
)

// Error is the typed failure every client method normalizes into. Detail is
// preserved for diagnostics but is never shown verbatim to operators.
type Error struct {
	Class    ErrorClass
	Detail   string
	Attempts []Attempt
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Class)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Detail)
}

// AsError returns the *Error inside err, if there is one.
func AsError(err error) (*Error, bool) {
	pe, ok := err.(*Error)
	return pe, ok
}

// Config tunes one provider client. Zero values fall back to defaults.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// StatusNotFoundLimit is the number of consecutive not-found-shaped
	// status endpoint failures after which probing stops early. See
	// DefaultStatusNotFoundLimit.
	StatusNotFoundLimit int
	HTTPClient          *http.Client
	Hypotheses          []EndpointHypothesis
}

// Client wraps the resolver behind a typed request surface. One client
// corresponds to one channel's credentials.
type Client struct {
	cred          channel.Credential
	resolver      *Resolver
	notFoundLimit int
}

// NewClient validates the credentials and builds the resolver. Incomplete
// credentials are rejected up front so no probe is ever wasted on them.
func NewClient(cred channel.Credential, cfg Config) (*Client, error) {
	if !cred.IsComplete() {
		return nil, &Error{Class: ErrMissingCredentials, Detail: "instance id and secret token are required"}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	hypotheses := cfg.Hypotheses
	if len(hypotheses) == 0 {
		hypotheses = DefaultHypotheses
	}

	resolver, err := NewResolver(cfg.BaseURL, cred, hypotheses, httpClient)
	if err != nil {
		return nil, err
	}

	limit := cfg.StatusNotFoundLimit
	if limit <= 0 {
		limit = DefaultStatusNotFoundLimit
	}

	return &Client{cred: cred, resolver: resolver, notFoundLimit: limit}, nil
}

// failureToError maps a resolver aggregate failure into the client taxonomy.
func failureToError(f *Failure) *Error {
	e := &Error{Detail: summarizeAttempts(f.Attempts), Attempts: f.Attempts}
	switch f.Kind {
	case FailureInvalidCredentials:
		e.Class = ErrInvalidCredentials
	case FailureAPIIncompatible:
		e.Class = ErrAPIIncompatible
	case FailureAuthenticationFailed:
		e.Class = ErrAuthenticationFailed
	default:
		e.Class = ErrUnclassified
	}
	return e
}

func summarizeAttempts(attempts []Attempt) string {
	if len(attempts) == 0 {
		return ""
	}
	last := attempts[len(attempts)-1]
	return fmt.Sprintf("%d hypotheses failed, last: %s (%s)", len(attempts), last.ErrorKind, last.Detail)
}

// call is the shared delegate every typed method funnels through.
func (c *Client) call(ctx context.Context, method, endpoint string, body any) (map[string]any, error) {
	resp, err := c.resolver.Resolve(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if !resp.Succeeded {
		return nil, failureToError(resp.Failure)
	}
	return resp.Body, nil
}

// SendText delivers a plain text message. The phone is re-stripped to
// digits regardless of what callers hand in.
func (c *Client) SendText(ctx context.Context, phone, text string) (map[string]any, error) {
	return c.call(ctx, http.MethodPost, "/send-text", map[string]any{
		"phone":   phoneutil.DigitsOnly(phone),
		"message": text,
	})
}

// SendMedia delivers a media message by URL; the provider fetches the URL
// itself. Caption and fileName are optional.
func (c *Client) SendMedia(ctx context.Context, phone string, kind, url, caption, fileName string) (map[string]any, error) {
	payload := map[string]any{
		"phone": phoneutil.DigitsOnly(phone),
		"type":  kind,
		"url":   url,
	}
	if caption != "" {
		payload["caption"] = caption
	}
	if fileName != "" {
		payload["fileName"] = fileName
	}
	return c.call(ctx, http.MethodPost, "/send-media", payload)
}

func (c *Client) SendLocation(ctx context.Context, phone string, lat, lng float64, title string) (map[string]any, error) {
	payload := map[string]any{
		"phone":     phoneutil.DigitsOnly(phone),
		"latitude":  lat,
		"longitude": lng,
	}
	if title != "" {
		payload["title"] = title
	}
	return c.call(ctx, http.MethodPost, "/send-location", payload)
}

func (c *Client) SendContactCard(ctx context.Context, phone, contactName, contactPhone string) (map[string]any, error) {
	return c.call(ctx, http.MethodPost, "/send-contact", map[string]any{
		"phone":        phoneutil.DigitsOnly(phone),
		"contactName":  contactName,
		"contactPhone": phoneutil.DigitsOnly(contactPhone),
	})
}

// SetWebhook points the provider's push notifications at url.
func (c *Client) SetWebhook(ctx context.Context, url string) (map[string]any, error) {
	return c.call(ctx, http.MethodPost, "/webhook", map[string]any{"url": url})
}

func (c *Client) GetWebhook(ctx context.Context) (map[string]any, error) {
	return c.call(ctx, http.MethodGet, "/webhook", nil)
}

func (c *Client) MarkRead(ctx context.Context, messageID string) (map[string]any, error) {
	return c.call(ctx, http.MethodPost, "/read-message", map[string]any{"messageId": messageID})
}

func (c *Client) RestartSession(ctx context.Context) (map[string]any, error) {
	return c.call(ctx, http.MethodPost, "/restart-session", nil)
}

func (c *Client) ListChats(ctx context.Context) (map[string]any, error) {
	return c.call(ctx, http.MethodGet, "/chats", nil)
}

func (c *Client) GetMessages(ctx context.Context, phone string, count int) (map[string]any, error) {
	endpoint := fmt.Sprintf("/chat-messages?phone=%s&amount=%d", phoneutil.DigitsOnly(phone), count)
	return c.call(ctx, http.MethodGet, endpoint, nil)
}
