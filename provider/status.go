package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultStatusNotFoundLimit is the number of consecutive not-found-shaped
// answers after which status probing gives up early: at that point the
// credentials are almost certainly wrong and exhausting the rest of the
// list only burns time. Inherited behavior; override via
// Config.StatusNotFoundLimit rather than re-deriving a different threshold.
const DefaultStatusNotFoundLimit = 3

// statusEndpoints is the ordered fallback chain GetStatus walks when the
// primary connection endpoint fails. The tail entries are informational
// endpoints that only answer at all once a device is paired.
var statusEndpoints = []string{
	"/connection",
	"/status",
	"/session",
	"/device",
	"/phone",
	"/instance",
	"/me",
}

// informationalEndpoints answer nothing useful about connection state in
// their body, but the fact that they answer at all means a device is paired.
var informationalEndpoints = map[string]bool{
	"/device": true,
	"/phone":  true,
	"/me":     true,
}

// connectedVocabulary covers every status string the provider has used to
// mean "paired and online".
var connectedVocabulary = []string{
	"connected",
	"online",
	"open",
	"inchat",
	"authenticated",
	"paired",
}

// disconnectedVocabulary is screened before the positive scan: several
// negated forms ("disconnected", "unpaired") contain their own antonym as
// a substring and must never count as connected.
var disconnectedVocabulary = []string{
	"disconnected",
	"unpaired",
	"unauthenticated",
	"offline",
	"closed",
	"close",
	"logged_out",
	"loggedout",
}

// StatusResult reports the derived connection state of an instance.
type StatusResult struct {
	Connected bool
	Endpoint  string
	Raw       map[string]any
}

// GetStatus walks the status endpoint chain until one answers. The
// "connected" flag is derived, never trusted verbatim: the body's own flag,
// a recognized status string, or a successful informational endpoint all
// count.
func (c *Client) GetStatus(ctx context.Context) (*StatusResult, error) {
	var lastErr *Error
	consecutiveNotFound := 0

	for _, endpoint := range statusEndpoints {
		body, err := c.call(ctx, http.MethodGet, endpoint, nil)
		if err == nil {
			return &StatusResult{
				Connected: deriveConnected(endpoint, body),
				Endpoint:  endpoint,
				Raw:       body,
			}, nil
		}

		pe, ok := AsError(err)
		if !ok {
			return nil, err
		}
		lastErr = pe

		if pe.Class == ErrInvalidCredentials || pe.Class == ErrAPIIncompatible {
			consecutiveNotFound++
			if consecutiveNotFound >= c.notFoundLimit {
				logrus.WithFields(logrus.Fields{
					"instance_id": c.cred.InstanceID,
					"limit":       c.notFoundLimit,
				}).Warn("[PROVIDER] Status probing stopped early, treating as bad credentials")
				return nil, &Error{
					Class:    ErrInvalidCredentials,
					Detail:   "every status endpoint reported not found",
					Attempts: pe.Attempts,
				}
			}
		} else {
			consecutiveNotFound = 0
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &Error{Class: ErrUnclassified, Detail: "no status endpoint answered"}
}

// deriveConnected applies the three-way connected heuristic.
func deriveConnected(endpoint string, body map[string]any) bool {
	if v, ok := body["connected"].(bool); ok && v {
		return true
	}
	for _, field := range []string{"status", "state", "session"} {
		s, ok := body[field].(string)
		if !ok {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(s))
		negated := false
		for _, word := range disconnectedVocabulary {
			if strings.Contains(lower, word) {
				negated = true
				break
			}
		}
		if negated {
			return false
		}
		for _, word := range connectedVocabulary {
			if lower == word || strings.Contains(lower, word) {
				return true
			}
		}
	}
	return informationalEndpoints[endpoint]
}
