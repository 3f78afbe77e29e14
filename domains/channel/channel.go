package channel

import (
	"context"
	"time"
)

// AuthMode describes where the provider expects the secret token.
type AuthMode string

const (
	AuthTokenInPath   AuthMode = "token_in_path"
	AuthTokenInHeader AuthMode = "token_in_header"
)

// Credential is the per-attempt value a connected channel lends to the
// provider client. It is never persisted by the messaging core itself;
// the channel record owns it.
type Credential struct {
	InstanceID  string   `json:"instance_id"`
	SecretToken string   `json:"secret_token"`
	AuthMode    AuthMode `json:"auth_mode"`
	ClientToken string   `json:"client_token,omitempty"`
}

func (c Credential) IsComplete() bool {
	return c.InstanceID != "" && c.SecretToken != ""
}

// ConnectionState drives what the operator UI renders for a channel. It is
// derived on demand, not stored.
type ConnectionState string

const (
	StateUnknown      ConnectionState = "unknown"
	StatePendingScan  ConnectionState = "pending_scan"
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
	StateError        ConnectionState = "error"
)

// SetupResult is the terminal outcome of one SetupChannel invocation.
// There are no automatic transitions out of it; a human scans the QR and the
// caller re-invokes setup to observe the change.
type SetupResult struct {
	State     ConnectionState `json:"state"`
	Message   string          `json:"message"`
	QRPayload string          `json:"qr_payload,omitempty"`
}

type Channel struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Provider   string     `json:"provider"`
	Credential Credential `json:"credential"`
	WebhookURL string     `json:"webhook_url,omitempty"`
	Enabled    bool       `json:"enabled"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Store is the persistence collaborator for channel records.
type Store interface {
	Create(ctx context.Context, ch *Channel) error
	Get(ctx context.Context, id string) (*Channel, error)
	List(ctx context.Context) ([]Channel, error)
	Update(ctx context.Context, ch *Channel) error
	Delete(ctx context.Context, id string) error
}
