package rest

import (
	"time"

	"github.com/convodesk/convodesk/domains/channel"
)

// ChannelResponse is the channel projection handed to the frontend. The
// secret token never leaves the server; only its presence is reported.
type ChannelResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Provider      string    `json:"provider"`
	InstanceID    string    `json:"instance_id"`
	AuthMode      string    `json:"auth_mode"`
	HasCredential bool      `json:"has_credential"`
	WebhookURL    string    `json:"webhook_url,omitempty"`
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func mapChannel(ch channel.Channel) ChannelResponse {
	return ChannelResponse{
		ID:            ch.ID,
		Name:          ch.Name,
		Provider:      ch.Provider,
		InstanceID:    ch.Credential.InstanceID,
		AuthMode:      string(ch.Credential.AuthMode),
		HasCredential: ch.Credential.IsComplete(),
		WebhookURL:    ch.WebhookURL,
		Enabled:       ch.Enabled,
		CreatedAt:     ch.CreatedAt,
		UpdatedAt:     ch.UpdatedAt,
	}
}

// WebhookAck is the fixed acknowledgement shape providers receive.
type WebhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
