package application

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/convodesk/convodesk/domains/channel"
	"github.com/convodesk/convodesk/provider"
)

// ProviderSession is the slice of the provider client the setup flow
// drives. Narrow on purpose so tests can fake it without HTTP.
type ProviderSession interface {
	GetStatus(ctx context.Context) (*provider.StatusResult, error)
	GetQRCode(ctx context.Context) (*provider.QRResult, error)
	SetWebhook(ctx context.Context, url string) (map[string]any, error)
}

// SessionFactory builds a provider session for one credential set.
type SessionFactory func(cred channel.Credential) (ProviderSession, error)

// Operator-facing messages. Raw provider payloads never reach the UI; the
// operator sees exactly one of these.
const (
	msgConnected          = "Channel connected and webhook configured."
	msgScanQR             = "Scan the QR code with the WhatsApp device to finish pairing."
	msgInvalidCredentials = "Invalid credentials: check the instance ID and secret token."
	msgAPIIncompatible    = "The messaging provider changed its API; a software update is required."
	msgAuthFailed         = "The provider rejected the access token."
	msgTransient          = "Temporary provider error; try again in a moment."
	msgMissingCredentials = "Channel credentials are incomplete."
	msgUndetermined       = "Could not determine connection state."
)

// SetupOrchestrator drives a channel's credentials through the provider
// into a displayable state: connected, waiting for a QR scan, or a
// classified error. Terminal either way; the operator re-invokes setup
// after scanning.
type SetupOrchestrator struct {
	sessions       SessionFactory
	webhookBaseURL string
}

func NewSetupOrchestrator(sessions SessionFactory, webhookBaseURL string) *SetupOrchestrator {
	return &SetupOrchestrator{sessions: sessions, webhookBaseURL: webhookBaseURL}
}

// SetupChannel runs the state sequence: check status; if connected,
// configure the webhook (best effort) and report success; if not, fetch a
// QR code and report pending; otherwise classify and report the error.
func (o *SetupOrchestrator) SetupChannel(ctx context.Context, channelID string, cred channel.Credential) channel.SetupResult {
	session, err := o.sessions(cred)
	if err != nil {
		return errorResult(channelID, err)
	}

	status, err := session.GetStatus(ctx)
	if err != nil {
		return errorResult(channelID, err)
	}

	if status.Connected {
		return o.finishConnected(ctx, channelID, session)
	}

	qr, err := session.GetQRCode(ctx)
	if err != nil {
		return errorResult(channelID, err)
	}
	if !qr.Needed {
		// The connected flag flipped between the status call and the QR
		// probe; the instance is paired after all.
		return o.finishConnected(ctx, channelID, session)
	}
	if qr.Payload != "" {
		return channel.SetupResult{
			State:     channel.StatePendingScan,
			Message:   msgScanQR,
			QRPayload: qr.Payload,
		}
	}

	return channel.SetupResult{State: channel.StateError, Message: msgUndetermined}
}

// WebhookURL is the per-channel callback the provider is pointed at.
func (o *SetupOrchestrator) WebhookURL(channelID string) string {
	return fmt.Sprintf("%s/%s", o.webhookBaseURL, channelID)
}

func (o *SetupOrchestrator) finishConnected(ctx context.Context, channelID string, session ProviderSession) channel.SetupResult {
	url := o.WebhookURL(channelID)
	if _, err := session.SetWebhook(ctx, url); err != nil {
		// Best effort: a webhook hiccup does not change the outcome, the
		// operator can retrigger setup later.
		logrus.WithError(err).WithField("channel_id", channelID).
			Warn("[SETUP] Failed to configure provider webhook")
	}
	return channel.SetupResult{State: channel.StateConnected, Message: msgConnected}
}

func errorResult(channelID string, err error) channel.SetupResult {
	message := msgTransient
	if pe, ok := provider.AsError(err); ok {
		switch pe.Class {
		case provider.ErrMissingCredentials:
			message = msgMissingCredentials
		case provider.ErrInvalidCredentials:
			message = msgInvalidCredentials
		case provider.ErrAPIIncompatible:
			message = msgAPIIncompatible
		case provider.ErrAuthenticationFailed:
			message = msgAuthFailed
		case provider.ErrUnclassified:
			message = msgUndetermined
		}
	}
	logrus.WithError(err).WithField("channel_id", channelID).Warn("[SETUP] Channel setup failed")
	return channel.SetupResult{State: channel.StateError, Message: message}
}
