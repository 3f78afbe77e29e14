package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/convodesk/convodesk/domains/channel"
	"github.com/convodesk/convodesk/validations"
)

// ChannelService owns the channel lifecycle: CRUD on top of the store
// plus the provider setup flow.
type ChannelService struct {
	store channel.Store
	setup *SetupOrchestrator
}

func NewChannelService(store channel.Store, setup *SetupOrchestrator) *ChannelService {
	return &ChannelService{store: store, setup: setup}
}

func (s *ChannelService) Create(ctx context.Context, req channel.CreateRequest) (*channel.Channel, error) {
	if err := validations.ValidateCreateChannel(ctx, req); err != nil {
		return nil, err
	}

	ch := &channel.Channel{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Provider: req.Provider,
		Credential: channel.Credential{
			InstanceID:  req.InstanceID,
			SecretToken: req.SecretToken,
			AuthMode:    channel.AuthMode(req.AuthMode),
			ClientToken: req.ClientToken,
		},
		Enabled: true,
	}
	if err := s.store.Create(ctx, ch); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"channel_id": ch.ID,
		"provider":   ch.Provider,
	}).Info("[CHANNEL] Channel created")
	return ch, nil
}

func (s *ChannelService) Get(ctx context.Context, id string) (*channel.Channel, error) {
	return s.store.Get(ctx, id)
}

func (s *ChannelService) List(ctx context.Context) ([]channel.Channel, error) {
	return s.store.List(ctx)
}

func (s *ChannelService) Update(ctx context.Context, id string, req channel.UpdateRequest) (*channel.Channel, error) {
	if err := validations.ValidateUpdateChannel(ctx, req); err != nil {
		return nil, err
	}

	ch, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		ch.Name = req.Name
	}
	if req.InstanceID != "" {
		ch.Credential.InstanceID = req.InstanceID
	}
	if req.SecretToken != "" {
		ch.Credential.SecretToken = req.SecretToken
	}
	if req.AuthMode != "" {
		ch.Credential.AuthMode = channel.AuthMode(req.AuthMode)
	}
	if req.ClientToken != "" {
		ch.Credential.ClientToken = req.ClientToken
	}
	if req.Enabled != nil {
		ch.Enabled = *req.Enabled
	}

	if err := s.store.Update(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *ChannelService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logrus.WithField("channel_id", id).Info("[CHANNEL] Channel deleted")
	return nil
}

// Setup runs the provider connection flow for a stored channel and
// returns its displayable outcome.
func (s *ChannelService) Setup(ctx context.Context, id string) (*channel.SetupResult, error) {
	ch, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := s.setup.SetupChannel(ctx, ch.ID, ch.Credential)

	if result.State == channel.StateConnected && ch.WebhookURL == "" {
		ch.WebhookURL = s.setup.WebhookURL(ch.ID)
		if err := s.store.Update(ctx, ch); err != nil {
			logrus.WithError(err).WithField("channel_id", ch.ID).
				Warn("[CHANNEL] Could not record webhook URL")
		}
	}
	return &result, nil
}
