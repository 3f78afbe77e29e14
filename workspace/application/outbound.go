package application

import (
	"context"

	"github.com/convodesk/convodesk/domains/channel"
	"github.com/convodesk/convodesk/domains/send"
	"github.com/convodesk/convodesk/validations"
)

// ProviderOps is the outbound slice of the provider client the send
// service drives.
type ProviderOps interface {
	SendText(ctx context.Context, phone, text string) (map[string]any, error)
	SendMedia(ctx context.Context, phone string, kind, url, caption, fileName string) (map[string]any, error)
	SendLocation(ctx context.Context, phone string, lat, lng float64, title string) (map[string]any, error)
	SendContactCard(ctx context.Context, phone, contactName, contactPhone string) (map[string]any, error)
}

// ProviderFactory builds a full provider client for one channel's
// credentials.
type ProviderFactory func(cred channel.Credential) (ProviderOps, error)

// OutboundService sends agent-authored messages through the channel's
// provider.
type OutboundService struct {
	channels channel.Store
	clients  ProviderFactory
}

func NewOutboundService(channels channel.Store, clients ProviderFactory) *OutboundService {
	return &OutboundService{channels: channels, clients: clients}
}

func (s *OutboundService) client(ctx context.Context, channelID string) (ProviderOps, error) {
	ch, err := s.channels.Get(ctx, channelID)
	if err != nil {
		return nil, err
	}
	ops, err := s.clients(ch.Credential)
	if err != nil {
		return nil, operatorError(err)
	}
	return ops, nil
}

func (s *OutboundService) SendText(ctx context.Context, req send.TextRequest) (map[string]any, error) {
	if err := validations.ValidateSendText(ctx, req); err != nil {
		return nil, err
	}
	ops, err := s.client(ctx, req.ChannelID)
	if err != nil {
		return nil, err
	}
	resp, err := ops.SendText(ctx, req.Phone, req.Message)
	if err != nil {
		return nil, operatorError(err)
	}
	return resp, nil
}

func (s *OutboundService) SendMedia(ctx context.Context, req send.MediaRequest) (map[string]any, error) {
	if err := validations.ValidateSendMedia(ctx, req); err != nil {
		return nil, err
	}
	ops, err := s.client(ctx, req.ChannelID)
	if err != nil {
		return nil, err
	}
	resp, err := ops.SendMedia(ctx, req.Phone, req.Kind, req.URL, req.Caption, req.FileName)
	if err != nil {
		return nil, operatorError(err)
	}
	return resp, nil
}

func (s *OutboundService) SendLocation(ctx context.Context, req send.LocationRequest) (map[string]any, error) {
	if err := validations.ValidateSendLocation(ctx, req); err != nil {
		return nil, err
	}
	ops, err := s.client(ctx, req.ChannelID)
	if err != nil {
		return nil, err
	}
	resp, err := ops.SendLocation(ctx, req.Phone, req.Latitude, req.Longitude, req.Title)
	if err != nil {
		return nil, operatorError(err)
	}
	return resp, nil
}

func (s *OutboundService) SendContact(ctx context.Context, req send.ContactRequest) (map[string]any, error) {
	if err := validations.ValidateSendContact(ctx, req); err != nil {
		return nil, err
	}
	ops, err := s.client(ctx, req.ChannelID)
	if err != nil {
		return nil, err
	}
	resp, err := ops.SendContactCard(ctx, req.Phone, req.ContactName, req.ContactPhone)
	if err != nil {
		return nil, operatorError(err)
	}
	return resp, nil
}
