package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/convodesk/convodesk/domains/autoreply"
	"github.com/convodesk/convodesk/domains/channel"
	"github.com/convodesk/convodesk/domains/message"
	"github.com/convodesk/convodesk/domains/realtime"
	"github.com/convodesk/convodesk/infrastructure/webhook"
)

// TextSender is the outbound slice of the provider client the pipeline
// needs for auto-replies.
type TextSender interface {
	SendText(ctx context.Context, phone, text string) (map[string]any, error)
}

// SenderFactory builds an outbound sender for one channel's credentials.
type SenderFactory func(cred channel.Credential) (TextSender, error)

// MessagePipeline is the inbound path: webhook payload in, normalized
// message persisted, event fanned out to connected agents, auto-reply
// considered. The broadcast is sequenced strictly after persistence: no
// agent may observe a message that is not stored yet.
type MessagePipeline struct {
	channels channel.Store
	messages message.Store
	hub      realtime.Broadcaster
	decider  autoreply.Decider
	senders  SenderFactory

	// ConfidenceThreshold gates auto-reply decisions; below it nothing is
	// ever sent.
	ConfidenceThreshold float64
	// HistoryLimit bounds how much conversation history feeds the decider.
	HistoryLimit int
}

func NewMessagePipeline(
	channels channel.Store,
	messages message.Store,
	hub realtime.Broadcaster,
	decider autoreply.Decider,
	senders SenderFactory,
	confidenceThreshold float64,
) *MessagePipeline {
	return &MessagePipeline{
		channels:            channels,
		messages:            messages,
		hub:                 hub,
		decider:             decider,
		senders:             senders,
		ConfidenceThreshold: confidenceThreshold,
		HistoryLimit:        10,
	}
}

// HandleInbound processes one provider push notification. Errors bubble as
// typed apperrors so the REST layer maps them to 404 (unknown channel) and
// 400 (rejected payload).
func (p *MessagePipeline) HandleInbound(ctx context.Context, channelID string, raw map[string]any) (*message.Stored, error) {
	ch, err := p.channels.Get(ctx, channelID)
	if err != nil {
		return nil, err
	}

	msg, err := webhook.Normalize(raw)
	if err != nil {
		return nil, err
	}

	stored, err := p.messages.PersistInbound(ctx, *msg, message.ConversationContext{
		ChannelID: ch.ID,
		Provider:  ch.Provider,
	})
	if err != nil {
		return nil, err
	}

	// Persistence succeeded; only now may agents hear about the message.
	p.hub.Broadcast(realtime.NewEvent(realtime.EventNewMessage, stored))

	logrus.WithFields(logrus.Fields{
		"channel_id": ch.ID,
		"phone":      msg.PhoneDigitsOnly,
		"media":      msg.IsMediaMessage,
	}).Info("[PIPELINE] Inbound message ingested")

	if p.decider != nil && !msg.IsMediaMessage && msg.TextContent != "" {
		go p.maybeAutoReply(context.WithoutCancel(ctx), ch, stored)
	}

	return stored, nil
}

// maybeAutoReply consults the decider and sends the suggested reply when,
// and only when, both guards pass: the decision says reply AND its
// confidence clears the operator threshold.
func (p *MessagePipeline) maybeAutoReply(ctx context.Context, ch *channel.Channel, stored *message.Stored) {
	history, err := p.messages.History(ctx, ch.ID, stored.Inbound.PhoneDigitsOnly, p.HistoryLimit)
	if err != nil {
		logrus.WithError(err).Warn("[PIPELINE] Could not load history for auto-reply")
		history = nil
	}
	texts := make([]string, 0, len(history))
	for _, h := range history {
		texts = append(texts, h.Inbound.TextContent)
	}

	decision, err := p.decider.ShouldAutoReply(ctx, stored.Inbound.TextContent, texts)
	if err != nil {
		logrus.WithError(err).WithField("channel_id", ch.ID).Warn("[PIPELINE] Auto-reply decision failed")
		return
	}
	if !decision.ShouldReply {
		return
	}
	if decision.Confidence < p.ConfidenceThreshold {
		logrus.WithFields(logrus.Fields{
			"channel_id": ch.ID,
			"confidence": decision.Confidence,
			"threshold":  p.ConfidenceThreshold,
		}).Debug("[PIPELINE] Auto-reply below confidence threshold, skipping")
		return
	}
	if decision.SuggestedReply == "" {
		return
	}

	sender, err := p.senders(ch.Credential)
	if err != nil {
		logrus.WithError(err).WithField("channel_id", ch.ID).Warn("[PIPELINE] Cannot build sender for auto-reply")
		return
	}
	if _, err := sender.SendText(ctx, stored.Inbound.PhoneDigitsOnly, decision.SuggestedReply); err != nil {
		logrus.WithError(err).WithField("channel_id", ch.ID).Warn("[PIPELINE] Auto-reply send failed")
	}
}
