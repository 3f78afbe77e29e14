package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convodesk/convodesk/domains/autoreply"
	"github.com/convodesk/convodesk/domains/channel"
	"github.com/convodesk/convodesk/domains/message"
	"github.com/convodesk/convodesk/domains/realtime"
	"github.com/convodesk/convodesk/pkg/apperror"
)

type memoryChannelStore struct {
	channels map[string]*channel.Channel
}

func (s *memoryChannelStore) Get(ctx context.Context, id string) (*channel.Channel, error) {
	ch, ok := s.channels[id]
	if !ok {
		return nil, apperror.NotFoundError("channel not found")
	}
	return ch, nil
}

func (s *memoryChannelStore) Create(ctx context.Context, ch *channel.Channel) error { return nil }
func (s *memoryChannelStore) List(ctx context.Context) ([]channel.Channel, error)  { return nil, nil }
func (s *memoryChannelStore) Update(ctx context.Context, ch *channel.Channel) error { return nil }
func (s *memoryChannelStore) Delete(ctx context.Context, id string) error           { return nil }

type memoryMessageStore struct {
	mu        sync.Mutex
	persisted []message.Stored
	history   []message.Stored
}

func (s *memoryMessageStore) PersistInbound(ctx context.Context, msg message.Inbound, conv message.ConversationContext) (*message.Stored, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := message.Stored{
		ID:             "msg-1",
		ChannelID:      conv.ChannelID,
		ConversationID: conv.ChannelID + ":" + msg.PhoneDigitsOnly,
		Inbound:        msg,
		CreatedAt:      time.Now(),
	}
	s.persisted = append(s.persisted, stored)
	return &stored, nil
}

func (s *memoryMessageStore) History(ctx context.Context, channelID, phone string, limit int) ([]message.Stored, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history, nil
}

func (s *memoryMessageStore) persistedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.persisted)
}

// recordingHub notes, for each broadcast, how many messages had been
// persisted at that moment.
type recordingHub struct {
	mu               sync.Mutex
	store            *memoryMessageStore
	events           []realtime.Event
	persistedAtEvent []int
}

func (h *recordingHub) Broadcast(evt realtime.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
	h.persistedAtEvent = append(h.persistedAtEvent, h.store.persistedCount())
}

func (h *recordingHub) SendTo(userID int64, evt realtime.Event) bool { return false }
func (h *recordingHub) ActiveCount() int                            { return 0 }
func (h *recordingHub) IsOnline(userID int64) bool                  { return false }

type fakeDecider struct {
	decision autoreply.Decision
	err      error
	called   chan struct{}
}

func (d *fakeDecider) ShouldAutoReply(ctx context.Context, text string, history []string) (autoreply.Decision, error) {
	defer close(d.called)
	return d.decision, d.err
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	phone string
	done  chan struct{}
}

func (s *fakeSender) SendText(ctx context.Context, phone, text string) (map[string]any, error) {
	s.mu.Lock()
	s.sent = append(s.sent, text)
	s.phone = phone
	s.mu.Unlock()
	close(s.done)
	return map[string]any{"status": "sent"}, nil
}

func (s *fakeSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func textPayload(phone, text string) map[string]any {
	return map[string]any{
		"phone":     phone,
		"type":      "chat",
		"text":      text,
		"messageId": "ext-1",
	}
}

func pipelineFixture(decider autoreply.Decider, sender *fakeSender) (*MessagePipeline, *memoryMessageStore, *recordingHub) {
	channels := &memoryChannelStore{channels: map[string]*channel.Channel{
		"ch-1": {ID: "ch-1", Name: "Support", Provider: "whatsapp", Enabled: true},
	}}
	messages := &memoryMessageStore{}
	hub := &recordingHub{store: messages}
	senders := SenderFactory(func(cred channel.Credential) (TextSender, error) { return sender, nil })
	return NewMessagePipeline(channels, messages, hub, decider, senders, 0.75), messages, hub
}

func TestHandleInboundBroadcastsOnlyAfterPersist(t *testing.T) {
	pipeline, messages, hub := pipelineFixture(nil, nil)

	stored, err := pipeline.HandleInbound(context.Background(), "ch-1", textPayload("+55 11 99999-0000", "hello"))
	require.NoError(t, err)

	assert.Equal(t, 1, messages.persistedCount())
	require.Len(t, hub.events, 1)
	assert.Equal(t, realtime.EventNewMessage, hub.events[0].Type)
	// The event fired while the message was already persisted.
	assert.Equal(t, 1, hub.persistedAtEvent[0])
	assert.Equal(t, "5511999990000", stored.Inbound.PhoneDigitsOnly)
	assert.Equal(t, "ch-1:5511999990000", stored.ConversationID)
}

func TestHandleInboundUnknownChannel(t *testing.T) {
	pipeline, messages, hub := pipelineFixture(nil, nil)

	_, err := pipeline.HandleInbound(context.Background(), "missing", textPayload("5511999990000", "hi"))

	require.Error(t, err)
	var notFound apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Zero(t, messages.persistedCount())
	assert.Empty(t, hub.events)
}

func TestHandleInboundRejectedPayloadNothingStored(t *testing.T) {
	pipeline, messages, hub := pipelineFixture(nil, nil)

	_, err := pipeline.HandleInbound(context.Background(), "ch-1", map[string]any{"type": "chat", "text": "no phone"})

	require.Error(t, err)
	var validation apperror.ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Zero(t, messages.persistedCount())
	assert.Empty(t, hub.events)
}

func TestAutoReplySentWhenConfidenceClearsThreshold(t *testing.T) {
	decider := &fakeDecider{
		decision: autoreply.Decision{ShouldReply: true, SuggestedReply: "We are on it!", Confidence: 0.92},
		called:   make(chan struct{}),
	}
	sender := &fakeSender{done: make(chan struct{})}
	pipeline, _, _ := pipelineFixture(decider, sender)

	_, err := pipeline.HandleInbound(context.Background(), "ch-1", textPayload("5511999990000", "help me"))
	require.NoError(t, err)

	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-reply was never sent")
	}
	assert.Equal(t, []string{"We are on it!"}, sender.sent)
	assert.Equal(t, "5511999990000", sender.phone)
}

func TestAutoReplySkippedWhenDeciderDeclines(t *testing.T) {
	decider := &fakeDecider{
		decision: autoreply.Decision{ShouldReply: false, SuggestedReply: "ignored", Confidence: 0.99},
		called:   make(chan struct{}),
	}
	sender := &fakeSender{done: make(chan struct{})}
	pipeline, _, _ := pipelineFixture(decider, sender)

	_, err := pipeline.HandleInbound(context.Background(), "ch-1", textPayload("5511999990000", "hi"))
	require.NoError(t, err)

	<-decider.called
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, sender.sentCount())
}

func TestAutoReplySkippedBelowConfidenceThreshold(t *testing.T) {
	decider := &fakeDecider{
		decision: autoreply.Decision{ShouldReply: true, SuggestedReply: "maybe", Confidence: 0.5},
		called:   make(chan struct{}),
	}
	sender := &fakeSender{done: make(chan struct{})}
	pipeline, _, _ := pipelineFixture(decider, sender)

	_, err := pipeline.HandleInbound(context.Background(), "ch-1", textPayload("5511999990000", "hi"))
	require.NoError(t, err)

	<-decider.called
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, sender.sentCount())
}

func TestAutoReplyNeverConsideredForMedia(t *testing.T) {
	decider := &fakeDecider{
		decision: autoreply.Decision{ShouldReply: true, SuggestedReply: "yes", Confidence: 1},
		called:   make(chan struct{}),
	}
	sender := &fakeSender{done: make(chan struct{})}
	pipeline, _, _ := pipelineFixture(decider, sender)

	payload := map[string]any{
		"phone":     "5511999990000",
		"type":      "image",
		"url":       "https://cdn.example/pic.jpg",
		"messageId": "ext-2",
	}
	_, err := pipeline.HandleInbound(context.Background(), "ch-1", payload)
	require.NoError(t, err)

	select {
	case <-decider.called:
		t.Fatal("decider must not run for media messages")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Zero(t, sender.sentCount())
}
