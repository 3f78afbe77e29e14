package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	valkeylib "github.com/valkey-io/valkey-go"

	"github.com/convodesk/convodesk/domains/realtime"
	"github.com/convodesk/convodesk/infrastructure/valkey"
)

const valkeyChannel = "convodesk:ws_broadcast"

// RFC 6455 opcodes, mirrored locally so wireConn fakes carry no socket
// dependency. Values match gofiber/websocket.
const (
	TextMessage  = 1
	CloseMessage = 8
	PingMessage  = 9
)

// wireConn is the slice of *websocket.Conn the hub writes to, narrowed so
// tests can run without a real socket.
type wireConn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// LiveConnection is one agent socket. A connection starts unauthenticated
// and permanently gains a user identity on the first valid authenticate
// frame; there is no way back.
type LiveConnection struct {
	hub  *Hub
	conn wireConn

	writeMu sync.Mutex

	mu            sync.Mutex
	authenticated bool
	userID        int64
	role          string
	isAlive       bool
	evicted       bool
}

func (c *LiveConnection) send(evt realtime.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return c.write(TextMessage, data)
}

func (c *LiveConnection) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

func (c *LiveConnection) markAlive() {
	c.mu.Lock()
	c.isAlive = true
	c.mu.Unlock()
}

func (c *LiveConnection) identity() (int64, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.role, c.authenticated
}

// Config carries the hub's tunables; zero values fall back to the
// defaults used by the liveness loop.
type Config struct {
	PingInterval   time.Duration
	SweepOffset    time.Duration
	TypingDebounce time.Duration
	StatsInterval  time.Duration
	ServerID       string
}

func (cfg Config) withDefaults() Config {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.SweepOffset <= 0 {
		cfg.SweepOffset = 15 * time.Second
	}
	if cfg.TypingDebounce <= 0 {
		cfg.TypingDebounce = time.Second
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = 60 * time.Second
	}
	return cfg
}

// Hub is the realtime fan-out component. One instance is owned by the
// process entry point and handed to every layer that broadcasts; the
// registry is never ambient package state. All registry mutation is
// serialized through mu.
type Hub struct {
	cfg      Config
	presence realtime.PresenceStore
	vk       *valkey.Client

	mu        sync.Mutex
	conns     map[*LiveConnection]struct{}
	lastTyped map[string]time.Time
}

func NewHub(cfg Config, presence realtime.PresenceStore, vk *valkey.Client) *Hub {
	return &Hub{
		cfg:       cfg.withDefaults(),
		presence:  presence,
		vk:        vk,
		conns:     make(map[*LiveConnection]struct{}),
		lastTyped: make(map[string]time.Time),
	}
}

func (h *Hub) register(conn wireConn) *LiveConnection {
	lc := &LiveConnection{hub: h, conn: conn, isAlive: true}
	h.mu.Lock()
	h.conns[lc] = struct{}{}
	total := len(h.conns)
	h.mu.Unlock()

	logrus.WithField("connections", total).Debug("[WS] Connection registered")
	if err := lc.send(realtime.NewEvent(realtime.EventWelcome, map[string]any{
		"message": "Connected. Authenticate to receive events.",
	})); err != nil {
		logrus.WithError(err).Debug("[WS] Welcome write failed")
	}
	return lc
}

// drop removes the connection from the registry and, if it was
// authenticated, announces the agent as offline. The evicted flag makes
// the offline announcement fire exactly once no matter how many paths
// (read-loop exit, liveness sweep, write failure) race to close the
// socket.
func (h *Hub) drop(lc *LiveConnection, reason string) {
	lc.mu.Lock()
	if lc.evicted {
		lc.mu.Unlock()
		return
	}
	lc.evicted = true
	userID, _, wasAuthenticated := lc.userID, lc.role, lc.authenticated
	lc.mu.Unlock()

	h.mu.Lock()
	delete(h.conns, lc)
	h.mu.Unlock()

	_ = lc.conn.Close()
	logrus.WithFields(logrus.Fields{"reason": reason, "user_id": userID}).
		Debug("[WS] Connection dropped")

	if wasAuthenticated {
		h.Broadcast(realtime.NewEvent(realtime.EventUserStatus, map[string]any{
			"userId":   userID,
			"isOnline": false,
		}))
		h.persistPresence(userID, false)
	}
}

// persistPresence mirrors presence to storage without blocking the
// socket; failures are logged, never propagated.
func (h *Hub) persistPresence(userID int64, online bool) {
	if h.presence == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.presence.SetPresence(ctx, userID, online); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id": userID,
				"online":  online,
			}).Warn("[WS] Presence write failed")
		}
	}()
}

func (h *Hub) snapshot() []*LiveConnection {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*LiveConnection, 0, len(h.conns))
	for lc := range h.conns {
		out = append(out, lc)
	}
	return out
}

// Broadcast delivers the event to every connection registered at call
// time, best effort per connection, then propagates it to sibling
// servers when Valkey is configured.
func (h *Hub) Broadcast(evt realtime.Event) {
	h.broadcastLocal(evt)
	h.publishToValkey(evt)
}

func (h *Hub) broadcastLocal(evt realtime.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		logrus.WithError(err).Error("[WS] Broadcast marshal failed")
		return
	}
	for _, lc := range h.snapshot() {
		if err := lc.write(TextMessage, data); err != nil {
			logrus.WithError(err).Debug("[WS] Broadcast write failed, dropping connection")
			h.drop(lc, "write_failed")
		}
	}
}

// SendTo delivers the event to every socket authenticated as userID and
// reports whether at least one delivery succeeded.
func (h *Hub) SendTo(userID int64, evt realtime.Event) bool {
	data, err := json.Marshal(evt)
	if err != nil {
		logrus.WithError(err).Error("[WS] SendTo marshal failed")
		return false
	}
	delivered := false
	for _, lc := range h.snapshot() {
		id, _, ok := lc.identity()
		if !ok || id != userID {
			continue
		}
		if err := lc.write(TextMessage, data); err != nil {
			h.drop(lc, "write_failed")
			continue
		}
		delivered = true
	}
	return delivered
}

// ActiveCount reports the number of open connections, authenticated or
// not.
func (h *Hub) ActiveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) IsOnline(userID int64) bool {
	for _, lc := range h.snapshot() {
		if id, _, ok := lc.identity(); ok && id == userID {
			return true
		}
	}
	return false
}

func (h *Hub) authenticatedCount() int {
	n := 0
	for _, lc := range h.snapshot() {
		if _, _, ok := lc.identity(); ok {
			n++
		}
	}
	return n
}

// valkeyEnvelope wraps an event for cross-server propagation. SenderID
// lets each server ignore its own publications.
type valkeyEnvelope struct {
	SenderID string         `json:"sender_id"`
	Event    realtime.Event `json:"event"`
}

func (h *Hub) publishToValkey(evt realtime.Event) {
	if h.vk == nil {
		return
	}
	data, err := json.Marshal(valkeyEnvelope{SenderID: h.cfg.ServerID, Event: evt})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cmd := h.vk.Inner().B().Publish().Channel(valkeyChannel).Message(string(data)).Build()
	if err := h.vk.Inner().Do(ctx, cmd).Error(); err != nil {
		logrus.WithError(err).Error("[WS] Failed to publish broadcast to Valkey")
	}
}

func (h *Hub) startValkeySubscriber(ctx context.Context) {
	if h.vk == nil {
		return
	}
	logrus.Info("[WS] Starting Valkey Pub/Sub subscriber for distributed events")
	go func() {
		err := h.vk.Inner().Receive(ctx, h.vk.Inner().B().Subscribe().Channel(valkeyChannel).Build(), func(msg valkeylib.PubSubMessage) {
			var env valkeyEnvelope
			if err := json.Unmarshal([]byte(msg.Message), &env); err != nil {
				return
			}
			if env.SenderID == h.cfg.ServerID {
				return
			}
			h.broadcastLocal(env.Event)
		})
		if err != nil && ctx.Err() == nil {
			logrus.WithError(err).Error("[WS] Valkey subscriber stopped")
		}
	}()
}

// Run starts the liveness loop, the stats broadcaster and, when Valkey is
// configured, the distributed subscriber. It blocks until ctx is
// cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.startValkeySubscriber(ctx)
	h.runLiveness(ctx)
}
