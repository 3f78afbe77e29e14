package websocket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/convodesk/convodesk/domains/realtime"
)

type inboundFrame struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// HandleFrame routes one inbound JSON frame. Unauthenticated connections
// may only authenticate and ping; anything else gets an
// authentication_error reply and the frame is discarded.
func (h *Hub) HandleFrame(lc *LiveConnection, raw []byte) {
	lc.markAlive()

	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logrus.WithError(err).Debug("[WS] Discarding malformed frame")
		return
	}

	switch frame.Type {
	case realtime.FrameAuthenticate:
		h.handleAuthenticate(lc, frame.Data)
	case realtime.FramePing:
		h.replyPong(lc)
	case realtime.FrameConversationOpened:
		h.handleConversationStatus(lc, frame.Data, true)
	case realtime.FrameConversationClosed:
		h.handleConversationStatus(lc, frame.Data, false)
	case realtime.FrameTypingStatus:
		h.handleTypingStatus(lc, frame.Data)
	case realtime.FrameNotification:
		h.handleNotification(lc, frame.Data)
	default:
		logrus.WithField("type", frame.Type).Debug("[WS] Unknown frame type")
	}
}

func (h *Hub) handleAuthenticate(lc *LiveConnection, data map[string]any) {
	userID, ok := parseUserID(data["userId"])
	if !ok {
		_ = lc.send(realtime.NewEvent(realtime.EventAuthError, map[string]any{
			"message": "authenticate requires a numeric userId",
		}))
		return
	}
	role, _ := data["role"].(string)

	lc.mu.Lock()
	if lc.authenticated {
		// Identity is fixed for the life of the socket.
		already := lc.userID
		lc.mu.Unlock()
		if already != userID {
			_ = lc.send(realtime.NewEvent(realtime.EventAuthError, map[string]any{
				"message": "connection is already authenticated",
			}))
		}
		return
	}
	lc.authenticated = true
	lc.userID = userID
	lc.role = role
	lc.mu.Unlock()

	logrus.WithFields(logrus.Fields{"user_id": userID, "role": role}).
		Info("[WS] Agent authenticated")

	_ = lc.send(realtime.NewEvent(realtime.EventAuthSuccess, map[string]any{
		"userId": userID,
		"role":   role,
	}))

	// Presence broadcast goes to the other connections; storage follows
	// asynchronously and never rolls back the registration.
	h.broadcastExcept(lc, realtime.NewEvent(realtime.EventUserStatus, map[string]any{
		"userId":   userID,
		"isOnline": true,
	}))
	h.persistPresence(userID, true)
}

func (h *Hub) replyPong(lc *LiveConnection) {
	_ = lc.send(realtime.NewEvent(realtime.EventPong, nil))
}

func (h *Hub) requireAuth(lc *LiveConnection) (int64, bool) {
	userID, _, ok := lc.identity()
	if !ok {
		_ = lc.send(realtime.NewEvent(realtime.EventAuthError, map[string]any{
			"message": "authenticate before sending frames",
		}))
	}
	return userID, ok
}

func (h *Hub) handleConversationStatus(lc *LiveConnection, data map[string]any, opened bool) {
	userID, ok := h.requireAuth(lc)
	if !ok {
		return
	}
	conversationID, _ := data["conversationId"].(string)

	var viewing any
	if opened {
		viewing = userID
	}
	h.Broadcast(realtime.NewEvent(realtime.EventConversationStatus, map[string]any{
		"conversationId": conversationID,
		"viewingAgentId": viewing,
	}))
}

// handleTypingStatus rebroadcasts typing indicators verbatim, without
// suppressing the sender, but debounced per (conversation, agent) so a
// keystroke storm becomes at most one broadcast per debounce window.
func (h *Hub) handleTypingStatus(lc *LiveConnection, data map[string]any) {
	userID, ok := h.requireAuth(lc)
	if !ok {
		return
	}
	conversationID, _ := data["conversationId"].(string)

	key := fmt.Sprintf("%s:%d", conversationID, userID)
	now := time.Now()
	h.mu.Lock()
	if last, seen := h.lastTyped[key]; seen && now.Sub(last) < h.cfg.TypingDebounce {
		h.mu.Unlock()
		return
	}
	h.lastTyped[key] = now
	h.mu.Unlock()

	h.Broadcast(realtime.NewEvent(realtime.EventTypingStatus, data))
}

func (h *Hub) handleNotification(lc *LiveConnection, data map[string]any) {
	if _, ok := h.requireAuth(lc); !ok {
		return
	}
	evt := realtime.NewEvent(realtime.EventNotification, data)
	if target, ok := parseUserID(data["targetUserId"]); ok {
		h.SendTo(target, evt)
		return
	}
	h.Broadcast(evt)
}

func (h *Hub) broadcastExcept(skip *LiveConnection, evt realtime.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	for _, lc := range h.snapshot() {
		if lc == skip {
			continue
		}
		if err := lc.write(TextMessage, data); err != nil {
			h.drop(lc, "write_failed")
		}
	}
	h.publishToValkey(evt)
}

// parseUserID tolerates the numeric shapes JSON clients actually send:
// numbers, numeric strings, and json.Number. Agent ids start at 1; zero
// and negatives are rejected.
func parseUserID(v any) (int64, bool) {
	var id int64
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		id = int64(n)
	case int64:
		id = n
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, false
		}
		id = parsed
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		id = parsed
	default:
		return 0, false
	}
	if id <= 0 {
		return 0, false
	}
	return id, true
}
