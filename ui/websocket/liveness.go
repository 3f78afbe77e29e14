package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/convodesk/convodesk/domains/realtime"
)

// runLiveness drives three tickers: the ping pass, the eviction sweep
// offset from it by SweepOffset, and the periodic connection_stats
// broadcast. A connection gets one full ping interval to produce any
// frame or protocol pong before the sweep force-closes it.
func (h *Hub) runLiveness(ctx context.Context) {
	pingTicker := time.NewTicker(h.cfg.PingInterval)
	defer pingTicker.Stop()
	statsTicker := time.NewTicker(h.cfg.StatsInterval)
	defer statsTicker.Stop()

	// Offset the sweep so it always lands between two ping passes.
	sweepDelay := time.NewTimer(h.cfg.SweepOffset)
	defer sweepDelay.Stop()
	var sweepTicker *time.Ticker
	var sweepC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if sweepTicker != nil {
				sweepTicker.Stop()
			}
			return
		case <-pingTicker.C:
			h.pingPass()
		case <-sweepDelay.C:
			sweepTicker = time.NewTicker(h.cfg.PingInterval)
			sweepC = sweepTicker.C
			h.sweepPass()
		case <-sweepC:
			h.sweepPass()
		case <-statsTicker.C:
			h.broadcastStats()
		}
	}
}

// pingPass marks every connection dead, then pings it both ways: a
// protocol-level ping for well-behaved clients and an application-level
// ping frame for clients that cannot surface protocol pongs. Any inbound
// frame or pong flips the connection back to alive.
func (h *Hub) pingPass() {
	appPing, err := json.Marshal(realtime.NewEvent(realtime.FramePing, nil))
	if err != nil {
		return
	}
	for _, lc := range h.snapshot() {
		lc.mu.Lock()
		lc.isAlive = false
		lc.mu.Unlock()

		lc.writeMu.Lock()
		pingErr := lc.conn.WriteControl(PingMessage, nil, time.Now().Add(5*time.Second))
		lc.writeMu.Unlock()
		if pingErr != nil {
			h.drop(lc, "ping_failed")
			continue
		}
		if err := lc.write(TextMessage, appPing); err != nil {
			h.drop(lc, "ping_failed")
		}
	}
}

// sweepPass evicts every connection that stayed silent through the whole
// interval since the last ping pass.
func (h *Hub) sweepPass() {
	evicted := 0
	for _, lc := range h.snapshot() {
		lc.mu.Lock()
		alive := lc.isAlive
		lc.mu.Unlock()
		if !alive {
			h.drop(lc, "liveness_timeout")
			evicted++
		}
	}
	if evicted > 0 {
		logrus.WithField("evicted", evicted).Info("[WS] Liveness sweep closed dead connections")
	}

	h.pruneTypingState()
}

// pruneTypingState drops debounce entries old enough to be irrelevant so
// the map does not grow with every conversation ever typed in.
func (h *Hub) pruneTypingState() {
	cutoff := time.Now().Add(-10 * h.cfg.TypingDebounce)
	h.mu.Lock()
	for key, last := range h.lastTyped {
		if last.Before(cutoff) {
			delete(h.lastTyped, key)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) broadcastStats() {
	h.Broadcast(realtime.NewEvent(realtime.EventConnectionStats, map[string]any{
		"activeConnections":   h.ActiveCount(),
		"authenticatedAgents": h.authenticatedCount(),
	}))
}
