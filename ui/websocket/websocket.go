package websocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

// RegisterRoutes mounts the agent socket endpoint. The hub instance is
// injected; handlers never reach for package-level state.
func RegisterRoutes(app fiber.Router, hub *Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		lc := hub.register(conn)
		defer hub.drop(lc, "read_loop_exit")

		// Protocol-level pongs count as liveness, same as any frame.
		conn.SetPongHandler(func(string) error {
			lc.markAlive()
			return nil
		})

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.WithError(err).Debug("[WS] Read error")
				}
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			hub.HandleFrame(lc, message)
		}
	}))
}
