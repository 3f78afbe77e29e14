package rest

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/convodesk/convodesk/pkg/apperror"
	"github.com/convodesk/convodesk/workspace/application"
)

type Webhook struct {
	Pipeline *application.MessagePipeline
}

func InitRestWebhook(app fiber.Router, pipeline *application.MessagePipeline) Webhook {
	handler := Webhook{Pipeline: pipeline}

	app.Post("/webhooks/:provider/:channelId", handler.Receive)

	return handler
}

// Receive ingests one provider push notification. Providers retry on
// non-2xx, so the response contract is deliberately narrow: 200 once the
// message is normalized and persisted, 404 for an unknown channel, 400
// when the payload has no usable phone.
func (h *Webhook) Receive(c *fiber.Ctx) error {
	channelID := c.Params("channelId")

	var raw map[string]any
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return c.Status(400).JSON(WebhookAck{Success: false, Message: "Malformed JSON payload"})
	}

	_, err := h.Pipeline.HandleInbound(c.UserContext(), channelID, raw)
	if err != nil {
		status := 500
		if typed, ok := err.(apperror.GenericError); ok {
			status = typed.StatusCode()
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"provider":   c.Params("provider"),
			"channel_id": channelID,
		}).Warn("[WEBHOOK] Inbound payload rejected")
		return c.Status(status).JSON(WebhookAck{Success: false, Message: err.Error()})
	}

	return c.JSON(WebhookAck{Success: true, Message: "Message ingested"})
}
