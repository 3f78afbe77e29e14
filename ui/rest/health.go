package rest

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/convodesk/convodesk/infrastructure/valkey"
	"github.com/convodesk/convodesk/pkg/utils"
	"github.com/convodesk/convodesk/ui/websocket"
)

type Health struct {
	DB     *gorm.DB
	Hub    *websocket.Hub
	Valkey *valkey.Client
}

func InitRestHealth(app fiber.Router, db *gorm.DB, hub *websocket.Hub, vk *valkey.Client) Health {
	handler := Health{DB: db, Hub: hub, Valkey: vk}

	group := app.Group("/api/health")
	group.Get("/status", handler.GetStatus)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	status := map[string]any{
		"database":              "ok",
		"valkey":                "disabled",
		"websocket_connections": 0,
	}
	healthy := true

	if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		status["database"] = "unreachable"
		healthy = false
	}

	if h.Valkey != nil {
		status["valkey"] = "ok"
		if err := h.Valkey.Ping(c.UserContext()); err != nil {
			status["valkey"] = "unreachable"
			healthy = false
		}
	}

	if h.Hub != nil {
		status["websocket_connections"] = h.Hub.ActiveCount()
	}

	httpStatus := 200
	code := "SUCCESS"
	if !healthy {
		httpStatus = 503
		code = "DEGRADED"
	}
	return c.Status(httpStatus).JSON(utils.ResponseData{
		Status:  httpStatus,
		Code:    code,
		Message: "Health status retrieved",
		Results: status,
	})
}
