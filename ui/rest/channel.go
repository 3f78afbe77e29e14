package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/convodesk/convodesk/domains/channel"
	"github.com/convodesk/convodesk/pkg/utils"
	"github.com/convodesk/convodesk/workspace/application"
)

type Channel struct {
	Service *application.ChannelService
}

func InitRestChannel(app fiber.Router, service *application.ChannelService) Channel {
	handler := Channel{Service: service}

	app.Post("/channels", handler.Create)
	app.Get("/channels", handler.List)
	app.Get("/channels/:id", handler.Get)
	app.Put("/channels/:id", handler.Update)
	app.Delete("/channels/:id", handler.Delete)
	app.Post("/channels/:id/setup", handler.Setup)

	return handler
}

func (h *Channel) Create(c *fiber.Ctx) error {
	var request channel.CreateRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	ch, err := h.Service.Create(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "SUCCESS",
		Message: "Channel created",
		Results: mapChannel(*ch),
	})
}

func (h *Channel) List(c *fiber.Ctx) error {
	channels, err := h.Service.List(c.UserContext())
	utils.PanicIfNeeded(err)

	results := make([]ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		results = append(results, mapChannel(ch))
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Channels retrieved",
		Results: results,
	})
}

func (h *Channel) Get(c *fiber.Ctx) error {
	ch, err := h.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Channel retrieved",
		Results: mapChannel(*ch),
	})
}

func (h *Channel) Update(c *fiber.Ctx) error {
	var request channel.UpdateRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	ch, err := h.Service.Update(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Channel updated",
		Results: mapChannel(*ch),
	})
}

func (h *Channel) Delete(c *fiber.Ctx) error {
	err := h.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Channel deleted",
	})
}

// Setup drives the provider connection flow. The result is terminal:
// connected, waiting for a QR scan, or a classified error message. The
// operator scans and calls setup again to observe the change.
func (h *Channel) Setup(c *fiber.Ctx) error {
	result, err := h.Service.Setup(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: result.Message,
		Results: result,
	})
}
