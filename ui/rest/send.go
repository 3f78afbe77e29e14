package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/convodesk/convodesk/domains/send"
	"github.com/convodesk/convodesk/pkg/utils"
	"github.com/convodesk/convodesk/workspace/application"
)

type Send struct {
	Service *application.OutboundService
}

func InitRestSend(app fiber.Router, service *application.OutboundService) Send {
	handler := Send{Service: service}

	app.Post("/send/text", handler.SendText)
	app.Post("/send/media", handler.SendMedia)
	app.Post("/send/location", handler.SendLocation)
	app.Post("/send/contact", handler.SendContact)

	return handler
}

func (h *Send) SendText(c *fiber.Ctx) error {
	var request send.TextRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	response, err := h.Service.SendText(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Text sent",
		Results: response,
	})
}

func (h *Send) SendMedia(c *fiber.Ctx) error {
	var request send.MediaRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	response, err := h.Service.SendMedia(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Media sent",
		Results: response,
	})
}

func (h *Send) SendLocation(c *fiber.Ctx) error {
	var request send.LocationRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	response, err := h.Service.SendLocation(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Location sent",
		Results: response,
	})
}

func (h *Send) SendContact(c *fiber.Ctx) error {
	var request send.ContactRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	response, err := h.Service.SendContact(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contact sent",
		Results: response,
	})
}
