package navigation

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type planRequest struct {
	Origin      Point        `json:"origin"`
	Destination Point        `json:"destination"`
	Options     RouteOptions `json:"options"`
}

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/route", func(c *fiber.Ctx) error {
		var req planRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		plan, err := svc.Plan(c.Context(), req.Origin, req.Destination, req.Options)
		if err != nil {
			if errors.Is(err, ErrNoRouteFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(plan)
	})

	r.Post("/position", func(c *fiber.Ctx) error {
		var pos Point
		if err := c.BodyParser(&pos); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		guidance, err := svc.ReportPosition(c.Context(), pos)
		if err != nil {
			if errors.Is(err, ErrNoRoute) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(guidance)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		plan, ok := svc.Current()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, ErrNoRoute.Error())
		}
		return c.JSON(plan)
	})

	r.Delete("/", func(c *fiber.Ctx) error {
		svc.Clear()
		return c.SendStatus(fiber.StatusNoContent)
	})
}
