package weather

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		lat, err := strconv.ParseFloat(c.Query("lat"), 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat must be a number")
		}
		lon, err := strconv.ParseFloat(c.Query("lon"), 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lon must be a number")
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return fiber.NewError(fiber.StatusBadRequest, "coordinates out of range")
		}

		reading, err := svc.Lookup(c.Context(), lat, lon)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "weather data unavailable")
		}
		return c.JSON(reading)
	})

	r.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(svc.Stats())
	})

	r.Post("/preload", func(c *fiber.Ctx) error {
		warmed := svc.Preload(c.Context())
		return c.JSON(fiber.Map{"warmed": warmed})
	})
}
