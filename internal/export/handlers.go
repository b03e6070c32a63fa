package export

import (
	"context"
	"errors"

	"backend-ridetrack/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// RideSource loads a completed ride from the ledger.
type RideSource interface {
	Ride(ctx context.Context, id string) (telemetry.RideSession, error)
}

func RegisterRoutes(r fiber.Router, rides RideSource) {
	r.Get("/:id/export", func(c *fiber.Ctx) error {
		session, err := rides.Ride(c.Context(), c.Params("id"))
		if errors.Is(err, pgx.ErrNoRows) {
			return fiber.NewError(fiber.StatusNotFound, "ride not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		switch c.Query("format", "gpx") {
		case "gpx":
			body, err := ToGPX(session)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			c.Set(fiber.HeaderContentType, "application/gpx+xml")
			c.Set(fiber.HeaderContentDisposition, `attachment; filename="ride-`+session.ID+`.gpx"`)
			return c.Send(body)
		case "csv":
			body, err := ToCSV(session)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
			c.Set(fiber.HeaderContentType, "text/csv")
			c.Set(fiber.HeaderContentDisposition, `attachment; filename="ride-`+session.ID+`.csv"`)
			return c.Send(body)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "format must be gpx or csv")
		}
	})
}
