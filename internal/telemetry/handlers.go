package telemetry

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/start", func(c *fiber.Ctx) error {
		session, err := svc.StartRide(c.Context())
		if err != nil {
			if errors.Is(err, ErrSessionActive) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/samples", func(c *fiber.Ctx) error {
		var req LocationSample
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		snap, accepted, err := svc.Ingest(c.Context(), req)
		if err != nil {
			if errors.Is(err, ErrSessionIdle) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"accepted": accepted, "session": snap})
	})

	r.Get("/current", func(c *fiber.Ctx) error {
		snap, active := svc.Snapshot()
		if !active {
			return fiber.NewError(fiber.StatusNotFound, ErrSessionIdle.Error())
		}
		return c.JSON(snap)
	})

	r.Post("/stop", func(c *fiber.Ctx) error {
		session, err := svc.StopRide(c.Context())
		if err != nil {
			if errors.Is(err, ErrSessionIdle) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(session)
	})

	r.Get("/recovery", func(c *fiber.Ctx) error {
		snap, at, err := svc.PendingRecovery(c.Context())
		if err != nil {
			if errors.Is(err, ErrNoRecovery) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"session": snap, "last_update": at.Format(time.RFC3339)})
	})

	r.Post("/recovery/resume", func(c *fiber.Ctx) error {
		session, err := svc.ResumeRecovered(c.Context())
		if err != nil {
			switch {
			case errors.Is(err, ErrNoRecovery):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrSessionActive):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(session)
	})

	r.Delete("/recovery", func(c *fiber.Ctx) error {
		if err := svc.DiscardRecovered(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		rides, err := svc.History(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(rides)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		ride, err := svc.Ride(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fiber.NewError(fiber.StatusNotFound, "ride not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(ride)
	})
}
