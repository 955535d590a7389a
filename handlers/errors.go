// handlers/errors.go
package handlers

import (
	"errors"
	"log"

	"goon-fighter/services"

	"github.com/gofiber/fiber/v2"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrNotFound, fiber.StatusNotFound},
	{services.ErrUnauthorized, fiber.StatusUnauthorized},
	{services.ErrForbidden, fiber.StatusForbidden},
	{services.ErrAdminOnly, fiber.StatusForbidden},
	{services.ErrNotParticipant, fiber.StatusForbidden},
	{services.ErrAlreadyResolved, fiber.StatusConflict},
	{services.ErrAlreadyQueued, fiber.StatusConflict},
	{services.ErrInvalidState, fiber.StatusConflict},
	{services.ErrNotPaired, fiber.StatusConflict},
	{services.ErrInvalidArgument, fiber.StatusBadRequest},
	{services.ErrInvalidParticipants, fiber.StatusBadRequest},
	{services.ErrInvalidSession, fiber.StatusBadRequest},
	{services.ErrPaymentNotCompleted, fiber.StatusPaymentRequired},
	{services.ErrNotConfigured, fiber.StatusServiceUnavailable},
	{services.ErrConfiguration, fiber.StatusInternalServerError},
}

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("❌ [API] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
