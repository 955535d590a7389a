// handlers/payment_routes.go
package handlers

import (
	"goon-fighter/middleware"
	"goon-fighter/services"

	"github.com/gofiber/fiber/v2"
)

type paymentHandler struct {
	svc *services.GameService
}

func SetupPaymentRoutes(app *fiber.App, svc *services.GameService) {
	h := &paymentHandler{svc: svc}

	app.Get("/payments/configured", h.isConfigured)
	app.Get("/purchases/sessions/:id", h.sessionStatus)

	user := middleware.RequireUser()
	app.Get("/me/access", user, h.hasAccess)
	app.Post("/purchases/sessions", user, h.createSession)
	app.Post("/purchases/sessions/:id/unlock", user, h.unlock)

	// 🛡️ Admin
	app.Put("/admin/payments/config", user, middleware.RequireAdmin(), h.setConfig)
}

func (h *paymentHandler) hasAccess(c *fiber.Ctx) error {
	ok, err := h.svc.HasPurchasedAccess(c.UserContext(), middleware.CallerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"purchased": ok})
}

func (h *paymentHandler) createSession(c *fiber.Ctx) error {
	var body struct {
		SuccessURL string `json:"success_url"`
		CancelURL  string `json:"cancel_url"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	descriptor, err := h.svc.CreateGamePurchaseSession(c.UserContext(), middleware.CallerFrom(c), body.SuccessURL, body.CancelURL)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusCreated).SendString(descriptor)
}

func (h *paymentHandler) sessionStatus(c *fiber.Ctx) error {
	status, err := h.svc.GetStripeSessionStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": status.Kind(), "result": status})
}

func (h *paymentHandler) unlock(c *fiber.Ctx) error {
	if err := h.svc.UnlockWithPurchase(c.UserContext(), middleware.CallerFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"purchased": true})
}

func (h *paymentHandler) isConfigured(c *fiber.Ctx) error {
	ok, err := h.svc.IsStripeConfigured(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"configured": ok})
}

func (h *paymentHandler) setConfig(c *fiber.Ctx) error {
	var body struct {
		SecretKey        string   `json:"secret_key"`
		AllowedCountries []string `json:"allowed_countries"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.svc.SetStripeConfiguration(c.UserContext(), middleware.CallerFrom(c), body.SecretKey, body.AllowedCountries); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
