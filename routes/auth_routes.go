package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wespark/certifier/handlers"
)

func AuthRoutes(app *fiber.App, h *handlers.AuthHandler) {
	auth := app.Group("/api/auth")
	auth.Post("/magic-link", h.RequestMagicLink)
	auth.Post("/verify", h.VerifyMagicLink)
	auth.Post("/login", h.Login)
}
