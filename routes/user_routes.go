package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wespark/certifier/handlers"
)

func UserRoutes(app *fiber.App, h *handlers.UserHandler) {
	users := app.Group("/api/users")
	users.Get("", h.List)
	users.Get("/:id", h.Get)
	users.Post("", h.Create)
	users.Put("/:id", h.Update)
	users.Delete("/:id", h.Delete)
}
