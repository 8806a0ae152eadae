package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wespark/certifier/handlers"
	"github.com/wespark/certifier/middleware"
)

func AdminRoutes(app *fiber.App, h *handlers.AdminHandler) {
	admin := app.Group("/api/admin", middleware.Protected(), middleware.AdminRequired())
	admin.Post("/import-csv", h.ImportCSV)
	admin.Get("/stats", h.Stats)
}
