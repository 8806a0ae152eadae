package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wespark/certifier/handlers"
)

func CourseRoutes(app *fiber.App, h *handlers.CourseHandler) {
	courses := app.Group("/api/courses")
	courses.Get("", h.List)
	courses.Get("/:id", h.Get)
	courses.Post("", h.Create)
	courses.Put("/:id", h.Update)
	courses.Delete("/:id", h.Delete)
}
