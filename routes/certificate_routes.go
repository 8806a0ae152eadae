package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wespark/certifier/handlers"
)

func CertificateRoutes(app *fiber.App, h *handlers.CertificateHandler) {
	certs := app.Group("/api/certificates")
	certs.Get("", h.List)
	certs.Get("/user/:userId", h.ListByUser)
	certs.Post("", h.Create)
	certs.Get("/:id/download", h.Download)

	// Public verification, no auth on either path.
	app.Get("/api/verify/:certificateId", h.VerifyByCertificateID)
	app.Get("/api/verify-firebase/:idOrHash", h.Verify)
}
