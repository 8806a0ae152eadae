package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// serverError logs the backend failure with context and returns a generic 500
// so no internal detail leaks to the caller.
func serverError(c *fiber.Ctx, op string, err error) error {
	log.Printf("handlers: %s: %v", op, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
