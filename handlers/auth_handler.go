package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/wespark/certifier/notifications"
	"github.com/wespark/certifier/services"
	"github.com/wespark/certifier/storage"
)

var validate = validator.New()

type AuthHandler struct {
	Store       storage.Storage
	Auth        *services.AuthService
	Email       *notifications.EmailService
	FrontendURL string
}

type magicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestMagicLink mints a login token and mails it when mail is configured.
// The token is also returned in the response so the flow is testable without
// an inbox.
func (h *AuthHandler) RequestMagicLink(c *fiber.Ctx) error {
	var req magicLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	token, err := h.Auth.CreateMagicLink(c.UserContext(), req.Email)
	if err != nil {
		return serverError(c, "create magic link", err)
	}

	loginURL := fmt.Sprintf("%s/auth/verify?token=%s", h.FrontendURL, token)
	go h.Email.SendMagicLink(req.Email, loginURL)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Magic link created",
		"token":   token,
	})
}

type verifyTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *AuthHandler) VerifyMagicLink(c *fiber.Ctx) error {
	var req verifyTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.Auth.VerifyMagicLink(c.UserContext(), req.Token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMagicLink) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}
		return serverError(c, "verify magic link", err)
	}
	return c.JSON(fiber.Map{"user": user})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.Store.GetUserByEmail(c.UserContext(), req.Email)
	if err != nil || user.Password == nil || !services.CheckPassword(req.Password, *user.Password) {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return serverError(c, "login", err)
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	token, err := h.Auth.IssueToken(user)
	if err != nil {
		return serverError(c, "issue token", err)
	}
	return c.JSON(fiber.Map{"user": user, "token": token})
}
