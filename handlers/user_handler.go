package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wespark/certifier/models"
	"github.com/wespark/certifier/services"
	"github.com/wespark/certifier/storage"
)

type UserHandler struct {
	Store storage.Storage
}

type createUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Name     string  `json:"name" validate:"required"`
	Password *string `json:"password"`
	Role     string  `json:"role" validate:"omitempty,oneof=graduate admin"`
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.Store.GetAllUsers(c.UserContext())
	if err != nil {
		return serverError(c, "list users", err)
	}
	return c.JSON(users)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}
	user, err := h.Store.GetUser(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return serverError(c, "get user", err)
	}
	return c.JSON(user)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user := &models.User{
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	}
	if req.Password != nil && *req.Password != "" {
		hashed, err := services.HashPassword(*req.Password)
		if err != nil {
			return serverError(c, "hash password", err)
		}
		user.Password = &hashed
	}

	if err := h.Store.CreateUser(c.UserContext(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
		}
		return serverError(c, "create user", err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var upd models.UserUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if upd.Password != nil && *upd.Password != "" {
		hashed, err := services.HashPassword(*upd.Password)
		if err != nil {
			return serverError(c, "hash password", err)
		}
		upd.Password = &hashed
	}

	user, err := h.Store.UpdateUser(c.UserContext(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		case errors.Is(err, storage.ErrDuplicate):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
		default:
			return serverError(c, "update user", err)
		}
	}
	return c.JSON(user)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}
	deleted, err := h.Store.DeleteUser(c.UserContext(), id)
	if err != nil {
		return serverError(c, "delete user", err)
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}
