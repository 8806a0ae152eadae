package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wespark/certifier/models"
	"github.com/wespark/certifier/storage"
)

type CourseHandler struct {
	Store storage.Storage
}

type createCourseRequest struct {
	Title                 string  `json:"title" validate:"required"`
	Description           string  `json:"description" validate:"required"`
	Duration              int     `json:"duration" validate:"required,gt=0"`
	Icon                  string  `json:"icon"`
	Thumbnail             *string `json:"thumbnail"`
	CertificateBackground *string `json:"certificate_background"`
}

func (h *CourseHandler) List(c *fiber.Ctx) error {
	courses, err := h.Store.GetAllCourses(c.UserContext())
	if err != nil {
		return serverError(c, "list courses", err)
	}
	return c.JSON(courses)
}

func (h *CourseHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course id"})
	}
	course, err := h.Store.GetCourse(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
		}
		return serverError(c, "get course", err)
	}
	return c.JSON(course)
}

func (h *CourseHandler) Create(c *fiber.Ctx) error {
	var req createCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	course := &models.Course{
		Title:                 req.Title,
		Description:           req.Description,
		Duration:              req.Duration,
		Icon:                  req.Icon,
		Thumbnail:             req.Thumbnail,
		CertificateBackground: req.CertificateBackground,
	}
	if err := h.Store.CreateCourse(c.UserContext(), course); err != nil {
		return serverError(c, "create course", err)
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

func (h *CourseHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course id"})
	}

	var upd models.CourseUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	course, err := h.Store.UpdateCourse(c.UserContext(), id, upd)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
		}
		return serverError(c, "update course", err)
	}
	return c.JSON(course)
}

func (h *CourseHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course id"})
	}
	deleted, err := h.Store.DeleteCourse(c.UserContext(), id)
	if err != nil {
		return serverError(c, "delete course", err)
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}
