package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wespark/certifier/models"
	"github.com/wespark/certifier/services"
	"github.com/wespark/certifier/storage"
)

type AdminHandler struct {
	Store        storage.Storage
	Certificates *services.CertificateService
}

// ImportSummary reports a CSV batch: how many users and certificates were
// created plus one message per failed row. Row failures never abort the
// batch.
type ImportSummary struct {
	Users        int      `json:"users"`
	Certificates int      `json:"certificates"`
	Errors       []string `json:"errors"`
}

// ImportCSV ingests completion rows of the form
// name,email,course,completion_date[,city]. Users are found or created by
// email; courses are matched by case-insensitive title; each valid row issues
// one certificate.
func (h *AdminHandler) ImportCSV(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return serverError(c, "open csv upload", err)
	}
	defer file.Close()

	rows, err := readCompletionRows(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Malformed CSV: %v", err)})
	}

	ctx := c.UserContext()
	summary := ImportSummary{Errors: []string{}}

	for _, row := range rows {
		if row.Name == "" || row.Email == "" || row.Course == "" || row.CompletionDate == "" {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Missing required fields in row: %s", row))
			continue
		}

		user, err := h.Store.GetUserByEmail(ctx, row.Email)
		if errors.Is(err, storage.ErrNotFound) {
			user = &models.User{Name: row.Name, Email: row.Email, Role: models.RoleGraduate}
			if err = h.Store.CreateUser(ctx, user); err == nil {
				summary.Users++
			}
		}
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Failed to resolve user %s: %v", row.Email, err))
			continue
		}

		course, err := h.Store.GetCourseByTitle(ctx, row.Course)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				summary.Errors = append(summary.Errors, fmt.Sprintf("Course not found: %s", row.Course))
			} else {
				summary.Errors = append(summary.Errors, fmt.Sprintf("Failed to look up course %s: %v", row.Course, err))
			}
			continue
		}

		completionDate, err := time.Parse("2006-01-02", row.CompletionDate)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Invalid completion_date %q for %s", row.CompletionDate, row.Email))
			continue
		}

		var city *string
		if row.City != "" {
			city = &row.City
		}
		if _, err := h.Certificates.Issue(ctx, user.ID, course.ID, completionDate, city); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("Failed to issue certificate for %s: %v", row.Email, err))
			continue
		}
		summary.Certificates++
	}

	return c.JSON(fiber.Map{"success": true, "imported": summary})
}

type completionRow struct {
	Name           string
	Email          string
	Course         string
	CompletionDate string
	City           string
}

func (r completionRow) String() string {
	return fmt.Sprintf("%s,%s,%s,%s,%s", r.Name, r.Email, r.Course, r.CompletionDate, r.City)
}

func readCompletionRows(r io.Reader) ([]completionRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // city column is optional
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Tolerate a header row.
	if strings.EqualFold(strings.TrimSpace(records[0][0]), "name") {
		records = records[1:]
	}

	rows := make([]completionRow, 0, len(records))
	for _, rec := range records {
		var row completionRow
		for i, v := range rec {
			v = strings.TrimSpace(v)
			switch i {
			case 0:
				row.Name = v
			case 1:
				row.Email = v
			case 2:
				row.Course = v
			case 3:
				row.CompletionDate = v
			case 4:
				row.City = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Stats aggregates the user and course statistics into the admin dashboard
// shape.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userStats, err := h.Store.GetUserStats(ctx)
	if err != nil {
		return serverError(c, "user stats", err)
	}
	courseStats, err := h.Store.GetCourseStats(ctx)
	if err != nil {
		return serverError(c, "course stats", err)
	}
	return c.JSON(fiber.Map{
		"totalUsers":        userStats.TotalUsers,
		"activeUsers":       userStats.ActiveUsers,
		"totalCertificates": userStats.TotalCertificates,
		"totalCourses":      courseStats.TotalCourses,
		"totalEnrollments":  courseStats.TotalEnrollments,
	})
}
