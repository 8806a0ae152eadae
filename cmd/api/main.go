package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	config "github.com/wespark/certifier/configs"
	"github.com/wespark/certifier/database"
	"github.com/wespark/certifier/handlers"
	"github.com/wespark/certifier/jobs"
	"github.com/wespark/certifier/notifications"
	"github.com/wespark/certifier/routes"
	"github.com/wespark/certifier/services"
	"github.com/wespark/certifier/storage"
	"github.com/wespark/certifier/verifystore"
)

func main() {
	store := newStorage()
	index := newVerifyStore()

	email := notifications.NewEmailService(
		config.Config("BREVO_API_KEY"),
		config.Config("EMAIL_SENDER"),
		config.ConfigOr("EMAIL_SENDER_NAME", "WeSpark"),
	)

	frontendURL := config.ConfigOr("FRONTEND_URL", "http://localhost:5000")
	auth := services.NewAuthService(store, config.Config("JWT_SECRET"))
	certificates := services.NewCertificateService(store, index)
	verification := services.NewVerificationService(store, index)
	pdf := services.NewPDFService(
		config.ConfigOr("CERTIFICATE_TEMPLATE", "templates/certificate.html"),
		frontendURL,
	)
	uploads, err := services.NewUploadService(config.Config("CLOUDINARY_URL"))
	if err != nil {
		log.Fatalf("🔥 Failed to configure uploads: %v", err)
	}

	c := cron.New()
	c.AddFunc("@hourly", jobs.CleanupMagicLinks(store))
	go c.Start()

	app := fiber.New(fiber.Config{
		AppName:       "WeSpark Certifier",
		CaseSensitive: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.AuthRoutes(app, &handlers.AuthHandler{
		Store:       store,
		Auth:        auth,
		Email:       email,
		FrontendURL: frontendURL,
	})
	routes.UserRoutes(app, &handlers.UserHandler{Store: store})
	routes.CourseRoutes(app, &handlers.CourseHandler{Store: store})
	routes.CertificateRoutes(app, &handlers.CertificateHandler{
		Store:        store,
		Certificates: certificates,
		Verification: verification,
		PDF:          pdf,
		Uploads:      uploads,
	})
	routes.AdminRoutes(app, &handlers.AdminHandler{
		Store:        store,
		Certificates: certificates,
	})

	port := config.ConfigOr("PORT", "5000")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}

// newStorage picks the primary backend once at startup: postgres when
// DATABASE_URL is set, otherwise the seeded in-memory store.
func newStorage() storage.Storage {
	dsn := config.Config("DATABASE_URL")
	if dsn == "" {
		log.Println("DATABASE_URL not set, using in-memory storage with sample data")
		return storage.NewMemoryStorage()
	}
	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatalf("🔥 %v", err)
	}
	log.Println("✅ Database connected successfully")
	return storage.NewGormStorage(db)
}

// newVerifyStore picks the secondary verification index: Firestore when a
// project is configured, otherwise in-memory.
func newVerifyStore() verifystore.Store {
	projectID := config.Config("FIRESTORE_PROJECT_ID")
	if projectID == "" {
		log.Println("FIRESTORE_PROJECT_ID not set, using in-memory verification index")
		return verifystore.NewMemoryStore()
	}
	return verifystore.NewFirestoreStore(projectID, config.Config("FIRESTORE_API_KEY"))
}
