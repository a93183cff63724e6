package api

import (
	"log"

	"github.com/contactbook/backend/config"
	"github.com/contactbook/backend/infra/queue"
	"github.com/contactbook/backend/internal/api/rest/handlers"
	"github.com/contactbook/backend/internal/api/rest/middleware"
	"github.com/contactbook/backend/internal/domain"
	"github.com/contactbook/backend/internal/helper"
	"github.com/contactbook/backend/internal/interfaces"
	"github.com/contactbook/backend/internal/mail"
	"github.com/contactbook/backend/internal/repository"
	"github.com/contactbook/backend/internal/services"
	cldpkg "github.com/contactbook/backend/pkg/cloudinary"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func StartServer(cfg config.Config) {
	app := fiber.New()

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: cfg.BaseURL != "*",
	}))

	// ---------- Rate limiting ----------
	app.Use(middleware.RateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow))

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	log.Println("database connected")

	// ---------- MIGRATION (guarded by advisory lock) ----------
	const migrateLockID int64 = 20260901

	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		log.Fatalf("migration lock error: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Contact{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	if err := db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error; err != nil {
		log.Printf("migration unlock error: %v", err)
	}
	log.Println("migration successful")

	// ---------- Mail dispatch ----------
	var mailer interfaces.Mailer
	switch cfg.MailProvider {
	case "smtp":
		mailer = mail.NewSMTPMailer(
			cfg.GmailUser,
			cfg.GmailAppPassword,
			cfg.MailFrom,
			cfg.MailFromName,
			cfg.MailSubject,
		)
	default:
		producer := queue.NewProducer(
			cfg.KafkaBroker,
			cfg.KafkaTopic,
			cfg.KafkaUsername,
			cfg.KafkaPassword,
		)
		mailer = mail.NewKafkaMailer(producer)
	}

	// ---------- Avatar upload (optional) ----------
	var uploader interfaces.Uploader
	if cfg.CloudinaryURL != "" {
		cld, err := cldpkg.New()
		if err != nil {
			log.Fatalf("cloudinary init error: %v", err)
		}
		uploader = cldpkg.NewUploader(cld)
	}

	// ---------- Core ----------
	auth := helper.SetupAuth(cfg.TokenSigningSecret)
	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)

	verification := services.NewVerificationFlow(
		userRepo,
		auth,
		mailer,
		cfg.VerifyBaseURL,
		cfg.ResetBaseURL,
		cfg.EmailVerifyTTL,
	)
	authSvc := services.NewAuthService(userRepo, auth, verification, cfg)
	contactSvc := services.NewContactService(contactRepo)

	// ---------- Handlers ----------
	handlers.NewAuthHandler(authSvc, uploader).SetupRoutes(app)
	handlers.NewContactHandler(contactSvc).SetupRoutes(app, authSvc)

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ---------- Listen ----------
	addr := cfg.ServerPort
	log.Println("listening on", addr)
	log.Fatal(app.Listen(addr))
}
