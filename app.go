package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"

	"phonebook/internal/avatar"
	"phonebook/internal/config"
	"phonebook/internal/database"
	"phonebook/internal/handlers"
	"phonebook/internal/services"
	"phonebook/pkg/mailer"
	"phonebook/pkg/rabbitmq"
)

// avatarsPath is where avatars live under the public directory and the URL
// prefix they are served from.
const avatarsPath = "avatars"

// NewApp wires the store, mail transport, services and routes described by cfg.
// The returned cleanup closes every connection NewApp opened.
func NewApp(cfg *config.Config, logger *zap.Logger) (*fiber.App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- Store ---
	store, err := database.Open(context.Background(), database.Options{
		Driver:        cfg.DatabaseDriver,
		DSN:           cfg.DatabaseDSN,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	})

	// --- Mail ---
	m, closeMail, err := newMailer(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeMail)

	// --- Avatars ---
	avatars, err := newAvatarStore(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// --- Services ---
	authService := services.NewAuthService(store.Users, m, avatars, services.AuthConfig{
		JWTSecret: cfg.SecretKey,
		TokenTTL:  cfg.TokenTTL,
		BaseURL:   cfg.BaseURL,
	}, logger)
	contactService := services.NewContactService(store.Contacts, logger)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, cfg.TempDir, logger)
	contactHandler := handlers.NewContactHandler(contactService, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(logger),
	})
	app.Use(fiberlogger.New())

	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	contactHandler.RegisterRoutes(api)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	app.Static("/", cfg.PublicDir)
	app.Use(handlers.NotFound)

	return app, cleanup, nil
}

// newMailer returns the SMTP transport directly, or a queue-backed mailer
// with a consumer draining into it when a broker is configured.
func newMailer(cfg *config.Config, logger *zap.Logger) (mailer.Mailer, func(), error) {
	transport, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.RabbitMQURL == "" {
		logger.Info("sending mail directly over SMTP", zap.String("host", cfg.SMTPHost))
		return transport, func() {}, nil
	}

	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.MailQueue}, logger)
	if err != nil {
		return nil, nil, err
	}
	closeMQ := func() {
		if err := mqClient.Close(); err != nil {
			logger.Warn("failed to close RabbitMQ client", zap.Error(err))
		}
	}
	if err := mqClient.Consume(mailer.NewConsumer(transport, logger).Handle); err != nil {
		closeMQ()
		return nil, nil, fmt.Errorf("failed to start mail consumer: %w", err)
	}
	return mailer.NewQueueMailer(mqClient), closeMQ, nil
}

func newAvatarStore(cfg *config.Config) (avatar.Store, error) {
	if cfg.AvatarStorage == "s3" {
		return avatar.NewS3Store(context.Background(), avatar.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	}
	return avatar.NewLocalStore(filepath.Join(cfg.PublicDir, avatarsPath), avatarsPath)
}
