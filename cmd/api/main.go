package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"socio/config"
	"socio/internal/adapters/auth"
	"socio/internal/adapters/email"
	"socio/internal/adapters/storage"
	delivery "socio/internal/delivery/http"
	"socio/internal/delivery/http/controllers"
	"socio/internal/delivery/http/middleware"
	"socio/internal/repository/postgres"
	"socio/internal/services"
)

const serviceTimeout = 10 * time.Second

// @title SOCIO API
// @version 1.0
// @description Campus events and fests platform API.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	festRepo := postgres.NewFestRepository(db)
	regRepo := postgres.NewRegistrationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	tokens := auth.NewJWTManager(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)

	store := storage.NewS3Storage(storage.Config{
		Region:          cfg.Storage.Region,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Endpoint:        cfg.Storage.Endpoint,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
	})
	files := services.NewFileLifecycle(store, cfg.Storage.Bucket, logger)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mailer.Provider,
		FromAddress: cfg.Mailer.FromAddress,
		FromName:    cfg.Mailer.FromName,
		SES: email.SESConfig{
			Region:          cfg.Mailer.Region,
			AccessKeyID:     cfg.Mailer.AccessKeyID,
			SecretAccessKey: cfg.Mailer.SecretAccessKey,
		},
	}, logger)
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, logger)

	eventService := services.NewEventService(eventRepo, regRepo, userRepo, files, logger, serviceTimeout)
	festService := services.NewFestService(festRepo, eventRepo, regRepo, userRepo, files, logger, serviceTimeout)
	registrationService := services.NewRegistrationService(regRepo, eventRepo, userRepo, emailService, logger, serviceTimeout)
	authService := services.NewAuthService(userRepo, hasher, tokens, cfg.TokenExpiry, serviceTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup := services.NewCleanup(festRepo, eventRepo, regRepo, files, logger, cfg.CleanupInterval)
	go cleanup.Run(ctx)

	eventController := controllers.NewEventController(logger, eventService)
	festController := controllers.NewFestController(logger, festService)
	registrationController := controllers.NewRegistrationController(logger, registrationService)
	authController := controllers.NewAuthController(logger, authService)

	mux := delivery.NewRouter(eventController, festController, registrationController, authController, tokens, logger)
	handler := middleware.CORS(cfg.CORSOrigins, middleware.LoggingMiddleware(logger, mux))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
