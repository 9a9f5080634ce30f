package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/Glebradost/ctfhub/config"
	"github.com/Glebradost/ctfhub/db"
	"github.com/Glebradost/ctfhub/feed"
	"github.com/Glebradost/ctfhub/handlers"
	"github.com/Glebradost/ctfhub/repositories"
	api "github.com/Glebradost/ctfhub/routes"
	"github.com/Glebradost/ctfhub/services"
	"github.com/Glebradost/ctfhub/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if cfg.RunMigrations {
		if err := db.RunMigrations(context.Background(), dbConn); err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	feedHub := feed.NewHub(logger)
	go feedHub.Run()
	logger.Info("solve feed hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	memberRepo := repositories.NewPostgresMemberRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	challengeRepo := repositories.NewPostgresChallengeRepository(dbConn)
	attemptRepo := repositories.NewPostgresAttemptRepository(dbConn)
	noteRepo := repositories.NewPostgresNoteRepository(dbConn)
	uploadRepo := repositories.NewPostgresUploadRepository(dbConn)
	logger.Info("repositories initialized")

	gate := services.NewMembershipGate(memberRepo)

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, cloudflareUploader)
	teamService := services.NewTeamService(dbConn, teamRepo, memberRepo, gate, cloudflareUploader)
	eventService := services.NewEventService(eventRepo, gate)
	statsService := services.NewStatsService(eventRepo, challengeRepo, attemptRepo)
	challengeService := services.NewChallengeService(challengeRepo, eventRepo, gate, cloudflareUploader)
	solveService := services.NewSolveService(dbConn, challengeRepo, attemptRepo, gate, feedHub, logger)
	attemptService := services.NewAttemptService(attemptRepo, challengeRepo, gate, cloudflareUploader)
	noteService := services.NewNoteService(noteRepo, challengeRepo, gate, cloudflareUploader)
	uploadService := services.NewUploadService(uploadRepo, challengeRepo, gate, cloudflareUploader, logger)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService)
	eventHandler := handlers.NewEventHandler(eventService, statsService)
	challengeHandler := handlers.NewChallengeHandler(challengeService, solveService)
	attemptHandler := handlers.NewAttemptHandler(attemptService)
	noteHandler := handlers.NewNoteHandler(noteService)
	uploadHandler := handlers.NewUploadHandler(uploadService)
	webSocketHandler := handlers.NewWebSocketHandler(feedHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		userHandler,
		teamHandler,
		eventHandler,
		challengeHandler,
		attemptHandler,
		noteHandler,
		uploadHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
