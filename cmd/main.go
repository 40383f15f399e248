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

	"github.com/hackingtorch/hackingtorch/auth"
	"github.com/hackingtorch/hackingtorch/config"
	"github.com/hackingtorch/hackingtorch/db"
	"github.com/hackingtorch/hackingtorch/handlers"
	"github.com/hackingtorch/hackingtorch/metrics"
	"github.com/hackingtorch/hackingtorch/middleware"
	"github.com/hackingtorch/hackingtorch/realtime"
	"github.com/hackingtorch/hackingtorch/repositories"
	"github.com/hackingtorch/hackingtorch/routes"
	"github.com/hackingtorch/hackingtorch/services"
	"github.com/hackingtorch/hackingtorch/storage"
	"github.com/hackingtorch/hackingtorch/wallet"
	_ "github.com/lib/pq"
)

const (
	schedulerInterval = 60 * time.Second
	sessionTTL        = 24 * time.Hour
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
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

	// Инициализация загрузчика файлов (Cloudflare R2)
	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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

	// Кошелёк опционален: без настроек сервис стартует, маршруты отвечают ошибкой
	walletClient, err := wallet.NewClient(wallet.ClientConfig{
		BaseURL:   cfg.WalletBaseURL,
		IssuerID:  cfg.WalletIssuerID,
		IssuerKey: cfg.WalletIssuerKey,
	})
	if err != nil {
		if errors.Is(err, wallet.ErrNotConfigured) {
			logger.Warn("wallet provider not configured, ticket issuing disabled")
		} else {
			logger.Error("failed to initialize wallet client", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Info("wallet client initialized")
	}

	// Prometheus-счётчики регистрируются до первого запроса
	metrics.Register()

	// Realtime hub
	hub := realtime.NewHub(logger)
	go hub.Run()
	logger.Info("realtime hub started")

	sessions := auth.NewSessionManager(cfg.JWTSecretKey, sessionTTL)

	// Инициализация репозиториев
	profileRepo := repositories.NewPostgresProfileRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	categoryRepo := repositories.NewPostgresCategoryRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	submissionRepo := repositories.NewPostgresSubmissionRepository(dbConn)
	evaluationRepo := repositories.NewPostgresEvaluationRepository(dbConn)
	certificateRepo := repositories.NewPostgresCertificateRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	mailer := services.NewEmailService(cfg)
	authService := services.NewAuthService(profileRepo, mailer, logger)
	eventService := services.NewEventService(eventRepo, profileRepo, uploader, hub, logger)
	teamService := services.NewTeamService(dbConn, teamRepo, eventRepo, categoryRepo, logger)
	submissionService := services.NewSubmissionService(dbConn, submissionRepo, teamRepo, categoryRepo, uploader, logger)
	evaluationService := services.NewEvaluationService(evaluationRepo, submissionRepo, profileRepo, hub, logger)
	certificateService := services.NewCertificateService(certificateRepo, eventRepo, profileRepo, teamRepo, submissionRepo, uploader, logger)
	adminService := services.NewAdminService(profileRepo, eventRepo, teamRepo, submissionRepo, evaluationRepo, logger)
	logger.Info("services initialized")

	// Планировщик автоматической смены статусов событий по датам
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("event status scheduler started", slog.Duration("interval", schedulerInterval))

		if err := eventService.UpdateStatusesByDates(context.Background()); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}

		for range ticker.C {
			if err := eventService.UpdateStatusesByDates(context.Background()); err != nil {
				logger.Error("scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	// Инициализация обработчиков HTTP
	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, sessions),
		Event:       handlers.NewEventHandler(eventService),
		Team:        handlers.NewTeamHandler(teamService),
		Submission:  handlers.NewSubmissionHandler(submissionService),
		Evaluation:  handlers.NewEvaluationHandler(evaluationService),
		Certificate: handlers.NewCertificateHandler(certificateService),
		Admin:       handlers.NewAdminHandler(adminService),
		Wallet:      handlers.NewWalletHandler(walletClient),
		Health:      handlers.NewHealthHandler(dbConn, logger),
		WebSocket:   handlers.NewWebSocketHandler(hub, logger),
	}
	guard := middleware.NewRouteGuard(sessions, profileRepo, logger)
	router := routes.InitRoutes(h, sessions, guard, cfg.CORSOrigins)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
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
