package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"heather-backend/config"
	_ "heather-backend/docs"
	"heather-backend/internal/delivery/http/middleware"
	v1 "heather-backend/internal/delivery/http/v1"
	"heather-backend/internal/domain"
	"heather-backend/internal/repository/postgres"
	"heather-backend/internal/repository/pubsub"
	"heather-backend/internal/usecase"
	"heather-backend/pkg/auth"
	"heather-backend/pkg/database"
	"heather-backend/pkg/email"
	"heather-backend/pkg/gemini"
	"heather-backend/pkg/logger"
	"heather-backend/pkg/redis"
	"heather-backend/pkg/security"
	"heather-backend/pkg/security/antivirus"
	"heather-backend/pkg/validation"
)

// @title           HEATHER API
// @version         1.0
// @description     Profiles, doctor-patient messaging and health document analysis for HEATHER.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting heather backend", "port", cfg.Port, "env", cfg.AppEnv)

	if err := cfg.ValidateServer(); err != nil {
		logger.Log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Setup Redis (optional)
	if err := redis.Initialize(redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
		if !errors.Is(err, redis.ErrNotConfigured) {
			logger.Log.Warn("Redis unavailable, continuing without it", "error", err)
		}
	}
	defer redis.Close()

	// 5. Security logging
	secLogger := security.InitSecurityLogger("heather-api", cfg.AppEnv)
	defer secLogger.Sync()
	if cfg.AuditLogToDB {
		secLogger.SetPersistFunc(security.NewAuditEventRepository(dbPool).PersistEvent)
	}

	// 6. Setup Repositories
	profileRepo := postgres.NewProfileRepository(dbPool)
	conversationRepo := postgres.NewConversationRepository(dbPool)
	messageRepo := postgres.NewMessageRepository(dbPool)
	broker := pubsub.New(redis.Client())

	// 7. Setup Email Service
	emailService := email.NewEmailService(cfg)
	if !emailService.IsConfigured() {
		logger.Log.Warn("Email service not fully configured - new conversation notifications disabled")
	}

	// 8. Model-backed collaborators (document analysis, health chat)
	analyzer := gemini.New(gemini.Config{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		BaseURL:    cfg.GeminiBaseURL,
		MaxElapsed: cfg.GeminiMaxRetryElapsed,
	})
	if cfg.GeminiAPIKey == "" {
		logger.Log.Warn("GEMINI_API_KEY not configured - document analysis and chat will answer 503")
	}

	var archive domain.DocumentArchive
	if s3cfg := cfg.S3(); s3cfg.Enabled() {
		s3Client, err := security.NewS3Client(ctx, s3cfg)
		if err != nil {
			logger.Log.Warn("Document archive disabled", "error", err)
		} else {
			archive = security.NewDocumentArchive(s3Client, s3cfg.Bucket)
		}
	}

	var scanner antivirus.Scanner
	if cfg.ClamAVAddress != "" {
		scanner = antivirus.NewClamAVScanner(cfg.ClamAVAddress, 30*time.Second)
	}

	// 9. Setup UseCases
	validate := validation.New()
	profileUC := usecase.NewProfileUsecase(profileRepo, validate)
	messagingUC := usecase.NewMessagingUsecase(conversationRepo, messageRepo, profileRepo, broker, emailService, validate)
	analysisUC := usecase.NewAnalysisUsecase(analyzer,
		security.NewAnalysisQuota(redis.Client(), cfg.AnalysisDailyLimit),
		archive, scanner, secLogger, validate)
	chatUC := usecase.NewChatUsecase(analyzer, validate)

	checks := map[string]usecase.HealthCheck{"database": dbPool.Ping}
	if redis.Client() != nil {
		checks["redis"] = redis.HealthCheck
	}
	healthUC := usecase.NewHealthUsecase(checks)

	// 10. Setup Auth (HS256 secret and/or JWKS)
	verifier := auth.NewVerifier(cfg.SupabaseJWTSecret, auth.NewProvider(cfg.JWKSURL()))

	limiter := middleware.NewRateLimiter(redis.Client())
	go limiter.RunSweeper(ctx, time.Minute)

	// 11. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ProfileUC:   profileUC,
		MessagingUC: messagingUC,
		AnalysisUC:  analysisUC,
		ChatUC:      chatUC,
		HealthUC:    healthUC,
		Verifier:    verifier,
		RateLimiter: limiter,
		Config:      cfg,
	})

	// 12. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
