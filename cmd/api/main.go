package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	_ "github.com/schoolapply/registration-api/docs" // Swagger docs (generated)
	"github.com/schoolapply/registration-api/internal/applicant"
	"github.com/schoolapply/registration-api/internal/auth"
	"github.com/schoolapply/registration-api/internal/config"
	"github.com/schoolapply/registration-api/internal/confirm"
	"github.com/schoolapply/registration-api/internal/credentials"
	"github.com/schoolapply/registration-api/internal/database"
	"github.com/schoolapply/registration-api/internal/email"
	httpServer "github.com/schoolapply/registration-api/internal/http"
	"github.com/schoolapply/registration-api/internal/logging"
	"github.com/schoolapply/registration-api/internal/ratelimit"
	"github.com/schoolapply/registration-api/internal/schoolclass"
	"github.com/schoolapply/registration-api/internal/status"
	"github.com/schoolapply/registration-api/internal/user"
)

// @title           School Applicant Registration API
// @version         1.0
// @description     REST backend for school applicant registration with email confirmation and role-scoped sessions.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration; a missing hashing secret fails here, before any
	// request is served
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	applicantRepo := applicant.NewRepository(db)
	userRepo := user.NewRepository(db)
	schoolClassRepo := schoolclass.NewRepository(db)
	statusRepo := status.NewRepository(db)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Credential verification core
	hasher, err := credentials.NewHasher(cfg.Auth.HMACSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	applicantVerifier := credentials.NewVerifier(applicant.NewCredentialStore(applicantRepo), hasher)
	userVerifier := credentials.NewVerifier(userRepo, hasher)

	// Session issuer
	sessions, err := auth.NewSessionIssuer(cfg.Auth.PasetoKey, cfg.Auth.SessionTokenDuration)
	if err != nil {
		return fmt.Errorf("failed to initialize session issuer: %w", err)
	}

	// Email confirmation workflow
	tokenCodec, err := confirm.NewTokenCodec(cfg.Auth.ConfirmSecret, cfg.Auth.ConfirmTokenDuration)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	mailer := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FrontendURL,
	)
	workflow := confirm.NewWorkflow(
		applicant.NewConfirmStore(applicantRepo),
		tokenCodec,
		mailer,
		rateLimiter,
		logger,
		cfg.Auth.OperationTimeout,
	)

	// Services
	applicantService := applicant.NewService(applicantRepo, hasher, applicantVerifier, workflow, sessions, logger)
	userService := user.NewService(userRepo, hasher, userVerifier, sessions, logger)

	// HTTP handlers
	applicantHandler := applicant.NewHandler(applicantService, rateLimiter, logger)
	userHandler := user.NewHandler(userService, rateLimiter, logger)
	schoolClassHandler := schoolclass.NewHandler(schoolClassRepo)
	statusHandler := status.NewHandler(statusRepo)
	authMiddleware := auth.NewMiddleware(sessions)

	// Initialize router
	router := httpServer.NewRouter(
		cfg,
		applicantHandler,
		userHandler,
		schoolClassHandler,
		statusHandler,
		authMiddleware,
		logger,
	)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
