package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medilink/medilink/internal/config"
	"github.com/medilink/medilink/internal/domain/account"
	"github.com/medilink/medilink/internal/domain/submission"
	"github.com/medilink/medilink/internal/platform/auth"
	"github.com/medilink/medilink/internal/platform/classifier"
	"github.com/medilink/medilink/internal/platform/db"
	"github.com/medilink/medilink/internal/platform/mail"
	"github.com/medilink/medilink/internal/platform/middleware"
	"github.com/medilink/medilink/internal/platform/password"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medilink-server",
		Short: "Care coordination API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative account operations",
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an admin account directly, bypassing OTP verification",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			pass, _ := cmd.Flags().GetString("password")
			if username == "" || email == "" || pass == "" {
				return fmt.Errorf("--username, --email and --password are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			hash, err := password.NewBcryptHasher(0).Hash(pass)
			if err != nil {
				return err
			}
			a := &account.Admin{
				AdminID:      uuid.NewString(),
				Username:     username,
				Email:        strings.ToLower(email),
				PasswordHash: hash,
			}
			if err := account.NewAdminRepo(pool).Create(ctx, a); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}

			fmt.Printf("Created admin %s (%s)\n", a.Username, a.AdminID)
			return nil
		},
	}
	seedCmd.Flags().String("username", "", "Admin username")
	seedCmd.Flags().String("email", "", "Admin email")
	seedCmd.Flags().String("password", "", "Admin password")
	cmd.AddCommand(seedCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	secret := cfg.JWTSecret
	if secret == "" {
		// Dev-only ephemeral secret; sessions do not survive a restart.
		buf := make([]byte, 32)
		if _, err := crypto_rand.Read(buf); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate dev secret")
		}
		secret = hex.EncodeToString(buf)
		logger.Warn().Msg("JWT_SECRET not set, using ephemeral development secret")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Platform collaborators
	issuer := auth.NewIssuer([]byte(secret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hasher := password.NewBcryptHasher(0)

	var mailer mail.Sender
	if cfg.MailjetAPIKey != "" && cfg.MailjetAPISecret != "" {
		mailer = mail.NewMailjetSender(cfg.MailjetAPIKey, cfg.MailjetAPISecret, cfg.MailFromAddress, cfg.MailFromName)
	} else {
		mailer = mail.NewLogSender(logger)
		logger.Warn().Msg("mail credentials not set, using log sender")
	}

	vocab, err := classifier.LoadVocabulary(cfg.SymptomVocabPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load symptom vocabulary")
	}
	clf := classifier.NewHTTPClassifier(cfg.ClassifierURL)

	// Domain services
	accountSvc := account.NewService(account.Deps{
		Admins:            account.NewAdminRepo(pool),
		Doctors:           account.NewDoctorRepo(pool),
		Patients:          account.NewPatientRepo(pool),
		Pending:           account.NewPendingRegistrationRepo(pool),
		Records:           account.NewMedicalRecordRepo(pool),
		Hasher:            hasher,
		Mailer:            mailer,
		Tokens:            issuer,
		AdminEmailAllowed: cfg.AdminEmailAllowed,
		OTPTTL:            cfg.OTPTTL,
		Logger:            logger,
	})

	submissionSvc := submission.NewService(submission.Deps{
		Repo:     submission.NewRepo(pool),
		Doctors:  account.NewDoctorRepo(pool),
		Patients: account.NewPatientRepo(pool),
		Images:   clf,
		Symptoms: clf,
		Vocab:    vocab,
		Logger:   logger,
	})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// API routes
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	authn := auth.Middleware(issuer)
	account.NewHandler(accountSvc).RegisterRoutes(apiV1, authn)
	submission.NewHandler(submissionSvc).RegisterRoutes(apiV1, authn)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
