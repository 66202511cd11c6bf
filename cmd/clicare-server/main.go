package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clicare/clicare/internal/config"
	"github.com/clicare/clicare/internal/domain/dashboard"
	"github.com/clicare/clicare/internal/domain/diagnosis"
	"github.com/clicare/clicare/internal/domain/lab"
	"github.com/clicare/clicare/internal/domain/otp"
	"github.com/clicare/clicare/internal/domain/patient"
	"github.com/clicare/clicare/internal/domain/staff"
	"github.com/clicare/clicare/internal/domain/visit"
	"github.com/clicare/clicare/internal/platform/ai"
	"github.com/clicare/clicare/internal/platform/auth"
	"github.com/clicare/clicare/internal/platform/blobstore"
	"github.com/clicare/clicare/internal/platform/db"
	"github.com/clicare/clicare/internal/platform/middleware"
	"github.com/clicare/clicare/internal/platform/notification"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "clicare-server",
		Short:        "CLICARE hospital patient management backend",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}
	return logger
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, newLogger(cfg))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	labFiles, err := blobstore.NewDiskBlobStore(filepath.Join(cfg.UploadDir, "lab-results"))
	if err != nil {
		return fmt.Errorf("init upload store: %w", err)
	}

	issuer := auth.NewIssuer(cfg.JWTSecret)
	throttle := auth.NewLoginThrottle()

	var emailSender notification.EmailSender
	if cfg.EmailConfigured() {
		emailSender = notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPassword)
	}
	var smsSender notification.SMSSender
	switch {
	case cfg.SMSProvider == "itexmo" && cfg.SMSConfigured():
		smsSender = notification.NewItexmoSender(cfg.ItexmoAPIKey, cfg.ItexmoSenderID)
	case cfg.SMSProvider == "twilio" && cfg.SMSConfigured():
		smsSender = notification.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	}
	notifier := notification.NewNotifier(emailSender, smsSender, notification.NewTemplateEngine())

	patientRepo := patient.NewRepoPG(pool)
	staffRepo := staff.NewRepoPG(pool)
	visitRepo := visit.NewRepoPG(pool)
	otpRepo := otp.NewRepoPG(pool)
	diagnosisRepo := diagnosis.NewRepoPG(pool)
	labRepo := lab.NewRepoPG(pool)
	dashboardRepo := dashboard.NewRepoPG(pool)

	visitSvc := visit.NewService(visitRepo, patientRepo, staffRepo, logger)
	patientSvc := patient.NewService(patientRepo, visitSvc, logger)
	staffSvc := staff.NewService(staffRepo, issuer, throttle, logger)
	otpSvc := otp.NewService(otpRepo, patientRepo, notifier, issuer, cfg.SMSConfigured(), cfg.SMSProvider, logger)
	diagnosisSvc := diagnosis.NewService(diagnosisRepo, patientRepo, logger)
	visitSvc.SetDiagnosisRecorder(diagnosisSvc)
	labSvc := lab.NewService(labRepo, patientRepo, visitRepo, labFiles, cfg.BaseURL, logger)
	dashboardSvc := dashboard.NewService(dashboardRepo, ai.NewGeminiClient(cfg.GeminiAPIKey), pool.Ping, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete},
		AllowCredentials: true,
	}))

	apiLimit := middleware.DefaultRateLimitConfig()
	apiLimit.Max = cfg.APIRateMax
	loginLimit := middleware.LoginRateLimitConfig()
	loginLimit.Max = cfg.LoginRateMax

	api := e.Group("/api", middleware.RateLimit(apiLimit))
	login := api.Group("", middleware.RateLimit(loginLimit))
	protected := api.Group("", auth.Middleware(issuer))

	api.GET("/health", healthHandler(cfg))
	api.GET("/health/db", db.HealthHandler(pool))
	e.Static("/uploads", cfg.UploadDir)

	patient.NewHandler(patientSvc, logger).RegisterRoutes(api, protected)
	visit.NewHandler(visitSvc, logger).RegisterRoutes(api, protected)
	staff.NewHandler(staffSvc, logger).RegisterRoutes(login, protected)
	otp.NewHandler(otpSvc, logger).RegisterRoutes(login)
	diagnosis.NewHandler(diagnosisSvc, staffRepo, logger).RegisterRoutes(protected)
	lab.NewHandler(labSvc, staffRepo, logger).RegisterRoutes(protected)
	dashboard.NewHandler(dashboardSvc, staffRepo, logger).RegisterRoutes(protected)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(":" + cfg.Port)
	}()
	logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// healthHandler reports process liveness plus which OTP delivery channels
// are configured, so operators can spot missing credentials at a glance.
func healthHandler(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"env": echo.Map{
				"name":            cfg.Env,
				"emailConfigured": cfg.EmailConfigured(),
				"smsConfigured":   cfg.SMSConfigured(),
				"smsProvider":     cfg.SMSProvider,
			},
		})
	}
}

func newMigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	var dir string
	migrate.PersistentFlags().StringVar(&dir, "dir", "migrations", "directory containing migration files")

	withMigrator := func(cmd *cobra.Command, fn func(ctx context.Context, m *db.Migrator) error) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		return fn(ctx, db.NewMigrator(pool, dir))
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				n, err := m.Up(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("applied %d migration(s)\n", n)
				return nil
			})
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = fmt.Sprintf("applied %s", s.AppliedAt.Format(time.RFC3339))
					}
					fmt.Printf("%03d %-40s %s\n", s.Version, s.Name, state)
				}
				return nil
			})
		},
	})

	return migrate
}
