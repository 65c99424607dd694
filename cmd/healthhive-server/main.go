package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/healthhive/api/internal/config"
	"github.com/healthhive/api/internal/domain/appointment"
	"github.com/healthhive/api/internal/domain/pharmacy"
	"github.com/healthhive/api/internal/domain/profile"
	"github.com/healthhive/api/internal/domain/reminder"
	"github.com/healthhive/api/internal/domain/settings"
	"github.com/healthhive/api/internal/platform/auth"
	"github.com/healthhive/api/internal/platform/db"
	"github.com/healthhive/api/internal/platform/jobs"
	"github.com/healthhive/api/internal/platform/middleware"
	"github.com/healthhive/api/internal/platform/notify"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "healthhive-server",
		Short: "HealthHive API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HealthHive API server",
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

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
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

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

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

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{Secret: []byte(cfg.AuthSecret)}))
	}

	// API group
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": "0.1.0"})
	})
	e.GET("/health/db", func(c echo.Context) error {
		if !db.Healthy(c.Request().Context(), pool, 2*time.Second) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unreachable")
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Notification surface
	center := notify.NewCenter(logger)
	apiV1.GET("/notifications", func(c echo.Context) error {
		return c.JSON(http.StatusOK, center.Active())
	})

	// Deferred job scheduler. The handler indirects through a pointer set
	// below, since the reminder service needs the scheduler as its deferrer.
	var reminderSvc *reminder.Service
	scheduler := jobs.NewScheduler(jobs.NewPGStore(pool), func(ctx context.Context, job jobs.Job) {
		reminderSvc.HandleJob(ctx, job)
	}, logger, jobs.WithTick(cfg.JobTick))

	// Settings domain
	settingsSvc := settings.NewService(settings.NewRepoPG(pool), logger)
	settings.NewHandler(settingsSvc).RegisterRoutes(apiV1)

	// Reminder domain
	reminderSvc = reminder.NewService(reminder.NewRepoPG(pool), scheduler, center, settingsSvc, logger)
	reminder.NewHandler(reminderSvc).RegisterRoutes(apiV1)
	settingsSvc.AddObserver(reminderSvc)

	// Appointment domain
	apptSvc := appointment.NewService(appointment.NewDoctorRepoPG(pool), appointment.NewRepoPG(pool), logger)
	appointment.NewHandler(apptSvc).RegisterRoutes(apiV1)

	// Profile domain
	profileSvc := profile.NewService(profile.NewRepoPG(pool), logger)
	profile.NewHandler(profileSvc).RegisterRoutes(apiV1)

	// Pharmacy domain
	pharmacySvc := pharmacy.NewService(
		pharmacy.NewMedicineRepoPG(pool),
		pharmacy.NewCartRepoPG(pool),
		pharmacy.NewOrderRepoPG(pool),
		profileSvc,
		logger,
	)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(apiV1)

	// Start firing deferred reminders. Pending jobs reload from the store, so
	// tasks survive restarts.
	schedCtx, schedCancel := context.WithCancel(ctx)
	defer schedCancel()
	if err := scheduler.Start(schedCtx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start job scheduler")
	}
	defer scheduler.Stop()

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
