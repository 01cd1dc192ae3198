package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"medibook/internal/auth"
	"medibook/internal/cache"
	"medibook/internal/config"
	"medibook/internal/db"
	"medibook/internal/handler"
	"medibook/internal/middleware"
	"medibook/internal/repository"
	"medibook/internal/router"
	"medibook/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Medibook API
// @version 1.0
// @description Doctor directory and appointment booking API with JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	rootCmd := &cobra.Command{
		Use:   "medibook",
		Short: "Medical appointment booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
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
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, _ := cmd.Flags().GetBool("reset")

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			cfg.ResetDB = cfg.ResetDB || reset

			if _, err := openDatabase(cfg, logger); err != nil {
				return err
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
	cmd.Flags().Bool("reset", false, "Drop all tables before migrating")
	return cmd
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

func openDatabase(cfg *config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}
	logger.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	if cfg.ResetDB {
		logger.Warn().Msg("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			return nil, err
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}

func swaggerURL(host string) string {
	if host == "" {
		return "http://localhost:8080/swagger/index.html"
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host + "/swagger/index.html"
	}
	return "http://" + host + "/swagger/index.html"
}

func runServer() error {
	cfg, logger, err := setup()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		return err
	}

	gormDB, err := openDatabase(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to prepare database")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, running without cache")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	doctorRepo := repository.NewDoctorRepository(gormDB)
	appointmentRepo := repository.NewAppointmentRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	userService := service.NewUserService(userRepo, cacheClient)
	doctorService := service.NewDoctorService(doctorRepo, cacheClient, cfg.CacheTTL, logger)
	ledger := service.NewLedger(appointmentRepo, time.Now, logger)
	bookingService := service.NewBookingService(userService, doctorService, ledger)
	var authOpts []service.AuthOption
	if cfg.GoogleClientID != "" {
		authOpts = append(authOpts, service.WithGoogleSignIn(auth.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleJWKSURL)))
		logger.Info().Msg("google sign-in enabled")
	}
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, logger, authOpts...)
	adminService := service.NewAdminService(userRepo, doctorRepo, appointmentRepo)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, logger,
		middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst),
		userService,
		router.Handlers{
			Auth:        handler.NewAuthHandler(authService),
			User:        handler.NewUserHandler(userService),
			Doctor:      handler.NewDoctorHandler(doctorService),
			Appointment: handler.NewAppointmentHandler(bookingService),
			Admin:       handler.NewAdminHandler(adminService),
			Seed:        handler.NewSeedHandler(doctorService),
		},
	)

	logger.Info().Str("url", swaggerURL(cfg.SwaggerHost)).Msg("swagger documentation available")

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
