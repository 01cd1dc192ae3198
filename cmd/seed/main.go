package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"medibook/internal/config"
	"medibook/internal/db"
	apperrors "medibook/internal/errors"
	"medibook/internal/model"
	"medibook/internal/repository"
	"medibook/internal/seed"
	"medibook/internal/service"
)

const seedTimeout = time.Minute

type options struct {
	file          string
	url           string
	adminEmail    string
	adminPassword string
}

func main() {
	var opts options

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add missing doctors and, optionally, an admin user",
		Long: "Inserts doctors not stored yet from --file, --url (or SEED_DOCTORS_URL), or the built-in set, " +
			"and creates or promotes an ADMIN user when --admin-email is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "Path to a JSON array of doctors")
	cmd.Flags().StringVar(&opts.url, "url", "", "URL of a JSON array of doctors")
	cmd.Flags().StringVar(&opts.adminEmail, "admin-email", "", "Email of the admin user to create or promote")
	cmd.Flags().StringVar(&opts.adminPassword, "admin-password", "", "Password for a newly created admin user")
	cmd.MarkFlagsMutuallyExclusive("file", "url")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	logger.Info().Msg("database ready")

	doctors, source, err := loadDoctors(ctx, opts, cfg.SeedDoctorsURL)
	if err != nil {
		return err
	}
	logger.Info().Str("source", source).Int("count", len(doctors)).Msg("loaded doctors")

	// No cache is wired here; running servers pick up changes after CACHE_TTL.
	doctorService := service.NewDoctorService(repository.NewDoctorRepository(gormDB), nil, 0, logger)
	added, err := doctorService.Seed(ctx, doctors)
	if err != nil {
		return fmt.Errorf("seed doctors: %w", err)
	}
	logger.Info().Int("added", added).Int("skipped", len(doctors)-added).Msg("doctors seeded")

	if opts.adminEmail != "" {
		if err := ensureAdmin(ctx, repository.NewUserRepository(gormDB), opts.adminEmail, opts.adminPassword); err != nil {
			return err
		}
		logger.Info().Str("email", opts.adminEmail).Msg("admin user ready")
	}

	logger.Info().Msg("seed completed successfully")
	return nil
}

func loadDoctors(ctx context.Context, opts options, defaultURL string) ([]model.Doctor, string, error) {
	switch {
	case opts.file != "":
		f, err := os.Open(opts.file)
		if err != nil {
			return nil, "", fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()
		doctors, err := seed.Load(f)
		return doctors, opts.file, err
	case opts.url != "":
		doctors, err := seed.Fetch(ctx, opts.url)
		return doctors, opts.url, err
	case defaultURL != "":
		doctors, err := seed.Fetch(ctx, defaultURL)
		return doctors, defaultURL, err
	default:
		doctors, err := seed.Defaults()
		return doctors, "built-in", err
	}
}

// ensureAdmin creates the admin user or promotes an existing account.
func ensureAdmin(ctx context.Context, users repository.UserRepository, email, password string) error {
	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		existing.Role = model.RoleAdmin
		if password != "" {
			if existing.PasswordHash, err = service.HashPassword(password); err != nil {
				return err
			}
		}
		return users.Update(ctx, existing)
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return fmt.Errorf("find admin: %w", err)
	}

	if password == "" {
		return errors.New("--admin-password is required to create a new admin")
	}
	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	return users.Create(ctx, &model.User{
		FirstName:    "Admin",
		LastName:     "User",
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
}
