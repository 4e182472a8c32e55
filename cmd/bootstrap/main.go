package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/xavierca1/mrk-crm/internal/config"
	"github.com/xavierca1/mrk-crm/internal/infra/auth"
	"github.com/xavierca1/mrk-crm/internal/infra/database"
	"github.com/xavierca1/mrk-crm/internal/usecase"
)

// bootstrap applies the schema and makes sure the default admin exists.
// Running it twice is a no-op.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if cfg.StorageDriver != config.StoragePostgres {
		return errors.New("bootstrap needs STORAGE_DRIVER=postgres")
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewDBConnection(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info("schema applied")

	users := usecase.NewUserUseCase(database.NewUserRepository(db), auth.NewBcryptHasher(), nil)
	admin, created, err := users.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info("admin created", "email", admin.Email, "id", admin.ID)
	} else {
		logger.Info("admin already exists", "email", admin.Email)
	}
	return nil
}
