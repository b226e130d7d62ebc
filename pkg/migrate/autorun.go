package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoflexeasy/autoflex-backend/pkg/config"
	"github.com/autoflexeasy/autoflex-backend/pkg/db"
	"github.com/autoflexeasy/autoflex-backend/pkg/db/models"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date on boot, only in dev with the
// auto-migrate flag on. SQLite gets a gorm AutoMigrate of the mirror models
// since the SQL files are Postgres only.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"driver": cfg.DB.Driver, "dir": DefaultDir})

	if strings.EqualFold(cfg.DB.Driver, db.DriverSQLite) {
		if err := AutoMigrateModels(client); err != nil {
			return fmt.Errorf("sqlite automigrate: %w", err)
		}
		logg.Info(ctx, "migrate.auto.done")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	runner, err := NewRunner(sqlDB, DefaultDir, nil)
	if err != nil {
		return err
	}
	if err := runner.Run(ctx, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.auto.done")
	return nil
}

// AutoMigrateModels creates every mirror table from the gorm models.
func AutoMigrateModels(client *db.Client) error {
	return client.DB().AutoMigrate(
		&models.User{},
		&models.Price{},
		&models.Subscription{},
		&models.Post{},
	)
}
