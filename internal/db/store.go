package db

import (
	"context"
	"fmt"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/config"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
)

// * Open connects the store selected by STORE_DRIVER. Postgres migrations run before it is returned.
func Open(ctx context.Context, cfg *config.Config) (models.UserStore, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return NewMongoDB(ctx, cfg.MongoURL, cfg.MongoDatabase)
	case config.DriverPostgres, "":
		database, err := NewPostgresDB(cfg.DBURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(); err != nil {
			database.Close()
			return nil, err
		}
		logger.Info("Successfully ran migrations")
		return database, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
