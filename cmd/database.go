package cmd

import (
	"context"

	"github.com/mealshare/mealshare/internal/config"
	"github.com/mealshare/mealshare/internal/database"
	"github.com/mealshare/mealshare/internal/database/mongostore"
)

// openDatabase connects to the configured storage backend. Both backends
// create their schema or indexes on connect.
func openDatabase(ctx context.Context, cfg *config.DatabaseConfig) (database.DB, error) {
	if cfg.Driver == config.DatabaseDriverMongo {
		store, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	client, err := database.New(cfg.Path)
	if err != nil {
		return nil, err
	}
	return client, nil
}
