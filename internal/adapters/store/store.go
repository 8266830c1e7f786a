package store

import (
	"context"
	"fmt"

	"reelgrab/internal/adapters/store/jsonfile"
	"reelgrab/internal/adapters/store/postgres"
	"reelgrab/internal/config"
	"reelgrab/internal/core/ports"
)

// Store is a ResultStore that holds resources until closed.
type Store interface {
	ports.ResultStore
	Close() error
}

// Open returns the result store selected by the configured driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case config.StoreDriverJSON, "":
		return jsonfile.New(cfg.ResultsPath()), nil
	case config.StoreDriverPostgres:
		pg, err := postgres.Open(ctx, cfg.Storage.DSN, cfg.Storage.RetryDelay)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Storage.Driver)
	}
}
