// Package storage selects the document store backing the service.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"aircnc/internal/domain"
	"aircnc/internal/shared"
	"aircnc/internal/storage/memory"
	mongostore "aircnc/internal/storage/mongo"
	mysqlrepo "aircnc/internal/storage/mysql"
)

// Open connects the configured driver and prepares its indexes or schema.
func Open(ctx context.Context, cfg shared.Config) (domain.Store, error) {
	switch cfg.StoreDriver {
	case "mongo", "":
		repo, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = repo.Close(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info().Str("db", cfg.MongoDB).Msg("mongo connection ok")
		return repo, nil
	case "mysql":
		repo, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close(context.Background())
			return nil, err
		}
		log.Info().Msg("database connection ok")
		return repo, nil
	case "memory":
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
