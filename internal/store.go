package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/docstore/jsonfile"
	"github.com/starford/edupath/internal/docstore/memstore"
	"github.com/starford/edupath/internal/docstore/mongo"
	"github.com/starford/edupath/internal/docstore/sqlite"
	"github.com/starford/edupath/internal/secrets"
	"github.com/starford/edupath/internal/storage"
)

// openBackend connects the configured store. A failure here is fatal.
func openBackend(ctx context.Context, cfg StoreConfig, logger *slog.Logger) (docstore.Backend, error) {
	switch cfg.Backend {
	case BackendMongo:
		uri, err := mongoURI(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, apperr.E(apperr.KindConnection, "resolve connection string", "", err)
		}
		st, err := mongo.Connect(ctx, uri, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout, logger)
		if err != nil {
			return nil, err
		}
		return st, nil

	case BackendSQLite:
		st, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, apperr.E(apperr.KindConnection, "open sqlite", "", err)
		}
		return st, nil

	case BackendJSONFile:
		if err := os.MkdirAll(cfg.JSONFile.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		files, err := storage.NewFS(cfg.JSONFile.Dir)
		if err != nil {
			return nil, apperr.E(apperr.KindConnection, "open data dir", "", err)
		}
		return jsonfile.New(files, logger), nil

	case BackendMemory:
		logger.Warn("using the in-memory store, data is lost on exit")
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// mongoURI returns the configured URI or reads it from the environment and
// then Key Vault.
func mongoURI(ctx context.Context, cfg MongoConfig, logger *slog.Logger) (string, error) {
	if cfg.URI != "" {
		return cfg.URI, nil
	}
	chain := secrets.Chain{secrets.Env{}}
	if cfg.KeyVault.Name != "" {
		kv, err := secrets.NewKeyVault(cfg.KeyVault.Name)
		if err != nil {
			return "", err
		}
		chain = append(chain, kv)
	}
	logger.Info("resolving connection string",
		slog.String("secret", cfg.KeyVault.SecretName),
		slog.String("key_vault", cfg.KeyVault.Name))
	return chain.Secret(ctx, cfg.KeyVault.SecretName)
}

// newGateway wraps backend with the configured retry policy.
func newGateway(backend docstore.Backend, cfg ImporterConfig, logger *slog.Logger) *docstore.Gateway {
	return docstore.NewGateway(backend, logger,
		docstore.WithMaxAttempts(cfg.MaxAttempts),
		docstore.WithBackoffUnit(cfg.BackoffUnit))
}
