package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/soaringjerry/surveyguy/internal/api"
	"github.com/soaringjerry/surveyguy/internal/config"
	dbstore "github.com/soaringjerry/surveyguy/internal/db"
)

// openStore opens the configured backend and applies its migrations.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (api.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return api.NewMemoryStoreFromPath(ctx, cfg.Store.SnapshotPath)
	case "sqlite":
		firstRun := false
		if _, err := os.Stat(cfg.Store.SQLitePath); errors.Is(err, os.ErrNotExist) {
			firstRun = true
		}
		st, err := dbstore.OpenSQLite(cfg.Store.SQLitePath, cfg.Store.MigrationsDir, log)
		if err != nil {
			return nil, err
		}
		if firstRun && cfg.Store.SnapshotPath != "" {
			if _, err := importSnapshot(ctx, cfg.Store.SnapshotPath, st, log); err != nil {
				_ = st.Close()
				return nil, err
			}
		}
		return st, nil
	case "postgres":
		return dbstore.OpenPostgres(ctx, cfg.Store.PostgresDSN, cfg.Store.MigrationsDir, cfg.Store.MaxConns, log)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// importSnapshot copies a JSON snapshot into dst. A missing file is not an
// error.
func importSnapshot(ctx context.Context, path string, dst api.Store, log *zap.Logger) (bool, error) {
	snap, err := api.LoadSnapshot(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	log.Info("importing snapshot", zap.String("path", path))
	surveys, responses, err := api.ImportSnapshot(ctx, snap, dst)
	if err != nil {
		return false, fmt.Errorf("copy data: %w", err)
	}
	log.Info("snapshot imported", zap.Int("surveys", surveys), zap.Int("responses", responses))
	return true, nil
}
