package storage

import (
	"fmt"
	"log/slog"

	"github.com/animtools/timewarp/internal/cache"
	"github.com/animtools/timewarp/internal/config"
	"github.com/animtools/timewarp/internal/database"
	"github.com/animtools/timewarp/internal/project"
	gormstorage "github.com/animtools/timewarp/internal/storage/gorm"
	"github.com/animtools/timewarp/internal/storage/memory"
	sqlitestorage "github.com/animtools/timewarp/internal/storage/sqlite"

	"github.com/rs/zerolog"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(
	cfg config.StorageConfig,
	rowCache *cache.PinRowCache,
	log *slog.Logger,
	zlog zerolog.Logger,
	projectCtx *project.Context,
) (Backend, error) {
	switch cfg.Backend {
	case "postgres":
		dbm := database.NewManager(zlog)
		if err := dbm.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		return gormstorage.New(gormstorage.Dependencies{
			DB:             dbm.DB,
			RowCache:       rowCache,
			Log:            log,
			ProjectContext: projectCtx,
		}), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.DumpInterval,
			DumpPath:     cfg.SqlitePath,
		}, rowCache, log, projectCtx)
	case "memory":
		return memory.New(memory.Config{
			OutputDir:      cfg.OutputDir,
			CompressOutput: cfg.CompressOutput,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Backend)
	}
}
