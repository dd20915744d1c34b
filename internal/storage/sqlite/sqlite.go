// Package sqlitestorage implements the storage.Backend interface using an
// in-memory SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend via composition; the only SQLite-specific
// concerns are creating the in-memory DB and the dump loop.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/animtools/timewarp/internal/cache"
	"github.com/animtools/timewarp/internal/database"
	"github.com/animtools/timewarp/internal/project"
	gormstorage "github.com/animtools/timewarp/internal/storage/gorm"

	"github.com/rs/zerolog"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	dbm      *database.Manager
	cfg      Config
	log      *slog.Logger
	stopChan chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, rowCache *cache.PinRowCache, log *slog.Logger, projectCtx *project.Context) (*Backend, error) {
	dbm := database.NewManager(zerolog.Nop())
	db, err := dbm.GetSqliteDB("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	dbm.SqliteFilePath = cfg.DumpPath

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:             db,
		RowCache:       rowCache,
		Log:            log,
		ProjectContext: projectCtx,
	})

	return &Backend{
		Backend:  gormBackend,
		dbm:      dbm,
		cfg:      cfg,
		log:      log,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, takes a final dump, and closes the
// embedded GORM backend.
func (b *Backend) Close() error {
	close(b.stopChan)
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.cfg.DumpPath != "" {
		if err := b.dbm.DumpMemoryToDisk(); err != nil {
			return fmt.Errorf("final dump failed: %w", err)
		}
	}
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via
// VACUUM INTO. VACUUM INTO creates a point-in-time snapshot, so no pause
// mechanism is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.dbm.DumpMemoryToDisk(); err != nil {
				b.log.Error("sqlite dump failed", "error", err)
			} else {
				b.log.Debug("dumped to disk", "duration", time.Since(start))
			}
		}
	}
}
