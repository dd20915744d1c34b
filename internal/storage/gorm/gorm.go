// Package gormstorage implements the storage.Backend interface using GORM.
// Landmark rows are written synchronously (they are read back on undo and
// session reload); commit records and performance metrics go through write
// queues drained by a background DB writer goroutine.
package gormstorage

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/animtools/timewarp/internal/cache"
	"github.com/animtools/timewarp/internal/model"
	"github.com/animtools/timewarp/internal/project"
	"github.com/animtools/timewarp/internal/queue"
	"github.com/animtools/timewarp/pkg/core"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB             *gorm.DB
	RowCache       *cache.PinRowCache
	Log            *slog.Logger
	ProjectContext *project.Context
}

// queues holds the write queues for batched DB insertion.
type queues struct {
	Commits     *queue.Queue[model.CommitRecord]
	Performance *queue.Queue[model.RetimePerformance]
}

func newQueues() *queues {
	return &queues{
		Commits:     queue.New[model.CommitRecord](),
		Performance: queue.New[model.RetimePerformance](),
	}
}

// Backend implements storage.Backend using GORM with queue-based history writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Uint64
	stopChan  chan struct{}
	dbReady   bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{
		deps: deps,
	}
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("no database connection injected")
	}

	b.queues = newQueues()
	b.stopChan = make(chan struct{})

	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.dbReady = true

	b.startDBWriter()
	return nil
}

// Close stops the DB writer goroutine after a final flush.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
	}
	b.flush()
	return nil
}

// StartSession inserts the session row and makes it current.
func (b *Backend) StartSession(sess *model.SessionRow) error {
	if err := b.deps.DB.Create(sess).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	b.sessionID.Store(uint64(sess.ID))
	if b.deps.ProjectContext != nil {
		b.deps.ProjectContext.SetSession(sess.Project, sess.Clip, sess)
	}
	return nil
}

// EndSession flushes pending history rows and finalizes the session row.
func (b *Backend) EndSession(committed bool) error {
	b.flush()

	id := uint(b.sessionID.Load())
	if id == 0 {
		return nil
	}
	err := b.deps.DB.Model(&model.SessionRow{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"end_time":  time.Now(),
			"committed": committed,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to finalize session: %w", err)
	}
	b.sessionID.Store(0)
	return nil
}

// SaveLandmarks replaces the stored landmark set for the current session.
func (b *Backend) SaveLandmarks(pins []core.Pin, easings []core.EasingRecord) error {
	id := uint(b.sessionID.Load())
	if id == 0 {
		return fmt.Errorf("no active session")
	}

	tx := b.deps.DB.Begin()
	if err := tx.Where("session_id = ?", id).Delete(&model.PinRow{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear pins: %w", err)
	}
	if err := tx.Where("session_id = ?", id).Delete(&model.EasingRow{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear easings: %w", err)
	}

	rows := make([]model.PinRow, len(pins))
	for i, p := range pins {
		rows[i] = model.PinRow{SessionID: id, PinID: uint64(p.ID), Time: p.Time}
	}
	if len(rows) > 0 {
		if err := tx.Create(&rows).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert pins: %w", err)
		}
	}

	easingRows := make([]model.EasingRow, len(easings))
	for i, e := range easings {
		easingRows[i] = model.EasingRow{SessionID: id, Ordinal: i, Bias: e.Bias}
	}
	if len(easingRows) > 0 {
		if err := tx.Create(&easingRows).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert easings: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit landmark save: %w", err)
	}

	if b.deps.RowCache != nil {
		b.deps.RowCache.Reset()
		for _, row := range rows {
			b.deps.RowCache.Set(core.PinID(row.PinID), row.ID)
		}
	}
	return nil
}

// LoadLandmarks reads the stored landmark set for the current session.
func (b *Backend) LoadLandmarks() ([]core.Pin, []core.EasingRecord, error) {
	id := uint(b.sessionID.Load())
	if id == 0 {
		return nil, nil, fmt.Errorf("no active session")
	}

	var rows []model.PinRow
	if err := b.deps.DB.Where("session_id = ?", id).Order("time asc").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load pins: %w", err)
	}
	var easingRows []model.EasingRow
	if err := b.deps.DB.Where("session_id = ?", id).Order("ordinal asc").Find(&easingRows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load easings: %w", err)
	}

	pins := make([]core.Pin, len(rows))
	for i, row := range rows {
		pins[i] = core.Pin{ID: core.PinID(row.PinID), Time: row.Time}
	}
	easings := make([]core.EasingRecord, len(easingRows))
	for i, row := range easingRows {
		easings[i] = core.EasingRecord{Bias: row.Bias}
	}
	return pins, easings, nil
}

// ClearLandmarks removes all stored landmarks for the current session.
func (b *Backend) ClearLandmarks() error {
	id := uint(b.sessionID.Load())
	if id == 0 {
		return nil
	}
	if err := b.deps.DB.Where("session_id = ?", id).Delete(&model.PinRow{}).Error; err != nil {
		return fmt.Errorf("failed to clear pins: %w", err)
	}
	if err := b.deps.DB.Where("session_id = ?", id).Delete(&model.EasingRow{}).Error; err != nil {
		return fmt.Errorf("failed to clear easings: %w", err)
	}
	if b.deps.RowCache != nil {
		b.deps.RowCache.Reset()
	}
	return nil
}

// RecordCommit queues one commit record.
func (b *Backend) RecordCommit(label string, pinCount int) error {
	b.queues.Commits.Push(model.CommitRecord{
		Label:    label,
		Time:     time.Now(),
		PinCount: pinCount,
	})
	return nil
}

// RecordPerformance queues one performance sample.
func (b *Backend) RecordPerformance(p *model.RetimePerformance) error {
	b.queues.Performance.Push(*p)
	return nil
}

// writeQueue writes all items from a queue to the database in a transaction.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger, prepare func([]T)) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.Drain()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		log.Error("db writer insert failed", "table", name, "error", err)
		tx.Rollback()
		q.Push(items...)
		return
	}

	tx.Commit()
}

// flush drains the history queues once, synchronously.
func (b *Backend) flush() {
	if !b.dbReady {
		return
	}

	sessionID := uint(b.sessionID.Load())

	stampCommits := func(items []model.CommitRecord) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampPerformance := func(items []model.RetimePerformance) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}

	writeQueue(b.deps.DB, b.queues.Commits, "commit records", b.deps.Log, stampCommits)
	writeQueue(b.deps.DB, b.queues.Performance, "retime performances", b.deps.Log, stampPerformance)
}

// startDBWriter starts the background goroutine that periodically drains
// the history queues into the DB.
func (b *Backend) startDBWriter() {
	go func() {
		for {
			select {
			case <-b.stopChan:
				return
			default:
			}

			b.flush()
			time.Sleep(2 * time.Second)
		}
	}()
}
