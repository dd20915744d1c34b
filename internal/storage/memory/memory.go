// Package memory implements the storage.Backend interface in memory and
// exports the session to a JSON file when it ends.
package memory

import (
	"sync"
	"time"

	"github.com/animtools/timewarp/internal/model"
	"github.com/animtools/timewarp/pkg/core"
)

// Config holds configuration for the memory backend.
type Config struct {
	OutputDir      string
	CompressOutput bool
}

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     Config
	session *model.SessionRow

	pins    []core.Pin
	easings []core.EasingRecord

	commits     []model.CommitRecord
	performance []model.RetimePerformance

	exportedPath string
	mu           sync.RWMutex
}

// New creates a new memory backend
func New(cfg Config) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(sess *model.SessionRow) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sess.StartTime.IsZero() {
		sess.StartTime = time.Now()
	}
	b.session = sess

	// Reset all collections
	b.pins = nil
	b.easings = nil
	b.commits = nil
	b.performance = nil
	b.exportedPath = ""

	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession(committed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return nil
	}
	b.session.EndTime = time.Now()
	b.session.Committed = committed

	return b.exportJSON()
}

// SaveLandmarks replaces the stored landmark set
func (b *Backend) SaveLandmarks(pins []core.Pin, easings []core.EasingRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pins = append([]core.Pin(nil), pins...)
	b.easings = append([]core.EasingRecord(nil), easings...)
	return nil
}

// LoadLandmarks returns the stored landmark set
func (b *Backend) LoadLandmarks() ([]core.Pin, []core.EasingRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pins := append([]core.Pin(nil), b.pins...)
	easings := append([]core.EasingRecord(nil), b.easings...)
	return pins, easings, nil
}

// ClearLandmarks removes all stored landmarks
func (b *Backend) ClearLandmarks() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pins = nil
	b.easings = nil
	return nil
}

// RecordCommit appends one commit record
func (b *Backend) RecordCommit(label string, pinCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.commits = append(b.commits, model.CommitRecord{
		Label:    label,
		Time:     time.Now(),
		PinCount: pinCount,
	})
	return nil
}

// RecordPerformance appends one performance sample
func (b *Backend) RecordPerformance(p *model.RetimePerformance) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.performance = append(b.performance, *p)
	return nil
}
