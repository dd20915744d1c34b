package storage

import (
	"github.com/animtools/timewarp/internal/model"
	"github.com/animtools/timewarp/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(sess *model.SessionRow) error
	EndSession(committed bool) error

	// Landmark persistence. SaveLandmarks replaces the stored set for
	// the active session.
	SaveLandmarks(pins []core.Pin, easings []core.EasingRecord) error
	LoadLandmarks() ([]core.Pin, []core.EasingRecord, error)
	ClearLandmarks() error

	// Edit history and metrics
	RecordCommit(label string, pinCount int) error
	RecordPerformance(p *model.RetimePerformance) error
}

// Exportable is an optional interface for storage backends that produce
// a result file when the session ends.
type Exportable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.ExportMetadata
}
