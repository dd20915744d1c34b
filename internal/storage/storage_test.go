package storage_test

import (
	"testing"

	"github.com/animtools/timewarp/internal/storage"
	gormstorage "github.com/animtools/timewarp/internal/storage/gorm"
	"github.com/animtools/timewarp/internal/storage/memory"
	sqlitestorage "github.com/animtools/timewarp/internal/storage/sqlite"
	"github.com/animtools/timewarp/pkg/core"
	"github.com/stretchr/testify/assert"
)

// Compile-time interface checks. They live here rather than in the
// backends' own test packages so the backends never import this package.
var (
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Exportable = (*memory.Backend)(nil)
	_ storage.Backend    = (*gormstorage.Backend)(nil)
	_ storage.Backend    = (*sqlitestorage.Backend)(nil)
)

func TestExportMetadataFields(t *testing.T) {
	meta := core.ExportMetadata{
		Project:     "walkcycle",
		Clip:        "shot_010",
		SessionUID:  "8a1f7c2e",
		DurationSec: 412.5,
	}

	assert.Equal(t, "walkcycle", meta.Project)
	assert.Equal(t, "shot_010", meta.Clip)
	assert.Equal(t, "8a1f7c2e", meta.SessionUID)
	assert.Equal(t, 412.5, meta.DurationSec)
}
