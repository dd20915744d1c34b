package telemetry

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animtools/timewarp/internal/remap"
)

func newBackupManager(t *testing.T) (*Manager, string) {
	t.Helper()

	backupPath := filepath.Join(t.TempDir(), "backup.lp.gz")
	file, err := os.OpenFile(backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)

	m := NewManager(zerolog.Nop(), backupPath)
	m.BackupWriter = gzip.NewWriter(file)
	return m, backupPath
}

func TestRecordRecompute_Queues(t *testing.T) {
	m, _ := newBackupManager(t)

	m.RecordRecompute("sess-1", 3, remap.Stats{
		Samples:  120,
		Markers:  4,
		Duration: 1500 * time.Microsecond,
	})
	m.RecordRecompute("sess-1", 3, remap.Stats{Samples: 120})

	assert.Equal(t, 2, m.PendingCount())
}

func TestFlush_WritesBackupFile(t *testing.T) {
	m, backupPath := newBackupManager(t)

	m.RecordRecompute("sess-1", 2, remap.Stats{Samples: 10, Duration: time.Millisecond})
	m.RecordCommit("sess-1", "retime: drag pin", 2)

	require.NoError(t, m.Flush(context.Background()))
	assert.Equal(t, 0, m.PendingCount())
	require.NoError(t, m.Close())

	f, err := os.Open(backupPath)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	buf := make([]byte, 4096)
	n, _ := gz.Read(buf)
	content := string(buf[:n])
	assert.Contains(t, content, "recompute")
	assert.Contains(t, content, "session=sess-1")
	assert.Contains(t, content, "commit")
}

func TestWritePoint_NoClientNoBackup(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")

	m.RecordCommit("sess-1", "retime: drag pin", 1)
	err := m.Flush(context.Background())
	assert.Error(t, err)
}

func TestConnect_DisabledByConfig(t *testing.T) {
	m, _ := newBackupManager(t)

	err := m.Connect()
	assert.Error(t, err)
}
