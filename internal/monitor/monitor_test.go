package monitor

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animtools/timewarp/internal/config"
	"github.com/animtools/timewarp/internal/logging"
	"github.com/animtools/timewarp/internal/model"
	"github.com/animtools/timewarp/internal/provider/memory"
	"github.com/animtools/timewarp/internal/session"
	"github.com/animtools/timewarp/internal/storage"
	"github.com/animtools/timewarp/pkg/core"
)

// recordingBackend counts performance rows.
type recordingBackend struct {
	mu   sync.Mutex
	perf []model.RetimePerformance
}

func (b *recordingBackend) Init() error                               { return nil }
func (b *recordingBackend) Close() error                              { return nil }
func (b *recordingBackend) StartSession(sess *model.SessionRow) error { return nil }
func (b *recordingBackend) EndSession(committed bool) error           { return nil }
func (b *recordingBackend) SaveLandmarks(pins []core.Pin, easings []core.EasingRecord) error {
	return nil
}
func (b *recordingBackend) LoadLandmarks() ([]core.Pin, []core.EasingRecord, error) {
	return nil, nil, nil
}
func (b *recordingBackend) ClearLandmarks() error                     { return nil }
func (b *recordingBackend) RecordCommit(label string, pins int) error { return nil }

func (b *recordingBackend) RecordPerformance(p *model.RetimePerformance) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.perf = append(b.perf, *p)
	return nil
}

func (b *recordingBackend) perfCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.perf)
}

var _ storage.Backend = (*recordingBackend)(nil)

type nopHistory struct{}

func (nopHistory) Push(string) {}
func (nopHistory) Undo()       {}
func (nopHistory) PushIgnore() {}

func testSession(t *testing.T) *session.Session {
	t.Helper()

	doc := memory.NewDocument()
	doc.AddChannel(memory.ChannelRecord{
		Name:    "hip.ty",
		Visible: true,
		Samples: []memory.SampleRecord{
			{Time: 0, LeftTangent: -0.5, RightTangent: 0.5},
			{Time: 50, LeftTangent: 49.5, RightTangent: 50.5},
			{Time: 100, LeftTangent: 99.5, RightTangent: 100.5},
		},
	})
	return session.New(session.Dependencies{
		Channels: doc,
		Markers:  doc,
		Resolver: doc,
		History:  nopHistory{},
		Log:      slog.Default(),
	}, config.ToolConfig{})
}

func newTestMonitor(t *testing.T, backend storage.Backend, interval time.Duration) (*Service, *session.Session) {
	t.Helper()

	logManager := logging.NewManager()
	sess := testSession(t)
	svc := NewService(Dependencies{
		Session:    sess,
		Storage:    backend,
		LogManager: logManager,
		StatusDir:  t.TempDir(),
		Interval:   interval,
	})
	return svc, sess
}

func TestGetStatus(t *testing.T) {
	svc, sess := newTestMonitor(t, nil, time.Second)

	output, perf := svc.GetStatus()
	require.Len(t, output, 1)
	assert.Contains(t, output[0], `"active": false`)
	assert.Zero(t, perf.PinCount)

	require.NoError(t, sess.Activate(core.ScopeWholeTimeline))

	output, perf = svc.GetStatus()
	assert.Contains(t, output[0], `"active": true`)
	assert.Equal(t, 3, perf.PinCount)
	assert.False(t, perf.Time.IsZero())
}

func TestStartStop(t *testing.T) {
	backend := &recordingBackend{}
	svc, sess := newTestMonitor(t, backend, 10*time.Millisecond)
	require.NoError(t, sess.Activate(core.ScopeWholeTimeline))

	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	// Start is idempotent while running.
	require.NoError(t, svc.Start())

	assert.Eventually(t, func() bool {
		return backend.perfCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	svc.Stop()
	assert.Eventually(t, func() bool {
		return !svc.IsRunning()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestMonitor_InactiveSessionWritesNothing(t *testing.T) {
	backend := &recordingBackend{}
	svc, _ := newTestMonitor(t, backend, 10*time.Millisecond)

	require.NoError(t, svc.Start())
	time.Sleep(50 * time.Millisecond)
	svc.Stop()

	assert.Zero(t, backend.perfCount())
}

func TestStatusFileWritten(t *testing.T) {
	dir := t.TempDir()
	sess := testSession(t)
	svc := NewService(Dependencies{
		Session:    sess,
		LogManager: logging.NewManager(),
		StatusDir:  dir,
		Interval:   10 * time.Millisecond,
	})
	require.NoError(t, sess.Activate(core.ScopeWholeTimeline))

	require.NoError(t, svc.Start())
	defer svc.Stop()

	path := filepath.Join(dir, "status.txt")
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && len(data) > 0
	}, 2*time.Second, 5*time.Millisecond)
}
