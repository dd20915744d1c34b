package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/animtools/timewarp/internal/logging"
	"github.com/animtools/timewarp/internal/model"
	"github.com/animtools/timewarp/internal/session"
	"github.com/animtools/timewarp/internal/storage"
	"github.com/animtools/timewarp/internal/telemetry"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Session    *session.Session
	Storage    storage.Backend
	Telemetry  *telemetry.Manager
	LogManager *logging.Manager
	StatusDir  string
	Interval   time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = 1000 * time.Millisecond
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status is the point-in-time view written to the status file.
type Status struct {
	SessionUID      string  `json:"sessionUid"`
	Active          bool    `json:"active"`
	Dragging        bool    `json:"dragging"`
	PinCount        int     `json:"pinCount"`
	CheckpointDepth int     `json:"checkpointDepth"`
	SampleCount     int     `json:"sampleCount"`
	MarkerCount     int     `json:"markerCount"`
	LastRecomputeMs float32 `json:"lastRecomputeMs"`
	TelemetryQueue  int     `json:"telemetryQueue"`
}

// GetStatus returns the current session status and the matching
// performance row.
func (s *Service) GetStatus() (output []string, perfModel model.RetimePerformance) {
	stats := s.deps.Session.LastStats()

	status := Status{
		SessionUID:      s.deps.Session.ID(),
		Active:          s.deps.Session.Active(),
		Dragging:        s.deps.Session.Dragging(),
		PinCount:        len(s.deps.Session.Pins()),
		CheckpointDepth: s.deps.Session.CheckpointDepth(),
		SampleCount:     stats.Samples,
		MarkerCount:     stats.Markers,
		LastRecomputeMs: float32(stats.Duration.Seconds() * 1000),
	}
	if s.deps.Telemetry != nil {
		status.TelemetryQueue = s.deps.Telemetry.PendingCount()
	}

	perfModel = model.RetimePerformance{
		Time:              time.Now(),
		SampleCount:       status.SampleCount,
		MarkerCount:       status.MarkerCount,
		PinCount:          status.PinCount,
		RecomputeDuration: status.LastRecomputeMs,
		QueueLength:       uint16(status.TelemetryQueue),
	}

	statusStr, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		statusStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	output = append(output, string(statusStr))

	return output, perfModel
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor")

		var statusFile *os.File
		if s.deps.StatusDir != "" {
			var err error
			statusFile, err = os.Create(filepath.Join(s.deps.StatusDir, "status.txt"))
			if err != nil {
				logger.Error("Error creating status file", "error", err)
			}
		}
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				if !s.deps.Session.Active() {
					continue
				}

				statusStr, perfModel := s.GetStatus()

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					for _, line := range statusStr {
						statusFile.WriteString(line + "\n")
					}
				}

				if s.deps.Storage != nil {
					if err := s.deps.Storage.RecordPerformance(&perfModel); err != nil {
						logger.Error("Error recording performance row", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
