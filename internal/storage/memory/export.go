package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/animtools/timewarp/pkg/core"
)

// SessionExport is the root JSON structure
type SessionExport struct {
	SessionUID string         `json:"sessionUid"`
	Project    string         `json:"project"`
	Clip       string         `json:"clip"`
	Scope      string         `json:"scope"`
	StartTime  string         `json:"startTime"`
	EndTime    string         `json:"endTime"`
	Committed  bool           `json:"committed"`
	Pins       []PinJSON      `json:"pins"`
	Easings    []float64      `json:"easings"`
	Commits    []CommitJSON   `json:"commits"`
	Metrics    []MetricsJSON  `json:"metrics"`
}

// PinJSON is one exported landmark
type PinJSON struct {
	ID   uint64  `json:"id"`
	Time float64 `json:"time"`
}

// CommitJSON is one exported commit record
type CommitJSON struct {
	Label    string `json:"label"`
	Time     string `json:"time"`
	PinCount int    `json:"pinCount"`
}

// MetricsJSON is one exported performance sample
type MetricsJSON struct {
	Time                string  `json:"time"`
	SampleCount         int     `json:"sampleCount"`
	MarkerCount         int     `json:"markerCount"`
	PinCount            int     `json:"pinCount"`
	RecomputeDurationMs float32 `json:"recomputeDurationMs"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// buildExport assembles the export structure from recorded state.
// Caller must hold the mutex.
func (b *Backend) buildExport() SessionExport {
	export := SessionExport{
		SessionUID: b.session.SessionUID,
		Project:    b.session.Project,
		Clip:       b.session.Clip,
		Scope:      b.session.Scope,
		StartTime:  b.session.StartTime.Format(timeLayout),
		EndTime:    b.session.EndTime.Format(timeLayout),
		Committed:  b.session.Committed,
		Pins:       make([]PinJSON, 0, len(b.pins)),
		Easings:    make([]float64, 0, len(b.easings)),
		Commits:    make([]CommitJSON, 0, len(b.commits)),
		Metrics:    make([]MetricsJSON, 0, len(b.performance)),
	}

	for _, p := range b.pins {
		export.Pins = append(export.Pins, PinJSON{ID: uint64(p.ID), Time: p.Time})
	}
	for _, e := range b.easings {
		export.Easings = append(export.Easings, e.Bias)
	}
	for _, c := range b.commits {
		export.Commits = append(export.Commits, CommitJSON{
			Label:    c.Label,
			Time:     c.Time.Format(timeLayout),
			PinCount: c.PinCount,
		})
	}
	for _, p := range b.performance {
		export.Metrics = append(export.Metrics, MetricsJSON{
			Time:                p.Time.Format(timeLayout),
			SampleCount:         p.SampleCount,
			MarkerCount:         p.MarkerCount,
			PinCount:            p.PinCount,
			RecomputeDurationMs: p.RecomputeDuration,
		})
	}
	return export
}

// exportJSON writes the session data to a JSON file, gzipped when
// configured. Caller must hold the mutex.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	clip := strings.ReplaceAll(b.session.Clip, " ", "_")
	clip = strings.ReplaceAll(clip, ":", "_")
	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", clip, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", clip, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if b.cfg.CompressOutput {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		if err := json.NewEncoder(gz).Encode(export); err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}
	} else {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(export); err != nil {
			return fmt.Errorf("failed to encode export: %w", err)
		}
	}

	b.exportedPath = outputPath
	return nil
}

// GetExportedFilePath returns the path of the last exported file.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportedPath
}

// GetExportMetadata returns metadata describing the exported session.
func (b *Backend) GetExportMetadata() core.ExportMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	meta := core.ExportMetadata{}
	if b.session == nil {
		return meta
	}
	meta.Project = b.session.Project
	meta.Clip = b.session.Clip
	meta.SessionUID = b.session.SessionUID
	if !b.session.EndTime.IsZero() {
		meta.DurationSec = b.session.EndTime.Sub(b.session.StartTime).Seconds()
	}
	return meta
}
