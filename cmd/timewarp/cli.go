package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/animtools/timewarp/internal/dispatcher"
)

// scriptEvent is one entry of the input event script: a named command
// and its wire args, exactly as the host would deliver them.
type scriptEvent struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// loadScript reads an input event script from a JSON file.
func loadScript(path string) ([]scriptEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading event script: %w", err)
	}

	var events []scriptEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("parsing event script: %w", err)
	}
	return events, nil
}

// replayScript dispatches each scripted event in order and returns the
// number of events that failed. A bad event never stops the replay; the
// host keeps sending input after a refused edit, and so does the script.
func replayScript(d *dispatcher.Dispatcher, events []scriptEvent, logger *slog.Logger) int {
	failed := 0
	for i, ev := range events {
		result, err := d.Dispatch(dispatcher.Event{
			Command:   ev.Command,
			Args:      ev.Args,
			Timestamp: time.Now(),
		})
		if err != nil {
			failed++
			logger.Error("Event failed", "index", i, "command", ev.Command, "error", err)
			continue
		}
		logger.Debug("Event handled", "index", i, "command", ev.Command, "result", result)
	}
	return failed
}
