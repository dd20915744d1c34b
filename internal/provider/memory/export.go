// internal/provider/memory/export.go
package memory

import (
	"encoding/json"
	"fmt"
	"os"
)

// documentFile is the on-disk JSON shape of a document fixture.
type documentFile struct {
	CurrentClip string          `json:"currentClip,omitempty"`
	Channels    []ChannelRecord `json:"channels"`
	Markers     []MarkerRecord  `json:"markers,omitempty"`
}

// Load reads a document fixture from a JSON file.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document fixture: %w", err)
	}

	var file documentFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing document fixture: %w", err)
	}

	doc := NewDocument()
	doc.currentClip = file.CurrentClip
	for _, ch := range file.Channels {
		doc.AddChannel(ch)
	}
	for _, m := range file.Markers {
		doc.AddMarker(m)
	}
	return doc, nil
}

// Export writes the document to a JSON file.
func (d *Document) Export(path string) error {
	d.mu.RLock()
	file := documentFile{CurrentClip: d.currentClip}
	for _, name := range d.order {
		file.Channels = append(file.Channels, *d.channels[name])
	}
	file.Markers = append(file.Markers, d.markers...)
	d.mu.RUnlock()

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
