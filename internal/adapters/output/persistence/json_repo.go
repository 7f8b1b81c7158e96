package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"led-gateway/internal/domain/model"
	"os"
	"sync"
)

// JSONLayoutRepository reads the board layout from a JSON file. The layout is
// deployment configuration; LED state itself is never written back.
type JSONLayoutRepository struct {
	filepath string
	mu       sync.RWMutex
}

// Internal structure for migration: the original controller kept a bare
// array of LED records with Cyrillic keys.
type legacyLED struct {
	ID    int    `json:"id"`
	Label string `json:"название"`
	Pin   int    `json:"pin"`
	State string `json:"состояние"`
}

func NewJSONLayoutRepository(filepath string) *JSONLayoutRepository {
	return &JSONLayoutRepository{filepath: filepath}
}

func (r *JSONLayoutRepository) Get(ctx context.Context) (*model.Layout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.filepath == "" {
		return model.DefaultLayout(), nil
	}

	data, err := os.ReadFile(r.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultLayout(), nil
		}
		return nil, err
	}

	var layout *model.Layout
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		layout, err = r.migrate(trimmed)
	} else {
		layout = &model.Layout{}
		err = json.Unmarshal(data, layout)
	}
	if err != nil {
		return nil, fmt.Errorf("decode layout %s: %w", r.filepath, err)
	}

	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("layout %s: %w", r.filepath, err)
	}
	return layout, nil
}

func (r *JSONLayoutRepository) migrate(data []byte) (*model.Layout, error) {
	var legacy []legacyLED
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	layout := &model.Layout{LEDs: make([]model.LayoutEntry, 0, len(legacy))}
	for _, l := range legacy {
		entry := model.LayoutEntry{ID: l.ID, Label: l.Label, Pin: l.Pin}
		if l.State != "" {
			state, err := model.ParseState(l.State)
			if err != nil {
				return nil, fmt.Errorf("led %d: %w", l.ID, err)
			}
			entry.Initial = state
		}
		layout.LEDs = append(layout.LEDs, entry)
	}
	return layout, nil
}
