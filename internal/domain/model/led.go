package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type State string

const (
	StateOn  State = "on"
	StateOff State = "off"
)

var ErrInvalidState = errors.New("invalid led state")

// ParseState accepts the canonical values plus the vocabulary used by older
// firmware and UIs ("вкл"/"выкл", 1/0, true/false).
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "вкл", "1", "true":
		return StateOn, nil
	case "off", "выкл", "0", "false":
		return StateOff, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
}

func (s State) Valid() bool {
	return s == StateOn || s == StateOff
}

// Command is the action word understood by the microcontroller.
func (s State) Command() string {
	if s == StateOn {
		return "ON"
	}
	return "OFF"
}

func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, string(s))
	}
	return []byte(s), nil
}

func (s *State) UnmarshalText(b []byte) error {
	parsed, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type LED struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Pin   int    `json:"pin"`
	State State  `json:"state"`
}

// ledWire also carries the field names of the original device API.
type ledWire struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	LegacyLabel string `json:"название"`
	Pin         int    `json:"pin"`
	State       string `json:"state"`
	LegacyState string `json:"состояние"`
}

func (l *LED) UnmarshalJSON(b []byte) error {
	var w ledWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	label := w.Label
	if label == "" {
		label = w.LegacyLabel
	}
	raw := w.State
	if raw == "" {
		raw = w.LegacyState
	}
	state, err := ParseState(raw)
	if err != nil {
		return err
	}
	*l = LED{ID: w.ID, Label: label, Pin: w.Pin, State: state}
	return nil
}

func (l LED) Validate() error {
	if l.ID < 1 {
		return fmt.Errorf("led id must be >= 1, got %d", l.ID)
	}
	if l.Pin < 0 {
		return fmt.Errorf("led %d: pin must be >= 0, got %d", l.ID, l.Pin)
	}
	if !l.State.Valid() {
		return fmt.Errorf("led %d: %w: %q", l.ID, ErrInvalidState, string(l.State))
	}
	return nil
}

// StateUpdate is the body of PUT /leds/{id} and PUT /leds/.
type StateUpdate struct {
	State State `json:"state"`
}

type stateUpdateWire struct {
	State       string `json:"state"`
	LegacyState string `json:"состояние"`
}

func (u *StateUpdate) UnmarshalJSON(b []byte) error {
	var w stateUpdateWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	raw := w.State
	if raw == "" {
		raw = w.LegacyState
	}
	state, err := ParseState(raw)
	if err != nil {
		return err
	}
	u.State = state
	return nil
}
