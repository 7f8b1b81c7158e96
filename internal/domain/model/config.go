package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// GatewayConfig is fixed at process start and never mutated afterwards.
type GatewayConfig struct {
	Upstream          *url.URL
	Prefix            string
	ForwardHopHeaders bool
}

func NewGatewayConfig(upstream, prefix string, forwardHopHeaders bool) (GatewayConfig, error) {
	u, err := url.Parse(upstream)
	if err != nil {
		return GatewayConfig{}, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return GatewayConfig{}, fmt.Errorf("upstream url %q: scheme must be http or https", upstream)
	}
	if u.Host == "" {
		return GatewayConfig{}, fmt.Errorf("upstream url %q: missing host", upstream)
	}
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		return GatewayConfig{}, fmt.Errorf("prefix %q must start with /", prefix)
	}
	return GatewayConfig{
		Upstream:          &url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path, RawPath: u.RawPath},
		Prefix:            prefix,
		ForwardHopHeaders: forwardHopHeaders,
	}, nil
}

type LayoutEntry struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Pin   int    `json:"pin"`
	// Initial is the state reported before any command is sent.
	Initial State `json:"initial,omitempty"`
}

type Layout struct {
	LEDs []LayoutEntry `json:"leds"`
}

const DefaultLEDCount = 12

// DefaultLayout mirrors the reference board: LEDs 1..12 on pins 2..13.
func DefaultLayout() *Layout {
	l := &Layout{LEDs: make([]LayoutEntry, 0, DefaultLEDCount)}
	for i := 1; i <= DefaultLEDCount; i++ {
		l.LEDs = append(l.LEDs, LayoutEntry{
			ID:      i,
			Label:   fmt.Sprintf("LED %d", i),
			Pin:     i + 1,
			Initial: StateOff,
		})
	}
	return l
}

var ErrInvalidLayout = errors.New("invalid led layout")

func (l *Layout) Validate() error {
	if len(l.LEDs) == 0 {
		return fmt.Errorf("%w: no leds", ErrInvalidLayout)
	}
	ids := make(map[int]bool, len(l.LEDs))
	pins := make(map[int]bool, len(l.LEDs))
	for _, e := range l.LEDs {
		if e.ID < 1 {
			return fmt.Errorf("%w: id %d must be >= 1", ErrInvalidLayout, e.ID)
		}
		if e.Pin < 0 {
			return fmt.Errorf("%w: led %d has negative pin %d", ErrInvalidLayout, e.ID, e.Pin)
		}
		if strings.TrimSpace(e.Label) == "" {
			return fmt.Errorf("%w: led %d has no label", ErrInvalidLayout, e.ID)
		}
		if e.Initial != "" && !e.Initial.Valid() {
			return fmt.Errorf("%w: led %d: %q", ErrInvalidLayout, e.ID, string(e.Initial))
		}
		if ids[e.ID] {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidLayout, e.ID)
		}
		if pins[e.Pin] {
			return fmt.Errorf("%w: pin %d used twice", ErrInvalidLayout, e.Pin)
		}
		ids[e.ID] = true
		pins[e.Pin] = true
	}
	return nil
}
