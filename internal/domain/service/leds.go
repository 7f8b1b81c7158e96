package service

import (
	"context"
	"errors"
	"fmt"
	"led-gateway/internal/domain/model"
	"led-gateway/internal/ports"
	"log/slog"
	"sort"
	"sync"
)

// LEDService owns the state of every LED on the board. State only changes
// after the actuator accepted the command.
type LEDService struct {
	actuator ports.Actuator
	logger   *slog.Logger
	leds     map[int]*model.LED
	order    []int
	mu       sync.RWMutex
}

func NewLEDService(layout *model.Layout, actuator ports.Actuator, logger *slog.Logger) (*LEDService, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	s := &LEDService{
		actuator: actuator,
		logger:   logger,
		leds:     make(map[int]*model.LED, len(layout.LEDs)),
		order:    make([]int, 0, len(layout.LEDs)),
	}
	for _, e := range layout.LEDs {
		state := e.Initial
		if state == "" {
			state = model.StateOff
		}
		s.leds[e.ID] = &model.LED{ID: e.ID, Label: e.Label, Pin: e.Pin, State: state}
		s.order = append(s.order, e.ID)
	}
	sort.Ints(s.order)
	return s, nil
}

func (s *LEDService) List(ctx context.Context) ([]model.LED, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.LED, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.leds[id])
	}
	return out, nil
}

func (s *LEDService) Get(ctx context.Context, id int) (model.LED, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	led, ok := s.leds[id]
	if !ok {
		return model.LED{}, fmt.Errorf("led %d: %w", id, ErrLEDNotFound)
	}
	return *led, nil
}

// SetState drives the actuator even when the LED already has the requested
// state, so a repeated call re-asserts the pin without changing the result.
func (s *LEDService) SetState(ctx context.Context, id int, state model.State) (model.LED, error) {
	if !state.Valid() {
		return model.LED{}, fmt.Errorf("%w: %q", model.ErrInvalidState, string(state))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(ctx, id, state)
}

func (s *LEDService) setLocked(ctx context.Context, id int, state model.State) (model.LED, error) {
	led, ok := s.leds[id]
	if !ok {
		return model.LED{}, fmt.Errorf("led %d: %w", id, ErrLEDNotFound)
	}
	if err := s.actuator.Apply(ctx, led.Pin, state); err != nil {
		s.logger.Error("Actuator command failed", "id", id, "pin", led.Pin, "state", state, "error", err)
		return model.LED{}, fmt.Errorf("led %d (pin %d): %w: %w", id, led.Pin, ErrActuator, err)
	}
	if led.State != state {
		s.logger.Info("LED updated", "id", id, "pin", led.Pin, "state", state)
	}
	led.State = state
	return *led, nil
}

// SetAll tries every LED in id order and reports all failures together.
func (s *LEDService) SetAll(ctx context.Context, state model.State) ([]model.LED, error) {
	if !state.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidState, string(state))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, id := range s.order {
		if _, err := s.setLocked(ctx, id, state); err != nil {
			errs = append(errs, err)
		}
	}

	out := make([]model.LED, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.leds[id])
	}
	return out, errors.Join(errs...)
}

func (s *LEDService) Status() ports.ActuatorStatus {
	return s.actuator.Status()
}
