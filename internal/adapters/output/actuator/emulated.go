package actuator

import (
	"context"
	"fmt"
	"led-gateway/internal/domain/model"
	"led-gateway/internal/ports"
	"log/slog"
	"sync"
)

// Emulated accepts every command and only logs it. It stands in for the
// board when no hardware is attached.
type Emulated struct {
	logger   *slog.Logger
	mu       sync.Mutex
	commands []string
}

func NewEmulated(logger *slog.Logger) *Emulated {
	return &Emulated{logger: logger}
}

func (e *Emulated) Apply(ctx context.Context, pin int, state model.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := Command(pin, state)
	e.mu.Lock()
	e.commands = append(e.commands, cmd)
	e.mu.Unlock()
	e.logger.Info("Board not attached, command emulated", "command", cmd)
	return nil
}

// Commands returns the commands seen so far, oldest first.
func (e *Emulated) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.commands...)
}

func (e *Emulated) Status() ports.ActuatorStatus {
	return ports.ActuatorStatus{Name: "emulated", Connected: true}
}

// Command renders the line protocol understood by the board firmware.
func Command(pin int, state model.State) string {
	return fmt.Sprintf("%s:%d", state.Command(), pin)
}
