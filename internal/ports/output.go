package ports

import (
	"context"
	"led-gateway/internal/domain/model"
)

type ActuatorStatus struct {
	Name      string `json:"actuator"`
	Connected bool   `json:"connected"`
}

// Actuator switches a physical pin.
type Actuator interface {
	Apply(ctx context.Context, pin int, state model.State) error
	Status() ActuatorStatus
}

type LayoutRepository interface {
	Get(ctx context.Context) (*model.Layout, error)
}
