package ports

import (
	"context"
	"led-gateway/internal/domain/model"
)

// LEDPort is what the device API server drives.
type LEDPort interface {
	List(ctx context.Context) ([]model.LED, error)
	Get(ctx context.Context, id int) (model.LED, error)
	SetState(ctx context.Context, id int, state model.State) (model.LED, error)
	SetAll(ctx context.Context, state model.State) ([]model.LED, error)
	Status() ActuatorStatus
}
