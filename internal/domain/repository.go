package domain

import "context"

type AlertFilter struct {
	CoinID string
	Status Status
}

// AlertRepository persists alerts. List returns alerts in insertion order.
// Get, Save and Delete return ErrNotFound for unknown ids. SaveAll writes
// every alert or none of them.
type AlertRepository interface {
	Insert(ctx context.Context, alert Alert) error
	Get(ctx context.Context, id string) (*Alert, error)
	List(ctx context.Context, filter AlertFilter) ([]Alert, error)
	Save(ctx context.Context, alert Alert) error
	SaveAll(ctx context.Context, alerts []Alert) error
	Delete(ctx context.Context, id string) error
	CoinIDs(ctx context.Context, status Status) ([]string, error)
}
