package domain

import (
	"context"
	"time"
)

// NotificationIntent is an instruction to notify through one channel. It is not a delivery guarantee.
type NotificationIntent struct {
	AlertID string    `json:"alertId"`
	CoinID  string    `json:"coinId"`
	Channel Channel   `json:"channel"`
	Message string    `json:"message"`
	FiredAt time.Time `json:"firedAt"`
}

type Notifier interface {
	Deliver(ctx context.Context, intent NotificationIntent) error
}
