package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/infra/metrics"
	"go.uber.org/zap"
)

// Sender delivers one intent over one transport.
type Sender interface {
	Name() string
	Send(ctx context.Context, intent domain.NotificationIntent) error
}

// Router fans an intent out to every sender registered for its channel.
type Router struct {
	logger *zap.Logger

	mu      sync.RWMutex
	senders map[domain.Channel][]Sender
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{logger: logger, senders: make(map[domain.Channel][]Sender)}
}

func (r *Router) Route(channel domain.Channel, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[channel] = append(r.senders[channel], sender)
}

// Channels lists the channels with at least one sender.
func (r *Router) Channels() []domain.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Channel, 0, len(r.senders))
	for channel := range r.senders {
		out = append(out, channel)
	}
	return out
}

// Deliver tries every sender for the intent's channel and joins their errors.
// An intent for a channel without senders is counted and ignored.
func (r *Router) Deliver(ctx context.Context, intent domain.NotificationIntent) error {
	r.mu.RLock()
	senders := append([]Sender(nil), r.senders[intent.Channel]...)
	r.mu.RUnlock()

	if len(senders) == 0 {
		metrics.NotificationsTotal.WithLabelValues(string(intent.Channel), "unrouted").Inc()
		r.logger.Debug("no sender for channel",
			zap.String("channel", string(intent.Channel)),
			zap.String("alert_id", intent.AlertID),
		)
		return nil
	}

	var errs []error
	for _, sender := range senders {
		if err := sender.Send(ctx, intent); err != nil {
			metrics.NotificationsTotal.WithLabelValues(string(intent.Channel), "failed").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", sender.Name(), err))
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(string(intent.Channel), "delivered").Inc()
		r.logger.Debug("notification delivered",
			zap.String("sender", sender.Name()),
			zap.String("alert_id", intent.AlertID),
		)
	}
	return errors.Join(errs...)
}
