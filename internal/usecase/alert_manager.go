package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PriceUpdateResult lists what fired during one price update. Both slices are
// non-nil, empty when nothing fired.
type PriceUpdateResult struct {
	Fired   []domain.Alert              `json:"fired"`
	Intents []domain.NotificationIntent `json:"intents"`
}

type AlertStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Triggered int `json:"triggered"`
	Disabled  int `json:"disabled"`
}

// AlertManager is the use-case API for UIs and schedulers. Every operation that
// reads and then writes an alert holds mu for the whole read-modify-write, so a
// dismiss can never interleave with a trigger of the same alert.
type AlertManager struct {
	store      *AlertStore
	dispatcher *Dispatcher
	now        Clock
	logger     *zap.Logger
	tracer     trace.Tracer

	mu sync.Mutex
}

// NewAlertManager falls back to the system clock and to a dispatcher that
// allows every channel when now or dispatcher is nil.
func NewAlertManager(store *AlertStore, dispatcher *Dispatcher, now Clock, logger *zap.Logger) *AlertManager {
	if now == nil {
		now = systemClock
	}
	if dispatcher == nil {
		dispatcher = NewDispatcher(domain.DefaultNotificationPreferences())
	}
	return &AlertManager{
		store:      store,
		dispatcher: dispatcher,
		now:        now,
		logger:     logger,
		tracer:     otel.Tracer("github.com/NasaVasa/coinalert/internal/usecase"),
	}
}

func (m *AlertManager) Create(ctx context.Context, input CreateAlertInput) (*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, err := m.store.Create(ctx, input)
	if err != nil {
		recordTransition("create", err)
		return nil, err
	}
	recordTransition("create", nil)
	m.logger.Info("alert created",
		zap.String("alert_id", alert.ID),
		zap.String("coin_id", alert.CoinID),
		zap.String("condition", alert.Condition.String()),
	)
	return alert, nil
}

func (m *AlertManager) Get(ctx context.Context, id string) (*domain.Alert, error) {
	return m.store.Get(ctx, id)
}

func (m *AlertManager) List(ctx context.Context, filter domain.AlertFilter) ([]domain.Alert, error) {
	return m.store.List(ctx, filter)
}

func (m *AlertManager) Update(ctx context.Context, id string, patch AlertPatch) (*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, err := m.store.Update(ctx, id, patch)
	recordTransition("update", err)
	if err != nil {
		return nil, err
	}
	m.logger.Info("alert updated", zap.String("alert_id", alert.ID))
	return alert, nil
}

func (m *AlertManager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.Delete(ctx, id)
	recordTransition("delete", err)
	if err != nil {
		return err
	}
	m.logger.Info("alert deleted", zap.String("alert_id", id))
	return nil
}

// ProcessPriceUpdate evaluates every active alert on the tick's coin and
// triggers the matching ones. All alerts are evaluated before any state
// changes and all changes are written together, so an evaluator or store
// error leaves the store untouched and returns no intents.
func (m *AlertManager) ProcessPriceUpdate(ctx context.Context, tick domain.PriceTick) (PriceUpdateResult, error) {
	ctx, span := m.tracer.Start(ctx, "AlertManager.ProcessPriceUpdate",
		trace.WithAttributes(attribute.String("coin_id", tick.CoinID), attribute.String("price", tick.Price.String())))
	defer span.End()

	tick.CoinID = normalizeCoinID(tick.CoinID)
	if tick.CoinID == "" {
		return PriceUpdateResult{}, fmt.Errorf("%w: price tick has no coin id", domain.ErrInvalidInput)
	}
	if tick.Price.IsNegative() {
		return PriceUpdateResult{}, fmt.Errorf("%w: negative price %s for %s", domain.ErrInvalidInput, tick.Price, tick.CoinID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	candidates, err := m.store.List(ctx, domain.AlertFilter{CoinID: tick.CoinID, Status: domain.StatusActive})
	if err != nil {
		return PriceUpdateResult{}, err
	}

	matched := make([]bool, len(candidates))
	for i, alert := range candidates {
		fire, err := Evaluate(alert, tick)
		if err != nil {
			span.RecordError(err)
			return PriceUpdateResult{}, err
		}
		matched[i] = fire
	}

	now := m.now()
	changed := make([]domain.Alert, 0, len(candidates))
	fired := make([]domain.Alert, 0)
	for i := range candidates {
		alert := candidates[i]
		if !matched[i] && alert.CurrentPrice != nil && alert.CurrentPrice.Equal(tick.Price) {
			continue
		}
		price := tick.Price
		alert.CurrentPrice = &price
		if matched[i] {
			if err := alert.Trigger(now, m.dispatcher.Render(alert)); err != nil {
				return PriceUpdateResult{}, err
			}
			fired = append(fired, alert)
		}
		changed = append(changed, alert)
	}

	// Written together so a store error leaves no partial state.
	if err := m.store.saveAll(ctx, changed); err != nil {
		span.RecordError(err)
		m.logger.Error("failed to save price update",
			zap.String("coin_id", tick.CoinID),
			zap.Int("alerts", len(changed)),
			zap.Error(err),
		)
		return PriceUpdateResult{}, err
	}

	result := PriceUpdateResult{
		Fired:   fired,
		Intents: []domain.NotificationIntent{},
	}
	for _, alert := range fired {
		result.Intents = append(result.Intents, m.dispatcher.Intents(alert, now)...)
		metrics.AlertsFiredTotal.WithLabelValues(string(alert.Condition.Kind)).Inc()
		m.logger.Info("alert triggered",
			zap.String("alert_id", alert.ID),
			zap.String("coin_id", alert.CoinID),
			zap.String("price", tick.Price.String()),
			zap.String("message", alert.Message),
		)
	}

	span.SetAttributes(attribute.Int("alerts.evaluated", len(candidates)), attribute.Int("alerts.fired", len(result.Fired)))
	return result, nil
}

// Dismiss acknowledges a triggered alert and leaves it disabled.
func (m *AlertManager) Dismiss(ctx context.Context, id string) (*domain.Alert, error) {
	return m.transition(ctx, "dismiss", id, func(alert *domain.Alert) error {
		return alert.Dismiss(m.now())
	})
}

func (m *AlertManager) ToggleActive(ctx context.Context, id string) (*domain.Alert, error) {
	return m.transition(ctx, "toggle", id, func(alert *domain.Alert) error {
		return alert.ToggleActive(m.now())
	})
}

func (m *AlertManager) transition(ctx context.Context, operation, id string, apply func(*domain.Alert) error) (*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, err := m.store.Get(ctx, id)
	if err != nil {
		recordTransition(operation, err)
		return nil, err
	}
	if err := apply(alert); err != nil {
		recordTransition(operation, err)
		return nil, err
	}
	if err := m.store.save(ctx, *alert); err != nil {
		recordTransition(operation, err)
		return nil, err
	}
	recordTransition(operation, nil)
	m.logger.Info("alert "+operation+" complete",
		zap.String("alert_id", alert.ID),
		zap.String("status", string(alert.Status())),
	)
	return alert, nil
}

func (m *AlertManager) Stats(ctx context.Context) (AlertStats, error) {
	alerts, err := m.store.List(ctx, domain.AlertFilter{Status: domain.StatusAll})
	if err != nil {
		return AlertStats{}, err
	}
	stats := AlertStats{Total: len(alerts)}
	for _, alert := range alerts {
		switch alert.Status() {
		case domain.StatusActive:
			stats.Active++
		case domain.StatusTriggered:
			stats.Triggered++
		case domain.StatusDisabled:
			stats.Disabled++
		}
	}
	return stats, nil
}

// WatchedCoins returns the coins that currently have active alerts.
func (m *AlertManager) WatchedCoins(ctx context.Context) ([]string, error) {
	return m.store.CoinIDs(ctx, domain.StatusActive)
}

func recordTransition(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	metrics.AlertTransitionsTotal.WithLabelValues(operation, status).Inc()
}
