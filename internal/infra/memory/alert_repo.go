package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/NasaVasa/coinalert/internal/domain"
)

// AlertRepository keeps alerts in process memory. Records are copied on the
// way in and out, so callers never alias stored state.
type AlertRepository struct {
	mu     sync.RWMutex
	alerts map[string]domain.Alert
	order  []string
}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{alerts: make(map[string]domain.Alert)}
}

func (r *AlertRepository) Insert(ctx context.Context, alert domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.alerts[alert.ID]; exists {
		return fmt.Errorf("alert %s already exists", alert.ID)
	}
	r.alerts[alert.ID] = alert.Clone()
	r.order = append(r.order, alert.ID)
	return nil
}

func (r *AlertRepository) Get(ctx context.Context, id string) (*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	alert, ok := r.alerts[id]
	if !ok {
		return nil, fmt.Errorf("alert %s: %w", id, domain.ErrNotFound)
	}
	out := alert.Clone()
	return &out, nil
}

func (r *AlertRepository) List(ctx context.Context, filter domain.AlertFilter) ([]domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Alert, 0, len(r.order))
	for _, id := range r.order {
		alert := r.alerts[id]
		if filter.CoinID != "" && alert.CoinID != filter.CoinID {
			continue
		}
		if !filter.Status.Matches(alert.Active, alert.Triggered) {
			continue
		}
		out = append(out, alert.Clone())
	}
	return out, nil
}

func (r *AlertRepository) Save(ctx context.Context, alert domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.alerts[alert.ID]; !ok {
		return fmt.Errorf("alert %s: %w", alert.ID, domain.ErrNotFound)
	}
	r.alerts[alert.ID] = alert.Clone()
	return nil
}

func (r *AlertRepository) SaveAll(ctx context.Context, alerts []domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alert := range alerts {
		if _, ok := r.alerts[alert.ID]; !ok {
			return fmt.Errorf("alert %s: %w", alert.ID, domain.ErrNotFound)
		}
	}
	for _, alert := range alerts {
		r.alerts[alert.ID] = alert.Clone()
	}
	return nil
}

func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.alerts[id]; !ok {
		return fmt.Errorf("alert %s: %w", id, domain.ErrNotFound)
	}
	delete(r.alerts, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *AlertRepository) CoinIDs(ctx context.Context, status domain.Status) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, alert := range r.alerts {
		if !status.Matches(alert.Active, alert.Triggered) || seen[alert.CoinID] {
			continue
		}
		seen[alert.CoinID] = true
		out = append(out, alert.CoinID)
	}
	sort.Strings(out)
	return out, nil
}
