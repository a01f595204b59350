package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/infra/memory"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// steppingClock advances one minute on every call so creation times are distinct.
func steppingClock() Clock {
	var mu sync.Mutex
	current := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Minute)
		return current
	}
}

func newTestManager(t *testing.T) (*AlertManager, *memory.AlertRepository) {
	t.Helper()
	repo := memory.NewAlertRepository()
	clock := steppingClock()
	store := NewAlertStore(repo, clock)
	return NewAlertManager(store, nil, clock, zap.NewNop()), repo
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func priceInput(coin, symbol string, kind domain.ConditionKind, target string) CreateAlertInput {
	return CreateAlertInput{
		CoinID:      coin,
		CoinSymbol:  symbol,
		CoinName:    coin,
		Condition:   kind,
		TargetPrice: dec(target),
		Channels:    []domain.Channel{domain.ChannelEmail, domain.ChannelPush},
	}
}

func tick(coin, price, change string) domain.PriceTick {
	t := domain.PriceTick{CoinID: coin, Price: decimal.RequireFromString(price)}
	if change != "" {
		t.ChangePct24h = dec(change)
	}
	return t
}

func mustCreate(t *testing.T, m *AlertManager, input CreateAlertInput) *domain.Alert {
	t.Helper()
	alert, err := m.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return alert
}

var errStoreDown = errors.New("store down")

// failingRepo fails every write while down is set.
type failingRepo struct {
	*memory.AlertRepository
	mu   sync.Mutex
	down bool
}

func (r *failingRepo) setDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = down
}

func (r *failingRepo) isDown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.down
}

func (r *failingRepo) Save(ctx context.Context, alert domain.Alert) error {
	if r.isDown() {
		return errStoreDown
	}
	return r.AlertRepository.Save(ctx, alert)
}

func (r *failingRepo) SaveAll(ctx context.Context, alerts []domain.Alert) error {
	if r.isDown() {
		return errStoreDown
	}
	return r.AlertRepository.SaveAll(ctx, alerts)
}

func newFailingManager(t *testing.T) (*AlertManager, *failingRepo) {
	t.Helper()
	repo := &failingRepo{AlertRepository: memory.NewAlertRepository()}
	clock := steppingClock()
	return NewAlertManager(NewAlertStore(repo, clock), nil, clock, zap.NewNop()), repo
}
