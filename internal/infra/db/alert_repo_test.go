package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) *AlertRepository {
	t.Helper()
	db, err := open(sqlite.Open("file::memory:"), zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Every new connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewAlertRepository(db)
}

var created = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func priceAlert(id, coin string) domain.Alert {
	current := decimal.RequireFromString("43250.45")
	return domain.Alert{
		ID:           id,
		CoinID:       coin,
		CoinSymbol:   "BTC",
		CoinName:     "Bitcoin",
		Condition:    domain.PriceAbove(decimal.RequireFromString("45000.5")),
		CurrentPrice: &current,
		Active:       true,
		Channels:     []domain.Channel{domain.ChannelEmail, domain.ChannelPush},
		CreatedAt:    created,
		UpdatedAt:    created,
		Note:         "breakout",
	}
}

func TestAlertRepository_InsertGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	alert := priceAlert("a1", "bitcoin")
	if err := repo.Insert(ctx, alert); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "a1" || got.CoinID != "bitcoin" || got.CoinName != "Bitcoin" || got.Note != "breakout" {
		t.Errorf("unexpected alert %+v", got)
	}
	if target, ok := got.Condition.TargetPrice(); !ok || !target.Equal(decimal.RequireFromString("45000.5")) {
		t.Errorf("unexpected condition %+v", got.Condition)
	}
	if got.CurrentPrice == nil || got.CurrentPrice.String() != "43250.45" {
		t.Errorf("unexpected current price %v", got.CurrentPrice)
	}
	if len(got.Channels) != 2 || got.Channels[1] != domain.ChannelPush {
		t.Errorf("unexpected channels %v", got.Channels)
	}
	if !got.CreatedAt.Equal(created) || got.TriggeredAt != nil {
		t.Errorf("unexpected timestamps %v %v", got.CreatedAt, got.TriggeredAt)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAlertRepository_ChangeCondition(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	alert := priceAlert("a1", "solana")
	alert.Condition = domain.ChangeDown(decimal.NewFromInt(7))
	alert.CurrentPrice = nil
	if err := repo.Insert(ctx, alert); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pct, ok := got.Condition.ChangePercentage(); !ok || got.Condition.Kind != domain.ConditionChangeDown || pct.String() != "7" {
		t.Errorf("unexpected condition %+v", got.Condition)
	}
	if got.CurrentPrice != nil {
		t.Errorf("expected no current price, got %v", got.CurrentPrice)
	}
}

func TestAlertRepository_SaveWritesFalseValues(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	alert := priceAlert("a1", "bitcoin")
	if err := repo.Insert(ctx, alert); err != nil {
		t.Fatalf("insert: %v", err)
	}

	firedAt := created.Add(time.Hour)
	alert.Active = false
	alert.Triggered = true
	alert.TriggeredAt = &firedAt
	alert.Message = "Bitcoin (BTC) has risen above 45000.5"
	alert.UpdatedAt = firedAt
	if err := repo.Save(ctx, alert); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := repo.Get(ctx, "a1")
	if got.Active || !got.Triggered || got.TriggeredAt == nil || !got.TriggeredAt.Equal(firedAt) {
		t.Errorf("trigger not persisted: %+v", got)
	}
	if got.Message != alert.Message || !got.UpdatedAt.Equal(firedAt) {
		t.Errorf("unexpected message or updated time: %+v", got)
	}

	if err := repo.Save(ctx, priceAlert("missing", "bitcoin")); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAlertRepository_ListAndCoinIDs(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	disabled := priceAlert("c", "ethereum")
	disabled.Active = false
	triggered := priceAlert("d", "cardano")
	firedAt := created
	triggered.Active = false
	triggered.Triggered = true
	triggered.TriggeredAt = &firedAt

	for _, alert := range []domain.Alert{priceAlert("b", "bitcoin"), priceAlert("a", "solana"), disabled, triggered} {
		if err := repo.Insert(ctx, alert); err != nil {
			t.Fatalf("insert %s: %v", alert.ID, err)
		}
	}

	tests := []struct {
		filter domain.AlertFilter
		want   []string
	}{
		{domain.AlertFilter{Status: domain.StatusAll}, []string{"b", "a", "c", "d"}},
		{domain.AlertFilter{Status: domain.StatusActive}, []string{"b", "a"}},
		{domain.AlertFilter{Status: domain.StatusTriggered}, []string{"d"}},
		{domain.AlertFilter{Status: domain.StatusDisabled}, []string{"c"}},
		{domain.AlertFilter{CoinID: "solana", Status: domain.StatusAll}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter.Status)+tt.filter.CoinID, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d alerts, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("position %d: got %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}

	coins, err := repo.CoinIDs(ctx, domain.StatusActive)
	if err != nil {
		t.Fatalf("coin ids: %v", err)
	}
	if len(coins) != 2 || coins[0] != "bitcoin" || coins[1] != "solana" {
		t.Errorf("unexpected coin ids %v", coins)
	}
}

func TestAlertRepository_DeleteIsSoft(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.Insert(ctx, priceAlert("a1", "bitcoin")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := repo.Delete(ctx, "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "a1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Get(ctx, "a1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get after delete: expected ErrNotFound, got %v", err)
	}

	var count int64
	repo.db.Unscoped().Model(&alertModel{}).Where("alert_id = ?", "a1").Count(&count)
	if count != 1 {
		t.Errorf("expected soft-deleted row to remain, got %d rows", count)
	}
}

func TestAlertRepository_SaveAllRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.Insert(ctx, priceAlert("a1", "bitcoin")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	fired := priceAlert("a1", "bitcoin")
	firedAt := created.Add(time.Hour)
	fired.Active = false
	fired.Triggered = true
	fired.TriggeredAt = &firedAt
	fired.Message = "Bitcoin (BTC) has risen above 45000.5"

	err := repo.SaveAll(ctx, []domain.Alert{fired, priceAlert("missing", "bitcoin")})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, _ := repo.Get(ctx, "a1")
	if got.Triggered || !got.Active {
		t.Errorf("transaction was not rolled back: %+v", got)
	}

	if err := repo.SaveAll(ctx, []domain.Alert{fired}); err != nil {
		t.Fatalf("save all: %v", err)
	}
	got, _ = repo.Get(ctx, "a1")
	if !got.Triggered || got.Active {
		t.Errorf("trigger not persisted: %+v", got)
	}
}
