package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/infra/memory"
)

func newTestStore() *AlertStore {
	fixed := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	store := NewAlertStore(memory.NewAlertRepository(), func() time.Time { return fixed })
	store.newID = func() string { return "alert-1" }
	return store
}

func TestAlertStore_CreateThenGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	created, err := store.Create(ctx, CreateAlertInput{
		CoinID:       " Bitcoin ",
		CoinSymbol:   "btc",
		CoinName:     "Bitcoin",
		Condition:    domain.ConditionAbove,
		TargetPrice:  dec("45000"),
		CurrentPrice: dec("43250.45"),
		Channels:     []domain.Channel{domain.ChannelPush, domain.ChannelEmail, domain.ChannelPush},
		Note:         "  breakout  ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.ID != "alert-1" || got.CoinID != "bitcoin" || got.CoinSymbol != "BTC" || got.CoinName != "Bitcoin" {
		t.Errorf("unexpected identity fields %+v", got)
	}
	if target, ok := got.Condition.TargetPrice(); !ok || target.String() != "45000" || got.Condition.Kind != domain.ConditionAbove {
		t.Errorf("unexpected condition %+v", got.Condition)
	}
	if got.CurrentPrice == nil || got.CurrentPrice.String() != "43250.45" {
		t.Errorf("unexpected current price %v", got.CurrentPrice)
	}
	if len(got.Channels) != 2 || got.Channels[0] != domain.ChannelEmail || got.Channels[1] != domain.ChannelPush {
		t.Errorf("expected deduplicated channels [email push], got %v", got.Channels)
	}
	if !got.Active || got.Triggered || got.TriggeredAt != nil || got.Message != "" {
		t.Errorf("expected fresh active alert, got %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) || !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Errorf("unexpected timestamps %v %v", got.CreatedAt, got.UpdatedAt)
	}
	if got.Note != "breakout" {
		t.Errorf("expected trimmed note, got %q", got.Note)
	}
}

func TestAlertStore_CreateValidation(t *testing.T) {
	base := func() CreateAlertInput {
		return CreateAlertInput{
			CoinID:      "bitcoin",
			CoinSymbol:  "btc",
			Condition:   domain.ConditionAbove,
			TargetPrice: dec("45000"),
			Channels:    []domain.Channel{domain.ChannelPush},
		}
	}

	tests := []struct {
		name   string
		mutate func(*CreateAlertInput)
	}{
		{"no channels", func(in *CreateAlertInput) { in.Channels = []domain.Channel{} }},
		{"unknown channel", func(in *CreateAlertInput) { in.Channels = []domain.Channel{"fax"} }},
		{"missing coin", func(in *CreateAlertInput) { in.CoinID = " " }},
		{"missing symbol", func(in *CreateAlertInput) { in.CoinSymbol = "" }},
		{"zero target", func(in *CreateAlertInput) { in.TargetPrice = dec("0") }},
		{"negative target", func(in *CreateAlertInput) { in.TargetPrice = dec("-1") }},
		{"price kind with change payload", func(in *CreateAlertInput) { in.ChangePercentage = dec("5") }},
		{"change kind with target payload", func(in *CreateAlertInput) { in.Condition = domain.ConditionChangeUp }},
		{"change over cap", func(in *CreateAlertInput) {
			in.Condition = domain.ConditionChangeUp
			in.TargetPrice = nil
			in.ChangePercentage = dec("1000.01")
		}},
		{"unknown condition", func(in *CreateAlertInput) { in.Condition = "sideways" }},
		{"negative current price", func(in *CreateAlertInput) { in.CurrentPrice = dec("-3") }},
		{"note too long", func(in *CreateAlertInput) { in.Note = strings.Repeat("x", domain.MaxNoteLength+1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := base()
			tt.mutate(&input)
			if _, err := newTestStore().Create(context.Background(), input); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAlertStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("same family keeps stored payload", func(t *testing.T) {
		store := newTestStore()
		created, _ := store.Create(ctx, priceInput("bitcoin", "btc", domain.ConditionAbove, "45000"))
		below := domain.ConditionBelow
		updated, err := store.Update(ctx, created.ID, AlertPatch{Condition: &below})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if target, _ := updated.Condition.TargetPrice(); updated.Condition.Kind != domain.ConditionBelow || target.String() != "45000" {
			t.Errorf("unexpected condition %+v", updated.Condition)
		}
	})

	t.Run("switching family requires payload", func(t *testing.T) {
		store := newTestStore()
		created, _ := store.Create(ctx, priceInput("bitcoin", "btc", domain.ConditionAbove, "45000"))
		up := domain.ConditionChangeUp
		if _, err := store.Update(ctx, created.ID, AlertPatch{Condition: &up}); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		updated, err := store.Update(ctx, created.ID, AlertPatch{Condition: &up, ChangePercentage: dec("7")})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if pct, ok := updated.Condition.ChangePercentage(); !ok || pct.String() != "7" {
			t.Errorf("unexpected condition %+v", updated.Condition)
		}
	})

	t.Run("removing every channel fails", func(t *testing.T) {
		store := newTestStore()
		created, _ := store.Create(ctx, priceInput("bitcoin", "btc", domain.ConditionAbove, "45000"))
		empty := []domain.Channel{}
		if _, err := store.Update(ctx, created.ID, AlertPatch{Channels: &empty}); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		stored, _ := store.Get(ctx, created.ID)
		if len(stored.Channels) != 2 {
			t.Errorf("failed update changed the stored alert: %+v", stored)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		note := "x"
		if _, err := newTestStore().Update(ctx, "missing", AlertPatch{Note: &note}); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAlertStore_DeleteTwice(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	created, _ := store.Create(ctx, priceInput("bitcoin", "btc", domain.ConditionAbove, "45000"))

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get after delete: expected ErrNotFound, got %v", err)
	}
}
