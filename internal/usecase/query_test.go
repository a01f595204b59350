package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/NasaVasa/coinalert/internal/domain"
)

func ids(alerts []domain.Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.CoinID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortAndFilter_TriggeredOnly(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	mustCreate(t, m, priceInput("bitcoin", "btc", domain.ConditionAbove, "45000"))
	mustCreate(t, m, priceInput("ethereum", "eth", domain.ConditionBelow, "2400"))
	fired := mustCreate(t, m, priceInput("cardano", "ada", domain.ConditionAbove, "0.5"))
	if _, err := m.ProcessPriceUpdate(ctx, tick("cardano", "0.52", "")); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := m.SortAndFilter(ctx, Query{Status: domain.StatusTriggered})
	if err != nil {
		t.Fatalf("sort and filter: %v", err)
	}
	if len(got) != 1 || got[0].ID != fired.ID {
		t.Fatalf("expected only %s, got %v", fired.ID, ids(got))
	}

	active, _ := m.SortAndFilter(ctx, Query{Status: domain.StatusActive})
	if len(active) != 2 {
		t.Errorf("expected 2 active alerts, got %v", ids(active))
	}
	disabled, _ := m.SortAndFilter(ctx, Query{Status: domain.StatusDisabled})
	if len(disabled) != 0 {
		t.Errorf("expected no disabled alerts, got %v", ids(disabled))
	}
}

func TestSortAndFilter_Sorting(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	btc := priceInput("bitcoin", "btc", domain.ConditionAbove, "45000")
	btc.CoinName = "Bitcoin"
	eth := priceInput("ethereum", "eth", domain.ConditionBelow, "2400")
	eth.CoinName = "ethereum"
	ada := priceInput("cardano", "ada", domain.ConditionAbove, "0.5")
	ada.CoinName = "Cardano"
	sol := CreateAlertInput{
		CoinID: "solana", CoinSymbol: "sol", CoinName: "Solana",
		Condition: domain.ConditionChangeUp, ChangePercentage: dec("5"),
		Channels: []domain.Channel{domain.ChannelPush},
	}
	for _, input := range []CreateAlertInput{btc, eth, sol, ada} {
		mustCreate(t, m, input)
	}

	tests := []struct {
		sortBy SortKey
		want   []string
	}{
		{"", []string{"cardano", "solana", "ethereum", "bitcoin"}},
		{SortCreatedAt, []string{"cardano", "solana", "ethereum", "bitcoin"}},
		{SortTargetPrice, []string{"bitcoin", "ethereum", "cardano", "solana"}},
		{SortCoinName, []string{"bitcoin", "cardano", "ethereum", "solana"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sortBy), func(t *testing.T) {
			got, err := m.SortAndFilter(ctx, Query{SortBy: tt.sortBy})
			if err != nil {
				t.Fatalf("sort and filter: %v", err)
			}
			if !equalStrings(ids(got), tt.want) {
				t.Errorf("got %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestSortAndFilter_Search(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	btc := priceInput("bitcoin", "btc", domain.ConditionAbove, "45000")
	btc.CoinName = "Bitcoin"
	bch := priceInput("bitcoin-cash", "bch", domain.ConditionAbove, "300")
	bch.CoinName = "Bitcoin Cash"
	eth := priceInput("ethereum", "eth", domain.ConditionBelow, "2400")
	eth.CoinName = "Ethereum"
	for _, input := range []CreateAlertInput{btc, bch, eth} {
		mustCreate(t, m, input)
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"BITCOIN", []string{"bitcoin-cash", "bitcoin"}},
		{"eth", []string{"ethereum"}},
		{"bch", []string{"bitcoin-cash"}},
		{"doge", []string{}},
		{"  ", []string{"ethereum", "bitcoin-cash", "bitcoin"}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			got, err := m.SortAndFilter(ctx, Query{Search: tt.search})
			if err != nil {
				t.Fatalf("sort and filter: %v", err)
			}
			if !equalStrings(ids(got), tt.want) {
				t.Errorf("got %v, want %v", ids(got), tt.want)
			}
		})
	}

	byCoin, _ := m.SortAndFilter(ctx, Query{CoinID: "Ethereum"})
	if len(byCoin) != 1 || byCoin[0].CoinID != "ethereum" {
		t.Errorf("coin filter: got %v", ids(byCoin))
	}
}

func TestSortAndFilter_RejectsUnknownKeys(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.SortAndFilter(context.Background(), Query{SortBy: "volume"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("sort: expected ErrValidation, got %v", err)
	}
	if _, err := m.SortAndFilter(context.Background(), Query{Status: "paused"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("status: expected ErrValidation, got %v", err)
	}
}
