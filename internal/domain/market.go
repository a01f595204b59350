package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceTick is one price-feed sample for a coin.
type PriceTick struct {
	CoinID       string
	Price        decimal.Decimal
	ChangePct24h *decimal.Decimal
	ObservedAt   time.Time
}

type CoinMarket struct {
	ID                       string
	Symbol                   string
	Name                     string
	CurrentPrice             *decimal.Decimal
	PriceChangePercentage24h *decimal.Decimal
	LastUpdated              time.Time
}

// Tick converts a market row into a price tick. It reports false when the row has no price.
func (m CoinMarket) Tick(observedAt time.Time) (PriceTick, bool) {
	if m.CurrentPrice == nil {
		return PriceTick{}, false
	}
	if !m.LastUpdated.IsZero() {
		observedAt = m.LastUpdated
	}
	return PriceTick{
		CoinID:       m.ID,
		Price:        *m.CurrentPrice,
		ChangePct24h: m.PriceChangePercentage24h,
		ObservedAt:   observedAt,
	}, true
}

type MarketClient interface {
	Markets(ctx context.Context, coinIDs []string) ([]CoinMarket, error)
}
