package coingecko

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// marketRow is one element of the /coins/markets response.
type marketRow struct {
	ID                       string          `json:"id"`
	Symbol                   string          `json:"symbol"`
	Name                     string          `json:"name"`
	CurrentPrice             NullableDecimal `json:"current_price"`
	PriceChangePercentage24h NullableDecimal `json:"price_change_percentage_24h"`
	LastUpdated              *time.Time      `json:"last_updated"`
}

// NullableDecimal decodes a JSON number, a quoted number or null.
type NullableDecimal struct {
	Decimal decimal.Decimal
	Valid   bool
}

func (n *NullableDecimal) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		n.Valid = false
		return nil
	}
	trimmed = strings.Trim(trimmed, "\"")
	if trimmed == "" {
		n.Valid = false
		return nil
	}
	dec, err := decimal.NewFromString(trimmed)
	if err != nil {
		n.Valid = false
		return err
	}
	n.Decimal = dec
	n.Valid = true
	return nil
}

func (n NullableDecimal) Ptr() *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	value := n.Decimal
	return &value
}
