package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/NasaVasa/coinalert/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortCreatedAt   SortKey = "createdAt"
	SortTargetPrice SortKey = "targetPrice"
	SortCoinName    SortKey = "coinName"
)

// ParseSortKey treats an empty key as SortCreatedAt.
func ParseSortKey(input string) (SortKey, error) {
	switch key := SortKey(strings.TrimSpace(input)); key {
	case "":
		return SortCreatedAt, nil
	case SortCreatedAt, SortTargetPrice, SortCoinName:
		return key, nil
	default:
		return "", fmt.Errorf("%w: unknown sort key %q", domain.ErrValidation, input)
	}
}

type Query struct {
	Status domain.Status
	CoinID string
	Search string
	SortBy SortKey
}

// SortAndFilter lists alerts for display. Ties keep insertion order.
func (m *AlertManager) SortAndFilter(ctx context.Context, query Query) ([]domain.Alert, error) {
	sortBy := query.SortBy
	if sortBy == "" {
		sortBy = SortCreatedAt
	}
	if _, err := ParseSortKey(string(sortBy)); err != nil {
		return nil, err
	}

	alerts, err := m.store.List(ctx, domain.AlertFilter{CoinID: query.CoinID, Status: query.Status})
	if err != nil {
		return nil, err
	}

	alerts = searchAlerts(alerts, query.Search)
	sortAlerts(alerts, sortBy)
	return alerts, nil
}

func searchAlerts(alerts []domain.Alert, search string) []domain.Alert {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return alerts
	}
	out := make([]domain.Alert, 0, len(alerts))
	for _, alert := range alerts {
		if strings.Contains(strings.ToLower(alert.CoinName), needle) ||
			strings.Contains(strings.ToLower(alert.CoinSymbol), needle) {
			out = append(out, alert)
		}
	}
	return out
}

func sortAlerts(alerts []domain.Alert, sortBy SortKey) {
	switch sortBy {
	case SortTargetPrice:
		// Change alerts have no target price and sort after price alerts.
		sort.SliceStable(alerts, func(i, j int) bool {
			a, aok := alerts[i].Condition.TargetPrice()
			b, bok := alerts[j].Condition.TargetPrice()
			if aok != bok {
				return aok
			}
			return aok && a.GreaterThan(b)
		})
	case SortCoinName:
		collator := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(alerts, func(i, j int) bool {
			return collator.CompareString(alerts[i].CoinName, alerts[j].CoinName) < 0
		})
	default:
		sort.SliceStable(alerts, func(i, j int) bool {
			return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
		})
	}
}
