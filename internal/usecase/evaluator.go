package usecase

import (
	"fmt"
	"strings"

	"github.com/NasaVasa/coinalert/internal/domain"
)

// Evaluate decides whether alert should fire for tick. Alerts that are not
// active, or already triggered, never fire and are not inspected further.
func Evaluate(alert domain.Alert, tick domain.PriceTick) (bool, error) {
	if !alert.Active || alert.Triggered {
		return false, nil
	}

	coinID := normalizeCoinID(tick.CoinID)
	if coinID == "" {
		return false, fmt.Errorf("%w: price tick has no coin id", domain.ErrInvalidInput)
	}
	if coinID != alert.CoinID {
		return false, fmt.Errorf("%w: tick for %q evaluated against alert on %q", domain.ErrInvalidInput, coinID, alert.CoinID)
	}
	if tick.Price.IsNegative() {
		return false, fmt.Errorf("%w: negative price %s for %s", domain.ErrInvalidInput, tick.Price, coinID)
	}

	condition := alert.Condition
	switch condition.Kind {
	case domain.ConditionAbove:
		return tick.Price.GreaterThanOrEqual(condition.Value), nil
	case domain.ConditionBelow:
		return tick.Price.LessThanOrEqual(condition.Value), nil
	case domain.ConditionChangeUp, domain.ConditionChangeDown:
		if tick.ChangePct24h == nil {
			return false, fmt.Errorf("%w: 24h change missing for %s, required by alert %s", domain.ErrInvalidInput, coinID, alert.ID)
		}
		threshold := condition.Value.Abs()
		if condition.Kind == domain.ConditionChangeUp {
			return tick.ChangePct24h.GreaterThanOrEqual(threshold), nil
		}
		return tick.ChangePct24h.LessThanOrEqual(threshold.Neg()), nil
	default:
		return false, fmt.Errorf("%w: alert %s has unknown condition %q", domain.ErrInvalidInput, alert.ID, strings.TrimSpace(string(condition.Kind)))
	}
}
