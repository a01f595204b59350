package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const MaxNoteLength = 500

type Alert struct {
	ID           string
	CoinID       string
	CoinSymbol   string
	CoinName     string
	Condition    Condition
	CurrentPrice *decimal.Decimal
	Active       bool
	Triggered    bool
	Channels     []Channel
	CreatedAt    time.Time
	UpdatedAt    time.Time
	TriggeredAt  *time.Time
	Message      string
	Note         string
}

func (a Alert) Status() Status {
	switch {
	case a.Triggered:
		return StatusTriggered
	case a.Active:
		return StatusActive
	default:
		return StatusDisabled
	}
}

// Clone returns a deep copy so stored alerts never share slices or pointers with callers.
func (a Alert) Clone() Alert {
	out := a
	if a.Channels != nil {
		out.Channels = append([]Channel(nil), a.Channels...)
	}
	if a.CurrentPrice != nil {
		price := *a.CurrentPrice
		out.CurrentPrice = &price
	}
	if a.TriggeredAt != nil {
		at := *a.TriggeredAt
		out.TriggeredAt = &at
	}
	return out
}

func (a Alert) Validate() error {
	if strings.TrimSpace(a.CoinID) == "" {
		return fmt.Errorf("%w: coin id is required", ErrValidation)
	}
	if strings.TrimSpace(a.CoinSymbol) == "" {
		return fmt.Errorf("%w: coin symbol is required", ErrValidation)
	}
	if strings.TrimSpace(a.CoinName) == "" {
		return fmt.Errorf("%w: coin name is required", ErrValidation)
	}
	if err := a.Condition.Validate(); err != nil {
		return err
	}
	if a.CurrentPrice != nil && a.CurrentPrice.IsNegative() {
		return fmt.Errorf("%w: current price must not be negative", ErrValidation)
	}
	if a.Triggered && a.Active {
		return fmt.Errorf("%w: a triggered alert cannot be active", ErrValidation)
	}
	if a.Active && len(a.Channels) == 0 {
		return fmt.Errorf("%w: at least one notification channel is required", ErrValidation)
	}
	if a.Triggered != (a.TriggeredAt != nil) {
		return fmt.Errorf("%w: triggered time must be set exactly when the alert is triggered", ErrValidation)
	}
	if utf8.RuneCountInString(a.Note) > MaxNoteLength {
		return fmt.Errorf("%w: note must be at most %d characters", ErrValidation, MaxNoteLength)
	}
	if _, err := NormalizeChannels(a.Channels); err != nil {
		return err
	}
	return nil
}

// Trigger moves an active alert into the triggered state.
func (a *Alert) Trigger(now time.Time, message string) error {
	if a.Triggered {
		return fmt.Errorf("%w: alert %s is already triggered", ErrInvalidState, a.ID)
	}
	if !a.Active {
		return fmt.Errorf("%w: alert %s is not active", ErrInvalidState, a.ID)
	}
	at := now
	a.Triggered = true
	a.Active = false
	a.TriggeredAt = &at
	a.Message = message
	a.UpdatedAt = now
	return nil
}

// Dismiss acknowledges a triggered alert. The alert ends up disabled, not re-armed.
func (a *Alert) Dismiss(now time.Time) error {
	if !a.Triggered {
		return fmt.Errorf("%w: alert %s is not triggered", ErrInvalidState, a.ID)
	}
	a.Triggered = false
	a.Active = false
	a.TriggeredAt = nil
	a.Message = ""
	a.UpdatedAt = now
	return nil
}

func (a *Alert) ToggleActive(now time.Time) error {
	if a.Triggered {
		return fmt.Errorf("%w: alert %s is triggered, dismiss it first", ErrInvalidState, a.ID)
	}
	a.Active = !a.Active
	a.UpdatedAt = now
	return nil
}

// DistancePercent is the signed distance of the last observed price from the
// target, in percent of the target. Only defined for price conditions.
func (a Alert) DistancePercent() (decimal.Decimal, bool) {
	target, ok := a.Condition.TargetPrice()
	if !ok || a.CurrentPrice == nil || target.IsZero() {
		return decimal.Decimal{}, false
	}
	return a.CurrentPrice.Sub(target).Div(target).Mul(decimal.NewFromInt(100)).Round(2), true
}

type alertJSON struct {
	ID                  string           `json:"id"`
	CoinID              string           `json:"coinId"`
	CoinSymbol          string           `json:"coinSymbol"`
	CoinName            string           `json:"coinName"`
	Condition           ConditionKind    `json:"condition"`
	TargetPrice         *decimal.Decimal `json:"targetPrice,omitempty"`
	ChangePercentage    *decimal.Decimal `json:"changePercentage,omitempty"`
	CurrentPrice        *decimal.Decimal `json:"currentPrice,omitempty"`
	DistancePercent     *decimal.Decimal `json:"distancePercent,omitempty"`
	IsActive            bool             `json:"isActive"`
	IsTriggered         bool             `json:"isTriggered"`
	Status              Status           `json:"status"`
	NotificationMethods []Channel        `json:"notificationMethods"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
	TriggeredAt         *time.Time       `json:"triggeredAt,omitempty"`
	Message             string           `json:"message,omitempty"`
	Note                string           `json:"note,omitempty"`
}

func (a Alert) MarshalJSON() ([]byte, error) {
	out := alertJSON{
		ID:                  a.ID,
		CoinID:              a.CoinID,
		CoinSymbol:          a.CoinSymbol,
		CoinName:            a.CoinName,
		Condition:           a.Condition.Kind,
		CurrentPrice:        a.CurrentPrice,
		IsActive:            a.Active,
		IsTriggered:         a.Triggered,
		Status:              a.Status(),
		NotificationMethods: a.Channels,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
		TriggeredAt:         a.TriggeredAt,
		Message:             a.Message,
		Note:                a.Note,
	}
	if target, ok := a.Condition.TargetPrice(); ok {
		out.TargetPrice = &target
	}
	if pct, ok := a.Condition.ChangePercentage(); ok {
		out.ChangePercentage = &pct
	}
	if dist, ok := a.DistancePercent(); ok {
		out.DistancePercent = &dist
	}
	if out.NotificationMethods == nil {
		out.NotificationMethods = []Channel{}
	}
	return json.Marshal(out)
}
