package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type CreateAlertInput struct {
	CoinID           string
	CoinSymbol       string
	CoinName         string
	Condition        domain.ConditionKind
	TargetPrice      *decimal.Decimal
	ChangePercentage *decimal.Decimal
	CurrentPrice     *decimal.Decimal
	Channels         []domain.Channel
	Note             string
}

// AlertPatch is a partial update. Nil fields are left untouched.
type AlertPatch struct {
	CoinID           *string
	CoinSymbol       *string
	CoinName         *string
	Condition        *domain.ConditionKind
	TargetPrice      *decimal.Decimal
	ChangePercentage *decimal.Decimal
	CurrentPrice     *decimal.Decimal
	Channels         *[]domain.Channel
	Note             *string
	Active           *bool
}

// AlertStore validates alert records and keeps them in a repository.
type AlertStore struct {
	alerts domain.AlertRepository
	now    Clock
	newID  func() string
}

func NewAlertStore(alerts domain.AlertRepository, now Clock) *AlertStore {
	if now == nil {
		now = systemClock
	}
	return &AlertStore{alerts: alerts, now: now, newID: uuid.NewString}
}

func (s *AlertStore) Create(ctx context.Context, input CreateAlertInput) (*domain.Alert, error) {
	condition, err := domain.NewCondition(input.Condition, input.TargetPrice, input.ChangePercentage)
	if err != nil {
		return nil, err
	}
	channels, err := domain.NormalizeChannels(input.Channels)
	if err != nil {
		return nil, err
	}

	var current *decimal.Decimal
	if input.CurrentPrice != nil {
		price := *input.CurrentPrice
		current = &price
	}

	now := s.now()
	alert := domain.Alert{
		ID:           s.newID(),
		CoinID:       normalizeCoinID(input.CoinID),
		CoinSymbol:   normalizeSymbol(input.CoinSymbol),
		CoinName:     strings.TrimSpace(input.CoinName),
		Condition:    condition,
		CurrentPrice: current,
		Active:       true,
		Triggered:    false,
		Channels:     channels,
		CreatedAt:    now,
		UpdatedAt:    now,
		Note:         strings.TrimSpace(input.Note),
	}
	if alert.CoinName == "" {
		alert.CoinName = alert.CoinSymbol
	}
	if err := alert.Validate(); err != nil {
		return nil, err
	}

	if err := s.alerts.Insert(ctx, alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (s *AlertStore) Get(ctx context.Context, id string) (*domain.Alert, error) {
	return s.alerts.Get(ctx, strings.TrimSpace(id))
}

func (s *AlertStore) List(ctx context.Context, filter domain.AlertFilter) ([]domain.Alert, error) {
	if filter.Status == "" {
		filter.Status = domain.StatusAll
	}
	if _, err := domain.ParseStatus(string(filter.Status)); err != nil {
		return nil, err
	}
	filter.CoinID = normalizeCoinID(filter.CoinID)
	return s.alerts.List(ctx, filter)
}

func (s *AlertStore) Update(ctx context.Context, id string, patch AlertPatch) (*domain.Alert, error) {
	alert, err := s.alerts.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := applyPatch(alert, patch); err != nil {
		return nil, err
	}
	alert.UpdatedAt = s.now()
	if err := s.save(ctx, *alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *AlertStore) Delete(ctx context.Context, id string) error {
	return s.alerts.Delete(ctx, strings.TrimSpace(id))
}

// CoinIDs lists the distinct coins referenced by alerts in the given status.
func (s *AlertStore) CoinIDs(ctx context.Context, status domain.Status) ([]string, error) {
	return s.alerts.CoinIDs(ctx, status)
}

// save re-validates and writes a full alert record.
func (s *AlertStore) save(ctx context.Context, alert domain.Alert) error {
	if err := alert.Validate(); err != nil {
		return err
	}
	return s.alerts.Save(ctx, alert)
}

// saveAll validates every alert before writing any of them.
func (s *AlertStore) saveAll(ctx context.Context, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	for _, alert := range alerts {
		if err := alert.Validate(); err != nil {
			return err
		}
	}
	return s.alerts.SaveAll(ctx, alerts)
}

func applyPatch(alert *domain.Alert, patch AlertPatch) error {
	if patch.CoinID != nil {
		alert.CoinID = normalizeCoinID(*patch.CoinID)
	}
	if patch.CoinSymbol != nil {
		alert.CoinSymbol = normalizeSymbol(*patch.CoinSymbol)
	}
	if patch.CoinName != nil {
		alert.CoinName = strings.TrimSpace(*patch.CoinName)
	}
	if patch.Condition != nil || patch.TargetPrice != nil || patch.ChangePercentage != nil {
		condition, err := patchCondition(alert.Condition, patch)
		if err != nil {
			return err
		}
		alert.Condition = condition
	}
	if patch.CurrentPrice != nil {
		price := *patch.CurrentPrice
		alert.CurrentPrice = &price
	}
	if patch.Channels != nil {
		channels, err := domain.NormalizeChannels(*patch.Channels)
		if err != nil {
			return err
		}
		alert.Channels = channels
	}
	if patch.Note != nil {
		alert.Note = strings.TrimSpace(*patch.Note)
	}
	if patch.Active != nil {
		alert.Active = *patch.Active
	}
	return nil
}

// patchCondition keeps the stored payload when the family is unchanged and
// requires a matching payload when the patch switches families.
func patchCondition(current domain.Condition, patch AlertPatch) (domain.Condition, error) {
	kind := current.Kind
	if patch.Condition != nil {
		kind = *patch.Condition
	}

	target := patch.TargetPrice
	if target == nil && kind.IsPrice() {
		if value, ok := current.TargetPrice(); ok {
			target = &value
		}
	}
	change := patch.ChangePercentage
	if change == nil && kind.IsChange() {
		if value, ok := current.ChangePercentage(); ok {
			change = &value
		}
	}
	return domain.NewCondition(kind, target, change)
}

func normalizeCoinID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
