package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Insert(ctx context.Context, alert domain.Alert) error {
	model, err := mapAlertToModel(alert)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *AlertRepository) Get(ctx context.Context, id string) (*domain.Alert, error) {
	var model alertModel
	err := r.db.WithContext(ctx).Where("alert_id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("alert %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	alert, err := mapAlertToDomain(model)
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *AlertRepository) List(ctx context.Context, filter domain.AlertFilter) ([]domain.Alert, error) {
	query := scopeStatus(r.db.WithContext(ctx), filter.Status)
	if filter.CoinID != "" {
		query = query.Where("coin_id = ?", filter.CoinID)
	}

	var models []alertModel
	if err := query.Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	alerts := make([]domain.Alert, 0, len(models))
	for _, model := range models {
		alert, err := mapAlertToDomain(model)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// Save overwrites every mutable column. A map is used so false and empty
// values are written too.
func (r *AlertRepository) Save(ctx context.Context, alert domain.Alert) error {
	return saveAlert(r.db.WithContext(ctx), alert)
}

// SaveAll writes the alerts in one transaction.
func (r *AlertRepository) SaveAll(ctx context.Context, alerts []domain.Alert) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, alert := range alerts {
			if err := saveAlert(tx, alert); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveAlert(db *gorm.DB, alert domain.Alert) error {
	model, err := mapAlertToModel(alert)
	if err != nil {
		return err
	}
	result := db.
		Model(&alertModel{}).
		Where("alert_id = ?", alert.ID).
		Updates(map[string]interface{}{
			"coin_id":           model.CoinID,
			"coin_symbol":       model.CoinSymbol,
			"coin_name":         model.CoinName,
			"condition_kind":    model.ConditionKind,
			"target_price":      model.TargetPrice,
			"change_percentage": model.ChangePercentage,
			"current_price":     model.CurrentPrice,
			"active":            model.Active,
			"triggered":         model.Triggered,
			"channels":          model.Channels,
			"triggered_at":      model.TriggeredAt,
			"message":           model.Message,
			"note":              model.Note,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("alert %s: %w", alert.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("alert_id = ?", id).Delete(&alertModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("alert %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *AlertRepository) CoinIDs(ctx context.Context, status domain.Status) ([]string, error) {
	coinIDs := []string{}
	if err := scopeStatus(r.db.WithContext(ctx).Model(&alertModel{}), status).
		Distinct().
		Order("coin_id").
		Pluck("coin_id", &coinIDs).Error; err != nil {
		return nil, err
	}
	return coinIDs, nil
}

func scopeStatus(query *gorm.DB, status domain.Status) *gorm.DB {
	switch status {
	case domain.StatusActive:
		return query.Where("active = ? AND triggered = ?", true, false)
	case domain.StatusTriggered:
		return query.Where("triggered = ?", true)
	case domain.StatusDisabled:
		return query.Where("active = ? AND triggered = ?", false, false)
	default:
		return query
	}
}

func mapAlertToModel(alert domain.Alert) (alertModel, error) {
	channels, err := json.Marshal(alert.Channels)
	if err != nil {
		return alertModel{}, err
	}
	model := alertModel{
		AlertID:       alert.ID,
		CoinID:        alert.CoinID,
		CoinSymbol:    alert.CoinSymbol,
		CoinName:      alert.CoinName,
		ConditionKind: string(alert.Condition.Kind),
		CurrentPrice:  decimalString(alert.CurrentPrice),
		Active:        alert.Active,
		Triggered:     alert.Triggered,
		Channels:      datatypes.JSON(channels),
		TriggeredAt:   alert.TriggeredAt,
		Message:       alert.Message,
		Note:          alert.Note,
		CreatedAt:     alert.CreatedAt,
		UpdatedAt:     alert.UpdatedAt,
	}
	if target, ok := alert.Condition.TargetPrice(); ok {
		model.TargetPrice = decimalString(&target)
	}
	if pct, ok := alert.Condition.ChangePercentage(); ok {
		model.ChangePercentage = decimalString(&pct)
	}
	return model, nil
}

func mapAlertToDomain(model alertModel) (domain.Alert, error) {
	target, err := parseDecimal(model.TargetPrice)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("alert %s target price: %w", model.AlertID, err)
	}
	change, err := parseDecimal(model.ChangePercentage)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("alert %s change percentage: %w", model.AlertID, err)
	}
	current, err := parseDecimal(model.CurrentPrice)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("alert %s current price: %w", model.AlertID, err)
	}
	condition, err := domain.NewCondition(domain.ConditionKind(model.ConditionKind), target, change)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("alert %s: %w", model.AlertID, err)
	}

	channels := []domain.Channel{}
	if len(model.Channels) > 0 {
		if err := json.Unmarshal(model.Channels, &channels); err != nil {
			return domain.Alert{}, fmt.Errorf("alert %s channels: %w", model.AlertID, err)
		}
	}

	return domain.Alert{
		ID:           model.AlertID,
		CoinID:       model.CoinID,
		CoinSymbol:   model.CoinSymbol,
		CoinName:     model.CoinName,
		Condition:    condition,
		CurrentPrice: current,
		Active:       model.Active,
		Triggered:    model.Triggered,
		Channels:     channels,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
		TriggeredAt:  model.TriggeredAt,
		Message:      model.Message,
		Note:         model.Note,
	}, nil
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
