package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ConditionKind string

const (
	ConditionAbove      ConditionKind = "above"
	ConditionBelow      ConditionKind = "below"
	ConditionChangeUp   ConditionKind = "change_up"
	ConditionChangeDown ConditionKind = "change_down"
)

// MaxChangePercentage caps 24h change thresholds.
var MaxChangePercentage = decimal.NewFromInt(1000)

func ParseConditionKind(input string) (ConditionKind, error) {
	switch kind := ConditionKind(strings.ToLower(strings.TrimSpace(input))); kind {
	case ConditionAbove, ConditionBelow, ConditionChangeUp, ConditionChangeDown:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown condition %q", ErrValidation, input)
	}
}

// IsPrice reports whether the kind compares against a target price.
func (k ConditionKind) IsPrice() bool {
	return k == ConditionAbove || k == ConditionBelow
}

// IsChange reports whether the kind compares against the 24h percentage change.
func (k ConditionKind) IsChange() bool {
	return k == ConditionChangeUp || k == ConditionChangeDown
}

// Condition is a tagged variant: Kind selects how Value is interpreted.
// Price kinds carry a target price, change kinds a positive percentage magnitude.
type Condition struct {
	Kind  ConditionKind
	Value decimal.Decimal
}

func PriceAbove(target decimal.Decimal) Condition {
	return Condition{Kind: ConditionAbove, Value: target}
}

func PriceBelow(target decimal.Decimal) Condition {
	return Condition{Kind: ConditionBelow, Value: target}
}

func ChangeUp(pct decimal.Decimal) Condition {
	return Condition{Kind: ConditionChangeUp, Value: pct.Abs()}
}

func ChangeDown(pct decimal.Decimal) Condition {
	return Condition{Kind: ConditionChangeDown, Value: pct.Abs()}
}

// NewCondition builds a condition from the two optional inputs a form or API
// request carries. Exactly the payload matching the kind's family must be set.
func NewCondition(kind ConditionKind, targetPrice, changePercentage *decimal.Decimal) (Condition, error) {
	switch {
	case kind.IsPrice():
		if changePercentage != nil {
			return Condition{}, fmt.Errorf("%w: %s alerts take a target price, not a change percentage", ErrValidation, kind)
		}
		if targetPrice == nil {
			return Condition{}, fmt.Errorf("%w: %s alerts require a target price", ErrValidation, kind)
		}
		if kind == ConditionAbove {
			return PriceAbove(*targetPrice), nil
		}
		return PriceBelow(*targetPrice), nil
	case kind.IsChange():
		if targetPrice != nil {
			return Condition{}, fmt.Errorf("%w: %s alerts take a change percentage, not a target price", ErrValidation, kind)
		}
		if changePercentage == nil {
			return Condition{}, fmt.Errorf("%w: %s alerts require a change percentage", ErrValidation, kind)
		}
		if kind == ConditionChangeUp {
			return ChangeUp(*changePercentage), nil
		}
		return ChangeDown(*changePercentage), nil
	default:
		return Condition{}, fmt.Errorf("%w: unknown condition %q", ErrValidation, kind)
	}
}

func (c Condition) TargetPrice() (decimal.Decimal, bool) {
	if !c.Kind.IsPrice() {
		return decimal.Decimal{}, false
	}
	return c.Value, true
}

func (c Condition) ChangePercentage() (decimal.Decimal, bool) {
	if !c.Kind.IsChange() {
		return decimal.Decimal{}, false
	}
	return c.Value, true
}

func (c Condition) Validate() error {
	switch {
	case c.Kind.IsPrice():
		if !c.Value.IsPositive() {
			return fmt.Errorf("%w: target price must be positive", ErrValidation)
		}
	case c.Kind.IsChange():
		if !c.Value.IsPositive() {
			return fmt.Errorf("%w: change percentage must be non-zero", ErrValidation)
		}
		if c.Value.GreaterThan(MaxChangePercentage) {
			return fmt.Errorf("%w: change percentage must not exceed %s", ErrValidation, MaxChangePercentage)
		}
	default:
		return fmt.Errorf("%w: unknown condition %q", ErrValidation, c.Kind)
	}
	return nil
}

func (c Condition) String() string {
	if c.Kind.IsChange() {
		return fmt.Sprintf("%s %s%%", c.Kind, c.Value.String())
	}
	return fmt.Sprintf("%s %s", c.Kind, c.Value.String())
}
