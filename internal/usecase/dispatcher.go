package usecase

import (
	"fmt"
	"time"

	"github.com/NasaVasa/coinalert/internal/domain"
)

var conditionPhrases = map[domain.ConditionKind]string{
	domain.ConditionAbove:      "has risen above",
	domain.ConditionBelow:      "has fallen below",
	domain.ConditionChangeUp:   "is up more than",
	domain.ConditionChangeDown: "is down more than",
}

// Dispatcher turns a fired alert into its message and notification intents.
// It never delivers anything.
type Dispatcher struct {
	prefs domain.NotificationPreferences
}

func NewDispatcher(prefs domain.NotificationPreferences) *Dispatcher {
	return &Dispatcher{prefs: prefs}
}

// Render produces the human readable text for a fired alert,
// e.g. "Bitcoin (BTC) has risen above 45000".
func (d *Dispatcher) Render(alert domain.Alert) string {
	value := alert.Condition.Value.String()
	if alert.Condition.Kind.IsChange() {
		value += "%"
	}
	phrase, ok := conditionPhrases[alert.Condition.Kind]
	if !ok {
		phrase = string(alert.Condition.Kind)
	}
	return fmt.Sprintf("%s (%s) %s %s", alert.CoinName, alert.CoinSymbol, phrase, value)
}

// Intents returns one intent per configured channel the preferences allow.
func (d *Dispatcher) Intents(alert domain.Alert, firedAt time.Time) []domain.NotificationIntent {
	message := alert.Message
	if message == "" {
		message = d.Render(alert)
	}
	intents := make([]domain.NotificationIntent, 0, len(alert.Channels))
	for _, channel := range alert.Channels {
		if !d.prefs.Allows(channel) {
			continue
		}
		intents = append(intents, domain.NotificationIntent{
			AlertID: alert.ID,
			CoinID:  alert.CoinID,
			Channel: channel,
			Message: message,
			FiredAt: firedAt,
		})
	}
	return intents
}
