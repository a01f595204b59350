package telegram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/usecase"
	"github.com/shopspring/decimal"
)

const HelpText = `Commands:
/help - show this help
/alerts [all|active|triggered|disabled] - list alerts
/add <coin_id> <symbol> <above|below|change_up|change_down> <value> [channels]
/toggle <alert_id> - enable or disable an alert
/dismiss <alert_id> - acknowledge a triggered alert
/delete <alert_id>
/stats - alert counts
/price <coin_id> <price> [change_24h] - feed a price manually

Notes:
- above/below take a target price, change_up/change_down a 24h change in percent.
- channels is a comma separated list of email, push, sms (default push).
Example:
/add bitcoin BTC above 45000 email,push
/price bitcoin 45250 3.2
`

var ErrInvalidArguments = errors.New("invalid arguments")

// ParseAddArgs parses "/add <coin_id> <symbol> <kind> <value> [channels]".
func ParseAddArgs(args string) (usecase.CreateAlertInput, error) {
	parts := strings.Fields(args)
	if len(parts) != 4 && len(parts) != 5 {
		return usecase.CreateAlertInput{}, ErrInvalidArguments
	}
	kind, err := domain.ParseConditionKind(parts[2])
	if err != nil {
		return usecase.CreateAlertInput{}, err
	}
	value, err := decimal.NewFromString(parts[3])
	if err != nil {
		return usecase.CreateAlertInput{}, fmt.Errorf("%w: %q is not a number", domain.ErrValidation, parts[3])
	}

	channelList := string(domain.ChannelPush)
	if len(parts) == 5 {
		channelList = parts[4]
	}
	channels, err := domain.ParseChannelList(channelList)
	if err != nil {
		return usecase.CreateAlertInput{}, err
	}

	input := usecase.CreateAlertInput{
		CoinID:     parts[0],
		CoinSymbol: parts[1],
		Condition:  kind,
		Channels:   channels,
	}
	if kind.IsChange() {
		input.ChangePercentage = &value
	} else {
		input.TargetPrice = &value
	}
	return input, nil
}

// ParsePriceArgs parses "/price <coin_id> <price> [change_24h]".
func ParsePriceArgs(args string) (domain.PriceTick, error) {
	parts := strings.Fields(args)
	if len(parts) != 2 && len(parts) != 3 {
		return domain.PriceTick{}, ErrInvalidArguments
	}
	price, err := decimal.NewFromString(parts[1])
	if err != nil {
		return domain.PriceTick{}, ErrInvalidArguments
	}
	tick := domain.PriceTick{CoinID: parts[0], Price: price}
	if len(parts) == 3 {
		change, err := decimal.NewFromString(strings.TrimSuffix(parts[2], "%"))
		if err != nil {
			return domain.PriceTick{}, ErrInvalidArguments
		}
		tick.ChangePct24h = &change
	}
	return tick, nil
}

func ParseAlertID(args string) (string, error) {
	id := strings.TrimSpace(args)
	if id == "" || strings.ContainsAny(id, " \t\n") {
		return "", ErrInvalidArguments
	}
	return id, nil
}

// FormatAlert renders one alert line, e.g. "a1 [active] BTC above 45000 (email, push)".
func FormatAlert(alert domain.Alert) string {
	channels := make([]string, 0, len(alert.Channels))
	for _, ch := range alert.Channels {
		channels = append(channels, string(ch))
	}
	line := fmt.Sprintf("%s [%s] %s %s (%s)", alert.ID, alert.Status(), alert.CoinSymbol, alert.Condition, strings.Join(channels, ", "))
	if dist, ok := alert.DistancePercent(); ok {
		line += fmt.Sprintf(" %s%% from target", dist.String())
	}
	if alert.Triggered {
		line += "\n  " + alert.Message
	}
	return line
}
