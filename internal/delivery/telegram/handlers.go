package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NasaVasa/coinalert/internal/domain"
	"github.com/NasaVasa/coinalert/internal/usecase"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const maxMessageLen = 3800

type Handlers struct {
	manager     *usecase.AlertManager
	watcher     *usecase.PriceWatcher
	allowedChat int64
	logger      *zap.Logger
}

// NewHandlers answers commands from any chat when allowedChat is zero.
func NewHandlers(manager *usecase.AlertManager, watcher *usecase.PriceWatcher, allowedChat int64, logger *zap.Logger) *Handlers {
	return &Handlers{manager: manager, watcher: watcher, allowedChat: allowedChat, logger: logger}
}

func (h *Handlers) HandleUpdate(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	if !update.Message.IsCommand() {
		return
	}
	chatID := update.Message.Chat.ID
	if h.allowedChat != 0 && chatID != h.allowedChat {
		h.logger.Warn("command from unknown chat ignored", zap.Int64("chat_id", chatID))
		return
	}

	command := update.Message.Command()
	args := update.Message.CommandArguments()
	h.logger.Info(
		"telegram command received",
		zap.Int64("chat_id", chatID),
		zap.Int64("telegram_user_id", update.Message.From.ID),
		zap.String("username", update.Message.From.UserName),
		zap.String("command", command),
		zap.String("args", args),
	)
	h.reply(api, chatID, h.Respond(ctx, command, args))
}

// Respond runs one command and returns the reply text.
func (h *Handlers) Respond(ctx context.Context, command, args string) string {
	switch command {
	case "start", "help":
		return HelpText
	case "alerts":
		return h.listAlerts(ctx, args)
	case "add":
		input, err := ParseAddArgs(args)
		if err != nil {
			if errors.Is(err, ErrInvalidArguments) {
				return "Usage: /add <coin_id> <symbol> <above|below|change_up|change_down> <value> [channels]"
			}
			return h.errorMessage(err)
		}
		alert, err := h.manager.Create(ctx, input)
		if err != nil {
			h.logger.Warn("add failed", zap.String("args", args), zap.Error(err))
			return h.errorMessage(err)
		}
		return "Alert created:\n" + FormatAlert(*alert)
	case "toggle":
		return h.withID(args, "toggle", func(id string) (string, error) {
			alert, err := h.manager.ToggleActive(ctx, id)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Alert %s is now %s.", alert.ID, alert.Status()), nil
		})
	case "dismiss":
		return h.withID(args, "dismiss", func(id string) (string, error) {
			alert, err := h.manager.Dismiss(ctx, id)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Alert %s dismissed. Use /toggle %s to re-enable it.", alert.ID, alert.ID), nil
		})
	case "delete":
		return h.withID(args, "delete", func(id string) (string, error) {
			if err := h.manager.Delete(ctx, id); err != nil {
				return "", err
			}
			return fmt.Sprintf("Alert %s deleted.", id), nil
		})
	case "stats":
		stats, err := h.manager.Stats(ctx)
		if err != nil {
			return h.errorMessage(err)
		}
		return fmt.Sprintf("Total: %d\nActive: %d\nTriggered: %d\nDisabled: %d", stats.Total, stats.Active, stats.Triggered, stats.Disabled)
	case "price":
		tick, err := ParsePriceArgs(args)
		if err != nil {
			return "Usage: /price <coin_id> <price> [change_24h]"
		}
		result, err := h.watcher.Ingest(ctx, "telegram", tick)
		if err != nil {
			return h.errorMessage(err)
		}
		if len(result.Fired) == 0 {
			return "Price recorded. No alerts fired."
		}
		var builder strings.Builder
		builder.WriteString(fmt.Sprintf("%d alert(s) fired:\n", len(result.Fired)))
		for _, alert := range result.Fired {
			builder.WriteString(alert.Message + "\n")
		}
		return builder.String()
	default:
		h.logger.Warn("unknown command", zap.String("command", command))
		return "Unknown command.\n\n" + HelpText
	}
}

func (h *Handlers) listAlerts(ctx context.Context, args string) string {
	status, err := domain.ParseStatus(args)
	if err != nil {
		return "Usage: /alerts [all|active|triggered|disabled]"
	}
	alerts, err := h.manager.SortAndFilter(ctx, usecase.Query{Status: status})
	if err != nil {
		return h.errorMessage(err)
	}
	if len(alerts) == 0 {
		return "No alerts yet. Use /add to create one."
	}

	header := "Alerts:\n"
	var builder strings.Builder
	builder.WriteString(header)
	for i, alert := range alerts {
		line := FormatAlert(alert) + "\n"
		if builder.Len()+len(line) > maxMessageLen {
			builder.WriteString(fmt.Sprintf("...and %d more", len(alerts)-i))
			break
		}
		builder.WriteString(line)
	}
	return builder.String()
}

func (h *Handlers) withID(args, command string, run func(id string) (string, error)) string {
	id, err := ParseAlertID(args)
	if err != nil {
		return fmt.Sprintf("Usage: /%s <alert_id>", command)
	}
	text, err := run(id)
	if err != nil {
		h.logger.Warn(command+" failed", zap.String("alert_id", id), zap.Error(err))
		return h.errorMessage(err)
	}
	h.logger.Info(command+" complete", zap.String("alert_id", id))
	return text
}

func (h *Handlers) errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Alert not found."
	case errors.Is(err, domain.ErrInvalidState):
		return "Not allowed right now: " + err.Error()
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		return "Invalid input: " + err.Error()
	}

	h.logger.Warn("unhandled error", zap.Error(err))
	return "Something went wrong. Please try again."
}

func (h *Handlers) reply(api *tgbotapi.BotAPI, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := api.Send(msg); err != nil {
		h.logger.Warn("failed to send message", zap.Error(err))
	}
}
