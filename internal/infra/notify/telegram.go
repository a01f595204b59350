package notify

import (
	"context"

	"github.com/NasaVasa/coinalert/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender pushes intents into a single chat.
type TelegramSender struct {
	bot    messageSender
	chatID int64
}

func NewTelegramSender(bot *tgbotapi.BotAPI, chatID int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID}
}

func (s *TelegramSender) Name() string {
	return "telegram"
}

func (s *TelegramSender) Send(ctx context.Context, intent domain.NotificationIntent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, "🔔 "+intent.Message))
	return err
}
