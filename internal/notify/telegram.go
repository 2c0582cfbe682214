package notify

import (
	"context"
	"fmt"
	"strconv"

	"agenda/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotSender is the part of tgbotapi.BotAPI the relay needs.
type BotSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender relays every message to an operator chat, tagged with the intended recipient.
// It is used where no WhatsApp Business account is available.
type TelegramSender struct {
	bot    BotSender
	chatID int64
}

func NewTelegramSender(bot BotSender, chatID int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID}
}

// NewTelegramBot connects to the Bot API.
func NewTelegramBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

func (s *TelegramSender) Provider() string {
	return "telegram"
}

func (s *TelegramSender) Send(ctx context.Context, recipient, message string) models.SendResult {
	if err := ctx.Err(); err != nil {
		return failed("send: %v", err)
	}
	if recipient == "" {
		return failed("empty recipient")
	}

	msg := tgbotapi.NewMessage(s.chatID, fmt.Sprintf("Para %s:\n%s", recipient, message))
	sent, err := s.bot.Send(msg)
	if err != nil {
		return failed("telegram: %v", err)
	}
	return models.SendResult{Success: true, MessageID: strconv.Itoa(sent.MessageID)}
}
