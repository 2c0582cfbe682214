package notify

import (
	"fmt"

	"agenda/internal/config"
	"agenda/internal/domain"

	"github.com/rs/zerolog"
)

// New builds the sender selected by notifier.provider.
func New(cfg config.NotifierConfig, logger *zerolog.Logger) (domain.Sender, error) {
	switch cfg.Provider {
	case "whatsapp":
		return NewWhatsAppSender(cfg.WhatsApp, cfg.Timeout()), nil
	case "telegram":
		bot, err := NewTelegramBot(cfg.Telegram.BotToken, cfg.Telegram.Debug)
		if err != nil {
			return nil, err
		}
		return NewTelegramSender(bot, cfg.Telegram.ChatID), nil
	case "noop", "":
		return NewNoopSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown notifier provider %q", cfg.Provider)
	}
}
