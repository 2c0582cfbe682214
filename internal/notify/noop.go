package notify

import (
	"context"

	"agenda/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NoopSender logs messages instead of delivering them. Used in development.
type NoopSender struct {
	logger *zerolog.Logger
}

func NewNoopSender(logger *zerolog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) Provider() string {
	return "noop"
}

func (s *NoopSender) Send(_ context.Context, recipient, message string) models.SendResult {
	id := "noop-" + uuid.NewString()
	s.logger.Debug().Str("recipient", recipient).Str("message_id", id).Str("body", message).Msg("Notification not delivered (noop)")
	return models.SendResult{Success: true, MessageID: id}
}
