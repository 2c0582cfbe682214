package service

import (
	"context"
	"time"

	"agenda/internal/domain"
	"agenda/internal/metrics"
	"agenda/internal/models"

	"github.com/rs/zerolog"
)

const errNoRecipient = "no recipient phone"

// Notifier sends one message per call and records every attempt in the audit trail.
// It never fails the caller: the outcome is returned and logged.
type Notifier struct {
	sender  domain.Sender
	store   domain.NotificationStore
	timeout time.Duration
	logger  *zerolog.Logger
}

func NewNotifier(sender domain.Sender, store domain.NotificationStore, timeout time.Duration, logger *zerolog.Logger) *Notifier {
	if timeout <= 0 {
		timeout = models.DefaultNotifyTimeout * time.Second
	}
	return &Notifier{sender: sender, store: store, timeout: timeout, logger: logger}
}

// Notify delivers message to recipient. The send gets its own deadline and ignores
// cancellation of ctx, so a finished request does not abort an in-flight delivery.
func (n *Notifier) Notify(ctx context.Context, bookingID int64, typ models.NotificationType, recipient, message string) models.SendResult {
	var res models.SendResult
	if recipient == "" {
		res = models.SendResult{Success: false, Error: errNoRecipient}
	} else {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		res = n.sender.Send(sendCtx, recipient, message)
		if !res.Success && res.Error == "" {
			res.Error = "send failed"
			if sendCtx.Err() != nil {
				res.Error = sendCtx.Err().Error()
			}
		}
		cancel()
	}

	status := models.NotificationSent
	if !res.Success {
		status = models.NotificationFailed
	}

	record := &models.Notification{
		BookingID: bookingID,
		Type:      typ,
		Recipient: recipient,
		Message:   message,
		Status:    status,
		MessageID: res.MessageID,
		Error:     res.Error,
	}
	if err := n.store.CreateNotification(context.WithoutCancel(ctx), record); err != nil {
		n.logger.Error().Err(err).Int64("booking_id", bookingID).Str("notification_type", string(typ)).Msg("Failed to record notification")
	}

	metrics.IncNotification(string(typ), n.sender.Provider(), string(status))

	if !res.Success {
		n.logger.Warn().
			Int64("booking_id", bookingID).
			Str("notification_type", string(typ)).
			Str("provider", n.sender.Provider()).
			Str("error", res.Error).
			Msg("Notification failed")
	} else {
		n.logger.Debug().
			Int64("booking_id", bookingID).
			Str("notification_type", string(typ)).
			Str("message_id", res.MessageID).
			Msg("Notification sent")
	}
	return res
}
