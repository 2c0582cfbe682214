package notify

import (
	"context"
	"errors"
	"io"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBot struct {
	mock.Mock
}

func (m *MockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func TestTelegramSender(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		bot := new(MockBot)
		bot.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.ChatID == 777 && msg.Text == "Para +5491122223333:\nHola"
		})).Return(tgbotapi.Message{MessageID: 42}, nil)

		sender := NewTelegramSender(bot, 777)
		res := sender.Send(ctx, "+5491122223333", "Hola")
		assert.True(t, res.Success)
		assert.Equal(t, "42", res.MessageID)
		bot.AssertExpectations(t)
	})

	t.Run("ApiError", func(t *testing.T) {
		bot := new(MockBot)
		bot.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("Forbidden: bot was blocked"))

		res := NewTelegramSender(bot, 777).Send(ctx, "+5491122223333", "Hola")
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "bot was blocked")
	})

	t.Run("CancelledContext", func(t *testing.T) {
		bot := new(MockBot)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		res := NewTelegramSender(bot, 777).Send(cctx, "+5491122223333", "Hola")
		assert.False(t, res.Success)
		bot.AssertNotCalled(t, "Send", mock.Anything)
	})

	t.Run("EmptyRecipient", func(t *testing.T) {
		res := NewTelegramSender(new(MockBot), 777).Send(ctx, "", "Hola")
		assert.False(t, res.Success)
	})
}

func TestNoopSender(t *testing.T) {
	logger := zerolog.New(io.Discard)
	res := NewNoopSender(&logger).Send(context.Background(), "+5491122223333", "Hola")
	assert.True(t, res.Success)
	assert.Contains(t, res.MessageID, "noop-")
}
