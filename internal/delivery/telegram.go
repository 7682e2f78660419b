// Package delivery sends rendered reminders to their owners over Telegram.
package delivery

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/pengingat/internal/format"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Sender is the part of *tgbotapi.BotAPI the gateway needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramGateway treats an owner as a Telegram chat ID. Sends are throttled
// to stay under the Bot API flood limits.
type TelegramGateway struct {
	api     Sender
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewTelegramGateway(api Sender, ratePerSec float64, log zerolog.Logger) *TelegramGateway {
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &TelegramGateway{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		log:     log.With().Str("component", "delivery").Logger(),
	}
}

// Send delivers text to owner. It returns when the message is sent or ctx is
// done, whichever comes first.
func (g *TelegramGateway) Send(ctx context.Context, owner, text string) error {
	chatID, err := strconv.ParseInt(owner, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid owner %q: %w", owner, err)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities

	done := make(chan error, 1)
	go func() {
		sent, err := g.api.Send(msg)
		if err == nil {
			g.log.Debug().Int64("chat_id", chatID).Int("message_id", sent.MessageID).Msg("message sent")
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send to chat %d: %w", chatID, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send to chat %d: %w", chatID, ctx.Err())
	}
}
