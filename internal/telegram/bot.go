// Package telegram adapts telebot updates to the game engine's event model
// and implements its Messenger port.
package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchangebot/core/config"
	"github.com/m3rciful/exchangebot/internal/game"
)

// NewBot builds a long-polling telebot instance.
func NewBot(cfg config.TelegramConfig) (*tele.Bot, error) {
	timeout := 10 * time.Second
	if cfg.LongPollTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.LongPollTimeoutSeconds) * time.Second
	}
	return tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
}

// Attach registers the two update routes. All routing below the transport
// happens in the engine's rule table, so the bot only distinguishes text
// from callback.
func Attach(bot *tele.Bot, engine *game.Engine) {
	bot.Handle(tele.OnText, wrap(func(c tele.Context) error {
		return engine.HandleEvent(context.Background(), textEvent(c))
	}))
	bot.Handle(tele.OnCallback, wrap(func(c tele.Context) error {
		// Stop the button spinner before handling.
		_ = c.Respond()
		return engine.HandleEvent(context.Background(), callbackEvent(c))
	}))
}

// Run starts the bot and stops it when ctx is done.
func Run(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		bot.Start()
		close(done)
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-done:
		return nil
	}
}

func textEvent(c tele.Context) game.Event {
	return game.Event{
		ChatTelegramID: c.Chat().ID,
		Sender:         sender(c),
		Text:           strings.TrimSpace(c.Text()),
	}
}

func callbackEvent(c tele.Context) game.Event {
	// Buttons are built with raw callback data, but tolerate telebot's
	// \f<unique>|<payload> encoding in case one sneaks in.
	data := strings.TrimPrefix(c.Callback().Data, "\f")
	return game.Event{
		ChatTelegramID: c.Chat().ID,
		Sender:         sender(c),
		Callback:       data,
	}
}

func sender(c tele.Context) game.Sender {
	u := c.Sender()
	if u == nil {
		return game.Sender{}
	}
	return game.Sender{
		TelegramID: u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Username:   u.Username,
	}
}
