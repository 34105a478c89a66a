package telegram

import (
	"log/slog"
	"runtime/debug"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchangebot/core/logger"
)

// wrap applies the shared middleware chain to a handler.
func wrap(next tele.HandlerFunc) tele.HandlerFunc {
	return recoverMiddleware(loggingMiddleware(next))
}

// recoverMiddleware catches panics in handlers and prevents the bot from
// crashing.
func recoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logger.TG.Error("panic recovered",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}

// loggingMiddleware logs one summary line per update.
func loggingMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		err := next(c)

		attrs := []any{
			slog.Int("update_id", c.Update().ID),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.Int64("chat_id", chat.ID))
		}
		if u := c.Sender(); u != nil {
			attrs = append(attrs, slog.Int64("user_id", u.ID))
		}
		if cb := c.Callback(); cb != nil {
			attrs = append(attrs, slog.String("callback", cb.Data))
		} else if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("text", t))
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
			logger.TG.Error("update failed", attrs...)
			return err
		}
		logger.TG.Debug("update handled", attrs...)
		return nil
	}
}
