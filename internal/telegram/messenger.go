package telegram

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/exchangebot/internal/game"
	"github.com/m3rciful/exchangebot/internal/models"
)

// Messenger renders game notifications as Telegram messages and inline
// keyboards. Buttons carry raw callback payloads so the engine's router can
// match them by prefix.
type Messenger struct {
	bot *tele.Bot
}

// NewMessenger wraps a bot.
func NewMessenger(bot *tele.Bot) *Messenger {
	return &Messenger{bot: bot}
}

func (m *Messenger) send(chatTgID int64, text string, opts ...interface{}) error {
	_, err := m.bot.Send(tele.ChatID(chatTgID), text, opts...)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// formatCents renders integer cents as a decimal amount.
func formatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func playerLines(players []models.GamePlayer) string {
	var b strings.Builder
	for _, p := range players {
		name := p.FirstName
		if name == "" {
			name = "@" + p.Username
		}
		fmt.Fprintf(&b, "• %s: %s\n", name, formatCents(p.Balance))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Messenger) ParticipationKeyboard(_ context.Context, chatTgID int64) error {
	markup := &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{{
			{Text: "✅ I'm in", Data: "confirm"},
			{Text: "❌ Not this time", Data: "cancel"},
		}},
	}
	return m.send(chatTgID, "A new game is starting! Confirm your participation:", markup)
}

func (m *Messenger) SessionStarted(_ context.Context, chatTgID, sessionID int64, sessionNum int, players []models.GamePlayer) error {
	text := fmt.Sprintf("Session %d started!\n\nPlayers and balances:\n%s", sessionNum, playerLines(players))
	markup := &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{{
			{Text: "📈 Open market", Data: game.AssetsAvailablePayload(sessionID)},
		}},
	}
	return m.send(chatTgID, text, markup)
}

func (m *Messenger) SessionFinished(_ context.Context, chatTgID int64, sessionNum int, players []models.GamePlayer) error {
	text := fmt.Sprintf("Session %d is over.\n\nEnding balances:\n%s", sessionNum, playerLines(players))
	return m.send(chatTgID, text)
}

func (m *Messenger) AssetsKeyboard(_ context.Context, chatTgID int64, quotes []game.AssetQuote) error {
	if len(quotes) == 0 {
		return m.send(chatTgID, "No assets available.")
	}
	rows := make([][]tele.InlineButton, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, []tele.InlineButton{
			{
				Text: fmt.Sprintf("%s — %s", q.Title, formatCents(q.Price)),
				Data: game.AssetInfoPayload(q.AssetID, q.SessionID),
			},
			{Text: "Buy", Data: game.BuyAssetPayload(q.AssetID, q.SessionID)},
			{Text: "Sell", Data: game.SellAssetPayload(q.AssetID, q.SessionID)},
		})
	}
	return m.send(chatTgID, "Available assets:", &tele.ReplyMarkup{InlineKeyboard: rows})
}

func (m *Messenger) AssetInfo(_ context.Context, chatTgID int64, q game.AssetQuote) error {
	text := fmt.Sprintf("%s\nCurrent session price: %s", q.Title, formatCents(q.Price))
	markup := &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{{
			{Text: "Buy", Data: game.BuyAssetPayload(q.AssetID, q.SessionID)},
			{Text: "Sell", Data: game.SellAssetPayload(q.AssetID, q.SessionID)},
		}},
	}
	return m.send(chatTgID, text, markup)
}

func (m *Messenger) Holdings(_ context.Context, chatTgID int64, name string, items []models.HoldingView) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, your assets:\n", name)
	for _, it := range items {
		fmt.Fprintf(&b, "%s — %d pcs.\n", it.Title, it.Quantity)
	}
	return m.send(chatTgID, strings.TrimRight(b.String(), "\n"))
}

func (m *Messenger) ParticipationConfirmed(_ context.Context, chatTgID int64, name string) error {
	return m.send(chatTgID, fmt.Sprintf("%s confirmed participation", name))
}

func (m *Messenger) AlreadyConfirmed(_ context.Context, chatTgID int64, name string) error {
	return m.send(chatTgID, fmt.Sprintf("%s, your participation is already confirmed", name))
}

func (m *Messenger) ParticipationCancelled(_ context.Context, chatTgID int64, name string) error {
	return m.send(chatTgID, fmt.Sprintf("%s cancelled participation", name))
}

func (m *Messenger) Purchased(_ context.Context, chatTgID int64, name, assetTitle string) error {
	return m.send(chatTgID, fmt.Sprintf("%s bought %s", name, assetTitle))
}

func (m *Messenger) Sold(_ context.Context, chatTgID int64, name, assetTitle string) error {
	return m.send(chatTgID, fmt.Sprintf("%s sold %s", name, assetTitle))
}

func (m *Messenger) PlayerEliminated(_ context.Context, chatTgID int64, name string) error {
	return m.send(chatTgID, fmt.Sprintf("%s is eliminated with the lowest balance", name))
}

func (m *Messenger) Winner(_ context.Context, chatTgID int64, name string) error {
	return m.send(chatTgID, fmt.Sprintf("🏆 Game over! The winner is %s", name))
}

func (m *Messenger) GameStopped(_ context.Context, chatTgID int64) error {
	return m.send(chatTgID, "Game stopped.")
}

func (m *Messenger) GameAlreadyGoing(_ context.Context, chatTgID int64) error {
	return m.send(chatTgID, "A game is already in progress.")
}

func (m *Messenger) NotEnoughPlayers(_ context.Context, chatTgID int64) error {
	return m.send(chatTgID, "Not enough players to start the game.")
}

func (m *Messenger) InsufficientFunds(_ context.Context, chatTgID int64, name string) error {
	return m.send(chatTgID, fmt.Sprintf("%s, insufficient funds", name))
}

func (m *Messenger) NoAssetToSell(_ context.Context, chatTgID int64, name string) error {
	return m.send(chatTgID, fmt.Sprintf("%s, you don't hold that asset", name))
}

func (m *Messenger) SessionAlreadyFinished(_ context.Context, chatTgID int64) error {
	return m.send(chatTgID, "That session is already over.")
}

func (m *Messenger) NoHoldings(_ context.Context, chatTgID int64, name string) error {
	return m.send(chatTgID, fmt.Sprintf("%s, you have no assets yet", name))
}

func (m *Messenger) PlayerNotFound(_ context.Context, chatTgID int64) error {
	return m.send(chatTgID, "Player not found. Confirm participation first.")
}

func (m *Messenger) GameNotFound(_ context.Context, chatTgID int64) error {
	return m.send(chatTgID, "Game not found.")
}

func (m *Messenger) UnknownCommand(_ context.Context, chatTgID int64) error {
	return m.send(chatTgID, "Unknown command.")
}

var _ game.Messenger = (*Messenger)(nil)
