package game

import (
	"context"

	"github.com/m3rciful/exchangebot/internal/models"
)

// AssetQuote is one asset with its price fixed for a session, used to render
// trading keyboards and info messages.
type AssetQuote struct {
	AssetID   int64
	SessionID int64
	Title     string
	Price     int64
}

// Messenger renders and sends outbound game notifications. The engine treats
// it as a port; the Telegram adapter owns wording, formatting, and keyboard
// layout. Send failures fail only the event being processed.
type Messenger interface {
	// ParticipationKeyboard invites users to confirm or cancel participation.
	ParticipationKeyboard(ctx context.Context, chatTgID int64) error
	// SessionStarted announces a session with active players and balances.
	// sessionID lets the adapter attach an entry point into the session's
	// asset market.
	SessionStarted(ctx context.Context, chatTgID, sessionID int64, sessionNum int, players []models.GamePlayer) error
	// SessionFinished reports ending balances, sorted ascending.
	SessionFinished(ctx context.Context, chatTgID int64, sessionNum int, players []models.GamePlayer) error
	// AssetsKeyboard lists a session's assets as buy/sell buttons.
	AssetsKeyboard(ctx context.Context, chatTgID int64, quotes []AssetQuote) error
	AssetInfo(ctx context.Context, chatTgID int64, quote AssetQuote) error
	Holdings(ctx context.Context, chatTgID int64, name string, items []models.HoldingView) error

	ParticipationConfirmed(ctx context.Context, chatTgID int64, name string) error
	AlreadyConfirmed(ctx context.Context, chatTgID int64, name string) error
	ParticipationCancelled(ctx context.Context, chatTgID int64, name string) error
	Purchased(ctx context.Context, chatTgID int64, name, assetTitle string) error
	Sold(ctx context.Context, chatTgID int64, name, assetTitle string) error
	PlayerEliminated(ctx context.Context, chatTgID int64, name string) error
	Winner(ctx context.Context, chatTgID int64, name string) error

	GameStopped(ctx context.Context, chatTgID int64) error
	GameAlreadyGoing(ctx context.Context, chatTgID int64) error
	NotEnoughPlayers(ctx context.Context, chatTgID int64) error
	InsufficientFunds(ctx context.Context, chatTgID int64, name string) error
	NoAssetToSell(ctx context.Context, chatTgID int64, name string) error
	SessionAlreadyFinished(ctx context.Context, chatTgID int64) error
	NoHoldings(ctx context.Context, chatTgID int64, name string) error
	PlayerNotFound(ctx context.Context, chatTgID int64) error
	GameNotFound(ctx context.Context, chatTgID int64) error
	UnknownCommand(ctx context.Context, chatTgID int64) error
}
