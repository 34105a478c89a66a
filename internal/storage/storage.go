// Package storage declares the persistence port of the game core.
//
// Each method is a single atomic operation against the backing store.
// Multi-call sequences (finish game, reset chat, reset players) are NOT
// atomic as a whole; a crash between calls can leave partially applied
// state. The engine documents and accepts that window.
package storage

import (
	"context"
	"errors"

	"github.com/m3rciful/exchangebot/internal/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// UserStore manages Telegram users known to the bot.
type UserStore interface {
	// UpsertUser creates or refreshes a user keyed by telegram id.
	UpsertUser(ctx context.Context, tgID int64, firstName, lastName, username string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

// ChatStore manages chats and their FSM state token.
type ChatStore interface {
	ChatByTelegramID(ctx context.Context, tgID int64) (*models.Chat, error)
	CreateChat(ctx context.Context, tgID int64) (*models.Chat, error)
	SetChatState(ctx context.Context, chatID int64, state string) error
}

// GameStore manages game rows. At most one game per chat may be in a
// non-finished state at any time.
type GameStore interface {
	CreateGame(ctx context.Context, chatID, startBalance int64, sessionLimit int) (*models.Game, error)
	// ActiveGameByChat returns the most recent non-finished game of a chat,
	// or ErrNotFound.
	ActiveGameByChat(ctx context.Context, chatID int64) (*models.Game, error)
	GameByID(ctx context.Context, gameID int64) (*models.Game, error)
	SetGameState(ctx context.Context, gameID int64, state string) error
	// FinishGame marks the game finished and records the winner, if any.
	FinishGame(ctx context.Context, gameID int64, winnerID *int64) error
	// Games lists games newest first, optionally filtered by state.
	Games(ctx context.Context, state string, limit int) ([]models.Game, error)
	// GamesByChat lists a chat's games newest first.
	GamesByChat(ctx context.Context, chatID int64, limit int) ([]models.Game, error)
}

// PlayerStore manages participation records.
type PlayerStore interface {
	CreatePlayer(ctx context.Context, gameID, userID int64, state string, balance int64) (*models.Player, error)
	PlayerByGameAndUser(ctx context.Context, gameID, userID int64) (*models.Player, error)
	SetPlayerState(ctx context.Context, playerID int64, state string) error
	// ResetPlayerStates forces every player of the game into the given state.
	ResetPlayerStates(ctx context.Context, gameID int64, state string) error
	// GamePlayers returns all players of a game joined with user display
	// fields, ordered by player id.
	GamePlayers(ctx context.Context, gameID int64) ([]models.GamePlayer, error)
	AdjustPlayerBalance(ctx context.Context, playerID, delta int64) error
}

// SessionStore manages trading sessions. At most one unfinished session may
// exist per game.
type SessionStore interface {
	CreateSession(ctx context.Context, gameID int64, sessionNum int) (*models.TradingSession, error)
	// CurrentSession returns the unfinished session of a game, or ErrNotFound.
	CurrentSession(ctx context.Context, gameID int64) (*models.TradingSession, error)
	FinishSession(ctx context.Context, sessionID int64) error
}

// AssetStore manages the shared asset catalog and per-session prices.
type AssetStore interface {
	Assets(ctx context.Context) ([]models.Asset, error)
	AssetByID(ctx context.Context, id int64) (*models.Asset, error)
	// SeedAssets inserts catalog entries for any titles not present yet.
	SeedAssets(ctx context.Context, titles []string) error
	SetAssetPrice(ctx context.Context, assetID, sessionID, price int64) error
	// AssetPrice returns the fixed price of an asset in a session, or
	// ErrNotFound if the asset was not attached to it.
	AssetPrice(ctx context.Context, assetID, sessionID int64) (int64, error)
	SessionPrices(ctx context.Context, sessionID int64) ([]models.AssetPrice, error)
}

// HoldingStore manages player asset positions.
type HoldingStore interface {
	Holding(ctx context.Context, playerID, assetID int64) (*models.Holding, error)
	PlayerHoldings(ctx context.Context, playerID int64) ([]models.HoldingView, error)
	// AddHolding adjusts a player's quantity of an asset by delta, creating
	// the row when absent and deleting it when the quantity reaches zero.
	AddHolding(ctx context.Context, playerID, assetID int64, delta int) error
}

// StatsStore serves the read-only admin surface.
type StatsStore interface {
	TopWinners(ctx context.Context, limit int) ([]models.WinnerStat, error)
}

// Store aggregates every repository the engine depends on.
type Store interface {
	UserStore
	ChatStore
	GameStore
	PlayerStore
	SessionStore
	AssetStore
	HoldingStore
	StatsStore
}
