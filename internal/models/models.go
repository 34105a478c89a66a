// Package models defines the persisted entities of the trading game.
//
// All monetary values (balances and prices) are stored as integer cents to
// keep arithmetic exact across repeated trades.
package models

import "time"

// Chat state tokens as persisted in the database.
const (
	ChatStateNoGame    = "no_game"
	ChatStateGameGoing = "game"
)

// Game state tokens as persisted in the database.
const (
	GameStateWaitingForConf = "waiting_for_conf"
	GameStateGoing          = "session"
	GameStateFinished       = "finished"
)

// Player state tokens as persisted in the database.
const (
	PlayerStateNotGaming = "not_gaming"
	PlayerStateGaming    = "gaming"
)

// User is a Telegram user known to the bot.
type User struct {
	ID         int64  `db:"id" json:"id"`
	TelegramID int64  `db:"telegram_id" json:"telegram_id"`
	FirstName  string `db:"first_name" json:"first_name"`
	LastName   string `db:"last_name" json:"last_name"`
	Username   string `db:"username" json:"username"`
}

// Chat is one Telegram conversation. A chat hosts at most one active game.
type Chat struct {
	ID         int64  `db:"id" json:"id"`
	TelegramID int64  `db:"telegram_id" json:"telegram_id"`
	State      string `db:"state" json:"state"`
}

// Game is one run of the trading simulation within a chat.
type Game struct {
	ID           int64      `db:"id" json:"id"`
	ChatID       int64      `db:"chat_id" json:"chat_id"`
	State        string     `db:"state" json:"state"`
	StartBalance int64      `db:"start_balance" json:"start_balance"`
	SessionLimit int        `db:"session_limit" json:"session_limit"`
	WinnerID     *int64     `db:"winner_id" json:"winner_id"`
	StartedAt    time.Time  `db:"started_at" json:"started_at"`
	FinishedAt   *time.Time `db:"finished_at" json:"finished_at"`
}

// Player is a user's participation record in one game.
type Player struct {
	ID      int64  `db:"id" json:"id"`
	UserID  int64  `db:"user_id" json:"user_id"`
	GameID  int64  `db:"game_id" json:"game_id"`
	State   string `db:"state" json:"state"`
	Balance int64  `db:"balance" json:"balance"`
}

// GamePlayer joins a player row with its user's display fields for reporting.
type GamePlayer struct {
	Player
	FirstName string `db:"first_name" json:"first_name"`
	Username  string `db:"username" json:"username"`
}

// TradingSession is one timed round of a game during which asset prices are
// fixed and trades occur. Session numbers are 1-based per game.
type TradingSession struct {
	ID         int64      `db:"id" json:"id"`
	GameID     int64      `db:"game_id" json:"game_id"`
	SessionNum int        `db:"session_num" json:"session_num"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at"`
	IsFinished bool       `db:"is_finished" json:"is_finished"`
}

// Asset is a tradeable catalog entry shared across all games.
type Asset struct {
	ID    int64  `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
}

// AssetPrice fixes an asset's price for one trading session.
type AssetPrice struct {
	ID        int64 `db:"id" json:"id"`
	AssetID   int64 `db:"asset_id" json:"asset_id"`
	SessionID int64 `db:"session_id" json:"session_id"`
	Price     int64 `db:"price" json:"price"`
}

// Holding is the quantity of one asset held by one player. Rows are removed
// when the quantity reaches zero.
type Holding struct {
	ID       int64 `db:"id" json:"id"`
	PlayerID int64 `db:"player_id" json:"player_id"`
	AssetID  int64 `db:"asset_id" json:"asset_id"`
	Quantity int   `db:"quantity" json:"quantity"`
}

// HoldingView joins a holding with its asset title for listings.
type HoldingView struct {
	AssetID  int64  `db:"asset_id" json:"asset_id"`
	Title    string `db:"title" json:"title"`
	Quantity int    `db:"quantity" json:"quantity"`
}

// WinnerStat is an aggregate row for the admin statistics surface.
type WinnerStat struct {
	UserID    int64  `db:"user_id" json:"user_id"`
	FirstName string `db:"first_name" json:"first_name"`
	Username  string `db:"username" json:"username"`
	Wins      int    `db:"wins" json:"wins"`
}

// DisplayName returns the best human-readable name for a user.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "player"
}
