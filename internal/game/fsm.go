package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/exchangebot/core/logger"
	"github.com/m3rciful/exchangebot/internal/models"
	"github.com/m3rciful/exchangebot/internal/storage"
)

// ChatState tracks whether a chat currently hosts a game.
type ChatState string

// GameState tracks a game's lifecycle.
type GameState string

// PlayerState tracks whether a player actively participates in a game.
type PlayerState string

// State tokens. The string values are persisted verbatim; external reporting
// depends on them, so they must not change.
const (
	ChatWaitingForGame ChatState = models.ChatStateNoGame
	ChatGameIsGoing    ChatState = models.ChatStateGameGoing

	GameWaitingForConfirmation GameState = models.GameStateWaitingForConf
	GameGoing                  GameState = models.GameStateGoing
	GameFinished               GameState = models.GameStateFinished

	PlayerNotGaming PlayerState = models.PlayerStateNotGaming
	PlayerGaming    PlayerState = models.PlayerStateGaming
)

var chatTransitions = map[ChatState][]ChatState{
	ChatWaitingForGame: {ChatGameIsGoing},
	ChatGameIsGoing:    {ChatWaitingForGame},
}

var gameTransitions = map[GameState][]GameState{
	GameWaitingForConfirmation: {GameGoing, GameFinished},
	GameGoing:                  {GameFinished},
	GameFinished:               {},
}

var playerTransitions = map[PlayerState][]PlayerState{
	PlayerNotGaming: {PlayerGaming},
	PlayerGaming:    {PlayerNotGaming},
}

func allowed[S comparable](table map[S][]S, from, to S) bool {
	if from == to {
		return true
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ChatFSM persists chat state transitions. Setting the current state again
// is a no-op, not an error.
type ChatFSM struct {
	store storage.ChatStore
}

// NewChatFSM wires the chat FSM to its storage port.
func NewChatFSM(store storage.ChatStore) *ChatFSM {
	return &ChatFSM{store: store}
}

func (f *ChatFSM) SetState(ctx context.Context, chat *models.Chat, next ChatState) error {
	cur := ChatState(chat.State)
	if !allowed(chatTransitions, cur, next) {
		return fmt.Errorf("chat fsm: invalid transition %s -> %s", cur, next)
	}
	if cur == next {
		return nil
	}
	if err := f.store.SetChatState(ctx, chat.ID, string(next)); err != nil {
		return fmt.Errorf("chat fsm: set state: %w", err)
	}
	logger.GAME.Debug("chat state changed",
		slog.Int64("chat_id", chat.ID),
		slog.String("from", string(cur)),
		slog.String("to", string(next)),
	)
	chat.State = string(next)
	return nil
}

// GameFSM persists game state transitions. GameFinished is terminal.
type GameFSM struct {
	store storage.GameStore
}

// NewGameFSM wires the game FSM to its storage port.
func NewGameFSM(store storage.GameStore) *GameFSM {
	return &GameFSM{store: store}
}

func (f *GameFSM) SetState(ctx context.Context, g *models.Game, next GameState) error {
	cur := GameState(g.State)
	if !allowed(gameTransitions, cur, next) {
		return fmt.Errorf("game fsm: invalid transition %s -> %s", cur, next)
	}
	if cur == next {
		return nil
	}
	if err := f.store.SetGameState(ctx, g.ID, string(next)); err != nil {
		return fmt.Errorf("game fsm: set state: %w", err)
	}
	logger.GAME.Debug("game state changed",
		slog.Int64("game_id", g.ID),
		slog.String("from", string(cur)),
		slog.String("to", string(next)),
	)
	g.State = string(next)
	return nil
}

// PlayerFSM persists player state transitions. Players are never deleted;
// elimination and cancellation only flip the state so re-confirmation keeps
// history.
type PlayerFSM struct {
	store storage.PlayerStore
}

// NewPlayerFSM wires the player FSM to its storage port.
func NewPlayerFSM(store storage.PlayerStore) *PlayerFSM {
	return &PlayerFSM{store: store}
}

func (f *PlayerFSM) SetState(ctx context.Context, p *models.Player, next PlayerState) error {
	cur := PlayerState(p.State)
	if !allowed(playerTransitions, cur, next) {
		return fmt.Errorf("player fsm: invalid transition %s -> %s", cur, next)
	}
	if cur == next {
		return nil
	}
	if err := f.store.SetPlayerState(ctx, p.ID, string(next)); err != nil {
		return fmt.Errorf("player fsm: set state: %w", err)
	}
	logger.GAME.Debug("player state changed",
		slog.Int64("player_id", p.ID),
		slog.String("from", string(cur)),
		slog.String("to", string(next)),
	)
	p.State = string(next)
	return nil
}
