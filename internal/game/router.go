package game

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/exchangebot/core/logger"
	"github.com/m3rciful/exchangebot/internal/models"
)

// RouteContext carries the resolved entities an event was matched against.
// Game and Player are nil when no active game or no participation record
// resolves for the event.
type RouteContext struct {
	Event  Event
	User   *models.User
	Chat   *models.Chat
	Game   *models.Game
	Player *models.Player
}

// HandlerFunc processes one matched event.
type HandlerFunc func(ctx context.Context, rc *RouteContext) error

// Rule declares when a handler applies. Zero-valued state fields match any
// state. A non-empty PlayerState additionally requires that a player record
// resolved for the sender; rules with a player requirement are skipped
// entirely when none did.
//
// Exactly one of Text, Callback, and CallbackPrefix must be set.
type Rule struct {
	Name string

	ChatState   ChatState
	GameState   GameState
	PlayerState PlayerState

	Text           string
	Callback       string
	CallbackPrefix string

	Handle HandlerFunc
}

func (r *Rule) matches(rc *RouteContext) bool {
	if r.ChatState != "" && ChatState(rc.Chat.State) != r.ChatState {
		return false
	}
	if r.GameState != "" {
		if rc.Game == nil || GameState(rc.Game.State) != r.GameState {
			return false
		}
	}
	if r.PlayerState != "" {
		if rc.Player == nil || PlayerState(rc.Player.State) != r.PlayerState {
			return false
		}
	}
	switch {
	case r.Text != "":
		return !rc.Event.IsCallback() && rc.Event.Text == r.Text
	case r.Callback != "":
		return rc.Event.Callback == r.Callback
	case r.CallbackPrefix != "":
		return strings.HasPrefix(rc.Event.Callback, r.CallbackPrefix)
	}
	return false
}

// Router matches an inbound event against an ordered rule list. The first
// rule whose state predicates and payload predicate all hold wins; exactly
// one handler runs per event. Declaration order is the contract: exact
// payloads must be listed before overlapping prefixes.
type Router struct {
	rules    []Rule
	fallback HandlerFunc
}

// NewRouter builds a router from rules in declaration order. fallback runs
// when no rule matches; it must always produce user feedback and never fail.
func NewRouter(rules []Rule, fallback HandlerFunc) *Router {
	return &Router{rules: rules, fallback: fallback}
}

// Dispatch selects and runs the single matching handler.
func (r *Router) Dispatch(ctx context.Context, rc *RouteContext) error {
	for i := range r.rules {
		rule := &r.rules[i]
		if !rule.matches(rc) {
			continue
		}
		logger.GAME.Debug("rule matched",
			slog.String("rule", rule.Name),
			slog.Int64("chat_id", rc.Chat.ID),
		)
		return rule.Handle(ctx, rc)
	}
	logger.GAME.Debug("no rule matched",
		slog.Int64("chat_id", rc.Chat.ID),
		slog.String("text", rc.Event.Text),
		slog.String("callback", rc.Event.Callback),
	)
	return r.fallback(ctx, rc)
}
