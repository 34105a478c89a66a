package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/exchangebot/internal/models"
)

func routeRecorder(name string, got *string) HandlerFunc {
	return func(context.Context, *RouteContext) error {
		*got = name
		return nil
	}
}

func TestRouterFirstMatchWins(t *testing.T) {
	var got string
	r := NewRouter([]Rule{
		{Name: "exact", Callback: "confirm", Handle: routeRecorder("exact", &got)},
		{Name: "prefix", CallbackPrefix: "conf", Handle: routeRecorder("prefix", &got)},
	}, routeRecorder("fallback", &got))

	rc := &RouteContext{
		Event: Event{Callback: "confirm"},
		Chat:  &models.Chat{State: models.ChatStateGameGoing},
	}
	assert.NoError(t, r.Dispatch(context.Background(), rc))
	assert.Equal(t, "exact", got)
}

func TestRouterStatePredicates(t *testing.T) {
	var got string
	rules := []Rule{
		{
			Name:      "start_idle",
			ChatState: ChatWaitingForGame,
			Text:      "/start_game",
			Handle:    routeRecorder("start_idle", &got),
		},
		{
			Name:      "start_busy",
			ChatState: ChatGameIsGoing,
			Text:      "/start_game",
			Handle:    routeRecorder("start_busy", &got),
		},
	}
	r := NewRouter(rules, routeRecorder("fallback", &got))

	tests := []struct {
		name      string
		chatState string
		want      string
	}{
		{"idle chat", models.ChatStateNoGame, "start_idle"},
		{"busy chat", models.ChatStateGameGoing, "start_busy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = ""
			rc := &RouteContext{
				Event: Event{Text: "/start_game"},
				Chat:  &models.Chat{State: tt.chatState},
			}
			assert.NoError(t, r.Dispatch(context.Background(), rc))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouterPlayerStateRequiresResolvedPlayer(t *testing.T) {
	var got string
	r := NewRouter([]Rule{
		{
			Name:           "trade",
			GameState:      GameGoing,
			PlayerState:    PlayerGaming,
			CallbackPrefix: "buy_asset:",
			Handle:         routeRecorder("trade", &got),
		},
	}, routeRecorder("fallback", &got))

	chat := &models.Chat{State: models.ChatStateGameGoing}
	game := &models.Game{State: models.GameStateGoing}
	ev := Event{Callback: "buy_asset:1-2"}

	t.Run("no player record", func(t *testing.T) {
		got = ""
		rc := &RouteContext{Event: ev, Chat: chat, Game: game}
		assert.NoError(t, r.Dispatch(context.Background(), rc))
		assert.Equal(t, "fallback", got)
	})

	t.Run("player not gaming", func(t *testing.T) {
		got = ""
		rc := &RouteContext{
			Event:  ev,
			Chat:   chat,
			Game:   game,
			Player: &models.Player{State: models.PlayerStateNotGaming},
		}
		assert.NoError(t, r.Dispatch(context.Background(), rc))
		assert.Equal(t, "fallback", got)
	})

	t.Run("player gaming", func(t *testing.T) {
		got = ""
		rc := &RouteContext{
			Event:  ev,
			Chat:   chat,
			Game:   game,
			Player: &models.Player{State: models.PlayerStateGaming},
		}
		assert.NoError(t, r.Dispatch(context.Background(), rc))
		assert.Equal(t, "trade", got)
	})
}

func TestRouterGameStateNeedsGame(t *testing.T) {
	var got string
	r := NewRouter([]Rule{
		{
			Name:      "confirm",
			GameState: GameWaitingForConfirmation,
			Callback:  "confirm",
			Handle:    routeRecorder("confirm", &got),
		},
	}, routeRecorder("fallback", &got))

	rc := &RouteContext{
		Event: Event{Callback: "confirm"},
		Chat:  &models.Chat{State: models.ChatStateGameGoing},
	}
	assert.NoError(t, r.Dispatch(context.Background(), rc))
	assert.Equal(t, "fallback", got)
}

func TestRouterTextRulesIgnoreCallbacks(t *testing.T) {
	var got string
	r := NewRouter([]Rule{
		{Name: "cmd", Text: "/start_game", Handle: routeRecorder("cmd", &got)},
	}, routeRecorder("fallback", &got))

	rc := &RouteContext{
		Event: Event{Text: "/start_game", Callback: "confirm"},
		Chat:  &models.Chat{State: models.ChatStateNoGame},
	}
	assert.NoError(t, r.Dispatch(context.Background(), rc))
	assert.Equal(t, "fallback", got)
}
