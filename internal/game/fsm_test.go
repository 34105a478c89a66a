package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/exchangebot/internal/models"
	"github.com/m3rciful/exchangebot/internal/storage/memory"
)

func TestChatFSM(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	chat, err := store.CreateChat(ctx, 100)
	require.NoError(t, err)

	fsm := NewChatFSM(store)

	require.NoError(t, fsm.SetState(ctx, chat, ChatGameIsGoing))
	assert.Equal(t, string(ChatGameIsGoing), chat.State)

	persisted, err := store.ChatByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, string(ChatGameIsGoing), persisted.State)

	// Same state again is a no-op.
	require.NoError(t, fsm.SetState(ctx, chat, ChatGameIsGoing))

	require.NoError(t, fsm.SetState(ctx, chat, ChatWaitingForGame))
	assert.Equal(t, string(ChatWaitingForGame), chat.State)
}

func TestGameFSMTransitions(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	chat, err := store.CreateChat(ctx, 100)
	require.NoError(t, err)

	fsm := NewGameFSM(store)

	t.Run("confirmation to going to finished", func(t *testing.T) {
		g, err := store.CreateGame(ctx, chat.ID, 1000_00, 3)
		require.NoError(t, err)

		require.NoError(t, fsm.SetState(ctx, g, GameGoing))
		require.NoError(t, fsm.SetState(ctx, g, GameFinished))
		assert.Equal(t, string(GameFinished), g.State)
	})

	t.Run("confirmation straight to finished", func(t *testing.T) {
		g, err := store.CreateGame(ctx, chat.ID, 1000_00, 3)
		require.NoError(t, err)
		require.NoError(t, fsm.SetState(ctx, g, GameFinished))
	})

	t.Run("finished is terminal", func(t *testing.T) {
		g := &models.Game{ID: 999, State: models.GameStateFinished}
		err := fsm.SetState(ctx, g, GameGoing)
		assert.Error(t, err)
		assert.Equal(t, string(GameFinished), g.State)
	})

	t.Run("going cannot revert to confirmation", func(t *testing.T) {
		g := &models.Game{ID: 999, State: models.GameStateGoing}
		assert.Error(t, fsm.SetState(ctx, g, GameWaitingForConfirmation))
	})
}

func TestPlayerFSM(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	chat, err := store.CreateChat(ctx, 100)
	require.NoError(t, err)
	g, err := store.CreateGame(ctx, chat.ID, 1000_00, 3)
	require.NoError(t, err)
	u, err := store.UpsertUser(ctx, 11, "Alice", "", "alice")
	require.NoError(t, err)
	p, err := store.CreatePlayer(ctx, g.ID, u.ID, models.PlayerStateNotGaming, 1000_00)
	require.NoError(t, err)

	fsm := NewPlayerFSM(store)

	require.NoError(t, fsm.SetState(ctx, p, PlayerGaming))
	assert.Equal(t, string(PlayerGaming), p.State)

	require.NoError(t, fsm.SetState(ctx, p, PlayerNotGaming))

	persisted, err := store.PlayerByGameAndUser(ctx, g.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, string(PlayerNotGaming), persisted.State)
}

func TestFSMFailedPersistLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	fsm := NewChatFSM(store)

	// Chat id 42 does not exist in the store.
	chat := &models.Chat{ID: 42, State: models.ChatStateNoGame}
	err := fsm.SetState(ctx, chat, ChatGameIsGoing)
	assert.Error(t, err)
	assert.Equal(t, models.ChatStateNoGame, chat.State)
}
