package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/exchangebot/internal/models"
	"github.com/m3rciful/exchangebot/internal/storage"
)

func TestUpsertUserUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	s := New()

	u1, err := s.UpsertUser(ctx, 11, "Alice", "", "alice")
	require.NoError(t, err)

	u2, err := s.UpsertUser(ctx, 11, "Alicia", "Smith", "alice")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "Alicia", u2.FirstName)
}

func TestOneActiveGamePerChat(t *testing.T) {
	ctx := context.Background()
	s := New()
	chat, err := s.CreateChat(ctx, 100)
	require.NoError(t, err)

	g, err := s.CreateGame(ctx, chat.ID, 1000_00, 3)
	require.NoError(t, err)

	_, err = s.CreateGame(ctx, chat.ID, 1000_00, 3)
	assert.Error(t, err)

	require.NoError(t, s.FinishGame(ctx, g.ID, nil))
	_, err = s.CreateGame(ctx, chat.ID, 1000_00, 3)
	assert.NoError(t, err)
}

func TestOneOpenSessionPerGame(t *testing.T) {
	ctx := context.Background()
	s := New()
	chat, err := s.CreateChat(ctx, 100)
	require.NoError(t, err)
	g, err := s.CreateGame(ctx, chat.ID, 1000_00, 3)
	require.NoError(t, err)

	sess, err := s.CreateSession(ctx, g.ID, 1)
	require.NoError(t, err)

	_, err = s.CreateSession(ctx, g.ID, 2)
	assert.Error(t, err)

	require.NoError(t, s.FinishSession(ctx, sess.ID))
	_, err = s.CurrentSession(ctx, g.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.CreateSession(ctx, g.ID, 2)
	assert.NoError(t, err)
}

func TestGamesByChat(t *testing.T) {
	ctx := context.Background()
	s := New()

	chatA, err := s.CreateChat(ctx, 100)
	require.NoError(t, err)
	chatB, err := s.CreateChat(ctx, 101)
	require.NoError(t, err)

	g1, err := s.CreateGame(ctx, chatA.ID, 1000_00, 3)
	require.NoError(t, err)
	require.NoError(t, s.FinishGame(ctx, g1.ID, nil))
	g2, err := s.CreateGame(ctx, chatA.ID, 1000_00, 3)
	require.NoError(t, err)
	_, err = s.CreateGame(ctx, chatB.ID, 1000_00, 3)
	require.NoError(t, err)

	games, err := s.GamesByChat(ctx, chatA.ID, 0)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, g2.ID, games[0].ID)
	assert.Equal(t, g1.ID, games[1].ID)

	games, err = s.GamesByChat(ctx, chatA.ID, 1)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, g2.ID, games[0].ID)
}

func TestDuplicatePlayerRejected(t *testing.T) {
	ctx := context.Background()
	s := New()
	chat, err := s.CreateChat(ctx, 100)
	require.NoError(t, err)
	g, err := s.CreateGame(ctx, chat.ID, 1000_00, 3)
	require.NoError(t, err)
	u, err := s.UpsertUser(ctx, 11, "Alice", "", "")
	require.NoError(t, err)

	_, err = s.CreatePlayer(ctx, g.ID, u.ID, models.PlayerStateGaming, 1000_00)
	require.NoError(t, err)
	_, err = s.CreatePlayer(ctx, g.ID, u.ID, models.PlayerStateGaming, 1000_00)
	assert.Error(t, err)
}

func TestAddHoldingLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.AddHolding(ctx, 1, 2, 1))
	require.NoError(t, s.AddHolding(ctx, 1, 2, 2))

	h, err := s.Holding(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, h.Quantity)

	// Draining below zero is rejected; draining to zero removes the row.
	assert.Error(t, s.AddHolding(ctx, 1, 2, -4))
	require.NoError(t, s.AddHolding(ctx, 1, 2, -3))
	_, err = s.Holding(ctx, 1, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// A drained position never shows up in listings either.
	items, err := s.PlayerHoldings(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.Error(t, s.AddHolding(ctx, 1, 2, -1))
}

func TestSeedAssetsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SeedAssets(ctx, []string{"Gold", "Oil"}))
	require.NoError(t, s.SeedAssets(ctx, []string{"Gold", "Wheat"}))

	assets, err := s.Assets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 3)
}

func TestDuplicateSessionPriceRejected(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SetAssetPrice(ctx, 1, 2, 100_00))
	assert.Error(t, s.SetAssetPrice(ctx, 1, 2, 200_00))

	p, err := s.AssetPrice(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(100_00), p)
}

func TestTopWinnersOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()

	alice, err := s.UpsertUser(ctx, 11, "Alice", "", "")
	require.NoError(t, err)
	bob, err := s.UpsertUser(ctx, 12, "Bob", "", "")
	require.NoError(t, err)

	win := func(chatTg int64, winner *int64) {
		chat, err := s.CreateChat(ctx, chatTg)
		require.NoError(t, err)
		g, err := s.CreateGame(ctx, chat.ID, 1000_00, 3)
		require.NoError(t, err)
		require.NoError(t, s.FinishGame(ctx, g.ID, winner))
	}

	win(100, &alice.ID)
	win(101, &alice.ID)
	win(102, &bob.ID)
	win(103, nil) // aborted game, no winner

	stats, err := s.TopWinners(ctx, 10)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, alice.ID, stats[0].UserID)
	assert.Equal(t, 2, stats[0].Wins)
	assert.Equal(t, bob.ID, stats[1].UserID)
	assert.Equal(t, 1, stats[1].Wins)
}
