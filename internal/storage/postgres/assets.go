package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/m3rciful/exchangebot/internal/models"
)

func (s *Store) Assets(ctx context.Context) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.db.SelectContext(ctx, &assets, `SELECT id, title FROM assets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

func (s *Store) AssetByID(ctx context.Context, id int64) (*models.Asset, error) {
	var a models.Asset
	err := s.db.GetContext(ctx, &a, `SELECT id, title FROM assets WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Store) SeedAssets(ctx context.Context, titles []string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO assets (title)
SELECT t FROM unnest($1::text[]) AS t
ON CONFLICT (title) DO NOTHING
`, pq.Array(titles))
	if err != nil {
		return fmt.Errorf("seed assets: %w", err)
	}
	return nil
}

func (s *Store) SetAssetPrice(ctx context.Context, assetID, sessionID, price int64) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO asset_prices (asset_id, session_id, price)
VALUES ($1, $2, $3)
`, assetID, sessionID, price)
	if err != nil {
		return fmt.Errorf("set asset price: %w", err)
	}
	return nil
}

func (s *Store) AssetPrice(ctx context.Context, assetID, sessionID int64) (int64, error) {
	var price int64
	err := s.db.GetContext(ctx, &price, `
SELECT price FROM asset_prices WHERE asset_id = $1 AND session_id = $2
`, assetID, sessionID)
	if err != nil {
		return 0, notFound(err)
	}
	return price, nil
}

func (s *Store) SessionPrices(ctx context.Context, sessionID int64) ([]models.AssetPrice, error) {
	var prices []models.AssetPrice
	err := s.db.SelectContext(ctx, &prices, `
SELECT id, asset_id, session_id, price
FROM asset_prices
WHERE session_id = $1
ORDER BY asset_id
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session prices: %w", err)
	}
	return prices, nil
}

func (s *Store) Holding(ctx context.Context, playerID, assetID int64) (*models.Holding, error) {
	var h models.Holding
	err := s.db.GetContext(ctx, &h, `
SELECT id, player_id, asset_id, quantity
FROM holdings WHERE player_id = $1 AND asset_id = $2
`, playerID, assetID)
	if err != nil {
		return nil, notFound(err)
	}
	return &h, nil
}

func (s *Store) PlayerHoldings(ctx context.Context, playerID int64) ([]models.HoldingView, error) {
	var items []models.HoldingView
	err := s.db.SelectContext(ctx, &items, `
SELECT h.asset_id, a.title, h.quantity
FROM holdings h
JOIN assets a ON a.id = h.asset_id
WHERE h.player_id = $1
ORDER BY h.asset_id
`, playerID)
	if err != nil {
		return nil, fmt.Errorf("player holdings: %w", err)
	}
	return items, nil
}

func (s *Store) AddHolding(ctx context.Context, playerID, assetID int64, delta int) error {
	// One statement: the upsert and the zero-row sweep commit together.
	// The quantity CHECK rejects drains below zero.
	_, err := s.db.ExecContext(ctx, `
WITH upsert AS (
    INSERT INTO holdings (player_id, asset_id, quantity)
    VALUES ($1, $2, $3)
    ON CONFLICT (player_id, asset_id) DO UPDATE
    SET quantity = holdings.quantity + EXCLUDED.quantity
    RETURNING id, quantity
)
DELETE FROM holdings
USING upsert
WHERE holdings.id = upsert.id AND upsert.quantity <= 0
`, playerID, assetID, delta)
	if err != nil {
		return fmt.Errorf("add holding: %w", err)
	}
	return nil
}

func (s *Store) TopWinners(ctx context.Context, limit int) ([]models.WinnerStat, error) {
	if limit <= 0 {
		limit = 10
	}
	var stats []models.WinnerStat
	err := s.db.SelectContext(ctx, &stats, `
SELECT u.id AS user_id, u.first_name, u.username, COUNT(*) AS wins
FROM games g
JOIN users u ON u.id = g.winner_id
WHERE g.state = $1 AND g.winner_id IS NOT NULL
GROUP BY u.id, u.first_name, u.username
ORDER BY wins DESC, u.id
LIMIT $2
`, models.GameStateFinished, limit)
	if err != nil {
		return nil, fmt.Errorf("top winners: %w", err)
	}
	return stats, nil
}
