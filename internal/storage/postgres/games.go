package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/m3rciful/exchangebot/internal/models"
	"github.com/m3rciful/exchangebot/internal/storage"
)

// requireRow maps a zero-rows-affected update to ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const gameColumns = `id, chat_id, state, start_balance, session_limit, winner_id, started_at, finished_at`

func (s *Store) CreateGame(ctx context.Context, chatID, startBalance int64, sessionLimit int) (*models.Game, error) {
	var g models.Game
	err := s.db.GetContext(ctx, &g, `
INSERT INTO games (chat_id, state, start_balance, session_limit)
VALUES ($1, $2, $3, $4)
RETURNING `+gameColumns+`
`, chatID, models.GameStateWaitingForConf, startBalance, sessionLimit)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return &g, nil
}

func (s *Store) ActiveGameByChat(ctx context.Context, chatID int64) (*models.Game, error) {
	var g models.Game
	err := s.db.GetContext(ctx, &g, `
SELECT `+gameColumns+`
FROM games
WHERE chat_id = $1 AND state <> $2 AND finished_at IS NULL
ORDER BY started_at DESC
LIMIT 1
`, chatID, models.GameStateFinished)
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (s *Store) GameByID(ctx context.Context, gameID int64) (*models.Game, error) {
	var g models.Game
	err := s.db.GetContext(ctx, &g, `SELECT `+gameColumns+` FROM games WHERE id = $1`, gameID)
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (s *Store) SetGameState(ctx context.Context, gameID int64, state string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE games SET state = $2 WHERE id = $1`, gameID, state)
	if err != nil {
		return fmt.Errorf("set game state: %w", err)
	}
	return requireRow(res)
}

func (s *Store) FinishGame(ctx context.Context, gameID int64, winnerID *int64) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE games SET state = $2, finished_at = now(), winner_id = $3 WHERE id = $1
`, gameID, models.GameStateFinished, winnerID)
	if err != nil {
		return fmt.Errorf("finish game: %w", err)
	}
	return requireRow(res)
}

func (s *Store) Games(ctx context.Context, state string, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = 50
	}
	var games []models.Game
	var err error
	if state == "" {
		err = s.db.SelectContext(ctx, &games, `
SELECT `+gameColumns+` FROM games ORDER BY id DESC LIMIT $1
`, limit)
	} else {
		err = s.db.SelectContext(ctx, &games, `
SELECT `+gameColumns+` FROM games WHERE state = $1 ORDER BY id DESC LIMIT $2
`, state, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

func (s *Store) GamesByChat(ctx context.Context, chatID int64, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = 50
	}
	var games []models.Game
	err := s.db.SelectContext(ctx, &games, `
SELECT `+gameColumns+` FROM games WHERE chat_id = $1 ORDER BY id DESC LIMIT $2
`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat games: %w", err)
	}
	return games, nil
}

func (s *Store) CreatePlayer(ctx context.Context, gameID, userID int64, state string, balance int64) (*models.Player, error) {
	var p models.Player
	err := s.db.GetContext(ctx, &p, `
INSERT INTO players (game_id, user_id, state, balance)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, game_id, state, balance
`, gameID, userID, state, balance)
	if err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	return &p, nil
}

func (s *Store) PlayerByGameAndUser(ctx context.Context, gameID, userID int64) (*models.Player, error) {
	var p models.Player
	err := s.db.GetContext(ctx, &p, `
SELECT id, user_id, game_id, state, balance
FROM players WHERE game_id = $1 AND user_id = $2
`, gameID, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) SetPlayerState(ctx context.Context, playerID int64, state string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE players SET state = $2 WHERE id = $1`, playerID, state)
	if err != nil {
		return fmt.Errorf("set player state: %w", err)
	}
	return requireRow(res)
}

func (s *Store) ResetPlayerStates(ctx context.Context, gameID int64, state string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE players SET state = $2 WHERE game_id = $1`, gameID, state)
	if err != nil {
		return fmt.Errorf("reset player states: %w", err)
	}
	return nil
}

func (s *Store) GamePlayers(ctx context.Context, gameID int64) ([]models.GamePlayer, error) {
	var players []models.GamePlayer
	err := s.db.SelectContext(ctx, &players, `
SELECT p.id, p.user_id, p.game_id, p.state, p.balance, u.first_name, u.username
FROM players p
JOIN users u ON u.id = p.user_id
WHERE p.game_id = $1
ORDER BY p.id
`, gameID)
	if err != nil {
		return nil, fmt.Errorf("game players: %w", err)
	}
	return players, nil
}

func (s *Store) AdjustPlayerBalance(ctx context.Context, playerID, delta int64) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE players SET balance = balance + $2 WHERE id = $1
`, playerID, delta)
	if err != nil {
		return fmt.Errorf("adjust player balance: %w", err)
	}
	return requireRow(res)
}
