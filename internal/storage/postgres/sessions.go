package postgres

import (
	"context"
	"fmt"

	"github.com/m3rciful/exchangebot/internal/models"
)

const sessionColumns = `id, game_id, session_num, started_at, finished_at, is_finished`

func (s *Store) CreateSession(ctx context.Context, gameID int64, sessionNum int) (*models.TradingSession, error) {
	var ts models.TradingSession
	err := s.db.GetContext(ctx, &ts, `
INSERT INTO trading_sessions (game_id, session_num)
VALUES ($1, $2)
RETURNING `+sessionColumns+`
`, gameID, sessionNum)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &ts, nil
}

func (s *Store) CurrentSession(ctx context.Context, gameID int64) (*models.TradingSession, error) {
	var ts models.TradingSession
	err := s.db.GetContext(ctx, &ts, `
SELECT `+sessionColumns+`
FROM trading_sessions
WHERE game_id = $1 AND finished_at IS NULL
ORDER BY session_num DESC
LIMIT 1
`, gameID)
	if err != nil {
		return nil, notFound(err)
	}
	return &ts, nil
}

func (s *Store) FinishSession(ctx context.Context, sessionID int64) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE trading_sessions SET is_finished = TRUE, finished_at = now() WHERE id = $1
`, sessionID)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return requireRow(res)
}
