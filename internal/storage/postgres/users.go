package postgres

import (
	"context"
	"fmt"

	"github.com/m3rciful/exchangebot/internal/models"
)

func (s *Store) UpsertUser(ctx context.Context, tgID int64, firstName, lastName, username string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `
INSERT INTO users (telegram_id, first_name, last_name, username)
VALUES ($1, $2, $3, $4)
ON CONFLICT (telegram_id) DO UPDATE
SET first_name = EXCLUDED.first_name,
    last_name  = EXCLUDED.last_name,
    username   = EXCLUDED.username
RETURNING id, telegram_id, first_name, last_name, username
`, tgID, firstName, lastName, username)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `
SELECT id, telegram_id, first_name, last_name, username
FROM users WHERE id = $1
`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) ChatByTelegramID(ctx context.Context, tgID int64) (*models.Chat, error) {
	var c models.Chat
	err := s.db.GetContext(ctx, &c, `
SELECT id, telegram_id, state FROM chats WHERE telegram_id = $1
`, tgID)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Store) CreateChat(ctx context.Context, tgID int64) (*models.Chat, error) {
	var c models.Chat
	err := s.db.GetContext(ctx, &c, `
INSERT INTO chats (telegram_id, state)
VALUES ($1, $2)
ON CONFLICT (telegram_id) DO UPDATE SET telegram_id = EXCLUDED.telegram_id
RETURNING id, telegram_id, state
`, tgID, models.ChatStateNoGame)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return &c, nil
}

func (s *Store) SetChatState(ctx context.Context, chatID int64, state string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE chats SET state = $2 WHERE id = $1`, chatID, state)
	if err != nil {
		return fmt.Errorf("set chat state: %w", err)
	}
	return requireRow(res)
}
