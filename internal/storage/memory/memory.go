// Package memory provides an in-memory storage.Store used by tests and as
// the reference for per-call atomicity semantics: every method takes the
// store mutex for its whole duration.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/exchangebot/internal/models"
	"github.com/m3rciful/exchangebot/internal/storage"
)

// Store keeps all entities in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	nextID int64

	users    map[int64]*models.User
	chats    map[int64]*models.Chat
	games    map[int64]*models.Game
	players  map[int64]*models.Player
	sessions map[int64]*models.TradingSession
	assets   map[int64]*models.Asset
	prices   map[int64]*models.AssetPrice
	holdings map[int64]*models.Holding
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:    make(map[int64]*models.User),
		chats:    make(map[int64]*models.Chat),
		games:    make(map[int64]*models.Game),
		players:  make(map[int64]*models.Player),
		sessions: make(map[int64]*models.TradingSession),
		assets:   make(map[int64]*models.Asset),
		prices:   make(map[int64]*models.AssetPrice),
		holdings: make(map[int64]*models.Holding),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) UpsertUser(_ context.Context, tgID int64, firstName, lastName, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TelegramID == tgID {
			u.FirstName = firstName
			u.LastName = lastName
			u.Username = username
			cp := *u
			return &cp, nil
		}
	}
	u := &models.User{
		ID:         s.id(),
		TelegramID: tgID,
		FirstName:  firstName,
		LastName:   lastName,
		Username:   username,
	}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *Store) UserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) ChatByTelegramID(_ context.Context, tgID int64) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.TelegramID == tgID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) CreateChat(_ context.Context, tgID int64) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &models.Chat{ID: s.id(), TelegramID: tgID, State: models.ChatStateNoGame}
	s.chats[c.ID] = c
	cp := *c
	return &cp, nil
}

func (s *Store) SetChatState(_ context.Context, chatID int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		return storage.ErrNotFound
	}
	c.State = state
	return nil
}

func (s *Store) CreateGame(_ context.Context, chatID, startBalance int64, sessionLimit int) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.ChatID == chatID && g.State != models.GameStateFinished {
			return nil, fmt.Errorf("memory: chat %d already has an active game", chatID)
		}
	}
	g := &models.Game{
		ID:           s.id(),
		ChatID:       chatID,
		State:        models.GameStateWaitingForConf,
		StartBalance: startBalance,
		SessionLimit: sessionLimit,
		StartedAt:    time.Now(),
	}
	s.games[g.ID] = g
	cp := *g
	return &cp, nil
}

func (s *Store) ActiveGameByChat(_ context.Context, chatID int64) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Game
	for _, g := range s.games {
		if g.ChatID != chatID || g.State == models.GameStateFinished {
			continue
		}
		if latest == nil || g.StartedAt.After(latest.StartedAt) || g.ID > latest.ID {
			latest = g
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *Store) GameByID(_ context.Context, gameID int64) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *Store) SetGameState(_ context.Context, gameID int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return storage.ErrNotFound
	}
	g.State = state
	return nil
}

func (s *Store) FinishGame(_ context.Context, gameID int64, winnerID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return storage.ErrNotFound
	}
	now := time.Now()
	g.State = models.GameStateFinished
	g.FinishedAt = &now
	g.WinnerID = winnerID
	return nil
}

func (s *Store) Games(_ context.Context, state string, limit int) ([]models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Game
	for _, g := range s.games {
		if state != "" && g.State != state {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GamesByChat(_ context.Context, chatID int64, limit int) ([]models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Game
	for _, g := range s.games {
		if g.ChatID == chatID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreatePlayer(_ context.Context, gameID, userID int64, state string, balance int64) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.GameID == gameID && p.UserID == userID {
			return nil, fmt.Errorf("memory: player exists for user %d in game %d", userID, gameID)
		}
	}
	p := &models.Player{ID: s.id(), UserID: userID, GameID: gameID, State: state, Balance: balance}
	s.players[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *Store) PlayerByGameAndUser(_ context.Context, gameID, userID int64) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.GameID == gameID && p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) SetPlayerState(_ context.Context, playerID int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return storage.ErrNotFound
	}
	p.State = state
	return nil
}

func (s *Store) ResetPlayerStates(_ context.Context, gameID int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.GameID == gameID {
			p.State = state
		}
	}
	return nil
}

func (s *Store) GamePlayers(_ context.Context, gameID int64) ([]models.GamePlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GamePlayer
	for _, p := range s.players {
		if p.GameID != gameID {
			continue
		}
		gp := models.GamePlayer{Player: *p}
		if u, ok := s.users[p.UserID]; ok {
			gp.FirstName = u.FirstName
			gp.Username = u.Username
		}
		out = append(out, gp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AdjustPlayerBalance(_ context.Context, playerID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return storage.ErrNotFound
	}
	p.Balance += delta
	return nil
}

func (s *Store) CreateSession(_ context.Context, gameID int64, sessionNum int) (*models.TradingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ts := range s.sessions {
		if ts.GameID == gameID && !ts.IsFinished {
			return nil, fmt.Errorf("memory: game %d already has an open session", gameID)
		}
	}
	ts := &models.TradingSession{ID: s.id(), GameID: gameID, SessionNum: sessionNum, StartedAt: time.Now()}
	s.sessions[ts.ID] = ts
	cp := *ts
	return &cp, nil
}

func (s *Store) CurrentSession(_ context.Context, gameID int64) (*models.TradingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ts := range s.sessions {
		if ts.GameID == gameID && !ts.IsFinished {
			cp := *ts
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) FinishSession(_ context.Context, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.sessions[sessionID]
	if !ok {
		return storage.ErrNotFound
	}
	now := time.Now()
	ts.IsFinished = true
	ts.FinishedAt = &now
	return nil
}

func (s *Store) Assets(_ context.Context) ([]models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Asset
	for _, a := range s.assets {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AssetByID(_ context.Context, id int64) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) SeedAssets(_ context.Context, titles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	have := make(map[string]bool, len(s.assets))
	for _, a := range s.assets {
		have[a.Title] = true
	}
	for _, t := range titles {
		if have[t] {
			continue
		}
		a := &models.Asset{ID: s.id(), Title: t}
		s.assets[a.ID] = a
	}
	return nil
}

func (s *Store) SetAssetPrice(_ context.Context, assetID, sessionID, price int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ap := range s.prices {
		if ap.AssetID == assetID && ap.SessionID == sessionID {
			return fmt.Errorf("memory: price exists for asset %d in session %d", assetID, sessionID)
		}
	}
	ap := &models.AssetPrice{ID: s.id(), AssetID: assetID, SessionID: sessionID, Price: price}
	s.prices[ap.ID] = ap
	return nil
}

func (s *Store) AssetPrice(_ context.Context, assetID, sessionID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ap := range s.prices {
		if ap.AssetID == assetID && ap.SessionID == sessionID {
			return ap.Price, nil
		}
	}
	return 0, storage.ErrNotFound
}

func (s *Store) SessionPrices(_ context.Context, sessionID int64) ([]models.AssetPrice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AssetPrice
	for _, ap := range s.prices {
		if ap.SessionID == sessionID {
			out = append(out, *ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out, nil
}

func (s *Store) Holding(_ context.Context, playerID, assetID int64) (*models.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.holdings {
		if h.PlayerID == playerID && h.AssetID == assetID {
			cp := *h
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) PlayerHoldings(_ context.Context, playerID int64) ([]models.HoldingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.HoldingView
	for _, h := range s.holdings {
		if h.PlayerID != playerID {
			continue
		}
		v := models.HoldingView{AssetID: h.AssetID, Quantity: h.Quantity}
		if a, ok := s.assets[h.AssetID]; ok {
			v.Title = a.Title
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out, nil
}

func (s *Store) AddHolding(_ context.Context, playerID, assetID int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, h := range s.holdings {
		if h.PlayerID == playerID && h.AssetID == assetID {
			next := h.Quantity + delta
			if next < 0 {
				return fmt.Errorf("memory: holding quantity below zero for player %d asset %d", playerID, assetID)
			}
			if next == 0 {
				delete(s.holdings, id)
				return nil
			}
			h.Quantity = next
			return nil
		}
	}
	if delta < 0 {
		return fmt.Errorf("memory: holding quantity below zero for player %d asset %d", playerID, assetID)
	}
	if delta == 0 {
		return nil
	}
	h := &models.Holding{ID: s.id(), PlayerID: playerID, AssetID: assetID, Quantity: delta}
	s.holdings[h.ID] = h
	return nil
}

func (s *Store) TopWinners(_ context.Context, limit int) ([]models.WinnerStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wins := make(map[int64]int)
	for _, g := range s.games {
		if g.State == models.GameStateFinished && g.WinnerID != nil {
			wins[*g.WinnerID]++
		}
	}
	var out []models.WinnerStat
	for userID, n := range wins {
		st := models.WinnerStat{UserID: userID, Wins: n}
		if u, ok := s.users[userID]; ok {
			st.FirstName = u.FirstName
			st.Username = u.Username
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ storage.Store = (*Store)(nil)
