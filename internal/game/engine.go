package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/m3rciful/exchangebot/core/logger"
	"github.com/m3rciful/exchangebot/internal/models"
	"github.com/m3rciful/exchangebot/internal/storage"
)

// Config holds the tunable game parameters. Money values are integer cents.
type Config struct {
	StartBalance    int64
	SessionLimit    int
	ConfirmWindow   time.Duration
	SessionDuration time.Duration
	MinPrice        int64
	MaxPrice        int64
}

// Engine coordinates the three FSMs, the timer service, and the trading
// bookkeeping. All mutations for one chat's game run under that chat's lock,
// for inbound events and timer firings alike.
type Engine struct {
	store  storage.Store
	msg    Messenger
	timers *TimerService
	cfg    Config

	chatFSM   *ChatFSM
	gameFSM   *GameFSM
	playerFSM *PlayerFSM

	locks  *chatLocks
	router *Router

	// price draws one session price in [min, max]; replaced in tests.
	price func(min, max int64) int64
}

// NewEngine wires the engine to its ports and builds the routing table.
func NewEngine(store storage.Store, msg Messenger, timers *TimerService, cfg Config) *Engine {
	e := &Engine{
		store:     store,
		msg:       msg,
		timers:    timers,
		cfg:       cfg,
		chatFSM:   NewChatFSM(store),
		gameFSM:   NewGameFSM(store),
		playerFSM: NewPlayerFSM(store),
		locks:     newChatLocks(),
		price:     uniformPrice,
	}
	e.router = NewRouter(e.rules(), e.handleUnknown)
	return e
}

func uniformPrice(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + rand.Int63n(max-min+1)
}

// rules returns the ordered routing table. Order matters: exact callback
// payloads come before prefix matchers, and command rules are filtered by
// chat state so /start_game resolves differently with a game in progress.
func (e *Engine) rules() []Rule {
	return []Rule{
		{
			Name:      "start_game",
			ChatState: ChatWaitingForGame,
			Text:      "/start_game",
			Handle:    e.handleStartGame,
		},
		{
			Name:      "start_game_already_going",
			ChatState: ChatGameIsGoing,
			Text:      "/start_game",
			Handle:    e.handleStartGameAlreadyGoing,
		},
		{
			Name:      "stop_game",
			ChatState: ChatGameIsGoing,
			Text:      "/stop_game",
			Handle:    e.handleStopGame,
		},
		{
			Name:        "my_assets",
			GameState:   GameGoing,
			PlayerState: PlayerGaming,
			Text:        "/my_assets",
			Handle:      e.handleMyAssets,
		},
		{
			Name:      "confirm",
			GameState: GameWaitingForConfirmation,
			Callback:  cbConfirm,
			Handle:    e.handleConfirm,
		},
		{
			Name:      "cancel",
			GameState: GameWaitingForConfirmation,
			Callback:  cbCancel,
			Handle:    e.handleCancelParticipation,
		},
		{
			Name:           "assets_available",
			GameState:      GameGoing,
			CallbackPrefix: cbAssetsAvailable,
			Handle:         e.handleAssetsAvailable,
		},
		{
			Name:           "asset_info",
			GameState:      GameGoing,
			CallbackPrefix: cbAssetInfo,
			Handle:         e.handleAssetInfo,
		},
		{
			Name:           "buy_asset",
			GameState:      GameGoing,
			PlayerState:    PlayerGaming,
			CallbackPrefix: cbBuyAsset,
			Handle:         e.handleBuy,
		},
		{
			Name:           "sell_asset",
			GameState:      GameGoing,
			PlayerState:    PlayerGaming,
			CallbackPrefix: cbSellAsset,
			Handle:         e.handleSell,
		},
	}
}

// HandleEvent resolves chat, active game, and player for an inbound event
// and dispatches it under the chat's lock.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) error {
	user, err := e.store.UpsertUser(ctx, ev.Sender.TelegramID, ev.Sender.FirstName, ev.Sender.LastName, ev.Sender.Username)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	chat, err := e.store.ChatByTelegramID(ctx, ev.ChatTelegramID)
	if errors.Is(err, storage.ErrNotFound) {
		chat, err = e.store.CreateChat(ctx, ev.ChatTelegramID)
	}
	if err != nil {
		return fmt.Errorf("resolve chat: %w", err)
	}

	return e.locks.Do(chat.ID, func() error {
		rc := &RouteContext{Event: ev, User: user, Chat: chat}

		g, err := e.store.ActiveGameByChat(ctx, chat.ID)
		switch {
		case err == nil:
			rc.Game = g
		case errors.Is(err, storage.ErrNotFound):
		default:
			return fmt.Errorf("resolve game: %w", err)
		}

		if rc.Game != nil {
			p, err := e.store.PlayerByGameAndUser(ctx, rc.Game.ID, user.ID)
			switch {
			case err == nil:
				rc.Player = p
			case errors.Is(err, storage.ErrNotFound):
			default:
				return fmt.Errorf("resolve player: %w", err)
			}
		}

		if ev.IsCallback() && rc.Game == nil {
			// Stale button from a finished game.
			return e.msg.GameNotFound(ctx, ev.ChatTelegramID)
		}

		return e.router.Dispatch(ctx, rc)
	})
}

// Shutdown cancels all outstanding timers.
func (e *Engine) Shutdown() {
	e.timers.Shutdown()
}

// --- command handlers ---

func (e *Engine) handleStartGame(ctx context.Context, rc *RouteContext) error {
	g, err := e.store.CreateGame(ctx, rc.Chat.ID, e.cfg.StartBalance, e.cfg.SessionLimit)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	if err := e.chatFSM.SetState(ctx, rc.Chat, ChatGameIsGoing); err != nil {
		return err
	}
	if err := e.msg.ParticipationKeyboard(ctx, rc.Chat.TelegramID); err != nil {
		return err
	}
	e.scheduleTimer(rc.Chat, g.ID, e.cfg.ConfirmWindow)
	logger.GAME.Info("game created",
		slog.Int64("game_id", g.ID),
		slog.Int64("chat_id", rc.Chat.ID),
	)
	return nil
}

func (e *Engine) handleStartGameAlreadyGoing(ctx context.Context, rc *RouteContext) error {
	return e.msg.GameAlreadyGoing(ctx, rc.Chat.TelegramID)
}

func (e *Engine) handleStopGame(ctx context.Context, rc *RouteContext) error {
	if rc.Game == nil {
		// Chat state says a game is going but no row resolves; repair the
		// chat state and report.
		if err := e.chatFSM.SetState(ctx, rc.Chat, ChatWaitingForGame); err != nil {
			return err
		}
		return e.msg.GameNotFound(ctx, rc.Chat.TelegramID)
	}
	if err := e.finishGame(ctx, rc.Chat, rc.Game, nil); err != nil {
		return err
	}
	return e.msg.GameStopped(ctx, rc.Chat.TelegramID)
}

func (e *Engine) handleMyAssets(ctx context.Context, rc *RouteContext) error {
	items, err := e.store.PlayerHoldings(ctx, rc.Player.ID)
	if err != nil {
		return fmt.Errorf("player holdings: %w", err)
	}
	name := rc.User.DisplayName()
	if len(items) == 0 {
		return e.msg.NoHoldings(ctx, rc.Chat.TelegramID, name)
	}
	return e.msg.Holdings(ctx, rc.Chat.TelegramID, name, items)
}

// --- participation handlers ---

func (e *Engine) handleConfirm(ctx context.Context, rc *RouteContext) error {
	name := rc.User.DisplayName()
	switch {
	case rc.Player == nil:
		if _, err := e.store.CreatePlayer(ctx, rc.Game.ID, rc.User.ID, string(PlayerGaming), rc.Game.StartBalance); err != nil {
			return fmt.Errorf("create player: %w", err)
		}
	case PlayerState(rc.Player.State) == PlayerGaming:
		// Re-confirming is a no-op.
		return e.msg.AlreadyConfirmed(ctx, rc.Chat.TelegramID, name)
	default:
		if err := e.playerFSM.SetState(ctx, rc.Player, PlayerGaming); err != nil {
			return err
		}
	}
	return e.msg.ParticipationConfirmed(ctx, rc.Chat.TelegramID, name)
}

func (e *Engine) handleCancelParticipation(ctx context.Context, rc *RouteContext) error {
	if rc.Player == nil || PlayerState(rc.Player.State) != PlayerGaming {
		return nil
	}
	if err := e.playerFSM.SetState(ctx, rc.Player, PlayerNotGaming); err != nil {
		return err
	}
	return e.msg.ParticipationCancelled(ctx, rc.Chat.TelegramID, rc.User.DisplayName())
}

// --- trading handlers ---

func (e *Engine) handleAssetsAvailable(ctx context.Context, rc *RouteContext) error {
	sessionID, err := parseSessionPayload(rc.Event.Callback, cbAssetsAvailable)
	if err != nil {
		logger.GAME.Warn("bad callback payload", slog.String("err", err.Error()))
		return e.msg.UnknownCommand(ctx, rc.Chat.TelegramID)
	}
	sess, err := e.currentSession(ctx, rc.Game.ID, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionFinished) {
			return e.msg.SessionAlreadyFinished(ctx, rc.Chat.TelegramID)
		}
		return err
	}
	quotes, err := e.sessionQuotes(ctx, sess.ID)
	if err != nil {
		return err
	}
	return e.msg.AssetsKeyboard(ctx, rc.Chat.TelegramID, quotes)
}

func (e *Engine) handleAssetInfo(ctx context.Context, rc *RouteContext) error {
	assetID, sessionID, err := parseAssetSessionPayload(rc.Event.Callback, cbAssetInfo)
	if err != nil {
		logger.GAME.Warn("bad callback payload", slog.String("err", err.Error()))
		return e.msg.UnknownCommand(ctx, rc.Chat.TelegramID)
	}
	sess, err := e.currentSession(ctx, rc.Game.ID, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionFinished) {
			return e.msg.SessionAlreadyFinished(ctx, rc.Chat.TelegramID)
		}
		return err
	}
	quote, err := e.quote(ctx, assetID, sess.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return e.msg.UnknownCommand(ctx, rc.Chat.TelegramID)
		}
		return err
	}
	return e.msg.AssetInfo(ctx, rc.Chat.TelegramID, quote)
}

func (e *Engine) handleBuy(ctx context.Context, rc *RouteContext) error {
	assetID, sessionID, err := parseAssetSessionPayload(rc.Event.Callback, cbBuyAsset)
	if err != nil {
		logger.GAME.Warn("bad callback payload", slog.String("err", err.Error()))
		return e.msg.UnknownCommand(ctx, rc.Chat.TelegramID)
	}
	sess, err := e.currentSession(ctx, rc.Game.ID, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionFinished) {
			return e.msg.SessionAlreadyFinished(ctx, rc.Chat.TelegramID)
		}
		return err
	}
	quote, err := e.quote(ctx, assetID, sess.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return e.msg.UnknownCommand(ctx, rc.Chat.TelegramID)
		}
		return err
	}
	name := rc.User.DisplayName()
	if rc.Player.Balance < quote.Price {
		return e.msg.InsufficientFunds(ctx, rc.Chat.TelegramID, name)
	}
	if err := e.store.AddHolding(ctx, rc.Player.ID, assetID, 1); err != nil {
		return fmt.Errorf("add holding: %w", err)
	}
	if err := e.store.AdjustPlayerBalance(ctx, rc.Player.ID, -quote.Price); err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	logger.GAME.Info("asset bought",
		slog.Int64("player_id", rc.Player.ID),
		slog.Int64("asset_id", assetID),
		slog.Int64("price", quote.Price),
	)
	return e.msg.Purchased(ctx, rc.Chat.TelegramID, name, quote.Title)
}

func (e *Engine) handleSell(ctx context.Context, rc *RouteContext) error {
	assetID, sessionID, err := parseAssetSessionPayload(rc.Event.Callback, cbSellAsset)
	if err != nil {
		logger.GAME.Warn("bad callback payload", slog.String("err", err.Error()))
		return e.msg.UnknownCommand(ctx, rc.Chat.TelegramID)
	}
	sess, err := e.currentSession(ctx, rc.Game.ID, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionFinished) {
			return e.msg.SessionAlreadyFinished(ctx, rc.Chat.TelegramID)
		}
		return err
	}
	name := rc.User.DisplayName()
	holding, err := e.store.Holding(ctx, rc.Player.ID, assetID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && holding.Quantity == 0) {
		return e.msg.NoAssetToSell(ctx, rc.Chat.TelegramID, name)
	}
	if err != nil {
		return fmt.Errorf("holding: %w", err)
	}
	// Sale credits the price fixed for the current session, not the original
	// purchase price; profit comes from inter-session drift.
	quote, err := e.quote(ctx, assetID, sess.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return e.msg.UnknownCommand(ctx, rc.Chat.TelegramID)
		}
		return err
	}
	if err := e.store.AddHolding(ctx, rc.Player.ID, assetID, -1); err != nil {
		return fmt.Errorf("remove holding: %w", err)
	}
	if err := e.store.AdjustPlayerBalance(ctx, rc.Player.ID, quote.Price); err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	logger.GAME.Info("asset sold",
		slog.Int64("player_id", rc.Player.ID),
		slog.Int64("asset_id", assetID),
		slog.Int64("price", quote.Price),
	)
	return e.msg.Sold(ctx, rc.Chat.TelegramID, name, quote.Title)
}

func (e *Engine) handleUnknown(ctx context.Context, rc *RouteContext) error {
	if rc.Event.IsCallback() && rc.Player == nil && rc.Game != nil {
		return e.msg.PlayerNotFound(ctx, rc.Chat.TelegramID)
	}
	return e.msg.UnknownCommand(ctx, rc.Chat.TelegramID)
}

// --- timer-driven session lifecycle ---

func (e *Engine) scheduleTimer(chat *models.Chat, gameID int64, delay time.Duration) {
	chatID, chatTgID := chat.ID, chat.TelegramID
	e.timers.Set(gameID, delay, func() {
		e.onTimerFired(chatID, chatTgID)
	})
}

// onTimerFired re-enters the pipeline under the chat lock. The branch is
// decided by the game's state read at fire time; a stop that raced the fire
// finds no active game and the firing is discarded.
func (e *Engine) onTimerFired(chatID, chatTgID int64) {
	ctx := context.Background()
	err := e.locks.Do(chatID, func() error {
		chat, err := e.store.ChatByTelegramID(ctx, chatTgID)
		if err != nil {
			return fmt.Errorf("resolve chat: %w", err)
		}
		g, err := e.store.ActiveGameByChat(ctx, chat.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("resolve game: %w", err)
		}
		switch GameState(g.State) {
		case GameWaitingForConfirmation:
			return e.confirmationTimeout(ctx, chat, g)
		case GameGoing:
			return e.sessionTimeout(ctx, chat, g)
		default:
			return nil
		}
	})
	if err != nil {
		logger.GAME.Error("timer handling failed",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}

func (e *Engine) confirmationTimeout(ctx context.Context, chat *models.Chat, g *models.Game) error {
	players, err := e.activePlayers(ctx, g.ID)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		if err := e.msg.NotEnoughPlayers(ctx, chat.TelegramID); err != nil {
			return err
		}
		return e.finishGame(ctx, chat, g, nil)
	}
	if err := e.gameFSM.SetState(ctx, g, GameGoing); err != nil {
		return err
	}
	return e.startSession(ctx, chat, g, 1)
}

func (e *Engine) startSession(ctx context.Context, chat *models.Chat, g *models.Game, num int) error {
	sess, err := e.store.CreateSession(ctx, g.ID, num)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	assets, err := e.store.Assets(ctx)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}
	for _, a := range assets {
		price := e.price(e.cfg.MinPrice, e.cfg.MaxPrice)
		if err := e.store.SetAssetPrice(ctx, a.ID, sess.ID, price); err != nil {
			return fmt.Errorf("set asset price: %w", err)
		}
	}
	players, err := e.activePlayers(ctx, g.ID)
	if err != nil {
		return err
	}
	if err := e.msg.SessionStarted(ctx, chat.TelegramID, sess.ID, num, players); err != nil {
		return err
	}
	e.scheduleTimer(chat, g.ID, e.cfg.SessionDuration)
	logger.GAME.Info("session started",
		slog.Int64("game_id", g.ID),
		slog.Int("session_num", num),
		slog.Int("players", len(players)),
	)
	return nil
}

func (e *Engine) sessionTimeout(ctx context.Context, chat *models.Chat, g *models.Game) error {
	sess, err := e.store.CurrentSession(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("current session: %w", err)
	}
	if err := e.store.FinishSession(ctx, sess.ID); err != nil {
		return fmt.Errorf("finish session: %w", err)
	}

	players, err := e.activePlayers(ctx, g.ID)
	if err != nil {
		return err
	}
	if err := e.msg.SessionFinished(ctx, chat.TelegramID, sess.SessionNum, players); err != nil {
		return err
	}

	if sess.SessionNum >= g.SessionLimit {
		return e.declareWinner(ctx, chat, g, players)
	}

	// Session #1 never eliminates: everybody starts level, the first round
	// just establishes positions.
	if len(players) >= 2 && sess.SessionNum > 1 {
		loser := players[0]
		if err := e.playerFSM.SetState(ctx, &loser.Player, PlayerNotGaming); err != nil {
			return err
		}
		if err := e.msg.PlayerEliminated(ctx, chat.TelegramID, displayName(loser)); err != nil {
			return err
		}
		logger.GAME.Info("player eliminated",
			slog.Int64("game_id", g.ID),
			slog.Int64("player_id", loser.ID),
			slog.Int64("balance", loser.Balance),
		)
		players, err = e.activePlayers(ctx, g.ID)
		if err != nil {
			return err
		}
	}

	if len(players) < 2 {
		return e.declareWinner(ctx, chat, g, players)
	}
	return e.startSession(ctx, chat, g, sess.SessionNum+1)
}

// declareWinner ends the game, crowning the max-balance player among those
// still active. Ties resolve to the lowest player id, mirroring the
// elimination tie-break.
func (e *Engine) declareWinner(ctx context.Context, chat *models.Chat, g *models.Game, players []models.GamePlayer) error {
	if len(players) == 0 {
		return e.finishGame(ctx, chat, g, nil)
	}
	winner := players[0]
	for _, p := range players[1:] {
		if p.Balance > winner.Balance {
			winner = p
		}
	}
	if err := e.finishGame(ctx, chat, g, &winner.UserID); err != nil {
		return err
	}
	logger.GAME.Info("game won",
		slog.Int64("game_id", g.ID),
		slog.Int64("winner_user_id", winner.UserID),
		slog.Int64("balance", winner.Balance),
	)
	return e.msg.Winner(ctx, chat.TelegramID, displayName(winner))
}

// finishGame runs the multi-entity shutdown sequence: cancel the timer,
// close the open session, finish the game row, reset players, release the
// chat. The storage calls are individually atomic but the sequence is not;
// a crash in the middle leaves partial state (accepted limitation).
func (e *Engine) finishGame(ctx context.Context, chat *models.Chat, g *models.Game, winnerID *int64) error {
	e.timers.Cancel(g.ID)

	if sess, err := e.store.CurrentSession(ctx, g.ID); err == nil {
		if err := e.store.FinishSession(ctx, sess.ID); err != nil {
			return fmt.Errorf("close session: %w", err)
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("current session: %w", err)
	}

	if err := e.store.FinishGame(ctx, g.ID, winnerID); err != nil {
		return fmt.Errorf("finish game: %w", err)
	}
	g.State = string(GameFinished)

	if err := e.store.ResetPlayerStates(ctx, g.ID, string(PlayerNotGaming)); err != nil {
		return fmt.Errorf("reset players: %w", err)
	}
	if err := e.chatFSM.SetState(ctx, chat, ChatWaitingForGame); err != nil {
		return err
	}
	logger.GAME.Info("game finished", slog.Int64("game_id", g.ID))
	return nil
}

// --- helpers ---

// activePlayers returns the gaming players of a game sorted by balance
// ascending; ties order by player id, which makes elimination deterministic.
func (e *Engine) activePlayers(ctx context.Context, gameID int64) ([]models.GamePlayer, error) {
	all, err := e.store.GamePlayers(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("game players: %w", err)
	}
	active := all[:0:0]
	for _, p := range all {
		if PlayerState(p.State) == PlayerGaming {
			active = append(active, p)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].Balance != active[j].Balance {
			return active[i].Balance < active[j].Balance
		}
		return active[i].ID < active[j].ID
	})
	return active, nil
}

// currentSession verifies the addressed session is still the game's current
// one, guarding against stale buttons after a rollover.
func (e *Engine) currentSession(ctx context.Context, gameID, sessionID int64) (*models.TradingSession, error) {
	sess, err := e.store.CurrentSession(ctx, gameID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSessionFinished
	}
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	if sess.ID != sessionID {
		return nil, ErrSessionFinished
	}
	return sess, nil
}

func (e *Engine) quote(ctx context.Context, assetID, sessionID int64) (AssetQuote, error) {
	asset, err := e.store.AssetByID(ctx, assetID)
	if err != nil {
		return AssetQuote{}, err
	}
	price, err := e.store.AssetPrice(ctx, assetID, sessionID)
	if err != nil {
		return AssetQuote{}, err
	}
	return AssetQuote{AssetID: assetID, SessionID: sessionID, Title: asset.Title, Price: price}, nil
}

func (e *Engine) sessionQuotes(ctx context.Context, sessionID int64) ([]AssetQuote, error) {
	prices, err := e.store.SessionPrices(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session prices: %w", err)
	}
	quotes := make([]AssetQuote, 0, len(prices))
	for _, ap := range prices {
		asset, err := e.store.AssetByID(ctx, ap.AssetID)
		if err != nil {
			return nil, fmt.Errorf("asset %d: %w", ap.AssetID, err)
		}
		quotes = append(quotes, AssetQuote{
			AssetID:   ap.AssetID,
			SessionID: sessionID,
			Title:     asset.Title,
			Price:     ap.Price,
		})
	}
	return quotes, nil
}

func displayName(p models.GamePlayer) string {
	if p.FirstName != "" {
		return p.FirstName
	}
	if p.Username != "" {
		return "@" + p.Username
	}
	return "player"
}
