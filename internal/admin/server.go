// Package admin serves a read-only statistics API over the persisted game
// state. It implements no game logic and never mutates anything.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/exchangebot/core/logger"
	"github.com/m3rciful/exchangebot/internal/models"
	"github.com/m3rciful/exchangebot/internal/storage"
)

// Stats is the read-only slice of the storage port the API consumes.
type Stats interface {
	Games(ctx context.Context, state string, limit int) ([]models.Game, error)
	GamesByChat(ctx context.Context, chatID int64, limit int) ([]models.Game, error)
	GameByID(ctx context.Context, gameID int64) (*models.Game, error)
	GamePlayers(ctx context.Context, gameID int64) ([]models.GamePlayer, error)
	TopWinners(ctx context.Context, limit int) ([]models.WinnerStat, error)
}

// Server hosts the statistics endpoints.
type Server struct {
	store Stats
	token string
	http  *http.Server
}

// New builds the server for the given listen address and bearer token.
func New(store Stats, listen, token string) *Server {
	s := &Server{store: store, token: token}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.auth)
	r.Get("/api/games", s.listGames)
	r.Get("/api/games/{id}", s.gameDetail)
	r.Get("/api/stats/winners", s.topWinners)

	s.http = &http.Server{
		Addr:         listen,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.ADMIN.Info("admin api listening", slog.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type gameDetailResponse struct {
	Game    models.Game         `json:"game"`
	Players []models.GamePlayer `json:"players"`
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")
	switch state {
	case "", models.GameStateWaitingForConf, models.GameStateGoing, models.GameStateFinished:
	default:
		writeError(w, http.StatusBadRequest, "invalid state filter")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	var games []models.Game
	var err error
	// chat_id returns that chat's full game history; state is ignored then.
	if raw := q.Get("chat_id"); raw != "" {
		chatID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid chat id")
			return
		}
		games, err = s.store.GamesByChat(r.Context(), chatID, limit)
	} else {
		games, err = s.store.Games(r.Context(), state, limit)
	}
	if err != nil {
		logger.ADMIN.Error("list games failed", slog.String("err", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) gameDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	g, err := s.store.GameByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		logger.ADMIN.Error("game detail failed", slog.String("err", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	players, err := s.store.GamePlayers(r.Context(), id)
	if err != nil {
		logger.ADMIN.Error("game players failed", slog.String("err", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, gameDetailResponse{Game: *g, Players: players})
}

func (s *Server) topWinners(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	stats, err := s.store.TopWinners(r.Context(), limit)
	if err != nil {
		logger.ADMIN.Error("top winners failed", slog.String("err", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
