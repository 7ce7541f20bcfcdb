package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"connectfour/experiments/metrics"
	"connectfour/game"
)

const shutdownTimeout = 5 * time.Second

type FindMoveRequest struct {
	Board  game.Board  `json:"board"`
	Player game.Player `json:"player"`
}

type FindMoveResponse struct {
	Column int                  `json:"column"`
	Metric metrics.SearchMetric `json:"metric"`
}

type agentServer struct {
	agent Agent
	mu    sync.Mutex // Searches are not safe for concurrent use
}

// NewServer returns a handler serving POST /findmove for a.
func NewServer(a Agent) http.Handler {
	s := &agentServer{agent: a}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /findmove", s.handleFindMove)
	return mux
}

func (s *agentServer) handleFindMove(w http.ResponseWriter, r *http.Request) {
	var payload FindMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if payload.Player != game.Player1 && payload.Player != game.Player2 {
		http.Error(w, "bad request: player must be X or O", http.StatusBadRequest)
		return
	}
	if payload.Board.IsGameOver() {
		http.Error(w, "game is over", http.StatusConflict)
		return
	}

	s.mu.Lock()
	column, metric := s.agent.FindMove(payload.Board, payload.Player)
	s.mu.Unlock()
	log.Debug().Msgf("player %v plays column %d", payload.Player, column)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(FindMoveResponse{Column: column, Metric: metric}); err != nil {
		log.Error().Err(err).Msg("failed to encode move")
	}
}

// StartAgentServer serves a on addr until ctx is done.
func StartAgentServer(ctx context.Context, addr string, a Agent) error {
	server := &http.Server{Addr: addr, Handler: NewServer(a)}

	errs := make(chan error, 1)
	go func() {
		log.Info().Msgf("starting agent server on %s", addr)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
