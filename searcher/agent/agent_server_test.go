package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"connectfour/game"
	"connectfour/minimax"
)

func findMove(t *testing.T, handler http.Handler, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/findmove", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAgentServer(t *testing.T) {
	server := NewServer(NewMinimaxAgent(minimax.New(4)))

	t.Run("returns the agent's move", func(t *testing.T) {
		body, err := json.Marshal(FindMoveRequest{Board: winInOne(), Player: game.Player2})
		require.NoError(t, err)

		rec := findMove(t, server, http.MethodPost, string(body))
		require.Equal(t, http.StatusOK, rec.Code)

		var response FindMoveResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		require.Equal(t, 3, response.Column, "O has to block the open row")
		require.Positive(t, response.Metric.Nodes)
	})

	t.Run("rejects bad requests", func(t *testing.T) {
		rec := findMove(t, server, http.MethodPost, "{")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		rec = findMove(t, server, http.MethodPost, `{"board":["","","","","","",""],"player":"."}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, "A move needs a player")

		rec = findMove(t, server, http.MethodGet, "")
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("finished games have no move", func(t *testing.T) {
		rec := findMove(t, server, http.MethodPost, `{"board":["XXXX","OOO","","","","",""],"player":"O"}`)
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestStartAgentServer(t *testing.T) {
	t.Run("stops with its context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, StartAgentServer(ctx, "127.0.0.1:0", NewMinimaxAgent(minimax.New(1))))
	})

	t.Run("reports listen errors", func(t *testing.T) {
		require.Error(t, StartAgentServer(context.Background(), "not-an-address", NewMinimaxAgent(minimax.New(1))))
	})
}
