package engine

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"connectfour/game"
	"connectfour/minimax"
	"connectfour/searcher/agent"
)

func TestRemoteAgent(t *testing.T) {
	t.Run("plays like the served agent", func(t *testing.T) {
		server := httptest.NewServer(agent.NewServer(agent.NewMinimaxAgent(minimax.New(3))))
		defer server.Close()

		remote := RemoteAgent(server.URL+"/", server.Client())
		local := agent.NewMinimaxAgent(minimax.New(3))

		b := game.NewBoard()
		b.MakeMove(3, game.Player1)
		remoteMove, remoteMetric := remote.FindMove(b, game.Player2)
		localMove, localMetric := local.FindMove(b, game.Player2)

		require.Equal(t, localMove, remoteMove)
		require.Equal(t, localMetric.Nodes, remoteMetric.Nodes)
	})

	t.Run("server errors yield an illegal column", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "busy", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		move, _ := RemoteAgent(server.URL, server.Client()).FindMove(game.NewBoard(), game.Player1)
		require.Equal(t, -1, move)
	})

	t.Run("remote game against a local agent", func(t *testing.T) {
		server := httptest.NewServer(agent.NewServer(agent.NewMinimaxAgent(minimax.New(2))))
		defer server.Close()

		e := LocalEngine(RemoteAgent(server.URL, nil), agent.NewMinimaxAgent(minimax.New(2)))
		winner, gameMetric, moveMetrics := e.Run()

		require.Len(t, moveMetrics, gameMetric.TotalMoves)
		require.Equal(t, int(winner), gameMetric.Winner)
		for _, m := range moveMetrics {
			if m.Player == int(game.Player1) {
				require.Positive(t, m.Nodes, "Remote moves should carry the server's metrics")
			}
		}
	})
}
