package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriter(t *testing.T) {
	root := t.TempDir()
	w, err := NewWriter(root, "bench")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "bench"), filepath.Dir(w.Dir()))

	t.Run("agent configs", func(t *testing.T) {
		err := w.WriteAgentConfigs([]AgentConfig{
			{ID: 1, Kind: "heuristic", Simulations: 400, Exploration: 1.414},
			{ID: 2, Kind: "minimax", Depth: 6},
		})
		require.NoError(t, err)

		rows := readCSV(t, filepath.Join(w.Dir(), "agent_configs.csv"))
		require.Len(t, rows, 3)
		require.Equal(t, []string{"1", "heuristic", "400", "0s", "1.414", "0"}, rows[1])
		require.Equal(t, "minimax", rows[2][1])
	})

	t.Run("game records", func(t *testing.T) {
		start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		err := w.WriteGameRecords([]GameRecord{{
			ID: 1, Agent1: 2, Agent2: 1,
			GameMetric: GameMetric{
				GameID: "abc", StartingPlayer: 1, Winner: 2, TotalMoves: 17,
				StartTime: start, EndTime: start.Add(time.Second), Duration: time.Second,
			},
		}})
		require.NoError(t, err)

		rows := readCSV(t, filepath.Join(w.Dir(), "game_records.csv"))
		require.Len(t, rows, 2)
		require.Equal(t, []string{"1", "abc", "2", "1", "1", "2", "17",
			"2025-01-02T03:04:05Z", "2025-01-02T03:04:06Z", "1s"}, rows[1])
	})

	t.Run("move records", func(t *testing.T) {
		err := w.WriteMoveRecords([]MoveRecord{
			{Game: 1, MoveMetric: MoveMetric{Step: 1, Player: 1, Column: 3, SearchMetric: SearchMetric{Simulations: 400, Terminals: 2}}},
			{Game: 1, MoveMetric: MoveMetric{Step: 2, Player: 2, Column: 4, SearchMetric: SearchMetric{Nodes: 12345}}},
		})
		require.NoError(t, err)

		rows := readCSV(t, filepath.Join(w.Dir(), "move_records.csv"))
		require.Len(t, rows, 3)
		require.Equal(t, []string{"1", "1", "1", "3", "0s", "400", "2", "0"}, rows[1])
		require.Equal(t, "12345", rows[2][7])
	})
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Start(1.5)
	c.AddSimulation()
	c.AddSimulation()
	c.AddTerminal()
	m := c.Complete()

	require.Equal(t, 1.5, m.Exploration)
	require.Equal(t, 2, m.Simulations)
	require.Equal(t, 1, m.Terminals)

	c.Start(1)
	require.Zero(t, c.Complete().Simulations, "Start should reset the counters")
	require.Equal(t, SearchMetric{}, NewDummyCollector().Complete())
}
