package agent

import (
	"connectfour/experiments/metrics"
	"connectfour/game"
)

type Agent interface {
	// FindMove returns the column to play and search metrics (if collected)
	FindMove(b game.Board, player game.Player) (int, metrics.SearchMetric)
}
