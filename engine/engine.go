package engine

import (
	"connectfour/experiments/metrics"
	"connectfour/game"
)

const MaxMoves = game.Cells

type Engine interface {
	// Run plays a game to completion and returns the winner (None for a draw)
	Run() (winner game.Player, gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric)
}
