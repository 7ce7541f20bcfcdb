// Package evaluator turns a board and the player to move into move priors and
// a value estimate that guide the tree search.
package evaluator

import "connectfour/game"

// Evaluator scores a position for the player to move. Priors are indexed by
// column: legal columns hold a probability distribution and illegal columns
// are always zero. Value lies in [-1, 1] from the perspective of player.
type Evaluator interface {
	Evaluate(b *game.Board, player game.Player) (priors [game.Cols]float64, value float64)
}

// uniform spreads probability mass evenly over the given columns.
func uniform(moves []int) [game.Cols]float64 {
	var priors [game.Cols]float64
	if len(moves) == 0 {
		return priors
	}
	p := 1.0 / float64(len(moves))
	for _, col := range moves {
		priors[col] = p
	}
	return priors
}
