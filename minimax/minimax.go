// Package minimax implements a depth-limited alpha-beta search used as a fixed
// strength opponent and benchmark.
package minimax

import (
	"math"

	"connectfour/game"
)

const (
	DefaultDepth = 7
	// WinScore is the magnitude of a decided game. Remaining depth is added so
	// that faster wins and slower losses score better.
	WinScore = 10000.0
)

type Option func(ai *AI)

// WithEvaluation replaces the static evaluation applied at the depth limit.
func WithEvaluation(evaluate game.Evaluate) Option {
	return func(ai *AI) {
		if evaluate != nil {
			ai.evaluate = evaluate
		}
	}
}

// WithoutPruning disables alpha-beta cutoffs, giving a full-width search.
func WithoutPruning() Option {
	return func(ai *AI) {
		ai.pruning = false
	}
}

// AI is a negamax searcher. It is not safe for concurrent use.
type AI struct {
	depth    int
	evaluate game.Evaluate
	pruning  bool
	nodes    int
}

func New(depth int, options ...Option) *AI {
	if depth < 1 {
		depth = 1
	}
	ai := &AI{
		depth:    depth,
		evaluate: game.EvaluatePosition,
		pruning:  true,
	}
	for _, option := range options {
		option(ai)
	}
	return ai
}

func (ai *AI) Depth() int {
	return ai.depth
}

// NodesEvaluated returns the number of positions visited by the last search.
func (ai *AI) NodesEvaluated() int {
	return ai.nodes
}

// SelectMove returns the best column for player, or -1 if the board is full.
// The board is used as scratch space and is restored before returning.
func (ai *AI) SelectMove(b *game.Board, player game.Player) int {
	move, _ := ai.Search(b, player)
	return move
}

// Search returns the best column and its value for player. Every root move is
// searched with a full window so the value is exact; ties go to the lowest column.
func (ai *AI) Search(b *game.Board, player game.Player) (int, float64) {
	ai.nodes = 0
	moves := b.ValidMoves()
	if len(moves) == 0 {
		return -1, 0
	}

	bestMove := moves[0]
	bestValue := math.Inf(-1)
	for _, col := range moves {
		b.MakeMove(col, player)
		value := -ai.negamax(b, ai.depth-1, math.Inf(-1), math.Inf(1), player.Opponent())
		b.UndoMove(col)

		if value > bestValue {
			bestValue = value
			bestMove = col
		}
	}
	return bestMove, bestValue
}

// negamax returns the value of the position for the player to move.
func (ai *AI) negamax(b *game.Board, depth int, alpha, beta float64, player game.Player) float64 {
	ai.nodes++

	if winner := b.CheckWinner(); winner != game.None {
		if winner == player {
			return WinScore + float64(depth)
		}
		return -WinScore - float64(depth)
	}
	if b.IsFull() {
		return 0
	}
	if depth == 0 {
		return ai.evaluate(b, player)
	}

	best := math.Inf(-1)
	for _, col := range b.ValidMoves() {
		b.MakeMove(col, player)
		value := -ai.negamax(b, depth-1, -beta, -alpha, player.Opponent())
		b.UndoMove(col)

		best = math.Max(best, value)
		if ai.pruning {
			alpha = math.Max(alpha, value)
			if beta <= alpha {
				break // Cutoff
			}
		}
	}
	return best
}
