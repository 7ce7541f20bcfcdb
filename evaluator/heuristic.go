package evaluator

import (
	"math"

	"connectfour/game"
)

const (
	WinScore   = 1e6
	BlockScore = 1e5

	// priorSharpness is the inverse softmax temperature applied to min-max
	// normalized move scores.
	priorSharpness = 5.0
	// valueScale maps static scores onto tanh's responsive range.
	valueScale = 200.0
)

// Heuristic is a rule-based evaluator built on threat counting.
type Heuristic struct{}

func NewHeuristic() Heuristic {
	return Heuristic{}
}

func (Heuristic) Evaluate(b *game.Board, player game.Player) ([game.Cols]float64, float64) {
	var priors [game.Cols]float64
	moves := b.ValidMoves()
	if len(moves) == 0 {
		return priors, 0
	}

	scores := make([]float64, len(moves))
	for i, col := range moves {
		scores[i] = scoreMove(*b, col, player)
	}

	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores[1:] {
		minScore = math.Min(minScore, s)
		maxScore = math.Max(maxScore, s)
	}

	sum := 0.0
	for i, col := range moves {
		normalized := 0.5
		if maxScore > minScore {
			normalized = (scores[i] - minScore) / (maxScore - minScore)
		}
		priors[col] = math.Exp(normalized * priorSharpness)
		sum += priors[col]
	}
	for _, col := range moves {
		priors[col] /= sum
	}

	return priors, math.Tanh(game.EvaluatePosition(b, player) / valueScale)
}

// scoreMove ranks a move: immediate wins first, then moves that take away an
// opponent's immediate win, then the static score of the resulting position.
func scoreMove(b game.Board, col int, player game.Player) float64 {
	if game.WinsImmediately(b, col, player) {
		return WinScore
	}
	if game.WinsImmediately(b, col, player.Opponent()) {
		return BlockScore
	}
	b.MakeMove(col, player)
	return game.EvaluatePosition(&b, player)
}
