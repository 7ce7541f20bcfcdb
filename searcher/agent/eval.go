package agent

import (
	"time"

	"connectfour/experiments/metrics"
	"connectfour/game"
	"connectfour/minimax"
	"connectfour/searcher"
)

type evaluationAgent struct {
	mcts *searcher.MCTS
}

// NewEvaluationAgent returns a new agent for actual game play during evaluation.
// It always plays the most visited column.
func NewEvaluationAgent(mcts *searcher.MCTS) Agent {
	return evaluationAgent{mcts: mcts}
}

func (a evaluationAgent) FindMove(b game.Board, player game.Player) (int, metrics.SearchMetric) {
	a.mcts.Search(b, player)
	return a.mcts.SelectBestMove(), a.mcts.Metric()
}

type minimaxAgent struct {
	ai *minimax.AI
}

// NewMinimaxAgent returns a fixed-depth alpha-beta opponent.
func NewMinimaxAgent(ai *minimax.AI) Agent {
	return minimaxAgent{ai: ai}
}

func (a minimaxAgent) FindMove(b game.Board, player game.Player) (int, metrics.SearchMetric) {
	start := time.Now()
	move := a.ai.SelectMove(&b, player)
	return move, metrics.SearchMetric{
		Duration: time.Since(start),
		Nodes:    a.ai.NodesEvaluated(),
	}
}
