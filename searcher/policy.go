package searcher

import (
	"golang.org/x/exp/rand"

	"connectfour/game"
	"connectfour/utils"
)

// VisitCounts returns the visits of each root child by column.
func (m *MCTS) VisitCounts() [game.Cols]int {
	var counts [game.Cols]int
	if m.root == nil {
		return counts
	}
	for _, child := range m.root.children {
		counts[child.move] = child.visits
	}
	return counts
}

// MoveProbabilities normalizes root visit counts into a distribution over columns.
func (m *MCTS) MoveProbabilities() [game.Cols]float64 {
	var probs [game.Cols]float64
	counts := m.VisitCounts()
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return probs
	}
	for col, c := range counts {
		probs[col] = float64(c) / float64(total)
	}
	return probs
}

// SelectBestMove returns the most visited root column, the first one on ties,
// or -1 if the root has no children.
func (m *MCTS) SelectBestMove() int {
	if m.root == nil || len(m.root.children) == 0 {
		return -1
	}
	visits := make([]int, len(m.root.children))
	for i, child := range m.root.children {
		visits[i] = child.visits
	}
	return m.root.children[utils.ArgMax(visits)].move
}

// SelectMoveSoftmax samples a root column from the softmax of visit counts at
// the given temperature. Only legal columns can be drawn. A non-positive
// temperature selects greedily.
func (m *MCTS) SelectMoveSoftmax(temperature float64, rng *rand.Rand) int {
	if m.root == nil || len(m.root.children) == 0 {
		return -1
	}
	if temperature <= 0 {
		return m.SelectBestMove()
	}
	visits := make([]float64, len(m.root.children))
	for i, child := range m.root.children {
		visits[i] = float64(child.visits)
	}
	probs := utils.Softmax(visits, temperature)
	return m.root.children[utils.Sample(probs, rng)].move
}

// RootValue returns the mean backed-up value of the root position for the
// player to move there.
func (m *MCTS) RootValue() float64 {
	if m.root == nil {
		return 0
	}
	// The root accumulates values for the player who moved into it.
	return -m.root.q()
}

// RootVisits returns the number of simulations that passed through the root.
func (m *MCTS) RootVisits() int {
	if m.root == nil {
		return 0
	}
	return m.root.visits
}
