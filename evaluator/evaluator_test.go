package evaluator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"connectfour/game"
)

type fixedPredictor struct {
	output []float64
	inputs [][]float64
}

func (p *fixedPredictor) Predict(input []float64) []float64 {
	p.inputs = append(p.inputs, input)
	out := make([]float64, len(p.output))
	copy(out, p.output)
	return out
}

func boardOf(moves ...int) game.Board {
	b := game.NewBoard()
	player := game.Player1
	for _, col := range moves {
		b.MakeMove(col, player)
		player = player.Opponent()
	}
	return b
}

func requireDistribution(t *testing.T, b *game.Board, priors [game.Cols]float64) {
	t.Helper()
	sum := 0.0
	for col, p := range priors {
		require.GreaterOrEqual(t, p, 0.0, "Prior should be non-negative")
		if !b.IsValidMove(col) {
			require.Zero(t, p, "Illegal column %d should have zero prior", col)
		}
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-9, "Priors should sum to one")
}

func TestHeuristicEvaluate(t *testing.T) {
	h := NewHeuristic()

	t.Run("empty board prefers the center", func(t *testing.T) {
		b := game.NewBoard()
		priors, value := h.Evaluate(&b, game.Player1)

		requireDistribution(t, &b, priors)
		e5 := math.Exp(5)
		require.InDelta(t, e5/(e5+6), priors[3], 1e-9, "Center should take the softmax mass")
		for _, col := range []int{0, 1, 2, 4, 5, 6} {
			require.InDelta(t, 1/(e5+6), priors[col], 1e-9)
		}
		require.Zero(t, value, "Empty board should be neutral")
	})

	t.Run("winning column dominates", func(t *testing.T) {
		b := boardOf(0, 6, 1, 6, 2)
		priors, _ := h.Evaluate(&b, game.Player2)
		// Player2 must block at 3; Player1's view has a win at 3.
		winPriors, value := h.Evaluate(&b, game.Player1)

		requireDistribution(t, &b, winPriors)
		for col := 0; col < game.Cols; col++ {
			if col != 3 {
				require.Greater(t, winPriors[3], winPriors[col])
				require.Greater(t, priors[3], priors[col], "Blocking column should have the highest prior")
			}
		}
		require.Greater(t, value, 0.0, "Open three should be favorable")
		require.LessOrEqual(t, value, 1.0)
	})

	t.Run("win beats block", func(t *testing.T) {
		// Player1 threatens column 3, Player2 threatens column 6 vertically.
		b := boardOf(0, 6, 1, 6, 2, 6)
		priors, _ := h.Evaluate(&b, game.Player1)

		require.Greater(t, priors[3], priors[6], "Winning should outrank blocking")
		require.Greater(t, priors[6], priors[5], "Blocking should outrank quiet moves")
	})

	t.Run("full column gets nothing", func(t *testing.T) {
		b := boardOf(2, 2, 2, 2, 2, 2)
		priors, value := h.Evaluate(&b, game.Player1)

		requireDistribution(t, &b, priors)
		require.Zero(t, priors[2])
		require.True(t, value >= -1 && value <= 1)
	})
}

func TestLearnedEvaluate(t *testing.T) {
	t.Run("unmirrored scores map straight through", func(t *testing.T) {
		p := &fixedPredictor{output: []float64{0.1, 0.1, 0.1, 0.7, 0.1, 0.1, 0.1}}
		l := NewLearned(p)
		b := game.NewBoard()
		priors, value := l.Evaluate(&b, game.Player1)

		requireDistribution(t, &b, priors)
		require.InDelta(t, 0.7/1.3, priors[3], 1e-9)
		require.Zero(t, value, "Value should be neutral without a value estimate")
		require.Len(t, p.inputs, 1)
		require.Len(t, p.inputs[0], game.InputSize)
	})

	t.Run("mirrored scores are mapped back", func(t *testing.T) {
		// A lone piece in column 0 is canonicalized into column 6.
		p := &fixedPredictor{output: []float64{0.9, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}}
		l := NewLearned(p)
		b := boardOf(0)
		_, mirrored := b.NormalizedInput(game.Player2)
		require.True(t, mirrored, "Piece in column 0 should be mirrored")

		priors, _ := l.Evaluate(&b, game.Player2)

		requireDistribution(t, &b, priors)
		require.InDelta(t, 0.9/1.5, priors[6], 1e-9, "Canonical column 0 should be true column 6")
		require.InDelta(t, 0.1/1.5, priors[0], 1e-9)
	})

	t.Run("non-positive scores are floored", func(t *testing.T) {
		p := &fixedPredictor{output: []float64{0, -1, 0.5, 0.5, 0.5, 0.5, 0.5}}
		l := NewLearned(p)
		b := game.NewBoard()
		priors, _ := l.Evaluate(&b, game.Player1)

		requireDistribution(t, &b, priors)
		require.InDelta(t, MinPrior/(2.5+2*MinPrior), priors[0], 1e-9)
		require.Equal(t, priors[0], priors[1], "Floored columns should share the same prior")
	})

	t.Run("degenerate output falls back to uniform", func(t *testing.T) {
		for name, output := range map[string][]float64{
			"all negative": {-1, -1, -1, -1, -1, -1, -1},
			"all zero":     {0, 0, 0, 0, 0, 0, 0},
			"nan":          {math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()},
			"too short":    {},
		} {
			t.Run(name, func(t *testing.T) {
				l := NewLearned(&fixedPredictor{output: output})
				b := boardOf(4, 4, 4, 4, 4, 4)
				priors, _ := l.Evaluate(&b, game.Player1)

				requireDistribution(t, &b, priors)
				for _, col := range b.ValidMoves() {
					require.InDelta(t, 1.0/6, priors[col], 1e-9)
				}
			})
		}
	})

	t.Run("tactical boost", func(t *testing.T) {
		p := &fixedPredictor{output: []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}}
		l := NewLearned(p, WithTacticalBoost())
		b := boardOf(0, 6, 1, 6, 2)

		winPriors, _ := l.Evaluate(&b, game.Player1)
		require.InDelta(t, 100/(100+3.0), winPriors[3], 1e-9, "Winning column should be boosted")

		blockPriors, _ := l.Evaluate(&b, game.Player2)
		require.InDelta(t, 50/(50+3.0), blockPriors[3], 1e-9, "Blocking column should be boosted")
	})

	t.Run("concentration value", func(t *testing.T) {
		flat := NewLearned(&fixedPredictor{output: []float64{1, 1, 1, 1, 1, 1, 1}}, WithConcentrationValue())
		peaked := NewLearned(&fixedPredictor{output: []float64{0, 0, 0, 1, 0, 0, 0}}, WithConcentrationValue())
		b := game.NewBoard()

		_, flatValue := flat.Evaluate(&b, game.Player1)
		_, peakedValue := peaked.Evaluate(&b, game.Player1)

		require.InDelta(t, math.Tanh((1.0/7/(1.0/7+0.01)-1.5)/2), flatValue, 1e-9)
		require.Greater(t, peakedValue, flatValue, "Concentrated priors should read as a clearer position")
		require.LessOrEqual(t, peakedValue, 1.0)
		require.GreaterOrEqual(t, flatValue, -1.0)
	})

	t.Run("nil predictor", func(t *testing.T) {
		require.Panics(t, func() { NewLearned(nil) })
	})
}
