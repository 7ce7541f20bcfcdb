package evaluator

import (
	"math"

	"github.com/rs/zerolog/log"

	"connectfour/game"
)

const (
	// MinPrior is the floor applied to every legal column's network score.
	MinPrior = 0.01

	winBoost   = 100.0
	blockBoost = 50.0
)

// Predictor maps a normalized board encoding to one raw score per column.
type Predictor interface {
	Predict(input []float64) []float64
}

type Option func(l *Learned)

// WithTacticalBoost overrides network scores for columns that win at once or
// stop an immediate opponent win.
func WithTacticalBoost() Option {
	return func(l *Learned) {
		l.tacticalBoost = true
	}
}

// WithConcentrationValue estimates the position value from how strongly the
// priors concentrate on a single column, for predictors without a value head.
func WithConcentrationValue() Option {
	return func(l *Learned) {
		l.concentrationValue = true
	}
}

// Learned wraps a policy network. Its value is neutral unless
// WithConcentrationValue is set.
type Learned struct {
	predictor          Predictor
	tacticalBoost      bool
	concentrationValue bool
}

func NewLearned(predictor Predictor, options ...Option) *Learned {
	if predictor == nil {
		panic("learned evaluator needs a predictor")
	}
	l := &Learned{predictor: predictor}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *Learned) Evaluate(b *game.Board, player game.Player) ([game.Cols]float64, float64) {
	var priors [game.Cols]float64
	moves := b.ValidMoves()
	if len(moves) == 0 {
		return priors, 0
	}

	input, mirrored := b.NormalizedInput(player)
	output := l.predictor.Predict(input)

	positive := false
	for _, col := range moves {
		if l.tacticalBoost {
			if boost := tacticalScore(*b, col, player); boost > 0 {
				priors[col] = boost
				positive = true
				continue
			}
		}

		source := col
		if mirrored {
			source = game.MirrorColumn(col)
		}
		raw := 0.0
		if source < len(output) && output[source] > 0 { // NaN fails the comparison
			raw = output[source]
			positive = true
		}
		priors[col] = math.Max(MinPrior, raw)
	}

	if !positive {
		log.Debug().Msgf("predictor gave no positive score over %d legal columns, using uniform priors", len(moves))
		priors = uniform(moves)
	} else {
		sum := 0.0
		for _, col := range moves {
			sum += priors[col]
		}
		for _, col := range moves {
			priors[col] /= sum
		}
	}

	if !l.concentrationValue {
		return priors, 0
	}
	return priors, concentration(priors, moves)
}

func tacticalScore(b game.Board, col int, player game.Player) float64 {
	if game.WinsImmediately(b, col, player) {
		return winBoost
	}
	if game.WinsImmediately(b, col, player.Opponent()) {
		return blockBoost
	}
	return 0
}

// concentration maps the ratio of the largest prior to the mean prior onto
// [-1, 1]: a single standout move reads as a clear position.
func concentration(priors [game.Cols]float64, moves []int) float64 {
	maxPrior, mean := 0.0, 0.0
	for _, col := range moves {
		maxPrior = math.Max(maxPrior, priors[col])
		mean += priors[col]
	}
	mean /= float64(len(moves))
	return math.Tanh((maxPrior/(mean+0.01) - 1.5) / 2)
}
