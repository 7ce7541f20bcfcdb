package agent

import (
	"fmt"

	"golang.org/x/exp/rand"

	"connectfour/experiments/metrics"
	"connectfour/game"
	"connectfour/searcher"
)

// TemperatureStep applies Temperature while fewer than UntilMove stones are
// on the board. A zero UntilMove matches every remaining move.
type TemperatureStep struct {
	UntilMove   int     `yaml:"until_move"`
	Temperature float64 `yaml:"temperature"`
}

// TemperatureSchedule lowers the sampling temperature as a game progresses so
// openings are varied and endgames are played sharply.
type TemperatureSchedule []TemperatureStep

func DefaultSchedule() TemperatureSchedule {
	return TemperatureSchedule{
		{UntilMove: 10, Temperature: 1.0},
		{UntilMove: 20, Temperature: 0.5},
		{Temperature: 0.1},
	}
}

// Temperature returns the temperature for a board holding moveCount stones.
func (s TemperatureSchedule) Temperature(moveCount int) float64 {
	for _, step := range s {
		if step.UntilMove == 0 || moveCount < step.UntilMove {
			return step.Temperature
		}
	}
	if len(s) == 0 {
		return 1.0
	}
	return s[len(s)-1].Temperature
}

func (s TemperatureSchedule) Validate() error {
	last := 0
	for i, step := range s {
		if step.Temperature < 0 {
			return fmt.Errorf("temperature step %d: negative temperature %v", i, step.Temperature)
		}
		if step.UntilMove < 0 {
			return fmt.Errorf("temperature step %d: negative move bound %d", i, step.UntilMove)
		}
		if step.UntilMove != 0 && step.UntilMove <= last {
			return fmt.Errorf("temperature step %d: move bound %d is not increasing", i, step.UntilMove)
		}
		if step.UntilMove == 0 && i != len(s)-1 {
			return fmt.Errorf("temperature step %d: open-ended step must be last", i)
		}
		last = step.UntilMove
	}
	return nil
}

type trainingAgent struct {
	mcts     *searcher.MCTS
	schedule TemperatureSchedule
	rng      *rand.Rand
}

// NewTrainingAgent returns a new agent for self-play during training. Moves
// are sampled from the visit distribution at the scheduled temperature.
func NewTrainingAgent(mcts *searcher.MCTS, schedule TemperatureSchedule, rng *rand.Rand) Agent {
	return trainingAgent{mcts: mcts, schedule: schedule, rng: rng}
}

func (a trainingAgent) FindMove(b game.Board, player game.Player) (int, metrics.SearchMetric) {
	a.mcts.Search(b, player)
	temperature := a.schedule.Temperature(b.MoveCount())
	return a.mcts.SelectMoveSoftmax(temperature, a.rng), a.mcts.Metric()
}
