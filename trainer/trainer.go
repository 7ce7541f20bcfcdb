// Package trainer improves a policy network from self-play games guided by
// MCTS and benchmarks it against a fixed-depth minimax opponent.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"lukechampine.com/frand"

	"connectfour/engine"
	"connectfour/evaluator"
	"connectfour/game"
	"connectfour/minimax"
	"connectfour/searcher"
	"connectfour/searcher/agent"
)

const (
	DefaultSimulations  = 800
	DefaultEvalGames    = 20
	DefaultMinimaxDepth = 6

	// Shaping applied to the visit distribution before training, scaled by
	// the game outcome for the mover.
	winBoost  = 0.2
	lossBoost = 0.1
	minTarget = 0.01
	maxTarget = 1.0

	selfPlayLogEvery = 10
	evalLogEvery     = 5
)

// Learner is a network that can be queried and trained one example at a time.
type Learner interface {
	evaluator.Predictor
	Train(input, target []float64, learningRate float64)
}

// TrainingExample is one self-play position. Policy is aligned with State,
// so it is mirrored whenever State is.
type TrainingExample struct {
	State  []float64
	Policy []float64
	Value  float64 // Outcome for the player to move: 1 win, 0 draw, -1 loss
}

type EvaluationResult struct {
	Wins   int
	Losses int
	Draws  int
}

func (r EvaluationResult) Games() int {
	return r.Wins + r.Losses + r.Draws
}

func (r EvaluationResult) WinRate() float64 {
	if r.Games() == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Games())
}

type Option func(t *Trainer)

// WithSimulations sets the self-play search budget. Evaluation games use half
// unless WithEvaluationSimulations is given.
func WithSimulations(simulations int) Option {
	return func(t *Trainer) {
		if simulations > 0 {
			t.simulations = simulations
		}
	}
}

func WithEvaluationSimulations(simulations int) Option {
	return func(t *Trainer) {
		if simulations > 0 {
			t.evalSimulations = simulations
		}
	}
}

func WithExploration(c float64) Option {
	return func(t *Trainer) {
		if c > 0 {
			t.exploration = c
		}
	}
}

func WithSchedule(schedule agent.TemperatureSchedule) Option {
	return func(t *Trainer) {
		t.schedule = schedule
	}
}

// WithRand seeds move sampling and example shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(t *Trainer) {
		if rng != nil {
			t.rng = rng
		}
	}
}

// WithEvaluatorOptions configures the learned evaluator used by every search.
func WithEvaluatorOptions(options ...evaluator.Option) Option {
	return func(t *Trainer) {
		t.evaluatorOptions = options
	}
}

// Trainer is not safe for concurrent use.
type Trainer struct {
	learner          Learner
	simulations      int
	evalSimulations  int // 0 uses half of simulations
	exploration      float64
	schedule         agent.TemperatureSchedule
	rng              *rand.Rand
	evaluatorOptions []evaluator.Option
}

func New(learner Learner, options ...Option) *Trainer {
	if learner == nil {
		panic("trainer needs a learner")
	}
	t := &Trainer{
		learner:     learner,
		simulations: DefaultSimulations,
		exploration: searcher.DefaultExploration,
		schedule:    agent.DefaultSchedule(),
	}
	for _, option := range options {
		option(t)
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewSource(frand.Uint64n(math.MaxUint64)))
	}
	return t
}

func (t *Trainer) Learner() Learner {
	return t.learner
}

func (t *Trainer) Simulations() int {
	return t.simulations
}

// EvaluationSimulations is the search budget of the network in evaluation games.
func (t *Trainer) EvaluationSimulations() int {
	if t.evalSimulations > 0 {
		return t.evalSimulations
	}
	return max(1, t.simulations/2)
}

// newMCTS returns a search over the current network. The learned evaluator
// holds no state, so one instance serves every search of a game.
func (t *Trainer) newMCTS(simulations int) *searcher.MCTS {
	ev := evaluator.NewLearned(t.learner, t.evaluatorOptions...)
	return searcher.NewMCTS(ev,
		searcher.WithExploration(t.exploration),
		searcher.WithSimulations(simulations),
	)
}

// PlaySelfPlayGame plays the network against itself and returns one example
// per ply with outcomes filled in.
func (t *Trainer) PlaySelfPlayGame() []TrainingExample {
	mcts := t.newMCTS(t.simulations)
	player := agent.NewTrainingAgent(mcts, t.schedule, t.rng)

	var examples []TrainingExample
	board := game.NewBoard()
	current := game.Player1
	for !board.IsGameOver() {
		move, _ := player.FindMove(board, current)

		state, mirrored := board.NormalizedInput(current)
		examples = append(examples, TrainingExample{
			State:  state,
			Policy: alignPolicy(mcts.MoveProbabilities(), mirrored),
		})

		if !board.MakeMove(move, current) {
			panic(fmt.Sprintf("self-play chose illegal column %d", move))
		}
		current = current.Opponent()
	}

	winner := board.CheckWinner()
	for i := range examples {
		mover := game.Player1
		if i%2 == 1 {
			mover = game.Player2
		}
		switch winner {
		case game.None:
			examples[i].Value = 0
		case mover:
			examples[i].Value = 1
		default:
			examples[i].Value = -1
		}
	}
	return examples
}

// alignPolicy expresses a column-indexed policy in the orientation of the
// normalized board encoding.
func alignPolicy(policy [game.Cols]float64, mirrored bool) []float64 {
	aligned := make([]float64, game.Cols)
	for col := range aligned {
		if mirrored {
			aligned[col] = policy[game.MirrorColumn(col)]
		} else {
			aligned[col] = policy[col]
		}
	}
	return aligned
}

// shapeTarget nudges visited columns toward the game outcome and clamps them.
// Unvisited columns stay at zero.
func shapeTarget(example TrainingExample) []float64 {
	boost := 0.0
	if example.Value > 0 {
		boost = winBoost * example.Value
	} else if example.Value < 0 {
		boost = lossBoost * example.Value
	}

	target := make([]float64, len(example.Policy))
	for i, p := range example.Policy {
		if p > 0 {
			target[i] = math.Max(minTarget, math.Min(maxTarget, p+boost))
		}
	}
	return target
}

// TrainOnExamples runs one training step per example, in order.
func (t *Trainer) TrainOnExamples(examples []TrainingExample, learningRate float64) {
	for _, example := range examples {
		t.learner.Train(example.State, shapeTarget(example), learningRate)
	}
}

// PlayEvaluationGame plays the network (greedy, EvaluationSimulations per
// move) against ai. It returns 1 for a network win, -1 for a loss and 0 for a draw.
func (t *Trainer) PlayEvaluationGame(ai *minimax.AI, nnFirst bool) int {
	nn := agent.NewEvaluationAgent(t.newMCTS(t.EvaluationSimulations()))
	opponent := agent.NewMinimaxAgent(ai)

	nnPlayer := game.Player1
	e := engine.LocalEngine(nn, opponent)
	if !nnFirst {
		nnPlayer = game.Player2
		e = engine.LocalEngine(opponent, nn)
	}

	winner, _, _ := e.Run()
	switch winner {
	case game.None:
		return 0
	case nnPlayer:
		return 1
	default:
		return -1
	}
}

// EvaluateAgainstMinimax plays games against a minimax opponent of the given
// depth, alternating who moves first.
func (t *Trainer) EvaluateAgainstMinimax(games, depth int) EvaluationResult {
	ai := minimax.New(depth)
	var result EvaluationResult

	log.Info().Msgf("evaluating against minimax (depth %d)...", depth)
	for i := 0; i < games; i++ {
		switch t.PlayEvaluationGame(ai, i%2 == 0) {
		case 1:
			result.Wins++
		case -1:
			result.Losses++
		default:
			result.Draws++
		}

		if (i+1)%evalLogEvery == 0 {
			log.Info().Msgf("game %d/%d - W:%d L:%d D:%d", i+1, games, result.Wins, result.Losses, result.Draws)
		}
	}
	log.Info().Msgf("evaluation complete: win rate = %.1f%%", result.WinRate()*100)

	return result
}

type TrainOptions struct {
	Iterations        int
	GamesPerIteration int
	EvalEvery         int // Evaluate after every N iterations; 0 disables
	LearningRate      float64
	EvalGames         int
	MinimaxDepth      int
	DatasetDir        string // Stores each iteration's examples as parquet when set
}

func (o TrainOptions) Validate() error {
	var errs []error
	if o.Iterations < 0 {
		errs = append(errs, fmt.Errorf("iterations must not be negative, got %d", o.Iterations))
	}
	if o.GamesPerIteration <= 0 {
		errs = append(errs, fmt.Errorf("games per iteration must be positive, got %d", o.GamesPerIteration))
	}
	if o.EvalEvery < 0 {
		errs = append(errs, fmt.Errorf("eval every must not be negative, got %d", o.EvalEvery))
	}
	if o.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learning rate must be positive, got %v", o.LearningRate))
	}
	if o.EvalEvery > 0 && (o.EvalGames <= 0 || o.MinimaxDepth <= 0) {
		errs = append(errs, fmt.Errorf("evaluation needs positive games and depth, got %d and %d", o.EvalGames, o.MinimaxDepth))
	}
	return errors.Join(errs...)
}

type IterationReport struct {
	Iteration   int // 1-based
	Games       int
	Examples    int
	Duration    time.Duration
	Evaluation  *EvaluationResult
	DatasetPath string
}

// Train runs self-play iterations. The context is checked between games; on
// cancellation the reports of completed iterations are returned with the error.
func (t *Trainer) Train(ctx context.Context, opts TrainOptions) ([]IterationReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training options: %w", err)
	}

	log.Info().
		Int("iterations", opts.Iterations).
		Int("games", opts.GamesPerIteration).
		Int("simulations", t.simulations).
		Float64("learning_rate", opts.LearningRate).
		Msg("starting training")

	reports := make([]IterationReport, 0, opts.Iterations)
	for iter := 1; iter <= opts.Iterations; iter++ {
		log.Info().Msgf("iteration %d/%d", iter, opts.Iterations)
		start := time.Now()

		var examples []TrainingExample
		for g := 0; g < opts.GamesPerIteration; g++ {
			if err := ctx.Err(); err != nil {
				return reports, fmt.Errorf("training stopped in iteration %d: %w", iter, err)
			}
			examples = append(examples, t.PlaySelfPlayGame()...)

			if (g+1)%selfPlayLogEvery == 0 {
				log.Info().Msgf("self-play game %d/%d complete (%d examples)", g+1, opts.GamesPerIteration, len(examples))
			}
		}
		log.Info().Msgf("collected %d training examples", len(examples))

		report := IterationReport{Iteration: iter, Games: opts.GamesPerIteration, Examples: len(examples)}
		if opts.DatasetDir != "" {
			path := filepath.Join(opts.DatasetDir, fmt.Sprintf("examples-%04d.parquet", iter))
			if err := WriteExamples(path, examples); err != nil {
				return reports, fmt.Errorf("failed to store iteration %d examples: %w", iter, err)
			}
			report.DatasetPath = path
		}

		t.rng.Shuffle(len(examples), func(i, j int) {
			examples[i], examples[j] = examples[j], examples[i]
		})
		t.TrainOnExamples(examples, opts.LearningRate)

		if opts.EvalEvery > 0 && iter%opts.EvalEvery == 0 {
			result := t.EvaluateAgainstMinimax(opts.EvalGames, opts.MinimaxDepth)
			report.Evaluation = &result
		}

		report.Duration = time.Since(start)
		reports = append(reports, report)
	}

	log.Info().Msg("training complete")
	return reports, nil
}
