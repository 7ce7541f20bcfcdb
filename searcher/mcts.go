package searcher

import (
	"time"

	"github.com/rs/zerolog/log"

	"connectfour/evaluator"
	"connectfour/experiments/metrics"
	"connectfour/game"
)

const DefaultExploration = 1.414

type Option func(m *MCTS)

// MCTS is a PUCT tree search guided by an Evaluator. Each search call builds
// a fresh tree; the root's statistics stay readable until the next call.
type MCTS struct {
	evaluator   evaluator.Evaluator
	exploration float64
	simulations int
	duration    time.Duration
	root        *node
	metrics     metrics.Collector
	metric      metrics.SearchMetric
}

func WithExploration(c float64) Option {
	return func(m *MCTS) {
		if c > 0 {
			m.exploration = c
		}
	}
}

// WithSimulations sets the budget used by Search.
func WithSimulations(simulations int) Option {
	return func(m *MCTS) {
		if simulations > 0 {
			m.simulations = simulations
		}
	}
}

// WithDuration sets the wall-clock budget used by Search when no simulation
// count is configured.
func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

func NewMCTS(ev evaluator.Evaluator, options ...Option) *MCTS {
	if ev == nil {
		panic("MCTS needs an evaluator")
	}
	m := &MCTS{ // Default values
		evaluator:   ev,
		exploration: DefaultExploration,
		metrics:     metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Search runs the configured budget and returns the number of simulations.
func (m *MCTS) Search(b game.Board, player game.Player) int {
	if m.simulations > 0 {
		return m.SearchSimulations(b, player, m.simulations)
	}
	if m.duration > 0 {
		return m.SearchTime(b, player, m.duration)
	}
	panic("Must specify search simulations or duration")
}

// SearchSimulations expands the root and then runs exactly n simulations.
func (m *MCTS) SearchSimulations(b game.Board, player game.Player, n int) int {
	m.reset(b, player)
	for i := 0; i < n; i++ {
		m.simulate()
	}
	m.metric = m.metrics.Complete()
	return n
}

// SearchTime runs simulations until limit has elapsed, checking the clock
// once per simulation, and returns how many completed.
func (m *MCTS) SearchTime(b game.Board, player game.Player, limit time.Duration) int {
	m.reset(b, player)
	start := time.Now()
	count := 0
	for time.Since(start) < limit {
		m.simulate()
		count++
	}
	m.metric = m.metrics.Complete()
	log.Debug().Int("simulations", count).Dur("limit", limit).Msg("timed search complete")
	return count
}

func (m *MCTS) reset(b game.Board, player game.Player) {
	m.metrics.Start(m.exploration)
	m.root = newNode(nil, b, player, -1, 1)
	if !m.root.terminal {
		priors, _ := m.evaluator.Evaluate(&m.root.board, m.root.player)
		m.root.expand(priors)
	}
}

func (m *MCTS) simulate() {
	leaf := m.selectLeaf()
	if !leaf.terminal && leaf.visits > 0 {
		priors, _ := m.evaluator.Evaluate(&leaf.board, leaf.player)
		leaf.expand(priors)
		// Evaluate the new child with the highest prior.
		leaf = leaf.highestPrior()
	}
	leaf.backup(m.evaluate(leaf))
	m.metrics.AddSimulation()
}

func (m *MCTS) selectLeaf() *node {
	current := m.root
	for current.fullyExpanded() && !current.terminal {
		current = current.selectChild(m.exploration)
	}
	return current
}

// evaluate returns the value of a leaf from the root player's perspective.
func (m *MCTS) evaluate(leaf *node) float64 {
	if leaf.terminal {
		m.metrics.AddTerminal()
		switch leaf.winner {
		case game.None:
			return 0
		case m.root.player:
			return 1
		default:
			return -1
		}
	}

	_, value := m.evaluator.Evaluate(&leaf.board, leaf.player)
	if leaf.depth%2 == 1 {
		value = -value
	}
	return value
}

// Metric returns the statistics of the last search if WithMetrics was set.
func (m *MCTS) Metric() metrics.SearchMetric {
	return m.metric
}
