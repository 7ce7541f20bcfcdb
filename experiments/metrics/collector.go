package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Exploration float64
	Duration    time.Duration
	Simulations int
	Terminals   int // Simulations that ended on a decided or full board
	Nodes       int // Positions visited by a minimax search
}

type MoveMetric struct {
	Step   int
	Player int
	Column int
	SearchMetric
}

type GameMetric struct {
	GameID         string
	StartingPlayer int // Player ID
	Winner         int // Player ID, 0 for a draw
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
}

type Collector interface {
	Start(exploration float64)
	AddSimulation()
	AddTerminal()
	Complete() SearchMetric
}

type collector struct {
	exploration float64
	startTime   time.Time
	simulations atomic.Int32
	terminals   atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(exploration float64) {
	m.startTime = time.Now()
	m.exploration = exploration
	m.simulations.Store(0)
	m.terminals.Store(0)
}

func (m *collector) AddSimulation() {
	m.simulations.Add(1)
}

func (m *collector) AddTerminal() {
	m.terminals.Add(1)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Exploration: m.exploration,
		Duration:    time.Since(m.startTime),
		Simulations: int(m.simulations.Load()),
		Terminals:   int(m.terminals.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(exploration float64) {}
func (m *dummyCollector) AddSimulation()            {}
func (m *dummyCollector) AddTerminal()              {}
func (m *dummyCollector) Complete() SearchMetric    { return SearchMetric{} }
