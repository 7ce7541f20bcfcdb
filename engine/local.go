package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"connectfour/experiments/metrics"
	"connectfour/game"
	"connectfour/gamemaster"
	"connectfour/searcher/agent"
)

type Option func(e *localEngine)

// WithObserver registers a callback invoked after every accepted move.
func WithObserver(observer func(gamemaster.Update)) Option {
	return func(e *localEngine) {
		e.observer = observer
	}
}

type localEngine struct {
	agents   [2]agent.Agent
	observer func(gamemaster.Update)
}

// LocalEngine runs a game between two in-process agents. The first agent
// plays Player1 and moves first.
func LocalEngine(first, second agent.Agent, options ...Option) Engine {
	if first == nil || second == nil {
		panic("need two agents")
	}
	e := &localEngine{agents: [2]agent.Agent{first, second}}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *localEngine) Run() (game.Player, metrics.GameMetric, []metrics.MoveMetric) {
	referee := gamemaster.NewLocalEngine()
	board, getUpdate := referee.Init()

	gameMetric := metrics.GameMetric{
		GameID:         uuid.NewString(),
		StartingPlayer: int(game.Player1),
		StartTime:      time.Now(),
	}
	log.Debug().Str("game", gameMetric.GameID).Msg("starting game")

	var moveMetrics []metrics.MoveMetric
	for step := 1; !referee.IsOver() && step <= MaxMoves; step++ {
		player := referee.ToMove()
		move, searchMetric := e.agents[player-1].FindMove(board, player)

		if err := referee.Play(move); err != nil {
			// Keep the game going with the first legal column
			log.Warn().Err(err).Msgf("player %v chose column %d", player, move)
			move = board.ValidMoves()[0]
			if err := referee.Play(move); err != nil {
				panic(err)
			}
		}
		moveMetrics = append(moveMetrics, metrics.MoveMetric{
			Step:         step,
			Player:       int(player),
			Column:       move,
			SearchMetric: searchMetric,
		})

		u, ok := getUpdate()
		if !ok {
			panic("no update after an accepted move")
		}
		board = u.Board
		if e.observer != nil {
			e.observer(u)
		}
	}

	winner := referee.Winner()
	gameMetric.Winner = int(winner)
	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = len(moveMetrics)
	log.Debug().Str("game", gameMetric.GameID).Msgf("winner %v after %d moves", winner, gameMetric.TotalMoves)

	return winner, gameMetric, moveMetrics
}
