package experiments

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"connectfour/engine"
	"connectfour/evaluator"
	"connectfour/experiments/metrics"
	"connectfour/game"
	"connectfour/minimax"
	"connectfour/searcher"
	"connectfour/searcher/agent"
)

const (
	KindHeuristic = "heuristic"
	KindLearned   = "learned"
	KindMinimax   = "minimax"
)

// MatchResult counts outcomes from the first config's point of view.
type MatchResult struct {
	Wins   int
	Losses int
	Draws  int
}

func (r MatchResult) Games() int {
	return r.Wins + r.Losses + r.Draws
}

func (r MatchResult) WinRate() float64 {
	if r.Games() == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Games())
}

// Arena plays matches between agent configs. Every game gets fresh agents so
// games can run on separate goroutines.
type Arena struct {
	predictor        evaluator.Predictor
	workers          int
	evaluatorOptions []evaluator.Option
}

// NewArena returns an arena running up to workers games at once. The
// predictor backs "learned" agents, configured with options, and may be nil
// otherwise.
func NewArena(predictor evaluator.Predictor, workers int, options ...evaluator.Option) *Arena {
	if workers < 1 {
		workers = 1
	}
	return &Arena{predictor: predictor, workers: workers, evaluatorOptions: options}
}

type gameResult struct {
	record metrics.GameRecord
	moves  []metrics.MoveMetric
	seat   game.Player // Played by config1
}

// RunMatch plays games between config1 and config2, alternating who moves
// first. Game IDs in the records start at firstID.
func (a *Arena) RunMatch(ctx context.Context, config1, config2 metrics.AgentConfig, games, firstID int) (MatchResult, []metrics.GameRecord, []metrics.MoveRecord, error) {
	for _, config := range []metrics.AgentConfig{config1, config2} {
		if _, err := a.CreateAgent(config); err != nil {
			return MatchResult{}, nil, nil, err
		}
	}

	results := make([]gameResult, games)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := 0; i < games; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			first, second, seat := config1, config2, game.Player1
			if i%2 == 1 {
				first, second, seat = config2, config1, game.Player2
			}
			agent1, _ := a.CreateAgent(first)
			agent2, _ := a.CreateAgent(second)

			_, gameMetric, moveMetrics := engine.LocalEngine(agent1, agent2).Run()
			results[i] = gameResult{
				record: metrics.GameRecord{
					ID:         firstID + i,
					Agent1:     first.ID,
					Agent2:     second.ID,
					GameMetric: gameMetric,
				},
				moves: moveMetrics,
				seat:  seat,
			}
			log.Debug().Msgf("game %d of %d: agent %d vs agent %d, winner %d", i+1, games, first.ID, second.ID, gameMetric.Winner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MatchResult{}, nil, nil, err
	}

	var result MatchResult
	gameRecords := make([]metrics.GameRecord, 0, games)
	moveRecords := []metrics.MoveRecord{}
	for _, r := range results {
		gameRecords = append(gameRecords, r.record)
		for _, mm := range r.moves {
			moveRecords = append(moveRecords, metrics.MoveRecord{Game: r.record.ID, MoveMetric: mm})
		}

		switch game.Player(r.record.Winner) {
		case game.None:
			result.Draws++
		case r.seat:
			result.Wins++
		default:
			result.Losses++
		}
	}
	return result, gameRecords, moveRecords, nil
}

// RunExperiment plays every match up and, when outputDir is set, stores the
// configs and records as CSV under outputDir/name.
func (a *Arena) RunExperiment(ctx context.Context, name string, configs []metrics.AgentConfig, matchUps [][2]metrics.AgentConfig, games int, outputDir string) ([]MatchResult, error) {
	log.Info().Msgf("starting %s experiment...", name)

	results := make([]MatchResult, 0, len(matchUps))
	gameRecords := []metrics.GameRecord{}
	moveRecords := []metrics.MoveRecord{}
	for mi, matchUp := range matchUps {
		log.Info().Msgf("starting matchup %d of %d between agent1=%+v and agent2=%+v...", mi+1, len(matchUps), matchUp[0], matchUp[1])

		result, matchGames, matchMoves, err := a.RunMatch(ctx, matchUp[0], matchUp[1], games, len(gameRecords)+1)
		if err != nil {
			return results, fmt.Errorf("matchup %d: %w", mi+1, err)
		}
		results = append(results, result)
		gameRecords = append(gameRecords, matchGames...)
		moveRecords = append(moveRecords, matchMoves...)

		log.Info().Msgf("completed matchup %d of %d: %d wins, %d losses, %d draws", mi+1, len(matchUps), result.Wins, result.Losses, result.Draws)
	}

	log.Info().Msgf("completed %s experiment", name)

	if outputDir == "" {
		return results, nil
	}
	writer, err := metrics.NewWriter(outputDir, name)
	if err != nil {
		return results, fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteAgentConfigs(configs); err != nil {
		return results, fmt.Errorf("failed to store agent configs: %w", err)
	}
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return results, fmt.Errorf("failed to write game records: %w", err)
	}
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return results, fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msgf("stored records in %s", writer.Dir())

	return results, nil
}

// CreateAgent builds the agent described by config. Searches play greedily.
func (a *Arena) CreateAgent(config metrics.AgentConfig) (agent.Agent, error) {
	var ev evaluator.Evaluator
	switch config.Kind {
	case KindMinimax:
		return agent.NewMinimaxAgent(minimax.New(config.Depth)), nil
	case KindHeuristic:
		ev = evaluator.NewHeuristic()
	case KindLearned:
		if a.predictor == nil {
			return nil, fmt.Errorf("agent %d: learned agent needs a network", config.ID)
		}
		ev = evaluator.NewLearned(a.predictor, a.evaluatorOptions...)
	default:
		return nil, fmt.Errorf("agent %d: unknown kind %q", config.ID, config.Kind)
	}

	if config.Simulations <= 0 && config.Duration <= 0 {
		return nil, fmt.Errorf("agent %d: search needs simulations or a duration", config.ID)
	}
	return agent.NewEvaluationAgent(createMCTS(config, ev)), nil
}

func createMCTS(config metrics.AgentConfig, ev evaluator.Evaluator) *searcher.MCTS {
	options := []searcher.Option{}

	if config.Simulations > 0 {
		options = append(options, searcher.WithSimulations(config.Simulations))
	}
	if config.Duration > 0 {
		options = append(options, searcher.WithDuration(config.Duration))
	}
	if config.Exploration > 0 {
		options = append(options, searcher.WithExploration(config.Exploration))
	}

	options = append(options, searcher.WithMetrics())
	return searcher.NewMCTS(ev, options...)
}
