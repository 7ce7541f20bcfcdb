package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"connectfour/config"
	"connectfour/engine"
	"connectfour/evaluator"
	"connectfour/experiments"
	"connectfour/experiments/metrics"
	"connectfour/game"
	"connectfour/gamemaster"
	"connectfour/minimax"
	"connectfour/network"
	"connectfour/player"
	"connectfour/searcher"
	"connectfour/searcher/agent"
	"connectfour/trainer"
)

const usage = `usage: connectfour <command> [flags]

commands:
  train      train a new network with self-play
  continue   continue training the saved network
  play       play against the network
  watch      watch the network play minimax
  evaluate   evaluate the network against minimax
  bench      run an arena between search agents and store the records
  serve      serve an agent over HTTP
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Error().Err(err).Msgf("%s failed", os.Args[1])
		os.Exit(1)
	}
}

type command func(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error

func run(ctx context.Context, name string, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	logLevel := fs.String("log-level", "", "log level, overrides the config")
	weights := fs.String("weights", "", "weights file, overrides the config")

	var (
		iterations   = fs.Int("iterations", 0, "training iterations")
		games        = fs.Int("games", 0, "games per training iteration or evaluation")
		evalEvery    = fs.Int("eval-every", -1, "evaluate every N iterations, 0 disables")
		learningRate = fs.Float64("learning-rate", 0, "learning rate")
		depth        = fs.Int("depth", 0, "minimax depth")
		first        = fs.Bool("first", true, "move first when playing")
		step         = fs.Bool("step", false, "wait for enter between moves")
		outputDir    = fs.String("out", "", "directory for arena records")
		workers      = fs.Int("workers", 0, "games to run at once")
		addr         = fs.String("addr", ":8080", "address to serve the agent on")
		kind         = fs.String("kind", experiments.KindLearned, "agent to serve: heuristic, learned or minimax")
		remote       = fs.String("remote", "", "agent server URL to watch instead of minimax")
	)

	var cmd command
	switch name {
	case "train":
		cmd = func(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
			return train(ctx, cfg, false, out)
		}
	case "continue":
		cmd = func(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
			return train(ctx, cfg, true, out)
		}
	case "play":
		cmd = func(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
			return play(cfg, *first, in, out)
		}
	case "watch":
		cmd = func(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
			return watch(cfg, *step, *remote, in, out)
		}
	case "evaluate":
		cmd = func(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
			return evaluate(cfg, out)
		}
	case "bench":
		cmd = bench
	case "serve":
		cmd = func(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
			return serve(ctx, cfg, *kind, *addr)
		}
	default:
		return fmt.Errorf("unknown command %q\n%s", name, usage)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Flags override the config
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *weights != "" {
		cfg.Network.WeightsFile = *weights
	}
	if *iterations > 0 {
		cfg.Training.Iterations = *iterations
	}
	if *games > 0 {
		cfg.Training.GamesPerIteration = *games
		cfg.Evaluation.Games = *games
	}
	if *evalEvery >= 0 {
		cfg.Training.EvalEvery = *evalEvery
	}
	if *learningRate > 0 {
		cfg.Training.LearningRate = *learningRate
	}
	if *depth > 0 {
		cfg.Evaluation.MinimaxDepth = *depth
	}
	if *outputDir != "" {
		cfg.Evaluation.OutputDir = *outputDir
	}
	if *workers > 0 {
		cfg.Evaluation.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := setupLogging(cfg.LogLevel); err != nil {
		return err
	}
	return cmd(ctx, cfg, in, out)
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	return nil
}

func evaluatorOptions(cfg config.Config) []evaluator.Option {
	var options []evaluator.Option
	if cfg.Search.TacticalBoost {
		options = append(options, evaluator.WithTacticalBoost())
	}
	if cfg.Search.ConcentrationValue {
		options = append(options, evaluator.WithConcentrationValue())
	}
	return options
}

func loadNetwork(cfg config.Config) (*network.Network, error) {
	net, err := network.Load(cfg.Network.WeightsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no trained network found at %s, train first: %w", cfg.Network.WeightsFile, err)
	}
	if err != nil {
		return nil, err
	}
	if net.InputCount() != game.InputSize || net.OutputCount() != game.Cols {
		return nil, fmt.Errorf("weights at %s: %w", cfg.Network.WeightsFile, network.ErrShapeMismatch)
	}
	return net, nil
}

func train(ctx context.Context, cfg config.Config, resume bool, out io.Writer) error {
	rng := cfg.Rand()

	var net *network.Network
	if resume {
		var loaded bool
		net, loaded = network.LoadOrNew(cfg.Network.WeightsFile, cfg.Network.Hidden, rng)
		if loaded {
			log.Info().Msgf("loaded existing network from %s", cfg.Network.WeightsFile)
		}
	} else {
		log.Info().Msg("creating new network...")
		net = network.New(game.InputSize, cfg.Network.Hidden, game.Cols, rng)
	}

	t := trainer.New(net,
		trainer.WithSimulations(cfg.Search.Simulations),
		trainer.WithExploration(cfg.Search.Exploration),
		trainer.WithSchedule(cfg.Training.TemperatureSchedule),
		trainer.WithRand(rng),
		trainer.WithEvaluatorOptions(evaluatorOptions(cfg)...),
	)
	reports, trainErr := t.Train(ctx, trainer.TrainOptions{
		Iterations:        cfg.Training.Iterations,
		GamesPerIteration: cfg.Training.GamesPerIteration,
		EvalEvery:         cfg.Training.EvalEvery,
		LearningRate:      cfg.Training.LearningRate,
		EvalGames:         cfg.Evaluation.Games,
		MinimaxDepth:      cfg.Evaluation.MinimaxDepth,
		DatasetDir:        cfg.Training.DatasetDir,
	})

	for _, report := range reports {
		fmt.Fprintf(out, "iteration %d: %d games, %d examples, %s", report.Iteration, report.Games, report.Examples, report.Duration.Round(time.Millisecond))
		if report.Evaluation != nil {
			fmt.Fprintf(out, ", win rate %.1f%%", report.Evaluation.WinRate()*100)
		}
		fmt.Fprintln(out)
	}

	// Completed iterations are kept even when training was interrupted
	if len(reports) > 0 || trainErr == nil {
		if err := net.Save(cfg.Network.WeightsFile); err != nil {
			return errors.Join(trainErr, err)
		}
		fmt.Fprintf(out, "Network saved to %s\n", cfg.Network.WeightsFile)
	}
	return trainErr
}

func play(cfg config.Config, humanFirst bool, in io.Reader, out io.Writer) error {
	net, err := loadNetwork(cfg)
	if err != nil {
		return err
	}
	d := newDisplay(out)
	human := player.NewHuman(in, out)
	mcts := searcher.NewMCTS(evaluator.NewLearned(net, evaluatorOptions(cfg)...),
		searcher.WithExploration(cfg.Search.Exploration))

	humanPlayer := game.Player1
	if !humanFirst {
		humanPlayer = game.Player2
	}
	d.printf("\nYou are %v, AI is %v.\n", humanPlayer, humanPlayer.Opponent())

	referee := gamemaster.NewLocalEngine()
	board, getUpdate := referee.Init()
	for !referee.IsOver() {
		d.printBoard(board)
		current := referee.ToMove()

		var col int
		if current == humanPlayer {
			col, _ = human.FindMove(board, current)
			if err := human.Err(); err != nil {
				return err
			}
		} else {
			d.printf("AI is thinking (running MCTS for %s)...\n", cfg.Search.TimeLimit)
			mcts.SearchTime(board, current, cfg.Search.TimeLimit)
			col = mcts.SelectBestMove()
			d.printf("AI plays column %d\nPosition value: %.3f\n", col, mcts.RootValue())
		}

		if err := referee.Play(col); err != nil {
			return err
		}
		u, _ := getUpdate()
		board = u.Board
	}

	d.printBoard(board)
	d.printOutcome(referee.Winner(), humanPlayer, "Congratulations! You won!", "AI wins!")
	return nil
}

// narrated prints a line after its agent picks a move.
type narrated struct {
	agent.Agent
	describe func(move int, metric metrics.SearchMetric) string
	d        *display
}

func (n narrated) FindMove(b game.Board, p game.Player) (int, metrics.SearchMetric) {
	move, metric := n.Agent.FindMove(b, p)
	n.d.printf("%s\n", n.describe(move, metric))
	return move, metric
}

func watch(cfg config.Config, step bool, remote string, in io.Reader, out io.Writer) error {
	net, err := loadNetwork(cfg)
	if err != nil {
		return err
	}
	d := newDisplay(out)
	depth := cfg.Evaluation.MinimaxDepth

	mcts := searcher.NewMCTS(evaluator.NewLearned(net, evaluatorOptions(cfg)...),
		searcher.WithExploration(cfg.Search.Exploration),
		searcher.WithSimulations(cfg.Search.WatchSimulations))
	nn := narrated{
		Agent: agent.NewEvaluationAgent(mcts),
		describe: func(move int, _ metrics.SearchMetric) string {
			return fmt.Sprintf("NN plays column %d (value: %.3f)", move, mcts.RootValue())
		},
		d: d,
	}
	mm := narrated{
		Agent: agent.NewMinimaxAgent(minimax.New(depth)),
		describe: func(move int, metric metrics.SearchMetric) string {
			return fmt.Sprintf("Minimax plays column %d (nodes: %d)", move, metric.Nodes)
		},
		d: d,
	}
	opponent := fmt.Sprintf("Minimax depth %d", depth)
	if remote != "" {
		opponent = remote
		mm.Agent = engine.RemoteAgent(remote, nil)
		mm.describe = func(move int, _ metrics.SearchMetric) string {
			return fmt.Sprintf("Remote agent plays column %d", move)
		}
	}

	reader := bufio.NewReader(in)
	d.printf("\nNeural Network (%v) vs %s (%v)\n", game.Player1, opponent, game.Player2)
	d.printBoard(game.NewBoard())
	e := engine.LocalEngine(nn, mm, engine.WithObserver(func(u gamemaster.Update) {
		d.printBoard(u.Board)
		if step {
			_, _ = reader.ReadString('\n')
		}
	}))

	winner, gameMetric, _ := e.Run()
	d.printOutcome(winner, game.Player1, "Neural Network wins!", opponent+" wins!")
	log.Info().Str("game", gameMetric.GameID).Msgf("game took %d moves in %s", gameMetric.TotalMoves, gameMetric.Duration.Round(time.Millisecond))
	return nil
}

func evaluate(cfg config.Config, out io.Writer) error {
	net, err := loadNetwork(cfg)
	if err != nil {
		return err
	}
	t := trainer.New(net,
		trainer.WithSimulations(cfg.Search.Simulations),
		trainer.WithEvaluationSimulations(cfg.Evaluation.Simulations),
		trainer.WithExploration(cfg.Search.Exploration),
		trainer.WithRand(cfg.Rand()),
		trainer.WithEvaluatorOptions(evaluatorOptions(cfg)...),
	)
	result := t.EvaluateAgainstMinimax(cfg.Evaluation.Games, cfg.Evaluation.MinimaxDepth)

	fmt.Fprintf(out, "\n=== Evaluation Results ===\nWins: %d\nLosses: %d\nDraws: %d\nWin rate: %.1f%%\n",
		result.Wins, result.Losses, result.Draws, result.WinRate()*100)
	return nil
}

func bench(ctx context.Context, cfg config.Config, _ io.Reader, out io.Writer) error {
	configs := []metrics.AgentConfig{
		{ID: 1, Kind: experiments.KindHeuristic, Simulations: cfg.Evaluation.Simulations, Exploration: cfg.Search.Exploration},
		{ID: 2, Kind: experiments.KindMinimax, Depth: cfg.Evaluation.MinimaxDepth},
	}
	matchUps := [][2]metrics.AgentConfig{{configs[0], configs[1]}}

	var predictor evaluator.Predictor
	if net, err := loadNetwork(cfg); err == nil {
		predictor = net
		learned := metrics.AgentConfig{ID: 3, Kind: experiments.KindLearned, Simulations: cfg.Evaluation.Simulations, Exploration: cfg.Search.Exploration}
		configs = append(configs, learned)
		matchUps = append(matchUps, [2]metrics.AgentConfig{learned, configs[1]}, [2]metrics.AgentConfig{learned, configs[0]})
	} else {
		log.Info().Err(err).Msg("skipping learned agent")
	}

	arena := experiments.NewArena(predictor, cfg.Evaluation.Workers, evaluatorOptions(cfg)...)
	results, err := arena.RunExperiment(ctx, "bench", configs, matchUps, cfg.Evaluation.Games, cfg.Evaluation.OutputDir)
	if err != nil {
		return err
	}

	for i, result := range results {
		fmt.Fprintf(out, "agent %d vs agent %d: W:%d L:%d D:%d (%.1f%%)\n",
			matchUps[i][0].ID, matchUps[i][1].ID, result.Wins, result.Losses, result.Draws, result.WinRate()*100)
	}
	return nil
}

func serve(ctx context.Context, cfg config.Config, kind, addr string) error {
	agentConfig := metrics.AgentConfig{
		Kind:        kind,
		Simulations: cfg.Search.Simulations,
		Exploration: cfg.Search.Exploration,
		Depth:       cfg.Evaluation.MinimaxDepth,
	}

	var predictor evaluator.Predictor
	if kind == experiments.KindLearned {
		net, err := loadNetwork(cfg)
		if err != nil {
			return err
		}
		predictor = net
	}
	a, err := experiments.NewArena(predictor, 1, evaluatorOptions(cfg)...).CreateAgent(agentConfig)
	if err != nil {
		return err
	}
	return agent.StartAgentServer(ctx, addr, a)
}
