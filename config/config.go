// Package config loads run settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"connectfour/searcher/agent"
)

type Search struct {
	Exploration      float64       `yaml:"exploration"`
	Simulations      int           `yaml:"simulations"`
	TimeLimit        time.Duration `yaml:"time_limit"`
	WatchSimulations int           `yaml:"watch_simulations"`
	// Learned evaluator extras
	TacticalBoost      bool `yaml:"tactical_boost"`
	ConcentrationValue bool `yaml:"concentration_value"`
}

type Network struct {
	Hidden      int    `yaml:"hidden"`
	WeightsFile string `yaml:"weights_file"`
}

type Training struct {
	Iterations          int                       `yaml:"iterations"`
	GamesPerIteration   int                       `yaml:"games_per_iteration"`
	EvalEvery           int                       `yaml:"eval_every"`
	LearningRate        float64                   `yaml:"learning_rate"`
	Seed                uint64                    `yaml:"seed"` // 0 draws a random seed
	TemperatureSchedule agent.TemperatureSchedule `yaml:"temperature_schedule"`
	DatasetDir          string                    `yaml:"dataset_dir"`
}

type Evaluation struct {
	Games        int    `yaml:"games"`
	MinimaxDepth int    `yaml:"minimax_depth"`
	Simulations  int    `yaml:"simulations"`
	Workers      int    `yaml:"workers"`
	OutputDir    string `yaml:"output_dir"`
}

type Config struct {
	Search     Search     `yaml:"search"`
	Network    Network    `yaml:"network"`
	Training   Training   `yaml:"training"`
	Evaluation Evaluation `yaml:"evaluation"`
	LogLevel   string     `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Search: Search{
			Exploration:      1.414,
			Simulations:      800,
			TimeLimit:        2 * time.Second,
			WatchSimulations: 400,
		},
		Network: Network{
			Hidden:      256,
			WeightsFile: "connectfour_mcts_weights.bin",
		},
		Training: Training{
			Iterations:          10,
			GamesPerIteration:   50,
			EvalEvery:           5,
			LearningRate:        0.001,
			TemperatureSchedule: agent.DefaultSchedule(),
		},
		Evaluation: Evaluation{
			Games:        20,
			MinimaxDepth: 6,
			Simulations:  400,
			Workers:      1,
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, field string, value any) {
		if !ok {
			errs = append(errs, fmt.Errorf("invalid %s: %v", field, value))
		}
	}

	check(c.Search.Exploration > 0, "search.exploration", c.Search.Exploration)
	check(c.Search.Simulations > 0, "search.simulations", c.Search.Simulations)
	check(c.Search.TimeLimit > 0, "search.time_limit", c.Search.TimeLimit)
	check(c.Search.WatchSimulations > 0, "search.watch_simulations", c.Search.WatchSimulations)
	check(c.Network.Hidden > 0, "network.hidden", c.Network.Hidden)
	check(c.Network.WeightsFile != "", "network.weights_file", c.Network.WeightsFile)
	check(c.Training.Iterations >= 0, "training.iterations", c.Training.Iterations)
	check(c.Training.GamesPerIteration > 0, "training.games_per_iteration", c.Training.GamesPerIteration)
	check(c.Training.EvalEvery >= 0, "training.eval_every", c.Training.EvalEvery)
	check(c.Training.LearningRate > 0, "training.learning_rate", c.Training.LearningRate)
	if err := c.Training.TemperatureSchedule.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("invalid training.temperature_schedule: %w", err))
	}
	check(c.Evaluation.Games > 0, "evaluation.games", c.Evaluation.Games)
	check(c.Evaluation.MinimaxDepth > 0, "evaluation.minimax_depth", c.Evaluation.MinimaxDepth)
	check(c.Evaluation.Simulations > 0, "evaluation.simulations", c.Evaluation.Simulations)
	check(c.Evaluation.Workers > 0, "evaluation.workers", c.Evaluation.Workers)
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log_level: %w", err))
	}

	return errors.Join(errs...)
}

// Rand returns a generator seeded from training.seed, or from a random seed
// when none is set.
func (c Config) Rand() *rand.Rand {
	seed := c.Training.Seed
	if seed == 0 {
		seed = frand.Uint64n(math.MaxUint64)
	}
	return rand.New(rand.NewSource(seed))
}
