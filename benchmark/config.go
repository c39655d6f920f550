package benchmark

import (
	"github.com/YuminosukeSato/ngbench/datasets"
	"github.com/YuminosukeSato/ngbench/ngboost"
	"github.com/YuminosukeSato/ngbench/pkg/errors"
	"github.com/YuminosukeSato/ngbench/pkg/log"
)

// Config holds every setting of one benchmark run. The mapstructure tags are the
// viper keys, which are also the command-line flag names.
type Config struct {
	Dataset       string  `mapstructure:"dataset"`
	Reps          int     `mapstructure:"reps"`
	NEstimators   int     `mapstructure:"n-est"`
	NSplits       int     `mapstructure:"n-splits"`
	Distn         string  `mapstructure:"distn"`
	LearningRate  float64 `mapstructure:"lr"`
	Natural       bool    `mapstructure:"natural"`
	Score         string  `mapstructure:"score"`
	Base          string  `mapstructure:"base"`
	MinibatchFrac float64 `mapstructure:"minibatch-frac"` // 0 means 1.0
	Verbose       bool    `mapstructure:"verbose"`

	DataDir    string `mapstructure:"data-dir"`
	ResultsDir string `mapstructure:"results-dir"`
	PlotDir    string `mapstructure:"plot-dir"`
	Source     string `mapstructure:"source"`
	Seed       uint64 `mapstructure:"seed"`
	LogLevel   string `mapstructure:"log-level"`

	RunID string `mapstructure:"-"`
}

// DefaultConfig returns the defaults of the command-line program.
func DefaultConfig() Config {
	return Config{
		Dataset:      "concrete",
		Reps:         5,
		NEstimators:  200,
		NSplits:      20,
		Distn:        "Normal",
		LearningRate: 0.1,
		Score:        "CRPS",
		Base:         "tree",
		DataDir:      datasets.DefaultDataDir,
		ResultsDir:   "results/regression",
		Seed:         1,
		LogLevel:     "info",
	}
}

// EffectiveMinibatchFrac resolves an unset minibatch fraction to 1.0.
func (c *Config) EffectiveMinibatchFrac() float64 {
	if c.MinibatchFrac == 0 {
		return 1.0
	}
	return c.MinibatchFrac
}

// Validate checks names against the registries and numeric ranges.
func (c *Config) Validate() error {
	if _, err := datasets.Lookup(c.Dataset); err != nil {
		return err
	}
	if _, err := ngboost.FamilyByName(c.Distn); err != nil {
		return err
	}
	if _, err := ngboost.ScoreByName(c.Score); err != nil {
		return err
	}
	if _, err := ngboost.LearnerByName(c.Base); err != nil {
		return err
	}
	if c.NEstimators < 1 {
		return errors.NewValidationError("n-est", "must be at least 1", c.NEstimators)
	}
	if c.NSplits < 2 {
		return errors.NewValidationError("n-splits", "must be at least 2", c.NSplits)
	}
	if c.LearningRate <= 0 {
		return errors.NewValidationError("lr", "must be positive", c.LearningRate)
	}
	if f := c.EffectiveMinibatchFrac(); f <= 0 || f > 1 {
		return errors.NewValidationError("minibatch-frac", "must be in (0, 1]", c.MinibatchFrac)
	}
	if c.Reps < 0 {
		return errors.NewValidationError("reps", "must be non-negative", c.Reps)
	}
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return errors.NewValidationError("log-level", "must be one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}
