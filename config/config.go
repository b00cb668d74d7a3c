// Package config loads the YAML description of a quality objective and
// assembles the metric, target calculator and objective it names.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Objective ObjectiveConfig `yaml:"objective"`
	Metric    MetricConfig    `yaml:"metric"`
	Target    TargetConfig    `yaml:"target"`
	Weight    WeightConfig    `yaml:"weight"`
	Patches   PatchConfig     `yaml:"patches"`
	Smooth    SmoothConfig    `yaml:"smooth"`
	Log       LogConfig       `yaml:"log"`
}

type ObjectiveConfig struct {
	Power float64 `yaml:"power" validate:"ne=0"`
}

type MetricConfig struct {
	Name string `yaml:"name" validate:"oneof=size shape shape_size det untangle_beta"`
	// Scale multiplies the metric; 1 leaves it unwrapped.
	Scale float64 `yaml:"scale" validate:"gt=0"`
	// Tolerance is the smallest determinant barrier metrics accept.
	Tolerance float64        `yaml:"tolerance" validate:"gte=0"`
	Beta      float64        `yaml:"beta"`
	Untangle  UntangleConfig `yaml:"untangle"`
}

type UntangleConfig struct {
	Enabled bool    `yaml:"enabled"`
	Sigma   float64 `yaml:"sigma" validate:"gt=0"`
	// Epsilon is relative to Sigma.
	Epsilon float64 `yaml:"epsilon" validate:"gte=0,lt=1"`
}

type TargetConfig struct {
	Kind       string      `yaml:"kind" validate:"oneof=identity reader lvqd"`
	Tag        string      `yaml:"tag"`
	Lambda     string      `yaml:"lambda" validate:"oneof=regular average"`
	Guides     GuideConfig `yaml:"guides"`
	MidElement bool        `yaml:"mid_element"`
}

type GuideConfig struct {
	Lambda string `yaml:"lambda" validate:"oneof=ideal reference"`
	V      string `yaml:"v" validate:"oneof=ideal reference"`
	Q      string `yaml:"q" validate:"oneof=ideal reference"`
	Delta  string `yaml:"delta" validate:"oneof=ideal reference"`
}

type WeightConfig struct {
	// Tag names per-sample weights; empty weighs every sample 1.
	Tag string `yaml:"tag"`
}

type PatchConfig struct {
	Strategy  string `yaml:"strategy" validate:"oneof=global vertex block round_robin"`
	Layers    int    `yaml:"layers" validate:"gte=1"`
	FreeOnly  bool   `yaml:"free_only"`
	BlockSize int    `yaml:"block_size" validate:"gte=1"`
}

type SmoothConfig struct {
	// Passes is the number of sweeps over all patches.
	Passes int `yaml:"passes" validate:"gte=1"`
	// Iterations bounds the optimizer iterations per patch.
	Iterations int    `yaml:"iterations" validate:"gte=1"`
	Method     string `yaml:"method" validate:"oneof=lbfgs newton gradient"`
	// Tolerance stops a sweep once the objective improves by less than it.
	Tolerance float64 `yaml:"tolerance" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

func Default() *Config {
	return &Config{
		Objective: ObjectiveConfig{Power: 2},
		Metric: MetricConfig{
			Name:      "shape_size",
			Scale:     1,
			Tolerance: 1e-12,
			Untangle:  UntangleConfig{Sigma: 1, Epsilon: 0.01},
		},
		Target: TargetConfig{
			Kind:   "identity",
			Lambda: "regular",
			Guides: GuideConfig{Lambda: "reference", V: "reference", Q: "reference", Delta: "reference"},
		},
		Patches: PatchConfig{Strategy: "global", Layers: 1, FreeOnly: true, BlockSize: 64},
		Smooth:  SmoothConfig{Passes: 5, Iterations: 100, Method: "lbfgs", Tolerance: 1e-8},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Parse overlays YAML onto the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Logger builds the slog logger the log section describes.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
