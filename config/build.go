package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/notargets/MeshQual/mesh"
	"github.com/notargets/MeshQual/metric"
	"github.com/notargets/MeshQual/objective"
	"github.com/notargets/MeshQual/partitions"
	"github.com/notargets/MeshQual/quality"
	"github.com/notargets/MeshQual/target"
	"github.com/notargets/MeshQual/telemetry"
)

// ErrNoReference is returned when the lvqd target has no reference patch.
var ErrNoReference = errors.New("config: lvqd target needs a reference mesh")

// Assembly is everything a configuration builds.
type Assembly struct {
	Metric3D  metric.Metric3D
	Metric2D  metric.Metric2D
	Targets   target.Calculator
	Weights   target.WeightCalculator
	Quality   *quality.TMPQualityMetric
	Objective *objective.PMeanP
	Strategy  partitions.PatchStrategy
	Patches   PatchConfig
}

// Users are the calculators keeping per-patch data. They must be attached to
// every patch the objective sees.
func (a *Assembly) Users() []mesh.ExtraDataUser {
	var out []mesh.ExtraDataUser
	if u, ok := a.Targets.(mesh.ExtraDataUser); ok {
		out = append(out, u)
	}
	if u, ok := a.Weights.(mesh.ExtraDataUser); ok {
		out = append(out, u)
	}
	return out
}

// Bind attaches the users to the full working mesh p and, for an lvqd
// target, checks that the reference has the same topology as p.
func (a *Assembly) Bind(p *mesh.Patch) error {
	for _, u := range a.Users() {
		p.Attach(u)
	}
	if lvqd, ok := a.Targets.(*target.LVQD); ok {
		if err := lvqd.CheckTopology(p); err != nil {
			return err
		}
	}
	return nil
}

// Partitioner returns a partition builder for p following the patches section.
func (a *Assembly) Partitioner(p *mesh.Patch) *partitions.PartitionBuilder {
	return &partitions.PartitionBuilder{
		Patch:               p,
		Strategy:            a.Strategy,
		TargetPartitionSize: a.Patches.BlockSize,
		Layers:              a.Patches.Layers,
		FreeVerticesOnly:    a.Patches.FreeOnly,
	}
}

// Build assembles the objective. reference is only used by the lvqd target
// and may be nil otherwise; rec may be nil.
func (c *Config) Build(reference *mesh.Patch, logger *slog.Logger, rec telemetry.Recorder) (*Assembly, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	a := &Assembly{Patches: c.Patches}
	var err error
	if a.Metric3D, a.Metric2D, err = c.Metric.build(); err != nil {
		return nil, err
	}
	if a.Targets, err = c.Target.build(reference, logger); err != nil {
		return nil, err
	}
	if c.Weight.Tag != "" {
		a.Weights = target.NewWeightReader(c.Weight.Tag)
	}
	if a.Strategy, err = partitions.ParseStrategy(c.Patches.Strategy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	a.Quality = quality.New(a.Metric3D, a.Metric2D, a.Targets)
	a.Quality.Weights = a.Weights
	a.Quality.MidElement = c.Target.MidElement
	if a.Objective, err = objective.NewPMeanP(c.Objective.Power, a.Quality); err != nil {
		return nil, err
	}
	a.Objective.Logger = logger
	a.Objective.Recorder = rec
	return a, nil
}

func (c MetricConfig) build() (metric.Metric3D, metric.Metric2D, error) {
	m3, err := metric.New3D(c.Name)
	if err != nil {
		return nil, nil, err
	}
	m2, err := metric.New2D(c.Name)
	if err != nil {
		return nil, nil, err
	}
	if c.Name == "untangle_beta" {
		m3, m2 = metric.UntangleBeta3D{Beta: c.Beta}, metric.UntangleBeta2D{Beta: c.Beta}
	}
	metric.SetTolerance(m3, c.Tolerance)
	metric.SetTolerance(m2, c.Tolerance)
	if c.Scale != 1 {
		m3, m2 = metric.NewScale3D(c.Scale, m3), metric.NewScale2D(c.Scale, m2)
	}
	if u := c.Untangle; u.Enabled {
		m3 = metric.NewUntangleMu3DEps(m3, u.Sigma, u.Epsilon*u.Sigma)
		m2 = metric.NewUntangleMu2DEps(m2, u.Sigma, u.Epsilon*u.Sigma)
	}
	return m3, m2, nil
}

func (c TargetConfig) build(reference *mesh.Patch, logger *slog.Logger) (target.Calculator, error) {
	switch c.Kind {
	case "identity":
		return target.Identity{}, nil
	case "reader":
		return target.NewReader(c.Tag), nil
	}
	if reference == nil {
		return nil, ErrNoReference
	}
	calc := target.NewLVQD(reference)
	calc.Logger = logger
	var err error
	if calc.LambdaMode, err = target.ParseLambdaMode(c.Lambda); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for _, g := range []struct {
		name string
		dst  *target.GuideSource
	}{
		{c.Guides.Lambda, &calc.Lambda},
		{c.Guides.V, &calc.Orientation},
		{c.Guides.Q, &calc.Shape},
		{c.Guides.Delta, &calc.Aspect},
	} {
		if *g.dst, err = target.ParseGuideSource(g.name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return calc, nil
}
