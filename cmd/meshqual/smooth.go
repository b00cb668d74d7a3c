package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/notargets/MeshQual/config"
	"github.com/notargets/MeshQual/mesh"
	"github.com/notargets/MeshQual/objective"
	"github.com/notargets/MeshQual/partitions"
)

// newMethod returns a fresh gonum method for a smooth.method name.
func newMethod(name string) (optimize.Method, error) {
	switch name {
	case "lbfgs":
		return &optimize.LBFGS{Linesearcher: &optimize.Backtracking{}}, nil
	case "newton":
		return &optimize.Newton{Linesearcher: &optimize.Backtracking{}}, nil
	case "gradient":
		return &optimize.GradientDescent{Linesearcher: &optimize.Backtracking{}}, nil
	}
	return nil, fmt.Errorf("unknown optimization method %q", name)
}

// smoother sweeps the partitions of a mesh, minimizing the objective over
// the free vertices of each one in turn.
type smoother struct {
	objective   *objective.PMeanP
	partitioner func(*mesh.Patch) *partitions.PartitionBuilder
	freeOnly    bool
	cfg         config.SmoothConfig
	logger      *slog.Logger
}

func newSmoother(a *config.Assembly, cfg config.SmoothConfig, logger *slog.Logger) (*smoother, error) {
	if _, err := newMethod(cfg.Method); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &smoother{
		objective:   a.Objective,
		partitioner: a.Partitioner,
		freeOnly:    a.Patches.FreeOnly,
		cfg:         cfg,
		logger:      logger,
	}, nil
}

// value is the objective of the whole mesh, +Inf while any sample fails.
func (s *smoother) value(p *mesh.Patch) (float64, error) {
	v, ok, err := s.objective.Clone().Evaluate(objective.Calculate, p, s.freeOnly)
	if err != nil {
		return 0, err
	}
	if !ok {
		return math.Inf(1), nil
	}
	return v, nil
}

// Run smooths p in place and returns the objective before and after.
func (s *smoother) Run(ctx context.Context, p *mesh.Patch) (before, after float64, err error) {
	if before, err = s.value(p); err != nil {
		return 0, 0, err
	}
	after = before
	for pass := 1; pass <= s.cfg.Passes; pass++ {
		prev := after
		if err = s.sweep(ctx, p, pass); err != nil {
			return before, prev, err
		}
		if after, err = s.value(p); err != nil {
			return before, prev, err
		}
		s.logger.Info("smoothing pass", "pass", pass, "objective", after)
		if !math.IsInf(prev, 1) && prev-after <= s.cfg.Tolerance {
			break
		}
	}
	return before, after, nil
}

// sweep optimizes every partition once. The running total is kept with
// Accumulate, Save and Update so each patch only re-evaluates its own
// samples.
func (s *smoother) sweep(ctx context.Context, p *mesh.Patch, pass int) error {
	layout, err := s.partitioner(p).BuildPartitions()
	if err != nil {
		return err
	}
	running := s.objective.Clone()
	running.Clear()
	_, tracked, err := running.Evaluate(objective.Accumulate, p, false)
	if err != nil {
		return err
	}

	for i := range layout.Partitions {
		if err := ctx.Err(); err != nil {
			return err
		}
		sub, err := layout.Extract(p, i)
		if err != nil {
			return err
		}
		if len(sub.FreeVertices()) == 0 {
			sub.Destroy()
			continue
		}
		if tracked {
			_, tracked, err = running.Evaluate(objective.Save, sub, true)
			if err != nil {
				sub.Destroy()
				return err
			}
		}
		if err := s.optimize(sub); err != nil {
			sub.Destroy()
			return fmt.Errorf("pass %d partition %d: %w", pass, i, err)
		}
		p.CopyCoordsFrom(sub)
		if tracked {
			var v float64
			v, tracked, err = running.Evaluate(objective.Update, sub, true)
			if err != nil {
				sub.Destroy()
				return err
			}
			s.logger.Debug("partition smoothed", "pass", pass, "partition", i, "objective", v)
		}
		sub.Destroy()
	}
	return nil
}

// optimize minimizes the objective over the free vertices of sub and keeps
// the result only when it improves on the starting point.
func (s *smoother) optimize(sub *mesh.Patch) error {
	of := s.objective.Clone()
	prob := objective.Problem(of, sub)
	x0 := sub.FreeCoords()
	f0 := prob.Func(x0)
	if _, err := prob.Status(); err != nil {
		return err
	}
	if math.IsInf(f0, 1) {
		s.logger.Debug("skipping patch with a failing sample", "patch", sub.String())
		return sub.SetFreeCoords(x0)
	}

	method, err := newMethod(s.cfg.Method)
	if err != nil {
		return err
	}
	settings := &optimize.Settings{MajorIterations: s.cfg.Iterations}
	res, err := optimize.Minimize(prob, x0, settings, method)
	if _, serr := prob.Status(); serr != nil {
		return serr
	}
	if err != nil {
		s.logger.Debug("optimizer stopped", "error", err)
	}
	if res != nil && res.F < f0 {
		return sub.SetFreeCoords(res.X)
	}
	return sub.SetFreeCoords(x0)
}
