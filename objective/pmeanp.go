// Package objective aggregates per-sample quality values into the scalar an
// optimizer minimises.
package objective

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/MeshQual/matrix"
	"github.com/notargets/MeshQual/mesh"
	"github.com/notargets/MeshQual/quality"
	"github.com/notargets/MeshQual/telemetry"
)

var (
	ErrInvalidPower = errors.New("objective: invalid power")
	ErrNoMetric     = errors.New("objective: no quality metric")
)

// QualityMetric is the per-sample evaluator wrapped by an objective.
type QualityMetric interface {
	Name() string
	Handles(p *mesh.Patch, freeOnly bool) ([]quality.Handle, error)
	Evaluate(p *mesh.Patch, h quality.Handle) (float64, bool, error)
	EvaluateWithGradient(p *mesh.Patch, h quality.Handle) (quality.Result, bool, error)
	EvaluateWithHessian(p *mesh.Patch, h quality.Handle) (quality.Result, bool, error)
}

var _ QualityMetric = (*quality.TMPQualityMetric)(nil)

// PMeanP is the power mean sum(v^p)/n of the sample values of a quality
// metric. Larger powers weigh the worst samples more heavily.
//
// The running totals are plain fields; a PMeanP must not be evaluated from
// more than one goroutine at a time. Clone gives each worker its own totals.
type PMeanP struct {
	Metric   QualityMetric
	Logger   *slog.Logger
	Recorder telemetry.Recorder

	power float64
	state accumState
}

func NewPMeanP(power float64, qm QualityMetric) (*PMeanP, error) {
	o := &PMeanP{Metric: qm}
	if err := o.SetPower(power); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *PMeanP) Power() float64 { return o.power }

// SetPower accepts any finite non-zero power. Powers that are undefined for a
// particular sample value, such as a fractional power of a negative value,
// fail that evaluation instead.
func (o *PMeanP) SetPower(p float64) error {
	if p == 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidPower, p)
	}
	o.power = p
	return nil
}

// Clone returns an independent copy holding its own running totals.
func (o *PMeanP) Clone() *PMeanP {
	c := *o
	return &c
}

// Clear discards the running and saved totals.
func (o *PMeanP) Clear() { o.state = accumState{} }

func (o *PMeanP) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *PMeanP) recorder() telemetry.Recorder {
	if o.Recorder == nil {
		return telemetry.Nop{}
	}
	return o.Recorder
}

// raise returns v^p and, up to the requested order, its first and second
// derivatives with respect to v.
func (o *PMeanP) raise(v float64, order int) (vp, d1, d2 float64, ok bool) {
	p := o.power
	switch p {
	case 1:
		return v, 1, 0, true
	case 2:
		return v * v, 2 * v, 2, true
	}
	if v < 0 && p != math.Trunc(p) {
		return 0, 0, 0, false
	}
	vp = math.Pow(v, p)
	if order > 0 {
		d1 = p * math.Pow(v, p-1)
	}
	if order > 1 {
		d2 = p * (p - 1) * math.Pow(v, p-2)
	}
	if v == 0 && finite(vp) {
		// A zero of a non-negative metric is its minimum, where the metric
		// gradient vanishes and the singular terms drop out.
		if !finite(d1) {
			d1 = 0
		}
		if !finite(d2) {
			d2 = 0
		}
	}
	if !finite(vp) || !finite(d1) || !finite(d2) {
		return 0, 0, 0, false
	}
	return vp, d1, d2, true
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

const (
	orderValue = iota
	orderGradient
	orderHessian
)

var modeNames = [...]string{"value", "gradient", "hessian"}

// patchEval is the contribution of one patch before the EvalType is applied.
type patchEval struct {
	local accumulator
	grad  []r3.Vec
	hess  *Hessian
}

func (o *PMeanP) evaluatePatch(p *mesh.Patch, freeOnly bool, order int) (pe patchEval, ok bool, err error) {
	if o.Metric == nil {
		return pe, false, ErrNoMetric
	}
	handles, err := o.Metric.Handles(p, freeOnly)
	if err != nil {
		return pe, false, err
	}
	nfree := len(p.FreeVertices())
	if order > orderValue {
		pe.grad = make([]r3.Vec, nfree)
	}
	if order > orderGradient {
		pe.hess = NewHessian(nfree)
	}
	for _, h := range handles {
		var (
			v   float64
			res quality.Result
		)
		switch order {
		case orderValue:
			v, ok, err = o.Metric.Evaluate(p, h)
		case orderGradient:
			res, ok, err = o.Metric.EvaluateWithGradient(p, h)
			v = res.Value
		default:
			res, ok, err = o.Metric.EvaluateWithHessian(p, h)
			v = res.Value
		}
		if err != nil {
			return pe, false, fmt.Errorf("%s: %w", o.Metric.Name(), err)
		}
		if !ok {
			o.logger().Debug("quality sample failed", "metric", o.Metric.Name(), "sample", h.String())
			return pe, false, nil
		}
		vp, d1, d2, defined := o.raise(v, order)
		if !defined {
			o.logger().Debug("power undefined for sample value", "sample", h.String(), "value", v, "power", o.power)
			return pe, false, nil
		}
		pe.local.powSum += vp
		pe.local.count++
		if order == orderValue {
			continue
		}
		fi := make([]int, len(res.Indices))
		for k, vtx := range res.Indices {
			fi[k] = p.FreeIndex(vtx)
			if fi[k] >= 0 {
				pe.grad[fi[k]] = r3.Add(pe.grad[fi[k]], r3.Scale(d1, res.Gradient[k]))
			}
		}
		if order == orderGradient {
			continue
		}
		for k := range fi {
			if fi[k] < 0 {
				continue
			}
			for l := k; l < len(fi); l++ {
				if fi[l] < 0 {
					continue
				}
				b := res.HessBlock(k, l).Scale(d1).Add(outer(res.Gradient[k], res.Gradient[l]).Scale(d2))
				pe.hess.Add(fi[k], fi[l], b)
			}
		}
	}
	return pe, true, nil
}

func outer(a, b r3.Vec) matrix.Mat3 {
	u, v := [3]float64{a.X, a.Y, a.Z}, [3]float64{b.X, b.Y, b.Z}
	var m matrix.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = u[i] * v[j]
		}
	}
	return m
}

func (o *PMeanP) run(et EvalType, p *mesh.Patch, freeOnly bool, order int) (float64, patchEval, bool, error) {
	mode := modeNames[order]
	pe, ok, err := o.evaluatePatch(p, freeOnly, order)
	if err != nil || !ok {
		o.recorder().ObserveFailure(mode)
		return 0, pe, false, err
	}
	totals, err := o.state.apply(et, pe.local)
	if err != nil {
		return 0, pe, false, err
	}
	o.recorder().ObserveEvaluation(mode, et.String())
	value := totals.mean()
	o.recorder().ObserveValue(value)
	if totals.count > 0 {
		inv := 1 / float64(totals.count)
		for i := range pe.grad {
			pe.grad[i] = r3.Scale(inv, pe.grad[i])
		}
		if pe.hess != nil {
			pe.hess.Scale(inv)
		}
	}
	return value, pe, true, nil
}

// Evaluate returns the objective value after applying et. When any sample
// fails ok is false and the running totals are left unchanged.
func (o *PMeanP) Evaluate(et EvalType, p *mesh.Patch, freeOnly bool) (float64, bool, error) {
	v, _, ok, err := o.run(et, p, freeOnly, orderValue)
	return v, ok, err
}

// EvaluateWithGradient also returns the gradient of the patch contribution,
// one vector per free vertex in mesh.Patch.FreeVertices order, divided by the
// sample count of the reported totals.
func (o *PMeanP) EvaluateWithGradient(et EvalType, p *mesh.Patch, freeOnly bool) (float64, []r3.Vec, bool, error) {
	v, pe, ok, err := o.run(et, p, freeOnly, orderGradient)
	return v, pe.grad, ok, err
}

// EvaluateWithHessian also returns the Hessian of the patch contribution,
// scaled like the gradient.
func (o *PMeanP) EvaluateWithHessian(et EvalType, p *mesh.Patch, freeOnly bool) (float64, []r3.Vec, *Hessian, bool, error) {
	v, pe, ok, err := o.run(et, p, freeOnly, orderHessian)
	return v, pe.grad, pe.hess, ok, err
}
