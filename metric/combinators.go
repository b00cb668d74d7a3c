package metric

import (
	"fmt"
	"strings"

	"github.com/notargets/MeshQual/matrix"
)

// Combinators hold a borrowed reference to the metrics they wrap: they
// neither construct nor release them, and several combinators may share
// one base metric.

// Scale2D is mu' = Alpha * mu. It fails iff the wrapped metric fails.
type Scale2D struct {
	Alpha  float64
	Metric Metric2D
}

func NewScale2D(alpha float64, m Metric2D) *Scale2D {
	if m == nil {
		panic("metric: nil metric passed to NewScale2D")
	}
	return &Scale2D{Alpha: alpha, Metric: m}
}

func (s *Scale2D) Name() string { return fmt.Sprintf("Scale(%g,%s)", s.Alpha, s.Metric.Name()) }

func (s *Scale2D) Evaluate(t matrix.Mat2) (float64, bool) {
	v, ok := s.Metric.Evaluate(t)
	return s.Alpha * v, ok
}

func (s *Scale2D) EvaluateWithGrad(t matrix.Mat2) (float64, matrix.Mat2, bool) {
	v, g, ok := s.Metric.EvaluateWithGrad(t)
	return s.Alpha * v, g.Scale(s.Alpha), ok
}

func (s *Scale2D) EvaluateWithHess(t matrix.Mat2) (float64, matrix.Mat2, matrix.Hess2, bool) {
	v, g, h, ok := s.Metric.EvaluateWithHess(t)
	h.Scale(s.Alpha)
	return s.Alpha * v, g.Scale(s.Alpha), h, ok
}

// Scale3D is mu' = Alpha * mu.
type Scale3D struct {
	Alpha  float64
	Metric Metric3D
}

func NewScale3D(alpha float64, m Metric3D) *Scale3D {
	if m == nil {
		panic("metric: nil metric passed to NewScale3D")
	}
	return &Scale3D{Alpha: alpha, Metric: m}
}

func (s *Scale3D) Name() string { return fmt.Sprintf("Scale(%g,%s)", s.Alpha, s.Metric.Name()) }

func (s *Scale3D) Evaluate(t matrix.Mat3) (float64, bool) {
	v, ok := s.Metric.Evaluate(t)
	return s.Alpha * v, ok
}

func (s *Scale3D) EvaluateWithGrad(t matrix.Mat3) (float64, matrix.Mat3, bool) {
	v, g, ok := s.Metric.EvaluateWithGrad(t)
	return s.Alpha * v, g.Scale(s.Alpha), ok
}

func (s *Scale3D) EvaluateWithHess(t matrix.Mat3) (float64, matrix.Mat3, matrix.Hess3, bool) {
	v, g, h, ok := s.Metric.EvaluateWithHess(t)
	h.Scale(s.Alpha)
	return s.Alpha * v, g.Scale(s.Alpha), h, ok
}

// Term2D is one weighted summand of a Sum2D.
type Term2D struct {
	Alpha  float64
	Metric Metric2D
}

// Sum2D is the linear combination sum(Alpha_i * mu_i). It fails if any
// term fails.
type Sum2D []Term2D

func (s Sum2D) Name() string {
	names := make([]string, len(s))
	for i, term := range s {
		names[i] = fmt.Sprintf("%g*%s", term.Alpha, term.Metric.Name())
	}
	return "Sum(" + strings.Join(names, "+") + ")"
}

func (s Sum2D) Evaluate(t matrix.Mat2) (float64, bool) {
	var total float64
	for _, term := range s {
		v, ok := term.Metric.Evaluate(t)
		if !ok {
			return 0, false
		}
		total += term.Alpha * v
	}
	return total, true
}

func (s Sum2D) EvaluateWithGrad(t matrix.Mat2) (float64, matrix.Mat2, bool) {
	var (
		total float64
		grad  matrix.Mat2
	)
	for _, term := range s {
		v, g, ok := term.Metric.EvaluateWithGrad(t)
		if !ok {
			return 0, matrix.Mat2{}, false
		}
		total += term.Alpha * v
		grad = grad.Add(g.Scale(term.Alpha))
	}
	return total, grad, true
}

func (s Sum2D) EvaluateWithHess(t matrix.Mat2) (float64, matrix.Mat2, matrix.Hess2, bool) {
	var (
		total float64
		grad  matrix.Mat2
		hess  matrix.Hess2
	)
	for _, term := range s {
		v, g, h, ok := term.Metric.EvaluateWithHess(t)
		if !ok {
			return 0, matrix.Mat2{}, matrix.Hess2{}, false
		}
		total += term.Alpha * v
		grad = grad.Add(g.Scale(term.Alpha))
		hess.PlusEqScaled(term.Alpha, &h)
	}
	return total, grad, hess, true
}

// Term3D is one weighted summand of a Sum3D.
type Term3D struct {
	Alpha  float64
	Metric Metric3D
}

// Sum3D is the linear combination sum(Alpha_i * mu_i).
type Sum3D []Term3D

func (s Sum3D) Name() string {
	names := make([]string, len(s))
	for i, term := range s {
		names[i] = fmt.Sprintf("%g*%s", term.Alpha, term.Metric.Name())
	}
	return "Sum(" + strings.Join(names, "+") + ")"
}

func (s Sum3D) Evaluate(t matrix.Mat3) (float64, bool) {
	var total float64
	for _, term := range s {
		v, ok := term.Metric.Evaluate(t)
		if !ok {
			return 0, false
		}
		total += term.Alpha * v
	}
	return total, true
}

func (s Sum3D) EvaluateWithGrad(t matrix.Mat3) (float64, matrix.Mat3, bool) {
	var (
		total float64
		grad  matrix.Mat3
	)
	for _, term := range s {
		v, g, ok := term.Metric.EvaluateWithGrad(t)
		if !ok {
			return 0, matrix.Mat3{}, false
		}
		total += term.Alpha * v
		grad = grad.Add(g.Scale(term.Alpha))
	}
	return total, grad, true
}

func (s Sum3D) EvaluateWithHess(t matrix.Mat3) (float64, matrix.Mat3, matrix.Hess3, bool) {
	var (
		total float64
		grad  matrix.Mat3
		hess  matrix.Hess3
	)
	for _, term := range s {
		v, g, h, ok := term.Metric.EvaluateWithHess(t)
		if !ok {
			return 0, matrix.Mat3{}, matrix.Hess3{}, false
		}
		total += term.Alpha * v
		grad = grad.Add(g.Scale(term.Alpha))
		hess.PlusEqScaled(term.Alpha, &h)
	}
	return total, grad, hess, true
}
