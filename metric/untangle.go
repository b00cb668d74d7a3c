package metric

import (
	"fmt"

	"github.com/notargets/MeshQual/matrix"
)

// DefaultUntangleEpsilon is the fraction of sigma subtracted from the
// untangle threshold when no epsilon is given.
const DefaultUntangleEpsilon = 0.01

// UntangleMu2D wraps a base metric mu as
//
//	mu'(T) = 1/8 (|d| - d)^3,  d = mu(T) - (sigma - epsilon)
//
// so mu' is zero while mu >= sigma - epsilon and grows as (c - mu)^3 below
// it; the value and its first two derivatives are continuous at the
// threshold. A failed base evaluation counts as far above the threshold:
// the wrapper still succeeds with a zero penalty.
type UntangleMu2D struct {
	Base     Metric2D
	Constant float64
}

// NewUntangleMu2D uses epsilon = 0.01*sigma.
func NewUntangleMu2D(base Metric2D, sigma float64) *UntangleMu2D {
	return NewUntangleMu2DEps(base, sigma, DefaultUntangleEpsilon*sigma)
}

func NewUntangleMu2DEps(base Metric2D, sigma, epsilon float64) *UntangleMu2D {
	if base == nil {
		panic("metric: nil base metric passed to NewUntangleMu2D")
	}
	return &UntangleMu2D{Base: base, Constant: sigma - epsilon}
}

func (u *UntangleMu2D) Name() string { return fmt.Sprintf("Untangle(%s)", u.Base.Name()) }

func (u *UntangleMu2D) Evaluate(t matrix.Mat2) (float64, bool) {
	mu, ok := u.Base.Evaluate(t)
	if !ok {
		return 0, true
	}
	v, _, _ := untangleCubic(mu, u.Constant)
	return v, true
}

func (u *UntangleMu2D) EvaluateWithGrad(t matrix.Mat2) (float64, matrix.Mat2, bool) {
	mu, g, ok := u.Base.EvaluateWithGrad(t)
	if !ok {
		return 0, matrix.Mat2{}, true
	}
	v, d1, _ := untangleCubic(mu, u.Constant)
	return v, g.Scale(d1), true
}

func (u *UntangleMu2D) EvaluateWithHess(t matrix.Mat2) (float64, matrix.Mat2, matrix.Hess2, bool) {
	mu, g, h, ok := u.Base.EvaluateWithHess(t)
	if !ok {
		return 0, matrix.Mat2{}, matrix.Hess2{}, true
	}
	v, d1, d2 := untangleCubic(mu, u.Constant)
	h.Scale(d1)
	matrix.PlusEqScaledOuterProduct2(&h, d2, g)
	return v, g.Scale(d1), h, true
}

// UntangleMu3D is the 3-D form of UntangleMu2D.
type UntangleMu3D struct {
	Base     Metric3D
	Constant float64
}

// NewUntangleMu3D uses epsilon = 0.01*sigma.
func NewUntangleMu3D(base Metric3D, sigma float64) *UntangleMu3D {
	return NewUntangleMu3DEps(base, sigma, DefaultUntangleEpsilon*sigma)
}

func NewUntangleMu3DEps(base Metric3D, sigma, epsilon float64) *UntangleMu3D {
	if base == nil {
		panic("metric: nil base metric passed to NewUntangleMu3D")
	}
	return &UntangleMu3D{Base: base, Constant: sigma - epsilon}
}

func (u *UntangleMu3D) Name() string { return fmt.Sprintf("Untangle(%s)", u.Base.Name()) }

func (u *UntangleMu3D) Evaluate(t matrix.Mat3) (float64, bool) {
	mu, ok := u.Base.Evaluate(t)
	if !ok {
		return 0, true
	}
	v, _, _ := untangleCubic(mu, u.Constant)
	return v, true
}

func (u *UntangleMu3D) EvaluateWithGrad(t matrix.Mat3) (float64, matrix.Mat3, bool) {
	mu, g, ok := u.Base.EvaluateWithGrad(t)
	if !ok {
		return 0, matrix.Mat3{}, true
	}
	v, d1, _ := untangleCubic(mu, u.Constant)
	return v, g.Scale(d1), true
}

func (u *UntangleMu3D) EvaluateWithHess(t matrix.Mat3) (float64, matrix.Mat3, matrix.Hess3, bool) {
	mu, g, h, ok := u.Base.EvaluateWithHess(t)
	if !ok {
		return 0, matrix.Mat3{}, matrix.Hess3{}, true
	}
	v, d1, d2 := untangleCubic(mu, u.Constant)
	h.Scale(d1)
	matrix.PlusEqScaledOuterProduct3(&h, d2, g)
	return v, g.Scale(d1), h, true
}
