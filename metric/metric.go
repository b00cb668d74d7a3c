// Package metric implements target-matrix quality metrics: scalar functions
// of a deformation gradient T = A*W^-1 with analytic first and second
// derivatives with respect to T.
//
// Every metric reports failure through a boolean result. A barrier metric
// fails (value 0) when det(T) is not above its tolerance; this marks an
// inverted or degenerate sample, not a programming error.
package metric

import (
	"errors"
	"fmt"

	"github.com/notargets/MeshQual/matrix"
)

// DefaultDetTolerance is the smallest determinant a barrier metric accepts.
const DefaultDetTolerance = 1e-12

// ErrUnknownMetric is returned by the name lookups.
var ErrUnknownMetric = errors.New("metric: unknown metric")

// Metric2D is a quality metric of a 2x2 deformation gradient.
type Metric2D interface {
	Name() string
	Evaluate(t matrix.Mat2) (value float64, ok bool)
	EvaluateWithGrad(t matrix.Mat2) (value float64, grad matrix.Mat2, ok bool)
	EvaluateWithHess(t matrix.Mat2) (value float64, grad matrix.Mat2, hess matrix.Hess2, ok bool)
}

// Metric3D is a quality metric of a 3x3 deformation gradient.
type Metric3D interface {
	Name() string
	Evaluate(t matrix.Mat3) (value float64, ok bool)
	EvaluateWithGrad(t matrix.Mat3) (value float64, grad matrix.Mat3, ok bool)
	EvaluateWithHess(t matrix.Mat3) (value float64, grad matrix.Mat3, hess matrix.Hess3, ok bool)
}

// Barrier holds the determinant tolerance shared by barrier metrics.
type Barrier struct {
	// Eps is the smallest accepted det(T). The zero value accepts any
	// strictly positive determinant.
	Eps float64
}

func (b Barrier) invalid(d float64) bool { return !(d > b.Eps) }

func (b *Barrier) SetTolerance(eps float64) { b.Eps = eps }

// SetTolerance changes the determinant tolerance of m and reports whether m
// is a barrier metric.
func SetTolerance(m any, eps float64) bool {
	b, ok := m.(interface{ SetTolerance(float64) })
	if ok {
		b.SetTolerance(eps)
	}
	return ok
}

// plusEqDetTerms2 adds the Hessian of phi(det T) given phi' (d1) and phi'' (d2).
func plusEqDetTerms2(h *matrix.Hess2, adjt matrix.Mat2, d1, d2 float64) {
	matrix.PlusEqScaledOuterProduct2(h, d2, adjt)
	matrix.PlusEqScaled2ndDerivOfDet2(h, d1)
}

func plusEqDetTerms3(h *matrix.Hess3, t, adjt matrix.Mat3, d1, d2 float64) {
	matrix.PlusEqScaledOuterProduct3(h, d2, adjt)
	matrix.PlusEqScaled2ndDerivOfDet3(h, d1, t)
}

// New2D returns a leaf 2-D metric by name.
func New2D(name string) (Metric2D, error) {
	switch name {
	case "size":
		return NewSize2D(), nil
	case "shape":
		return NewShape2D(), nil
	case "shape_size":
		return NewShapeSize2D(), nil
	case "det":
		return Det2D{}, nil
	case "untangle_beta":
		return UntangleBeta2D{Beta: 0}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// New3D returns a leaf 3-D metric by name.
func New3D(name string) (Metric3D, error) {
	switch name {
	case "size":
		return NewSize3D(), nil
	case "shape":
		return NewShape3D(), nil
	case "shape_size":
		return NewShapeSize3D(), nil
	case "det":
		return Det3D{}, nil
	case "untangle_beta":
		return UntangleBeta3D{Beta: 0}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}
