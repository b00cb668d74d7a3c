package metric

import (
	"math"

	"github.com/notargets/MeshQual/matrix"
)

// The shape metrics are all of the form c*|T|^2*d^k + const, so the
// derivative algebra lives in normDetPow2/3:
//
//	grad = c (2 d^k T + |T|^2 k d^(k-1) adj(T)^T)
//	hess = c (2 d^k I + |T|^2 k(k-1) d^(k-2) adjT(x)adjT
//	          + |T|^2 k d^(k-1) D2det + 2 k d^(k-1) (T(x)adjT + adjT(x)T))

func normDetPow2(t matrix.Mat2, d, c, k float64, hess bool) (float64, matrix.Mat2, matrix.Hess2) {
	var h matrix.Hess2
	f := t.SqrNorm()
	g := math.Pow(d, k)
	g1 := k * g / d
	adjt := t.TransposeAdj()
	value := c * f * g
	grad := t.Scale(2 * c * g).Add(adjt.Scale(c * f * g1))
	if hess {
		g2 := k * (k - 1) * g / (d * d)
		matrix.PlusEqScaledI2(&h, 2*c*g)
		plusEqDetTerms2(&h, adjt, c*f*g1, c*f*g2)
		matrix.PlusEqScaledSumOuterProduct2(&h, 2*c*g1, t, adjt)
	}
	return value, grad, h
}

func normDetPow3(t matrix.Mat3, d, c, k float64, hess bool) (float64, matrix.Mat3, matrix.Hess3) {
	var h matrix.Hess3
	f := t.SqrNorm()
	g := math.Pow(d, k)
	g1 := k * g / d
	adjt := t.TransposeAdj()
	value := c * f * g
	grad := t.Scale(2 * c * g).Add(adjt.Scale(c * f * g1))
	if hess {
		g2 := k * (k - 1) * g / (d * d)
		matrix.PlusEqScaledI3(&h, 2*c*g)
		plusEqDetTerms3(&h, t, adjt, c*f*g1, c*f*g2)
		matrix.PlusEqScaledSumOuterProduct3(&h, 2*c*g1, t, adjt)
	}
	return value, grad, h
}

// Shape2D is the shape barrier mu = |T|^2 / (2 d) - 1. It is zero exactly
// when T is a scaled rotation and is independent of size.
type Shape2D struct{ Barrier }

func NewShape2D() *Shape2D { return &Shape2D{Barrier{Eps: DefaultDetTolerance}} }

func (m *Shape2D) Name() string { return "Shape" }

func (m *Shape2D) Evaluate(t matrix.Mat2) (float64, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, false
	}
	return t.SqrNorm()/(2*d) - 1, true
}

func (m *Shape2D) EvaluateWithGrad(t matrix.Mat2) (float64, matrix.Mat2, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, matrix.Mat2{}, false
	}
	v, g, _ := normDetPow2(t, d, 0.5, -1, false)
	return v - 1, g, true
}

func (m *Shape2D) EvaluateWithHess(t matrix.Mat2) (float64, matrix.Mat2, matrix.Hess2, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, matrix.Mat2{}, matrix.Hess2{}, false
	}
	v, g, h := normDetPow2(t, d, 0.5, -1, true)
	return v - 1, g, h, true
}

// Shape3D is the shape barrier mu = |T|^2 / (3 d^(2/3)) - 1.
type Shape3D struct{ Barrier }

func NewShape3D() *Shape3D { return &Shape3D{Barrier{Eps: DefaultDetTolerance}} }

func (m *Shape3D) Name() string { return "Shape" }

func (m *Shape3D) Evaluate(t matrix.Mat3) (float64, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, false
	}
	return t.SqrNorm()/(3*math.Cbrt(d*d)) - 1, true
}

func (m *Shape3D) EvaluateWithGrad(t matrix.Mat3) (float64, matrix.Mat3, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, matrix.Mat3{}, false
	}
	v, g, _ := normDetPow3(t, d, 1.0/3, -2.0/3, false)
	return v - 1, g, true
}

func (m *Shape3D) EvaluateWithHess(t matrix.Mat3) (float64, matrix.Mat3, matrix.Hess3, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, matrix.Mat3{}, matrix.Hess3{}, false
	}
	v, g, h := normDetPow3(t, d, 1.0/3, -2.0/3, true)
	return v - 1, g, h, true
}

// ShapeSize2D is mu = |T|^2/2 + 1/d - 2. By the AM-GM inequality it is
// non-negative and vanishes only when T is a rotation.
type ShapeSize2D struct{ Barrier }

func NewShapeSize2D() *ShapeSize2D { return &ShapeSize2D{Barrier{Eps: DefaultDetTolerance}} }

func (m *ShapeSize2D) Name() string { return "ShapeSize" }

func (m *ShapeSize2D) Evaluate(t matrix.Mat2) (float64, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, false
	}
	return t.SqrNorm()/2 + 1/d - 2, true
}

func (m *ShapeSize2D) EvaluateWithGrad(t matrix.Mat2) (float64, matrix.Mat2, bool) {
	v, g, _, ok := m.eval(t, false)
	return v, g, ok
}

func (m *ShapeSize2D) EvaluateWithHess(t matrix.Mat2) (float64, matrix.Mat2, matrix.Hess2, bool) {
	return m.eval(t, true)
}

func (m *ShapeSize2D) eval(t matrix.Mat2, hess bool) (float64, matrix.Mat2, matrix.Hess2, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, matrix.Mat2{}, matrix.Hess2{}, false
	}
	adjt := t.TransposeAdj()
	value := t.SqrNorm()/2 + 1/d - 2
	grad := t.Sub(adjt.Scale(1 / (d * d)))
	var h matrix.Hess2
	if hess {
		matrix.PlusEqScaledI2(&h, 1)
		plusEqDetTerms2(&h, adjt, -1/(d*d), 2/(d*d*d))
	}
	return value, grad, h, true
}

// ShapeSize3D is mu = |T|^2/3 + d^(-2/3) - 2.
type ShapeSize3D struct{ Barrier }

func NewShapeSize3D() *ShapeSize3D { return &ShapeSize3D{Barrier{Eps: DefaultDetTolerance}} }

func (m *ShapeSize3D) Name() string { return "ShapeSize" }

func (m *ShapeSize3D) Evaluate(t matrix.Mat3) (float64, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, false
	}
	return t.SqrNorm()/3 + 1/math.Cbrt(d*d) - 2, true
}

func (m *ShapeSize3D) EvaluateWithGrad(t matrix.Mat3) (float64, matrix.Mat3, bool) {
	v, g, _, ok := m.eval(t, false)
	return v, g, ok
}

func (m *ShapeSize3D) EvaluateWithHess(t matrix.Mat3) (float64, matrix.Mat3, matrix.Hess3, bool) {
	return m.eval(t, true)
}

func (m *ShapeSize3D) eval(t matrix.Mat3, hess bool) (float64, matrix.Mat3, matrix.Hess3, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, matrix.Mat3{}, matrix.Hess3{}, false
	}
	const k = -2.0 / 3
	adjt := t.TransposeAdj()
	p := math.Pow(d, k)
	p1 := k * p / d
	value := t.SqrNorm()/3 + p - 2
	grad := t.Scale(2.0 / 3).Add(adjt.Scale(p1))
	var h matrix.Hess3
	if hess {
		matrix.PlusEqScaledI3(&h, 2.0/3)
		plusEqDetTerms3(&h, t, adjt, p1, k*(k-1)*p/(d*d))
	}
	return value, grad, h, true
}
