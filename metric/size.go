package metric

import "github.com/notargets/MeshQual/matrix"

// Size2D is the size barrier mu = d + 1/d, d = det(T). It is minimised at
// d = 1 and diverges as d -> 0+.
type Size2D struct{ Barrier }

func NewSize2D() *Size2D { return &Size2D{Barrier{Eps: DefaultDetTolerance}} }

func (m *Size2D) Name() string { return "Size" }

func (m *Size2D) Evaluate(t matrix.Mat2) (float64, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, false
	}
	return d + 1/d, true
}

func (m *Size2D) EvaluateWithGrad(t matrix.Mat2) (float64, matrix.Mat2, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, matrix.Mat2{}, false
	}
	return d + 1/d, t.TransposeAdj().Scale(1 - 1/(d*d)), true
}

func (m *Size2D) EvaluateWithHess(t matrix.Mat2) (float64, matrix.Mat2, matrix.Hess2, bool) {
	var h matrix.Hess2
	d := t.Det()
	if m.invalid(d) {
		return 0, matrix.Mat2{}, h, false
	}
	adjt := t.TransposeAdj()
	f := 1 - 1/(d*d)
	matrix.SetScaledOuterProduct2(&h, 2/(d*d*d), adjt)
	matrix.PlusEqScaled2ndDerivOfDet2(&h, f)
	return d + 1/d, adjt.Scale(f), h, true
}

// Size3D is the 3-D size barrier mu = d + 1/d.
type Size3D struct{ Barrier }

func NewSize3D() *Size3D { return &Size3D{Barrier{Eps: DefaultDetTolerance}} }

func (m *Size3D) Name() string { return "Size" }

func (m *Size3D) Evaluate(t matrix.Mat3) (float64, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, false
	}
	return d + 1/d, true
}

func (m *Size3D) EvaluateWithGrad(t matrix.Mat3) (float64, matrix.Mat3, bool) {
	d := t.Det()
	if m.invalid(d) {
		return 0, matrix.Mat3{}, false
	}
	return d + 1/d, t.TransposeAdj().Scale(1 - 1/(d*d)), true
}

func (m *Size3D) EvaluateWithHess(t matrix.Mat3) (float64, matrix.Mat3, matrix.Hess3, bool) {
	var h matrix.Hess3
	d := t.Det()
	if m.invalid(d) {
		return 0, matrix.Mat3{}, h, false
	}
	adjt := t.TransposeAdj()
	f := 1 - 1/(d*d)
	matrix.SetScaledOuterProduct3(&h, 2/(d*d*d), adjt)
	matrix.PlusEqScaled2ndDerivOfDet3(&h, f, t)
	return d + 1/d, adjt.Scale(f), h, true
}
