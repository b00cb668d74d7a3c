package metric

import "github.com/notargets/MeshQual/matrix"

// Det2D is mu = det(T). It never fails and is the usual base metric for
// UntangleMu2D.
type Det2D struct{}

func (Det2D) Name() string { return "Det" }

func (Det2D) Evaluate(t matrix.Mat2) (float64, bool) { return t.Det(), true }

func (Det2D) EvaluateWithGrad(t matrix.Mat2) (float64, matrix.Mat2, bool) {
	return t.Det(), t.TransposeAdj(), true
}

func (Det2D) EvaluateWithHess(t matrix.Mat2) (float64, matrix.Mat2, matrix.Hess2, bool) {
	var h matrix.Hess2
	matrix.PlusEqScaled2ndDerivOfDet2(&h, 1)
	return t.Det(), t.TransposeAdj(), h, true
}

// Det3D is mu = det(T).
type Det3D struct{}

func (Det3D) Name() string { return "Det" }

func (Det3D) Evaluate(t matrix.Mat3) (float64, bool) { return t.Det(), true }

func (Det3D) EvaluateWithGrad(t matrix.Mat3) (float64, matrix.Mat3, bool) {
	return t.Det(), t.TransposeAdj(), true
}

func (Det3D) EvaluateWithHess(t matrix.Mat3) (float64, matrix.Mat3, matrix.Hess3, bool) {
	var h matrix.Hess3
	matrix.PlusEqScaled2ndDerivOfDet3(&h, 1, t)
	return t.Det(), t.TransposeAdj(), h, true
}

// untangleCubic returns phi(d) = 1/8 (|d-beta| - (d-beta))^3 and its first
// two derivatives. phi is (beta-d)^3 below beta and identically zero above.
func untangleCubic(d, beta float64) (phi, phi1, phi2 float64) {
	x := beta - d
	if x <= 0 {
		return 0, 0, 0
	}
	return x * x * x, -3 * x * x, 6 * x
}

// UntangleBeta2D is mu = 1/8 (|d - beta| - (d - beta))^3. It penalises
// samples whose determinant falls below beta, including inverted ones.
type UntangleBeta2D struct{ Beta float64 }

func (UntangleBeta2D) Name() string { return "UntangleBeta" }

func (m UntangleBeta2D) Evaluate(t matrix.Mat2) (float64, bool) {
	v, _, _ := untangleCubic(t.Det(), m.Beta)
	return v, true
}

func (m UntangleBeta2D) EvaluateWithGrad(t matrix.Mat2) (float64, matrix.Mat2, bool) {
	v, d1, _ := untangleCubic(t.Det(), m.Beta)
	return v, t.TransposeAdj().Scale(d1), true
}

func (m UntangleBeta2D) EvaluateWithHess(t matrix.Mat2) (float64, matrix.Mat2, matrix.Hess2, bool) {
	var h matrix.Hess2
	v, d1, d2 := untangleCubic(t.Det(), m.Beta)
	adjt := t.TransposeAdj()
	plusEqDetTerms2(&h, adjt, d1, d2)
	return v, adjt.Scale(d1), h, true
}

// UntangleBeta3D is the 3-D form of UntangleBeta2D.
type UntangleBeta3D struct{ Beta float64 }

func (UntangleBeta3D) Name() string { return "UntangleBeta" }

func (m UntangleBeta3D) Evaluate(t matrix.Mat3) (float64, bool) {
	v, _, _ := untangleCubic(t.Det(), m.Beta)
	return v, true
}

func (m UntangleBeta3D) EvaluateWithGrad(t matrix.Mat3) (float64, matrix.Mat3, bool) {
	v, d1, _ := untangleCubic(t.Det(), m.Beta)
	return v, t.TransposeAdj().Scale(d1), true
}

func (m UntangleBeta3D) EvaluateWithHess(t matrix.Mat3) (float64, matrix.Mat3, matrix.Hess3, bool) {
	var h matrix.Hess3
	v, d1, d2 := untangleCubic(t.Det(), m.Beta)
	adjt := t.TransposeAdj()
	plusEqDetTerms3(&h, t, adjt, d1, d2)
	return v, adjt.Scale(d1), h, true
}
