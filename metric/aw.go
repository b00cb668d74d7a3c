package metric

import "github.com/notargets/MeshQual/matrix"

// AW2D evaluates a T-metric from the element matrix A and target W. It forms
// T = A*W^-1 and returns derivatives with respect to A: since dT/dA is the
// fixed linear map W^-1, grad_A = grad_T * W^-T and each Hessian block is
// conjugated by W^-1. A singular W fails the evaluation.
type AW2D struct{ Metric Metric2D }

func (a AW2D) Evaluate(A, W matrix.Mat2) (float64, bool) {
	winv, ok := W.Inverse()
	if !ok {
		return 0, false
	}
	return a.Metric.Evaluate(A.Mul(winv))
}

func (a AW2D) EvaluateWithGrad(A, W matrix.Mat2) (float64, matrix.Mat2, bool) {
	winv, ok := W.Inverse()
	if !ok {
		return 0, matrix.Mat2{}, false
	}
	v, g, ok := a.Metric.EvaluateWithGrad(A.Mul(winv))
	if !ok {
		return 0, matrix.Mat2{}, false
	}
	return v, g.MulT(winv), true
}

func (a AW2D) EvaluateWithHess(A, W matrix.Mat2) (float64, matrix.Mat2, matrix.Hess2, bool) {
	winv, ok := W.Inverse()
	if !ok {
		return 0, matrix.Mat2{}, matrix.Hess2{}, false
	}
	v, g, h, ok := a.Metric.EvaluateWithHess(A.Mul(winv))
	if !ok {
		return 0, matrix.Mat2{}, matrix.Hess2{}, false
	}
	matrix.SecondDerivWrtProductFactor2(&h, winv)
	return v, g.MulT(winv), h, true
}

// AW3D is the 3-D form of AW2D.
type AW3D struct{ Metric Metric3D }

func (a AW3D) Evaluate(A, W matrix.Mat3) (float64, bool) {
	winv, ok := W.Inverse()
	if !ok {
		return 0, false
	}
	return a.Metric.Evaluate(A.Mul(winv))
}

func (a AW3D) EvaluateWithGrad(A, W matrix.Mat3) (float64, matrix.Mat3, bool) {
	winv, ok := W.Inverse()
	if !ok {
		return 0, matrix.Mat3{}, false
	}
	v, g, ok := a.Metric.EvaluateWithGrad(A.Mul(winv))
	if !ok {
		return 0, matrix.Mat3{}, false
	}
	return v, g.MulT(winv), true
}

func (a AW3D) EvaluateWithHess(A, W matrix.Mat3) (float64, matrix.Mat3, matrix.Hess3, bool) {
	winv, ok := W.Inverse()
	if !ok {
		return 0, matrix.Mat3{}, matrix.Hess3{}, false
	}
	v, g, h, ok := a.Metric.EvaluateWithHess(A.Mul(winv))
	if !ok {
		return 0, matrix.Mat3{}, matrix.Hess3{}, false
	}
	matrix.SecondDerivWrtProductFactor3(&h, winv)
	return v, g.MulT(winv), h, true
}
