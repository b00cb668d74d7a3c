package objective

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/notargets/MeshQual/mesh"
)

// Problem exposes the objective over the free vertex coordinates of p, laid
// out as mesh.Patch.FreeCoords, to a gonum optimizer. Every call moves the
// free vertices to x and evaluates with Calculate. A failing sample makes
// Func return +Inf so line searches back off; a structural error stops the
// optimizer through Status.
func Problem(of *PMeanP, p *mesh.Patch) optimize.Problem {
	var failure error
	set := func(x []float64) bool {
		if failure != nil {
			return false
		}
		if err := p.SetFreeCoords(x); err != nil {
			failure = err
			return false
		}
		return true
	}
	return optimize.Problem{
		Func: func(x []float64) float64 {
			if !set(x) {
				return math.Inf(1)
			}
			v, ok, err := of.Evaluate(Calculate, p, true)
			if err != nil {
				failure = err
			}
			if !ok {
				return math.Inf(1)
			}
			return v
		},
		Grad: func(grad, x []float64) {
			for i := range grad {
				grad[i] = 0
			}
			if !set(x) {
				return
			}
			_, g, ok, err := of.EvaluateWithGradient(Calculate, p, true)
			if err != nil {
				failure = err
			}
			if !ok {
				return
			}
			for i, gi := range g {
				grad[3*i], grad[3*i+1], grad[3*i+2] = gi.X, gi.Y, gi.Z
			}
		},
		Hess: func(hess *mat.SymDense, x []float64) {
			if !set(x) {
				return
			}
			_, _, h, ok, err := of.EvaluateWithHessian(Calculate, p, true)
			if err != nil {
				failure = err
			}
			if !ok {
				return
			}
			hess.CopySym(h.SymDense())
		},
		Status: func() (optimize.Status, error) {
			if failure != nil {
				return optimize.Failure, failure
			}
			return optimize.NotTerminated, nil
		},
	}
}
