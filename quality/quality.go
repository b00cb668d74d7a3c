// Package quality evaluates a target-matrix metric at the sample points of a
// patch and chain-rules its derivatives down to the patch vertices.
package quality

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/MeshQual/element"
	"github.com/notargets/MeshQual/matrix"
	"github.com/notargets/MeshQual/mesh"
	"github.com/notargets/MeshQual/metric"
	"github.com/notargets/MeshQual/target"
)

var (
	ErrNoTarget = errors.New("quality: no target calculator")
	ErrNoMetric = errors.New("quality: no metric for element dimension")
)

// Handle names one sample of one element of a patch.
type Handle struct {
	Elem   int
	Sample element.Sample
}

func (h Handle) String() string { return fmt.Sprintf("element %d %s", h.Elem, h.Sample) }

// Result is the weighted value of one sample and its derivatives with respect
// to the free vertices it depends on.
type Result struct {
	Value  float64
	Weight float64
	// Indices are patch vertex numbers, in element corner order.
	Indices  []int
	Gradient []r3.Vec
	// Hessian holds the upper-triangular vertex-pair blocks, packed the way
	// matrix.BlockIndex numbers them for len(Indices) vertices.
	Hessian []matrix.Mat3
}

// HessBlock returns d2f/dx_k dx_l for positions k and l of Indices.
func (r *Result) HessBlock(k, l int) matrix.Mat3 {
	idx, tr := matrix.BlockIndex(len(r.Indices), k, l)
	if tr {
		return r.Hessian[idx].T()
	}
	return r.Hessian[idx]
}

// mappings holds the derivative coefficients of every sample of every
// supported geometry, mid-element sample included.
var mappings = sync.OnceValue(func() map[element.ElementGeometry]*element.Mapping {
	out := make(map[element.ElementGeometry]*element.Mapping)
	for _, g := range []element.ElementGeometry{element.Tri, element.Rectangle, element.Tet, element.Hex} {
		m, err := element.NewMapping(g, true)
		if err != nil {
			panic(err)
		}
		out[g] = m
	}
	return out
})

// TMPQualityMetric measures each sample with T = A*W^-1, where A is the
// element Jacobian at the sample and W comes from Targets. Volume elements use
// Metric3D and surface elements Metric2D; either may be nil when the patch
// holds no elements of that dimension. A nil Weights weighs every sample 1.
type TMPQualityMetric struct {
	Metric2D   metric.Metric2D
	Metric3D   metric.Metric3D
	Targets    target.Calculator
	Weights    target.WeightCalculator
	MidElement bool
}

func New(m3 metric.Metric3D, m2 metric.Metric2D, targets target.Calculator) *TMPQualityMetric {
	return &TMPQualityMetric{Metric3D: m3, Metric2D: m2, Targets: targets}
}

// Name describes the metric for logs.
func (q *TMPQualityMetric) Name() string {
	switch {
	case q.Metric3D != nil:
		return "TMP " + q.Metric3D.Name()
	case q.Metric2D != nil:
		return "TMP " + q.Metric2D.Name()
	}
	return "TMP"
}

// Handles lists the samples of p. With freeOnly set, samples whose Jacobian
// does not depend on any free vertex are left out.
func (q *TMPQualityMetric) Handles(p *mesh.Patch, freeOnly bool) ([]Handle, error) {
	var out []Handle
	for e, el := range p.Elements {
		m, ok := mappings()[el.Type]
		if !ok {
			return nil, fmt.Errorf("element %d: no mapping function for %s", e, el.Type)
		}
		for _, s := range element.Samples(el.Type, q.MidElement) {
			if freeOnly && !dependsOnFree(p, el.Conn, m.Derivs[s.Slot(el.Type)]) {
				continue
			}
			out = append(out, Handle{Elem: e, Sample: s})
		}
	}
	return out, nil
}

func dependsOnFree(p *mesh.Patch, conn []int, derivs []r3.Vec) bool {
	for k, v := range conn {
		if !p.Fixed[v] && derivs[k] != (r3.Vec{}) {
			return true
		}
	}
	return false
}

// sampleState is the per-call view of one sample.
type sampleState struct {
	el     mesh.Element
	derivs []r3.Vec
	coords []r3.Vec
	weight float64
}

func (q *TMPQualityMetric) prepare(p *mesh.Patch, h Handle) (st sampleState, err error) {
	if q.Targets == nil {
		return st, ErrNoTarget
	}
	if h.Elem < 0 || h.Elem >= p.NumElements() {
		return st, fmt.Errorf("element %d: %w", h.Elem, mesh.ErrIndex)
	}
	st.el = p.Elements[h.Elem]
	m, ok := mappings()[st.el.Type]
	if !ok {
		return st, fmt.Errorf("%s: no mapping function for %s", h, st.el.Type)
	}
	slot := h.Sample.Slot(st.el.Type)
	if slot < 0 || slot >= len(m.Derivs) {
		return st, fmt.Errorf("%s: %w", h, mesh.ErrIndex)
	}
	st.derivs = m.Derivs[slot]
	if st.coords, err = p.ElementCoords(h.Elem); err != nil {
		return st, err
	}
	st.weight = 1
	if q.Weights != nil {
		if st.weight, err = q.Weights.Weight(p, h.Elem, h.Sample); err != nil {
			return st, fmt.Errorf("%s: %w", h, err)
		}
	}
	switch st.el.Type.Dimensions() {
	case element.D3:
		if q.Metric3D == nil {
			return st, fmt.Errorf("%s: %w", h, ErrNoMetric)
		}
	case element.D2:
		if q.Metric2D == nil {
			return st, fmt.Errorf("%s: %w", h, ErrNoMetric)
		}
	default:
		return st, fmt.Errorf("%s: %w", h, ErrNoMetric)
	}
	return st, nil
}

// Evaluate returns the weighted metric value of one sample. ok is false when
// the metric fails there, for example on an inverted element.
func (q *TMPQualityMetric) Evaluate(p *mesh.Patch, h Handle) (float64, bool, error) {
	st, err := q.prepare(p, h)
	if err != nil {
		return 0, false, err
	}
	var (
		v  float64
		ok bool
	)
	if st.el.Type.Dimensions() == element.D3 {
		w, err := q.Targets.Target3D(p, h.Elem, h.Sample)
		if err != nil {
			return 0, false, fmt.Errorf("%s: %w", h, err)
		}
		v, ok = metric.AW3D{Metric: q.Metric3D}.Evaluate(element.Jacobian3(st.coords, st.derivs), w)
	} else {
		w, err := q.Targets.Target2D(p, h.Elem, h.Sample)
		if err != nil {
			return 0, false, fmt.Errorf("%s: %w", h, err)
		}
		v, ok = metric.AW2D{Metric: q.Metric2D}.Evaluate(element.Jacobian2(st.coords, st.derivs), w)
	}
	if !ok {
		return 0, false, nil
	}
	return st.weight * v, true, nil
}

// EvaluateWithGradient adds the gradient with respect to the free vertices of
// the sample's element.
func (q *TMPQualityMetric) EvaluateWithGradient(p *mesh.Patch, h Handle) (Result, bool, error) {
	return q.evaluate(p, h, false)
}

// EvaluateWithHessian adds the gradient and the vertex-pair Hessian blocks.
func (q *TMPQualityMetric) EvaluateWithHessian(p *mesh.Patch, h Handle) (Result, bool, error) {
	return q.evaluate(p, h, true)
}

func (q *TMPQualityMetric) evaluate(p *mesh.Patch, h Handle, withHess bool) (res Result, ok bool, err error) {
	st, err := q.prepare(p, h)
	if err != nil {
		return res, false, err
	}
	var (
		v      float64
		ga     matrix.Mat3
		blocks func(i, m int) matrix.Mat3
		dim    = 3
	)
	if st.el.Type.Dimensions() == element.D3 {
		w, err := q.Targets.Target3D(p, h.Elem, h.Sample)
		if err != nil {
			return res, false, fmt.Errorf("%s: %w", h, err)
		}
		aw := metric.AW3D{Metric: q.Metric3D}
		a := element.Jacobian3(st.coords, st.derivs)
		if withHess {
			var hess matrix.Hess3
			if v, ga, hess, ok = aw.EvaluateWithHess(a, w); ok {
				blocks = func(i, m int) matrix.Mat3 { return hess.Block(i, m) }
			}
		} else {
			v, ga, ok = aw.EvaluateWithGrad(a, w)
		}
	} else {
		dim = 2
		w, err := q.Targets.Target2D(p, h.Elem, h.Sample)
		if err != nil {
			return res, false, fmt.Errorf("%s: %w", h, err)
		}
		aw := metric.AW2D{Metric: q.Metric2D}
		a := element.Jacobian2(st.coords, st.derivs)
		var g2 matrix.Mat2
		if withHess {
			var hess matrix.Hess2
			if v, g2, hess, ok = aw.EvaluateWithHess(a, w); ok {
				blocks = func(i, m int) matrix.Mat3 { return embed(hess.Block(i, m)) }
			}
		} else {
			v, g2, ok = aw.EvaluateWithGrad(a, w)
		}
		ga = embed(g2)
	}
	if !ok {
		return res, false, nil
	}

	res.Value, res.Weight = st.weight*v, st.weight
	var dk []r3.Vec
	for k, vtx := range st.el.Conn {
		if p.Fixed[vtx] || st.derivs[k] == (r3.Vec{}) {
			continue
		}
		res.Indices = append(res.Indices, vtx)
		dk = append(dk, st.derivs[k])
	}
	res.Gradient = make([]r3.Vec, len(dk))
	for k, d := range dk {
		g := ga.MulVec([3]float64{d.X, d.Y, d.Z})
		res.Gradient[k] = r3.Scale(st.weight, r3.Vec{X: g[0], Y: g[1], Z: g[2]})
	}
	if !withHess {
		return res, true, nil
	}

	n := len(dk)
	res.Hessian = make([]matrix.Mat3, n*(n+1)/2)
	var bl [3][3]matrix.Mat3
	for i := 0; i < dim; i++ {
		for m := 0; m < dim; m++ {
			bl[i][m] = blocks(i, m)
		}
	}
	for k := 0; k < n; k++ {
		u := [3]float64{dk[k].X, dk[k].Y, dk[k].Z}
		for l := k; l < n; l++ {
			w := [3]float64{dk[l].X, dk[l].Y, dk[l].Z}
			var out matrix.Mat3
			for i := 0; i < dim; i++ {
				for m := 0; m < dim; m++ {
					out[i][m] = st.weight * bl[i][m].BilinearForm(u, w)
				}
			}
			idx, _ := matrix.BlockIndex(n, k, l)
			res.Hessian[idx] = out
		}
	}
	return res, true, nil
}

// embed places a 2x2 matrix in the upper-left corner of a 3x3 one.
func embed(m matrix.Mat2) matrix.Mat3 {
	return matrix.Mat3{{m[0][0], m[0][1], 0}, {m[1][0], m[1][1], 0}, {}}
}
