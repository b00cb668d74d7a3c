package element

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/MeshQual/matrix"
)

// Derivatives returns dN_k/dxi for every corner k of a linear element at the
// given sample. Column j of the element Jacobian is then
// sum_k x_k * dN_k/dxi_j. 2-D elements leave the Z component zero.
//
// Linear simplices have constant derivatives. Quadrilaterals and hexahedra use
// the tensor-product basis N_k = prod_d (c_kd ? xi_d : 1-xi_d), which at a
// corner reduces the Jacobian to the three (or two) edge vectors leaving it.
func Derivatives(g ElementGeometry, s Sample) ([]r3.Vec, error) {
	ref, ok := referenceTable[g]
	if !ok {
		return nil, fmt.Errorf("no mapping function for %s", g)
	}
	var xi r3.Vec
	switch s.Kind {
	case Corner:
		if s.Index < 0 || s.Index >= len(ref.Corners) {
			return nil, fmt.Errorf("%s has no corner %d", g, s.Index)
		}
		xi = ref.Corners[s.Index]
	case MidElement:
		xi = ref.Centroid
	default:
		return nil, fmt.Errorf("unknown sample kind %d", s.Kind)
	}

	switch g {
	case Tri:
		return []r3.Vec{{X: -1, Y: -1}, {X: 1}, {Y: 1}}, nil
	case Tet:
		return []r3.Vec{{X: -1, Y: -1, Z: -1}, {X: 1}, {Y: 1}, {Z: 1}}, nil
	}
	dim := 3
	if g.Dimensions() == D2 {
		dim = 2
	}
	out := make([]r3.Vec, len(ref.Corners))
	for k, c := range ref.Corners {
		ck := [3]float64{c.X, c.Y, c.Z}
		x := [3]float64{xi.X, xi.Y, xi.Z}
		var d [3]float64
		for j := 0; j < dim; j++ {
			prod := 1.0
			for m := 0; m < dim; m++ {
				switch {
				case m == j && ck[m] == 1:
				case m == j:
					prod = -prod
				case ck[m] == 1:
					prod *= x[m]
				default:
					prod *= 1 - x[m]
				}
			}
			d[j] = prod
		}
		out[k] = r3.Vec{X: d[0], Y: d[1], Z: d[2]}
	}
	return out, nil
}

// Jacobian3 forms A[i][j] = sum_k x_k[i] * dN_k/dxi_j.
func Jacobian3(coords, derivs []r3.Vec) (a matrix.Mat3) {
	for k, x := range coords {
		d := derivs[k]
		xk := [3]float64{x.X, x.Y, x.Z}
		dk := [3]float64{d.X, d.Y, d.Z}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				a[i][j] += xk[i] * dk[j]
			}
		}
	}
	return
}

// Jacobian2 is Jacobian3 restricted to the x,y plane.
func Jacobian2(coords, derivs []r3.Vec) (a matrix.Mat2) {
	for k, x := range coords {
		d := derivs[k]
		a[0][0] += x.X * d.X
		a[0][1] += x.X * d.Y
		a[1][0] += x.Y * d.X
		a[1][1] += x.Y * d.Y
	}
	return
}

// Mapping caches the derivative coefficients of every sample of one
// geometry, so evaluators do not rebuild them per element.
type Mapping struct {
	Geometry ElementGeometry
	Samples  []Sample
	Derivs   [][]r3.Vec // [slot][corner]
}

func NewMapping(g ElementGeometry, midElement bool) (*Mapping, error) {
	m := &Mapping{Geometry: g, Samples: Samples(g, midElement)}
	if len(m.Samples) == 0 {
		return nil, fmt.Errorf("no mapping function for %s", g)
	}
	m.Derivs = make([][]r3.Vec, len(m.Samples))
	for i, s := range m.Samples {
		d, err := Derivatives(g, s)
		if err != nil {
			return nil, err
		}
		m.Derivs[i] = d
	}
	return m, nil
}
