package mesh

import "gonum.org/v1/gonum/spatial/r3"

// Domain constrains vertex positions. Snap returns the closest point of the
// domain and Normal the unit normal there.
type Domain interface {
	Snap(x r3.Vec) r3.Vec
	Normal(x r3.Vec) r3.Vec
}

// PlanarDomain is the plane through Point with normal N.
type PlanarDomain struct {
	N     r3.Vec
	Point r3.Vec
}

// NewPlanarDomain normalises n. It panics on a zero normal.
func NewPlanarDomain(n, point r3.Vec) *PlanarDomain {
	l := r3.Norm(n)
	if l == 0 {
		panic("mesh: zero normal passed to NewPlanarDomain")
	}
	return &PlanarDomain{N: r3.Scale(1/l, n), Point: point}
}

// XYPlane is the z = 0 plane used by 2-D meshes.
func XYPlane() *PlanarDomain {
	return &PlanarDomain{N: r3.Vec{Z: 1}}
}

func (d *PlanarDomain) Snap(x r3.Vec) r3.Vec {
	off := r3.Dot(r3.Sub(x, d.Point), d.N)
	return r3.Sub(x, r3.Scale(off, d.N))
}

func (d *PlanarDomain) Normal(r3.Vec) r3.Vec { return d.N }
