package utils

import (
	"fmt"
	"sort"

	"github.com/notargets/MeshQual/element"
	"github.com/notargets/MeshQual/mesh"
)

// FaceConnector matches the faces of a patch's elements. Faces are edges for
// 2-D elements.
type FaceConnector struct {
	K int // Total elements

	// EToE[e][f] is the element across face f of e, or e itself on the
	// boundary. EToF[e][f] is the matching face number of that element.
	EToE [][]int
	EToF [][]int

	// EToP optionally assigns elements to partitions, see SetPartitions.
	EToP []int

	faceVerts [][][]int // [elem][face] → patch vertices
}

// Face is one element face in patch vertex numbers.
type Face struct {
	Elem, Face int
	Verts      []int
}

// faceSignature identifies a face independent of its orientation.
type faceSignature [4]int

func signature(verts []int) faceSignature {
	s := faceSignature{-1, -1, -1, -1}
	copy(s[:], verts)
	sort.Ints(s[:len(verts)])
	return s
}

// NewFaceConnector builds face connectivity from the element tables.
func NewFaceConnector(p *mesh.Patch) (*FaceConnector, error) {
	K := p.NumElements()
	fc := &FaceConnector{
		K:         K,
		EToE:      make([][]int, K),
		EToF:      make([][]int, K),
		faceVerts: make([][][]int, K),
	}

	type owner struct{ elem, face int }
	faceMap := make(map[faceSignature]owner)
	for e, el := range p.Elements {
		ref, ok := element.Reference(el.Type)
		if !ok {
			return nil, fmt.Errorf("element %d: no face table for %s", e, el.Type)
		}
		nf := len(ref.Faces)
		fc.EToE[e] = make([]int, nf)
		fc.EToF[e] = make([]int, nf)
		fc.faceVerts[e] = make([][]int, nf)
		for f, corners := range ref.Faces {
			// Self-connection by default
			fc.EToE[e][f], fc.EToF[e][f] = e, f
			v := make([]int, len(corners))
			for i, c := range corners {
				v[i] = el.Conn[c]
			}
			fc.faceVerts[e][f] = v

			key := signature(v)
			existing, found := faceMap[key]
			if !found {
				faceMap[key] = owner{e, f}
				continue
			}
			if existing.elem < 0 {
				return nil, fmt.Errorf("face %v of element %d is shared by more than two elements", v, e)
			}
			fc.EToE[e][f], fc.EToF[e][f] = existing.elem, existing.face
			fc.EToE[existing.elem][existing.face] = e
			fc.EToF[existing.elem][existing.face] = f
			faceMap[key] = owner{-1, -1}
		}
	}
	return fc, nil
}

// IsBoundary reports whether face f of element e has no neighbour.
func (fc *FaceConnector) IsBoundary(e, f int) bool {
	return fc.EToE[e][f] == e && fc.EToF[e][f] == f
}

// BoundaryFaces lists the unmatched faces in element order.
func (fc *FaceConnector) BoundaryFaces() []Face {
	var out []Face
	for e := 0; e < fc.K; e++ {
		for f := range fc.EToE[e] {
			if fc.IsBoundary(e, f) {
				out = append(out, Face{Elem: e, Face: f, Verts: fc.faceVerts[e][f]})
			}
		}
	}
	return out
}

// BoundaryVertices lists the vertices on a boundary face in increasing order.
func (fc *FaceConnector) BoundaryVertices() []int {
	seen := make(map[int]bool)
	for _, face := range fc.BoundaryFaces() {
		for _, v := range face.Verts {
			seen[v] = true
		}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// SetPartitions assigns each element to a partition.
func (fc *FaceConnector) SetPartitions(EToP []int) error {
	if len(EToP) != fc.K {
		return fmt.Errorf("EToP length %d does not match K=%d", len(EToP), fc.K)
	}
	fc.EToP = EToP
	return nil
}

// InterfaceFaces counts the faces shared between each pair of partitions,
// keyed with the lower partition first.
func (fc *FaceConnector) InterfaceFaces() map[[2]int]int {
	out := make(map[[2]int]int)
	if fc.EToP == nil {
		return out
	}
	for e := 0; e < fc.K; e++ {
		for f, nbr := range fc.EToE[e] {
			if fc.IsBoundary(e, f) || nbr < e {
				continue
			}
			p, q := fc.EToP[e], fc.EToP[nbr]
			if p == q {
				continue
			}
			if p > q {
				p, q = q, p
			}
			out[[2]int{p, q}]++
		}
	}
	return out
}

// Verify checks that face matches are mutual and join identical vertex sets.
func (fc *FaceConnector) Verify() error {
	for e := 0; e < fc.K; e++ {
		for f, nbr := range fc.EToE[e] {
			nf := fc.EToF[e][f]
			if nbr < 0 || nbr >= fc.K || nf < 0 || nf >= len(fc.EToE[nbr]) {
				return fmt.Errorf("element %d face %d points outside the mesh", e, f)
			}
			if fc.EToE[nbr][nf] != e || fc.EToF[nbr][nf] != f {
				return fmt.Errorf("element %d face %d is not matched back by element %d face %d", e, f, nbr, nf)
			}
			if signature(fc.faceVerts[e][f]) != signature(fc.faceVerts[nbr][nf]) {
				return fmt.Errorf("element %d face %d and element %d face %d have different vertices", e, f, nbr, nf)
			}
		}
	}
	return nil
}
