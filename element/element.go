package element

import "fmt"

type Dimensionality uint8

const (
	D0 Dimensionality = iota // points
	D1                       // lines, edges
	D2                       // triangles, quadrilaterals
	D3                       // tetrahedra, hexahedra
)

type ElementGeometry uint8

const (
	Tet ElementGeometry = iota
	Hex
	Prism
	Pyramid
	Tri
	Rectangle
	Line
)

func (g ElementGeometry) String() string {
	switch g {
	case Tet:
		return "Tet"
	case Hex:
		return "Hex"
	case Prism:
		return "Prism"
	case Pyramid:
		return "Pyramid"
	case Tri:
		return "Tri"
	case Rectangle:
		return "Rectangle"
	case Line:
		return "Line"
	}
	return fmt.Sprintf("ElementGeometry(%d)", uint8(g))
}

func (g ElementGeometry) Dimensions() Dimensionality {
	switch g {
	case Tet, Hex, Prism, Pyramid:
		return D3
	case Tri, Rectangle:
		return D2
	case Line:
		return D1
	}
	return D0
}

// Supported reports whether the geometry has a linear mapping function.
func (g ElementGeometry) Supported() bool {
	_, ok := referenceTable[g]
	return ok
}

// NumCorners is the number of vertices of a linear element, 0 if unsupported.
func (g ElementGeometry) NumCorners() int {
	if ref, ok := referenceTable[g]; ok {
		return len(ref.Corners)
	}
	return 0
}

// SampleKind identifies where inside an element a quality sample is taken.
type SampleKind uint8

const (
	Corner SampleKind = iota
	MidElement
)

// Sample is one quality sample point. Index is the corner number for Corner
// samples and is ignored for MidElement.
type Sample struct {
	Kind  SampleKind
	Index int
}

func (s Sample) String() string {
	if s.Kind == MidElement {
		return "mid"
	}
	return fmt.Sprintf("corner%d", s.Index)
}

// Slot numbers samples within one element: corners first, then the
// mid-element sample.
func (s Sample) Slot(g ElementGeometry) int {
	if s.Kind == MidElement {
		return g.NumCorners()
	}
	return s.Index
}

// Samples lists the sample points of an element in slot order.
func Samples(g ElementGeometry, midElement bool) []Sample {
	n := g.NumCorners()
	out := make([]Sample, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, Sample{Kind: Corner, Index: i})
	}
	if midElement && n > 0 {
		out = append(out, Sample{Kind: MidElement})
	}
	return out
}

// SampleFromSlot inverts Sample.Slot.
func SampleFromSlot(g ElementGeometry, slot int) Sample {
	if slot == g.NumCorners() {
		return Sample{Kind: MidElement}
	}
	return Sample{Kind: Corner, Index: slot}
}
