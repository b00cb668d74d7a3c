package element

import "gonum.org/v1/gonum/spatial/r3"

// ElementProperties contains metadata describing a linear element type
type ElementProperties struct {
	Name       string          // Full descriptive name (e.g., "Linear Tetrahedron")
	ShortName  string          // Abbreviated name (e.g., "Tet1")
	Type       ElementGeometry // Element shape
	NVp        int             // Number of vertices
	NFaces     int             // Number of boundary faces (edges for 2-D elements)
	Dimensions Dimensionality  // Spatial dimension
}

// ReferenceGeometry defines a linear element on the unit reference cell.
type ReferenceGeometry struct {
	Properties ElementProperties

	// Corner coordinates in reference space [0,1]^d; 2-D elements leave Z = 0.
	Corners []r3.Vec

	// Centroid is the reference location of the mid-element sample.
	Centroid r3.Vec

	// Faces lists the corners bounding each face, ordered so that the
	// outward normal follows the right-hand rule. 2-D elements list edges.
	Faces [][]int
}

var referenceTable = map[ElementGeometry]ReferenceGeometry{
	Tri: {
		Properties: ElementProperties{Name: "Linear Triangle", ShortName: "Tri1", Type: Tri, NVp: 3, NFaces: 3, Dimensions: D2},
		Corners:    []r3.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
		Centroid:   r3.Vec{X: 1.0 / 3, Y: 1.0 / 3},
		Faces:      [][]int{{0, 1}, {1, 2}, {2, 0}},
	},
	Rectangle: {
		Properties: ElementProperties{Name: "Bilinear Quadrilateral", ShortName: "Quad1", Type: Rectangle, NVp: 4, NFaces: 4, Dimensions: D2},
		Corners:    []r3.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		Centroid:   r3.Vec{X: 0.5, Y: 0.5},
		Faces:      [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	},
	Tet: {
		Properties: ElementProperties{Name: "Linear Tetrahedron", ShortName: "Tet1", Type: Tet, NVp: 4, NFaces: 4, Dimensions: D3},
		Corners:    []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}},
		Centroid:   r3.Vec{X: 0.25, Y: 0.25, Z: 0.25},
		Faces:      [][]int{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2}},
	},
	Hex: {
		Properties: ElementProperties{Name: "Trilinear Hexahedron", ShortName: "Hex1", Type: Hex, NVp: 8, NFaces: 6, Dimensions: D3},
		Corners: []r3.Vec{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
			{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
		},
		Centroid: r3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
		Faces: [][]int{
			{0, 1, 5, 4}, {1, 2, 6, 5}, {2, 3, 7, 6},
			{3, 0, 4, 7}, {3, 2, 1, 0}, {4, 5, 6, 7},
		},
	},
}

// Reference returns the reference definition of a supported geometry.
func Reference(g ElementGeometry) (ReferenceGeometry, bool) {
	ref, ok := referenceTable[g]
	return ref, ok
}

func (g ElementGeometry) Properties() ElementProperties {
	return referenceTable[g].Properties
}
