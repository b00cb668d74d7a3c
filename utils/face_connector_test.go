package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/MeshQual/element"
	"github.com/notargets/MeshQual/mesh"
)

func twoTets(t *testing.T) *mesh.Patch {
	t.Helper()
	coords := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {X: 0.3, Y: 0.3, Z: -1}}
	p, err := mesh.NewPatch(coords, nil, []mesh.Element{
		{Type: element.Tet, Conn: []int{0, 1, 2, 3}},
		{Type: element.Tet, Conn: []int{0, 2, 1, 4}},
	})
	require.NoError(t, err)
	return p
}

// quadGrid is an n x n grid of unit quads.
func quadGrid(t *testing.T, n int) *mesh.Patch {
	t.Helper()
	var coords []r3.Vec
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			coords = append(coords, r3.Vec{X: float64(i), Y: float64(j)})
		}
	}
	var elems []mesh.Element
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			v := j*(n+1) + i
			elems = append(elems, mesh.Element{Type: element.Rectangle, Conn: []int{v, v + 1, v + n + 2, v + n + 1}})
		}
	}
	p, err := mesh.NewPatch(coords, nil, elems)
	require.NoError(t, err)
	return p
}

func TestFaceConnectorTets(t *testing.T) {
	fc, err := NewFaceConnector(twoTets(t))
	require.NoError(t, err)
	require.NoError(t, fc.Verify())

	// tet face 0 is corners {0,2,1}, which the second tet shares as its face 0
	assert.Equal(t, 1, fc.EToE[0][0])
	assert.Equal(t, 0, fc.EToF[0][0])
	assert.Equal(t, 0, fc.EToE[1][0])
	assert.False(t, fc.IsBoundary(0, 0))

	assert.Len(t, fc.BoundaryFaces(), 6)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, fc.BoundaryVertices())
}

func TestFaceConnectorQuadGrid(t *testing.T) {
	p := quadGrid(t, 2)
	fc, err := NewFaceConnector(p)
	require.NoError(t, err)
	require.NoError(t, fc.Verify())

	assert.Len(t, fc.BoundaryFaces(), 8)
	assert.Equal(t, []int{0, 1, 2, 3, 5, 6, 7, 8}, fc.BoundaryVertices(), "only the centre is interior")

	assert.Empty(t, fc.InterfaceFaces())
	assert.Error(t, fc.SetPartitions([]int{0, 1}))
	require.NoError(t, fc.SetPartitions([]int{0, 0, 1, 1}))
	assert.Equal(t, map[[2]int]int{{0, 1}: 2}, fc.InterfaceFaces())
	require.NoError(t, fc.SetPartitions([]int{0, 1, 2, 0}))
	assert.Equal(t, map[[2]int]int{{0, 1}: 2, {0, 2}: 2}, fc.InterfaceFaces())
}

func TestFaceConnectorRejectsNonManifold(t *testing.T) {
	coords := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {Z: -1}, {X: 1, Y: 1, Z: 1}}
	p, err := mesh.NewPatch(coords, nil, []mesh.Element{
		{Type: element.Tet, Conn: []int{0, 1, 2, 3}},
		{Type: element.Tet, Conn: []int{0, 2, 1, 4}},
		{Type: element.Tet, Conn: []int{0, 1, 2, 5}},
	})
	require.NoError(t, err)
	_, err = NewFaceConnector(p)
	assert.Error(t, err)
}
