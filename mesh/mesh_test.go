package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/MeshQual/element"
)

// two tets sharing face 1-2-3
func twoTets(t *testing.T) *Patch {
	t.Helper()
	coords := []r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1},
	}
	fixed := []bool{true, false, true, false, true}
	p, err := NewPatch(coords, fixed, []Element{
		{Type: element.Tet, Conn: []int{0, 1, 2, 3}},
		{Type: element.Tet, Conn: []int{1, 2, 3, 4}},
	})
	require.NoError(t, err)
	return p
}

type recorder struct {
	newPatches []*Patch
	destroyed  []*Patch
	subs       [][2][]int
}

func (r *recorder) NotifyNewPatch(p *Patch)       { r.newPatches = append(r.newPatches, p) }
func (r *recorder) NotifyPatchDestroyed(p *Patch) { r.destroyed = append(r.destroyed, p) }
func (r *recorder) NotifySubPatch(_, _ *Patch, vertMap, elemMap []int) {
	r.subs = append(r.subs, [2][]int{vertMap, elemMap})
}

func TestNewPatchValidation(t *testing.T) {
	coords := []r3.Vec{{}, {X: 1}, {Y: 1}}
	_, err := NewPatch(coords, nil, []Element{{Type: element.Tri, Conn: []int{0, 1, 5}}})
	assert.ErrorIs(t, err, ErrIndex)
	_, err = NewPatch(coords, nil, []Element{{Type: element.Tri, Conn: []int{0, 1}}})
	assert.Error(t, err)
	_, err = NewPatch(coords, nil, []Element{{Type: element.Prism, Conn: []int{0, 1, 2}}})
	assert.Error(t, err)
	_, err = NewPatch(coords, []bool{true}, nil)
	assert.Error(t, err)
	p, err := NewPatch(coords, nil, []Element{{Type: element.Tri, Conn: []int{0, 1, 2}}})
	require.NoError(t, err)
	assert.Equal(t, element.D2, p.Dimensions())
	assert.Equal(t, []int{0, 1, 2}, p.FreeVertices())
}

func TestFreeVertexIndexing(t *testing.T) {
	p := twoTets(t)
	assert.Equal(t, []int{1, 3}, p.FreeVertices())
	assert.Equal(t, 0, p.FreeIndex(1))
	assert.Equal(t, -1, p.FreeIndex(2))
	assert.Equal(t, 1, p.FreeIndex(3))
	assert.Equal(t, []float64{1, 0, 0, 0, 0, 1}, p.FreeCoords())

	require.NoError(t, p.SetFixed(2, false))
	assert.Equal(t, []int{1, 2, 3}, p.FreeVertices())
	assert.ErrorIs(t, p.SetFixed(9, true), ErrIndex)

	require.NoError(t, p.SetFreeCoords([]float64{2, 0, 0, 0, 2, 0, 0, 0, 2}))
	assert.Equal(t, r3.Vec{Y: 2}, p.Coords[2])
	assert.Error(t, p.SetFreeCoords([]float64{1}))
}

func TestVertexElements(t *testing.T) {
	p := twoTets(t)
	assert.Equal(t, []int{0}, p.VertexElements(0))
	assert.Equal(t, []int{0, 1}, p.VertexElements(2))
	assert.Equal(t, []int{1}, p.VertexElements(4))
	assert.Nil(t, p.VertexElements(7))
}

func TestTags(t *testing.T) {
	p := twoTets(t)
	_, err := p.TagData("missing", 0)
	assert.ErrorIs(t, err, ErrNoSuchTag)

	vals := []float64{1, 2, 3}
	require.NoError(t, p.SetTagData("w", 1, vals))
	vals[0] = 99
	got, err := p.TagData("w", 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)

	_, err = p.TagData("w", 0)
	assert.ErrorIs(t, err, ErrNoSuchTag, "unset element")
	assert.ErrorIs(t, p.SetTagData("w", 2, nil), ErrIndex)
	assert.True(t, p.HasTag("w"))
	gen := p.TagGeneration()
	require.NoError(t, p.SetTagData("w", 0, vals))
	assert.Greater(t, p.TagGeneration(), gen, "writes bump the generation")
	gen = p.TagGeneration()
	_, _ = p.TagData("w", 0)
	assert.Equal(t, gen, p.TagGeneration(), "reads do not")
	p.DeleteTag("w")
	assert.False(t, p.HasTag("w"))
	assert.Greater(t, p.TagGeneration(), gen)
}

func TestSubPatchMapsAndNotifications(t *testing.T) {
	p := twoTets(t)
	require.NoError(t, p.SetTagData("w", 1, []float64{7}))
	rec := &recorder{}
	p.Attach(rec)
	require.Len(t, rec.newPatches, 1)

	sub, err := p.SubPatch([]int{1})
	require.NoError(t, err)
	assert.Equal(t, 4, sub.NumVertices())
	assert.Equal(t, []int{1, 2, 3, 4}, sub.VertexHandles)
	assert.Equal(t, []int{1}, sub.ElementHandles)
	assert.Equal(t, []int{0, 1, 2, 3}, sub.Elements[0].Conn)
	assert.Equal(t, []bool{false, true, false, true}, sub.Fixed)
	got, err := sub.TagData("w", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, got)

	require.Len(t, rec.subs, 1)
	assert.Equal(t, []int{1, 2, 3, 4}, rec.subs[0][0])
	assert.Equal(t, []int{1}, rec.subs[0][1])

	sub.Coords[0] = r3.Vec{X: 5}
	p.CopyCoordsFrom(sub)
	assert.Equal(t, r3.Vec{X: 5}, p.Coords[1])

	sub.Destroy()
	p.Destroy()
	assert.Len(t, rec.destroyed, 2)

	_, err = p.SubPatch([]int{3})
	assert.ErrorIs(t, err, ErrIndex)
}

func TestPlanarDomainSnap(t *testing.T) {
	d := NewPlanarDomain(r3.Vec{Z: 2}, r3.Vec{Z: 1})
	assert.Equal(t, r3.Vec{X: 3, Y: -1, Z: 1}, d.Snap(r3.Vec{X: 3, Y: -1, Z: 4}))
	assert.Equal(t, r3.Vec{Z: 1}, d.Normal(r3.Vec{}))
	assert.Panics(t, func() { NewPlanarDomain(r3.Vec{}, r3.Vec{}) })

	coords := []r3.Vec{{}, {X: 1}, {Y: 1}}
	p, err := NewPatch(coords, []bool{true, false, true}, []Element{{Type: element.Tri, Conn: []int{0, 1, 2}}})
	require.NoError(t, err)
	p.SetDomain(XYPlane())
	require.NoError(t, p.SetFreeCoords([]float64{2, 3, 0.5}))
	assert.Equal(t, r3.Vec{X: 2, Y: 3}, p.Coords[1])
}

func TestPatchString(t *testing.T) {
	p := twoTets(t)
	assert.Equal(t, "Patch: 5 vertices (2 free), 2 elements, Tet=2", p.String())
}
