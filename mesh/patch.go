// Package mesh holds the patch representation the quality evaluators work
// on: vertex coordinates, fixed flags, linear elements, per-element tag data
// and the notification hooks through which per-patch caches follow patch
// lifetime.
package mesh

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/MeshQual/element"
)

var (
	ErrIndex     = errors.New("mesh: index out of range")
	ErrNoSuchTag = errors.New("mesh: no such tag")
)

// Element is one linear element; Conn holds patch-local vertex indices in
// the corner order of its geometry.
type Element struct {
	Type element.ElementGeometry
	Conn []int
}

// ExtraDataUser is implemented by components that keep data per patch. The
// patch calls it when it is attached, destroyed, or when a sub-patch is cut
// from it. vertMap and elemMap give, for each sub-patch vertex or element,
// its index in the parent.
type ExtraDataUser interface {
	NotifyNewPatch(p *Patch)
	NotifyPatchDestroyed(p *Patch)
	NotifySubPatch(parent, sub *Patch, vertMap, elemMap []int)
}

// Patch is a set of vertices and the elements connecting them. Vertex and
// element handles identify entities in the mesh the patch was cut from.
type Patch struct {
	Coords   []r3.Vec
	Fixed    []bool
	Elements []Element

	VertexHandles  []int
	ElementHandles []int

	tags   map[string]*Tag
	tagGen uint64 // bumped on every tag write
	domain Domain
	users  []ExtraDataUser

	vertElems [][]int
	free      []int
	freeIndex []int
}

// NewPatch validates connectivity and returns a patch whose handles are the
// local indices. fixed may be nil (all vertices free).
func NewPatch(coords []r3.Vec, fixed []bool, elems []Element) (*Patch, error) {
	if fixed == nil {
		fixed = make([]bool, len(coords))
	}
	if len(fixed) != len(coords) {
		return nil, fmt.Errorf("fixed flags length %d does not match %d vertices", len(fixed), len(coords))
	}
	for e, el := range elems {
		if !el.Type.Supported() {
			return nil, fmt.Errorf("element %d: unsupported geometry %s", e, el.Type)
		}
		if len(el.Conn) != el.Type.NumCorners() {
			return nil, fmt.Errorf("element %d: %s needs %d vertices, got %d", e, el.Type, el.Type.NumCorners(), len(el.Conn))
		}
		for _, v := range el.Conn {
			if v < 0 || v >= len(coords) {
				return nil, fmt.Errorf("element %d vertex %d: %w", e, v, ErrIndex)
			}
		}
	}
	p := &Patch{
		Coords:         coords,
		Fixed:          fixed,
		Elements:       elems,
		VertexHandles:  identityHandles(len(coords)),
		ElementHandles: identityHandles(len(elems)),
		tags:           make(map[string]*Tag),
	}
	return p, nil
}

func identityHandles(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func (p *Patch) NumVertices() int { return len(p.Coords) }
func (p *Patch) NumElements() int { return len(p.Elements) }

// Dimensions is the spatial dimension of the patch's elements; a patch with
// no elements reports D3.
func (p *Patch) Dimensions() element.Dimensionality {
	if len(p.Elements) == 0 {
		return element.D3
	}
	return p.Elements[0].Type.Dimensions()
}

// ElementCoords returns the corner coordinates of element e.
func (p *Patch) ElementCoords(e int) ([]r3.Vec, error) {
	if e < 0 || e >= len(p.Elements) {
		return nil, fmt.Errorf("element %d: %w", e, ErrIndex)
	}
	conn := p.Elements[e].Conn
	out := make([]r3.Vec, len(conn))
	for i, v := range conn {
		out[i] = p.Coords[v]
	}
	return out, nil
}

// VertexElements returns the elements adjacent to vertex v.
func (p *Patch) VertexElements(v int) []int {
	if p.vertElems == nil {
		p.vertElems = make([][]int, len(p.Coords))
		for e, el := range p.Elements {
			for _, u := range el.Conn {
				p.vertElems[u] = append(p.vertElems[u], e)
			}
		}
	}
	if v < 0 || v >= len(p.vertElems) {
		return nil
	}
	return p.vertElems[v]
}

// SetFixed changes the fixed flag of vertex v.
func (p *Patch) SetFixed(v int, fixed bool) error {
	if v < 0 || v >= len(p.Fixed) {
		return fmt.Errorf("vertex %d: %w", v, ErrIndex)
	}
	p.Fixed[v] = fixed
	p.free, p.freeIndex = nil, nil
	return nil
}

func (p *Patch) buildFree() {
	if p.freeIndex != nil {
		return
	}
	p.free = p.free[:0]
	p.freeIndex = make([]int, len(p.Coords))
	for v, fixed := range p.Fixed {
		if fixed {
			p.freeIndex[v] = -1
			continue
		}
		p.freeIndex[v] = len(p.free)
		p.free = append(p.free, v)
	}
}

// FreeVertices lists the free vertices in increasing order.
func (p *Patch) FreeVertices() []int {
	p.buildFree()
	return p.free
}

// FreeIndex is the position of v in FreeVertices, or -1 for fixed vertices.
func (p *Patch) FreeIndex(v int) int {
	p.buildFree()
	if v < 0 || v >= len(p.freeIndex) {
		return -1
	}
	return p.freeIndex[v]
}

// FreeCoords flattens the free vertex coordinates as x0,y0,z0,x1,...
func (p *Patch) FreeCoords() []float64 {
	free := p.FreeVertices()
	out := make([]float64, 0, 3*len(free))
	for _, v := range free {
		c := p.Coords[v]
		out = append(out, c.X, c.Y, c.Z)
	}
	return out
}

// SetFreeCoords writes x (laid out as FreeCoords) back to the free vertices,
// snapping each one to the patch domain when one is set.
func (p *Patch) SetFreeCoords(x []float64) error {
	free := p.FreeVertices()
	if len(x) != 3*len(free) {
		return fmt.Errorf("got %d coordinates for %d free vertices", len(x), len(free))
	}
	for i, v := range free {
		c := r3.Vec{X: x[3*i], Y: x[3*i+1], Z: x[3*i+2]}
		if p.domain != nil {
			c = p.domain.Snap(c)
		}
		p.Coords[v] = c
	}
	return nil
}

func (p *Patch) SetDomain(d Domain) { p.domain = d }
func (p *Patch) Domain() Domain     { return p.domain }

// Attach registers u for patch notifications and tells it about the patch.
func (p *Patch) Attach(u ExtraDataUser) {
	p.users = append(p.users, u)
	u.NotifyNewPatch(p)
}

// Destroy notifies all attached users that the patch is going away and
// detaches them.
func (p *Patch) Destroy() {
	for _, u := range p.users {
		u.NotifyPatchDestroyed(p)
	}
	p.users = nil
}

// SubPatch cuts the given elements, and the vertices they use, out of p. The
// sub-patch keeps the parent's handles, fixed flags, tags and domain, and
// inherits its users, which are told about the vertex and element maps.
func (p *Patch) SubPatch(elems []int) (*Patch, error) {
	var (
		localOf = make(map[int]int) // parent vertex -> sub vertex
		vertMap []int
		elemMap = make([]int, len(elems))
		subEl   = make([]Element, len(elems))
	)
	for i, e := range elems {
		if e < 0 || e >= len(p.Elements) {
			return nil, fmt.Errorf("element %d: %w", e, ErrIndex)
		}
		el := p.Elements[e]
		conn := make([]int, len(el.Conn))
		for k, v := range el.Conn {
			lv, ok := localOf[v]
			if !ok {
				lv = len(vertMap)
				localOf[v] = lv
				vertMap = append(vertMap, v)
			}
			conn[k] = lv
		}
		elemMap[i] = e
		subEl[i] = Element{Type: el.Type, Conn: conn}
	}

	sub := &Patch{
		Coords:         make([]r3.Vec, len(vertMap)),
		Fixed:          make([]bool, len(vertMap)),
		Elements:       subEl,
		VertexHandles:  make([]int, len(vertMap)),
		ElementHandles: make([]int, len(elems)),
		tags:           make(map[string]*Tag, len(p.tags)),
		domain:         p.domain,
	}
	for lv, v := range vertMap {
		sub.Coords[lv] = p.Coords[v]
		sub.Fixed[lv] = p.Fixed[v]
		sub.VertexHandles[lv] = p.VertexHandles[v]
	}
	for i, e := range elemMap {
		sub.ElementHandles[i] = p.ElementHandles[e]
	}
	for name, tag := range p.tags {
		sub.tags[name] = tag.subset(elemMap)
	}
	sub.users = append(sub.users, p.users...)
	for _, u := range sub.users {
		u.NotifySubPatch(p, sub, vertMap, elemMap)
	}
	return sub, nil
}

// CopyCoordsFrom writes sub-patch coordinates back into p using the sub's
// vertex handles.
func (p *Patch) CopyCoordsFrom(sub *Patch) {
	byHandle := make(map[int]int, len(p.VertexHandles))
	for v, h := range p.VertexHandles {
		byHandle[h] = v
	}
	for lv, h := range sub.VertexHandles {
		if v, ok := byHandle[h]; ok {
			p.Coords[v] = sub.Coords[lv]
		}
	}
}

func (p *Patch) String() string {
	var sb strings.Builder
	counts := make(map[element.ElementGeometry]int)
	for _, el := range p.Elements {
		counts[el.Type]++
	}
	fmt.Fprintf(&sb, "Patch: %d vertices (%d free), %d elements", len(p.Coords), len(p.FreeVertices()), len(p.Elements))
	for _, g := range []element.ElementGeometry{element.Tri, element.Rectangle, element.Tet, element.Hex} {
		if counts[g] > 0 {
			fmt.Fprintf(&sb, ", %s=%d", g, counts[g])
		}
	}
	return sb.String()
}
