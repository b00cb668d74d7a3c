// Package meshio moves meshes between files and mesh.Patch.
package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/notargets/gocfd/DG3D/mesh/readers"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/MeshQual/element"
	"github.com/notargets/MeshQual/mesh"
	"github.com/notargets/MeshQual/utils"
)

// ReadMesh loads a volume mesh file in any format the gocfd readers accept
// and fixes its boundary vertices.
func ReadMesh(path string) (*mesh.Patch, error) {
	msh, err := readers.ReadMeshFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mesh %s: %w", path, err)
	}
	p, err := FromArrays(msh.Vertices, msh.EtoV)
	if err != nil {
		return nil, fmt.Errorf("mesh %s: %w", path, err)
	}
	if err := FixBoundary(p); err != nil {
		return nil, fmt.Errorf("mesh %s: %w", path, err)
	}
	return p, nil
}

// volumeTypes maps a connectivity length to its volume element.
var volumeTypes = map[int]element.ElementGeometry{
	4: element.Tet,
	8: element.Hex,
}

// FromArrays builds a patch from vertex coordinates and element-to-vertex
// connectivity. Every vertex starts free.
func FromArrays(vertices [][]float64, EtoV [][]int) (*mesh.Patch, error) {
	coords := make([]r3.Vec, len(vertices))
	for i, v := range vertices {
		if len(v) < 3 {
			return nil, fmt.Errorf("vertex %d has %d coordinates", i, len(v))
		}
		coords[i] = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	elems := make([]mesh.Element, len(EtoV))
	for k, conn := range EtoV {
		g, ok := volumeTypes[len(conn)]
		if !ok {
			return nil, fmt.Errorf("element %d: unsupported element with %d vertices", k, len(conn))
		}
		elems[k] = mesh.Element{Type: g, Conn: append([]int(nil), conn...)}
	}
	return mesh.NewPatch(coords, nil, elems)
}

// FixBoundary marks every vertex on an unmatched face as fixed.
func FixBoundary(p *mesh.Patch) error {
	fc, err := utils.NewFaceConnector(p)
	if err != nil {
		return err
	}
	for _, v := range fc.BoundaryVertices() {
		if err := p.SetFixed(v, true); err != nil {
			return err
		}
	}
	return nil
}

var gmshTypes = map[element.ElementGeometry]int{
	element.Tri:       2,
	element.Rectangle: 3,
	element.Tet:       4,
	element.Hex:       5,
}

// WriteGmsh writes p as an ASCII Gmsh 2.2 mesh.
func WriteGmsh(w io.Writer, p *mesh.Patch) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "$MeshFormat\n2.2 0 8\n$EndMeshFormat\n")
	fmt.Fprintf(bw, "$Nodes\n%d\n", p.NumVertices())
	for i, c := range p.Coords {
		fmt.Fprintf(bw, "%d %.17g %.17g %.17g\n", i+1, c.X, c.Y, c.Z)
	}
	fmt.Fprintf(bw, "$EndNodes\n$Elements\n%d\n", p.NumElements())
	for k, el := range p.Elements {
		code, ok := gmshTypes[el.Type]
		if !ok {
			return fmt.Errorf("element %d: no gmsh type for %s", k, el.Type)
		}
		fmt.Fprintf(bw, "%d %d 2 0 1", k+1, code)
		for _, v := range el.Conn {
			fmt.Fprintf(bw, " %d", v+1)
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintf(bw, "$EndElements\n")
	return bw.Flush()
}

// WriteGmshFile writes p to path.
func WriteGmshFile(path string, p *mesh.Patch) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteGmsh(f, p)
}
