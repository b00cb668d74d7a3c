package objective

import (
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/MeshQual/matrix"
)

// Hessian is a sparse symmetric matrix of 3x3 blocks over the free vertices
// of a patch. Only blocks (i,j) with i <= j are stored.
type Hessian struct {
	n      int
	blocks map[[2]int]matrix.Mat3
}

func NewHessian(n int) *Hessian {
	return &Hessian{n: n, blocks: make(map[[2]int]matrix.Mat3)}
}

// Size is the number of free vertices.
func (h *Hessian) Size() int { return h.n }

// NumBlocks is the number of stored (upper-triangular) blocks.
func (h *Hessian) NumBlocks() int { return len(h.blocks) }

// Add accumulates b into block (i,j).
func (h *Hessian) Add(i, j int, b matrix.Mat3) {
	if i > j {
		i, j, b = j, i, b.T()
	}
	k := [2]int{i, j}
	h.blocks[k] = h.blocks[k].Add(b)
}

// Block returns block (i,j), zero when nothing was added there.
func (h *Hessian) Block(i, j int) matrix.Mat3 {
	if i > j {
		return h.blocks[[2]int{j, i}].T()
	}
	return h.blocks[[2]int{i, j}]
}

func (h *Hessian) Scale(alpha float64) {
	for k, b := range h.blocks {
		h.blocks[k] = b.Scale(alpha)
	}
}

// SymDense expands the blocks into a dense 3n x 3n matrix laid out like
// mesh.Patch.FreeCoords.
func (h *Hessian) SymDense() *mat.SymDense {
	out := mat.NewSymDense(3*h.n, nil)
	h.fill(out)
	return out
}

func (h *Hessian) fill(dst *mat.SymDense) {
	for k, b := range h.blocks {
		i, j := k[0], k[1]
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				if i == j && c < r {
					continue
				}
				dst.SetSym(3*i+r, 3*j+c, b[r][c])
			}
		}
	}
}
