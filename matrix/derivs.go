package matrix

// Second derivatives of a scalar function of a square matrix T are stored as
// row-pair blocks: block (r,s), r <= s, holds d2f/dT[r][j]dT[s][n] at [j][n].
// The blocks below the diagonal are the transposes of the stored ones, so a
// 2x2 argument needs 3 blocks and a 3x3 argument needs 6.

// Hess2 holds the upper-triangular blocks (0,0),(0,1),(1,1) for a 2x2 argument.
type Hess2 [3]Mat2

// Hess3 holds the blocks (0,0),(0,1),(0,2),(1,1),(1,2),(2,2) for a 3x3 argument.
type Hess3 [6]Mat3

// BlockIndex returns the storage slot of block (r,s) for an n x n argument,
// and whether the stored block must be transposed to obtain it.
func BlockIndex(n, r, s int) (idx int, transposed bool) {
	if r > s {
		r, s = s, r
		transposed = true
	}
	return r*n - r*(r-1)/2 + (s - r), transposed
}

// Block returns block (r,s), transposing the stored block when r > s.
func (h *Hess2) Block(r, s int) Mat2 {
	idx, tr := BlockIndex(2, r, s)
	if tr {
		return h[idx].T()
	}
	return h[idx]
}

// Block returns block (r,s), transposing the stored block when r > s.
func (h *Hess3) Block(r, s int) Mat3 {
	idx, tr := BlockIndex(3, r, s)
	if tr {
		return h[idx].T()
	}
	return h[idx]
}

// Scale multiplies every block by alpha in place.
func (h *Hess2) Scale(alpha float64) {
	for i := range h {
		h[i] = h[i].Scale(alpha)
	}
}

// Scale multiplies every block by alpha in place.
func (h *Hess3) Scale(alpha float64) {
	for i := range h {
		h[i] = h[i].Scale(alpha)
	}
}

// PlusEqScaled adds alpha*o.
func (h *Hess2) PlusEqScaled(alpha float64, o *Hess2) {
	for i := range h {
		h[i] = h[i].Add(o[i].Scale(alpha))
	}
}

// PlusEqScaled adds alpha*o.
func (h *Hess3) PlusEqScaled(alpha float64, o *Hess3) {
	for i := range h {
		h[i] = h[i].Add(o[i].Scale(alpha))
	}
}

// SetScaledOuterProduct2 sets h = alpha * vec(m) (x) vec(m).
func SetScaledOuterProduct2(h *Hess2, alpha float64, m Mat2) {
	*h = Hess2{}
	PlusEqScaledOuterProduct2(h, alpha, m)
}

// PlusEqScaledOuterProduct2 adds alpha * vec(m) (x) vec(m).
func PlusEqScaledOuterProduct2(h *Hess2, alpha float64, m Mat2) {
	for r := 0; r < 2; r++ {
		for s := r; s < 2; s++ {
			idx, _ := BlockIndex(2, r, s)
			for j := 0; j < 2; j++ {
				for n := 0; n < 2; n++ {
					h[idx][j][n] += alpha * m[r][j] * m[s][n]
				}
			}
		}
	}
}

// SetScaledOuterProduct3 sets h = alpha * vec(m) (x) vec(m).
func SetScaledOuterProduct3(h *Hess3, alpha float64, m Mat3) {
	*h = Hess3{}
	PlusEqScaledOuterProduct3(h, alpha, m)
}

// PlusEqScaledOuterProduct3 adds alpha * vec(m) (x) vec(m).
func PlusEqScaledOuterProduct3(h *Hess3, alpha float64, m Mat3) {
	for r := 0; r < 3; r++ {
		for s := r; s < 3; s++ {
			idx, _ := BlockIndex(3, r, s)
			for j := 0; j < 3; j++ {
				for n := 0; n < 3; n++ {
					h[idx][j][n] += alpha * m[r][j] * m[s][n]
				}
			}
		}
	}
}

// PlusEqScaledSumOuterProduct2 adds alpha * (vec(a) (x) vec(b) + vec(b) (x) vec(a)).
func PlusEqScaledSumOuterProduct2(h *Hess2, alpha float64, a, b Mat2) {
	for r := 0; r < 2; r++ {
		for s := r; s < 2; s++ {
			idx, _ := BlockIndex(2, r, s)
			for j := 0; j < 2; j++ {
				for n := 0; n < 2; n++ {
					h[idx][j][n] += alpha * (a[r][j]*b[s][n] + b[r][j]*a[s][n])
				}
			}
		}
	}
}

// PlusEqScaledSumOuterProduct3 adds alpha * (vec(a) (x) vec(b) + vec(b) (x) vec(a)).
func PlusEqScaledSumOuterProduct3(h *Hess3, alpha float64, a, b Mat3) {
	for r := 0; r < 3; r++ {
		for s := r; s < 3; s++ {
			idx, _ := BlockIndex(3, r, s)
			for j := 0; j < 3; j++ {
				for n := 0; n < 3; n++ {
					h[idx][j][n] += alpha * (a[r][j]*b[s][n] + b[r][j]*a[s][n])
				}
			}
		}
	}
}

// PlusEqScaledI2 adds alpha times the identity tensor (the Hessian of |T|^2/2).
func PlusEqScaledI2(h *Hess2, alpha float64) {
	h[0] = h[0].Add(Scaled2(alpha))
	h[2] = h[2].Add(Scaled2(alpha))
}

// PlusEqScaledI3 adds alpha times the identity tensor.
func PlusEqScaledI3(h *Hess3, alpha float64) {
	h[0] = h[0].Add(Scaled3(alpha))
	h[3] = h[3].Add(Scaled3(alpha))
	h[5] = h[5].Add(Scaled3(alpha))
}

// PlusEqScaled2ndDerivOfDet2 adds alpha * d2(det T)/dT2, which is constant in 2-D.
func PlusEqScaled2ndDerivOfDet2(h *Hess2, alpha float64) {
	h[1][0][1] += alpha
	h[1][1][0] -= alpha
}

// PlusEqScaled2ndDerivOfDet3 adds alpha * d2(det T)/dT2 evaluated at t.
// Only the off-diagonal blocks are non-zero:
// block(r,s)[j][n] = eps(r,s,q) eps(j,n,k) t[q][k].
func PlusEqScaled2ndDerivOfDet3(h *Hess3, alpha float64, t Mat3) {
	for r := 0; r < 3; r++ {
		for s := r + 1; s < 3; s++ {
			q := 3 - r - s
			sign := alpha * levi(r, s, q)
			idx, _ := BlockIndex(3, r, s)
			for j := 0; j < 3; j++ {
				for n := 0; n < 3; n++ {
					if j == n {
						continue
					}
					k := 3 - j - n
					h[idx][j][n] += sign * levi(j, n, k) * t[q][k]
				}
			}
		}
	}
}

// SecondDerivWrtProductFactor2 converts second derivatives with respect to
// T into second derivatives with respect to A, where T = A*z for fixed z.
func SecondDerivWrtProductFactor2(h *Hess2, z Mat2) {
	for i := range h {
		h[i] = z.Mul(h[i]).MulT(z)
	}
}

// SecondDerivWrtProductFactor3 is the 3x3 form of SecondDerivWrtProductFactor2.
func SecondDerivWrtProductFactor3(h *Hess3, z Mat3) {
	for i := range h {
		h[i] = z.Mul(h[i]).MulT(z)
	}
}

// levi is the permutation symbol for distinct indices in {0,1,2}.
func levi(i, j, k int) float64 {
	switch {
	case i == j || j == k || i == k:
		return 0
	case (i == 0 && j == 1) || (i == 1 && j == 2) || (i == 2 && j == 0):
		return 1
	default:
		return -1
	}
}
