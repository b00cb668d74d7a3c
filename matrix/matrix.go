package matrix

import (
	"fmt"
	"math"
	"strings"
)

// Mat2 is a dense 2x2 matrix stored row-major. It is a value type: copies
// never share storage.
type Mat2 [2][2]float64

// Mat3 is a dense 3x3 matrix stored row-major.
type Mat3 [3][3]float64

// Mat32 is a dense 3x2 matrix: two column vectors in 3-space, as produced by
// the Jacobian of a surface element embedded in 3-D.
type Mat32 [3][2]float64

// Identity2 returns the 2x2 identity.
func Identity2() Mat2 { return Mat2{{1, 0}, {0, 1}} }

// Identity3 returns the 3x3 identity.
func Identity3() Mat3 { return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} }

// Scaled2 returns alpha*I.
func Scaled2(alpha float64) Mat2 { return Mat2{{alpha, 0}, {0, alpha}} }

// Scaled3 returns alpha*I.
func Scaled3(alpha float64) Mat3 { return Mat3{{alpha, 0, 0}, {0, alpha, 0}, {0, 0, alpha}} }

// Diag3 returns a diagonal matrix.
func Diag3(a, b, c float64) Mat3 { return Mat3{{a, 0, 0}, {0, b, 0}, {0, 0, c}} }

// Cols3 builds a matrix from its columns.
func Cols3(c0, c1, c2 [3]float64) Mat3 {
	return Mat3{
		{c0[0], c1[0], c2[0]},
		{c0[1], c1[1], c2[1]},
		{c0[2], c1[2], c2[2]},
	}
}

// ---------------------------------------------------------------- Mat2

// At returns element (i, j).
func (m Mat2) At(i, j int) float64 { return m[i][j] }

// Det returns the determinant of m.
func (m Mat2) Det() float64 { return m[0][0]*m[1][1] - m[0][1]*m[1][0] }

// T returns the transpose of m.
func (m Mat2) T() Mat2 { return Mat2{{m[0][0], m[1][0]}, {m[0][1], m[1][1]}} }

// TransposeAdj returns adj(m)^T, the derivative of det(m) with respect to m.
func (m Mat2) TransposeAdj() Mat2 { return Mat2{{m[1][1], -m[1][0]}, {-m[0][1], m[0][0]}} }

// Inverse returns m^-1. The second result is false when m is singular.
func (m Mat2) Inverse() (Mat2, bool) {
	d := m.Det()
	if d == 0 || math.IsNaN(d) {
		return Mat2{}, false
	}
	inv := 1 / d
	return Mat2{
		{m[1][1] * inv, -m[0][1] * inv},
		{-m[1][0] * inv, m[0][0] * inv},
	}, true
}

// Mul returns m * b.
func (m Mat2) Mul(b Mat2) (r Mat2) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			r[i][j] = m[i][0]*b[0][j] + m[i][1]*b[1][j]
		}
	}
	return
}

// MulT returns m * b^T.
func (m Mat2) MulT(b Mat2) (r Mat2) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			r[i][j] = m[i][0]*b[j][0] + m[i][1]*b[j][1]
		}
	}
	return
}

// Add returns m + b.
func (m Mat2) Add(b Mat2) (r Mat2) {
	for i := range r {
		for j := range r[i] {
			r[i][j] = m[i][j] + b[i][j]
		}
	}
	return
}

// Sub returns m - b.
func (m Mat2) Sub(b Mat2) (r Mat2) {
	for i := range r {
		for j := range r[i] {
			r[i][j] = m[i][j] - b[i][j]
		}
	}
	return
}

// Scale returns alpha * m.
func (m Mat2) Scale(alpha float64) (r Mat2) {
	for i := range r {
		for j := range r[i] {
			r[i][j] = alpha * m[i][j]
		}
	}
	return
}

// Inner returns the Frobenius inner product m:b.
func (m Mat2) Inner(b Mat2) float64 {
	return m[0][0]*b[0][0] + m[0][1]*b[0][1] + m[1][0]*b[1][0] + m[1][1]*b[1][1]
}

// SqrNorm returns the squared Frobenius norm.
func (m Mat2) SqrNorm() float64 { return m.Inner(m) }

// Trace returns the sum of the diagonal.
func (m Mat2) Trace() float64 { return m[0][0] + m[1][1] }

// MulVec returns m*v.
func (m Mat2) MulVec(v [2]float64) [2]float64 {
	return [2]float64{m[0][0]*v[0] + m[0][1]*v[1], m[1][0]*v[0] + m[1][1]*v[1]}
}

// ---------------------------------------------------------------- Mat3

// At returns element (i, j).
func (m Mat3) At(i, j int) float64 { return m[i][j] }

// Det returns the determinant of m.
func (m Mat3) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// T returns the transpose of m.
func (m Mat3) T() (r Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return
}

// TransposeAdj returns adj(m)^T, the cofactor matrix of m.
func (m Mat3) TransposeAdj() Mat3 {
	return Mat3{
		{
			m[1][1]*m[2][2] - m[1][2]*m[2][1],
			m[1][2]*m[2][0] - m[1][0]*m[2][2],
			m[1][0]*m[2][1] - m[1][1]*m[2][0],
		},
		{
			m[0][2]*m[2][1] - m[0][1]*m[2][2],
			m[0][0]*m[2][2] - m[0][2]*m[2][0],
			m[0][1]*m[2][0] - m[0][0]*m[2][1],
		},
		{
			m[0][1]*m[1][2] - m[0][2]*m[1][1],
			m[0][2]*m[1][0] - m[0][0]*m[1][2],
			m[0][0]*m[1][1] - m[0][1]*m[1][0],
		},
	}
}

// Inverse returns m^-1. The second result is false when m is singular.
func (m Mat3) Inverse() (Mat3, bool) {
	d := m.Det()
	if d == 0 || math.IsNaN(d) {
		return Mat3{}, false
	}
	return m.TransposeAdj().T().Scale(1 / d), true
}

// Mul returns m * b.
func (m Mat3) Mul(b Mat3) (r Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*b[0][j] + m[i][1]*b[1][j] + m[i][2]*b[2][j]
		}
	}
	return
}

// MulT returns m * b^T.
func (m Mat3) MulT(b Mat3) (r Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*b[j][0] + m[i][1]*b[j][1] + m[i][2]*b[j][2]
		}
	}
	return
}

// Add returns m + b.
func (m Mat3) Add(b Mat3) (r Mat3) {
	for i := range r {
		for j := range r[i] {
			r[i][j] = m[i][j] + b[i][j]
		}
	}
	return
}

// Sub returns m - b.
func (m Mat3) Sub(b Mat3) (r Mat3) {
	for i := range r {
		for j := range r[i] {
			r[i][j] = m[i][j] - b[i][j]
		}
	}
	return
}

// Scale returns alpha * m.
func (m Mat3) Scale(alpha float64) (r Mat3) {
	for i := range r {
		for j := range r[i] {
			r[i][j] = alpha * m[i][j]
		}
	}
	return
}

// Inner returns the Frobenius inner product m:b.
func (m Mat3) Inner(b Mat3) (s float64) {
	for i := range m {
		for j := range m[i] {
			s += m[i][j] * b[i][j]
		}
	}
	return
}

// SqrNorm returns the squared Frobenius norm.
func (m Mat3) SqrNorm() float64 { return m.Inner(m) }

// Trace returns the sum of the diagonal.
func (m Mat3) Trace() float64 { return m[0][0] + m[1][1] + m[2][2] }

// MulVec returns m*v.
func (m Mat3) MulVec(v [3]float64) (r [3]float64) {
	for i := 0; i < 3; i++ {
		r[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return
}

// Col returns column j.
func (m Mat3) Col(j int) [3]float64 { return [3]float64{m[0][j], m[1][j], m[2][j]} }

// BilinearForm returns u^T m v.
func (m Mat3) BilinearForm(u, v [3]float64) float64 {
	mv := m.MulVec(v)
	return u[0]*mv[0] + u[1]*mv[1] + u[2]*mv[2]
}

// ---------------------------------------------------------------- Mat32

// Col returns column j.
func (m Mat32) Col(j int) [3]float64 { return [3]float64{m[0][j], m[1][j], m[2][j]} }

// Mul returns m*b.
func (m Mat32) Mul(b Mat2) (r Mat32) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			r[i][j] = m[i][0]*b[0][j] + m[i][1]*b[1][j]
		}
	}
	return
}

// Gram returns m^T m, the metric tensor of the two columns.
func (m Mat32) Gram() (r Mat2) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			r[i][j] = m[0][i]*m[0][j] + m[1][i]*m[1][j] + m[2][i]*m[2][j]
		}
	}
	return
}

func (m Mat2) String() string { return formatRows(m[0][:], m[1][:]) }

func (m Mat3) String() string { return formatRows(m[0][:], m[1][:], m[2][:]) }

func (m Mat32) String() string { return formatRows(m[0][:], m[1][:], m[2][:]) }

func formatRows(rows ...[]float64) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, row := range rows {
		if i > 0 {
			sb.WriteString("; ")
		}
		for j, v := range row {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(fmt.Sprintf("%.6g", v))
		}
	}
	sb.WriteString("]")
	return sb.String()
}
