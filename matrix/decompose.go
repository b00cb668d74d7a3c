package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Dense copies m into a gonum matrix.
func (m Mat2) Dense() *mat.Dense {
	return mat.NewDense(2, 2, []float64{m[0][0], m[0][1], m[1][0], m[1][1]})
}

// Dense copies m into a gonum matrix.
func (m Mat3) Dense() *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d.Set(i, j, m[i][j])
		}
	}
	return d
}

// FromDense2 copies the leading 2x2 block of a.
func FromDense2(a mat.Matrix) (m Mat2) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			m[i][j] = a.At(i, j)
		}
	}
	return
}

// FromDense3 copies the leading 3x3 block of a.
func FromDense3(a mat.Matrix) (m Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = a.At(i, j)
		}
	}
	return
}

// Plane expresses the two columns of m in their own orthonormal frame: the
// first axis along column 0, the second in the plane of both columns. The
// result has the same lengths, angle and orientation as the columns of m.
func (m Mat32) Plane() (Mat2, bool) {
	c0 := r3.Vec{X: m[0][0], Y: m[1][0], Z: m[2][0]}
	c1 := r3.Vec{X: m[0][1], Y: m[1][1], Z: m[2][1]}
	l0 := r3.Norm(c0)
	if l0 == 0 {
		return Mat2{}, false
	}
	return Mat2{
		{l0, r3.Dot(c0, c1) / l0},
		{0, r3.Norm(r3.Cross(c0, c1)) / l0},
	}, true
}

// QR3 factors m = Q*R with Q orthogonal and R upper triangular with a
// non-negative diagonal.
func QR3(m Mat3) (q, r Mat3) {
	var (
		f      mat.QR
		qd, rd mat.Dense
	)
	f.Factorize(m.Dense())
	f.QTo(&qd)
	f.RTo(&rd)
	q, r = FromDense3(&qd), FromDense3(&rd)
	for j := 0; j < 3; j++ {
		if r[j][j] < 0 {
			for i := 0; i < 3; i++ {
				q[i][j] = -q[i][j]
				r[j][i] = -r[j][i]
			}
		}
	}
	return
}

// QR2 factors m = Q*R with Q orthogonal and R upper triangular with a
// non-negative diagonal.
func QR2(m Mat2) (q, r Mat2) {
	var (
		f      mat.QR
		qd, rd mat.Dense
	)
	f.Factorize(m.Dense())
	f.QTo(&qd)
	f.RTo(&rd)
	q, r = FromDense2(&qd), FromDense2(&rd)
	for j := 0; j < 2; j++ {
		if r[j][j] < 0 {
			for i := 0; i < 2; i++ {
				q[i][j] = -q[i][j]
				r[j][i] = -r[j][i]
			}
		}
	}
	return
}

// Factors3 is the decomposition M = Lambda * V * Q * Delta of a guide matrix:
// Lambda is the size, V an orthogonal orientation, Q a unit-determinant
// upper-triangular shape (the angles between columns) and Delta a
// unit-determinant diagonal aspect-ratio factor.
type Factors3 struct {
	Lambda      float64
	V, Q, Delta Mat3
}

// Compose returns Lambda * V * Q * Delta.
func (f Factors3) Compose() Mat3 {
	return f.V.Mul(f.Q).Mul(f.Delta).Scale(f.Lambda)
}

// Factors2 is the 2-D form of Factors3.
type Factors2 struct {
	Lambda      float64
	V, Q, Delta Mat2
}

// Compose returns Lambda * V * Q * Delta.
func (f Factors2) Compose() Mat2 {
	return f.V.Mul(f.Q).Mul(f.Delta).Scale(f.Lambda)
}

// Factor3 decomposes m. It fails if det(m) is not positive relative to the
// size of m (eps scales the test) or a column has zero length.
func Factor3(m Mat3, eps float64) (Factors3, bool) {
	det := m.Det()
	scale := math.Pow(m.SqrNorm()/3, 1.5)
	if !(det > eps*scale) || scale == 0 {
		return Factors3{}, false
	}
	v, r := QR3(m)
	var l [3]float64
	for j := 0; j < 3; j++ {
		c := m.Col(j)
		l[j] = math.Sqrt(c[0]*c[0] + c[1]*c[1] + c[2]*c[2])
	}
	prodL := l[0] * l[1] * l[2]
	if prodL == 0 {
		return Factors3{}, false
	}
	shape := r.Mul(Diag3(1/l[0], 1/l[1], 1/l[2]))
	shape = shape.Scale(1 / math.Cbrt(shape.Det()))
	aspect := Diag3(l[0], l[1], l[2]).Scale(1 / math.Cbrt(prodL))
	return Factors3{
		Lambda: math.Cbrt(det),
		V:      v,
		Q:      shape,
		Delta:  aspect,
	}, true
}

// Factor2 decomposes m. See Factor3.
func Factor2(m Mat2, eps float64) (Factors2, bool) {
	det := m.Det()
	scale := m.SqrNorm() / 2
	if !(det > eps*scale) || scale == 0 {
		return Factors2{}, false
	}
	v, r := QR2(m)
	l0 := math.Hypot(m[0][0], m[1][0])
	l1 := math.Hypot(m[0][1], m[1][1])
	if l0 == 0 || l1 == 0 {
		return Factors2{}, false
	}
	shape := r.Mul(Mat2{{1 / l0, 0}, {0, 1 / l1}})
	shape = shape.Scale(1 / math.Sqrt(shape.Det()))
	root := math.Sqrt(l0 * l1)
	return Factors2{
		Lambda: math.Sqrt(det),
		V:      v,
		Q:      shape,
		Delta:  Mat2{{l0 / root, 0}, {0, l1 / root}},
	}, true
}
