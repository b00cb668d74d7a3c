package matrix

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randMat3(rng *rand.Rand) (m Mat3) {
	for i := range m {
		for j := range m[i] {
			m[i][j] = rng.Float64()*2 - 1
		}
	}
	// keep it comfortably non-singular
	return m.Add(Scaled3(2))
}

func randMat2(rng *rand.Rand) (m Mat2) {
	for i := range m {
		for j := range m[i] {
			m[i][j] = rng.Float64()*2 - 1
		}
	}
	return m.Add(Scaled2(2))
}

func assertMat3InDelta(t *testing.T, want, got Mat3, tol float64, msg string) {
	t.Helper()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDeltaf(t, want[i][j], got[i][j], tol, "%s [%d][%d]", msg, i, j)
		}
	}
}

func assertMat2InDelta(t *testing.T, want, got Mat2, tol float64, msg string) {
	t.Helper()
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDeltaf(t, want[i][j], got[i][j], tol, "%s [%d][%d]", msg, i, j)
		}
	}
}

func TestDeterminantAndInverseAgainstGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 20; n++ {
		m := randMat3(rng)
		assert.InDelta(t, mat.Det(m.Dense()), m.Det(), 1e-12)

		inv, ok := m.Inverse()
		require.True(t, ok)
		var ref mat.Dense
		require.NoError(t, ref.Inverse(m.Dense()))
		assertMat3InDelta(t, FromDense3(&ref), inv, 1e-10, "inverse")
		assertMat3InDelta(t, Identity3(), m.Mul(inv), 1e-12, "m*inv")

		m2 := randMat2(rng)
		assert.InDelta(t, mat.Det(m2.Dense()), m2.Det(), 1e-12)
		inv2, ok := m2.Inverse()
		require.True(t, ok)
		assertMat2InDelta(t, Identity2(), m2.Mul(inv2), 1e-12, "m2*inv2")
	}
}

func TestInverseSingular(t *testing.T) {
	_, ok := Mat3{{1, 2, 3}, {2, 4, 6}, {0, 1, 0}}.Inverse()
	assert.False(t, ok)
	_, ok = Mat2{{1, 2}, {2, 4}}.Inverse()
	assert.False(t, ok)
}

// TransposeAdj must be the gradient of the determinant.
func TestTransposeAdjIsDetGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const h = 1e-6
	m := randMat3(rng)
	adjt := m.TransposeAdj()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p, q := m, m
			p[i][j] += h
			q[i][j] -= h
			assert.InDelta(t, (p.Det()-q.Det())/(2*h), adjt[i][j], 1e-8)
		}
	}
	m2 := randMat2(rng)
	adjt2 := m2.TransposeAdj()
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			p, q := m2, m2
			p[i][j] += h
			q[i][j] -= h
			assert.InDelta(t, (p.Det()-q.Det())/(2*h), adjt2[i][j], 1e-8)
		}
	}
}

func TestSecondDerivOfDet(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const h = 1e-6
	m := randMat3(rng)
	var hess Hess3
	PlusEqScaled2ndDerivOfDet3(&hess, 1, m)
	for r := 0; r < 3; r++ {
		for j := 0; j < 3; j++ {
			p, q := m, m
			p[r][j] += h
			q[r][j] -= h
			dp, dq := p.TransposeAdj(), q.TransposeAdj()
			for s := 0; s < 3; s++ {
				blk := hess.Block(r, s)
				for n := 0; n < 3; n++ {
					fd := (dp[s][n] - dq[s][n]) / (2 * h)
					assert.InDeltaf(t, fd, blk[j][n], 1e-7, "d2det/dT[%d][%d]dT[%d][%d]", r, j, s, n)
				}
			}
		}
	}

	m2 := randMat2(rng)
	var hess2 Hess2
	PlusEqScaled2ndDerivOfDet2(&hess2, 1)
	for r := 0; r < 2; r++ {
		for j := 0; j < 2; j++ {
			p, q := m2, m2
			p[r][j] += h
			q[r][j] -= h
			dp, dq := p.TransposeAdj(), q.TransposeAdj()
			for s := 0; s < 2; s++ {
				blk := hess2.Block(r, s)
				for n := 0; n < 2; n++ {
					assert.InDelta(t, (dp[s][n]-dq[s][n])/(2*h), blk[j][n], 1e-7)
				}
			}
		}
	}
}

// f(T) = (T:B)^2 / 2 has gradient (T:B) B and Hessian vec(B) (x) vec(B).
// Composing with T = A*Z checks the product-factor conversion.
func TestSecondDerivWrtProductFactor(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	b := randMat3(rng)
	z := randMat3(rng)
	var hess Hess3
	SetScaledOuterProduct3(&hess, 1, b)
	SecondDerivWrtProductFactor3(&hess, z)

	a := randMat3(rng)
	grad := func(a Mat3) Mat3 {
		tm := a.Mul(z)
		return b.Scale(tm.Inner(b)).MulT(z)
	}
	const h = 1e-6
	for r := 0; r < 3; r++ {
		for j := 0; j < 3; j++ {
			p, q := a, a
			p[r][j] += h
			q[r][j] -= h
			gp, gq := grad(p), grad(q)
			for s := 0; s < 3; s++ {
				blk := hess.Block(r, s)
				for n := 0; n < 3; n++ {
					assert.InDelta(t, (gp[s][n]-gq[s][n])/(2*h), blk[j][n], 1e-6)
				}
			}
		}
	}
}

func TestSumOuterProductSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a, b := randMat2(rng), randMat2(rng)
	var h1, h2 Hess2
	PlusEqScaledSumOuterProduct2(&h1, 0.5, a, b)
	PlusEqScaledSumOuterProduct2(&h2, 0.5, b, a)
	assert.Equal(t, h1, h2)
	// diagonal blocks of a symmetric tensor are symmetric
	assertMat2InDelta(t, h1[0], h1[0].T(), 1e-15, "block(0,0)")
	assertMat2InDelta(t, h1[2], h1[2].T(), 1e-15, "block(1,1)")
}

func TestBlockIndex(t *testing.T) {
	want := map[[2]int]int{{0, 0}: 0, {0, 1}: 1, {0, 2}: 2, {1, 1}: 3, {1, 2}: 4, {2, 2}: 5}
	for rs, idx := range want {
		got, tr := BlockIndex(3, rs[0], rs[1])
		assert.Equal(t, idx, got)
		assert.False(t, tr)
		got, tr = BlockIndex(3, rs[1], rs[0])
		assert.Equal(t, idx, got)
		assert.Equal(t, rs[0] != rs[1], tr)
	}
	idx, _ := BlockIndex(2, 1, 1)
	assert.Equal(t, 2, idx)
}

func TestFactorIdentity(t *testing.T) {
	f, ok := Factor3(Identity3(), 1e-12)
	require.True(t, ok)
	assert.InDelta(t, 1.0, f.Lambda, 1e-14)
	assertMat3InDelta(t, Identity3(), f.V, 1e-14, "V")
	assertMat3InDelta(t, Identity3(), f.Q, 1e-14, "Q")
	assertMat3InDelta(t, Identity3(), f.Delta, 1e-14, "Delta")
	assertMat3InDelta(t, Identity3(), f.Compose(), 1e-14, "W")

	f2, ok := Factor2(Identity2(), 1e-12)
	require.True(t, ok)
	assertMat2InDelta(t, Identity2(), f2.Compose(), 1e-14, "W2")
}

func TestFactorRecomposes(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	for n := 0; n < 20; n++ {
		m := randMat3(rng)
		if m.Det() <= 0 {
			continue
		}
		f, ok := Factor3(m, 1e-12)
		require.True(t, ok)
		assertMat3InDelta(t, m, f.Compose(), 1e-10, "compose")
		assert.InDelta(t, 1.0, f.Q.Det(), 1e-12)
		assert.InDelta(t, 1.0, f.Delta.Det(), 1e-12)
		assert.InDelta(t, 1.0, f.V.Det(), 1e-12)
		assertMat3InDelta(t, Identity3(), f.V.MulT(f.V), 1e-12, "V orthogonal")
		assert.InDelta(t, math.Cbrt(m.Det()), f.Lambda, 1e-12)
		// shape is upper triangular, aspect is diagonal
		assert.Zero(t, f.Q[1][0])
		assert.Zero(t, f.Q[2][0])
		assert.Zero(t, f.Q[2][1])
		assert.Zero(t, f.Delta[0][1])
	}
}

func TestFactorRejectsInverted(t *testing.T) {
	_, ok := Factor3(Diag3(1, 1, -1), 1e-12)
	assert.False(t, ok)
	_, ok = Factor3(Mat3{}, 1e-12)
	assert.False(t, ok)
	_, ok = Factor2(Mat2{{0, 1}, {1, 0}}, 1e-12)
	assert.False(t, ok)
}

func TestPlane(t *testing.T) {
	// unit right triangle lying in the plane x = y
	s := 1 / math.Sqrt2
	m := Mat32{{s, 0}, {s, 0}, {0, 1}}
	p, ok := m.Plane()
	require.True(t, ok)
	assertMat2InDelta(t, Identity2(), p, 1e-14, "plane")
	assertMat2InDelta(t, m.Gram(), p.T().Mul(p), 1e-14, "gram")

	_, ok = Mat32{}.Plane()
	assert.False(t, ok)
}
