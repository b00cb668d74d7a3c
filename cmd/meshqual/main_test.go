package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/MeshQual/config"
	"github.com/notargets/MeshQual/mesh"
	"github.com/notargets/MeshQual/meshio"
)

const center = 13

// hexGrid is a 2x2x2 block of unit hexahedra with the one interior vertex
// moved off the middle.
func hexGrid(t *testing.T) *mesh.Patch {
	t.Helper()
	id := func(i, j, k int) int { return i + 3*j + 9*k }
	var verts [][]float64
	for k := 0; k <= 2; k++ {
		for j := 0; j <= 2; j++ {
			for i := 0; i <= 2; i++ {
				verts = append(verts, []float64{float64(i), float64(j), float64(k)})
			}
		}
	}
	var etov [][]int
	for k := 0; k < 2; k++ {
		for j := 0; j < 2; j++ {
			for i := 0; i < 2; i++ {
				etov = append(etov, []int{
					id(i, j, k), id(i+1, j, k), id(i+1, j+1, k), id(i, j+1, k),
					id(i, j, k+1), id(i+1, j, k+1), id(i+1, j+1, k+1), id(i, j+1, k+1),
				})
			}
		}
	}
	verts[center] = []float64{1.3, 0.8, 1.1}
	p, err := meshio.FromArrays(verts, etov)
	require.NoError(t, err)
	require.NoError(t, meshio.FixBoundary(p))
	require.Equal(t, []int{center}, p.FreeVertices())
	return p
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "eval")
	assert.Contains(t, names, "smooth")
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("metrics-addr"))
	assert.NotNil(t, smoothCmd.Flags().Lookup("out"))
	assert.Error(t, evalCmd.Args(evalCmd, nil), "a mesh path is required")
}

func TestNewMethod(t *testing.T) {
	for name, want := range map[string]optimize.Method{
		"lbfgs":    &optimize.LBFGS{},
		"newton":   &optimize.Newton{},
		"gradient": &optimize.GradientDescent{},
	} {
		m, err := newMethod(name)
		require.NoError(t, err, name)
		assert.IsType(t, want, m, name)
	}
	_, err := newMethod("simplex")
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Cleanup(func() { configPath, logLevel, passes = "", "", 0 })

	path := filepath.Join(t.TempDir(), "meshqual.yaml")
	require.NoError(t, os.WriteFile(path, []byte("smooth: {passes: 2}\n"), 0o644))
	configPath, logLevel, passes = path, "debug", 7
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Smooth.Passes)
	assert.Equal(t, "debug", cfg.Log.Level)

	logLevel = "chatty"
	_, err = loadConfig()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func smoothWith(t *testing.T, strategy, method string) (before, after float64, p *mesh.Patch) {
	t.Helper()
	cfg := config.Default()
	cfg.Patches.Strategy = strategy
	cfg.Patches.BlockSize = 2
	cfg.Smooth.Method = method
	a, err := cfg.Build(nil, nil, nil)
	require.NoError(t, err)
	sm, err := newSmoother(a, cfg.Smooth, quietLogger())
	require.NoError(t, err)
	p = hexGrid(t)
	before, after, err = sm.Run(context.Background(), p)
	require.NoError(t, err)
	return before, after, p
}

func TestSmoothRecentresInteriorVertex(t *testing.T) {
	for _, strategy := range []string{"global", "vertex", "block"} {
		t.Run(strategy, func(t *testing.T) {
			before, after, p := smoothWith(t, strategy, "lbfgs")
			assert.Greater(t, before, 0.0)
			assert.Less(t, after, before)
			assert.InDelta(t, 0, r3.Norm(r3.Sub(p.Coords[center], r3.Vec{X: 1, Y: 1, Z: 1})), 1e-3)
			assert.Equal(t, r3.Vec{}, p.Coords[0], "boundary vertices stay put")
		})
	}
}

func TestSmoothOtherMethods(t *testing.T) {
	for _, method := range []string{"newton", "gradient"} {
		t.Run(method, func(t *testing.T) {
			before, after, _ := smoothWith(t, "global", method)
			assert.Less(t, after, before)
		})
	}
}

func TestSmoothStopsOnCancel(t *testing.T) {
	a, err := config.Default().Build(nil, nil, nil)
	require.NoError(t, err)
	sm, err := newSmoother(a, config.Default().Smooth, quietLogger())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := hexGrid(t)
	start := p.Coords[center]
	_, _, err = sm.Run(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, start, p.Coords[center])
}

func TestReport(t *testing.T) {
	cfg := config.Default()
	cfg.Patches.Strategy = "block"
	cfg.Patches.BlockSize = 2
	a, err := cfg.Build(nil, nil, nil)
	require.NoError(t, err)
	s := &session{cfg: cfg, logger: quietLogger(), patch: hexGrid(t), asm: a}

	var out bytes.Buffer
	require.NoError(t, s.report(&out))
	assert.Contains(t, out.String(), "objective: TMP ShapeSize p=2 value=")
	assert.Contains(t, out.String(), "partitions: block n=4")
	assert.Contains(t, out.String(), "interface 0-1: 2 faces\ninterface 0-2: 2 faces\ninterface 1-3: 2 faces\ninterface 2-3: 2 faces\n")
}
