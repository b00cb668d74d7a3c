package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/MeshQual/element"
	"github.com/notargets/MeshQual/mesh"
	"github.com/notargets/MeshQual/metric"
	"github.com/notargets/MeshQual/objective"
	"github.com/notargets/MeshQual/partitions"
	"github.com/notargets/MeshQual/target"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParseOverlaysDefaults(t *testing.T) {
	c, err := Parse([]byte(`
objective:
  power: 4
metric:
  name: shape
  untangle:
    enabled: true
target:
  kind: lvqd
  lambda: average
  guides:
    delta: ideal
patches:
  strategy: vertex
  layers: 2
log:
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, 4.0, c.Objective.Power)
	assert.Equal(t, "shape", c.Metric.Name)
	assert.True(t, c.Metric.Untangle.Enabled)
	assert.Equal(t, 1.0, c.Metric.Untangle.Sigma, "default kept")
	assert.Equal(t, "reference", c.Target.Guides.V, "default kept")
	assert.Equal(t, "ideal", c.Target.Guides.Delta)
	assert.Equal(t, 2, c.Patches.Layers)
	assert.Equal(t, "json", c.Log.Format)

	empty, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), empty)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "objective: {exponent: 2}",
		"zero power":      "objective: {power: 0}",
		"unknown metric":  "metric: {name: aspect}",
		"negative scale":  "metric: {scale: -1}",
		"unknown target":  "target: {kind: guess}",
		"bad guide":       "target: {guides: {q: mesh}}",
		"bad strategy":    "patches: {strategy: metis}",
		"zero layers":     "patches: {layers: 0}",
		"bad log level":   "log: {level: trace}",
		"epsilon too big": "metric: {untangle: {epsilon: 1.5}}",
		"malformed yaml":  "objective: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshqual.yaml")
	require.NoError(t, os.WriteFile(path, []byte("objective: {power: 3}\n"), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, c.Objective.Power)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func unitTet(t *testing.T) *mesh.Patch {
	t.Helper()
	coords := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}}
	p, err := mesh.NewPatch(coords, []bool{true, true, true, false}, []mesh.Element{{Type: element.Tet, Conn: []int{0, 1, 2, 3}}})
	require.NoError(t, err)
	return p
}

func TestBuildIdentityObjective(t *testing.T) {
	a, err := Default().Build(nil, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, target.Identity{}, a.Targets)
	assert.Nil(t, a.Weights)
	assert.Empty(t, a.Users())
	assert.Equal(t, partitions.GlobalPatch, a.Strategy)

	v, ok, err := a.Objective.Evaluate(objective.Calculate, unitTet(t), true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0, v, 1e-14, "the unit tet matches the identity target")
	assert.Equal(t, 2.0, a.Objective.Power())

	pb := a.Partitioner(unitTet(t))
	assert.Equal(t, 64, pb.TargetPartitionSize)
	assert.True(t, pb.FreeVerticesOnly)
}

func TestBuildMetricWrappers(t *testing.T) {
	c := Default()
	c.Metric.Scale = 3
	c.Metric.Tolerance = 0.25
	a, err := c.Build(nil, nil, nil)
	require.NoError(t, err)
	s, ok := a.Metric3D.(*metric.Scale3D)
	require.True(t, ok)
	assert.Equal(t, 3.0, s.Alpha)
	assert.Equal(t, 0.25, s.Metric.(*metric.ShapeSize3D).Eps)

	c = Default()
	c.Metric.Name = "det"
	c.Metric.Untangle = UntangleConfig{Enabled: true, Sigma: 2, Epsilon: 0.5}
	a, err = c.Build(nil, nil, nil)
	require.NoError(t, err)
	u, ok := a.Metric2D.(*metric.UntangleMu2D)
	require.True(t, ok)
	assert.Equal(t, 1.0, u.Constant)

	c = Default()
	c.Metric.Name = "untangle_beta"
	c.Metric.Beta = 0.2
	a, err = c.Build(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, metric.UntangleBeta3D{Beta: 0.2}, a.Metric3D)
}

func TestBuildTargets(t *testing.T) {
	c := Default()
	c.Target.Kind = "lvqd"
	_, err := c.Build(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoReference)

	c.Target.Lambda = "average"
	c.Target.Guides.Delta = "ideal"
	a, err := c.Build(unitTet(t), nil, nil)
	require.NoError(t, err)
	lvqd, ok := a.Targets.(*target.LVQD)
	require.True(t, ok)
	assert.Equal(t, target.LambdaAverage, lvqd.LambdaMode)
	assert.Equal(t, target.GuideIdeal, lvqd.Aspect)
	assert.Equal(t, target.GuideReference, lvqd.Orientation)

	c = Default()
	c.Target.Kind = "reader"
	c.Weight.Tag = "W"
	a, err = c.Build(nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, a.Users(), 2)
	assert.Equal(t, "W", a.Weights.(*target.WeightReader).TagName)
}

func TestBindChecksReferenceTopology(t *testing.T) {
	c := Default()
	c.Target.Kind = "lvqd"

	coords := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {X: 5}, {X: 6}, {X: 5, Y: 1}, {X: 5, Z: 1}}
	twoTets, err := mesh.NewPatch(coords, nil, []mesh.Element{
		{Type: element.Tet, Conn: []int{0, 1, 2, 3}},
		{Type: element.Tet, Conn: []int{4, 5, 6, 7}},
	})
	require.NoError(t, err)
	a, err := c.Build(twoTets, quiet, nil)
	require.NoError(t, err)
	assert.Len(t, a.Users(), 1, "the lvqd calculator keeps per-patch data")
	assert.ErrorIs(t, a.Bind(unitTet(t)), target.ErrInvalidState, "reference has an extra element")

	a, err = c.Build(unitTet(t), quiet, nil)
	require.NoError(t, err)
	work := unitTet(t)
	require.NoError(t, a.Bind(work))
	v, ok, err := a.Objective.Evaluate(objective.Calculate, work, true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0, v, 1e-14)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := LogConfig{Level: "warn", Format: "json"}.Logger(&buf)
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	LogConfig{Level: "debug", Format: "text"}.Logger(&buf).Debug("dbg")
	assert.Contains(t, buf.String(), "msg=dbg")
}
