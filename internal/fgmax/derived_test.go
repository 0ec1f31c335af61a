package fgmax

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/fgmax/internal/fsutil"
	"github.com/banshee-data/fgmax/internal/monitoring"
	"github.com/banshee-data/fgmax/internal/testutil"
)

// finalDZ is a two-frame dtopo on [0,2] x [0,1] whose last frame is x + 10y.
const finalDZ = `3 mx
2 my
2 mt
0.0 xlower
0.0 ylower
0.0 t0
1.0 dx
1.0 dy
30.0 dt
0 0 0
0 0 0
10 11 12
0 1 2
`

// listResults reads three listed points: (0.5,0.5), (2,1) and (5,5) with
// B = -10, 20, 3 and h = 1, 2, 0.5. Speed is 4, 3, 9.
func listResults(t *testing.T, fsys *fsutil.MemoryFileSystem) *Results {
	t.Helper()
	xs := []float64{0.5, 2, 5}
	ys := []float64{0.5, 1, 5}
	b := []float64{-10, 20, 3}
	h := []float64{1, 2, 0.5}
	s := []float64{4, 3, 9}
	arrival := []float64{120, 60, testutil.Unset}
	fsys.Seed(map[string]string{
		"dtopo.tt3": finalDZ,
		"_output/fgmax0001.txt": testutil.ResultsTable(xs, ys, 9, func(k, col int) float64 {
			switch col {
			case 3:
				return b[k]
			case 4:
				return h[k]
			case 5:
				return s[k]
			case 8:
				return arrival[k]
			}
			return 1
		}),
	})

	g := NewGrid(1)
	g.Geometry = PointList{X: xs, Y: ys}
	res, err := g.ReadOutput(OutputOptions{FS: fsys, Logf: monitoring.Discard})
	require.NoError(t, err)
	return res
}

func column(f *Field) []float64 {
	return mat.Col(nil, 0, f.Values)
}

func TestResults_BoundingBox(t *testing.T) {
	t.Parallel()

	res := listResults(t, fsutil.NewMemoryFileSystem())
	assert.Equal(t, [4]float64{0.5, 5, 0.5, 5}, res.BoundingBox())
}

func TestResults_InterpDZ(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	res := listResults(t, fsys)

	var log captureLog
	dz, err := res.InterpDZ(fsys, "dtopo.tt3", 3, log.logf)
	require.NoError(t, err)
	assert.Same(t, dz, res.DZ)
	assert.InDeltaSlice(t, []float64{5.5, 12, 0}, column(dz), 1e-12)
	assert.True(t, log.contains("min(dz) = 0.00 m, max(dz) = 12.00 m"))

	b0 := res.PreEventTopo()
	assert.Same(t, b0, res.B0)
	assert.InDeltaSlice(t, []float64{-15.5, 8, 3}, column(b0), 1e-12)
	assert.Same(t, res.B.Mask, b0.Mask)

	_, err = res.InterpDZ(fsys, "dtopo.tt3", 1, nil)
	assert.Error(t, err)
}

func TestResults_PreEventTopoWithoutDZ(t *testing.T) {
	t.Parallel()

	res := listResults(t, fsutil.NewMemoryFileSystem())
	b0 := res.PreEventTopo()
	assert.Equal(t, []float64{-10, 20, 3}, column(b0))
	assert.NotSame(t, res.B.Values, b0.Values)
}

func TestResults_OnshoreDepth(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	res := listResults(t, fsys)
	_, err := res.InterpDZ(fsys, "dtopo.tt3", 3, monitoring.Discard)
	require.NoError(t, err)

	onshore, err := res.OnshoreDepth(nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 0.5}, onshore.Valid())
	assert.Zero(t, res.Mask.Count(), "the shared mask is left alone")

	dry := &Field{Values: mat.NewDense(3, 1, []float64{1, 0, 1})}
	onshore, err = res.OnshoreDepth(dry)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.5}, onshore.Valid())

	_, err = res.OnshoreDepth(&Field{Values: mat.NewDense(2, 1, nil)})
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestResults_SurfaceElevation(t *testing.T) {
	t.Parallel()

	res := listResults(t, fsutil.NewMemoryFileSystem())
	eta := res.SurfaceElevation()
	assert.Equal(t, []float64{-9, 22, 3.5}, column(eta))

	viaName, err := res.Field("eta")
	require.NoError(t, err)
	assert.True(t, mat.Equal(eta.Values, viaName.Values))

	_, err = res.Field("vorticity")
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestResults_Summary(t *testing.T) {
	t.Parallel()

	res := listResults(t, fsutil.NewMemoryFileSystem())
	s := res.Summary()
	assert.Equal(t, 3, s.Points)
	assert.Equal(t, 3, s.Wet)
	assert.Equal(t, 2.0, s.MaxDepth)
	assert.Equal(t, Point{X: 2, Y: 1}, s.MaxDepthAt)
	assert.InDelta(t, 3.5/3, s.MeanDepth, 1e-12)
	assert.Equal(t, 9.0, s.MaxSpeed)
	assert.Equal(t, 60.0, s.EarliestArrival)
}

func TestField_Helpers(t *testing.T) {
	t.Parallel()

	m := NewMask(2, 2)
	m.Set(0, 1, true)
	f := &Field{Values: mat.NewDense(2, 2, []float64{1, 2, 3, 4}), Mask: m}

	assert.Equal(t, []float64{1, 3, 4}, f.Valid())
	assert.Equal(t, 1.0, f.Min())
	assert.Equal(t, 4.0, f.Max())

	filled := f.Filled(math.NaN())
	assert.True(t, math.IsNaN(filled.At(0, 1)))
	assert.Equal(t, 2.0, f.Values.At(0, 1), "Filled copies")

	other := NewMask(2, 2)
	other.Set(1, 0, true)
	assert.Equal(t, 2, m.Union(other).Count())

	all := NewMask(2, 2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			all.Set(i, j, true)
		}
	}
	empty := &Field{Values: f.Values, Mask: all}
	assert.True(t, math.IsNaN(empty.Max()))
}
