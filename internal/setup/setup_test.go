package setup

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fgmax/internal/fgmax"
	"github.com/banshee-data/fgmax/internal/fsutil"
	"github.com/banshee-data/fgmax/internal/monitoring"
)

const allStyles = `
num_fgmax_val = 5

fgmax_grid "3" {
  label       = "harbor"
  point_style = 2
  tstart_max  = 3600
  dt_check    = 5
  min_level_check = 3
  interp_method   = 1
  x1 = 0.03
  y1 = 2.01
  x2 = 1.02
  y2 = 2.49
  dx = 0.1

  adjust_to_domain {
    x_lower = 0
    y_lower = 2
  }
}

fgmax_grid "1" {
  point_style = 0
  x = [1, 2, 3]
  y = [4, 5, 6]
  xy_file = "pts.xy"
  write_xy_file = true
}

fgmax_grid "2" {
  point_style = 1
  npts = 100
  x1 = -1
  y1 = 0
  x2 = 1
  y2 = 0.5
}

fgmax_grid "4" {
  point_style = 3
  n12 = 10
  n23 = 20
  x1 = 0
  y1 = 0
  x2 = 1
  y2 = 0
  x3 = 1
  y3 = 1
  x4 = 0
  y4 = 1
}

fgmax_grid "5" {
  point_style = 4
  topo_file   = "fgmax_pts.tt3"
  arrival_tol = 0.5
}
`

func TestLoad_AllStyles(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem().Seed(map[string]string{"grids.hcl": allStyles})
	s, err := Load(fsys, "grids.hcl")
	require.NoError(t, err)
	assert.Equal(t, fgmax.ValuesMomentum, s.Values())

	var log []string
	grids, err := s.Grids(func(format string, v ...interface{}) { log = append(log, format) })
	require.NoError(t, err)
	require.Len(t, grids, 5)
	for k, g := range grids {
		assert.Equal(t, k+1, g.ID, "grids are ordered by fgno")
	}

	want := map[int]fgmax.Geometry{
		1: fgmax.PointList{X: []float64{1, 2, 3}, Y: []float64{4, 5, 6}, XYFile: "pts.xy", WriteXYFile: true},
		2: fgmax.Transect{NPoints: 100, P1: fgmax.Point{X: -1}, P2: fgmax.Point{X: 1, Y: 0.5}},
		3: fgmax.RegularGrid{NX: 12, NY: 7, Lower: fgmax.Point{X: -0.05, Y: 1.95}, Upper: fgmax.Point{X: 1.05, Y: 2.55}},
		4: fgmax.Quadrilateral{N12: 10, N23: 20, Corners: [4]fgmax.Point{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}},
		5: fgmax.DEMPoints{File: "fgmax_pts.tt3"},
	}
	for _, g := range grids {
		if diff := cmp.Diff(want[g.ID], g.Geometry, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("fgno %d geometry mismatch (-want +got):\n%s", g.ID, diff)
		}
	}

	harbor := grids[2]
	assert.Equal(t, "harbor", harbor.Label)
	assert.Equal(t, 3600.0, harbor.TStartMax)
	assert.Equal(t, 1e10, harbor.TEndMax, "defaults survive")
	assert.Equal(t, 5.0, harbor.DTCheck)
	assert.Equal(t, 3, harbor.MinLevelCheck)
	assert.Equal(t, fgmax.InterpBilinear, harbor.Interp)
	assert.Equal(t, 0.5, grids[4].ArrivalTol)
	assert.Contains(t, log, "fgno=3: x:")
}

func TestParse_DefaultValues(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(`fgmax_grid "1" {
  point_style = 4
  topo_file = "a.tt3"
}
`), "one.hcl")
	require.NoError(t, err)
	assert.Equal(t, fgmax.ValuesSpeed, s.Values())
}

func TestGrids_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "missing npts",
			src:  `fgmax_grid "1" { point_style = 1 }`,
			want: fgmax.ErrConfig,
		},
		{
			name: "missing corner",
			src: `fgmax_grid "1" {
  point_style = 3
  n12 = 2
  n23 = 2
  x1 = 0
  y1 = 0
}`,
			want: fgmax.ErrConfig,
		},
		{
			name: "missing topo file",
			src:  `fgmax_grid "1" { point_style = 4 }`,
			want: fgmax.ErrConfig,
		},
		{
			name: "unknown point style",
			src:  `fgmax_grid "1" { point_style = 7 }`,
			want: fgmax.ErrUnsupportedPointStyle,
		},
		{
			name: "bad fgno label",
			src:  `fgmax_grid "one" { point_style = 0 }`,
			want: fgmax.ErrConfig,
		},
		{
			name: "duplicate fgno",
			src: `fgmax_grid "1" {
  point_style = 4
  topo_file = "a.tt3"
}
fgmax_grid "1" {
  point_style = 4
  topo_file = "b.tt3"
}`,
			want: fgmax.ErrConfig,
		},
		{
			name: "adjust without dx",
			src: `fgmax_grid "1" {
  point_style = 2
  nx = 3
  ny = 3
  x1 = 0
  y1 = 0
  x2 = 1
  y2 = 1
  adjust_to_domain {
    x_lower = 0
    y_lower = 0
  }
}`,
			want: fgmax.ErrConfig,
		},
		{
			name: "bad num_fgmax_val",
			src:  "num_fgmax_val = 3\n",
			want: fgmax.ErrConfig,
		},
		{
			name: "bad interp_method",
			src: `fgmax_grid "1" {
  point_style = 4
  topo_file = "a.tt3"
  interp_method = 2
}`,
			want: fgmax.ErrConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.src), "bad.hcl")
			require.NoError(t, err)
			_, err = s.Grids(monitoring.Discard)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`fgmax_grid "1" {`), "broken.hcl")
	assert.Error(t, err)

	_, err = Parse([]byte(`fgmax_grid "1" { colour = "red" }`), "unknown.hcl")
	assert.Error(t, err, "unknown attributes and missing point_style are rejected")

	_, err = Load(fsutil.NewMemoryFileSystem(), "missing.hcl")
	assert.Error(t, err)
}

func TestParse_Expressions(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(`fgmax_grid "1" {
  point_style = 1
  npts = max(2, ceil(10.2))
  x1 = -abs(2)
  y1 = floor(1.7)
  x2 = 90 * unit.arcmin
  y2 = 36 * unit.arcsec
}
`), "expr.hcl")
	require.NoError(t, err)
	grids, err := s.Grids(monitoring.Discard)
	require.NoError(t, err)
	require.Len(t, grids, 1)

	want := fgmax.Transect{NPoints: 11, P1: fgmax.Point{X: -2, Y: 1}, P2: fgmax.Point{X: 1.5, Y: 0.01}}
	if diff := cmp.Diff(want, grids[0].Geometry, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("geometry mismatch (-want +got):\n%s", diff)
	}

	_, err = Parse([]byte(`num_fgmax_val = sqrt(4)`), "nofunc.hcl")
	assert.Error(t, err, "only the listed functions are available")
}
