package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fgmax/internal/fgmax"
	"github.com/banshee-data/fgmax/internal/testutil"
)

const gridsHCL = `
num_fgmax_val = 2

fgmax_grid "1" {
  label       = "harbor"
  point_style = 2
  nx = 3
  ny = 2
  x1 = 0
  y1 = 0
  x2 = 2
  y2 = 1
}

fgmax_grid "2" {
  point_style = 0
  x = [0.5, 2, 5]
  y = [0.5, 1, 5]
}
`

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

// workspace writes the setup file and the solver output for both grids.
// Grid 1 has h = k+1 with point 5 dry; grid 2 has s = 4, 3, 9.
func workspace(t *testing.T) (dir, data, outdir string) {
	t.Helper()
	dir = t.TempDir()
	writeFile(t, filepath.Join(dir, "grids.hcl"), gridsHCL)
	data = filepath.Join(dir, "fgmax_grids.data")
	outdir = filepath.Join(dir, "_output")

	code, _, stderr := runCLI(t, "write", "-setup", filepath.Join(dir, "grids.hcl"), "-out", data)
	require.Equal(t, 0, code, stderr)

	xs, ys := testutil.LatticePoints(3, 2, 0, 0, 1, 1)
	writeFile(t, fgmax.OutputPath(outdir, "", 1), testutil.ResultsTable(xs, ys, 9, func(k, col int) float64 {
		switch col {
		case 4:
			if k == 5 {
				return testutil.Unset
			}
			return float64(k + 1)
		case 8:
			return 30 * float64(k+1)
		}
		return 1
	}))
	speeds := []float64{4, 3, 9}
	writeFile(t, fgmax.OutputPath(outdir, "", 2), testutil.ResultsTable([]float64{0.5, 2, 5}, []float64{0.5, 1, 5}, 9, func(k, col int) float64 {
		if col == 5 {
			return speeds[k]
		}
		return 1
	}))
	return dir, data, outdir
}

func TestRun_UsageAndVersion(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Usage: fgmax <command>")

	code, stdout, _ := runCLI(t, "help")
	assert.Equal(t, 0, code)
	for _, c := range commands {
		assert.Contains(t, stdout, c.name)
	}

	code, stdout, _ = runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "fgmax dev"))

	code, _, stderr = runCLI(t, "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown command: frobnicate")
}

func TestWriteAndShow(t *testing.T) {
	_, data, _ := workspace(t)

	body, err := os.ReadFile(data)
	require.NoError(t, err)
	assert.Contains(t, string(body), "=: num_fgmax_val")
	assert.Contains(t, string(body), "=: num_fgmax_grids")

	code, stdout, stderr := runCLI(t, "show", "-data", data, "-fgno", "1")
	require.Equal(t, 0, code, stderr)
	assert.Regexp(t, regexp.MustCompile(`point_style\s+2 \(rectangle\)`), stdout)
	assert.Regexp(t, regexp.MustCompile(`nx, ny\s+3, 2`), stdout)

	code, stdout, stderr = runCLI(t, "show", "-data", data, "-fgno", "2")
	require.Equal(t, 0, code, stderr)
	assert.Regexp(t, regexp.MustCompile(`npts\s+3`), stdout)
}

func TestRead_Summary(t *testing.T) {
	dir, data, outdir := workspace(t)

	code, stdout, stderr := runCLI(t, "read", "-data", data, "-fgno", "1", "-outdir", outdir)
	require.Equal(t, 0, code, stderr)
	assert.Regexp(t, regexp.MustCompile(`wet points\s+5`), stdout)
	assert.Regexp(t, regexp.MustCompile(`max depth\s+5\.000 m at \(1, 1\)`), stdout)
	assert.Regexp(t, regexp.MustCompile(`first arrival\s+30\.0 s`), stdout)
	assert.NotContains(t, stderr, "reading", "diagnostics are quiet without -v")

	cfg := filepath.Join(dir, "fgmax.json")
	writeFile(t, cfg, `{"speed_units": "knots", "depth_units": "ft", "indexing": "xy"}`)
	code, stdout, stderr = runCLI(t, "read", "-config", cfg, "-data", data, "-fgno", "2", "-outdir", outdir, "-v")
	require.Equal(t, 0, code, stderr)
	assert.Regexp(t, regexp.MustCompile(`max speed\s+17\.495 kn`), stdout)
	assert.Regexp(t, regexp.MustCompile(`max depth\s+3\.281 ft`), stdout)
	assert.Contains(t, stderr, "fgno=2: reading")
}

func TestRead_Errors(t *testing.T) {
	dir, data, outdir := workspace(t)

	code, _, stderr := runCLI(t, "read", "-data", data)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "-fgno flag is required")

	code, _, stderr = runCLI(t, "read", "-data", data, "-fgno", "9", "-outdir", outdir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "fgmax read:")

	code, _, stderr = runCLI(t, "read", "-data", data, "-fgno", "1", "-outdir", filepath.Join(dir, "missing"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not found")

	code, _, _ = runCLI(t, "read", "-data", data, "-fgno", "1", "-outdir", outdir, "-indexing", "ji")
	assert.Equal(t, 1, code)

	code, _, _ = runCLI(t, "read", "-bogus")
	assert.Equal(t, 1, code)
}

func TestAdjust(t *testing.T) {
	code, stdout, _ := runCLI(t, "adjust", "-x1", "0.03", "-x2", "1.02", "-x0", "0", "-dx", "0.1")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "nx = 12")

	code, stdout, _ = runCLI(t, "adjust", "-x1", "0.03", "-x2", "1.02", "-x0", "0", "-dx", "0.1",
		"-y1", "2.01", "-y2", "2.49", "-y0", "2")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "ny = 7")
	assert.Contains(t, stdout, "moved")

	code, _, stderr := runCLI(t, "adjust", "-x1", "0")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "flag is required")
}

func TestPlot(t *testing.T) {
	dir, data, outdir := workspace(t)
	png := filepath.Join(dir, "plots", "h.png")
	html := filepath.Join(dir, "plots", "s.html")

	code, stdout, stderr := runCLI(t, "plot", "-data", data, "-fgno", "1", "-outdir", outdir, "-field", "h", "-png", png)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "wrote "+png)
	body, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	code, _, stderr = runCLI(t, "plot", "-data", data, "-fgno", "2", "-outdir", outdir, "-field", "s", "-html", html)
	require.Equal(t, 0, code, stderr)
	body, err = os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(body), "fgno 2 s")

	code, _, stderr = runCLI(t, "plot", "-data", data, "-fgno", "1", "-outdir", outdir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "-png or -html")

	code, _, _ = runCLI(t, "plot", "-data", data, "-fgno", "1", "-outdir", outdir, "-field", "vorticity", "-png", png)
	assert.Equal(t, 1, code)
}

func TestArchive(t *testing.T) {
	dir, data, outdir := workspace(t)
	db := filepath.Join(dir, "fgmax.db")

	code, stdout, stderr := runCLI(t, "archive", "-data", data, "-fgno", "1", "-outdir", outdir, "-db", db,
		"-setup", filepath.Join(dir, "grids.hcl"))
	require.Equal(t, 0, code, stderr)
	m := regexp.MustCompile(`recorded run (\S+) \(fgno 1, 6 points\)`).FindStringSubmatch(stdout)
	require.Len(t, m, 2, stdout)
	id := m[1]

	code, _, stderr = runCLI(t, "archive", "-data", data, "-fgno", "2", "-outdir", outdir, "-db", db, "-label", "breakwater")
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr = runCLI(t, "archive-list", "-db", db)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, id)
	assert.Contains(t, stdout, "harbor", "label taken from the setup file")
	assert.Contains(t, stdout, "breakwater", "label taken from -label")

	code, _, stderr = runCLI(t, "archive", "-data", data, "-fgno", "1", "-outdir", outdir, "-db", db,
		"-setup", filepath.Join(dir, "missing.hcl"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "read setup file")

	code, stdout, stderr = runCLI(t, "archive-list", "-db", db, "-run", id)
	require.Equal(t, 0, code, stderr)
	assert.Regexp(t, regexp.MustCompile(`wet points\s+5`), stdout)
	assert.Regexp(t, regexp.MustCompile(`max depth\s+5\.000`), stdout)

	code, _, stderr = runCLI(t, "archive-list", "-db", db, "-run", "nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not found")
}

func TestBBox(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pts.tt3")
	writeFile(t, path, testutil.TopoType3(10, 20, 0.5, -9999, [][]float64{
		{0, 1, 0},
		{1, -9999, 1},
	}))

	code, stdout, stderr := runCLI(t, "bbox", "-topo", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "3 x 2 cells")
	assert.Contains(t, stdout, "x2 = 11\n")
	assert.Contains(t, stdout, "y2 = 20.5\n")
	assert.Contains(t, stdout, "selected fgmax points: 3")
}
