// Package testutil provides shared test utilities and fixtures.
//
// The fixture builders render the text files the solver exchanges with the
// fgmax tools (results tables, topotype 3 rasters) so tests can seed an
// in-memory filesystem without checked-in data.
package testutil

import (
	"fmt"
	"strings"
	"testing"
)

// Unset is what the solver writes for quantities it never updated.
const Unset = -0.9999e100

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// LatticePoints returns the points of an nx by ny lattice in the order the
// solver writes them: x varies fastest.
func LatticePoints(nx, ny int, x1, y1, dx, dy float64) (xs, ys []float64) {
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			xs = append(xs, x1+float64(i)*dx)
			ys = append(ys, y1+float64(j)*dy)
		}
	}
	return xs, ys
}

// ResultsTable renders an fgmax results file with ncols columns. Columns 0
// and 1 are the point coordinates; value supplies every other column for
// point k.
func ResultsTable(xs, ys []float64, ncols int, value func(k, col int) float64) string {
	var b strings.Builder
	for k := range xs {
		fmt.Fprintf(&b, "%24.14e %24.14e", xs[k], ys[k])
		for c := 2; c < ncols; c++ {
			fmt.Fprintf(&b, " %24.14e", value(k, c))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// TopoType3 renders a topotype 3 raster. rows are listed north first, as in
// the file; the header uses xllcenter/yllcenter so x0, y0 is the centre of
// the south-west cell.
func TopoType3(x0, y0, cellsize, nodata float64, rows [][]float64) string {
	var b strings.Builder
	ncols := 0
	if len(rows) > 0 {
		ncols = len(rows[0])
	}
	fmt.Fprintf(&b, "%d ncols\n%d nrows\n", ncols, len(rows))
	fmt.Fprintf(&b, "%g xllcenter\n%g yllcenter\n", x0, y0)
	fmt.Fprintf(&b, "%g cellsize\n%g nodata_value\n", cellsize, nodata)
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%g", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
