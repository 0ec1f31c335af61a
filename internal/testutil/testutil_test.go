package testutil

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()

	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()

	AssertError(t, errors.New("test error"))
}

func TestLatticePoints(t *testing.T) {
	t.Parallel()

	xs, ys := LatticePoints(3, 2, 10, 20, 1, 0.5)
	assert.Equal(t, []float64{10, 11, 12, 10, 11, 12}, xs)
	assert.Equal(t, []float64{20, 20, 20, 20.5, 20.5, 20.5}, ys)
}

func TestResultsTable(t *testing.T) {
	t.Parallel()

	out := ResultsTable([]float64{1, 2}, []float64{3, 4}, 7, func(k, col int) float64 {
		return float64(10*k + col)
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	fields := strings.Fields(lines[1])
	require.Len(t, fields, 7)
	assert.Equal(t, "2.00000000000000e+00", fields[0])
	assert.Equal(t, "1.60000000000000e+01", fields[6])
}

func TestTopoType3(t *testing.T) {
	t.Parallel()

	out := TopoType3(0.5, 1.5, 1, -9999, [][]float64{{0, 1}, {1, 0}})
	assert.Equal(t, "2 ncols\n2 nrows\n0.5 xllcenter\n1.5 yllcenter\n1 cellsize\n-9999 nodata_value\n0 1\n1 0\n", out)
}
