package dtopo

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// LinearInterpolator evaluates a bilinear surface over a regular grid.
// Points outside the grid get the fill value.
type LinearInterpolator struct {
	x, y []float64
	rows []interp.PiecewiseLinear
	fill float64
}

// NewLinearInterpolator fits z, a len(y) x len(x) matrix, on axes x and y.
// Both axes need at least two strictly increasing values.
func NewLinearInterpolator(x, y []float64, z mat.Matrix, fill float64) (*LinearInterpolator, error) {
	r, c := z.Dims()
	if r != len(y) || c != len(x) {
		return nil, fmt.Errorf("dtopo: values are %dx%d, axes are %dx%d", r, c, len(y), len(x))
	}
	if len(x) < 2 || len(y) < 2 {
		return nil, fmt.Errorf("dtopo: need at least 2x2 values, got %dx%d", len(y), len(x))
	}
	if !strictlyIncreasing(x) {
		return nil, fmt.Errorf("dtopo: x axis is not strictly increasing")
	}
	if !strictlyIncreasing(y) {
		return nil, fmt.Errorf("dtopo: y axis is not strictly increasing")
	}

	li := &LinearInterpolator{
		x:    x,
		y:    y,
		rows: make([]interp.PiecewiseLinear, r),
		fill: fill,
	}
	for j := range li.rows {
		if err := li.rows[j].Fit(x, mat.Row(nil, j, z)); err != nil {
			return nil, fmt.Errorf("dtopo: fit row %d: %w", j, err)
		}
	}
	return li, nil
}

func strictlyIncreasing(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if !(v[i] > v[i-1]) {
			return false
		}
	}
	return true
}

// At returns the interpolated value at (px, py).
func (li *LinearInterpolator) At(px, py float64) float64 {
	nx, ny := len(li.x), len(li.y)
	if math.IsNaN(px) || math.IsNaN(py) ||
		px < li.x[0] || px > li.x[nx-1] || py < li.y[0] || py > li.y[ny-1] {
		return li.fill
	}

	hi := sort.SearchFloat64s(li.y, py)
	if hi == 0 {
		hi = 1
	}
	lo := hi - 1

	v0 := li.rows[lo].Predict(px)
	v1 := li.rows[hi].Predict(px)
	t := (py - li.y[lo]) / (li.y[hi] - li.y[lo])
	return v0 + t*(v1-v0)
}
