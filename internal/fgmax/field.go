package fgmax

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Indexing selects how the solver's point order is laid out in 2D arrays.
type Indexing int

const (
	// IndexingIJ stores point (x_i, y_j) at [i, j]. Arrays are nx by ny.
	IndexingIJ Indexing = iota
	// IndexingXY stores point (x_i, y_j) at [j, i], like a topography raster.
	IndexingXY
)

func (ix Indexing) String() string {
	if ix == IndexingXY {
		return "xy"
	}
	return "ij"
}

// ParseIndexing accepts "ij" (or "") and "xy".
func ParseIndexing(s string) (Indexing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ij":
		return IndexingIJ, nil
	case "xy":
		return IndexingXY, nil
	}
	return IndexingIJ, fmt.Errorf("%w: indexing must be ij or xy, got %q", ErrConfig, s)
}

// Shape is the layout of every array in a results set. Flat shapes hold one
// point per row in a single column.
type Shape struct {
	Rows, Cols int
	Flat       bool
}

func flatShape(n int) Shape { return Shape{Rows: n, Cols: 1, Flat: true} }

// Size returns the number of points.
func (s Shape) Size() int { return s.Rows * s.Cols }

func (s Shape) String() string {
	if s.Flat {
		return fmt.Sprintf("(%d,)", s.Rows)
	}
	return fmt.Sprintf("(%d,%d)", s.Rows, s.Cols)
}

// Mask flags points that carry no data. A single Mask is shared by every
// quantity read from one results file.
type Mask struct {
	rows, cols int
	masked     []bool
}

// NewMask returns a mask of the given dimensions with nothing masked.
func NewMask(rows, cols int) *Mask {
	return &Mask{rows: rows, cols: cols, masked: make([]bool, rows*cols)}
}

// Dims returns the mask dimensions.
func (m *Mask) Dims() (int, int) { return m.rows, m.cols }

// At reports whether [i, j] is masked.
func (m *Mask) At(i, j int) bool { return m.masked[i*m.cols+j] }

// Set marks [i, j].
func (m *Mask) Set(i, j int, masked bool) { m.masked[i*m.cols+j] = masked }

// Count returns the number of masked points.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.masked {
		if b {
			n++
		}
	}
	return n
}

// Union returns a new mask set wherever m or other is set.
func (m *Mask) Union(other *Mask) *Mask {
	u := NewMask(m.rows, m.cols)
	for k := range u.masked {
		u.masked[k] = m.masked[k] || other.masked[k]
	}
	return u
}

// Field is a masked array of one quantity.
type Field struct {
	Values *mat.Dense
	Mask   *Mask
}

// Dims returns the array dimensions.
func (f *Field) Dims() (int, int) { return f.Values.Dims() }

// At returns the value at [i, j] and whether it is valid.
func (f *Field) At(i, j int) (float64, bool) {
	return f.Values.At(i, j), f.Mask == nil || !f.Mask.At(i, j)
}

// Valid returns the unmasked values in row-major order.
func (f *Field) Valid() []float64 {
	r, c := f.Values.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v, ok := f.At(i, j); ok {
				out = append(out, v)
			}
		}
	}
	return out
}

// Filled returns a copy of the values with masked points replaced by fill.
// Plotting passes NaN so masked cells are left blank.
func (f *Field) Filled(fill float64) *mat.Dense {
	out := mat.DenseCopyOf(f.Values)
	if f.Mask == nil {
		return out
	}
	r, c := out.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if f.Mask.At(i, j) {
				out.Set(i, j, fill)
			}
		}
	}
	return out
}

// Min and Max over unmasked values. Both are NaN when every point is masked.
func (f *Field) Min() float64 { return reduceValid(f, math.Min) }
func (f *Field) Max() float64 { return reduceValid(f, math.Max) }

func reduceValid(f *Field, op func(a, b float64) float64) float64 {
	v := f.Valid()
	if len(v) == 0 {
		return math.NaN()
	}
	acc := v[0]
	for _, x := range v[1:] {
		acc = op(acc, x)
	}
	return acc
}

// maskedWhere returns a field sharing f's values with a new mask set where f
// is masked or cond holds.
func maskedWhere(f *Field, cond func(i, j int) bool) *Field {
	r, c := f.Values.Dims()
	m := NewMask(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, (f.Mask != nil && f.Mask.At(i, j)) || cond(i, j))
		}
	}
	return &Field{Values: f.Values, Mask: m}
}

// reshape lays out the solver's point order (x fastest) in shape s.
func reshape(col []float64, s Shape, ix Indexing) *mat.Dense {
	out := mat.NewDense(s.Rows, s.Cols, nil)
	for k, v := range col {
		i, j := position(k, s, ix)
		out.Set(i, j, v)
	}
	return out
}

func position(k int, s Shape, ix Indexing) (int, int) {
	switch {
	case s.Flat:
		return k, 0
	case ix == IndexingXY:
		return k / s.Cols, k % s.Cols
	default:
		return k % s.Rows, k / s.Rows
	}
}
