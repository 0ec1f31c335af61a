package fgmax

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/fgmax/internal/dtopo"
	"github.com/banshee-data/fgmax/internal/fsutil"
	"github.com/banshee-data/fgmax/internal/monitoring"
)

// BoundingBox returns [x1, x2, y1, y2] over all monitoring points.
func (r *Results) BoundingBox() [4]float64 {
	xs, ys := denseData(r.X), denseData(r.Y)
	return [4]float64{floats.Min(xs), floats.Max(xs), floats.Min(ys), floats.Max(ys)}
}

func denseData(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}

// InterpDZ evaluates the final frame of a dtopo file at every monitoring
// point and stores it in r.DZ. Points outside the dtopo extent get zero.
// dz is not masked so it can be inspected where the run left no data.
func (r *Results) InterpDZ(fsys fsutil.FileSystem, path string, dtopoType int, logf monitoring.LogFunc) (*Field, error) {
	d, err := dtopo.Read(fsys, path, dtopoType)
	if err != nil {
		return nil, err
	}
	li, err := dtopo.NewLinearInterpolator(d.X, d.Y, d.Final(), 0)
	if err != nil {
		return nil, err
	}

	rows, cols := r.X.Dims()
	dz := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dz.Set(i, j, li.At(r.X.At(i, j), r.Y.At(i, j)))
		}
	}
	vals := denseData(dz)
	monitoring.Or(logf)("over fgmax extent, min(dz) = %.2f m, max(dz) = %.2f m", floats.Min(vals), floats.Max(vals))

	r.DZ = &Field{Values: dz}
	r.B0 = nil
	return r.DZ, nil
}

// PreEventTopo returns B0 = B - dz, the topography before any seafloor
// deformation, and stores it in r.B0. Without dz, B0 equals B.
func (r *Results) PreEventTopo() *Field {
	b0 := mat.DenseCopyOf(r.B.Values)
	if r.DZ != nil {
		b0.Sub(b0, r.DZ.Values)
	}
	r.B0 = &Field{Values: b0, Mask: r.B.Mask}
	return r.B0
}

// OnshoreDepth returns h masked offshore. With forceDry, points flagged 0
// are offshore; otherwise points with B0 < 0 are.
func (r *Results) OnshoreDepth(forceDry *Field) (*Field, error) {
	if forceDry != nil {
		fr, fc := forceDry.Dims()
		hr, hc := r.H.Dims()
		if fr != hr || fc != hc {
			return nil, fmt.Errorf("%w: force_dry_init is %dx%d, results are %dx%d", ErrConfig, fr, fc, hr, hc)
		}
		return maskedWhere(r.H, func(i, j int) bool { return forceDry.Values.At(i, j) == 0 }), nil
	}
	b0 := r.B0
	if b0 == nil {
		b0 = r.PreEventTopo()
	}
	return maskedWhere(r.H, func(i, j int) bool { return b0.Values.At(i, j) < 0 }), nil
}

// SurfaceElevation returns eta = h + B.
func (r *Results) SurfaceElevation() *Field {
	var eta mat.Dense
	eta.Add(r.H.Values, r.B.Values)
	return &Field{Values: &eta, Mask: r.Mask}
}

// Summary condenses a results set for reports.
type Summary struct {
	Points int
	Wet    int // unmasked points

	MaxDepth   float64
	MaxDepthAt Point
	MeanDepth  float64

	MaxSpeed        float64 // NaN when speed was not monitored
	EarliestArrival float64 // NaN when nothing arrived

	BoundingBox [4]float64
}

// Summary computes a Summary. Values over an empty set are NaN.
func (r *Results) Summary() Summary {
	s := Summary{
		Points:          r.Shape.Size(),
		Wet:             r.Shape.Size() - r.Mask.Count(),
		MaxDepth:        math.NaN(),
		MeanDepth:       math.NaN(),
		MaxSpeed:        math.NaN(),
		EarliestArrival: math.NaN(),
		BoundingBox:     r.BoundingBox(),
	}

	rows, cols := r.H.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if h, ok := r.H.At(i, j); ok && (math.IsNaN(s.MaxDepth) || h > s.MaxDepth) {
				s.MaxDepth = h
				s.MaxDepthAt = Point{X: r.X.At(i, j), Y: r.Y.At(i, j)}
			}
		}
	}
	if depths := r.H.Valid(); len(depths) > 0 {
		s.MeanDepth = stat.Mean(depths, nil)
	}
	if r.S != nil {
		s.MaxSpeed = r.S.Max()
	}
	s.EarliestArrival = r.Arrival.Min()
	return s
}
