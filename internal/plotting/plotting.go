// Package plotting renders fgmax result fields as PNG images with gonum/plot
// and as interactive HTML scatter charts with go-echarts. Masked points are
// never drawn.
package plotting

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/fgmax/internal/fgmax"
	"github.com/banshee-data/fgmax/internal/fsutil"
)

// ErrNothingToPlot is returned when every point of a field is masked.
var ErrNothingToPlot = errors.New("no unmasked points to plot")

// Options controls image size and colouring.
type Options struct {
	FS fsutil.FileSystem

	// Width and Height default to 8 x 6 inches.
	Width, Height vg.Length

	// PaletteSize is the number of colours in the ramp, default 64.
	PaletteSize int

	Title string
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 8 * vg.Inch
	}
	if h <= 0 {
		h = 6 * vg.Inch
	}
	return w, h
}

func (o Options) ramp() ramp {
	if o.PaletteSize <= 0 {
		return newRamp(64)
	}
	return newRamp(o.PaletteSize)
}

func (o Options) title(name string) string {
	if o.Title != "" {
		return o.Title
	}
	return name
}

// PNG picks the plot kind for the grid's point style: a heat map for
// rectangles and remapped DEM points, a profile for transects and a scatter
// for point lists and quadrilaterals.
func PNG(style fgmax.PointStyle, res *fgmax.Results, f *fgmax.Field, name, path string, opts Options) error {
	switch {
	case style == fgmax.StyleTransect:
		return TransectPNG(res, f, name, path, opts)
	case (style == fgmax.StyleRectangle || style == fgmax.StyleDEM) && !res.Shape.Flat:
		return HeatMapPNG(res, f, name, path, opts)
	default:
		return ScatterPNG(res, f, name, path, opts)
	}
}

// fieldGrid adapts a 2D field on its 1D axes to plotter.GridXYZ. Column c
// follows XAxis and row r follows YAxis regardless of indexing.
type fieldGrid struct {
	z        *mat.Dense
	xs, ys   []float64
	ij       bool
	min, max float64
}

func (g fieldGrid) Dims() (c, r int) { return len(g.xs), len(g.ys) }
func (g fieldGrid) X(c int) float64  { return g.xs[c] }
func (g fieldGrid) Y(r int) float64  { return g.ys[r] }
func (g fieldGrid) Min() float64     { return g.min }
func (g fieldGrid) Max() float64     { return g.max }

func (g fieldGrid) Z(c, r int) float64 {
	if g.ij {
		return g.z.At(c, r)
	}
	return g.z.At(r, c)
}

// HeatMapPNG draws a structured field as a heat map.
func HeatMapPNG(res *fgmax.Results, f *fgmax.Field, name, path string, opts Options) error {
	if res.Shape.Flat {
		return fmt.Errorf("heat map of %s needs a 2D layout, got %s", name, res.Shape)
	}
	lo, hi, err := valueRange(f)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	grid := fieldGrid{
		z:   f.Filled(math.NaN()),
		xs:  res.XAxis,
		ys:  res.YAxis,
		ij:  res.Indexing == fgmax.IndexingIJ,
		min: lo,
		max: hi,
	}
	hm := plotter.NewHeatMap(grid, opts.ramp())

	p := plot.New()
	p.Title.Text = opts.title(name)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(hm)
	return save(p, path, opts)
}

// TransectPNG draws a field against distance along the point list.
func TransectPNG(res *fgmax.Results, f *fgmax.Field, name, path string, opts Options) error {
	xs, ys, vs := flatten(res, f)
	pts := make(plotter.XYs, 0, len(vs))
	dist := 0.0
	for k := range vs {
		if k > 0 {
			dist += math.Hypot(xs[k]-xs[k-1], ys[k]-ys[k-1])
		}
		if math.IsNaN(vs[k]) {
			continue
		}
		pts = append(pts, plotter.XY{X: dist, Y: vs[k]})
	}
	if len(pts) == 0 {
		return fmt.Errorf("%s: %w", name, ErrNothingToPlot)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = opts.ramp()[0]
	line.Width = vg.Points(1)

	p := plot.New()
	p.Title.Text = opts.title(name)
	p.X.Label.Text = "distance along transect"
	p.Y.Label.Text = name
	p.Add(line, plotter.NewGrid())
	return save(p, path, opts)
}

// ScatterPNG draws every unmasked point at its location, coloured by value.
func ScatterPNG(res *fgmax.Results, f *fgmax.Field, name, path string, opts Options) error {
	lo, hi, err := valueRange(f)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	xs, ys, vs := flatten(res, f)
	pts := make(plotter.XYs, 0, len(vs))
	vals := make([]float64, 0, len(vs))
	for k, v := range vs {
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[k], Y: ys[k]})
		vals = append(vals, v)
	}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	colors := opts.ramp()
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  colors.at(vals[i], lo, hi),
			Radius: vg.Points(3),
			Shape:  draw.CircleGlyph{},
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s [%.3g, %.3g]", opts.title(name), lo, hi)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(sc)
	return save(p, path, opts)
}

// valueRange returns the unmasked extent of f, widened when flat so the
// palette has something to span.
func valueRange(f *fgmax.Field) (lo, hi float64, err error) {
	lo, hi = f.Min(), f.Max()
	if math.IsNaN(lo) {
		return 0, 0, ErrNothingToPlot
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return lo, hi, nil
}

// flatten lists point coordinates and values in layout order with masked
// values as NaN.
func flatten(res *fgmax.Results, f *fgmax.Field) (xs, ys, vs []float64) {
	rows, cols := f.Dims()
	n := rows * cols
	xs, ys, vs = make([]float64, 0, n), make([]float64, 0, n), make([]float64, 0, n)
	filled := f.Filled(math.NaN())
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			xs = append(xs, res.X.At(i, j))
			ys = append(ys, res.Y.At(i, j))
			vs = append(vs, filled.At(i, j))
		}
	}
	return xs, ys, vs
}

func save(p *plot.Plot, path string, opts Options) error {
	w, h := opts.size()
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	out, err := fsutil.CreateAll(opts.FS, path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(out); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
