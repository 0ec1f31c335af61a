// Package fgmax describes fixed-grid monitoring ("fgmax") grids: the sets of
// points on which the shallow-water solver records running maxima of depth,
// speed and momentum flux along with arrival times.
//
// A Grid is written into the solver's fgmax_grids.data file before a run and
// read back, together with the fgmaxNNNN.txt output table, afterwards. The
// output is reshaped into masked arrays laid out like the grid.
package fgmax

import (
	"fmt"
	"math"

	"github.com/banshee-data/fgmax/internal/monitoring"
)

// PointStyle selects how monitoring points are laid out.
type PointStyle int

const (
	StyleList      PointStyle = 0 // unstructured list of points
	StyleTransect  PointStyle = 1 // equally spaced points on a segment
	StyleRectangle PointStyle = 2 // regular lattice between two corners
	StyleQuad      PointStyle = 3 // lattice on a quadrilateral
	StyleDEM       PointStyle = 4 // cells flagged in a topotype 3 file
)

func (s PointStyle) String() string {
	switch s {
	case StyleList:
		return "list"
	case StyleTransect:
		return "transect"
	case StyleRectangle:
		return "rectangle"
	case StyleQuad:
		return "quadrilateral"
	case StyleDEM:
		return "dem"
	}
	return fmt.Sprintf("PointStyle(%d)", int(s))
}

// InterpMethod controls how the solver samples the grid at monitoring points.
type InterpMethod int

const (
	InterpNearest  InterpMethod = 0 // piecewise constant
	InterpBilinear InterpMethod = 1
)

// Point is a location in the solver's coordinates (often longitude, latitude).
type Point struct {
	X, Y float64
}

// Geometry is one of PointList, Transect, RegularGrid, Quadrilateral or
// DEMPoints.
type Geometry interface {
	PointStyle() PointStyle
	geometry()
}

// PointList is point_style 0. Points are either listed inline (X, Y) or kept
// in a separate coordinates file named by XYFile. When WriteXYFile is set the
// writer regenerates that file from X, Y and, if present, Z.
type PointList struct {
	X, Y []float64
	Z    []float64 // optional topography at each point

	XYFile      string
	WriteXYFile bool
}

// Transect is point_style 1: NPoints equally spaced from P1 to P2.
// A spacing cannot be requested because it is ambiguous on a sphere.
type Transect struct {
	NPoints int
	P1, P2  Point
	DX      float64 // ignored, warned about when set
}

// RegularGrid is point_style 2. Either the counts or the spacings must be set;
// see Resolve.
type RegularGrid struct {
	NX, NY       int
	DX, DY       float64
	Lower, Upper Point
}

// Quadrilateral is point_style 3: an N12 x N23 lattice whose edges run from
// corner 1 to 2 and from corner 2 to 3.
type Quadrilateral struct {
	N12, N23 int
	Corners  [4]Point
}

// DEMPoints is point_style 4: every flagged cell of a topotype 3 file is a
// monitoring point. The count is only known once results are read.
type DEMPoints struct {
	File string
}

func (PointList) PointStyle() PointStyle     { return StyleList }
func (Transect) PointStyle() PointStyle      { return StyleTransect }
func (RegularGrid) PointStyle() PointStyle   { return StyleRectangle }
func (Quadrilateral) PointStyle() PointStyle { return StyleQuad }
func (DEMPoints) PointStyle() PointStyle     { return StyleDEM }

func (PointList) geometry()     {}
func (Transect) geometry()      {}
func (RegularGrid) geometry()   {}
func (Quadrilateral) geometry() {}
func (DEMPoints) geometry()     {}

// NPoints returns the number of inline points.
func (p PointList) NPoints() int { return len(p.X) }

// snapTolerance bounds how far a derived corner may drift before the writer
// reports that it moved it.
const snapTolerance = 1e-6

// Resolve returns a copy with NX and NY filled in. A missing count is derived
// from the spacing, and the upper corner is moved onto the last lattice point
// when the extent is not a whole number of spacings. DY defaults to DX, or
// to the x spacing implied by NX when DX is unset.
func (g RegularGrid) Resolve(logf monitoring.LogFunc) (RegularGrid, error) {
	r := g
	if r.NX < 0 || r.NY < 0 {
		return r, fmt.Errorf("%w: negative point count nx=%d ny=%d", ErrConfig, r.NX, r.NY)
	}

	var err error
	r.NX, r.Upper.X, err = resolveAxis("x", r.NX, r.DX, r.Lower.X, r.Upper.X, logf)
	if err != nil {
		return r, err
	}
	dy := r.DY
	if dy == 0 && r.NY == 0 {
		dy = r.DX
		if dy == 0 && r.NX > 1 {
			dy = (r.Upper.X - r.Lower.X) / float64(r.NX-1)
		}
	}
	r.NY, r.Upper.Y, err = resolveAxis("y", r.NY, dy, r.Lower.Y, r.Upper.Y, logf)
	if err != nil {
		return r, err
	}
	return r, nil
}

func resolveAxis(axis string, n int, d, lo, hi float64, logf monitoring.LogFunc) (int, float64, error) {
	if n > 0 {
		if d != 0 && n > 1 {
			if eff := (hi - lo) / float64(n-1); math.Abs(eff-d) > snapTolerance {
				monitoring.Warnf(logf, "d%s = %g specified but n%s = %d gives spacing %.10e", axis, d, axis, n, eff)
			}
		}
		return n, hi, nil
	}
	if d <= 0 {
		return 0, hi, fmt.Errorf("%w: regular grid needs n%s or a positive d%s", ErrConfig, axis, axis)
	}

	n = int(math.Round((hi-lo)/d)) + 1
	if n < 1 {
		return 0, hi, fmt.Errorf("%w: %s2 = %g lies below %s1 = %g", ErrConfig, axis, hi, axis, lo)
	}
	if off := math.Abs(float64(n-1)*d + lo - hi); off > snapTolerance {
		snapped := lo + d*float64(n-1)
		monitoring.Warnf(logf, "abs((n%s-1)*d%s + %s1 - %s2) = %g, resetting %s2 from %22.16e to %22.16e",
			axis, axis, axis, axis, off, axis, hi, snapped)
		hi = snapped
	}
	return n, hi, nil
}

// Grid is one fgmax grid: the monitoring window and geometry written to the
// solver, plus whatever results have been read back for it.
type Grid struct {
	ID    int    // fgno
	Label string // legend text, not written to the solver

	TStartMax     float64
	TEndMax       float64
	DTCheck       float64
	MinLevelCheck int
	ArrivalTol    float64
	Interp        InterpMethod

	Geometry Geometry

	Results *Results
}

// NewGrid returns a grid with the solver's default monitoring window.
func NewGrid(id int) *Grid {
	return &Grid{
		ID:         id,
		TStartMax:  0,
		TEndMax:    1e10,
		DTCheck:    10,
		ArrivalTol: 1e-2,
		Interp:     InterpNearest,
	}
}

// PointStyle returns the style of the grid's geometry.
func (g *Grid) PointStyle() (PointStyle, error) {
	if g.Geometry == nil {
		return 0, ErrPointStyleUnset
	}
	return g.Geometry.PointStyle(), nil
}

func (g *Grid) logger(logf monitoring.LogFunc) monitoring.LogFunc {
	return monitoring.Prefixed(fmt.Sprintf("fgno=%d: ", g.ID), logf)
}
