package fgmax

import (
	"math"

	"github.com/banshee-data/fgmax/internal/monitoring"
)

// Adjust1D widens [x1Desired, x2Desired] to the nearest cell centres of a
// mesh with spacing dx whose lower edge is x1Domain, so the solver can record
// fgmax values without interpolating. n points from x1 to x2 are dx apart.
// The same applies to y.
func Adjust1D(x1Desired, x2Desired, x1Domain, dx float64) (x1, x2 float64, n int) {
	i1 := math.Floor((x1Desired - x1Domain - 0.5*dx) / dx)
	x1 = x1Domain + (i1+0.5)*dx
	i2 := math.Floor((x2Desired - x1Domain + 0.5*dx) / dx)
	x2 = x1Domain + (i2+0.5)*dx
	return x1, x2, int(i2-i1) + 1
}

// Extent is a desired rectangular monitoring region.
type Extent struct {
	X1, X2, Y1, Y2 float64
}

// AdjustGrid applies Adjust1D along both axes and returns the aligned
// point_style 2 grid. dy defaults to dx when zero.
func AdjustGrid(want Extent, xDomain, yDomain, dx, dy float64, logf monitoring.LogFunc) RegularGrid {
	if dy == 0 {
		dy = dx
	}
	x1, x2, nx := Adjust1D(want.X1, want.X2, xDomain, dx)
	y1, y2, ny := Adjust1D(want.Y1, want.Y2, yDomain, dy)

	logf = monitoring.Or(logf)
	logf("x:")
	logf("  moved %17.12f to %17.12f by %g", want.X1, x1, math.Abs(want.X1-x1))
	logf("  moved %17.12f to %17.12f by %g", want.X2, x2, math.Abs(want.X2-x2))
	logf("y:")
	logf("  moved %17.12f to %17.12f by %g", want.Y1, y1, math.Abs(want.Y1-y1))
	logf("  moved %17.12f to %17.12f by %g", want.Y2, y2, math.Abs(want.Y2-y2))

	return RegularGrid{
		NX:    nx,
		NY:    ny,
		Lower: Point{X: x1, Y: y1},
		Upper: Point{X: x2, Y: y2},
	}
}
