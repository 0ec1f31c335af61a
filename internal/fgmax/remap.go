package fgmax

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/fgmax/internal/monitoring"
	"github.com/banshee-data/fgmax/internal/topo"
)

// RemapToReference places flat point_style 4 results onto the raster that
// selected the points. Point k lands in cell (round((y-y0)/dy), round((x-x0)/dx));
// cells with no point stay masked. Afterwards the results use IndexingXY and
// the reference's coordinate meshes.
func (r *Results) RemapToReference(ref *topo.Topography, logf monitoring.LogFunc) error {
	logf = monitoring.Or(logf)
	if !r.Shape.Flat {
		logf("X and Y already 2d, not converting")
		return nil
	}
	if ref == nil || ref.NX < 1 || ref.NY < 1 {
		return fmt.Errorf("%w: empty reference grid", ErrRemap)
	}
	if ref.DX <= 0 || ref.DY <= 0 {
		return fmt.Errorf("%w: reference spacing dx = %g, dy = %g", ErrRemap, ref.DX, ref.DY)
	}
	logf("deduced dx = %g, dy = %g", ref.DX, ref.DY)

	cells := make([][2]int, r.Shape.Rows)
	for k := range cells {
		x, y := r.X.At(k, 0), r.Y.At(k, 0)
		i := int(math.Round((x - ref.X0) / ref.DX))
		j := int(math.Round((y - ref.Y0) / ref.DY))
		if i < 0 || i >= ref.NX || j < 0 || j >= ref.NY {
			ext := ref.Extent()
			logf("point %d at (%g, %g) falls outside reference extent [%g, %g] x [%g, %g]",
				k, x, y, ext[0], ext[1], ext[2], ext[3])
			return fmt.Errorf("%w: point %d maps to cell (%d, %d) of a %d x %d grid",
				ErrRemap, k, j, i, ref.NY, ref.NX)
		}
		cells[k] = [2]int{j, i}
	}

	remapped := make(map[*Mask]*Mask)
	remapMask := func(m *Mask) *Mask {
		if out, ok := remapped[m]; ok {
			return out
		}
		out := NewMask(ref.NY, ref.NX)
		for k := range out.masked {
			out.masked[k] = true
		}
		for k, c := range cells {
			out.Set(c[0], c[1], m != nil && m.At(k, 0))
		}
		remapped[m] = out
		return out
	}
	remapField := func(f *Field) *Field {
		if f == nil {
			return nil
		}
		v := mat.NewDense(ref.NY, ref.NX, nil)
		for k, c := range cells {
			v.Set(c[0], c[1], f.Values.At(k, 0))
		}
		return &Field{Values: v, Mask: remapMask(f.Mask)}
	}

	for _, fp := range []**Field{
		&r.Level, &r.B, &r.H, &r.HTime, &r.S, &r.STime,
		&r.HS, &r.HSTime, &r.HSS, &r.HSSTime, &r.HMin, &r.HMinTime,
		&r.Arrival, &r.DZ, &r.B0,
	} {
		*fp = remapField(*fp)
	}
	r.Mask = remapMask(r.Mask)

	r.X = mat.DenseCopyOf(ref.X)
	r.Y = mat.DenseCopyOf(ref.Y)
	r.Shape = Shape{Rows: ref.NY, Cols: ref.NX}
	r.Indexing = IndexingXY
	r.setAxes()
	logf("converted %d points to a %d x %d array", len(cells), ref.NY, ref.NX)
	return nil
}
