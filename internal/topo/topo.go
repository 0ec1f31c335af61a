// Package topo reads GeoClaw topotype 3 rasters: a six line header followed by
// rows of values, northernmost row first. The point-style 4 fgmax grids use
// such a file as a 0/1 selection mask and the results are mapped back onto it.
package topo

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/fgmax/internal/fsutil"
	"github.com/banshee-data/fgmax/internal/numtext"
)

// ErrHeader is returned for a missing or malformed header entry.
var ErrHeader = errors.New("topo: bad header")

// Topography is a regular raster with row 0 at the southern edge. X, Y and Z
// are NY x NX meshes of cell-centre coordinates and values.
type Topography struct {
	NX, NY int
	X0, Y0 float64
	DX, DY float64
	NoData float64

	X, Y, Z *mat.Dense
}

// Extent returns [x1, x2, y1, y2] of the cell centres.
func (t *Topography) Extent() [4]float64 {
	return [4]float64{
		t.X0,
		t.X0 + float64(t.NX-1)*t.DX,
		t.Y0,
		t.Y0 + float64(t.NY-1)*t.DY,
	}
}

// XAxis returns the NX cell-centre x coordinates.
func (t *Topography) XAxis() []float64 {
	return mat.Row(nil, 0, t.X)
}

// YAxis returns the NY cell-centre y coordinates, south to north.
func (t *Topography) YAxis() []float64 {
	return mat.Col(nil, 0, t.Y)
}

// Selected reports whether cell (j, i) holds a non-zero, non-nodata value.
func (t *Topography) Selected(j, i int) bool {
	z := t.Z.At(j, i)
	return z != 0 && z != t.NoData && !math.IsNaN(z)
}

type header struct {
	values map[string][]float64
}

func (h header) one(path string, keys ...string) (float64, string, error) {
	for _, k := range keys {
		if v, ok := h.values[k]; ok && len(v) > 0 {
			return v[0], k, nil
		}
	}
	return 0, "", fmt.Errorf("%w: %s has no %s entry", ErrHeader, path, keys[0])
}

// parseHeaderLine accepts both "value key" (GeoClaw) and "key value" (ESRI)
// orderings; cellsize may carry separate dx and dy values.
func parseHeaderLine(line string) (string, []float64, error) {
	var key string
	var vals []float64
	for _, tok := range strings.Fields(line) {
		if v, err := numtext.ParseFloat(tok); err == nil {
			vals = append(vals, v)
			continue
		}
		if key != "" {
			return "", nil, fmt.Errorf("%w: two labels in %q", ErrHeader, line)
		}
		key = strings.ToLower(tok)
	}
	if key == "" || len(vals) == 0 {
		return "", nil, fmt.Errorf("%w: %q", ErrHeader, line)
	}
	return key, vals, nil
}

// ReadType3 reads a topotype 3 raster through fsys.
func ReadType3(fsys fsutil.FileSystem, path string) (*Topography, error) {
	data, err := fsutil.Default(fsys).ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topo file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	const headerLines = 6
	if len(lines) < headerLines {
		return nil, fmt.Errorf("%w: %s has %d lines", ErrHeader, path, len(lines))
	}

	h := header{values: make(map[string][]float64, headerLines)}
	for _, line := range lines[:headerLines] {
		key, vals, err := parseHeaderLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		h.values[key] = vals
	}

	ncols, _, err := h.one(path, "ncols")
	if err != nil {
		return nil, err
	}
	nrows, _, err := h.one(path, "nrows")
	if err != nil {
		return nil, err
	}
	xll, xkey, err := h.one(path, "xllcorner", "xllcenter", "xll", "xlower")
	if err != nil {
		return nil, err
	}
	yll, _, err := h.one(path, "yllcorner", "yllcenter", "yll", "ylower")
	if err != nil {
		return nil, err
	}
	cell, ok := h.values["cellsize"]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no cellsize entry", ErrHeader, path)
	}
	nodata, _, err := h.one(path, "nodata_value")
	if err != nil {
		return nil, err
	}

	t := &Topography{
		NX:     int(ncols),
		NY:     int(nrows),
		DX:     cell[0],
		DY:     cell[0],
		NoData: nodata,
	}
	if len(cell) > 1 {
		t.DY = cell[1]
	}
	if t.NX < 1 || t.NY < 1 || t.DX <= 0 || t.DY <= 0 {
		return nil, fmt.Errorf("%w: %s has %dx%d cells of %gx%g", ErrHeader, path, t.NX, t.NY, t.DX, t.DY)
	}

	t.X0, t.Y0 = xll, yll
	if strings.HasSuffix(xkey, "corner") {
		// Corner-registered header: shift to the centre of the first cell.
		t.X0 += t.DX / 2
		t.Y0 += t.DY / 2
	}

	body := strings.Fields(strings.Join(lines[headerLines:], " "))
	if len(body) != t.NX*t.NY {
		return nil, fmt.Errorf("topo: %s holds %d values, header implies %d", path, len(body), t.NX*t.NY)
	}

	t.X = mat.NewDense(t.NY, t.NX, nil)
	t.Y = mat.NewDense(t.NY, t.NX, nil)
	t.Z = mat.NewDense(t.NY, t.NX, nil)
	for r := 0; r < t.NY; r++ {
		j := t.NY - 1 - r
		for i := 0; i < t.NX; i++ {
			v, err := numtext.ParseFloat(body[r*t.NX+i])
			if err != nil {
				return nil, fmt.Errorf("topo: %s row %d: %w", path, r+1, err)
			}
			t.Z.Set(j, i, v)
			t.X.Set(j, i, t.X0+float64(i)*t.DX)
			t.Y.Set(j, i, t.Y0+float64(j)*t.DY)
		}
	}
	return t, nil
}
