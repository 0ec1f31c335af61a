// Package dtopo reads seafloor deformation files and interpolates the final
// deformation onto arbitrary points.
package dtopo

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/fgmax/internal/fsutil"
	"github.com/banshee-data/fgmax/internal/numtext"
)

var (
	// ErrUnsupportedType is returned for dtopo types other than 3.
	ErrUnsupportedType = errors.New("dtopo: unsupported dtopo type")
	// ErrHeader is returned for a malformed header.
	ErrHeader = errors.New("dtopo: bad header")
)

// DTopography holds a time series of deformation frames on a regular grid.
// Each frame is len(Y) x len(X) with row 0 at the southern edge.
type DTopography struct {
	X, Y  []float64
	Times []float64
	DZ    []*mat.Dense
}

// Final returns the last deformation frame.
func (d *DTopography) Final() *mat.Dense {
	return d.DZ[len(d.DZ)-1]
}

var headerKeys = []string{"mx", "my", "mt", "xlower", "ylower", "t0", "dx", "dy", "dt"}

// Read loads a dtopo file. Only dtopo type 3 (header plus mt frames of my rows
// of mx values, northernmost row first) is supported.
func Read(fsys fsutil.FileSystem, path string, dtopoType int) (*DTopography, error) {
	if dtopoType != 3 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, dtopoType)
	}

	data, err := fsutil.Default(fsys).ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dtopo file: %w", err)
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) < len(headerKeys) {
		return nil, fmt.Errorf("%w: %s has %d lines", ErrHeader, path, len(lines))
	}

	hdr := make([]float64, len(headerKeys))
	for k, key := range headerKeys {
		fields := strings.Fields(lines[k])
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: %s missing %s", ErrHeader, path, key)
		}
		v, err := numtext.ParseFloat(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", ErrHeader, path, key, err)
		}
		hdr[k] = v
	}
	mx, my, mt := int(hdr[0]), int(hdr[1]), int(hdr[2])
	xlower, ylower, t0 := hdr[3], hdr[4], hdr[5]
	dx, dy, dt := hdr[6], hdr[7], hdr[8]
	if mx < 1 || my < 1 || mt < 1 {
		return nil, fmt.Errorf("%w: %s has mx=%d my=%d mt=%d", ErrHeader, path, mx, my, mt)
	}

	body := strings.Fields(strings.Join(lines[len(headerKeys):], " "))
	if len(body) != mx*my*mt {
		return nil, fmt.Errorf("dtopo: %s holds %d values, header implies %d", path, len(body), mx*my*mt)
	}

	d := &DTopography{
		X:     make([]float64, mx),
		Y:     make([]float64, my),
		Times: make([]float64, mt),
		DZ:    make([]*mat.Dense, mt),
	}
	for i := range d.X {
		d.X[i] = xlower + float64(i)*dx
	}
	for j := range d.Y {
		d.Y[j] = ylower + float64(j)*dy
	}
	for k := 0; k < mt; k++ {
		d.Times[k] = t0 + float64(k)*dt
		frame := mat.NewDense(my, mx, nil)
		for r := 0; r < my; r++ {
			for i := 0; i < mx; i++ {
				v, err := numtext.ParseFloat(body[(k*my+r)*mx+i])
				if err != nil {
					return nil, fmt.Errorf("dtopo: %s frame %d: %w", path, k, err)
				}
				frame.Set(my-1-r, i, v)
			}
		}
		d.DZ[k] = frame
	}
	return d, nil
}
