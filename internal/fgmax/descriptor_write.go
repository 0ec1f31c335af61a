package fgmax

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/banshee-data/fgmax/internal/fsutil"
	"github.com/banshee-data/fgmax/internal/monitoring"
	"github.com/banshee-data/fgmax/internal/numtext"
)

// WriteOptions configures WriteGridData and WriteDataFile.
type WriteOptions struct {
	FS fsutil.FileSystem // receives regenerated points files

	// BaseDir is where a relative PointList.XYFile is created, normally the
	// directory of the data file. Empty means the working directory.
	BaseDir string

	Logf monitoring.LogFunc
}

// Values is num_fgmax_val: how many quantities the solver monitors.
type Values int

const (
	ValuesDepth    Values = 1 // h
	ValuesSpeed    Values = 2 // h, s
	ValuesMomentum Values = 5 // h, s, hs, hss, hmin
)

// Columns returns the width of the results table the solver writes.
func (v Values) Columns() (int, error) {
	switch v {
	case ValuesDepth:
		return 7, nil
	case ValuesSpeed:
		return 9, nil
	case ValuesMomentum:
		return 15, nil
	}
	return 0, fmt.Errorf("%w: num_fgmax_val must be 1, 2 or 5, got %d", ErrConfig, int(v))
}

// WriteDataFile writes a complete fgmax_grids.data file for grids.
func WriteDataFile(w io.Writer, grids []*Grid, values Values, opts WriteOptions) error {
	if _, err := values.Columns(); err != nil {
		return err
	}
	seen := make(map[int]bool, len(grids))
	for _, g := range grids {
		if seen[g.ID] {
			return fmt.Errorf("%w: duplicate fgno %d", ErrConfig, g.ID)
		}
		seen[g.ID] = true
	}

	var buf bytes.Buffer
	buf.WriteString("\n# fgmax grid parameters, generated by fgmax write\n\n")
	fmt.Fprintf(&buf, "%-20d =: num_fgmax_val\n", int(values))
	fmt.Fprintf(&buf, "%-20d =: num_fgmax_grids\n", len(grids))
	var pending []*pointsFile
	for _, g := range grids {
		pf, err := g.renderGridData(&buf, opts)
		if err != nil {
			return err
		}
		if pf != nil {
			pending = append(pending, pf)
		}
	}

	// Points files are only written once every block has rendered.
	for _, pf := range pending {
		if err := pf.write(opts.FS); err != nil {
			return err
		}
	}
	_, err := buf.WriteTo(w)
	return err
}

// WriteGridData writes the grid's block in the positional format read by the
// solver and by ReadGridData. Nothing reaches w unless the whole block is
// valid. A point list with WriteXYFile set also regenerates its points file.
func (g *Grid) WriteGridData(w io.Writer, opts WriteOptions) error {
	var buf bytes.Buffer
	pf, err := g.renderGridData(&buf, opts)
	if err != nil {
		return err
	}
	if pf != nil {
		if err := pf.write(opts.FS); err != nil {
			return err
		}
	}
	_, err = buf.WriteTo(w)
	return err
}

// renderGridData appends the grid's block to out. A points file that needs
// regenerating is returned rather than written. out is untouched on error.
func (g *Grid) renderGridData(out *bytes.Buffer, opts WriteOptions) (*pointsFile, error) {
	if g.Geometry == nil {
		return nil, fmt.Errorf("fgno = %d: %w", g.ID, ErrPointStyleUnset)
	}
	logf := g.logger(opts.Logf)

	var buf bytes.Buffer
	pad := strings.Repeat(" ", 12)
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "%d                           # fgno\n", g.ID)
	fmt.Fprintf(&buf, "%16.10e            # tstart_max\n", g.TStartMax)
	fmt.Fprintf(&buf, "%16.10e            # tend_max\n", g.TEndMax)
	fmt.Fprintf(&buf, "%16.10e            # dt_check\n", g.DTCheck)
	fmt.Fprintf(&buf, "%d %s              # min_level_check\n", g.MinLevelCheck, pad)
	fmt.Fprintf(&buf, "%16.10e            # arrival_tol\n", g.ArrivalTol)
	fmt.Fprintf(&buf, "%d %s              # interp_method\n", int(g.Interp), pad)
	fmt.Fprintf(&buf, "%d %s              # point_style\n", int(g.Geometry.PointStyle()), pad)

	var (
		pf  *pointsFile
		err error
	)
	switch geo := g.Geometry.(type) {
	case PointList:
		pf, err = writePointList(&buf, geo, opts, logf)
	case Transect:
		err = writeTransect(&buf, geo, logf)
	case RegularGrid:
		err = writeRegularGrid(&buf, geo, logf)
	case Quadrilateral:
		err = writeQuadrilateral(&buf, geo, logf)
	case DEMPoints:
		if geo.File == "" {
			err = fmt.Errorf("%w: point_style 4 requires a topo file", ErrConfig)
			break
		}
		fmt.Fprintf(&buf, "'%s'\n", geo.File)
		logf("points should be in file %s", geo.File)
	default:
		err = fmt.Errorf("%w: %T", ErrUnsupportedPointStyle, g.Geometry)
	}
	if err != nil {
		return nil, fmt.Errorf("fgno = %d: %w", g.ID, err)
	}

	out.Write(buf.Bytes())
	return pf, nil
}

// pointsFile is a rendered coordinates file waiting to be written.
type pointsFile struct {
	name string
	body bytes.Buffer
	n    int
	logf monitoring.LogFunc
}

func (p *pointsFile) write(fsys fsutil.FileSystem) error {
	f, err := fsutil.CreateAll(fsys, p.name)
	if err != nil {
		return fmt.Errorf("create fgmax points file: %w", err)
	}
	if _, err := p.body.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write fgmax points file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close fgmax points file: %w", err)
	}
	p.logf("wrote %d points to %s", p.n, p.name)
	return nil
}

func writePointList(buf *bytes.Buffer, pl PointList, opts WriteOptions, logf monitoring.LogFunc) (*pointsFile, error) {
	if len(pl.X) != len(pl.Y) {
		return nil, fmt.Errorf("%w: point list has %d x and %d y values", ErrConfig, len(pl.X), len(pl.Y))
	}
	if pl.Z != nil && len(pl.Z) != len(pl.X) {
		return nil, fmt.Errorf("%w: point list has %d z values for %d points", ErrConfig, len(pl.Z), len(pl.X))
	}

	if pl.XYFile == "" {
		if len(pl.X) == 0 {
			return nil, fmt.Errorf("%w: inline point list is empty", ErrConfig)
		}
		logf("unstructured grid of %d points", len(pl.X))
		fmt.Fprintf(buf, "%d                 # npts\n", len(pl.X))
		for k := range pl.X {
			fmt.Fprintf(buf, "%22.12f   %22.12f \n", pl.X[k], pl.Y[k])
		}
		return nil, nil
	}

	buf.WriteString("0         # npts==0 ==> points in this file:\n")
	fmt.Fprintf(buf, "'%s'\n", pl.XYFile)
	logf("points should be in file %s", pl.XYFile)
	if !pl.WriteXYFile {
		return nil, nil
	}
	if len(pl.X) == 0 {
		return nil, fmt.Errorf("%w: no points to write to %s", ErrConfig, pl.XYFile)
	}

	cols := [][]float64{pl.X, pl.Y}
	if pl.Z != nil {
		cols = append(cols, pl.Z)
	}
	pf := &pointsFile{name: pl.XYFile, n: len(pl.X), logf: logf}
	if err := numtext.WriteTable(&pf.body, fmt.Sprintf("%8d", len(pl.X)), "%24.14e", cols...); err != nil {
		return nil, err
	}
	if opts.BaseDir != "" && !filepath.IsAbs(pf.name) {
		pf.name = filepath.Join(opts.BaseDir, pf.name)
	}
	return pf, nil
}

func writeTransect(buf *bytes.Buffer, t Transect, logf monitoring.LogFunc) error {
	if t.NPoints <= 0 {
		return fmt.Errorf("%w: point_style 1 requires npts", ErrConfig)
	}
	if t.DX != 0 {
		monitoring.Warnf(logf, "point_style 1 cannot set dx, ignoring dx = %g", t.DX)
	}
	fmt.Fprintf(buf, "%d                 # npts\n", t.NPoints)
	fmt.Fprintf(buf, "%g   %g            # x1, y1\n", t.P1.X, t.P1.Y)
	fmt.Fprintf(buf, "%g   %g            # x2, y2\n", t.P2.X, t.P2.Y)
	logf("1d fixed grid with %d points equally spaced from (%g,%g) to (%g,%g)",
		t.NPoints, t.P1.X, t.P1.Y, t.P2.X, t.P2.Y)
	return nil
}

func writeRegularGrid(buf *bytes.Buffer, r RegularGrid, logf monitoring.LogFunc) error {
	r, err := r.Resolve(logf)
	if err != nil {
		return err
	}
	fmt.Fprintf(buf, "%d  %d %s          # nx,ny\n", r.NX, r.NY, strings.Repeat(" ", 10))
	fmt.Fprintf(buf, "%16.10e   %20.10e            # x1, y1\n", r.Lower.X, r.Lower.Y)
	fmt.Fprintf(buf, "%16.10e   %20.10e            # x2, y2\n", r.Upper.X, r.Upper.Y)

	dx, dy := r.Spacing()
	logf("fixed grid with shape %d by %d, with %d points", r.NX, r.NY, r.NX*r.NY)
	logf("lower left = (%15.10f,%15.10f), upper right = (%15.10f,%15.10f)",
		r.Lower.X, r.Lower.Y, r.Upper.X, r.Upper.Y)
	logf("dx = %15.10e, dy = %15.10e", dx, dy)
	return nil
}

// Spacing returns the distance between neighbouring points, or zero along an
// axis with a single point.
func (g RegularGrid) Spacing() (dx, dy float64) {
	if g.NX > 1 {
		dx = (g.Upper.X - g.Lower.X) / float64(g.NX-1)
	}
	if g.NY > 1 {
		dy = (g.Upper.Y - g.Lower.Y) / float64(g.NY-1)
	}
	return dx, dy
}

func writeQuadrilateral(buf *bytes.Buffer, q Quadrilateral, logf monitoring.LogFunc) error {
	if q.N12 <= 0 || q.N23 <= 0 {
		return fmt.Errorf("%w: point_style 3 requires n12 and n23", ErrConfig)
	}
	fmt.Fprintf(buf, "%d  %d %s          # n12,n23\n", q.N12, q.N23, strings.Repeat(" ", 10))
	for k, c := range q.Corners {
		fmt.Fprintf(buf, "%16.10e   %20.10e            # x%d, y%d\n", c.X, c.Y, k+1, k+1)
	}
	logf("fixed grid as a quadrilateral %d by %d, with %d points", q.N12, q.N23, q.N12*q.N23)
	for k, c := range q.Corners {
		logf("corner %d = (%15.10f,%15.10f)", k+1, c.X, c.Y)
	}
	return nil
}
