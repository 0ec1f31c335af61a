package fgmax

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/fgmax/internal/fsutil"
	"github.com/banshee-data/fgmax/internal/monitoring"
	"github.com/banshee-data/fgmax/internal/numtext"
)

// DefaultDataFile is the name the solver reads grid descriptors from.
const DefaultDataFile = "fgmax_grids.data"

// ReadOptions configures ReadGridData.
type ReadOptions struct {
	FS   fsutil.FileSystem  // defaults to the OS filesystem
	Logf monitoring.LogFunc // defaults to monitoring.Logf
}

// ReadGridData loads the block for grid fgno from a multi-grid data file.
// A point list kept in a separate coordinates file is loaded as well; its
// path is taken relative to the data file.
func ReadGridData(path string, fgno int, opts ReadOptions) (*Grid, error) {
	fsys := fsutil.Default(opts.FS)
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fgmax data file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	start := -1
	for n, line := range lines {
		if !strings.Contains(line, "fgno") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if id, err := strconv.Atoi(fields[0]); err == nil && id == fgno {
			start = n + 1
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: fgno = %d in %s", ErrGridNotFound, fgno, path)
	}

	g := NewGrid(fgno)
	br := &blockReader{path: path, lines: lines, next: start}
	if g.TStartMax, err = br.floatField("tstart_max"); err != nil {
		return nil, err
	}
	if g.TEndMax, err = br.floatField("tend_max"); err != nil {
		return nil, err
	}
	if g.DTCheck, err = br.floatField("dt_check"); err != nil {
		return nil, err
	}
	if g.MinLevelCheck, err = br.intField("min_level_check"); err != nil {
		return nil, err
	}
	if g.ArrivalTol, err = br.floatField("arrival_tol"); err != nil {
		return nil, err
	}
	interp, err := br.intField("interp_method")
	if err != nil {
		return nil, err
	}
	g.Interp = InterpMethod(interp)
	style, err := br.intField("point_style")
	if err != nil {
		return nil, err
	}

	logf := g.logger(opts.Logf)
	logf("reading input for fgno=%d, point_style = %d", fgno, style)

	switch PointStyle(style) {
	case StyleList:
		g.Geometry, err = readPointList(br, fsys, path, logf)
	case StyleTransect:
		var t Transect
		if t.NPoints, err = br.intField("npts"); err != nil {
			return nil, err
		}
		if t.P1, err = br.point("x1, y1"); err != nil {
			return nil, err
		}
		if t.P2, err = br.point("x2, y2"); err != nil {
			return nil, err
		}
		g.Geometry = t
	case StyleRectangle:
		var r RegularGrid
		if r.NX, r.NY, err = br.pair("nx, ny"); err != nil {
			return nil, err
		}
		if r.Lower, err = br.point("x1, y1"); err != nil {
			return nil, err
		}
		if r.Upper, err = br.point("x2, y2"); err != nil {
			return nil, err
		}
		g.Geometry = r
	case StyleQuad:
		var q Quadrilateral
		if q.N12, q.N23, err = br.pair("n12, n23"); err != nil {
			return nil, err
		}
		for k := range q.Corners {
			if q.Corners[k], err = br.point(fmt.Sprintf("corner %d", k+1)); err != nil {
				return nil, err
			}
		}
		g.Geometry = q
	case StyleDEM:
		var name string
		if name, err = br.quoted("topo file"); err != nil {
			return nil, err
		}
		g.Geometry = DEMPoints{File: name}
	default:
		return nil, fmt.Errorf("%w: %d for fgno = %d", ErrUnsupportedPointStyle, style, fgno)
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func readPointList(br *blockReader, fsys fsutil.FileSystem, path string, logf monitoring.LogFunc) (PointList, error) {
	var pl PointList
	npts, err := br.intField("npts")
	if err != nil {
		return pl, err
	}
	if npts > 0 {
		pl.X = make([]float64, npts)
		pl.Y = make([]float64, npts)
		for k := 0; k < npts; k++ {
			p, err := br.point(fmt.Sprintf("point %d", k+1))
			if err != nil {
				return pl, err
			}
			pl.X[k], pl.Y[k] = p.X, p.Y
		}
		return pl, nil
	}

	if pl.XYFile, err = br.quoted("points file"); err != nil {
		return pl, err
	}
	xyPath := fsutil.Resolve(path, pl.XYFile)
	data, err := fsys.ReadFile(xyPath)
	if err != nil {
		return pl, fmt.Errorf("read fgmax points file: %w", err)
	}
	tbl, err := numtext.LoadTable(bytes.NewReader(data), 1)
	if err != nil {
		return pl, fmt.Errorf("%w: %s: %v", ErrFormat, xyPath, err)
	}
	if tbl.Cols != 2 && tbl.Cols != 3 {
		return pl, fmt.Errorf("%w: %s has %d columns, expected 2 or 3", ErrFormat, xyPath, tbl.Cols)
	}
	pl.X, pl.Y = tbl.Column(0), tbl.Column(1)
	if tbl.Cols == 3 {
		pl.Z = tbl.Column(2)
	}
	logf("read %d x,y points from %s", tbl.Rows, xyPath)
	return pl, nil
}

// blockReader walks the positional lines of one grid block. Only the leading
// tokens of each line are significant; the rest is commentary.
type blockReader struct {
	path  string
	lines []string
	next  int
}

func (br *blockReader) fields(name string, n int) ([]string, error) {
	if br.next >= len(br.lines) {
		return nil, fmt.Errorf("%w: %s ends before %s", ErrFormat, br.path, name)
	}
	line := br.lines[br.next]
	br.next++
	f := strings.Fields(line)
	if len(f) < n {
		return nil, fmt.Errorf("%w: %s line %d: expected %s, got %q", ErrFormat, br.path, br.next, name, line)
	}
	return f, nil
}

func (br *blockReader) parseFloat(name, tok string) (float64, error) {
	v, err := numtext.ParseFloat(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: %s line %d %s: %v", ErrFormat, br.path, br.next, name, err)
	}
	return v, nil
}

func (br *blockReader) parseInt(name, tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: %s line %d %s: %v", ErrFormat, br.path, br.next, name, err)
	}
	return v, nil
}

func (br *blockReader) floatField(name string) (float64, error) {
	f, err := br.fields(name, 1)
	if err != nil {
		return 0, err
	}
	return br.parseFloat(name, f[0])
}

func (br *blockReader) intField(name string) (int, error) {
	f, err := br.fields(name, 1)
	if err != nil {
		return 0, err
	}
	return br.parseInt(name, f[0])
}

func (br *blockReader) pair(name string) (int, int, error) {
	f, err := br.fields(name, 2)
	if err != nil {
		return 0, 0, err
	}
	a, err := br.parseInt(name, f[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := br.parseInt(name, f[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (br *blockReader) point(name string) (Point, error) {
	f, err := br.fields(name, 2)
	if err != nil {
		return Point{}, err
	}
	x, err := br.parseFloat(name, f[0])
	if err != nil {
		return Point{}, err
	}
	y, err := br.parseFloat(name, f[1])
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func (br *blockReader) quoted(name string) (string, error) {
	if _, err := br.fields(name, 1); err != nil {
		return "", err
	}
	s := strings.Trim(strings.TrimSpace(br.lines[br.next-1]), `'"`)
	if s == "" {
		return "", fmt.Errorf("%w: %s line %d: empty %s", ErrFormat, br.path, br.next, name)
	}
	return s, nil
}
