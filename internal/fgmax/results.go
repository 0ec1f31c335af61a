package fgmax

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/fgmax/internal/fsutil"
	"github.com/banshee-data/fgmax/internal/monitoring"
	"github.com/banshee-data/fgmax/internal/numtext"
	"github.com/banshee-data/fgmax/internal/topo"
)

const (
	DefaultOutDir = "_output"
	DefaultPrefix = "fgmax"
)

// unsetValue marks quantities the solver never updated. Anything below it is
// treated as missing.
const unsetValue = -1e50

// OutputPath returns <outdir>/<prefix>NNNN.txt, applying the defaults for
// empty arguments.
func OutputPath(outdir, prefix string, fgno int) string {
	if outdir == "" {
		outdir = DefaultOutDir
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return filepath.Join(outdir, fmt.Sprintf("%s%04d.txt", prefix, fgno))
}

// OutputOptions configures ReadOutput.
type OutputOptions struct {
	FS       fsutil.FileSystem
	OutDir   string // defaults to DefaultOutDir
	Prefix   string // defaults to DefaultPrefix
	Indexing Indexing

	// RefDir resolves a relative point_style 4 topo file name. Empty means
	// the working directory.
	RefDir string
	// LoadReference reads the point_style 4 topo file. Defaults to
	// topo.ReadType3.
	LoadReference func(fsys fsutil.FileSystem, path string) (*topo.Topography, error)

	Logf monitoring.LogFunc
}

// Results holds the masked arrays read from one fgmax output file. Quantities
// the solver was not asked to monitor are nil.
type Results struct {
	Path     string
	Columns  int
	Indexing Indexing
	Shape    Shape

	// X and Y hold the point coordinates laid out like every field; XAxis and
	// YAxis are the 1D coordinate vectors for structured layouts and equal
	// the flattened point lists otherwise.
	X, Y         *mat.Dense
	XAxis, YAxis []float64

	// Mask is shared by every field except Arrival.
	Mask *Mask

	Level *Field
	B     *Field
	H     *Field
	HTime *Field

	S     *Field
	STime *Field

	HS, HSTime   *Field
	HSS, HSSTime *Field
	HMin         *Field
	HMinTime     *Field

	// Arrival is masked where the point was never reached as well as where
	// Mask is set.
	Arrival *Field

	// Filled in by InterpDZ.
	DZ *Field
	B0 *Field
}

// columnLayout maps quantity names to result table columns.
type columnLayout map[string]int

func layoutFor(ncols int) (columnLayout, error) {
	l := columnLayout{"x": 0, "y": 1, "level": 2, "B": 3, "h": 4}
	switch ncols {
	case 7:
		l["h_time"], l["arrival_time"] = 5, 6
	case 9:
		l["s"], l["h_time"], l["s_time"], l["arrival_time"] = 5, 6, 7, 8
	case 15:
		l["s"], l["hs"], l["hss"], l["hmin"] = 5, 6, 7, 8
		l["h_time"], l["s_time"], l["hs_time"], l["hss_time"], l["hmin_time"] = 9, 10, 11, 12, 13
		l["arrival_time"] = 14
	default:
		return nil, fmt.Errorf("%w: %d (expected 7, 9 or 15)", ErrColumnCount, ncols)
	}
	return l, nil
}

// ReadOutput reads the solver's results for this grid and stores them in
// g.Results. The point style must be known so the table can be reshaped; the
// file is not touched otherwise.
func (g *Grid) ReadOutput(opts OutputOptions) (*Results, error) {
	style, err := g.PointStyle()
	if err != nil {
		return nil, fmt.Errorf("fgno = %d: %w", g.ID, err)
	}
	if opts.Indexing != IndexingIJ && opts.Indexing != IndexingXY {
		return nil, fmt.Errorf("%w: unknown indexing %d", ErrConfig, int(opts.Indexing))
	}

	fsys := fsutil.Default(opts.FS)
	logf := g.logger(opts.Logf)
	path := OutputPath(opts.OutDir, opts.Prefix, g.ID)

	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResultsNotFound, path)
		}
		return nil, fmt.Errorf("open fgmax results: %w", err)
	}
	defer f.Close()

	logf("reading %s ...", path)
	tbl, err := numtext.LoadTable(f, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	if tbl.Rows == 0 {
		return nil, fmt.Errorf("%w: %s holds no points", ErrFormat, path)
	}
	layout, err := layoutFor(tbl.Cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	shape, err := g.outputShape(style, tbl.Rows, opts.Indexing, logf)
	if err != nil {
		return nil, err
	}
	if shape.Size() != tbl.Rows {
		return nil, fmt.Errorf("%w: %s has %d points, point_style %d grid %s needs %d",
			ErrFormat, path, tbl.Rows, int(style), shape, shape.Size())
	}

	res := &Results{
		Path:     path,
		Columns:  tbl.Cols,
		Indexing: opts.Indexing,
		Shape:    shape,
	}
	col := func(name string) *mat.Dense {
		return reshape(tbl.Column(layout[name]), shape, opts.Indexing)
	}
	res.X, res.Y = col("x"), col("y")

	h := col("h")
	res.Mask = NewMask(shape.Rows, shape.Cols)
	for i := 0; i < shape.Rows; i++ {
		for j := 0; j < shape.Cols; j++ {
			res.Mask.Set(i, j, h.At(i, j) < unsetValue)
		}
	}
	shared := func(name string) *Field {
		if _, ok := layout[name]; !ok {
			return nil
		}
		return &Field{Values: col(name), Mask: res.Mask}
	}

	res.Level = shared("level")
	res.B = shared("B")
	res.H = &Field{Values: h, Mask: res.Mask}
	res.HTime = shared("h_time")
	res.S, res.STime = shared("s"), shared("s_time")
	res.HS, res.HSTime = shared("hs"), shared("hs_time")
	res.HSS, res.HSSTime = shared("hss"), shared("hss_time")
	res.HMin, res.HMinTime = shared("hmin"), shared("hmin_time")

	arrival := col("arrival_time")
	res.Arrival = maskedWhere(&Field{Values: arrival, Mask: res.Mask}, func(i, j int) bool {
		return arrival.At(i, j) < unsetValue
	})

	if style == StyleDEM {
		ref, err := g.loadReference(fsys, opts)
		if err != nil {
			logf("problem converting point lists to arrays, trying to map onto grid specified by %s", g.Geometry.(DEMPoints).File)
			return nil, fmt.Errorf("%w: %v", ErrRemap, err)
		}
		if err := res.RemapToReference(ref, logf); err != nil {
			logf("problem converting point lists to arrays, trying to map onto grid specified by %s", g.Geometry.(DEMPoints).File)
			return nil, err
		}
	}
	res.setAxes()

	logf("read %d points, %d masked", res.Shape.Size(), res.Mask.Count())
	g.Results = res
	return res, nil
}

func (g *Grid) outputShape(style PointStyle, rows int, ix Indexing, logf monitoring.LogFunc) (Shape, error) {
	switch geo := g.Geometry.(type) {
	case PointList:
		if n := geo.NPoints(); n > 0 {
			return flatShape(n), nil
		}
		return flatShape(rows), nil
	case Transect:
		if geo.NPoints <= 0 {
			return Shape{}, fmt.Errorf("%w: transect needs positive npts, got %d", ErrConfig, geo.NPoints)
		}
		return flatShape(geo.NPoints), nil
	case RegularGrid:
		r, err := geo.Resolve(monitoring.Discard)
		if err != nil {
			return Shape{}, err
		}
		if ix == IndexingXY {
			return Shape{Rows: r.NY, Cols: r.NX}, nil
		}
		return Shape{Rows: r.NX, Cols: r.NY}, nil
	case Quadrilateral:
		if geo.N12 <= 0 || geo.N23 <= 0 {
			return Shape{}, fmt.Errorf("%w: quadrilateral needs positive n12, n23, got %d, %d", ErrConfig, geo.N12, geo.N23)
		}
		if ix == IndexingXY {
			return Shape{Rows: geo.N23, Cols: geo.N12}, nil
		}
		return Shape{Rows: geo.N12, Cols: geo.N23}, nil
	case DEMPoints:
		logf("point_style == 4, found %d points", rows)
		return flatShape(rows), nil
	}
	return Shape{}, fmt.Errorf("%w: %d", ErrUnsupportedPointStyle, int(style))
}

func (g *Grid) loadReference(fsys fsutil.FileSystem, opts OutputOptions) (*topo.Topography, error) {
	name := g.Geometry.(DEMPoints).File
	if name == "" {
		return nil, fmt.Errorf("%w: point_style 4 requires a topo file", ErrConfig)
	}
	if opts.RefDir != "" && !filepath.IsAbs(name) {
		name = filepath.Join(opts.RefDir, name)
	}
	load := opts.LoadReference
	if load == nil {
		load = topo.ReadType3
	}
	return load(fsys, name)
}

func (r *Results) setAxes() {
	if r.Shape.Flat {
		r.XAxis = mat.Col(nil, 0, r.X)
		r.YAxis = mat.Col(nil, 0, r.Y)
		return
	}
	if r.Indexing == IndexingXY {
		r.XAxis = mat.Row(nil, 0, r.X)
		r.YAxis = mat.Col(nil, 0, r.Y)
		return
	}
	r.XAxis = mat.Col(nil, 0, r.X)
	r.YAxis = mat.Row(nil, 0, r.Y)
}

// Fields returns every populated quantity by its conventional name.
func (r *Results) Fields() map[string]*Field {
	all := map[string]*Field{
		"level": r.Level, "B": r.B, "h": r.H, "h_time": r.HTime,
		"s": r.S, "s_time": r.STime,
		"hs": r.HS, "hs_time": r.HSTime, "hss": r.HSS, "hss_time": r.HSSTime,
		"hmin": r.HMin, "hmin_time": r.HMinTime,
		"arrival_time": r.Arrival,
		"dz":           r.DZ, "B0": r.B0,
	}
	for k, f := range all {
		if f == nil {
			delete(all, k)
		}
	}
	return all
}

// Field looks up a quantity by name. Derived names "eta" and "h_onshore" are
// computed on demand.
func (r *Results) Field(name string) (*Field, error) {
	switch name {
	case "eta":
		return r.SurfaceElevation(), nil
	case "h_onshore":
		return r.OnshoreDepth(nil)
	}
	if f, ok := r.Fields()[name]; ok {
		return f, nil
	}
	names := make([]string, 0)
	for k := range r.Fields() {
		names = append(names, k)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("%w: no field %q, have %v", ErrConfig, name, names)
}
