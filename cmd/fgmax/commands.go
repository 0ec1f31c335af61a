package main

import (
	"bytes"
	"flag"
	"fmt"
	"math"
	"path/filepath"
	"text/tabwriter"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/fgmax/internal/archive"
	"github.com/banshee-data/fgmax/internal/fgmax"
	"github.com/banshee-data/fgmax/internal/fsutil"
	"github.com/banshee-data/fgmax/internal/monitoring"
	"github.com/banshee-data/fgmax/internal/plotting"
	"github.com/banshee-data/fgmax/internal/setup"
	"github.com/banshee-data/fgmax/internal/topo"
	"github.com/banshee-data/fgmax/internal/units"
)

func handleWrite(e *env, args []string) error {
	fs, cfgPath, verbose := e.flagSet("write")
	setupPath := fs.String("setup", "", "HCL setup file (required)")
	out := fs.String("out", "", "data file to write (default from config, fgmax_grids.data)")
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if err := required(fs, e.stderr, "setup"); err != nil {
		return err
	}

	s, err := setup.Load(nil, *setupPath)
	if err != nil {
		return err
	}
	grids, err := s.Grids(e.logf)
	if err != nil {
		return err
	}

	path := orDefault(*out, e.cfg.GetDataFile())
	var buf bytes.Buffer
	opts := fgmax.WriteOptions{BaseDir: filepath.Dir(path), Logf: e.logf}
	if err := fgmax.WriteDataFile(&buf, grids, s.Values(), opts); err != nil {
		return err
	}
	w, err := fsutil.CreateAll(nil, path)
	if err != nil {
		return err
	}
	if _, err := buf.WriteTo(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "wrote %d fgmax grids to %s\n", len(grids), path)
	return nil
}

// gridFlags are shared by the commands that load one grid from a data file.
type gridFlags struct {
	data *string
	fgno *int
}

func addGridFlags(fs *flag.FlagSet) gridFlags {
	return gridFlags{
		data: fs.String("data", "", "fgmax data file (default from config, fgmax_grids.data)"),
		fgno: fs.Int("fgno", 0, "grid number (required)"),
	}
}

func (e *env) loadGrid(gf gridFlags) (*fgmax.Grid, error) {
	return fgmax.ReadGridData(orDefault(*gf.data, e.cfg.GetDataFile()), *gf.fgno, fgmax.ReadOptions{Logf: e.logf})
}

func handleShow(e *env, args []string) error {
	fs, cfgPath, verbose := e.flagSet("show")
	gf := addGridFlags(fs)
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if err := required(fs, e.stderr, "fgno"); err != nil {
		return err
	}
	g, err := e.loadGrid(gf)
	if err != nil {
		return err
	}
	style, _ := g.PointStyle()

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "fgno\t%d\n", g.ID)
	fmt.Fprintf(tw, "point_style\t%d (%s)\n", int(style), style)
	fmt.Fprintf(tw, "tstart_max\t%g\n", g.TStartMax)
	fmt.Fprintf(tw, "tend_max\t%g\n", g.TEndMax)
	fmt.Fprintf(tw, "dt_check\t%g\n", g.DTCheck)
	fmt.Fprintf(tw, "min_level_check\t%d\n", g.MinLevelCheck)
	fmt.Fprintf(tw, "arrival_tol\t%g\n", g.ArrivalTol)
	fmt.Fprintf(tw, "interp_method\t%d\n", int(g.Interp))
	switch geo := g.Geometry.(type) {
	case fgmax.PointList:
		fmt.Fprintf(tw, "npts\t%d\n", geo.NPoints())
		if geo.XYFile != "" {
			fmt.Fprintf(tw, "xy_file\t%s\n", geo.XYFile)
		}
	case fgmax.Transect:
		fmt.Fprintf(tw, "npts\t%d\n", geo.NPoints)
		fmt.Fprintf(tw, "x1, y1\t%g, %g\n", geo.P1.X, geo.P1.Y)
		fmt.Fprintf(tw, "x2, y2\t%g, %g\n", geo.P2.X, geo.P2.Y)
	case fgmax.RegularGrid:
		fmt.Fprintf(tw, "nx, ny\t%d, %d\n", geo.NX, geo.NY)
		fmt.Fprintf(tw, "x1, y1\t%g, %g\n", geo.Lower.X, geo.Lower.Y)
		fmt.Fprintf(tw, "x2, y2\t%g, %g\n", geo.Upper.X, geo.Upper.Y)
	case fgmax.Quadrilateral:
		fmt.Fprintf(tw, "n12, n23\t%d, %d\n", geo.N12, geo.N23)
		for k, c := range geo.Corners {
			fmt.Fprintf(tw, "x%d, y%d\t%g, %g\n", k+1, k+1, c.X, c.Y)
		}
	case fgmax.DEMPoints:
		fmt.Fprintf(tw, "topo_file\t%s\n", geo.File)
	}
	return tw.Flush()
}

// resultsFlags are shared by the commands that read a grid's results.
type resultsFlags struct {
	gridFlags
	outdir, prefix, indexing *string
	dtopo                    *string
	dtopoType                *int
}

func addResultsFlags(fs *flag.FlagSet) resultsFlags {
	return resultsFlags{
		gridFlags: addGridFlags(fs),
		outdir:    fs.String("outdir", "", "solver output directory (default from config, _output)"),
		prefix:    fs.String("prefix", "", "results file prefix (default from config, fgmax)"),
		indexing:  fs.String("indexing", "", "array layout, ij or xy (default from config, ij)"),
		dtopo:     fs.String("dtopo", "", "deformation file; adds dz and B0"),
		dtopoType: fs.Int("dtopo-type", 3, "deformation file type"),
	}
}

func (e *env) loadResults(rf resultsFlags) (*fgmax.Grid, *fgmax.Results, error) {
	g, err := e.loadGrid(rf.gridFlags)
	if err != nil {
		return nil, nil, err
	}
	ix := e.cfg.GetIndexing()
	if *rf.indexing != "" {
		if ix, err = fgmax.ParseIndexing(*rf.indexing); err != nil {
			return nil, nil, err
		}
	}
	data := orDefault(*rf.data, e.cfg.GetDataFile())
	res, err := g.ReadOutput(fgmax.OutputOptions{
		OutDir:   orDefault(*rf.outdir, e.cfg.GetOutDir()),
		Prefix:   orDefault(*rf.prefix, e.cfg.GetResultsPrefix()),
		Indexing: ix,
		RefDir:   filepath.Dir(data),
		Logf:     e.logf,
	})
	if err != nil {
		return nil, nil, err
	}
	if *rf.dtopo != "" {
		if _, err := res.InterpDZ(nil, *rf.dtopo, *rf.dtopoType, e.logf); err != nil {
			return nil, nil, err
		}
		res.PreEventTopo()
	}
	return g, res, nil
}

func handleRead(e *env, args []string) error {
	fs, cfgPath, verbose := e.flagSet("read")
	rf := addResultsFlags(fs)
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if err := required(fs, e.stderr, "fgno"); err != nil {
		return err
	}
	g, res, err := e.loadResults(rf)
	if err != nil {
		return err
	}
	return e.printSummary(g, res)
}

func (e *env) printSummary(g *fgmax.Grid, res *fgmax.Results) error {
	s := res.Summary()
	depthUnits, speedUnits := e.cfg.GetDepthUnits(), e.cfg.GetSpeedUnits()
	depth := func(v float64) string {
		return fmt.Sprintf("%.3f %s", units.ConvertDepth(v, depthUnits), depthUnits)
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "fgno\t%d\n", g.ID)
	fmt.Fprintf(tw, "results\t%s\n", res.Path)
	fmt.Fprintf(tw, "shape\t%s (%s)\n", res.Shape, res.Indexing)
	fmt.Fprintf(tw, "points\t%d\n", s.Points)
	fmt.Fprintf(tw, "wet points\t%d\n", s.Wet)
	bb := s.BoundingBox
	fmt.Fprintf(tw, "extent\tx %g .. %g, y %g .. %g\n", bb[0], bb[1], bb[2], bb[3])
	if s.Wet > 0 {
		fmt.Fprintf(tw, "max depth\t%s at (%g, %g)\n", depth(s.MaxDepth), s.MaxDepthAt.X, s.MaxDepthAt.Y)
		fmt.Fprintf(tw, "mean depth\t%s\n", depth(s.MeanDepth))
	}
	if !math.IsNaN(s.MaxSpeed) {
		fmt.Fprintf(tw, "max speed\t%.3f %s\n", units.ConvertSpeed(s.MaxSpeed, speedUnits), units.SpeedLabel(speedUnits))
	}
	if math.IsNaN(s.EarliestArrival) {
		fmt.Fprintf(tw, "first arrival\tnone\n")
	} else {
		fmt.Fprintf(tw, "first arrival\t%.1f s\n", s.EarliestArrival)
	}
	if res.DZ != nil {
		fmt.Fprintf(tw, "dz\t%s .. %s\n", depth(res.DZ.Min()), depth(res.DZ.Max()))
	}
	return tw.Flush()
}

func handleAdjust(e *env, args []string) error {
	fs, cfgPath, verbose := e.flagSet("adjust")
	x1 := fs.Float64("x1", 0, "desired lower x (required)")
	x2 := fs.Float64("x2", 0, "desired upper x (required)")
	x0 := fs.Float64("x0", 0, "domain lower x edge (required)")
	dx := fs.Float64("dx", 0, "finest x resolution (required)")
	y1 := fs.Float64("y1", 0, "desired lower y")
	y2 := fs.Float64("y2", 0, "desired upper y")
	y0 := fs.Float64("y0", 0, "domain lower y edge")
	dy := fs.Float64("dy", 0, "finest y resolution (default dx)")
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if err := required(fs, e.stderr, "x1", "x2", "x0", "dx"); err != nil {
		return err
	}
	if *dx <= 0 {
		return fmt.Errorf("%w: dx must be positive", fgmax.ErrConfig)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["y1"] && !set["y2"] {
		a1, a2, n := fgmax.Adjust1D(*x1, *x2, *x0, *dx)
		fmt.Fprintf(e.stdout, "x1 = %.12g\nx2 = %.12g\nnx = %d\n", a1, a2, n)
		return nil
	}
	if err := required(fs, e.stderr, "y1", "y2", "y0"); err != nil {
		return err
	}
	want := fgmax.Extent{X1: *x1, X2: *x2, Y1: *y1, Y2: *y2}
	// The snapping report is the point of this command, so it is not muted.
	g := fgmax.AdjustGrid(want, *x0, *y0, *dx, *dy, newLogger(e.stdout, true))
	fmt.Fprintf(e.stdout, "x1 = %.12g\nx2 = %.12g\nnx = %d\n", g.Lower.X, g.Upper.X, g.NX)
	fmt.Fprintf(e.stdout, "y1 = %.12g\ny2 = %.12g\nny = %d\n", g.Lower.Y, g.Upper.Y, g.NY)
	return nil
}

func handlePlot(e *env, args []string) error {
	fs, cfgPath, verbose := e.flagSet("plot")
	rf := addResultsFlags(fs)
	field := fs.String("field", "h", "field to plot, e.g. h, s, B, eta, arrival_time, h_onshore")
	png := fs.String("png", "", "PNG file to write")
	html := fs.String("html", "", "HTML file to write")
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if err := required(fs, e.stderr, "fgno"); err != nil {
		return err
	}
	if *png == "" && *html == "" {
		fmt.Fprintln(e.stderr, "Error: one of -png or -html is required")
		fs.Usage()
		return errUsage
	}

	g, res, err := e.loadResults(rf)
	if err != nil {
		return err
	}
	f, err := res.Field(*field)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("%w: %s was not monitored in %s", fgmax.ErrConfig, *field, res.Path)
	}
	name := fmt.Sprintf("fgno %d %s", g.ID, *field)
	if g.Label != "" {
		name = fmt.Sprintf("%s (%s)", name, g.Label)
	}

	if *png != "" {
		style, _ := g.PointStyle()
		w, h := e.cfg.GetPlotSize()
		opts := plotting.Options{
			Width:       vg.Length(w) * vg.Inch,
			Height:      vg.Length(h) * vg.Inch,
			PaletteSize: e.cfg.GetPaletteSize(),
		}
		if err := plotting.PNG(style, res, f, name, *png, opts); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "wrote %s\n", *png)
	}
	if *html != "" {
		var buf bytes.Buffer
		if err := plotting.ScatterHTML(&buf, res, f, name); err != nil {
			return err
		}
		out, err := fsutil.CreateAll(nil, *html)
		if err != nil {
			return err
		}
		if _, err := buf.WriteTo(out); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "wrote %s\n", *html)
	}
	return nil
}

func (e *env) openArchive(path string) (*archive.Archive, error) {
	a, err := archive.Open(orDefault(path, e.cfg.GetArchivePath()))
	if err != nil {
		return nil, err
	}
	if err := a.MigrateUp(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func handleArchive(e *env, args []string) error {
	fs, cfgPath, verbose := e.flagSet("archive")
	rf := addResultsFlags(fs)
	dbPath := fs.String("db", "", "archive database (default from config, fgmax.db)")
	label := fs.String("label", "", "label to record for the run")
	setupPath := fs.String("setup", "", "HCL setup file to take the grid label from")
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if err := required(fs, e.stderr, "fgno"); err != nil {
		return err
	}
	g, res, err := e.loadResults(rf)
	if err != nil {
		return err
	}
	switch {
	case *label != "":
		g.Label = *label
	case *setupPath != "":
		if g.Label, err = setupLabel(*setupPath, g.ID, e.logf); err != nil {
			return err
		}
	}

	a, err := e.openArchive(*dbPath)
	if err != nil {
		return err
	}
	defer a.Close()
	id, err := a.RecordRun(g, res, orDefault(*rf.outdir, e.cfg.GetOutDir()))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "recorded run %s (fgno %d, %d points)\n", id, g.ID, res.Shape.Size())
	return nil
}

// setupLabel returns the label of grid fgno in a setup file. The data file
// the solver reads has no room for labels.
func setupLabel(path string, fgno int, logf monitoring.LogFunc) (string, error) {
	s, err := setup.Load(nil, path)
	if err != nil {
		return "", err
	}
	grids, err := s.Grids(logf)
	if err != nil {
		return "", err
	}
	for _, g := range grids {
		if g.ID == fgno {
			return g.Label, nil
		}
	}
	return "", fmt.Errorf("%w: fgno %d not in %s", fgmax.ErrGridNotFound, fgno, path)
}

func handleArchiveList(e *env, args []string) error {
	fs, cfgPath, verbose := e.flagSet("archive-list")
	dbPath := fs.String("db", "", "archive database (default from config, fgmax.db)")
	runID := fs.String("run", "", "summarise this run instead of listing")
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	a, err := e.openArchive(*dbPath)
	if err != nil {
		return err
	}
	defer a.Close()

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	if *runID != "" {
		s, err := a.RunSummary(*runID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "run\t%s\n", s.ID)
		fmt.Fprintf(tw, "fgno\t%d\n", s.FGNo)
		fmt.Fprintf(tw, "results\t%s\n", s.ResultsPath)
		fmt.Fprintf(tw, "recorded\t%s\n", s.RecordedAt.Format("2006-01-02 15:04:05Z"))
		fmt.Fprintf(tw, "points\t%d\n", s.Points)
		fmt.Fprintf(tw, "wet points\t%d\n", s.Wet)
		fmt.Fprintf(tw, "max depth\t%s\n", formatOptional(s.MaxDepth))
		fmt.Fprintf(tw, "mean depth\t%s\n", formatOptional(s.MeanDepth))
		fmt.Fprintf(tw, "max speed\t%s\n", formatOptional(s.MaxSpeed))
		fmt.Fprintf(tw, "first arrival\t%s\n", formatOptional(s.EarliestArrival))
		return tw.Flush()
	}

	runs, err := a.Runs()
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "RUN\tFGNO\tLABEL\tSTYLE\tSHAPE\tRECORDED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", r.ID, r.FGNo, orDefault(r.Label, "-"), r.PointStyle,
			r.Shape, r.RecordedAt.Format("2006-01-02 15:04:05Z"))
	}
	return tw.Flush()
}

func formatOptional(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}

func handleBBox(e *env, args []string) error {
	fs, cfgPath, verbose := e.flagSet("bbox")
	path := fs.String("topo", "", "topotype 3 file (required)")
	if err := e.parse(fs, args, cfgPath, verbose); err != nil {
		return err
	}
	if err := required(fs, e.stderr, "topo"); err != nil {
		return err
	}
	t, err := topo.ReadType3(nil, *path)
	if err != nil {
		return err
	}
	ext := t.Extent()
	selected := 0
	for j := 0; j < t.NY; j++ {
		for i := 0; i < t.NX; i++ {
			if t.Selected(j, i) {
				selected++
			}
		}
	}
	fmt.Fprintf(e.stdout, "%s: %d x %d cells, dx = %g, dy = %g\n", *path, t.NX, t.NY, t.DX, t.DY)
	fmt.Fprintf(e.stdout, "x1 = %.12g\nx2 = %.12g\ny1 = %.12g\ny2 = %.12g\n", ext[0], ext[1], ext[2], ext[3])
	fmt.Fprintf(e.stdout, "selected fgmax points: %d\n", selected)
	return nil
}
