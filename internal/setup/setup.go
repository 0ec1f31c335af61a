// Package setup loads fgmax grid definitions from HCL files, the input to
// "fgmax write". A setup file holds the num_fgmax_val setting and one
// fgmax_grid block per grid:
//
//	num_fgmax_val = 2
//
//	fgmax_grid "1" {
//	  label       = "harbor"
//	  point_style = 2
//	  x1 = -120.0
//	  y1 = 34.0
//	  x2 = -119.9
//	  y2 = 34.1
//	  dx = 0.001
//
//	  adjust_to_domain {
//	    x_lower = -121
//	    y_lower = 33
//	  }
//	}
package setup

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/banshee-data/fgmax/internal/fgmax"
	"github.com/banshee-data/fgmax/internal/fsutil"
	"github.com/banshee-data/fgmax/internal/monitoring"
)

// hclSetupFile is the top-level structure of a setup file for decoding.
type hclSetupFile struct {
	NumValues *int       `hcl:"num_fgmax_val,optional"`
	Grids     []*hclGrid `hcl:"fgmax_grid,block"`
}

type hclGrid struct {
	FGNo  string  `hcl:"fgno,label"`
	Label *string `hcl:"label,optional"`

	PointStyle    int      `hcl:"point_style"`
	TStartMax     *float64 `hcl:"tstart_max,optional"`
	TEndMax       *float64 `hcl:"tend_max,optional"`
	DTCheck       *float64 `hcl:"dt_check,optional"`
	MinLevelCheck *int     `hcl:"min_level_check,optional"`
	ArrivalTol    *float64 `hcl:"arrival_tol,optional"`
	InterpMethod  *int     `hcl:"interp_method,optional"`

	// point_style 0
	X           []float64 `hcl:"x,optional"`
	Y           []float64 `hcl:"y,optional"`
	Z           []float64 `hcl:"z,optional"`
	XYFile      *string   `hcl:"xy_file,optional"`
	WriteXYFile *bool     `hcl:"write_xy_file,optional"`

	// point_style 1, 2 and 3 corners
	NPoints *int     `hcl:"npts,optional"`
	X1      *float64 `hcl:"x1,optional"`
	Y1      *float64 `hcl:"y1,optional"`
	X2      *float64 `hcl:"x2,optional"`
	Y2      *float64 `hcl:"y2,optional"`
	X3      *float64 `hcl:"x3,optional"`
	Y3      *float64 `hcl:"y3,optional"`
	X4      *float64 `hcl:"x4,optional"`
	Y4      *float64 `hcl:"y4,optional"`

	// point_style 2
	NX *int     `hcl:"nx,optional"`
	NY *int     `hcl:"ny,optional"`
	DX *float64 `hcl:"dx,optional"`
	DY *float64 `hcl:"dy,optional"`

	// point_style 3
	N12 *int `hcl:"n12,optional"`
	N23 *int `hcl:"n23,optional"`

	// point_style 4
	TopoFile *string `hcl:"topo_file,optional"`

	Adjust *hclAdjust `hcl:"adjust_to_domain,block"`
}

// hclAdjust snaps a point_style 2 grid onto the cell centres of a domain
// whose lower edges are x_lower, y_lower.
type hclAdjust struct {
	XLower float64 `hcl:"x_lower"`
	YLower float64 `hcl:"y_lower"`
}

// Setup is a decoded setup file.
type Setup struct {
	Path string
	file hclSetupFile
}

// Load parses and decodes the setup file at path.
func Load(fsys fsutil.FileSystem, path string) (*Setup, error) {
	src, err := fsutil.Default(fsys).ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read setup file: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes setup file contents; filename is used in diagnostics.
func Parse(src []byte, filename string) (*Setup, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	s := &Setup{Path: filename}
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(), &s.file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return s, nil
}

// evalContext lets attribute expressions use angle units and a few numeric
// functions, e.g. dx = 2 * unit.arcsec or nx = ceil((x2 - x1) / dx) + 1.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"unit": cty.ObjectVal(map[string]cty.Value{
				"arcmin": cty.NumberFloatVal(1.0 / 60),
				"arcsec": cty.NumberFloatVal(1.0 / 3600),
			}),
		},
		Functions: map[string]function.Function{
			"abs":   stdlib.AbsoluteFunc,
			"ceil":  stdlib.CeilFunc,
			"floor": stdlib.FloorFunc,
			"max":   stdlib.MaxFunc,
			"min":   stdlib.MinFunc,
		},
	}
}

// Values returns num_fgmax_val, defaulting to fgmax.ValuesSpeed.
func (s *Setup) Values() fgmax.Values {
	if s.file.NumValues == nil {
		return fgmax.ValuesSpeed
	}
	return fgmax.Values(*s.file.NumValues)
}

// Grids converts every fgmax_grid block, ordered by fgno.
func (s *Setup) Grids(logf monitoring.LogFunc) ([]*fgmax.Grid, error) {
	if _, err := s.Values().Columns(); err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}

	grids := make([]*fgmax.Grid, 0, len(s.file.Grids))
	seen := make(map[int]bool, len(s.file.Grids))
	for _, b := range s.file.Grids {
		g, err := b.toGrid(logf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Path, err)
		}
		if seen[g.ID] {
			return nil, fmt.Errorf("%s: %w: duplicate fgmax_grid %d", s.Path, fgmax.ErrConfig, g.ID)
		}
		seen[g.ID] = true
		grids = append(grids, g)
	}
	sort.Slice(grids, func(i, j int) bool { return grids[i].ID < grids[j].ID })
	return grids, nil
}

func (b *hclGrid) toGrid(logf monitoring.LogFunc) (*fgmax.Grid, error) {
	id, err := strconv.Atoi(b.FGNo)
	if err != nil || id < 1 {
		return nil, fmt.Errorf("%w: fgmax_grid label %q is not a positive fgno", fgmax.ErrConfig, b.FGNo)
	}

	g := fgmax.NewGrid(id)
	setString(&g.Label, b.Label)
	setFloat(&g.TStartMax, b.TStartMax)
	setFloat(&g.TEndMax, b.TEndMax)
	setFloat(&g.DTCheck, b.DTCheck)
	setFloat(&g.ArrivalTol, b.ArrivalTol)
	if b.MinLevelCheck != nil {
		g.MinLevelCheck = *b.MinLevelCheck
	}
	if b.InterpMethod != nil {
		if *b.InterpMethod != 0 && *b.InterpMethod != 1 {
			return nil, fmt.Errorf("%w: fgmax_grid %d: interp_method must be 0 or 1", fgmax.ErrConfig, id)
		}
		g.Interp = fgmax.InterpMethod(*b.InterpMethod)
	}

	req := requirer{id: id, style: b.PointStyle}
	switch fgmax.PointStyle(b.PointStyle) {
	case fgmax.StyleList:
		pl := fgmax.PointList{X: b.X, Y: b.Y, Z: b.Z}
		setString(&pl.XYFile, b.XYFile)
		if b.WriteXYFile != nil {
			pl.WriteXYFile = *b.WriteXYFile
		}
		g.Geometry = pl
	case fgmax.StyleTransect:
		g.Geometry = fgmax.Transect{
			NPoints: req.intAttr("npts", b.NPoints),
			P1:      req.pointAttr("x1", "y1", b.X1, b.Y1),
			P2:      req.pointAttr("x2", "y2", b.X2, b.Y2),
			DX:      optFloat(b.DX),
		}
	case fgmax.StyleRectangle:
		r := fgmax.RegularGrid{
			NX:    optInt(b.NX),
			NY:    optInt(b.NY),
			DX:    optFloat(b.DX),
			DY:    optFloat(b.DY),
			Lower: req.pointAttr("x1", "y1", b.X1, b.Y1),
			Upper: req.pointAttr("x2", "y2", b.X2, b.Y2),
		}
		if b.Adjust != nil && req.err == nil {
			if r.DX <= 0 {
				return nil, fmt.Errorf("%w: fgmax_grid %d: adjust_to_domain requires dx", fgmax.ErrConfig, id)
			}
			want := fgmax.Extent{X1: r.Lower.X, X2: r.Upper.X, Y1: r.Lower.Y, Y2: r.Upper.Y}
			r = fgmax.AdjustGrid(want, b.Adjust.XLower, b.Adjust.YLower, r.DX, r.DY, monitoring.Prefixed(fmt.Sprintf("fgno=%d: ", id), logf))
		}
		g.Geometry = r
	case fgmax.StyleQuad:
		g.Geometry = fgmax.Quadrilateral{
			N12: req.intAttr("n12", b.N12),
			N23: req.intAttr("n23", b.N23),
			Corners: [4]fgmax.Point{
				req.pointAttr("x1", "y1", b.X1, b.Y1),
				req.pointAttr("x2", "y2", b.X2, b.Y2),
				req.pointAttr("x3", "y3", b.X3, b.Y3),
				req.pointAttr("x4", "y4", b.X4, b.Y4),
			},
		}
	case fgmax.StyleDEM:
		g.Geometry = fgmax.DEMPoints{File: req.stringAttr("topo_file", b.TopoFile)}
	default:
		return nil, fmt.Errorf("%w: fgmax_grid %d: %d", fgmax.ErrUnsupportedPointStyle, id, b.PointStyle)
	}
	if req.err != nil {
		return nil, req.err
	}
	if b.Adjust != nil && b.PointStyle != int(fgmax.StyleRectangle) {
		monitoring.Warnf(logf, "fgmax_grid %d: adjust_to_domain only applies to point_style 2, ignoring", id)
	}
	return g, nil
}

// requirer records the first missing attribute for a point style.
type requirer struct {
	id, style int
	err       error
}

func (r *requirer) missing(name string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: fgmax_grid %d: point_style %d requires %s", fgmax.ErrConfig, r.id, r.style, name)
	}
}

func (r *requirer) intAttr(name string, v *int) int {
	if v == nil {
		r.missing(name)
		return 0
	}
	return *v
}

func (r *requirer) stringAttr(name string, v *string) string {
	if v == nil || *v == "" {
		r.missing(name)
		return ""
	}
	return *v
}

func (r *requirer) pointAttr(xname, yname string, x, y *float64) fgmax.Point {
	if x == nil {
		r.missing(xname)
		return fgmax.Point{}
	}
	if y == nil {
		r.missing(yname)
		return fgmax.Point{}
	}
	return fgmax.Point{X: *x, Y: *y}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func optInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func optFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
