package plotting

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/fgmax/internal/fgmax"
)

// ScatterHTML writes an interactive scatter of every unmasked point with a
// visual map over the field's value range.
func ScatterHTML(w io.Writer, res *fgmax.Results, f *fgmax.Field, name string) error {
	lo, hi, err := valueRange(f)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	xs, ys, vs := flatten(res, f)
	data := make([]opts.ScatterData, 0, len(vs))
	for k, v := range vs {
		if math.IsNaN(v) {
			continue
		}
		data = append(data, opts.ScatterData{Value: []interface{}{xs[k], ys[k], v}})
	}

	x1, x2, y1, y2 := bounds(xs, ys)
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "fgmax " + name, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: name, Subtitle: fmt.Sprintf("%s points=%d", res.Path, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: x1, Max: x2, Name: "x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: y1, Max: y2, Name: "y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: newRamp(10).hex()},
		}),
	)
	scatter.AddSeries(name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func bounds(xs, ys []float64) (x1, x2, y1, y2 float64) {
	return floats.Min(xs), floats.Max(xs), floats.Min(ys), floats.Max(ys)
}
