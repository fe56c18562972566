// Package charts renders comparison reports as HTML bar charts (go-echarts)
// and PNG error histograms (gonum/plot).
package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/predcompare/internal/compare"
)

// AssetsHost is where the rendered pages load the echarts scripts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// ErrNoSamples is returned when a report holds nothing to plot.
var ErrNoSamples = errors.New("report has no error samples to plot")

// HistogramBins is the number of bins per metric class histogram.
const HistogramBins = 20

func rmseBar(r *compare.Report, subtitle string) *charts.Bar {
	var x []string
	var rmse, p95, maxErr []opts.BarData
	for _, mc := range compare.MetricClasses {
		v, ok := r.RMSE[mc]
		if !ok {
			continue
		}
		st := r.ErrorStats[mc]
		x = append(x, mc.Title())
		rmse = append(rmse, opts.BarData{Value: v})
		p95 = append(p95, opts.BarData{Value: st.P95})
		maxErr = append(maxErr, opts.BarData{Value: st.Max})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Comparison error", Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Absolute error per metric class", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
	)
	bar.SetXAxis(x).
		AddSeries("RMSE", rmse, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
		AddSeries("p95", p95).
		AddSeries("max", maxErr)
	return bar
}

// fieldCount is the mismatch count of one generic field name.
type fieldCount struct {
	field string
	count int
}

// sortedFieldCounts orders fields by descending count, then by name.
func sortedFieldCounts(r *compare.Report) []fieldCount {
	counts := r.MismatchCountsByField()
	out := make([]fieldCount, 0, len(counts))
	for f, n := range counts {
		out = append(out, fieldCount{field: f, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].field < out[j].field
	})
	return out
}

func fieldMismatchBar(r *compare.Report, subtitle string) *charts.Bar {
	counts := sortedFieldCounts(r)
	x := make([]string, len(counts))
	y := make([]opts.BarData, len(counts))
	for i, fc := range counts {
		x[i] = fc.field
		y[i] = opts.BarData{Value: fc.count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Mismatched fields", Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Mismatches per field", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("mismatches", y, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

// WriteRMSEChart writes an HTML bar chart of RMSE, p95 and max absolute
// error for every metric class the report measured.
func WriteRMSEChart(w io.Writer, r *compare.Report, subtitle string) error {
	if len(r.RMSE) == 0 {
		return ErrNoSamples
	}
	if err := rmseBar(r, subtitle).Render(w); err != nil {
		return fmt.Errorf("failed to render rmse chart: %w", err)
	}
	return nil
}

// WriteFieldMismatchChart writes an HTML bar chart of mismatch counts per
// field, with positional indices collapsed.
func WriteFieldMismatchChart(w io.Writer, r *compare.Report, subtitle string) error {
	if err := fieldMismatchBar(r, subtitle).Render(w); err != nil {
		return fmt.Errorf("failed to render field mismatch chart: %w", err)
	}
	return nil
}

// WriteReportPage writes both bar charts on one HTML page. The RMSE chart
// is left out when the report has no RMSE, as in rounding mode.
func WriteReportPage(w io.Writer, r *compare.Report, subtitle string) error {
	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.PageTitle = "Prediction comparison"
	if len(r.RMSE) > 0 {
		page.AddCharts(rmseBar(r, subtitle))
	}
	page.AddCharts(fieldMismatchBar(r, subtitle))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report page: %w", err)
	}
	return nil
}

// histogramColors are translucent so overlapping classes stay visible.
var histogramColors = []color.Color{
	color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x99},
	color.NRGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0x99},
	color.NRGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0x99},
	color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0x99},
}

// WriteErrorHistogram writes a PNG histogram of the retained absolute
// errors, one overlaid series per metric class.
func WriteErrorHistogram(w io.Writer, r *compare.Report) error {
	p := plot.New()
	p.Title.Text = "Absolute error distribution"
	p.X.Label.Text = "Absolute error"
	p.Y.Label.Text = "Count"
	p.Legend.Top = true

	added := 0
	for i, mc := range compare.MetricClasses {
		samples := r.Samples[mc]
		if len(samples) == 0 {
			continue
		}
		h, err := plotter.NewHist(plotter.Values(samples), HistogramBins)
		if err != nil {
			return fmt.Errorf("failed to build %s histogram: %w", mc, err)
		}
		h.FillColor = histogramColors[i%len(histogramColors)]
		h.LineStyle.Width = vg.Points(0.5)
		p.Add(h)
		p.Legend.Add(fmt.Sprintf("%s (n=%d)", mc.Title(), len(samples)), h)
		added++
	}
	if added == 0 {
		return ErrNoSamples
	}

	wt, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write histogram: %w", err)
	}
	return nil
}
