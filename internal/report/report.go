// Package report renders detection results as images and interactive
// charts for review: a static PNG scatter (one colour per row, holes
// joined in position order) and an HTML ECharts page with per-hole
// tooltips.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/geoblast/rowdetect/internal/pattern"
)

// Report bundles everything a rendering needs about one detection run.
type Report struct {
	Title      string
	Holes      []*pattern.Hole
	Detection  *pattern.DetectionResult
	Validation *pattern.ValidationResult
	Confidence float64
}

// SavePNG writes a scatter plot of the assignment to path. Each row gets
// its own colour and a connecting line in position order; unassigned
// holes are drawn in grey.
func (r *Report) SavePNG(path string) error {
	p := plot.New()
	p.Title.Text = r.plotTitle()
	p.X.Label.Text = "Easting (m)"
	p.Y.Label.Text = "Northing (m)"

	rows := r.Detection.Rows
	colors := generateColors(len(rows))

	for i, row := range rows {
		pts := make(plotter.XYs, 0, len(row.Holes))
		for _, idx := range row.Holes {
			h := r.Holes[idx]
			pts = append(pts, plotter.XY{X: h.X, Y: h.Y})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("row %d line: %w", row.RowID, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)

		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("row %d scatter: %w", row.RowID, err)
		}
		scatter.GlyphStyle.Color = colors[i]
		scatter.GlyphStyle.Radius = vg.Points(3)

		p.Add(line, scatter)
		p.Legend.Add(fmt.Sprintf("row %d", row.RowID), scatter)
	}

	if orphans := r.orphanPoints(); len(orphans) > 0 {
		scatter, err := plotter.NewScatter(orphans)
		if err != nil {
			return fmt.Errorf("orphan scatter: %w", err)
		}
		scatter.GlyphStyle.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
		scatter.GlyphStyle.Radius = vg.Points(2)
		p.Add(scatter)
		p.Legend.Add("unassigned", scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// RenderHTML writes an interactive scatter chart to w. The third value
// dimension carries the RowID so the visual map colours rows
// consistently with the tooltip.
func (r *Report) RenderHTML(w io.Writer) error {
	maxRow := 0
	data := make([]opts.ScatterData, 0, len(r.Holes))
	for _, h := range r.Holes {
		if h.RowID > maxRow {
			maxRow = h.RowID
		}
		data = append(data, opts.ScatterData{
			Name:  fmt.Sprintf("%s r%d p%d", h.ID, h.RowID, h.PosID),
			Value: []interface{}{h.X, h.Y, float64(h.RowID)},
		})
	}
	if maxRow == 0 {
		maxRow = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: r.plotTitle(),
			Width:     "900px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    r.plotTitle(),
			Subtitle: r.subtitle(),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Easting (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Northing (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxRow),
			Dimension:  "2",
			InRange: &opts.VisualMapInRange{Color: []string{
				"#440154", "#3e4989", "#26828e", "#35b779", "#b5de2b", "#fde725",
			}},
		}),
	)

	scatter.AddSeries("holes", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (r *Report) plotTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return "Row detection"
}

func (r *Report) subtitle() string {
	sub := fmt.Sprintf("method=%s rows=%d holes=%d",
		r.Detection.Method, r.Detection.RowCount, len(r.Holes))
	if r.Validation != nil {
		sub += fmt.Sprintf(" status=%s grid=%s confidence=%.2f",
			r.Validation.Status, r.Validation.GridStyle, r.Confidence)
	}
	return sub
}

func (r *Report) orphanPoints() plotter.XYs {
	var pts plotter.XYs
	for _, h := range r.Holes {
		if h.RowID == 0 {
			pts = append(pts, plotter.XY{X: h.X, Y: h.Y})
		}
	}
	return pts
}

// generateColors spreads n hues evenly around the colour wheel so
// adjacent rows stay distinguishable.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
