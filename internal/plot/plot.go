// Package plot renders comparison reports as PNG charts.
package plot

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jfmyers9/hitparade/internal/analysis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Output file names written by All.
const (
	HappyFile     = "happy.png"
	GenderFile    = "gender.png"
	LongevityFile = "longevity.png"
	GenreFile     = "genre_distribution.png"
)

// Pastel palette.
var (
	PastelOrange = mustHex("#FFC499")
	PastelBlue   = mustHex("#87CEEB")
	PastelRed    = mustHex("#FFB6C1")
	PastelGreen  = mustHex("#A8E6CF")
	PastelPurple = mustHex("#B39DDB")
)

// Longevity histograms use translucent primaries with black edges.
var (
	histBlue = color.NRGBA{R: 0, G: 0, B: 255, A: 178}
	histRed  = color.NRGBA{R: 255, G: 0, B: 0, A: 178}
)

// All writes every chart for r into dir and returns the paths written.
func All(r *analysis.Report, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}

	charts := []struct {
		name   string
		render func(*analysis.Report, string) error
	}{
		{HappyFile, Happy},
		{GenderFile, Gender},
		{LongevityFile, Longevity},
		{GenreFile, Genres},
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		path := filepath.Join(dir, c.name)
		if err := c.render(r, path); err != nil {
			return paths, fmt.Errorf("%s: %w", c.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Happy renders the share of happy and not happy songs per year.
func Happy(r *analysis.Report, path string) error {
	a, b := r.Years[0], r.Years[1]
	p, err := groupedBars(
		"Proportion of Happy and Not Happy Songs by Year", "Year",
		yearLabels(r),
		[]group{
			{"Happy", []float64{a.Happy, b.Happy}, PastelOrange},
			{"Not Happy", []float64{a.NotHappy(), b.NotHappy()}, PastelBlue},
		},
	)
	if err != nil {
		return err
	}
	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}

// Gender renders the share of male and female artists per year.
func Gender(r *analysis.Report, path string) error {
	a, b := r.Years[0], r.Years[1]
	p, err := groupedBars(
		"Proportion of Male and Female Artists by Year", "Year",
		yearLabels(r),
		[]group{
			{"Male", []float64{a.Male, b.Male}, PastelBlue},
			{"Female", []float64{a.Female(), b.Female()}, PastelRed},
		},
	)
	if err != nil {
		return err
	}
	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}

// Genres renders the genre distribution of both years side by side.
func Genres(r *analysis.Report, path string) error {
	labels := r.GenreOrder()
	if len(labels) == 0 {
		p := plot.New()
		p.Title.Text = "Genre Distribution by Year (no genre data)"
		return p.Save(12*vg.Inch, 7*vg.Inch, path)
	}
	colors := []color.Color{PastelGreen, PastelPurple}

	groups := make([]group, len(r.Years))
	for i, y := range r.Years {
		vals := make([]float64, len(labels))
		for j, label := range labels {
			vals[j] = y.GenreShare(label)
		}
		groups[i] = group{strconv.Itoa(y.Year), vals, colors[i]}
	}

	p, err := groupedBars("Genre Distribution by Year", "Genre", labels, groups)
	if err != nil {
		return err
	}
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	return p.Save(12*vg.Inch, 7*vg.Inch, path)
}

// Longevity renders density histograms of top hit chart runs, one panel
// per year on shared axes.
func Longevity(r *analysis.Report, path string) error {
	colors := []color.Color{histBlue, histRed}

	row := make([]*plot.Plot, len(r.Years))
	for i, y := range r.Years {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("Weeks on Chart for Top %d Songs (%d)", r.MaxPeak, y.Year)
		p.X.Label.Text = "Weeks on Chart"
		p.Y.Label.Text = "Density"
		p.Add(plotter.NewGrid())
		p.Add(histogram(y.Histogram, colors[i]))

		p.X.Min, p.X.Max = analysis.LongevityMin, analysis.LongevityMax
		p.Y.Min, p.Y.Max = 0, 0.15
		row[i] = p
	}

	const width, height = 12 * vg.Inch, 5 * vg.Inch
	img := vgimg.New(width, height)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(row),
		PadX: vg.Millimeter * 4,
		PadY: vg.Millimeter * 4,
	}
	canvases := plot.Align([][]*plot.Plot{row}, tiles, dc)
	for j, p := range row {
		p.Draw(canvases[0][j])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write png: %w", err)
	}
	return f.Close()
}

// group is one hue of a grouped bar chart: a value for every category.
type group struct {
	label  string
	values []float64
	color  color.Color
}

func groupedBars(title, xLabel string, categories []string, groups []group) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = vg.Points(20)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Proportion"
	p.Y.Min = 0
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	width := vg.Points(20)
	if n := len(categories) * len(groups); n > 16 {
		width = vg.Points(10)
	}

	for i, g := range groups {
		bars, err := plotter.NewBarChart(plotter.Values(g.values), width)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s bars: %w", g.label, err)
		}
		bars.Color = g.color
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(float64(i)-float64(len(groups)-1)/2) * width

		p.Add(bars)
		p.Legend.Add(g.label, bars)
	}

	p.NominalX(categories...)
	return p, nil
}

func histogram(h analysis.Histogram, fill color.Color) *plotter.Histogram {
	bins := make([]plotter.HistogramBin, len(h.Counts))
	for i, c := range h.Counts {
		bins[i] = plotter.HistogramBin{Min: h.Edges[i], Max: h.Edges[i+1], Weight: c}
	}

	width := 0.0
	if len(bins) > 0 {
		width = h.Width(0)
	}

	return &plotter.Histogram{
		Bins:      bins,
		Width:     width,
		FillColor: fill,
		LineStyle: draw.LineStyle{Color: color.Black, Width: vg.Points(1)},
	}
}

func yearLabels(r *analysis.Report) []string {
	labels := make([]string, len(r.Years))
	for i, y := range r.Years {
		labels[i] = strconv.Itoa(y.Year)
	}
	return labels
}

func mustHex(s string) color.RGBA {
	c, err := parseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// parseHex parses a #RRGGBB color.
func parseHex(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
