package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PlotConfig configures the appearance of response plots
type PlotConfig struct {
	// Title is plot title
	Title string
	// XLabel is X axis label
	XLabel string
	// YLabel is Y axis label
	YLabel string
	// Width is the width of the saved plot
	Width vg.Length
	// Height is the height of the saved plot
	Height vg.Length
	// FontSize is the font size of the title and axis labels
	FontSize vg.Length
}

// DefaultPlotConfig returns a 10x8 inch plot configuration with large fonts.
func DefaultPlotConfig() PlotConfig {
	return PlotConfig{
		Title:    "Response",
		XLabel:   "time",
		YLabel:   "output",
		Width:    10 * vg.Inch,
		Height:   8 * vg.Inch,
		FontSize: vg.Points(18),
	}
}

// Series is a set of output trajectories drawn in one plot.
// Each column of Y is one output channel sampled on the plot time grid.
type Series struct {
	// Name prefixes the legend entries of the series
	Name string
	// Y stores the output vectors in its rows
	Y *mat.Dense
	// Dashed draws the series with dashed lines
	Dashed bool
	// Points marks every sample with a glyph
	Points bool
}

// NewResponsePlot creates new plot of output trajectories sampled on the time grid t.
// It returns error if no series is given, if any series is nil or if its number of rows
// does not match the length of t.
func NewResponsePlot(cfg PlotConfig, t []float64, series ...Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no data series supplied")
	}

	p := plot.New()

	p.Title.Text = cfg.Title
	p.X.Label.Text = cfg.XLabel
	p.Y.Label.Text = cfg.YLabel
	if cfg.FontSize > 0 {
		p.Title.TextStyle.Font.Size = cfg.FontSize
		p.X.Label.TextStyle.Font.Size = cfg.FontSize
		p.Y.Label.TextStyle.Font.Size = cfg.FontSize
	}
	p.Legend.Top = true

	for _, s := range series {
		if s.Y == nil {
			return nil, fmt.Errorf("invalid data series %q", s.Name)
		}

		rows, cols := s.Y.Dims()
		if rows != len(t) {
			return nil, fmt.Errorf("invalid data series %q length: %d != %d", s.Name, rows, len(t))
		}

		for j := 0; j < cols; j++ {
			pts := makePoints(t, s.Y, j)
			name := fmt.Sprintf("%s y%d", s.Name, j+1)

			line, err := plotter.NewLine(pts)
			if err != nil {
				return nil, fmt.Errorf("failed to create line: %v", err)
			}
			line.LineStyle.Color = plotutil.Color(j)
			line.LineStyle.Width = vg.Points(2)
			if s.Dashed {
				line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
			}
			p.Add(line)

			if !s.Points {
				p.Legend.Add(name, line)
				continue
			}

			scatter, err := plotter.NewScatter(pts)
			if err != nil {
				return nil, fmt.Errorf("failed to create scatter: %v", err)
			}
			scatter.GlyphStyle.Color = plotutil.Color(j)
			scatter.Shape = draw.CircleGlyph{}
			scatter.GlyphStyle.Radius = vg.Points(2)
			p.Add(scatter)
			p.Legend.Add(name, line, scatter)
		}
	}

	return p, nil
}

// SavePlot saves p to the file at path using the dimensions in cfg.
// The image format is derived from the path extension.
func SavePlot(p *plot.Plot, cfg PlotConfig, path string) error {
	if p == nil {
		return fmt.Errorf("invalid plot: %v", p)
	}

	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		def := DefaultPlotConfig()
		w, h = def.Width, def.Height
	}

	return p.Save(w, h, path)
}

func makePoints(t []float64, m *mat.Dense, col int) plotter.XYs {
	pts := make(plotter.XYs, len(t))
	for i := range t {
		pts[i].X = t[i]
		pts[i].Y = m.At(i, col)
	}

	return pts
}
