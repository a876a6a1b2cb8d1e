package visualization

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/l5sampler/internal/sampling"
)

var (
	historyPlotColor = color.RGBA{R: 30, G: 120, B: 220, A: 255}
	targetPlotColor  = color.RGBA{R: 220, G: 0, B: 220, A: 255}
)

// NewSamplePlot builds a plot of the available history and target
// positions of s in the centre frame, in metres.
func NewSamplePlot(s *sampling.Sample) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Scene %d frame %d (%s)", s.SceneIndex, s.CenterIndex, s.Target)
	p.X.Label.Text = "Forward (m)"
	p.Y.Label.Text = "Left (m)"

	for _, series := range []struct {
		name  string
		pos   [][2]float64
		avail []bool
		color color.Color
	}{
		{"history", s.HistoryPositions, s.HistoryAvailabilities, historyPlotColor},
		{"target", s.TargetPositions, s.TargetAvailabilities, targetPlotColor},
	} {
		pts := make(plotter.XYs, 0, len(series.pos))
		for i, q := range series.pos {
			if series.avail[i] {
				pts = append(pts, plotter.XY{X: q[0], Y: q[1]})
			}
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = series.color
		line.Width = vg.Points(1)

		dots, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		dots.GlyphStyle.Color = series.color
		dots.GlyphStyle.Radius = vg.Points(2)

		p.Add(line, dots)
		p.Legend.Add(series.name, line, dots)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// WriteSamplePlot renders NewSamplePlot(s) to w in the given format
// ("png", "svg", "pdf", ...).
func WriteSamplePlot(w io.Writer, s *sampling.Sample, format string) error {
	p, err := NewSamplePlot(s)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, format)
	if err != nil {
		return fmt.Errorf("plot writer %s: %w", format, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// PlotSample saves NewSamplePlot(s) to file; the format follows the
// file extension.
func PlotSample(s *sampling.Sample, file string) error {
	p, err := NewSamplePlot(s)
	if err != nil {
		return err
	}
	if err := p.Save(plotWidth, plotHeight, file); err != nil {
		return fmt.Errorf("save plot %s: %w", file, err)
	}
	return nil
}
