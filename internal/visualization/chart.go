package visualization

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/l5sampler/internal/sampling"
)

// RenderSampleChart writes an HTML scatter chart of s's available
// history and target positions. Each point carries its step offset
// from the centre frame.
func RenderSampleChart(w io.Writer, s *sampling.Sample) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sample trajectory", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Scene %d frame %d", s.SceneIndex, s.CenterIndex),
			Subtitle: fmt.Sprintf("%s history=%d/%d target=%d/%d", s.Target, s.AvailableHistory(), len(s.HistoryPositions), s.AvailableTargets(), len(s.TargetPositions)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Forward (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Left (m)", NameLocation: "middle", NameGap: 30}),
	)

	history := make([]opts.ScatterData, 0, len(s.HistoryPositions))
	n := len(s.HistoryPositions)
	for i, p := range s.HistoryPositions {
		if s.HistoryAvailabilities[i] {
			history = append(history, opts.ScatterData{Value: []interface{}{p[0], p[1], i - (n - 1)}})
		}
	}
	target := make([]opts.ScatterData, 0, len(s.TargetPositions))
	for i, p := range s.TargetPositions {
		if s.TargetAvailabilities[i] {
			target = append(target, opts.ScatterData{Value: []interface{}{p[0], p[1], i + 1}})
		}
	}

	scatter.AddSeries("history", history, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	scatter.AddSeries("target", target, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter.Render(w)
}
