// Package report renders the recorded equity curve as a standalone HTML chart.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"papertrade/internal/engine"
)

const timeLayout = "01-02 15:04:05"

// RenderEquity writes an HTML page with equity, balance, and margin-level
// series over the snapshot range.
func RenderEquity(w io.Writer, snapshots []engine.Snapshot) error {
	if len(snapshots) == 0 {
		return fmt.Errorf("no snapshots recorded yet")
	}

	xAxis := make([]string, len(snapshots))
	equitySeries := make([]opts.LineData, len(snapshots))
	balanceSeries := make([]opts.LineData, len(snapshots))
	marginSeries := make([]opts.LineData, len(snapshots))
	for i, snap := range snapshots {
		xAxis[i] = snap.Timestamp.Format(timeLayout)
		equitySeries[i] = opts.LineData{Value: snap.Equity}
		balanceSeries[i] = opts.LineData{Value: snap.Balance}
		marginSeries[i] = opts.LineData{Value: snap.MarginLevel}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "560px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Account Equity Curve",
			Subtitle: fmt.Sprintf("%d snapshots, %s – %s", len(snapshots), xAxis[0], xAxis[len(xAxis)-1]),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("Equity", equitySeries,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	line.AddSeries("Balance", balanceSeries,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	line.AddSeries("Margin Level %", marginSeries,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	return line.Render(w)
}
