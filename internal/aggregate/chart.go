package aggregate

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"hoardermap/internal/geo"
	"hoardermap/internal/track"
)

// RenderProfileChart writes an HTML line chart of implied speed and
// battery level over a device's merged history. It reads the points
// before segmentation so gaps and jumps stay visible.
func RenderProfileChart(w io.Writer, deviceID string, points []TrackPoint) error {
	times := make([]string, 0, len(points))
	speeds := make([]opts.LineData, 0, len(points))
	batteries := make([]opts.LineData, 0, len(points))

	for i, p := range points {
		times = append(times, p.At.Canonical())

		speed := 0.0
		if i > 0 {
			elapsed := p.At.Sub(points[i-1].At).Seconds()
			if elapsed > 0 {
				speed = geo.Haversine(points[i-1].Pos, p.Pos) / elapsed
			}
		}
		speeds = append(speeds, opts.LineData{Value: speed})

		telemetry := track.ResolveTelemetry(p.State)
		if telemetry.HasBatteryPercent {
			batteries = append(batteries, opts.LineData{Value: telemetry.BatteryPercent})
		} else {
			batteries = append(batteries, opts.LineData{Value: nil})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Device Profile", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Device Profile", Subtitle: fmt.Sprintf("device=%s points=%d", deviceID, len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(times).
		AddSeries("speed (m/s)", speeds).
		AddSeries("battery (%)", batteries)

	return line.Render(w)
}
