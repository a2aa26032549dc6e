package impactservice

import (
	"bytes"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
)

var (
	chartBackground = drawing.ColorFromHex("f4f9f4")
	chartLine       = drawing.ColorFromHex("2e7d32")
	chartDot        = drawing.ColorFromHex("f9a825")
	chartText       = drawing.ColorFromHex("1b3a1d")
)

// PointsPerDay folds a ledger into cumulative points per calendar day in loc,
// oldest first. The day before the first activity is included at zero so the
// series always has a baseline.
func PointsPerDay(ledger impactdomain.Ledger, loc *time.Location) ([]time.Time, []float64) {
	if len(ledger) == 0 {
		return nil, nil
	}
	perDay := make(map[time.Time]int)
	for _, a := range ledger {
		perDay[impactdomain.CalendarDay(a.Timestamp, loc)] += a.PointsEarned
	}
	days := impactdomain.DistinctDays(ledger.Timestamps(), loc)

	xs := make([]time.Time, 0, len(days)+1)
	ys := make([]float64, 0, len(days)+1)
	xs = append(xs, days[len(days)-1].AddDate(0, 0, -1))
	ys = append(ys, 0)

	total := 0
	for i := len(days) - 1; i >= 0; i-- {
		total += perDay[days[i]]
		xs = append(xs, days[i])
		ys = append(ys, float64(total))
	}
	return xs, ys
}

// RenderPointsHistoryChart produces a PNG line chart of cumulative points.
// An empty ledger renders a flat placeholder ending on today.
func RenderPointsHistoryChart(ledger impactdomain.Ledger, loc *time.Location, today time.Time) ([]byte, error) {
	xValues, yValues := PointsPerDay(ledger, loc)
	if len(xValues) == 0 {
		return renderEmptyChart(impactdomain.CalendarDay(today, loc))
	}

	series := chart.TimeSeries{
		Name:    "Points",
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: chartLine,
			StrokeWidth: 2,
			DotWidth:    4,
			DotColor:    chartDot,
		},
	}

	graph := chart.Chart{
		Width:      800,
		Height:     400,
		Background: chart.Style{FillColor: chartBackground},
		Canvas:     chart.Style{FillColor: chartBackground},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
			Style:          chart.Style{FontColor: chartText},
		},
		YAxis: chart.YAxis{
			Name:  "Points",
			Style: chart.Style{FontColor: chartText},
		},
		Series: []chart.Series{series},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderEmptyChart draws a zero line under a message. go-chart needs at least
// one series with a non-zero range, hence the two points and the fixed Y range.
func renderEmptyChart(today time.Time) ([]byte, error) {
	const msg = "No activities logged yet"

	graph := chart.Chart{
		Width:      400,
		Height:     200,
		Background: chart.Style{FillColor: chartBackground},
		Canvas:     chart.Style{FillColor: chartBackground},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02")},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: 100}},
		Series: []chart.Series{chart.TimeSeries{
			XValues: []time.Time{today.AddDate(0, 0, -1), today},
			YValues: []float64{0, 0},
			Style:   chart.Style{StrokeColor: chartLine, StrokeWidth: 1},
		}},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, _ chart.Style) {
				r.SetFontColor(chartText)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				r.Text(msg, (cb.Width()-tb.Width())/2, (cb.Height()+tb.Height())/2)
			},
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
