package chart

import (
	"errors"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/hefeng-humidity/internal/weather"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("chart: no rows to draw")

const (
	width  = 960
	height = 420

	summaryTitle = "最近10天相对湿度"
	dayTitleFmt  = "%s的相对湿度"
	yAxisName    = "相对湿度"
	summaryXName = "日期"
	dayXName     = "时间"

	maxDayTicks = 12
)

var (
	seriesColors = []drawing.Color{
		drawing.ColorFromHex("EB3324"),
		drawing.ColorFromHex("000000"),
		drawing.ColorFromHex("0023F5"),
	}
	dayColor  = drawing.ColorFromHex("3366CC")
	gridColor = drawing.ColorFromHex("777777")
)

// dataOpacity is 0.6 of full alpha.
const dataOpacity uint8 = 153

func lineStyle(col drawing.Color) gochart.Style {
	c := col.WithAlpha(dataOpacity)
	return gochart.Style{
		StrokeColor: c,
		StrokeWidth: 2,
		DotColor:    c,
		DotWidth:    3,
	}
}

// percentAxis is the shared 0-1 y axis with five gridlines.
func percentAxis() gochart.YAxis {
	ticks := make([]gochart.Tick, 0, 5)
	for _, v := range []float64{0, 0.25, 0.5, 0.75, 1} {
		ticks = append(ticks, gochart.Tick{Value: v, Label: gochart.PercentValueFormatter(v)})
	}
	return gochart.YAxis{
		Name:           yAxisName,
		Range:          &gochart.ContinuousRange{Min: 0, Max: 1},
		ValueFormatter: gochart.PercentValueFormatter,
		Ticks:          ticks,
		GridMajorStyle: gochart.Style{StrokeColor: gridColor, StrokeWidth: 1},
	}
}

// framedTicks brackets ticks with unlabeled ticks at -0.5 and n-0.5.
// go-chart takes the x range from the outermost ticks, so a single point
// still gets a non-zero range.
func framedTicks(ticks []gochart.Tick, n int) []gochart.Tick {
	out := make([]gochart.Tick, 0, len(ticks)+2)
	out = append(out, gochart.Tick{Value: -0.5})
	out = append(out, ticks...)
	return append(out, gochart.Tick{Value: float64(n) - 0.5})
}

// DrawChart renders the summary rows as an SVG line chart with one series per
// statistic. Rows arrive newest first; the x axis runs oldest to newest.
func DrawChart(w io.Writer, report weather.Report) error {
	n := len(report.Total)
	if n == 0 {
		return ErrNoData
	}

	xs := make([]float64, n)
	ticks := make([]gochart.Tick, n)
	mins := make([]float64, n)
	avgs := make([]float64, n)
	maxs := make([]float64, n)
	for i, row := range report.Total {
		x := float64(n - 1 - i)
		xs[i] = x
		ticks[n-1-i] = gochart.Tick{Value: x, Label: row.Date}
		mins[i] = row.Min
		avgs[i] = row.Avg
		maxs[i] = row.Max
	}

	series := make([]gochart.Series, 0, 3)
	for i, ys := range [][]float64{mins, avgs, maxs} {
		series = append(series, gochart.ContinuousSeries{
			Name:    weather.TotalHeader[i+1],
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(seriesColors[i]),
		})
	}

	ch := gochart.Chart{
		Title:      summaryTitle,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: gochart.XAxis{
			Name:      summaryXName,
			Range:     &gochart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
			Ticks:     framedTicks(ticks, n),
			TickStyle: gochart.Style{TextRotationDegrees: 45},
		},
		YAxis:  percentAxis(),
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	return ch.Render(gochart.SVG, w)
}

// DrawDay renders one day's hourly humidity as an SVG line chart.
func DrawDay(w io.Writer, title string, rows []weather.HourlyRow) error {
	n := len(rows)
	if n == 0 {
		return ErrNoData
	}

	step := (n + maxDayTicks - 1) / maxDayTicks
	xs := make([]float64, n)
	ys := make([]float64, n)
	ticks := make([]gochart.Tick, 0, maxDayTicks+1)
	for i, row := range rows {
		xs[i] = float64(i)
		ys[i] = row.Humidity
		if i%step == 0 {
			ticks = append(ticks, gochart.Tick{Value: float64(i), Label: row.Hour})
		}
	}

	ch := gochart.Chart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: gochart.XAxis{
			Name:      dayXName,
			Range:     &gochart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
			Ticks:     framedTicks(ticks, n),
			TickStyle: gochart.Style{TextRotationDegrees: 45},
		},
		YAxis: percentAxis(),
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    weather.DayHeader[1],
				XValues: xs,
				YValues: ys,
				Style:   lineStyle(dayColor),
			},
		},
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	return ch.Render(gochart.SVG, w)
}
