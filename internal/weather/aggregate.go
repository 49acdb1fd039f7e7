package weather

import (
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var hourLabel = regexp.MustCompile(`\d{2}:\d{2}`)

// FormatData aggregates daily records into a Report.
// Each hourly humidity percentage becomes a 0-1 fraction appended to its day's
// detail table; every day with at least one sample contributes a summary row
// with min, max and the mean rounded to two decimals.
func FormatData(records []DailyRecord) Report {
	report := Report{
		Total: make([]SummaryRow, 0, len(records)),
		Days:  make(map[string][]HourlyRow, len(records)),
	}

	for _, rec := range records {
		date := rec.WeatherDaily.Date

		for _, h := range rec.WeatherHourly {
			pct, err := strconv.ParseFloat(strings.TrimSpace(h.Humidity), 64)
			if err != nil {
				slog.Debug("skipping hourly sample with unreadable humidity", "date", date, "time", h.Time, "humidity", h.Humidity)
				continue
			}
			report.Days[date] = append(report.Days[date], HourlyRow{
				Hour:     hourLabel.FindString(h.Time),
				Humidity: pct / 100,
			})
		}

		rows, ok := report.Days[date]
		if !ok {
			continue
		}
		report.Total = append(report.Total, summarize(date, rows))
	}

	return report
}

// summarize computes min/avg/max over the day's rows. Rows is never empty.
func summarize(date string, rows []HourlyRow) SummaryRow {
	minH, maxH := math.Inf(1), math.Inf(-1)
	var sum float64
	for _, r := range rows {
		minH = math.Min(minH, r.Humidity)
		maxH = math.Max(maxH, r.Humidity)
		sum += r.Humidity
	}
	avg := sum / float64(len(rows))

	return SummaryRow{
		Date: date,
		Min:  minH,
		Avg:  math.Round(avg*100) / 100,
		Max:  maxH,
	}
}
