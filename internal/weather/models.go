package weather

import (
	"encoding/json"
	"strings"
)

// HistoryDays is the number of past days requested by GetHistory10Days.
const HistoryDays = 10

// SuccessCode is the status code the HeFeng API reports for a usable response.
const SuccessCode = "200"

// Table headers emitted as the first row of every exported table.
var (
	TotalHeader = []string{"日期", "最小相对湿度", "平均相对湿度", "最大相对湿度"}
	DayHeader   = []string{"小时", "实时相对湿度"}
)

// City is a geocoded location as returned by the city lookup endpoint.
type City struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Adm1    string `json:"adm1,omitempty"`
	Adm2    string `json:"adm2,omitempty"`
	Country string `json:"country,omitempty"`
	Lat     string `json:"lat,omitempty"`
	Lon     string `json:"lon,omitempty"`
	TZ      string `json:"tz,omitempty"`
	Type    string `json:"type,omitempty"`
}

// CityFilter selects a candidate out of a lookup result.
type CityFilter func(City) bool

// ByName matches candidates whose display name equals name.
// An empty name accepts the first candidate.
func ByName(name string) CityFilter {
	name = strings.TrimSpace(name)
	return func(c City) bool {
		return name == "" || c.Name == name
	}
}

// DailyRecord is one day of historical weather.
type DailyRecord struct {
	Code          string         `json:"code"`
	WeatherDaily  DailySummary   `json:"weatherDaily"`
	WeatherHourly []HourlySample `json:"weatherHourly"`
}

// DailySummary holds the daily block of a history response. Numbers are
// transmitted as strings by the API.
type DailySummary struct {
	Date     string `json:"date"`
	TempMax  string `json:"tempMax,omitempty"`
	TempMin  string `json:"tempMin,omitempty"`
	Humidity string `json:"humidity,omitempty"`
	Precip   string `json:"precip,omitempty"`
	Pressure string `json:"pressure,omitempty"`
}

// HourlySample is one hourly observation.
type HourlySample struct {
	Time     string `json:"time"`
	Temp     string `json:"temp,omitempty"`
	Text     string `json:"text,omitempty"`
	Humidity string `json:"humidity"`
	Pressure string `json:"pressure,omitempty"`
	WindDir  string `json:"windDir,omitempty"`
}

// SummaryRow is the per-day aggregate of humidity fractions.
type SummaryRow struct {
	Date string
	Min  float64
	Avg  float64
	Max  float64
}

// HourlyRow is one point of a single-day detail table.
type HourlyRow struct {
	Hour     string
	Humidity float64
}

// Report is the aggregated view drawn by the chart renderer.
// Total keeps input order; Days is keyed by the record's daily date.
type Report struct {
	Total []SummaryRow
	Days  map[string][]HourlyRow
}

// TotalTable returns the summary as rows with the header first.
func (r Report) TotalTable() [][]any {
	out := make([][]any, 0, len(r.Total)+1)
	out = append(out, headerRow(TotalHeader))
	for _, row := range r.Total {
		out = append(out, []any{row.Date, row.Min, row.Avg, row.Max})
	}
	return out
}

// DayTable returns the detail table for date with the header first.
func (r Report) DayTable(date string) ([][]any, bool) {
	rows, ok := r.Days[date]
	if !ok {
		return nil, false
	}
	out := make([][]any, 0, len(rows)+1)
	out = append(out, headerRow(DayHeader))
	for _, row := range rows {
		out = append(out, []any{row.Hour, row.Humidity})
	}
	return out, true
}

// DateAt resolves a zero-based summary row index to its date.
func (r Report) DateAt(row int) (string, bool) {
	if row < 0 || row >= len(r.Total) {
		return "", false
	}
	return r.Total[row].Date, r.Total[row].Date != ""
}

// MarshalJSON emits the table form: {"total": [[header], ...], "days": {date: [[header], ...]}}.
func (r Report) MarshalJSON() ([]byte, error) {
	days := make(map[string][][]any, len(r.Days))
	for date := range r.Days {
		days[date], _ = r.DayTable(date)
	}
	return json.Marshal(struct {
		Total [][]any            `json:"total"`
		Days  map[string][][]any `json:"days"`
	}{
		Total: r.TotalTable(),
		Days:  days,
	})
}

func headerRow(h []string) []any {
	row := make([]any, len(h))
	for i, v := range h {
		row[i] = v
	}
	return row
}
