package chart

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/i474232898/hefeng-humidity/internal/weather"
)

// Page regions the two charts are drawn into.
const (
	SummaryRegion = "div_history_10days"
	DayRegion     = "div_history_1day"
)

// Session holds the state of one render cycle: the resolved city and the
// report the selection handler resolves rows against.
type Session struct {
	ID     string
	City   weather.City
	Report weather.Report
}

// NewSession starts a render cycle for a built report.
func NewSession(city weather.City, report weather.Report) *Session {
	return &Session{
		ID:     uuid.NewString(),
		City:   city,
		Report: report,
	}
}

// DayView is the revealed drill-down region.
type DayView struct {
	Date  string
	Title string
	SVG   []byte
	// BackFragment is where selecting the detail chart navigates to.
	BackFragment string
}

// DrawSummary renders the session's summary chart.
func (s *Session) DrawSummary() ([]byte, error) {
	var buf bytes.Buffer
	if err := DrawChart(&buf, s.Report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ShowDayHistory handles a selection on the summary chart. A nil selection,
// an unknown row or a date without detail data is a no-op and returns nil.
func (s *Session) ShowDayHistory(row *int) (*DayView, error) {
	if s == nil || row == nil {
		return nil, nil
	}
	date, ok := s.Report.DateAt(*row)
	if !ok {
		slog.Debug("selection outside summary", "session", s.ID, "row", *row)
		return nil, nil
	}
	rows, ok := s.Report.Days[date]
	if !ok || len(rows) == 0 {
		return nil, nil
	}

	title := fmt.Sprintf(dayTitleFmt, date)
	var buf bytes.Buffer
	if err := DrawDay(&buf, title, rows); err != nil {
		return nil, err
	}

	return &DayView{
		Date:         date,
		Title:        title,
		SVG:          buf.Bytes(),
		BackFragment: "#" + SummaryRegion,
	}, nil
}
