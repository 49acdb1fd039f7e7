package httpapi

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/hefeng-humidity/internal/chart"
	"github.com/i474232898/hefeng-humidity/internal/common"
	"github.com/i474232898/hefeng-humidity/internal/views"
	"github.com/i474232898/hefeng-humidity/internal/weather"
	"github.com/i474232898/hefeng-humidity/internal/weather/providers"
)

var validate = validator.New()

// ServiceFactory builds a weather service for the endpoint named by a request.
type ServiceFactory func(ep providers.Endpoint) *weather.Service

// Defaults fill page parameters the request leaves out.
type Defaults struct {
	Host        string
	GeoKey      string
	HistoryKey  string
	City        string
	Adm         string
	DisplayName string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, newService ServiceFactory, defaults Defaults) {
	h := &handlers{newService: newService, defaults: defaults}

	app.Get("/", h.page)

	v1 := app.Group("/api/v1/humidity")
	v1.Get("/report", h.report)
	v1.Get("/chart.svg", h.chartSVG)
}

type handlers struct {
	newService ServiceFactory
	defaults   Defaults
}

// reportQuery holds the page parameters after defaults are applied.
type reportQuery struct {
	Host        string `validate:"required"`
	GeoKey      string `validate:"required"`
	HistoryKey  string `validate:"required"`
	City        string `validate:"required"`
	Adm         string
	DisplayName string
	Row         *int `validate:"omitempty,min=0"`

	params common.Params
}

func (q reportQuery) endpoint() providers.Endpoint {
	return providers.Endpoint{Host: q.Host, GeoKey: q.GeoKey, HistoryKey: q.HistoryKey}
}

func (q reportQuery) query() weather.Query {
	return weather.Query{City: q.City, Adm: q.Adm, DisplayName: q.DisplayName}
}

func (h *handlers) bind(c *fiber.Ctx) (reportQuery, error) {
	p := common.ParseParams(string(c.Request().URI().QueryString()))
	d := h.defaults

	q := reportQuery{
		Host:        p.Or(common.ParamHost, d.Host),
		GeoKey:      p.Or(common.ParamGeoKey, d.GeoKey),
		HistoryKey:  p.Or(common.ParamHistoryKey, d.HistoryKey),
		City:        p.Or(common.ParamCity, d.City),
		Adm:         p.Or(common.ParamAdm, d.Adm),
		DisplayName: p.Or(common.ParamDisplayName, d.DisplayName),
		params:      p,
	}
	if _, present := p.Get(common.ParamRow); present {
		row, ok := p.Int(common.ParamRow)
		if !ok {
			return q, errors.New("row must be an integer")
		}
		q.Row = &row
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// build runs one render cycle for the request and returns its session.
func (h *handlers) build(c *fiber.Ctx) (reportQuery, weather.Result, *chart.Session, error) {
	q, err := h.bind(c)
	if err != nil {
		return q, weather.Result{}, nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	svc := h.newService(q.endpoint())
	result, err := svc.BuildReport(c.UserContext(), q.query())
	if err != nil {
		return q, result, nil, reportError(err)
	}

	return q, result, chart.NewSession(result.City, result.Report), nil
}

func reportError(err error) error {
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "city not found")
	case errors.Is(err, weather.ErrEmptyReport):
		return fiber.NewError(fiber.StatusBadGateway, "no humidity history available for city")
	default:
		slog.Error("build report failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build humidity report")
	}
}

// dayStatus reports how one day of the batch settled.
type dayStatus struct {
	Date  string `json:"date"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (h *handlers) report(c *fiber.Ctx) error {
	_, result, session, err := h.build(c)
	if err != nil {
		return err
	}

	days := make([]dayStatus, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		st := dayStatus{Date: o.Date, OK: o.OK()}
		if o.Err != nil {
			st.Error = o.Err.Error()
		}
		days = append(days, st)
	}

	return c.JSON(fiber.Map{
		"session": session.ID,
		"city":    result.City,
		"report":  result.Report,
		"days":    days,
	})
}

func (h *handlers) chartSVG(c *fiber.Ctx) error {
	q, _, session, err := h.build(c)
	if err != nil {
		return err
	}

	var svg []byte
	if q.Row != nil {
		view, err := session.ShowDayHistory(q.Row)
		if err != nil {
			slog.Error("draw day chart failed", "session", session.ID, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to draw chart")
		}
		if view == nil {
			return fiber.NewError(fiber.StatusNotFound, "no data for selected row")
		}
		svg = view.SVG
	} else {
		svg, err = session.DrawSummary()
		if err != nil {
			slog.Error("draw summary chart failed", "session", session.ID, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to draw chart")
		}
	}

	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.Send(svg)
}

func (h *handlers) page(c *fiber.Ctx) error {
	q, result, session, err := h.build(c)
	if err != nil {
		return err
	}

	summary, err := session.DrawSummary()
	if err != nil {
		slog.Error("draw summary chart failed", "session", session.ID, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to draw chart")
	}

	data := &views.PageData{
		SessionID:  session.ID,
		CityName:   session.City.Name,
		SummarySVG: template.HTML(summary),
		SummaryID:  chart.SummaryRegion,
		DayID:      chart.DayRegion,
	}
	for i, row := range result.Report.Total {
		data.Rows = append(data.Rows, views.RowLink{
			Date: row.Date,
			Min:  row.Min,
			Avg:  row.Avg,
			Max:  row.Max,
			Href: template.URL("?" + q.params.With(common.ParamRow, strconv.Itoa(i)) + "#" + chart.DayRegion),
		})
	}
	for _, o := range result.Outcomes {
		if !o.OK() {
			data.FailedDates = append(data.FailedDates, o.Date)
		}
	}

	view, err := session.ShowDayHistory(q.Row)
	if err != nil {
		slog.Error("draw day chart failed", "session", session.ID, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to draw chart")
	}
	if view != nil {
		data.DayVisible = true
		data.DayTitle = view.Title
		data.BackHref = template.URL("?" + q.params.With(common.ParamRow, "") + view.BackFragment)
		data.DaySVG = template.HTML(view.SVG)
	}

	var buf bytes.Buffer
	if err := views.RenderPage(&buf, data); err != nil {
		slog.Error("render page failed", "session", session.ID, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render page")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
