package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/*.html
var viewsFS embed.FS

var pageTmpl *template.Template

var funcs = template.FuncMap{
	"pct": func(f float64) float64 { return f * 100 },
}

func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	pageTmpl, err = template.New("page.html").Funcs(funcs).ParseFS(sub, "*.html")
	return err
}

// LoadTemplates parses the embedded page templates. Call during startup.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// RowLink is one selectable summary row.
type RowLink struct {
	Date string
	Min  float64
	Avg  float64
	Max  float64
	Href template.URL
}

// PageData is the view model of the humidity page.
type PageData struct {
	SessionID   string
	CityName    string
	SummarySVG  template.HTML
	Rows        []RowLink
	DayVisible  bool
	DayTitle    string
	DaySVG      template.HTML
	BackHref    template.URL
	SummaryID   string
	DayID       string
	FailedDates []string
}

// RenderPage executes the full page into w.
func RenderPage(w io.Writer, data *PageData) error {
	if pageTmpl == nil {
		return errors.New("page template not loaded: call views.LoadTemplates during startup")
	}
	return pageTmpl.ExecuteTemplate(w, "page.html", data)
}
