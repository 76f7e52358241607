package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/git-pkgs/npmchart/internal/chart"
	"github.com/git-pkgs/npmchart/internal/core"
	"github.com/git-pkgs/npmchart/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"comma":       humanize.Comma,
	"packagePath": packagePath,
}).ParseFS(templateFS, "templates/*.html"))

type homePage struct {
	Popular []string
}

type errorPage struct {
	Status  int
	Message string
}

type packagePage struct {
	Name       string
	Metadata   *core.Metadata
	PURL       string
	Registry   string
	Chart      template.HTML
	Total      int64
	Start      string
	End        string
	Range      core.Range
	Color      string
	Period     core.Granularity
	Periods    []core.Granularity
	Palette    []string
	Until      string
	SeriesErr  string
	HasSeries  bool
	PointCount int
}

// Link returns the page URL with one query parameter replaced.
func (p packagePage) Link(key, value string) string {
	q := url.Values{}
	q.Set("lo", fmt.Sprint(p.Range.Lo))
	q.Set("hi", fmt.Sprint(p.Range.Hi))
	q.Set("color", p.Color)
	q.Set("period", string(p.Period))
	if p.Until != "" {
		q.Set("until", p.Until)
	}
	q.Set(key, value)
	return packagePath(p.Name) + "?" + q.Encode()
}

// packagePath escapes each segment of a possibly scoped package name.
func packagePath(name string) string {
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "/package/" + strings.Join(segments, "/")
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger(r).WithError(err).WithField("template", name).Error("rendering page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) error {
	s.render(w, r, http.StatusOK, "home.html", homePage{Popular: s.popular})
	return nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) error {
	name, err := s.packageName(r.URL.Query().Get("q"))
	if err != nil {
		return err
	}
	http.Redirect(w, r, packagePath(name), http.StatusSeeOther)
	return nil
}

func (s *Server) handlePackagePage(w http.ResponseWriter, r *http.Request) error {
	name, err := s.packageName(r.PathValue("name"))
	if err != nil {
		return err
	}
	q := r.URL.Query()
	until, err := parseUntil(q.Get("until"))
	if err != nil {
		return err
	}

	m := view.NewModel(s.src, view.WithMaxPoints(s.maxPoints))
	m.Dispatch(view.ColorPicked{Color: s.defaultColor})
	m.Dispatch(view.Navigate{Package: name, Until: until})
	st := m.Load(r.Context())

	if st.MetadataErr != nil {
		if errors.Is(st.MetadataErr, core.ErrNotFound) {
			return notFound(msgNotFound, st.MetadataErr)
		}
		return internalError(msgFetchMetadata, st.MetadataErr)
	}
	if st.Metadata == nil {
		return internalError(msgFetchMetadata, errors.New("no metadata"))
	}

	// Adjustments that fail validation are ignored, as in the interactive view.
	if rng, err := parseRange(q.Get("lo"), q.Get("hi")); err == nil {
		m.Dispatch(view.RangeMoved{Range: rng})
	}
	if color, err := parseColor(q.Get("color"), ""); err == nil && color != "" {
		m.Dispatch(view.ColorPicked{Color: color})
	}
	if period := q.Get("period"); period != "" {
		m.Dispatch(view.GranularityChanged{Granularity: core.Granularity(period)})
	}
	st = m.State()

	page := packagePage{
		Name:     name,
		Metadata: st.Metadata,
		PURL:     s.src.URLs().PURL(name, st.Metadata.Version),
		Registry: s.src.URLs().Registry(name, ""),
		Range:    st.Range,
		Color:    st.Color,
		Period:   st.Granularity,
		Periods:  []core.Granularity{core.Day, core.Week, core.Month},
		Palette:  view.Palette,
	}
	if !until.IsZero() {
		page.Until = until.Format(core.DateLayout)
	}

	if st.DownloadsErr != nil {
		s.logger(r).WithError(st.DownloadsErr).WithField("package", name).Warn("downloads unavailable")
		page.SeriesErr = msgFetchDownloads
		s.render(w, r, http.StatusOK, "package.html", page)
		return nil
	}

	plot, err := m.Plot()
	if err != nil {
		return internalError(msgFetchDownloads, err)
	}
	var buf bytes.Buffer
	if err := s.renderPlot(&buf, plot, chart.SVG); err != nil {
		return err
	}

	page.HasSeries = len(plot.Points) > 0
	page.PointCount = len(plot.Points)
	page.Total = plot.Total
	page.Start = plot.Start()
	page.End = plot.End()
	// go-chart output contains only axis labels derived from dates and counts.
	page.Chart = template.HTML(buf.String())

	s.render(w, r, http.StatusOK, "package.html", page)
	return nil
}
