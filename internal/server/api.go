package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/git-pkgs/npmchart/internal/chart"
	"github.com/git-pkgs/npmchart/internal/core"
	"github.com/git-pkgs/npmchart/internal/shape"
	"github.com/git-pkgs/npmchart/internal/view"
)

const (
	msgNameRequired    = "Package name is required"
	msgNotFound        = "Package not found"
	msgFetchDownloads  = "Failed to fetch download data"
	msgFetchMetadata   = "Failed to fetch package metadata"
	msgInvalidUntil    = "Invalid until date"
	msgInvalidPeriod   = "Invalid period"
	msgInvalidRange    = "Invalid range"
	msgInvalidColor    = "Invalid color"
	msgBadIdentifier   = "Invalid package identifier"
	msgWrongEcosystem  = "Unsupported ecosystem"
	chartCacheControl  = "public, max-age=300"
	noDownloadsMessage = "No downloads recorded"
)

// packageName resolves the package query parameter, which may be a plain
// name, a scoped name or a Package URL.
func (s *Server) packageName(raw string) (string, error) {
	id, err := core.ParseIdentifier(raw)
	if errors.Is(err, core.ErrEmptyName) {
		return "", badRequest(msgNameRequired, err)
	}
	if err != nil {
		return "", badRequest(msgBadIdentifier, err)
	}
	if id.Ecosystem != s.src.Ecosystem() {
		return "", badRequest(msgWrongEcosystem, fmt.Errorf("ecosystem %q", id.Ecosystem))
	}
	return id.Name, nil
}

func parseUntil(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(core.DateLayout, raw)
	if err != nil {
		return time.Time{}, badRequest(msgInvalidUntil, err)
	}
	return t, nil
}

func parsePeriod(raw string) (core.Granularity, error) {
	g, err := core.ParseGranularity(raw)
	if err != nil {
		return "", badRequest(msgInvalidPeriod, err)
	}
	return g, nil
}

// parseRange reads lo and hi percentages, defaulting to the full series.
func parseRange(lo, hi string) (core.Range, error) {
	r := core.FullRange
	var err error
	if lo != "" {
		if r.Lo, err = strconv.ParseFloat(lo, 64); err != nil {
			return r, badRequest(msgInvalidRange, err)
		}
	}
	if hi != "" {
		if r.Hi, err = strconv.ParseFloat(hi, 64); err != nil {
			return r, badRequest(msgInvalidRange, err)
		}
	}
	if err := r.Validate(); err != nil {
		return r, badRequest(msgInvalidRange, err)
	}
	return r, nil
}

// parseColor accepts colors with or without the leading '#'.
func parseColor(raw, fallback string) (string, error) {
	if raw == "" {
		return fallback, nil
	}
	if !strings.HasPrefix(raw, "#") {
		raw = "#" + raw
	}
	if !view.ValidColor(raw) {
		return "", badRequest(msgInvalidColor, fmt.Errorf("color %q", raw))
	}
	return raw, nil
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) (err error) {
	name, err := s.packageName(r.URL.Query().Get("package"))
	if err != nil {
		return err
	}

	defer s.logger(r).WithField("package", name).Trace("fetch metadata").Stop(&err)

	meta, err := s.src.FetchMetadata(r.Context(), name)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return notFound(msgNotFound, err)
		}
		return internalError(msgFetchMetadata, err)
	}

	writeJSON(w, http.StatusOK, meta)
	return nil
}

func (s *Server) handleDownloads(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	name, err := s.packageName(q.Get("package"))
	if err != nil {
		return err
	}
	until, err := parseUntil(q.Get("until"))
	if err != nil {
		return err
	}
	period, err := parsePeriod(q.Get("period"))
	if err != nil {
		return err
	}

	series, err := s.fetchSeries(r, name, until)
	if err != nil {
		return err
	}
	series, err = shape.Aggregate(series, period)
	if err != nil {
		return internalError(msgFetchDownloads, err)
	}

	writeJSON(w, http.StatusOK, series)
	return nil
}

func (s *Server) fetchSeries(r *http.Request, name string, until time.Time) (series core.Series, err error) {
	defer s.logger(r).WithField("package", name).Trace("fetch downloads").Stop(&err)

	series, err = s.src.FetchDownloads(r.Context(), name, until, time.Time{})
	if err != nil {
		return nil, internalError(msgFetchDownloads, err)
	}
	return series, nil
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) error {
	format := chart.SVG
	if strings.HasSuffix(r.URL.Path, ".png") {
		format = chart.PNG
	}

	q := r.URL.Query()
	name, err := s.packageName(q.Get("package"))
	if err != nil {
		return err
	}
	until, err := parseUntil(q.Get("until"))
	if err != nil {
		return err
	}
	period, err := parsePeriod(q.Get("period"))
	if err != nil {
		return err
	}
	rng, err := parseRange(q.Get("lo"), q.Get("hi"))
	if err != nil {
		return err
	}
	color, err := parseColor(q.Get("color"), s.defaultColor)
	if err != nil {
		return err
	}

	series, err := s.fetchSeries(r, name, until)
	if err != nil {
		return err
	}
	series, err = shape.Aggregate(series, period)
	if err != nil {
		return internalError(msgFetchDownloads, err)
	}
	plot := shape.Plot(name, color, series, rng, s.maxPoints)

	var buf bytes.Buffer
	if err := s.renderPlot(&buf, plot, format); err != nil {
		return err
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", chartCacheControl)
	_, err = w.Write(buf.Bytes())
	return err
}

// renderPlot draws plot, or a placeholder when it has no points.
func (s *Server) renderPlot(buf *bytes.Buffer, plot core.Plot, format chart.Format) error {
	opts := chart.Options{Width: s.chartWidth, Height: s.chartHeight, Format: format}
	err := chart.Render(buf, plot, opts)
	if errors.Is(err, chart.ErrNoData) {
		buf.Reset()
		err = chart.Placeholder(buf, noDownloadsMessage, opts)
	}
	if err != nil {
		return internalError("Failed to render chart", err)
	}
	return nil
}
