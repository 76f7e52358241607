// Package chart renders plots as SVG or PNG line charts and as terminal sparklines.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/git-pkgs/npmchart/internal/core"
	"github.com/git-pkgs/npmchart/internal/view"
)

// Format is an output image format.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 512

	// fillAlpha is the opacity of the area under the line.
	fillAlpha = 0x20
)

var (
	ErrNoData        = errors.New("no data to plot")
	ErrInvalidColor  = errors.New("invalid color")
	ErrUnknownFormat = errors.New("unknown image format")
)

// Options controls the rendered image.
type Options struct {
	Width  int
	Height int
	Format Format
}

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "svg":
		return SVG, nil
	case "png":
		return PNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (o Options) provider() (gochart.RendererProvider, error) {
	switch o.Format {
	case "", SVG:
		return gochart.SVG, nil
	case PNG:
		return gochart.PNG, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, o.Format)
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// Render draws p as a filled line chart in the plot's color.
func Render(w io.Writer, p core.Plot, opts Options) error {
	if len(p.Points) == 0 {
		return ErrNoData
	}
	if !view.ValidColor(p.Color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, p.Color)
	}
	provider, err := opts.provider()
	if err != nil {
		return err
	}

	xs, ys, err := values(p.Points)
	if err != nil {
		return err
	}
	// go-chart needs two distinct x values
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}

	color := drawing.ColorFromHex(p.Color)
	width, height := opts.size()

	graph := gochart.Chart{
		Width:  width,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat(core.DateLayout),
		},
		YAxis: gochart.YAxis{
			ValueFormatter: formatCount,
			Range:          &gochart.ContinuousRange{Min: 0, Max: yMax(ys)},
			GridMajorStyle: gochart.Style{
				StrokeColor: gochart.ColorLightGray,
				StrokeWidth: 1,
			},
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name: p.Label,
				Style: gochart.Style{
					StrokeColor: color,
					StrokeWidth: 2,
					FillColor:   fillColor(p, color),
					DotColor:    color,
					DotWidth:    3,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	return graph.Render(provider, w)
}

func fillColor(p core.Plot, c drawing.Color) drawing.Color {
	if !p.Fill {
		return drawing.ColorTransparent
	}
	return c.WithAlpha(fillAlpha)
}

func values(points []core.Point) ([]time.Time, []float64, error) {
	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, pt := range points {
		x, err := parseLabel(pt.Date)
		if err != nil {
			return nil, nil, err
		}
		xs[i] = x
		ys[i] = float64(pt.Count)
	}
	return xs, ys, nil
}

// parseLabel accepts day labels and the "YYYY-MM" labels of month buckets.
func parseLabel(s string) (time.Time, error) {
	if t, err := time.Parse(core.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid point date %q", s)
	}
	return t, nil
}

// yMax rounds the largest value up to one significant digit so the axis ends
// on a round number. An all-zero series still gets a non-empty axis.
func yMax(ys []float64) float64 {
	m := 0.0
	for _, y := range ys {
		m = math.Max(m, y)
	}
	if m <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(m)))
	return math.Ceil(m/mag) * mag
}

// formatCount renders axis values as 950, 12.5k or 3.1M.
func formatCount(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return FormatCount(f)
}

// FormatCount abbreviates a download count.
func FormatCount(f float64) string {
	switch abs := math.Abs(f); {
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", f/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", f/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fk", f/1e3)
	}
	return fmt.Sprintf("%.0f", f)
}

// Placeholder draws a blank image with a centered message, used when there is
// nothing to plot.
func Placeholder(w io.Writer, message string, opts Options) error {
	provider, err := opts.provider()
	if err != nil {
		return err
	}
	width, height := opts.size()

	r, err := provider(width, height)
	if err != nil {
		return err
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return err
	}

	r.SetFillColor(gochart.ColorWhite)
	r.SetStrokeColor(gochart.ColorLightGray)
	r.SetStrokeWidth(1)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.LineTo(0, 0)
	r.Close()
	r.FillStroke()

	r.SetFont(font)
	r.SetFontSize(14)
	r.SetFontColor(gochart.ColorAlternateGray)
	box := r.MeasureText(message)
	r.Text(message, (width-box.Width())/2, (height+box.Height())/2)

	return r.Save(w)
}
