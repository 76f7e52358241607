package chart

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/git-pkgs/npmchart/internal/core"
)

func testPlot(n int) core.Plot {
	p := core.Plot{Label: "lodash", Color: "#FFD700", Fill: true}
	for i := 0; i < n; i++ {
		p.Points = append(p.Points, core.Point{
			Date:  []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}[i%4],
			Count: int64((i + 1) * 1000),
		})
	}
	return p
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, testPlot(4), Options{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<svg") {
		t.Errorf("expected SVG output, got %.40q", out)
	}
	if !strings.Contains(out, "rgba(255,215,0,1.0)") {
		t.Error("line color not present in output")
	}
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, testPlot(4), Options{Format: PNG, Width: 400, Height: 200}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("expected PNG signature")
	}
}

func TestRenderSinglePoint(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, testPlot(1), Options{}); err != nil {
		t.Fatalf("Render of a single point failed: %v", err)
	}
}

func TestRenderAllZeros(t *testing.T) {
	p := core.Plot{Label: "ghost", Color: "#abc", Points: []core.Point{
		{Date: "2024-01-01", Count: 0},
		{Date: "2024-01-02", Count: 0},
	}}
	var buf bytes.Buffer
	if err := Render(&buf, p, Options{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
}

func TestRenderMonthLabels(t *testing.T) {
	p := core.Plot{Label: "lodash", Color: "#FFD700", Points: []core.Point{
		{Date: "2024-01", Count: 10},
		{Date: "2024-02", Count: 20},
	}}
	var buf bytes.Buffer
	if err := Render(&buf, p, Options{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		plot core.Plot
		opts Options
		want error
	}{
		{"empty", core.Plot{Color: "#FFD700"}, Options{}, ErrNoData},
		{"bad color", core.Plot{Color: "gold", Points: testPlot(2).Points}, Options{}, ErrInvalidColor},
		{"bad format", testPlot(2), Options{Format: "gif"}, ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Render(&bytes.Buffer{}, tt.plot, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Render error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRenderBadDate(t *testing.T) {
	p := core.Plot{Color: "#FFD700", Points: []core.Point{{Date: "soon", Count: 1}}}
	if err := Render(&bytes.Buffer{}, p, Options{}); err == nil {
		t.Error("expected error for unparseable point date")
	}
}

func TestPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	if err := Placeholder(&buf, "No download data", Options{Width: 300, Height: 100}); err != nil {
		t.Fatalf("Placeholder failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<svg") || !strings.Contains(out, "No download data") {
		t.Errorf("unexpected placeholder output: %.80q", out)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", SVG, false},
		{"svg", SVG, false},
		{".svg", SVG, false},
		{"PNG", PNG, false},
		{".png", PNG, false},
		{"jpg", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
	if SVG.ContentType() != "image/svg+xml" || PNG.ContentType() != "image/png" {
		t.Error("unexpected content types")
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{12500, "12.5k"},
		{3100000, "3.1M"},
		{2500000000, "2.5B"},
	}
	for _, tt := range tests {
		if got := FormatCount(tt.in); got != tt.want {
			t.Errorf("FormatCount(%g) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestYMax(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{[]float64{0, 0}, 1},
		{[]float64{3, 7}, 7},
		{[]float64{120, 45}, 200},
		{[]float64{1000}, 1000},
		{[]float64{1001}, 2000},
	}
	for _, tt := range tests {
		if got := yMax(tt.in); got != tt.want {
			t.Errorf("yMax(%v) = %g, want %g", tt.in, got, tt.want)
		}
	}
}
