// Package shape turns a raw download series into a bounded series for plotting.
//
// The pipeline is: TrimLeadingZeros (at fetch time), optionally Aggregate, then
// SliceRange by percentage position and Decimate by fixed stride. Every function
// is pure and returns fresh slices; inputs are never modified.
package shape

import (
	"math"

	"github.com/git-pkgs/npmchart/internal/core"
)

// TrimLeadingZeros drops every entry before the first non-zero count.
// Entries from that point on are kept verbatim, zeros included.
// A series of only zeros trims to an empty series.
func TrimLeadingZeros(s core.Series) core.Series {
	for i, e := range s {
		if e.Count > 0 {
			out := make(core.Series, len(s)-i)
			copy(out, s[i:])
			return out
		}
	}
	return core.Series{}
}

// Bounds returns the [start, end) indices selected by r in a series of length n:
// start = floor(n*lo/100), end = ceil(n*hi/100), both clamped to [0, n] with end >= start.
func Bounds(n int, r core.Range) (start, end int) {
	start = int(math.Floor(float64(n) * r.Lo / 100))
	end = int(math.Ceil(float64(n) * r.Hi / 100))

	start = clamp(start, 0, n)
	end = clamp(end, 0, n)
	if end < start {
		end = start
	}
	return start, end
}

// SliceRange returns the contiguous window of s selected by r.
func SliceRange(s core.Series, r core.Range) core.Series {
	start, end := Bounds(len(s), r)
	out := make(core.Series, end-start)
	copy(out, s[start:end])
	return out
}

// Stride returns the decimation factor for n entries and a budget of maxPoints.
// It is 1 when no decimation is needed.
func Stride(n, maxPoints int) int {
	if maxPoints <= 0 || n <= maxPoints {
		return 1
	}
	return (n + maxPoints - 1) / maxPoints
}

// Decimate keeps every Stride(len(s), maxPoints)-th entry starting at index 0.
// It samples, it does not average: sums over the result are not totals.
// A maxPoints <= 0 disables decimation.
func Decimate(s core.Series, maxPoints int) core.Series {
	factor := Stride(len(s), maxPoints)
	out := make(core.Series, 0, (len(s)+factor-1)/factor)
	for i := 0; i < len(s); i += factor {
		out = append(out, s[i])
	}
	return out
}

// Total sums the counts of s.
func Total(s core.Series) int64 {
	var total int64
	for _, e := range s {
		total += e.Count
	}
	return total
}

// Shape slices s to r and decimates the window to at most maxPoints points.
func Shape(s core.Series, r core.Range, maxPoints int) []core.Point {
	return points(Decimate(SliceRange(s, r), maxPoints))
}

// Plot builds a plot-ready series labelled with the package name.
// Total is computed over the range window before decimation.
func Plot(label, color string, s core.Series, r core.Range, maxPoints int) core.Plot {
	window := SliceRange(s, r)
	sampled := Decimate(window, maxPoints)

	return core.Plot{
		Label:       label,
		Color:       color,
		Fill:        true,
		Tension:     0,
		Points:      points(sampled),
		Total:       Total(window),
		ApproxTotal: Total(sampled),
	}
}

func points(s core.Series) []core.Point {
	out := make([]core.Point, len(s))
	for i, e := range s {
		out[i] = core.Point{Date: e.Date, Count: e.Count}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
