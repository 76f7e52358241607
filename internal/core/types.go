// Package core provides shared types and the source registry.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar date format used by download statistics.
const DateLayout = "2006-01-02"

// Epoch is the lower bound of every download-series request.
var Epoch = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultMaxPoints is the plotting budget of a PlotSeries.
const DefaultMaxPoints = 20

// Metadata represents registry metadata about a package.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Homepage    string `json:"homepage"`
}

// DailyCount is one entry of a download series.
type DailyCount struct {
	Date  string
	Count int64
}

// Series is a chronologically ordered download series.
// Dates are unique and formatted with DateLayout.
type Series []DailyCount

// Dates returns the dates of the series in order.
func (s Series) Dates() []string {
	dates := make([]string, len(s))
	for i, e := range s {
		dates[i] = e.Date
	}
	return dates
}

// MarshalJSON encodes the series as a date to count object, keeping series order.
func (s Series) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Date)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", e.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Range selects a contiguous window of a series by position, in percent.
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// FullRange selects the whole series.
var FullRange = Range{Lo: 0, Hi: 100}

// Validate reports whether 0 <= Lo <= Hi <= 100. NaN bounds are invalid.
func (r Range) Validate() error {
	if math.IsNaN(r.Lo) || math.IsNaN(r.Hi) || r.Lo < 0 || r.Hi > 100 || r.Lo > r.Hi {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, r.Lo, r.Hi)
	}
	return nil
}

// Point is a single plotted value.
type Point struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Plot is a decimated, range-filtered series ready for charting.
type Plot struct {
	Label   string  `json:"label"`
	Color   string  `json:"color"`
	Fill    bool    `json:"fill"`
	Tension float64 `json:"tension"`
	Points  []Point `json:"points"`

	// Total is the sum over the range-filtered series before decimation.
	Total int64 `json:"total"`
	// ApproxTotal is the sum over the plotted points only.
	ApproxTotal int64 `json:"approxTotal"`
}

// Labels returns the date labels of the plot.
func (p Plot) Labels() []string {
	labels := make([]string, len(p.Points))
	for i, pt := range p.Points {
		labels[i] = pt.Date
	}
	return labels
}

// Start returns the first plotted date, or "" for an empty plot.
func (p Plot) Start() string {
	if len(p.Points) == 0 {
		return ""
	}
	return p.Points[0].Date
}

// End returns the last plotted date, or "" for an empty plot.
func (p Plot) End() string {
	if len(p.Points) == 0 {
		return ""
	}
	return p.Points[len(p.Points)-1].Date
}

// Granularity is the bucket size of a download series.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ParseGranularity parses a granularity name. The empty string means Day.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "", Day:
		return Day, nil
	case Week:
		return Week, nil
	case Month:
		return Month, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
}
