package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestSeriesMarshalJSONKeepsOrder(t *testing.T) {
	s := Series{
		{Date: "2020-01-03", Count: 5},
		{Date: "2020-01-01", Count: 0},
		{Date: "2020-01-02", Count: 12},
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"2020-01-03":5,"2020-01-01":0,"2020-01-02":12}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}

func TestSeriesMarshalJSONEmpty(t *testing.T) {
	data, err := json.Marshal(Series(nil))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Marshal = %s, want {}", data)
	}
}

func TestRangeValidate(t *testing.T) {
	tests := []struct {
		r       Range
		wantErr bool
	}{
		{FullRange, false},
		{Range{25, 75}, false},
		{Range{50, 50}, false},
		{Range{0, 0}, false},
		{Range{-1, 50}, true},
		{Range{0, 101}, true},
		{Range{60, 40}, true},
		{Range{math.NaN(), math.NaN()}, true},
		{Range{math.NaN(), 50}, true},
		{Range{0, math.NaN()}, true},
		{Range{math.Inf(-1), 50}, true},
	}

	for _, tt := range tests {
		err := tt.r.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%v.Validate() = %v, wantErr %v", tt.r, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidRange) {
			t.Errorf("%v.Validate() = %v, want ErrInvalidRange", tt.r, err)
		}
	}
}

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		in      string
		want    Granularity
		wantErr bool
	}{
		{"", Day, false},
		{"day", Day, false},
		{"week", Week, false},
		{"month", Month, false},
		{"year", "", true},
	}

	for _, tt := range tests {
		got, err := ParseGranularity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGranularity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseGranularity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlotStartEnd(t *testing.T) {
	var empty Plot
	if empty.Start() != "" || empty.End() != "" {
		t.Errorf("empty plot Start/End = %q/%q, want empty", empty.Start(), empty.End())
	}

	p := Plot{Points: []Point{{"2020-01-01", 1}, {"2020-01-06", 2}, {"2020-01-11", 3}}}
	if p.Start() != "2020-01-01" {
		t.Errorf("Start() = %q, want 2020-01-01", p.Start())
	}
	if p.End() != "2020-01-11" {
		t.Errorf("End() = %q, want 2020-01-11", p.End())
	}
	if got := len(p.Labels()); got != 3 {
		t.Errorf("len(Labels()) = %d, want 3", got)
	}
}

func TestNotFoundErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&NotFoundError{Ecosystem: "npm", Name: "left-pad", Err: cause})

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is(err, ErrNotFound)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is(err, cause)")
	}

	fe := error(&FetchError{Ecosystem: "npm", Name: "left-pad", Err: cause})
	if !errors.Is(fe, ErrFetchDownloads) {
		t.Error("expected errors.Is(err, ErrFetchDownloads)")
	}
}
