// Package view holds the state of a package detail view and the transitions
// between states. Reduce is a pure function of the current state and one
// action; Model adds locking, fetching and a memoized plot on top of it.
package view

import (
	"errors"
	"time"

	"github.com/git-pkgs/npmchart/internal/core"
)

// State is everything a package view renders from.
type State struct {
	Package string
	Until   time.Time // zero means today

	// Seq identifies the current load. Settle actions carrying any other
	// value are stale and ignored.
	Seq uint64

	Loading          bool
	MetadataPending  bool
	DownloadsPending bool

	Metadata *core.Metadata
	Series   core.Series

	MetadataErr  error
	DownloadsErr error

	Range       core.Range
	Color       string
	Granularity core.Granularity
}

// Initial returns the state before any package is opened.
func Initial() State {
	return State{
		Range:       core.FullRange,
		Color:       DefaultColor,
		Granularity: core.Day,
	}
}

// Err joins the errors of both fetches, or returns nil.
func (s State) Err() error {
	return errors.Join(s.MetadataErr, s.DownloadsErr)
}

// Ready reports whether both fetches have settled with data.
func (s State) Ready() bool {
	return !s.Loading && s.Metadata != nil && s.Series != nil
}

// Action is a state transition. Implementations are the types in this file.
type Action interface {
	apply(State) State
}

// Navigate opens a package. Data of the previous package is dropped and the
// range resets; color and granularity carry over.
type Navigate struct {
	Package string
	Until   time.Time
}

// Reload refetches the current package, keeping the data shown so far until
// the new results settle.
type Reload struct{}

// MetadataSettled delivers the outcome of a metadata fetch started at Seq.
type MetadataSettled struct {
	Seq      uint64
	Metadata *core.Metadata
	Err      error
}

// DownloadsSettled delivers the outcome of a downloads fetch started at Seq.
type DownloadsSettled struct {
	Seq    uint64
	Series core.Series
	Err    error
}

// RangeMoved sets the visible window. Invalid ranges are ignored.
type RangeMoved struct {
	Range core.Range
}

// ColorPicked sets the chart color. Invalid colors are ignored.
type ColorPicked struct {
	Color string
}

// GranularityChanged switches the bucket size. Buckets are computed from the
// loaded daily series, so nothing is refetched.
type GranularityChanged struct {
	Granularity core.Granularity
}

// Reduce returns the state that follows s after a.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

func (a Navigate) apply(s State) State {
	return State{
		Package:          a.Package,
		Until:            a.Until,
		Seq:              s.Seq + 1,
		Loading:          true,
		MetadataPending:  true,
		DownloadsPending: true,
		Range:            core.FullRange,
		Color:            s.Color,
		Granularity:      s.Granularity,
	}
}

func (Reload) apply(s State) State {
	if s.Package == "" {
		return s
	}
	s.Seq++
	s.Loading = true
	s.MetadataPending = true
	s.DownloadsPending = true
	return s
}

func (a MetadataSettled) apply(s State) State {
	if a.Seq != s.Seq || !s.MetadataPending {
		return s
	}
	s.MetadataPending = false
	if a.Err != nil {
		s.MetadataErr = a.Err
	} else {
		s.Metadata = a.Metadata
		s.MetadataErr = nil
	}
	s.Loading = s.DownloadsPending
	return s
}

func (a DownloadsSettled) apply(s State) State {
	if a.Seq != s.Seq || !s.DownloadsPending {
		return s
	}
	s.DownloadsPending = false
	if a.Err != nil {
		s.DownloadsErr = a.Err
	} else {
		s.Series = a.Series
		s.DownloadsErr = nil
	}
	s.Loading = s.MetadataPending
	return s
}

func (a RangeMoved) apply(s State) State {
	if a.Range.Validate() != nil {
		return s
	}
	s.Range = a.Range
	return s
}

func (a ColorPicked) apply(s State) State {
	if !ValidColor(a.Color) {
		return s
	}
	s.Color = a.Color
	return s
}

func (a GranularityChanged) apply(s State) State {
	g, err := core.ParseGranularity(string(a.Granularity))
	if err != nil {
		return s
	}
	s.Granularity = g
	return s
}
