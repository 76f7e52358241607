package view

import (
	"context"
	"sync"

	"github.com/git-pkgs/npmchart/internal/core"
	"github.com/git-pkgs/npmchart/internal/shape"
)

// Model is a concurrency-safe package view backed by a source.
type Model struct {
	src       core.Source
	maxPoints int

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc

	memoKey  plotKey
	memoPlot core.Plot
	memoErr  error
	memoOK   bool
}

type plotKey struct {
	seq         uint64
	rng         core.Range
	color       string
	granularity core.Granularity
	maxPoints   int
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithMaxPoints sets the plotting budget. Values <= 0 disable decimation.
func WithMaxPoints(n int) ModelOption {
	return func(m *Model) {
		m.maxPoints = n
	}
}

// WithState starts the model from s instead of Initial().
func WithState(s State) ModelOption {
	return func(m *Model) {
		m.state = s
	}
}

// NewModel creates a model reading from src.
func NewModel(src core.Source, opts ...ModelOption) *Model {
	m := &Model{
		src:       src,
		maxPoints: core.DefaultMaxPoints,
		state:     Initial(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a snapshot of the current state.
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Dispatch applies a and returns the resulting state. An action that starts a
// new load cancels the load in flight.
func (m *Model) Dispatch(a Action) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.state.Seq
	m.state = Reduce(m.state, a)
	if m.state.Seq != prev && m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	return m.state
}

// Open navigates to name and loads it.
func (m *Model) Open(ctx context.Context, name string) State {
	m.Dispatch(Navigate{Package: name})
	return m.Load(ctx)
}

// Load fetches metadata and downloads for the current package concurrently
// and returns the state once both have settled. Results that arrive after a
// newer load was started are discarded.
func (m *Model) Load(ctx context.Context) State {
	m.mu.Lock()
	if m.state.Package == "" {
		s := m.state
		m.mu.Unlock()
		return s
	}
	fresh := m.state.MetadataPending && m.state.DownloadsPending
	if m.cancel != nil || !fresh {
		if m.cancel != nil {
			m.cancel()
		}
		m.state = Reduce(m.state, Reload{})
	}
	s := m.state
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.state.Seq == s.Seq {
			m.cancel = nil
		}
		m.mu.Unlock()
		cancel()
	}()

	res := core.FetchBoth(ctx, m.src, s.Package, s.Until)

	m.Dispatch(MetadataSettled{Seq: s.Seq, Metadata: res.Metadata, Err: res.MetadataErr})
	return m.Dispatch(DownloadsSettled{Seq: s.Seq, Series: res.Series, Err: res.SeriesErr})
}

// Plot derives the plot for the current state. The result is memoized until
// the loaded data, range, color or granularity change.
func (m *Model) Plot() (core.Plot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := plotKey{
		seq:         m.state.Seq,
		rng:         m.state.Range,
		color:       m.state.Color,
		granularity: m.state.Granularity,
		maxPoints:   m.maxPoints,
	}
	if m.memoOK && key == m.memoKey && !m.state.Loading {
		return m.memoPlot, m.memoErr
	}

	plot, err := BuildPlot(m.state, m.maxPoints)
	if !m.state.Loading {
		m.memoKey, m.memoPlot, m.memoErr, m.memoOK = key, plot, err, true
	}
	return plot, err
}

// BuildPlot shapes the series of s into a plot labelled with the package name.
func BuildPlot(s State, maxPoints int) (core.Plot, error) {
	series, err := shape.Aggregate(s.Series, s.Granularity)
	if err != nil {
		return core.Plot{}, err
	}
	return shape.Plot(s.Package, s.Color, series, s.Range, maxPoints), nil
}
