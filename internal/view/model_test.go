package view

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/git-pkgs/npmchart/internal/core"
)

type fakeSource struct {
	series map[string]core.Series
	gate   map[string]chan struct{} // downloads for these names block until closed

	downloadsCalls atomic.Int32
	mu             sync.Mutex
	cancelled      []string
}

func (f *fakeSource) Ecosystem() string { return "npm" }

func (f *fakeSource) URLs() core.URLBuilder { return nil }

func (f *fakeSource) FetchMetadata(ctx context.Context, name string) (*core.Metadata, error) {
	if _, ok := f.series[name]; !ok {
		return nil, &core.NotFoundError{Ecosystem: "npm", Name: name}
	}
	return &core.Metadata{Name: name, Version: "1.0.0"}, nil
}

func (f *fakeSource) FetchDownloads(ctx context.Context, name string, until, from time.Time) (core.Series, error) {
	f.downloadsCalls.Add(1)
	if g, ok := f.gate[name]; ok {
		select {
		case <-g:
		case <-ctx.Done():
			f.mu.Lock()
			f.cancelled = append(f.cancelled, name)
			f.mu.Unlock()
			return nil, &core.FetchError{Ecosystem: "npm", Name: name, Err: ctx.Err()}
		}
	}
	s, ok := f.series[name]
	if !ok {
		return nil, &core.FetchError{Ecosystem: "npm", Name: name, Err: errors.New("no data")}
	}
	return s, nil
}

func daily(n int) core.Series {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(core.Series, n)
	for i := range s {
		s[i] = core.DailyCount{Date: start.AddDate(0, 0, i).Format(core.DateLayout), Count: int64(i + 1)}
	}
	return s
}

func TestModelOpen(t *testing.T) {
	src := &fakeSource{series: map[string]core.Series{"lodash": daily(100)}}
	m := NewModel(src)

	s := m.Open(context.Background(), "lodash")
	if !s.Ready() {
		t.Fatalf("expected ready state, got %+v", s)
	}
	if s.Metadata.Name != "lodash" || len(s.Series) != 100 {
		t.Errorf("unexpected data: %+v", s)
	}

	plot, err := m.Plot()
	if err != nil {
		t.Fatalf("Plot failed: %v", err)
	}
	if plot.Label != "lodash" || plot.Color != DefaultColor {
		t.Errorf("unexpected plot presentation: %+v", plot)
	}
	if len(plot.Points) != 20 {
		t.Errorf("len(Points) = %d, want 20", len(plot.Points))
	}
}

func TestModelOpenNotFound(t *testing.T) {
	src := &fakeSource{series: map[string]core.Series{}}
	m := NewModel(src)

	s := m.Open(context.Background(), "missing")
	if s.Loading {
		t.Error("still loading after both settled")
	}
	if !errors.Is(s.MetadataErr, core.ErrNotFound) {
		t.Errorf("MetadataErr = %v", s.MetadataErr)
	}
	if !errors.Is(s.DownloadsErr, core.ErrFetchDownloads) {
		t.Errorf("DownloadsErr = %v", s.DownloadsErr)
	}
	if s.Ready() {
		t.Error("failed load reported ready")
	}
}

func TestModelLoadWithoutPackage(t *testing.T) {
	src := &fakeSource{}
	m := NewModel(src)
	s := m.Load(context.Background())
	if s.Loading || s.Seq != 0 {
		t.Errorf("Load without package changed state: %+v", s)
	}
	if src.downloadsCalls.Load() != 0 {
		t.Error("Load without package fetched")
	}
}

func TestModelNewerNavigateDiscardsStale(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{
		series: map[string]core.Series{"react": daily(5), "vue": daily(3)},
		gate:   map[string]chan struct{}{"react": gate},
	}
	m := NewModel(src)

	done := make(chan State, 1)
	go func() {
		done <- m.Open(context.Background(), "react")
	}()

	// wait for the react load to be in flight
	deadline := time.Now().Add(time.Second)
	for src.downloadsCalls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("react load never started")
		}
		time.Sleep(time.Millisecond)
	}

	s := m.Open(context.Background(), "vue")
	if s.Package != "vue" || len(s.Series) != 3 {
		t.Fatalf("vue load = %+v", s)
	}

	<-done
	final := m.State()
	if final.Package != "vue" || len(final.Series) != 3 || final.DownloadsErr != nil {
		t.Errorf("stale react result leaked into state: %+v", final)
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	if len(src.cancelled) != 1 || src.cancelled[0] != "react" {
		t.Errorf("expected the react load to be cancelled, got %v", src.cancelled)
	}
}

func TestModelDispatchAfterLoad(t *testing.T) {
	src := &fakeSource{series: map[string]core.Series{"lodash": daily(100)}}
	m := NewModel(src)
	m.Open(context.Background(), "lodash")

	m.Dispatch(RangeMoved{Range: core.Range{Lo: 25, Hi: 75}})
	m.Dispatch(ColorPicked{Color: "#9370DB"})

	plot, err := m.Plot()
	if err != nil {
		t.Fatal(err)
	}
	if len(plot.Points) != 17 {
		t.Errorf("len(Points) = %d, want 17", len(plot.Points))
	}
	if plot.Color != "#9370DB" {
		t.Errorf("Color = %q", plot.Color)
	}
	if plot.Start() != "2020-01-26" {
		t.Errorf("Start() = %q, want 2020-01-26", plot.Start())
	}
}

func TestModelPlotGranularity(t *testing.T) {
	src := &fakeSource{series: map[string]core.Series{"lodash": daily(60)}}
	m := NewModel(src)
	m.Open(context.Background(), "lodash")
	m.Dispatch(GranularityChanged{Granularity: core.Month})

	plot, err := m.Plot()
	if err != nil {
		t.Fatal(err)
	}
	// 2020-01-01 + 59 days ends 2020-02-29
	if len(plot.Points) != 2 {
		t.Fatalf("len(Points) = %d, want 2", len(plot.Points))
	}
	if plot.Total != 60*61/2 {
		t.Errorf("Total = %d, want %d", plot.Total, 60*61/2)
	}
	if src.downloadsCalls.Load() != 1 {
		t.Error("granularity change refetched")
	}
}

func TestModelPlotMemoized(t *testing.T) {
	src := &fakeSource{series: map[string]core.Series{"lodash": daily(100)}}
	m := NewModel(src, WithMaxPoints(10))
	m.Open(context.Background(), "lodash")

	a, _ := m.Plot()
	b, _ := m.Plot()
	if &a.Points[0] != &b.Points[0] {
		t.Error("expected the memoized plot to be returned")
	}
	if len(a.Points) != 10 {
		t.Errorf("len(Points) = %d, want 10", len(a.Points))
	}

	m.Dispatch(ColorPicked{Color: "#00CED1"})
	c, _ := m.Plot()
	if &c.Points[0] == &a.Points[0] {
		t.Error("plot not recomputed after color change")
	}
}

func TestModelReloadRefetches(t *testing.T) {
	src := &fakeSource{series: map[string]core.Series{"lodash": daily(10)}}
	m := NewModel(src)
	first := m.Open(context.Background(), "lodash")
	second := m.Load(context.Background())

	if second.Seq != first.Seq+1 {
		t.Errorf("Seq = %d, want %d", second.Seq, first.Seq+1)
	}
	if n := src.downloadsCalls.Load(); n != 2 {
		t.Errorf("expected 2 fetches, got %d", n)
	}
	if !second.Ready() {
		t.Error("reload did not settle")
	}
}

func TestModelWithState(t *testing.T) {
	start := Initial()
	start.Color = "#FFB6C1"
	m := NewModel(&fakeSource{}, WithState(start))
	if m.State().Color != "#FFB6C1" {
		t.Error("WithState not applied")
	}
}
