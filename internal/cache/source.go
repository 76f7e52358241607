package cache

import (
	"context"
	"time"

	"github.com/git-pkgs/npmchart/internal/core"
)

// Source wraps a core.Source so that metadata and download series are served
// from a Store while fresh. Cached series are shared between callers and must
// not be modified.
type Source struct {
	core.Source
	store *Store
	now   func() time.Time
}

// Wrap returns src backed by store. A disabled store makes Wrap a pass-through.
func Wrap(src core.Source, store *Store) *Source {
	return &Source{Source: src, store: store, now: time.Now}
}

// Store returns the backing store.
func (s *Source) Store() *Store {
	return s.store
}

func (s *Source) FetchMetadata(ctx context.Context, name string) (*core.Metadata, error) {
	key := "metadata|" + name
	v, err := s.store.Do(ctx, key, func(ctx context.Context) (any, error) {
		return s.Source.FetchMetadata(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	m, _ := v.(*core.Metadata)
	if m == nil {
		return nil, nil
	}
	meta := *m
	return &meta, nil
}

func (s *Source) FetchDownloads(ctx context.Context, name string, until, from time.Time) (core.Series, error) {
	v, err := s.store.Do(ctx, s.downloadsKey(name, until, from), func(ctx context.Context) (any, error) {
		return s.Source.FetchDownloads(ctx, name, until, from)
	})
	if err != nil {
		return nil, err
	}
	return v.(core.Series), nil
}

// downloadsKey resolves a zero until to today so the key changes with the date.
func (s *Source) downloadsKey(name string, until, from time.Time) string {
	if until.IsZero() {
		until = s.now().UTC()
	}
	key := "downloads|" + name + "|" + until.Format(core.DateLayout)
	if !from.IsZero() {
		key += "|" + from.Format(core.DateLayout)
	}
	return key
}
