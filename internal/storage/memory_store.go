package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

// memoryStore keeps everything in maps; used for dry runs and tests.
type memoryStore struct {
	mu         sync.Mutex
	articles   map[string]domain.CanonicalArticle
	slugs      map[string]string
	categories map[string]string
	authorID   string
	seen       map[string]time.Time
	sourceTTL  time.Duration
	sweep      *sweeper
	prune      func(now time.Time) (int, error)
	now        func() time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	m := &memoryStore{
		articles:   make(map[string]domain.CanonicalArticle),
		slugs:      make(map[string]string),
		categories: make(map[string]string),
		authorID:   uuid.NewString(),
		seen:       make(map[string]time.Time),
		sourceTTL:  opts.SourceTTL,
		sweep:      newSweeper(opts.CleanupInterval, opts.clock()),
		now:        opts.clock,
	}
	m.prune = m.pruneLocked
	for _, c := range opts.Categories {
		m.categories[categoryKey(c)] = uuid.NewString()
	}
	return m
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.slugs[slug]
	return ok, nil
}

func (m *memoryStore) FindCategoryID(_ context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.categories[categoryKey(name)]
	return id, ok, nil
}

func (m *memoryStore) FindDefaultAuthor(context.Context) (string, error) {
	return m.authorID, nil
}

func (m *memoryStore) InsertArticle(_ context.Context, a domain.CanonicalArticle) (domain.InsertedArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.slugs[a.Slug]; taken {
		return domain.InsertedArticle{}, fmt.Errorf("insert article %q: %w", a.Slug, domain.ErrDuplicateSlug)
	}
	id := uuid.NewString()
	m.slugs[a.Slug] = id
	m.articles[id] = a
	return domain.InsertedArticle{ID: id, Slug: a.Slug}, nil
}

func (m *memoryStore) SeenSource(_ context.Context, sourceURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if err := m.sweep.maybe(now, m.prune); err != nil {
		return false, fmt.Errorf("prune source marks: %w", err)
	}
	exp, ok := m.seen[sourceURL]
	return ok && exp.After(now), nil
}

func (m *memoryStore) MarkSource(_ context.Context, sourceURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if err := m.sweep.maybe(now, m.prune); err != nil {
		return fmt.Errorf("prune source marks: %w", err)
	}
	m.seen[sourceURL] = now.Add(m.sourceTTL)
	return nil
}

func (m *memoryStore) pruneLocked(now time.Time) (int, error) {
	removed := 0
	for url, exp := range m.seen {
		if !exp.After(now) {
			delete(m.seen, url)
			removed++
		}
	}
	return removed, nil
}

// Article returns a stored article by id.
func (m *memoryStore) Article(id string) (domain.CanonicalArticle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	return a, ok
}
