package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

func openTestBolt(t *testing.T, opts Options) *boltStore {
	t.Helper()
	storeRaw, err := openBolt(t.TempDir()+"/articles.db", normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreInsertClaimsSlug(t *testing.T) {
	ctx := context.Background()
	store := openTestBolt(t, Options{Categories: []string{"Política"}})

	exists, err := store.ExistsBySlug(ctx, "senado-aprova-lei")
	if err != nil || exists {
		t.Fatalf("expected free slug, exists=%v err=%v", exists, err)
	}

	inserted, err := store.InsertArticle(ctx, domain.CanonicalArticle{Slug: "senado-aprova-lei", Title: "Senado aprova lei"})
	if err != nil {
		t.Fatalf("InsertArticle: %v", err)
	}
	if inserted.ID == "" || inserted.Slug != "senado-aprova-lei" {
		t.Fatalf("unexpected insert result %+v", inserted)
	}

	exists, err = store.ExistsBySlug(ctx, "senado-aprova-lei")
	if err != nil || !exists {
		t.Fatalf("expected slug to exist, exists=%v err=%v", exists, err)
	}

	_, err = store.InsertArticle(ctx, domain.CanonicalArticle{Slug: "senado-aprova-lei"})
	if !errors.Is(err, domain.ErrDuplicateSlug) {
		t.Fatalf("expected duplicate slug error, got %v", err)
	}
}

func TestBoltStoreSeedsLookups(t *testing.T) {
	ctx := context.Background()
	store := openTestBolt(t, Options{Categories: []string{"Política", "Esportes"}, DefaultAuthor: "Redação"})

	id, ok, err := store.FindCategoryID(ctx, "política")
	if err != nil || !ok || id == "" {
		t.Fatalf("expected seeded category, id=%q ok=%v err=%v", id, ok, err)
	}
	if _, ok, _ := store.FindCategoryID(ctx, "Inexistente"); ok {
		t.Fatalf("did not expect unknown category")
	}
	author, err := store.FindDefaultAuthor(ctx)
	if err != nil || author == "" {
		t.Fatalf("expected default author, got %q err=%v", author, err)
	}
}

// fakeClock is a manually advanced time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSourceMarksExpire(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)}
	opts := Options{SourceTTL: time.Hour, CleanupInterval: 30 * time.Minute, clock: clock.now}
	bs := openTestBolt(t, opts)
	stores := map[string]Store{
		"bbolt":  bs,
		"memory": newMemoryStore(normalizeOptions(opts)),
	}

	const url = "https://jornal.example/politica/senado-aprova-lei"
	for name, store := range stores {
		ctx := context.Background()
		if seen, err := store.SeenSource(ctx, url); err != nil || seen {
			t.Fatalf("%s: expected unseen source, seen=%v err=%v", name, seen, err)
		}
		if err := store.MarkSource(ctx, url); err != nil {
			t.Fatalf("%s: MarkSource: %v", name, err)
		}
		if seen, _ := store.SeenSource(ctx, url); !seen {
			t.Fatalf("%s: expected source to be marked", name)
		}
	}

	clock.advance(59 * time.Minute)
	for name, store := range stores {
		if seen, _ := store.SeenSource(context.Background(), url); !seen {
			t.Fatalf("%s: mark should live until the ttl passes", name)
		}
	}

	clock.advance(2 * time.Minute)
	for name, store := range stores {
		if seen, _ := store.SeenSource(context.Background(), url); seen {
			t.Fatalf("%s: mark should have expired", name)
		}
	}
	if n, err := bs.pruneSources(clock.now()); err != nil || n != 1 {
		t.Fatalf("expected the expired mark to be pruned, removed=%d err=%v", n, err)
	}
}

func TestExpiryEncoding(t *testing.T) {
	at := time.Unix(1792224000, 0)
	got, ok := decodeExpiry(encodeExpiry(at))
	if !ok || !got.Equal(at) {
		t.Fatalf("round trip = %v %v", got, ok)
	}
	if _, ok := decodeExpiry([]byte("junk")); ok {
		t.Fatalf("short values must be rejected")
	}
	if liveMark(encodeExpiry(at), at) {
		t.Fatalf("a mark expiring now is not live")
	}
}

func TestSweeperRetriesAfterFailure(t *testing.T) {
	start := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	s := newSweeper(time.Minute, start)
	calls := 0
	fail := func(time.Time) (int, error) { calls++; return 0, errors.New("disk full") }

	if err := s.maybe(start.Add(30*time.Second), fail); err != nil || calls != 0 {
		t.Fatalf("sweep ran before interval: calls=%d err=%v", calls, err)
	}
	if err := s.maybe(start.Add(2*time.Minute), fail); err == nil {
		t.Fatalf("expected prune error")
	}
	okPrune := func(time.Time) (int, error) { calls++; return 1, nil }
	if err := s.maybe(start.Add(2*time.Minute), okPrune); err != nil || calls != 2 {
		t.Fatalf("failed sweep should be retried, calls=%d err=%v", calls, err)
	}
	if err := s.maybe(start.Add(150*time.Second), okPrune); err != nil || calls != 2 {
		t.Fatalf("sweep should wait a full interval after success, calls=%d", calls)
	}
}

func TestMemoryStoreSurfacesPruneErrors(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)}
	m := newMemoryStore(normalizeOptions(Options{CleanupInterval: time.Minute, clock: clock.now}))
	m.prune = func(time.Time) (int, error) { return 0, errors.New("index corrupted") }
	ctx := context.Background()

	if err := m.MarkSource(ctx, "https://jornal.example/a"); err != nil {
		t.Fatalf("no sweep is due yet: %v", err)
	}
	clock.advance(2 * time.Minute)
	if _, err := m.SeenSource(ctx, "https://jornal.example/a"); err == nil || !strings.Contains(err.Error(), "index corrupted") {
		t.Fatalf("expected prune error from SeenSource, got %v", err)
	}
	if err := m.MarkSource(ctx, "https://jornal.example/b"); err == nil {
		t.Fatalf("expected prune error from MarkSource")
	}

	m.prune = m.pruneLocked
	if seen, err := m.SeenSource(ctx, "https://jornal.example/a"); err != nil || !seen {
		t.Fatalf("expected recovery after a good sweep, seen=%v err=%v", seen, err)
	}
}

func TestNewStoreSupportsMemory(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore("memory", "", Options{Categories: []string{"Geral"}})
	if err != nil {
		t.Fatalf("NewStore memory: %v", err)
	}
	inserted, err := store.InsertArticle(ctx, domain.CanonicalArticle{Slug: "a", Title: "Título A"})
	if err != nil {
		t.Fatalf("InsertArticle: %v", err)
	}
	got, ok := store.(*memoryStore).Article(inserted.ID)
	if !ok || got.Title != "Título A" {
		t.Fatalf("unexpected stored article %+v", got)
	}
	if _, err := store.InsertArticle(ctx, domain.CanonicalArticle{Slug: "a"}); !errors.Is(err, domain.ErrDuplicateSlug) {
		t.Fatalf("expected duplicate slug, got %v", err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("mongo", "", Options{}); err == nil {
		t.Fatalf("expected error for unknown store type")
	}
	if _, err := NewStore("postgres", "", Options{}); err == nil {
		t.Fatalf("expected error for missing dsn")
	}
}

func TestMapInsertError(t *testing.T) {
	err := mapInsertError("x", &pq.Error{Code: "23505"})
	if !errors.Is(err, domain.ErrDuplicateSlug) {
		t.Fatalf("expected duplicate slug, got %v", err)
	}
	err = mapInsertError("x", errors.New("connection reset"))
	if !errors.Is(err, domain.ErrPersistence) || errors.Is(err, domain.ErrDuplicateSlug) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
