package publishers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

type stubPublisher struct {
	id    string
	typ   string
	err   error
	calls int
	last  Event
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(_ context.Context, evt Event) error {
	s.calls++
	s.last = evt
	return s.err
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	ok := &stubPublisher{id: "ok", typ: "http"}
	fanout := NewFanout([]Publisher{
		ok,
		nil,
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
	}, nil)

	if fanout.Size() != 2 {
		t.Fatalf("expected nil publishers to be skipped, size=%d", fanout.Size())
	}
	count, err := fanout.Publish(context.Background(), Event{Slug: "a"})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if ok.last.Slug != "a" {
		t.Fatalf("event not forwarded: %+v", ok.last)
	}
}

func TestFanoutDedupesIDsAndStopsOnCancel(t *testing.T) {
	first := &stubPublisher{id: "bus", typ: TypeNATS}
	second := &stubPublisher{id: "hook", typ: TypeHTTP}
	fanout := NewFanout([]Publisher{first, &stubPublisher{id: "bus", typ: TypeNATS}, second}, nil)
	if fanout.Size() != 2 {
		t.Fatalf("expected duplicate id to be dropped, size=%d", fanout.Size())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := fanout.Publish(ctx, Event{Slug: "lei"})
	if n != 0 || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled fanout, got %d %v", n, err)
	}
	if first.calls != 0 || second.calls != 0 {
		t.Fatalf("no publisher should run after cancel")
	}
}

func TestNilFanoutIsNoop(t *testing.T) {
	var f *Fanout
	if n, err := f.Publish(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("expected noop, got %d %v", n, err)
	}
}

func TestNewEventCopiesArticle(t *testing.T) {
	published := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	evt := NewEvent("batch", domain.InsertedArticle{ID: "id-1", Slug: "lei"}, domain.CanonicalArticle{
		Title:       "Lei aprovada",
		Category:    "Política",
		Tags:        []string{"Senado"},
		Featured:    true,
		PublishedAt: published,
	})
	if evt.Type != EventArticleImported || evt.ArticleID != "id-1" || evt.Slug != "lei" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.Category != "Política" || !evt.Featured || !evt.PublishedAt.Equal(published) {
		t.Fatalf("article fields not copied: %+v", evt)
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 || pubs[0].Type() != TypeHTTP {
		t.Fatalf("expected 1 http publisher, got %v", pubs)
	}
}

func TestBuildAllUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{{ID: "x", Type: "kafka"}}, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}
