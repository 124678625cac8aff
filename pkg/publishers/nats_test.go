package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/samvad-hq/samvad-news-importer/internal/logger"
)

type fakeNATSConn struct {
	msgs       []*nats.Msg
	publishErr error
	flushErr   error
	flushes    int
	drained    bool
}

func (f *fakeNATSConn) Drain() error {
	f.drained = true
	return nil
}

func (f *fakeNATSConn) PublishMsg(m *nats.Msg) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeNATSConn) FlushWithContext(context.Context) error {
	f.flushes++
	return f.flushErr
}

func TestNATSSenderPublishes(t *testing.T) {
	conn := &fakeNATSConn{}
	s := &natsSender{conn: conn, subject: "news.imported", log: logger.NopLogger{}}

	if err := s.Send(context.Background(), Event{Type: EventArticleImported, ArticleID: "id-9", Slug: "senado-aprova-lei"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(conn.msgs) != 1 || conn.flushes != 1 {
		t.Fatalf("expected one published and flushed message, got %d/%d", len(conn.msgs), conn.flushes)
	}
	msg := conn.msgs[0]
	if msg.Subject != "news.imported" || msg.Header.Get("slug") != "senado-aprova-lei" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Header.Get(nats.MsgIdHdr) != "id-9" {
		t.Fatalf("expected article id as message id, got %q", msg.Header.Get(nats.MsgIdHdr))
	}
	var evt Event
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if evt.Type != EventArticleImported {
		t.Fatalf("unexpected event type %q", evt.Type)
	}
}

func TestNATSPublisherCloseDrains(t *testing.T) {
	conn := &fakeNATSConn{}
	pub := &queuePublisher{id: "bus", typ: TypeNATS, sender: &natsSender{conn: conn, subject: "x", log: logger.NopLogger{}}}
	fanout := NewFanout([]Publisher{pub}, nil)
	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !conn.drained {
		t.Fatalf("expected connection to be drained")
	}
}

func TestNATSSenderErrors(t *testing.T) {
	s := &natsSender{conn: &fakeNATSConn{publishErr: errors.New("closed")}, subject: "x", log: logger.NopLogger{}}
	if err := s.Send(context.Background(), Event{}); err == nil {
		t.Fatalf("expected publish error")
	}

	s = &natsSender{conn: &fakeNATSConn{flushErr: errors.New("timeout")}, subject: "x", log: logger.NopLogger{}}
	if err := s.Send(context.Background(), Event{}); err == nil {
		t.Fatalf("expected flush error")
	}
}
