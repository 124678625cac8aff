package publishers

import (
	"context"
	"io"
)

// Publisher delivers import events to one downstream sink. Publishers that
// hold connections also implement io.Closer.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// sender delivers a single event to a message queue or bus.
type sender interface {
	Send(ctx context.Context, evt Event) error
}

// queuePublisher wraps a sender; SQS, SNS, Pub/Sub and NATS share it.
type queuePublisher struct {
	id     string
	typ    string
	sender sender
}

func (q *queuePublisher) ID() string   { return q.id }
func (q *queuePublisher) Type() string { return q.typ }

func (q *queuePublisher) Publish(ctx context.Context, evt Event) error {
	return q.sender.Send(ctx, evt)
}

// Close releases the sender's connection when it has one.
func (q *queuePublisher) Close() error {
	if c, ok := q.sender.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
