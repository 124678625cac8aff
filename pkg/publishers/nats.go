package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samvad-hq/samvad-news-importer/internal/logger"
)

// natsConn is the subset of *nats.Conn the sender needs.
type natsConn interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

type natsSender struct {
	conn    natsConn
	subject string
	log     logger.Logger
}

func newNATSPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.NATS == nil {
		return nil, fmt.Errorf("publisher %q missing nats configuration", cfg.ID)
	}
	log = logger.Ensure(log)
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("samvad-news-importer"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WarnObj("nats disconnected", "publisher_nats", map[string]any{
					"publisher": cfg.ID,
					"error":     err.Error(),
				})
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: connect nats: %w", cfg.ID, err)
	}
	return &queuePublisher{id: cfg.ID, typ: TypeNATS, sender: &natsSender{
		conn:    nc,
		subject: cfg.NATS.Subject,
		log:     log,
	}}, nil
}

// Close drains pending messages and closes the connection.
func (n *natsSender) Close() error {
	return n.conn.Drain()
}

// Send publishes the event and flushes so delivery errors surface here.
func (n *natsSender) Send(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = payload
	for k, v := range eventAttributes(evt) {
		msg.Header.Set(k, v)
	}
	if evt.ArticleID != "" {
		msg.Header.Set(nats.MsgIdHdr, evt.ArticleID)
	}

	if err := n.conn.PublishMsg(msg); err != nil {
		n.log.ErrorObj("nats publisher send failed", "publisher_nats_error", map[string]any{
			"subject": n.subject,
			"error":   err.Error(),
		})
		return fmt.Errorf("publish to nats: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	return nil
}
