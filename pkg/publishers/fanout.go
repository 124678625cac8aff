package publishers

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-news-importer/internal/logger"
	"github.com/samvad-hq/samvad-news-importer/internal/metrics"
)

// Fanout hands each import event to every configured publisher.
type Fanout struct {
	publishers []Publisher
	log        logger.Logger
}

// NewFanout skips nil publishers and later duplicates of an id.
func NewFanout(pubs []Publisher, log logger.Logger) *Fanout {
	seen := make(map[string]struct{}, len(pubs))
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p == nil {
			continue
		}
		if _, dup := seen[p.ID()]; dup {
			continue
		}
		seen[p.ID()] = struct{}{}
		cp = append(cp, p)
	}
	return &Fanout{publishers: cp, log: logger.Ensure(log)}
}

// Publish returns how many publishers accepted the event. A cancelled ctx
// stops the remaining deliveries; every failure is joined into the error.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	var errs []error
	delivered := 0
	for i, p := range f.publishers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%d publishers skipped: %w", len(f.publishers)-i, err))
			break
		}
		if err := p.Publish(ctx, evt); err != nil {
			metrics.EventsTotal.WithLabelValues(p.Type(), "failed").Inc()
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
			continue
		}
		metrics.EventsTotal.WithLabelValues(p.Type(), "delivered").Inc()
		delivered++
	}

	if len(errs) > 0 {
		f.log.WarnObj("import event not delivered everywhere", "fanout", map[string]any{
			"slug":       evt.Slug,
			"article_id": evt.ArticleID,
			"delivered":  delivered,
			"publishers": len(f.publishers),
		})
	}
	return delivered, errors.Join(errs...)
}

// Close releases every publisher that holds a connection.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeAll(f.publishers)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}
