// Package crawler pulls raw items from every configured provider, skips the
// ones imported before and hands the rest to the importer one provider batch
// at a time.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/internal/importer"
	"github.com/samvad-hq/samvad-news-importer/internal/logger"
	"github.com/samvad-hq/samvad-news-importer/pkg/providers"
)

// ProviderReport summarizes one provider pass.
type ProviderReport struct {
	ProviderID string              `json:"provider_id"`
	Fetched    int                 `json:"fetched"`
	Skipped    int                 `json:"skipped"`
	Report     *domain.BatchReport `json:"report,omitempty"`
}

// Service coordinates collection across multiple providers.
type Service struct {
	registry providers.FetcherRegistry
	importer BatchImporter
	tracker  SourceTracker
	log      logger.Logger
}

// NewService wires a crawler. tracker may be nil, in which case nothing is
// deduplicated.
func NewService(reg providers.FetcherRegistry, imp BatchImporter, tracker SourceTracker, log logger.Logger) *Service {
	return &Service{
		registry: reg,
		importer: imp,
		tracker:  tracker,
		log:      logger.Ensure(log),
	}
}

// Run imports every provider in order. A failing provider does not stop the
// others; its error is joined into the returned error.
func (s *Service) Run(ctx context.Context, cfgs []providers.Provider, opts importer.Options) ([]ProviderReport, error) {
	if s == nil || s.registry == nil || s.importer == nil {
		return nil, fmt.Errorf("crawler service is not initialized")
	}
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no providers configured for crawling")
	}

	reports, errs := s.runAll(ctx, cfgs, opts)
	if len(errs) > 0 {
		return reports, errors.Join(errs...)
	}
	return reports, nil
}

func (s *Service) runAll(ctx context.Context, cfgs []providers.Provider, opts importer.Options) ([]ProviderReport, []error) {
	reports := make([]ProviderReport, 0, len(cfgs))
	errs := make([]error, 0, len(cfgs))

	for _, cfg := range cfgs {
		if ctx.Err() != nil {
			break
		}
		rep, err := s.runProvider(ctx, cfg, opts)
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("provider crawl failed", "provider_error", map[string]any{
				"provider_id": cfg.ID,
				"error":       err.Error(),
			})
			continue
		}
		reports = append(reports, rep)
	}

	return reports, errs
}

func (s *Service) runProvider(ctx context.Context, cfg providers.Provider, opts importer.Options) (ProviderReport, error) {
	rep := ProviderReport{ProviderID: cfg.ID}

	fetcher, err := s.registry.FetcherFor(cfg)
	if err != nil {
		return rep, fmt.Errorf("resolve fetcher for provider %s: %w", cfg.ID, err)
	}

	items, err := fetcher.Fetch(ctx, cfg)
	if err != nil {
		return rep, fmt.Errorf("fetch provider %s: %w", cfg.ID, err)
	}
	rep.Fetched = len(items)

	fresh := s.filterNewItems(ctx, cfg, items)
	rep.Skipped = len(items) - len(fresh)
	if len(fresh) == 0 {
		s.log.InfoObj("provider has no new items", "provider_result", map[string]any{
			"provider_id": cfg.ID,
			"fetched":     rep.Fetched,
		})
		return rep, nil
	}

	if opts.Source == "" {
		opts.Source = cfg.ID
	}
	report, err := s.importer.ImportBatch(ctx, fresh, opts)
	if err != nil {
		return rep, fmt.Errorf("import provider %s: %w", cfg.ID, err)
	}
	rep.Report = report
	s.markImported(ctx, cfg, fresh, report)

	s.log.InfoObj("provider crawl completed", "provider_result", map[string]any{
		"provider_id": cfg.ID,
		"fetched":     rep.Fetched,
		"skipped":     rep.Skipped,
		"succeeded":   report.Succeeded,
		"failed":      report.Failed,
	})
	return rep, nil
}

// filterNewItems drops items whose source url was already imported or
// repeats within the batch. Lookup errors keep the item.
func (s *Service) filterNewItems(ctx context.Context, cfg providers.Provider, items []domain.RawNewsItem) []domain.RawNewsItem {
	out := make([]domain.RawNewsItem, 0, len(items))
	inBatch := make(map[string]struct{}, len(items))

	for _, item := range items {
		src := sourceURL(item)
		if src == "" {
			out = append(out, item)
			continue
		}
		if _, dup := inBatch[src]; dup {
			continue
		}
		inBatch[src] = struct{}{}

		if s.tracker != nil {
			seen, err := s.tracker.SeenSource(ctx, src)
			if err != nil {
				s.log.WarnObj("source lookup failed; importing anyway", "dedupe_error", map[string]any{
					"provider_id": cfg.ID,
					"source_url":  src,
					"error":       err.Error(),
				})
			} else if seen {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

func (s *Service) markImported(ctx context.Context, cfg providers.Provider, items []domain.RawNewsItem, report *domain.BatchReport) {
	if s.tracker == nil || report == nil {
		return
	}
	for _, res := range report.Results {
		if !res.Success || res.Index < 0 || res.Index >= len(items) {
			continue
		}
		src := sourceURL(items[res.Index])
		if src == "" {
			continue
		}
		if err := s.tracker.MarkSource(ctx, src); err != nil {
			s.log.WarnObj("mark source failed", "dedupe_error", map[string]any{
				"provider_id": cfg.ID,
				"source_url":  src,
				"error":       err.Error(),
			})
		}
	}
}

func sourceURL(item domain.RawNewsItem) string {
	for _, k := range []string{domain.KeySourceURL, "url", "link"} {
		if s, ok := item[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
