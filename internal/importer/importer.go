// Package importer drives batches of raw news items through normalization,
// validation, enrichment and persistence, one item at a time.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/internal/logger"
	"github.com/samvad-hq/samvad-news-importer/internal/metrics"
	"github.com/samvad-hq/samvad-news-importer/internal/normalizer"
	"github.com/samvad-hq/samvad-news-importer/internal/slug"
	"github.com/samvad-hq/samvad-news-importer/internal/tags"
	"github.com/samvad-hq/samvad-news-importer/internal/taxonomy"
	"github.com/samvad-hq/samvad-news-importer/internal/validator"
	"github.com/samvad-hq/samvad-news-importer/pkg/publishers"
)

// Options tune a single batch run.
type Options struct {
	RewriteWithAI bool
	// Source labels emitted events, e.g. a provider id or file name.
	Source string
}

// Deps are the collaborators of an Importer. Store is required.
type Deps struct {
	Store           ArticleStore
	Images          ImageAcquirer
	Rewriter        Rewriter
	Notifier        Notifier
	Progress        ProgressSink
	Classifier      *taxonomy.Classifier
	SlugMaxAttempts int
	Log             logger.Logger
}

// Importer is the batch orchestrator.
type Importer struct {
	store      ArticleStore
	images     ImageAcquirer
	rewriter   Rewriter
	notifier   Notifier
	sink       ProgressSink
	classifier *taxonomy.Classifier
	normalizer *normalizer.Normalizer
	validator  *validator.Validator
	tags       *tags.Engine
	slugs      *slug.Resolver
	log        logger.Logger
	progress   domain.Progress

	now func() time.Time
}

// New builds an Importer.
func New(deps Deps) (*Importer, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("article store must not be nil")
	}
	classifier := deps.Classifier
	if classifier == nil {
		classifier = taxonomy.NewClassifier(taxonomy.DefaultTables())
	}
	return &Importer{
		store:      deps.Store,
		images:     deps.Images,
		rewriter:   deps.Rewriter,
		notifier:   deps.Notifier,
		sink:       deps.Progress,
		classifier: classifier,
		normalizer: normalizer.New(),
		validator:  validator.New(classifier),
		tags:       tags.NewEngine(),
		slugs:      slug.NewResolver(deps.Store, deps.SlugMaxAttempts),
		log:        logger.Ensure(deps.Log),
		now:        time.Now,
	}, nil
}

// Progress returns completed and total item counts of the current batch.
// Safe to call from any goroutine.
func (im *Importer) Progress() (int, int) {
	return im.progress.Snapshot()
}

// ValidateOnly normalizes and validates without touching any collaborator.
func (im *Importer) ValidateOnly(raw []domain.RawNewsItem) (validator.Report, error) {
	if len(raw) == 0 {
		return validator.Report{}, domain.ErrEmptyBatch
	}
	return im.validator.ValidateBatch(im.normalizer.NormalizeAll(raw)), nil
}

// ImportBatch processes every item in order. A failing item never stops the
// batch; cancelling ctx marks the items not yet started as failed.
func (im *Importer) ImportBatch(ctx context.Context, raw []domain.RawNewsItem, opts Options) (*domain.BatchReport, error) {
	if len(raw) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	started := im.now()
	total := len(raw)
	report := domain.NewBatchReport(total)
	im.progress.Reset(total)

	im.log.InfoObj("batch import starting", "batch", map[string]any{
		"items":      total,
		"rewrite_ai": opts.RewriteWithAI,
		"source":     opts.Source,
	})

	for i, item := range raw {
		var res domain.ImportResult
		if err := ctx.Err(); err != nil {
			res = domain.ImportResult{
				Index: i,
				Title: titleHint(item),
				Error: fmt.Sprintf("import cancelled before item was processed: %v", err),
			}
			metrics.ItemsTotal.WithLabelValues("failed", string(domain.StagePending)).Inc()
		} else {
			res = im.processItem(ctx, i, item, opts)
		}
		report.Append(res)
		im.progress.Set(i + 1)
		if im.sink != nil {
			im.sink.OnProgress(i+1, total)
		}
	}
	report.Finalize()
	metrics.BatchDuration.Observe(time.Since(started).Seconds())

	im.log.InfoObj("batch import finished", "batch", map[string]any{
		"items":       total,
		"succeeded":   report.Succeeded,
		"failed":      report.Failed,
		"first_error": report.FirstError,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return report, nil
}

// processItem runs one item through every stage and converts any error or
// panic into a failed result.
func (im *Importer) processItem(ctx context.Context, index int, raw domain.RawNewsItem, opts Options) (res domain.ImportResult) {
	stage := domain.StagePending
	res = domain.ImportResult{Index: index, Title: titleHint(raw)}

	fail := func(err error) domain.ImportResult {
		ierr := &domain.ImportError{Index: index, Stage: stage, Err: err}
		res.Success = false
		res.Error = ierr.Error()
		metrics.ItemsTotal.WithLabelValues("failed", string(stage)).Inc()
		im.log.WarnObj("item import failed", "item", map[string]any{
			"index": index,
			"stage": string(stage),
			"error": err.Error(),
		})
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res = fail(fmt.Errorf("unexpected panic: %v", r))
		}
	}()

	if opts.RewriteWithAI && im.rewriter != nil {
		rewritten, err := im.rewriter.Rewrite(ctx, raw)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("ai rewrite failed, original kept: %v", err))
		} else {
			raw = rewritten
		}
	}

	stage = domain.StageNormalizing
	normalized := im.normalizer.Normalize(raw)
	for _, c := range normalized.Corrections {
		res.Warnings = append(res.Warnings, "corrected: "+c)
	}

	stage = domain.StageValidating
	item, issues := im.validator.ValidateItem(index, normalized)
	res.Title = item.Title
	var problems []string
	for _, is := range issues {
		msg := is.Field + ": " + is.Message
		if is.Severity == domain.SeverityError {
			problems = append(problems, msg)
		} else {
			res.Warnings = append(res.Warnings, msg)
		}
	}
	if len(problems) > 0 {
		return fail(fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; ")))
	}

	stage = domain.StageEnriching
	article, warnings, err := im.assemble(ctx, index, item)
	res.Warnings = append(res.Warnings, warnings...)
	if err != nil {
		return fail(err)
	}

	stage = domain.StagePersisting
	inserted, err := im.persist(ctx, &article, item.Slug)
	if err != nil {
		return fail(err)
	}

	if im.notifier != nil {
		if _, err := im.notifier.Publish(ctx, publishers.NewEvent(opts.Source, inserted, article)); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("event publish incomplete: %v", err))
		}
	}

	stage = domain.StageSucceeded
	metrics.ItemsTotal.WithLabelValues("succeeded", string(stage)).Inc()
	res.Success = true
	res.Slug = inserted.Slug
	res.ID = inserted.ID
	return res
}

// persist writes the article, re-resolving the slug when a concurrent writer
// claimed it between lookup and insert.
func (im *Importer) persist(ctx context.Context, article *domain.CanonicalArticle, candidate string) (domain.InsertedArticle, error) {
	for attempt := 1; ; attempt++ {
		inserted, err := im.store.InsertArticle(ctx, *article)
		if err == nil {
			return inserted, nil
		}
		if !errors.Is(err, domain.ErrDuplicateSlug) {
			if errors.Is(err, domain.ErrPersistence) {
				return domain.InsertedArticle{}, err
			}
			return domain.InsertedArticle{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		metrics.SlugCollisions.Inc()
		if attempt >= im.slugs.MaxAttempts() {
			return domain.InsertedArticle{}, fmt.Errorf("insert article %q: %w", article.Slug, domain.ErrDuplicateSlugExhausted)
		}
		resolved, err := im.slugs.Resolve(ctx, candidate, article.Title)
		if err != nil {
			return domain.InsertedArticle{}, err
		}
		im.log.DebugObj("slug taken at write time; retrying", "slug_retry", map[string]any{
			"previous": article.Slug,
			"next":     resolved,
			"attempt":  attempt,
		})
		article.Slug = resolved
	}
}

func titleHint(raw domain.RawNewsItem) string {
	for _, k := range []string{domain.KeyTitle, "titulo", "headline"} {
		if s, ok := raw[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
