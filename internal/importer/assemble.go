package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/internal/metrics"
	"github.com/samvad-hq/samvad-news-importer/internal/normalizer"
	"github.com/samvad-hq/samvad-news-importer/internal/validator"
)

const seoTitleMaxLength = 60

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// assemble runs the enrichment stage and builds the storage-ready article.
// Warnings are returned even when err is set.
func (im *Importer) assemble(ctx context.Context, index int, item domain.NormalizedNewsItem) (domain.CanonicalArticle, []string, error) {
	var warnings []string

	category := im.classifier.Classify(item.Category, item.Title, item.Content)
	if item.Category != "" && item.Category != category {
		warnings = append(warnings, fmt.Sprintf("category %q mapped to %q", item.Category, category))
	}

	finalTags := im.tags.Finalize(item.Tags, item.Title, item.Content)

	resolved, err := im.slugs.Resolve(ctx, item.Slug, item.Title)
	if err != nil {
		return domain.CanonicalArticle{}, warnings, err
	}

	categoryID, ok, err := im.store.FindCategoryID(ctx, category)
	if err != nil {
		return domain.CanonicalArticle{}, warnings, fmt.Errorf("find category %q: %w", category, err)
	}
	if !ok {
		warnings = append(warnings, fmt.Sprintf("category %q has no stored id", category))
	}
	authorID, err := im.store.FindDefaultAuthor(ctx)
	if err != nil {
		return domain.CanonicalArticle{}, warnings, fmt.Errorf("find default author: %w", err)
	}

	imageURL, credit := item.ImageURL, item.ImageCredit
	if imageURL != "" && im.images != nil {
		img := im.images.Acquire(ctx, imageURL)
		if img.Rehosted {
			metrics.ImagesTotal.WithLabelValues("rehosted").Inc()
		} else {
			metrics.ImagesTotal.WithLabelValues("fallback").Inc()
		}
		if img.Warning != "" {
			warnings = append(warnings, img.Warning)
		}
		if img.URL != "" {
			imageURL = img.URL
		}
		if credit == "" {
			credit = img.Credit
		}
	}

	published, ok := parsePublished(item.PublishedAt)
	if !ok {
		if item.PublishedAt != "" {
			warnings = append(warnings, fmt.Sprintf("unparseable published_at %q replaced with import time", item.PublishedAt))
		}
		published = im.now().UTC()
	}

	seoTitle := item.SEOTitle
	if seoTitle == "" {
		seoTitle = validator.Truncate(item.Title, seoTitleMaxLength)
	}
	seoDescription := item.SEODescription
	if seoDescription == "" {
		seoDescription = item.Excerpt
	}

	return domain.CanonicalArticle{
		Title:          item.Title,
		Slug:           resolved,
		Excerpt:        item.Excerpt,
		Content:        item.Content,
		Category:       category,
		CategoryID:     categoryID,
		AuthorID:       authorID,
		Tags:           finalTags,
		ImageURL:       imageURL,
		ImageAlt:       imageAlt(item, imageURL),
		ImageCredit:    credit,
		Gallery:        buildGallery(imageURL, item.ImageURL, item.Gallery),
		SourceURL:      item.SourceURL,
		SEOTitle:       seoTitle,
		SEODescription: validator.Truncate(seoDescription, validator.ExcerptMaxLength),
		Featured:       index == 0 || im.classifier.IsBreaking(category) || item.Featured,
		PublishedAt:    published,
	}, warnings, nil
}

// buildGallery puts the featured image first, drops other copies of it and
// caps the result.
func buildGallery(featured, original string, gallery []string) []string {
	if featured == "" {
		if len(gallery) > normalizer.MaxGallery {
			return gallery[:normalizer.MaxGallery]
		}
		return gallery
	}
	out := make([]string, 0, len(gallery)+1)
	out = append(out, featured)
	for _, g := range gallery {
		if g == featured || g == original {
			continue
		}
		out = append(out, g)
		if len(out) == normalizer.MaxGallery {
			break
		}
	}
	return out
}

func imageAlt(item domain.NormalizedNewsItem, imageURL string) string {
	if imageURL == "" {
		return ""
	}
	if item.ImageAlt != "" {
		return item.ImageAlt
	}
	return item.Title
}

func parsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
