package domain

import "time"

// Domain contains core models shared by every stage of the import pipeline.

// RawNewsItem is a record exactly as an upstream producer emitted it. Field
// types drift between producers, so nothing is assumed about its shape.
type RawNewsItem map[string]any

// Canonical raw keys. Normalized items render back into these.
const (
	KeyTitle          = "title"
	KeySlug           = "slug"
	KeyExcerpt        = "excerpt"
	KeyContent        = "content"
	KeyCategory       = "category"
	KeyTags           = "tags"
	KeyImage          = "image"
	KeyImageAlt       = "image_alt"
	KeyImageCredit    = "image_credit"
	KeyGallery        = "gallery_images"
	KeyLegacyGallery  = "gallery"
	KeySourceURL      = "source_url"
	KeySEOTitle       = "seo_title"
	KeySEODescription = "seo_description"
	KeyFeatured       = "featured"
	KeyPublishedAt    = "published_at"
)

// NormalizedNewsItem has every field coerced into its canonical shape.
type NormalizedNewsItem struct {
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	Excerpt        string   `json:"excerpt"`
	Content        string   `json:"content"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	ImageURL       string   `json:"image"`
	ImageAlt       string   `json:"image_alt"`
	ImageCredit    string   `json:"image_credit"`
	Gallery        []string `json:"gallery_images"`
	SourceURL      string   `json:"source_url"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	Featured       bool     `json:"featured"`
	PublishedAt    string   `json:"published_at"`

	// Corrections lists structural repairs applied while normalizing.
	Corrections []string `json:"-"`
}

// Raw renders the item back into the canonical raw shape.
func (n NormalizedNewsItem) Raw() RawNewsItem {
	tags := make([]any, len(n.Tags))
	for i, t := range n.Tags {
		tags[i] = t
	}
	gallery := make([]any, len(n.Gallery))
	for i, g := range n.Gallery {
		gallery[i] = g
	}
	return RawNewsItem{
		KeyTitle:          n.Title,
		KeySlug:           n.Slug,
		KeyExcerpt:        n.Excerpt,
		KeyContent:        n.Content,
		KeyCategory:       n.Category,
		KeyTags:           tags,
		KeyImage:          n.ImageURL,
		KeyImageAlt:       n.ImageAlt,
		KeyImageCredit:    n.ImageCredit,
		KeyGallery:        gallery,
		KeySourceURL:      n.SourceURL,
		KeySEOTitle:       n.SEOTitle,
		KeySEODescription: n.SEODescription,
		KeyFeatured:       n.Featured,
		KeyPublishedAt:    n.PublishedAt,
	}
}

// Severity grades a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is produced by the validator, never raised.
type ValidationIssue struct {
	ItemIndex int      `json:"item_index"`
	Field     string   `json:"field"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}

// CanonicalArticle is the storage-ready record.
type CanonicalArticle struct {
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Excerpt        string    `json:"excerpt"`
	Content        string    `json:"content"`
	Category       string    `json:"category"`
	CategoryID     string    `json:"category_id"`
	AuthorID       string    `json:"author_id"`
	Tags           []string  `json:"tags"`
	ImageURL       string    `json:"image_url,omitempty"`
	ImageAlt       string    `json:"image_alt,omitempty"`
	ImageCredit    string    `json:"image_credit,omitempty"`
	Gallery        []string  `json:"gallery,omitempty"`
	SourceURL      string    `json:"source_url,omitempty"`
	SEOTitle       string    `json:"seo_title"`
	SEODescription string    `json:"seo_description"`
	Featured       bool      `json:"featured"`
	PublishedAt    time.Time `json:"published_at"`
}

// InsertedArticle is what the persistence layer hands back after a write.
type InsertedArticle struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// ImportResult is the outcome of one input item.
type ImportResult struct {
	Index    int      `json:"index"`
	Success  bool     `json:"success"`
	Title    string   `json:"title"`
	Slug     string   `json:"slug,omitempty"`
	ID       string   `json:"id,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
