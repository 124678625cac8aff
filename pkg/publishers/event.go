package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

// EventArticleImported is the only event type emitted today.
const EventArticleImported = "article.imported"

// Event is the notification published after an article is persisted.
type Event struct {
	Type        string    `json:"type"`
	Source      string    `json:"source"`
	ArticleID   string    `json:"article_id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	ImageURL    string    `json:"image_url,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
	Featured    bool      `json:"featured"`
	PublishedAt time.Time `json:"published_at"`
	ImportedAt  time.Time `json:"imported_at"`
}

// NewEvent builds an ArticleImported event for a stored article.
func NewEvent(source string, inserted domain.InsertedArticle, article domain.CanonicalArticle) Event {
	return Event{
		Type:        EventArticleImported,
		Source:      source,
		ArticleID:   inserted.ID,
		Slug:        inserted.Slug,
		Title:       article.Title,
		Category:    article.Category,
		Tags:        article.Tags,
		ImageURL:    article.ImageURL,
		SourceURL:   article.SourceURL,
		Featured:    article.Featured,
		PublishedAt: article.PublishedAt,
		ImportedAt:  time.Now().UTC(),
	}
}
