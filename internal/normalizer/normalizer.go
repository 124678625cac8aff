// Package normalizer repairs legacy producer shapes into the canonical news
// item shape. It never fails; repairs are reported as correction notes.
package normalizer

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

// MaxGallery caps the canonical gallery.
const MaxGallery = 10

var promotionalMarkers = []string{
	"leia também", "leia mais", "publicidade", "assine já", "clique aqui",
	"siga-nos", "read more", "advertisement",
}

// Alternate key names seen from older producers, canonical key first.
var fieldAliases = map[string][]string{
	domain.KeyTitle:          {domain.KeyTitle, "titulo", "headline"},
	domain.KeySlug:           {domain.KeySlug},
	domain.KeyExcerpt:        {domain.KeyExcerpt, "summary", "resumo", "description", "lead"},
	domain.KeyContent:        {domain.KeyContent, "body", "conteudo", "text"},
	domain.KeyCategory:       {domain.KeyCategory, "categoria", "section"},
	domain.KeyTags:           {domain.KeyTags, "keywords", "palavras_chave"},
	domain.KeyImage:          {domain.KeyImage, "featured_image", "imagem", "image_url"},
	domain.KeyImageAlt:       {domain.KeyImageAlt, "alt"},
	domain.KeyImageCredit:    {domain.KeyImageCredit, "credit", "credito", "photo_credit"},
	domain.KeySourceURL:      {domain.KeySourceURL, "source", "url", "link", "fonte"},
	domain.KeySEOTitle:       {domain.KeySEOTitle, "meta_title"},
	domain.KeySEODescription: {domain.KeySEODescription, "meta_description"},
	domain.KeyFeatured:       {domain.KeyFeatured, "is_featured", "destaque"},
	domain.KeyPublishedAt:    {domain.KeyPublishedAt, "publishedAt", "date", "data"},
}

// Normalizer converts raw items into canonical items.
type Normalizer struct{}

// New returns a Normalizer.
func New() *Normalizer { return &Normalizer{} }

// Normalize coerces every field of raw into its canonical shape.
func (n *Normalizer) Normalize(raw domain.RawNewsItem) domain.NormalizedNewsItem {
	var item domain.NormalizedNewsItem
	note := func(msgs ...string) { item.Corrections = append(item.Corrections, msgs...) }

	item.Title = lookupString(raw, domain.KeyTitle)
	item.Slug = lookupString(raw, domain.KeySlug)
	item.Excerpt = lookupString(raw, domain.KeyExcerpt)
	item.Category = lookupString(raw, domain.KeyCategory)
	item.SourceURL = lookupString(raw, domain.KeySourceURL)
	item.SEOTitle = lookupString(raw, domain.KeySEOTitle)
	item.SEODescription = lookupString(raw, domain.KeySEODescription)
	item.PublishedAt = lookupString(raw, domain.KeyPublishedAt)
	item.Featured = lookupBool(raw, domain.KeyFeatured)

	content, notes := decodeContent(lookup(raw, domain.KeyContent)).normalize()
	item.Content = content
	note(notes...)

	url, credit, alt, notes := decodeImage(lookup(raw, domain.KeyImage)).normalize()
	item.ImageURL = url
	note(notes...)
	item.ImageCredit = firstNonEmpty(lookupString(raw, domain.KeyImageCredit), credit)
	item.ImageAlt = firstNonEmpty(lookupString(raw, domain.KeyImageAlt), alt)

	item.Tags = normalizeTags(lookup(raw, domain.KeyTags))

	gallery, notes := normalizeGallery(raw)
	item.Gallery = gallery
	note(notes...)

	return item
}

// NormalizeAll normalizes a batch, preserving order.
func (n *Normalizer) NormalizeAll(raw []domain.RawNewsItem) []domain.NormalizedNewsItem {
	out := make([]domain.NormalizedNewsItem, len(raw))
	for i, r := range raw {
		out[i] = n.Normalize(r)
	}
	return out
}

func normalizeTags(v any) []string {
	items := decodeList(v).items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeGallery(raw domain.RawNewsItem) ([]string, []string) {
	var notes []string
	v, ok := raw[domain.KeyGallery]
	if !ok {
		if legacy, found := raw[domain.KeyLegacyGallery]; found {
			v = legacy
			notes = append(notes, "renamed legacy gallery field")
		}
	}

	items := decodeList(v).items()
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	dropped := 0
	for _, it := range items {
		var u string
		switch val := it.(type) {
		case string:
			u = strings.TrimSpace(val)
		case map[string]any:
			u = firstString(val, imageURLKeys, isHTTPURL)
		}
		if !isHTTPURL(u) {
			dropped++
			continue
		}
		if _, dup := seen[u]; dup {
			dropped++
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	if dropped > 0 {
		notes = append(notes, fmt.Sprintf("dropped %d invalid or duplicate gallery entries", dropped))
	}
	if len(out) > MaxGallery {
		notes = append(notes, fmt.Sprintf("gallery capped at %d entries", MaxGallery))
		out = out[:MaxGallery]
	}
	return out, notes
}

func lookup(raw domain.RawNewsItem, key string) any {
	for _, k := range fieldAliases[key] {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func lookupString(raw domain.RawNewsItem, key string) string {
	switch v := lookup(raw, key).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func lookupBool(raw domain.RawNewsItem, key string) bool {
	switch v := lookup(raw, key).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case float64:
		return v != 0
	default:
		return false
	}
}

func isPromotional(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range promotionalMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func paragraphToHTML(p string) string {
	if strings.HasPrefix(p, "##") {
		return "<h2>" + html.EscapeString(strings.TrimSpace(strings.TrimLeft(p, "#"))) + "</h2>"
	}
	if inner, ok := unquote(p); ok {
		return "<blockquote>" + html.EscapeString(inner) + "</blockquote>"
	}
	return "<p>" + html.EscapeString(p) + "</p>"
}

func unquote(p string) (string, bool) {
	pairs := [][2]string{{`"`, `"`}, {"“", "”"}, {"«", "»"}}
	for _, q := range pairs {
		if len(p) > len(q[0])+len(q[1]) && strings.HasPrefix(p, q[0]) && strings.HasSuffix(p, q[1]) {
			return strings.TrimSpace(p[len(q[0]) : len(p)-len(q[1])]), true
		}
	}
	return "", false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
