// Package validator enforces field-level rules on normalized items, applying
// safe corrections and reporting everything else as issues.
package validator

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
	"github.com/samvad-hq/samvad-news-importer/internal/taxonomy"
)

const (
	TitleMinLength   = 6
	TitleMaxLength   = 120
	ExcerptMaxLength = 160
	ContentMinLength = 10
	TagMaxLength     = 40

	ellipsis = "…"
)

// Report is the outcome of validating a batch.
type Report struct {
	ValidItems []domain.NormalizedNewsItem `json:"-"`
	Issues     []domain.ValidationIssue    `json:"issues"`
	Valid      bool                        `json:"valid"`
}

// Errors returns only the error-severity issues.
func (r Report) Errors() []domain.ValidationIssue {
	var out []domain.ValidationIssue
	for _, is := range r.Issues {
		if is.Severity == domain.SeverityError {
			out = append(out, is)
		}
	}
	return out
}

// Validator checks normalized items against the article constraints.
type Validator struct {
	classifier *taxonomy.Classifier
	stripper   *bluemonday.Policy
}

// New builds a validator backed by the given classifier.
func New(classifier *taxonomy.Classifier) *Validator {
	if classifier == nil {
		classifier = taxonomy.NewClassifier(taxonomy.DefaultTables())
	}
	return &Validator{
		classifier: classifier,
		stripper:   bluemonday.StrictPolicy(),
	}
}

// ValidateBatch validates every item; items with errors are left out of
// ValidItems.
func (v *Validator) ValidateBatch(items []domain.NormalizedNewsItem) Report {
	rep := Report{
		ValidItems: make([]domain.NormalizedNewsItem, 0, len(items)),
		Valid:      true,
	}
	for i, item := range items {
		fixed, issues := v.ValidateItem(i, item)
		rep.Issues = append(rep.Issues, issues...)
		if HasErrors(issues) {
			rep.Valid = false
			continue
		}
		rep.ValidItems = append(rep.ValidItems, fixed)
	}
	return rep
}

// ValidateItem returns the corrected item together with its issues.
func (v *Validator) ValidateItem(index int, item domain.NormalizedNewsItem) (domain.NormalizedNewsItem, []domain.ValidationIssue) {
	var issues []domain.ValidationIssue
	add := func(field string, sev domain.Severity, format string, args ...any) {
		issues = append(issues, domain.ValidationIssue{
			ItemIndex: index,
			Field:     field,
			Severity:  sev,
			Message:   fmt.Sprintf(format, args...),
		})
	}

	item.Title = strings.TrimSpace(item.Title)
	switch n := utf8.RuneCountInString(item.Title); {
	case n < TitleMinLength:
		add(domain.KeyTitle, domain.SeverityError, "title must have at least %d characters, got %d", TitleMinLength, n)
	case n > TitleMaxLength:
		item.Title = Truncate(item.Title, TitleMaxLength)
		add(domain.KeyTitle, domain.SeverityWarning, "title truncated from %d to %d characters", n, TitleMaxLength)
	}

	content := strings.TrimSpace(item.Content)
	if n := utf8.RuneCountInString(content); n < ContentMinLength {
		add(domain.KeyContent, domain.SeverityError, "content must have at least %d characters, got %d", ContentMinLength, n)
	}

	item.Excerpt = strings.TrimSpace(item.Excerpt)
	if item.Excerpt == "" {
		if derived := v.plainText(content); derived != "" {
			item.Excerpt = Truncate(derived, ExcerptMaxLength)
			add(domain.KeyExcerpt, domain.SeverityWarning, "excerpt derived from content")
		}
	} else if n := utf8.RuneCountInString(item.Excerpt); n > ExcerptMaxLength {
		item.Excerpt = Truncate(item.Excerpt, ExcerptMaxLength)
		add(domain.KeyExcerpt, domain.SeverityWarning, "excerpt truncated from %d to %d characters", n, ExcerptMaxLength)
	}

	if item.Category != "" && !v.classifier.IsValid(item.Category) {
		add(domain.KeyCategory, domain.SeverityWarning, "category %q is not in the taxonomy and will be classified", item.Category)
	}

	kept := make([]string, 0, len(item.Tags))
	for _, tag := range item.Tags {
		if utf8.RuneCountInString(tag) > TagMaxLength {
			add(domain.KeyTags, domain.SeverityWarning, "tag longer than %d characters dropped", TagMaxLength)
			continue
		}
		kept = append(kept, tag)
	}
	item.Tags = kept

	if item.SourceURL != "" && !IsHTTPURL(item.SourceURL) {
		add(domain.KeySourceURL, domain.SeverityWarning, "invalid source url %q removed", item.SourceURL)
		item.SourceURL = ""
	}
	if item.ImageURL != "" && !IsHTTPURL(item.ImageURL) {
		add(domain.KeyImage, domain.SeverityWarning, "invalid image url %q removed", item.ImageURL)
		item.ImageURL = ""
	}

	gallery := make([]string, 0, len(item.Gallery))
	for _, g := range item.Gallery {
		if !IsHTTPURL(g) {
			add(domain.KeyGallery, domain.SeverityWarning, "invalid gallery url %q removed", g)
			continue
		}
		gallery = append(gallery, g)
	}
	item.Gallery = gallery

	return item, issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []domain.ValidationIssue) bool {
	for _, is := range issues {
		if is.Severity == domain.SeverityError {
			return true
		}
	}
	return false
}

// IsHTTPURL reports whether s is an absolute http(s) URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Truncate shortens s to max runes, the last one being an ellipsis.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimRightFunc(string(r[:max-1]), isSpace) + ellipsis
}

func (v *Validator) plainText(s string) string {
	s = strings.ReplaceAll(s, ">", "> ")
	return strings.Join(strings.Fields(html.UnescapeString(v.stripper.Sanitize(s))), " ")
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }
