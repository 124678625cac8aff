package taxonomy

import "strings"

// Classifier maps free-text categories onto the taxonomy. It holds no mutable
// state, so one instance may be shared.
type Classifier struct {
	tables Tables
}

// NewClassifier builds a classifier over the given tables.
func NewClassifier(tables Tables) *Classifier {
	if tables.Default == "" {
		tables.Default = Geral
	}
	return &Classifier{tables: tables}
}

// Tables returns the classifier's tables.
func (c *Classifier) Tables() Tables { return c.tables }

// IsValid reports whether name is a taxonomy member.
func (c *Classifier) IsValid(name string) bool { return c.tables.Contains(name) }

// IsBreaking reports whether name is the breaking-news category.
func (c *Classifier) IsBreaking(name string) bool {
	return c.tables.Breaking != "" && name == c.tables.Breaking
}

// Classify returns rawCategory when it is already valid, else an alias match,
// else the best keyword score over title and body, else the default category.
func (c *Classifier) Classify(rawCategory, title, body string) string {
	if c.tables.Contains(rawCategory) {
		return rawCategory
	}

	if cat, ok := c.matchAlias(rawCategory); ok {
		return cat
	}

	text := strings.ToLower(title + " " + body)
	best, bestScore := "", 0
	for _, cat := range c.tables.Categories {
		score := 0
		for _, kw := range c.tables.Keywords[cat] {
			if kw == "" {
				continue
			}
			score += strings.Count(text, kw)
		}
		if score > bestScore {
			best, bestScore = cat, score
		}
	}
	if bestScore == 0 {
		return c.tables.Default
	}
	return best
}

func (c *Classifier) matchAlias(rawCategory string) (string, bool) {
	raw := strings.ToLower(strings.TrimSpace(rawCategory))
	if raw == "" {
		return "", false
	}
	for _, a := range c.tables.Aliases {
		if a.Key == "" {
			continue
		}
		if strings.Contains(raw, strings.ToLower(a.Key)) {
			return a.Category, true
		}
	}
	return "", false
}
