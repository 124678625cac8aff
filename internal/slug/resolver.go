package slug

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

// DefaultMaxAttempts bounds how many candidates are checked per resolution.
const DefaultMaxAttempts = 20

const fallbackPrefix = "noticia"

// Lookup reports whether a slug is already persisted.
type Lookup interface {
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}

// Resolver turns titles or candidate slugs into slugs that are free in the
// persisted namespace. Check-then-insert is not atomic; stores reject races
// with domain.ErrDuplicateSlug and callers resolve again.
type Resolver struct {
	lookup      Lookup
	maxAttempts int
}

// NewResolver builds a resolver. maxAttempts <= 0 uses DefaultMaxAttempts.
func NewResolver(lookup Lookup, maxAttempts int) *Resolver {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Resolver{lookup: lookup, maxAttempts: maxAttempts}
}

// Base derives the unsuffixed slug from the candidate, or from the title when
// the candidate is blank.
func Base(candidate, title string) string {
	base := Generate(strings.TrimSpace(candidate))
	if base == "" {
		base = Generate(title)
	}
	if base == "" {
		base = fallbackPrefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	return base
}

// Resolve returns the first candidate not already taken.
func (r *Resolver) Resolve(ctx context.Context, candidate, title string) (string, error) {
	base := Base(candidate, title)
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		s := MakeUnique(base, attempt)
		exists, err := r.lookup.ExistsBySlug(ctx, s)
		if err != nil {
			return "", fmt.Errorf("lookup slug %q: %w", s, err)
		}
		if !exists {
			return s, nil
		}
	}
	return "", fmt.Errorf("resolve slug %q after %d attempts: %w", base, r.maxAttempts, domain.ErrDuplicateSlugExhausted)
}

// MaxAttempts returns the configured attempt bound.
func (r *Resolver) MaxAttempts() int { return r.maxAttempts }
