package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps generated slugs.
const MaxLength = 100

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]+`)
	whitespace = regexp.MustCompile(`\s+`)
	hyphens    = regexp.MustCompile(`-+`)
)

// Generate creates a URL-friendly slug from a string
func Generate(s string) string {
	if s == "" {
		return ""
	}

	s = transliterate(strings.ToLower(s))
	s = disallowed.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// MakeUnique appends a numeric suffix, keeping the result within MaxLength.
// Counters below 2 return the slug unchanged.
func MakeUnique(slug string, counter int) string {
	if counter < 2 {
		return slug
	}
	suffix := "-" + strconv.Itoa(counter)
	if len(slug)+len(suffix) > MaxLength {
		slug = strings.TrimRight(slug[:MaxLength-len(suffix)], "-")
	}
	return slug + suffix
}

// transliterate strips diacritics by decomposing and dropping nonspacing marks
func transliterate(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
