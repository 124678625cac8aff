package slug

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "basic ascii", input: "Hello World", expected: "hello-world"},
		{name: "with punctuation", input: "Senado aprova lei!", expected: "senado-aprova-lei"},
		{name: "with diacritics", input: "Eleição em São Paulo: ação já", expected: "eleicao-em-sao-paulo-acao-ja"},
		{name: "with repeated hyphens", input: "a -- b", expected: "a-b"},
		{name: "leading and trailing", input: "  - Olá - ", expected: "ola"},
		{name: "underscores removed", input: "foo_bar", expected: "foobar"},
		{name: "empty string", input: "", expected: ""},
		{name: "symbols only", input: "!!!", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.expected {
				t.Fatalf("Generate(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGenerateCapsLength(t *testing.T) {
	got := Generate(strings.Repeat("palavra ", 40))
	if len(got) > MaxLength || strings.HasSuffix(got, "-") {
		t.Fatalf("unexpected slug %q (%d)", got, len(got))
	}
}

func TestMakeUnique(t *testing.T) {
	if got := MakeUnique("noticia", 1); got != "noticia" {
		t.Fatalf("MakeUnique(1) = %q", got)
	}
	if got := MakeUnique("noticia", 12); got != "noticia-12" {
		t.Fatalf("MakeUnique(12) = %q", got)
	}
	long := strings.Repeat("a", MaxLength)
	if got := MakeUnique(long, 20); len(got) != MaxLength || !strings.HasSuffix(got, "-20") {
		t.Fatalf("MakeUnique long = %q", got)
	}
}

type fakeLookup struct {
	taken map[string]bool
	calls []string
	err   error
}

func (f *fakeLookup) ExistsBySlug(_ context.Context, s string) (bool, error) {
	f.calls = append(f.calls, s)
	if f.err != nil {
		return false, f.err
	}
	return f.taken[s], nil
}

func TestResolveFreeSlug(t *testing.T) {
	lookup := &fakeLookup{}
	got, err := NewResolver(lookup, 0).Resolve(context.Background(), "", "Senado aprova lei")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "senado-aprova-lei" || len(lookup.calls) != 1 {
		t.Fatalf("got %q after %d lookups", got, len(lookup.calls))
	}
}

func TestResolvePrefersCandidate(t *testing.T) {
	lookup := &fakeLookup{}
	got, err := NewResolver(lookup, 0).Resolve(context.Background(), "Meu Slug", "Outro título")
	if err != nil || got != "meu-slug" {
		t.Fatalf("Resolve = %q, %v", got, err)
	}
}

func TestResolveSuffixesOnCollision(t *testing.T) {
	lookup := &fakeLookup{taken: map[string]bool{"lei": true, "lei-2": true}}
	got, err := NewResolver(lookup, 0).Resolve(context.Background(), "", "Lei")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "lei-3" {
		t.Fatalf("expected lei-3, got %q", got)
	}
}

func TestResolveExhaustsAfterMaxAttempts(t *testing.T) {
	taken := map[string]bool{"lei": true}
	for i := 2; i <= DefaultMaxAttempts; i++ {
		taken[MakeUnique("lei", i)] = true
	}
	lookup := &fakeLookup{taken: taken}
	_, err := NewResolver(lookup, 0).Resolve(context.Background(), "", "Lei")
	if !errors.Is(err, domain.ErrDuplicateSlugExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	if len(lookup.calls) != DefaultMaxAttempts {
		t.Fatalf("expected %d lookups, got %d", DefaultMaxAttempts, len(lookup.calls))
	}
}

func TestResolveFallsBackForEmptyDerivation(t *testing.T) {
	got, err := NewResolver(&fakeLookup{}, 0).Resolve(context.Background(), "", "!!!")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(got, "noticia-") || len(got) != len("noticia-")+8 {
		t.Fatalf("unexpected fallback slug %q", got)
	}
}

func TestResolvePropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewResolver(&fakeLookup{err: boom}, 0).Resolve(context.Background(), "", "Lei nova")
	if !errors.Is(err, boom) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}
