// Package tags enforces the fixed tag quota on every imported article.
package tags

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// Quota is the exact number of tags every article carries.
	Quota = 12
	// MaxLength is the longest tag accepted, in characters.
	MaxLength = 40

	minCandidateLength = 4
)

var defaultFillers = []string{
	"Notícias", "Brasil", "Atualidades", "Destaque", "Informação", "Reportagem",
	"Cobertura", "Análise", "Sociedade", "Cotidiano", "Hoje", "Últimas",
}

var defaultStopWords = []string{
	// pt
	"para", "como", "mais", "mas", "pelo", "pela", "pelos", "pelas", "sobre",
	"entre", "após", "depois", "antes", "ainda", "também", "quando", "onde",
	"porque", "pois", "isso", "esse", "essa", "esses", "essas", "este", "esta",
	"estes", "estas", "aquele", "aquela", "seus", "suas", "dele", "dela",
	"deles", "delas", "nosso", "nossa", "você", "vocês", "eles", "elas", "qual",
	"quais", "será", "serão", "foram", "sido", "sendo", "está", "estão", "estava",
	"tinha", "temos", "muito", "muita", "muitos", "muitas", "cada", "todo",
	"toda", "todos", "todas", "outro", "outra", "outros", "outras", "mesmo",
	"mesma", "nova", "novo", "novas", "novos", "desde", "até", "contra", "sem",
	"segundo", "disse", "afirmou", "ano", "anos", "dia", "dias", "nesta",
	"neste", "nessa", "nesse", "apenas", "então", "assim", "podem",
	"pode", "deve", "devem", "fazer", "feito", "ser", "ter", "havia", "haver",
	// en
	"that", "this", "with", "from", "have", "were", "will", "would", "there",
	"their", "about", "which", "when", "what", "into", "more", "than", "been",
	"they", "them", "also", "after", "before", "said",
}

// Engine normalizes, deduplicates and pads tag lists to the quota.
type Engine struct {
	quota     int
	maxLength int
	stopWords map[string]struct{}
	fillers   []string
	stripper  *bluemonday.Policy
}

// NewEngine returns an engine using the default stop words and fillers.
func NewEngine() *Engine {
	stop := make(map[string]struct{}, len(defaultStopWords))
	for _, w := range defaultStopWords {
		stop[w] = struct{}{}
	}
	return &Engine{
		quota:     Quota,
		maxLength: MaxLength,
		stopWords: stop,
		fillers:   append([]string(nil), defaultFillers...),
		stripper:  bluemonday.StrictPolicy(),
	}
}

// Finalize returns exactly the quota of case-insensitively unique tags. The
// supplied tags come first, then frequent words from title and body, then
// generic fillers.
func (e *Engine) Finalize(rawTags []string, title, body string) []string {
	out := make([]string, 0, e.quota)
	seen := make(map[string]struct{}, e.quota)

	add := func(tag string) bool {
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		out = append(out, tag)
		return true
	}

	for _, raw := range rawTags {
		tag := strings.TrimSpace(raw)
		if tag == "" || utf8.RuneCountInString(tag) > e.maxLength {
			continue
		}
		add(tag)
	}
	if len(out) >= e.quota {
		return out[:e.quota]
	}

	for _, cand := range e.Candidates(title, body) {
		if len(out) >= e.quota {
			return out
		}
		add(cand)
	}

	for _, f := range e.fillers {
		if len(out) >= e.quota {
			return out
		}
		add(f)
	}

	for n := 2; len(out) < e.quota; n++ {
		for _, f := range e.fillers {
			if len(out) >= e.quota {
				break
			}
			add(fmt.Sprintf("%s %d", f, n))
		}
	}
	return out
}

// Candidates extracts capitalized words from title and body ordered by
// descending frequency, first occurrence breaking ties.
func (e *Engine) Candidates(title, body string) []string {
	text := e.StripHTML(title + " " + body)

	counts := make(map[string]int)
	var order []string
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		n := utf8.RuneCountInString(tok)
		if n < minCandidateLength || n > e.maxLength {
			continue
		}
		if _, stop := e.stopWords[tok]; stop {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	out := make([]string, len(order))
	for i, tok := range order {
		out[i] = capitalize(tok)
	}
	return out
}

// StripHTML removes markup and decodes entities.
func (e *Engine) StripHTML(s string) string {
	// keep adjacent block elements from fusing into one word
	s = strings.ReplaceAll(s, ">", "> ")
	return html.UnescapeString(e.stripper.Sanitize(s))
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
