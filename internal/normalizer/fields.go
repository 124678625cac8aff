package normalizer

import (
	"fmt"
	"strings"
)

// Each polymorphic raw field is decoded into one variant of a closed set and
// every variant knows how to produce the canonical value.

// imageValue is the decoded shape of the raw image field.
type imageValue interface {
	normalize() (url, credit, alt string, notes []string)
}

type imageAbsent struct{}

type imageString struct{ raw string }

type imageObject struct{ fields map[string]any }

type imageUnsupported struct{ raw any }

var (
	imageURLKeys    = []string{"url", "src", "href", "original", "full", "large", "medium", "small", "thumbnail"}
	imageCreditKeys = []string{"credit", "author", "source", "copyright", "photographer"}
	imageAltKeys    = []string{"alt", "caption", "title", "description"}
)

func decodeImage(v any) imageValue {
	switch val := v.(type) {
	case nil:
		return imageAbsent{}
	case string:
		return imageString{raw: val}
	case map[string]any:
		return imageObject{fields: val}
	default:
		return imageUnsupported{raw: v}
	}
}

func (imageAbsent) normalize() (string, string, string, []string) {
	return "", "", "", nil
}

func (i imageString) normalize() (string, string, string, []string) {
	u := strings.TrimSpace(i.raw)
	if u == "" {
		return "", "", "", nil
	}
	if !isHTTPURL(u) {
		return "", "", "", []string{fmt.Sprintf("image %q is not an http(s) url; treated as absent", truncateNote(u))}
	}
	return u, "", "", nil
}

func (i imageObject) normalize() (string, string, string, []string) {
	notes := []string{"image supplied as object; extracted url"}
	u := firstString(i.fields, imageURLKeys, isHTTPURL)
	if u == "" {
		notes = append(notes, "image object has no http(s) url; treated as absent")
	}
	credit := firstString(i.fields, imageCreditKeys, nil)
	alt := firstString(i.fields, imageAltKeys, nil)
	return u, credit, alt, notes
}

func (i imageUnsupported) normalize() (string, string, string, []string) {
	return "", "", "", []string{fmt.Sprintf("image of type %T ignored", i.raw)}
}

// contentValue is the decoded shape of the raw content field.
type contentValue interface {
	normalize() (string, []string)
}

type contentString struct{ raw string }

type contentParagraphs struct{ parts []string }

func decodeContent(v any) contentValue {
	switch val := v.(type) {
	case nil:
		return contentString{}
	case string:
		return contentString{raw: val}
	case []string:
		return contentParagraphs{parts: val}
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return contentParagraphs{parts: parts}
	default:
		return contentString{raw: fmt.Sprint(val)}
	}
}

func (c contentString) normalize() (string, []string) {
	return strings.TrimSpace(c.raw), nil
}

func (c contentParagraphs) normalize() (string, []string) {
	blocks := make([]string, 0, len(c.parts))
	dropped := 0
	for _, part := range c.parts {
		part = strings.TrimSpace(part)
		if part == "" || isPromotional(part) {
			dropped++
			continue
		}
		blocks = append(blocks, paragraphToHTML(part))
	}
	notes := []string{fmt.Sprintf("content supplied as %d paragraphs; joined into html", len(c.parts))}
	if dropped > 0 {
		notes = append(notes, fmt.Sprintf("dropped %d blank or promotional paragraphs", dropped))
	}
	return strings.Join(blocks, "\n"), notes
}

// listValue decodes tag and gallery fields.
type listValue interface {
	items() []any
}

type listDelimited struct{ raw string }

type listArray struct{ raw []any }

func decodeList(v any) listValue {
	switch val := v.(type) {
	case nil:
		return listArray{}
	case string:
		return listDelimited{raw: val}
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return listArray{raw: out}
	case []any:
		return listArray{raw: val}
	default:
		return listArray{raw: []any{val}}
	}
}

func (l listDelimited) items() []any {
	parts := strings.FieldsFunc(l.raw, func(r rune) bool { return r == ',' || r == '|' })
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

func (l listArray) items() []any { return l.raw }

func firstString(fields map[string]any, keys []string, accept func(string) bool) string {
	for _, k := range keys {
		s, ok := fields[k].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if accept != nil && !accept(s) {
			continue
		}
		return s
	}
	return ""
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func truncateNote(s string) string {
	const max = 60
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
