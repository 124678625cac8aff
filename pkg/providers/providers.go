// Package providers loads the upstream producer registry (YAML/JSON) and
// fetches raw news items from each producer.
package providers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-importer/internal/registryfile"
)

const (
	TypeJSONFile   = "json_file"
	TypeJSONHTTP   = "json_http"
	TypeGoogleNews = "google_news_sitemap"
	TypeRSS        = "rss"
)

// Provider is one upstream producer declared in the providers file.
type Provider struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           string         `json:"type" yaml:"type"`
	SourceURL      string         `json:"source_url" yaml:"source_url"`
	RequestDelayMs int            `json:"request_delay_ms" yaml:"request_delay_ms"`
	Enabled        *bool          `json:"enabled" yaml:"enabled"`
	Config         map[string]any `json:"config" yaml:"config"`
}

type configFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

// Registry holds the validated providers of one file.
type Registry struct {
	index *registryfile.Index[Provider]
}

var defaultRequestDelayMs = 500

// LoadRegistry reads, sanitizes and validates the providers file.
func LoadRegistry(path string) (*Registry, error) {
	var parsed configFile
	if err := registryfile.Decode(path, "providers", &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Providers) == 0 {
		return nil, errors.New("providers file contains no providers entries")
	}

	list := make([]Provider, len(parsed.Providers))
	for i, raw := range parsed.Providers {
		p := sanitizeProvider(raw)
		if err := validateProvider(p); err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
		list[i] = p
	}
	index, err := registryfile.NewIndex("provider", list, func(p Provider) string { return p.ID })
	if err != nil {
		return nil, err
	}
	return &Registry{index: index}, nil
}

func sanitizeProvider(p Provider) Provider {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.SourceURL = strings.TrimSpace(p.SourceURL)

	if p.Name == "" {
		p.Name = p.ID
	}
	if p.Config == nil {
		p.Config = map[string]any{}
	}
	if p.RequestDelayMs <= 0 {
		p.RequestDelayMs = defaultRequestDelayMs
	}
	return p
}

func validateProvider(p Provider) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	switch p.Type {
	case TypeJSONFile, TypeJSONHTTP, TypeGoogleNews, TypeRSS:
	case "":
		return fmt.Errorf("type is required for provider %q", p.ID)
	default:
		return fmt.Errorf("unsupported type %q for provider %q", p.Type, p.ID)
	}
	if p.SourceURL == "" {
		return fmt.Errorf("source_url is required for provider %q", p.ID)
	}
	if p.Type != TypeJSONFile && !strings.HasPrefix(p.SourceURL, "http://") && !strings.HasPrefix(p.SourceURL, "https://") {
		return fmt.Errorf("source_url for provider %q must be an http(s) url", p.ID)
	}
	return nil
}

// All returns every configured provider in file order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}
	return r.index.All()
}

// Enabled returns providers that are not switched off.
func (r *Registry) Enabled() []Provider {
	if r == nil {
		return nil
	}
	return r.index.Filter(Provider.EnabledValue)
}

// ByID returns the provider entry for id.
func (r *Registry) ByID(id string) (Provider, bool) {
	if r == nil {
		return Provider{}, false
	}
	return r.index.ByID(id)
}

// EnabledValue defaults to true.
func (p Provider) EnabledValue() bool {
	if p.Enabled == nil {
		return true
	}
	return *p.Enabled
}

// RequestDelay returns the per-request throttle duration for the provider.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(p.RequestDelayMs) * time.Millisecond
}
