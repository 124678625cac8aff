// Package registryfile reads the YAML or JSON files that declare providers
// and publishers, and indexes their entries by id.
package registryfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type decoder struct {
	name string
	fn   func([]byte, any) error
}

var (
	yamlDecoder = decoder{name: "yaml", fn: yaml.Unmarshal}
	jsonDecoder = decoder{name: "json", fn: json.Unmarshal}
)

// Decode reads the file at path into out. The extension picks the format;
// other extensions are tried as YAML, then JSON. ${VAR} references are
// replaced from the environment first, and an unset variable is an error.
func Decode(path, kind string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%s file path is empty", kind)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s file: %w", kind, err)
	}
	expanded, err := ExpandEnv(raw)
	if err != nil {
		return fmt.Errorf("%s file %s: %w", kind, path, err)
	}

	var decoders []decoder
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoders = []decoder{yamlDecoder}
	case ".json":
		decoders = []decoder{jsonDecoder}
	default:
		decoders = []decoder{yamlDecoder, jsonDecoder}
	}

	var errs []error
	for _, d := range decoders {
		err := d.fn(expanded, out)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("decode %s %s: %w", d.name, kind, err))
	}
	return errors.Join(errs...)
}

// ExpandEnv replaces ${VAR} references with environment values. Bare $VAR
// is left alone so URLs and regexps survive untouched.
func ExpandEnv(data []byte) ([]byte, error) {
	missing := map[string]struct{}{}
	out := envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := string(envRef.FindSubmatch(m)[1])
		val, ok := os.LookupEnv(name)
		if !ok {
			missing[name] = struct{}{}
			return m
		}
		return []byte(val)
	})
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unset environment variables: %s", strings.Join(names, ", "))
	}
	return out, nil
}

// Index holds validated entries in file order plus an id lookup. It is
// read-only after construction.
type Index[T any] struct {
	items []T
	byID  map[string]T
}

// NewIndex indexes items by id, rejecting empty and duplicate ids.
func NewIndex[T any](kind string, items []T, id func(T) string) (*Index[T], error) {
	idx := &Index[T]{items: items, byID: make(map[string]T, len(items))}
	for i, it := range items {
		key := id(it)
		if key == "" {
			return nil, fmt.Errorf("%s[%d]: id is required", kind, i)
		}
		if _, dup := idx.byID[key]; dup {
			return nil, fmt.Errorf("duplicate %s id %q", kind, key)
		}
		idx.byID[key] = it
	}
	return idx, nil
}

// ByID looks up an entry by its trimmed id.
func (x *Index[T]) ByID(id string) (T, bool) {
	var zero T
	if x == nil {
		return zero, false
	}
	it, ok := x.byID[strings.TrimSpace(id)]
	return it, ok
}

// All returns a copy of every entry in file order.
func (x *Index[T]) All() []T {
	if x == nil {
		return nil
	}
	out := make([]T, len(x.items))
	copy(out, x.items)
	return out
}

// Filter returns the entries keep accepts, in file order.
func (x *Index[T]) Filter(keep func(T) bool) []T {
	if x == nil {
		return nil
	}
	var out []T
	for _, it := range x.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
