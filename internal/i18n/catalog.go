// Package i18n provides YAML-backed string catalogs. Keys are the English
// source strings, so a missing translation falls back to readable text.
package i18n

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Catalog maps source strings to one language's translations. It is
// read-only after construction and safe for concurrent use.
type Catalog struct {
	lang    string
	entries map[string]string
}

// New creates a Catalog from entries.
func New(lang string, entries map[string]string) *Catalog {
	c := &Catalog{lang: lang, entries: make(map[string]string, len(entries))}
	for k, v := range entries {
		c.entries[k] = v
	}
	return c
}

// Load reads <dir>/<lang>.yaml, a flat mapping of source string to
// translation. A missing file yields an empty catalog.
//
// Precondition: lang must be non-empty.
// Postcondition: Returns a non-nil Catalog, or an error if the file exists
// but cannot be parsed.
func Load(dir, lang string) (*Catalog, error) {
	path := filepath.Join(dir, lang+".yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(lang, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog %q: %w", path, err)
	}
	var entries map[string]string
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing catalog %q: %w", path, err)
	}
	return New(lang, entries), nil
}

// Language returns the catalog's language tag.
func (c *Catalog) Language() string { return c.lang }

// Len returns the number of translations.
func (c *Catalog) Len() int { return len(c.entries) }

// Translate returns the translation of key, or key itself when none exists.
// A nil Catalog translates nothing.
func (c *Catalog) Translate(key string) string {
	if c == nil {
		return key
	}
	if v, ok := c.entries[key]; ok && v != "" {
		return v
	}
	return key
}
