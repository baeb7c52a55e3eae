package rbac

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var embeddedFallback []byte

// FallbackEntry is one conceptual role of the fallback table.
type FallbackEntry struct {
	Name        string   `yaml:"name"`
	Aliases     []string `yaml:"aliases"`
	Permissions []string `yaml:"permissions"`
}

type fallbackDocument struct {
	Default []string        `yaml:"default"`
	Roles   []FallbackEntry `yaml:"roles"`
}

// FallbackTable maps normalized role aliases to static permission sets.
// It is immutable once built.
type FallbackTable struct {
	entries  []FallbackEntry
	byAlias  map[string]int
	defaults []string
}

// NewFallbackTable validates entries and builds the alias index.
func NewFallbackTable(entries []FallbackEntry, defaults []string) (*FallbackTable, error) {
	defaultSet, err := normalizeKeySet(defaults)
	if err != nil {
		return nil, &InternalError{Op: "fallback table default", Err: err}
	}
	if len(defaultSet) == 0 {
		return nil, &InternalError{Op: "fallback table", Err: errors.New("default permission set is empty")}
	}
	t := &FallbackTable{
		entries:  make([]FallbackEntry, 0, len(entries)),
		byAlias:  make(map[string]int),
		defaults: defaultSet,
	}
	for _, e := range entries {
		perms, err := normalizeKeySet(e.Permissions)
		if err != nil {
			return nil, &InternalError{Op: "fallback entry " + e.Name, Err: err}
		}
		idx := len(t.entries)
		aliases := append([]string{e.Name}, e.Aliases...)
		normalized := make([]string, 0, len(aliases))
		for _, alias := range aliases {
			key := NormalizeAlias(alias)
			if key == "" {
				continue
			}
			if prev, ok := t.byAlias[key]; ok {
				if prev == idx {
					continue
				}
				return nil, &InternalError{
					Op:  "fallback table",
					Err: fmt.Errorf("alias %q claimed by %q and %q", key, t.entries[prev].Name, e.Name),
				}
			}
			t.byAlias[key] = idx
			normalized = append(normalized, key)
		}
		t.entries = append(t.entries, FallbackEntry{Name: e.Name, Aliases: normalized, Permissions: perms})
	}
	return t, nil
}

// ParseFallbackTable decodes a YAML fallback document.
func ParseFallbackTable(data []byte) (*FallbackTable, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc fallbackDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, &InternalError{Op: "decode fallback table", Err: err}
	}
	return NewFallbackTable(doc.Roles, doc.Default)
}

// LoadFallbackTable reads a YAML fallback document from disk.
func LoadFallbackTable(path string) (*FallbackTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rbac: read fallback table: %w", err)
	}
	return ParseFallbackTable(data)
}

// DefaultFallbackTable returns the table bundled with the binary.
func DefaultFallbackTable() (*FallbackTable, error) {
	return ParseFallbackTable(embeddedFallback)
}

// Lookup returns the fallback permissions for a role display name. matched
// is false when the default set was used.
func (t *FallbackTable) Lookup(displayName string) (perms []string, matched bool, err error) {
	if t == nil || len(t.defaults) == 0 {
		return nil, false, &InternalError{Op: "fallback lookup", Err: errors.New("fallback table not configured")}
	}
	if idx, ok := t.byAlias[NormalizeAlias(displayName)]; ok {
		return cloneKeys(t.entries[idx].Permissions), true, nil
	}
	return cloneKeys(t.defaults), false, nil
}

// Defaults returns the permission set used for unmatched roles.
func (t *FallbackTable) Defaults() []string {
	return cloneKeys(t.defaults)
}

// Entries returns the table contents with normalized aliases.
func (t *FallbackTable) Entries() []FallbackEntry {
	out := make([]FallbackEntry, len(t.entries))
	for i, e := range t.entries {
		out[i] = FallbackEntry{Name: e.Name, Aliases: cloneKeys(e.Aliases), Permissions: cloneKeys(e.Permissions)}
	}
	return out
}

// UnknownKeys lists fallback keys that are absent from the catalog.
func (t *FallbackTable) UnknownKeys(catalog *Catalog) []string {
	seen := make(map[string]struct{})
	var unknown []string
	check := func(keys []string) {
		for _, k := range keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if !catalog.Has(k) {
				unknown = append(unknown, k)
			}
		}
	}
	check(t.defaults)
	for _, e := range t.entries {
		check(e.Permissions)
	}
	sort.Strings(unknown)
	return unknown
}

func cloneKeys(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}
