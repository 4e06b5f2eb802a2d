package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"narrate/internal/deck"
	"narrate/internal/services"
)

const entriesField = "generated"

// Manifest is an immutable view of the manifest. Upsert returns a new value.
type Manifest struct {
	entries map[string]Entry
	// extra holds top-level fields other than "generated", written back as is.
	extra map[string]json.RawMessage
}

// Empty returns a manifest with no entries.
func Empty() Manifest {
	return Manifest{}
}

// Get returns the entry for key.
func (m Manifest) Get(key deck.SlideKey) (Entry, bool) {
	e, ok := m.entries[key.String()]
	return e, ok
}

// Lookup returns the entry for a raw key string.
func (m Manifest) Lookup(key string) (Entry, bool) {
	e, ok := m.entries[key]
	return e, ok
}

// Upsert returns a copy of m with key set to entry. m is not modified.
func (m Manifest) Upsert(key deck.SlideKey, entry Entry) Manifest {
	next := make(map[string]Entry, len(m.entries)+1)
	for k, v := range m.entries {
		next[k] = v
	}
	next[key.String()] = entry
	return Manifest{entries: next, extra: m.extra}
}

// Len returns the number of entries.
func (m Manifest) Len() int {
	return len(m.entries)
}

// Keys returns the entry keys in sorted order.
func (m Manifest) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode parses manifest JSON. Blank input decodes to an empty manifest.
func Decode(data []byte) (Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Empty(), nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", services.ErrCorruptManifest, err)
	}
	if top == nil {
		return Manifest{}, fmt.Errorf("%w: manifest is not an object", services.ErrCorruptManifest)
	}

	m := Manifest{entries: make(map[string]Entry)}
	for field, value := range top {
		if field == entriesField {
			continue
		}
		if m.extra == nil {
			m.extra = make(map[string]json.RawMessage)
		}
		m.extra[field] = value
	}

	rawEntries, ok := top[entriesField]
	if !ok || bytes.Equal(bytes.TrimSpace(rawEntries), []byte("null")) {
		return m, nil
	}
	var raw map[string]RawEntry
	if err := json.Unmarshal(rawEntries, &raw); err != nil {
		if errors.Is(err, services.ErrCorruptManifest) {
			return Manifest{}, fmt.Errorf("%s: %w", entriesField, err)
		}
		return Manifest{}, fmt.Errorf("%w: %s: %w", services.ErrCorruptManifest, entriesField, err)
	}
	for key, value := range raw {
		entry, err := Normalize(value)
		if err != nil {
			return Manifest{}, fmt.Errorf("entry %s: %w", key, err)
		}
		m.entries[key] = entry
	}
	return m, nil
}

// Encode renders m as two-space indented JSON with sorted keys and a
// trailing newline. Entries are always written in the structured form.
func (m Manifest) Encode() ([]byte, error) {
	top := make(map[string]any, len(m.extra)+1)
	for field, value := range m.extra {
		top[field] = value
	}
	entries := make(map[string]StructuredEntry, len(m.entries))
	for key, entry := range m.entries {
		entries[key] = entry.structured()
	}
	top[entriesField] = entries

	data, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}
