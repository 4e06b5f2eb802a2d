package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"narrate/internal/services"
	"narrate/internal/textutil"
)

// Origin records who produced a slide's audio.
type Origin string

const (
	OriginCustom    Origin = "custom"
	OriginGenerated Origin = "generated"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	return o == OriginCustom || o == OriginGenerated
}

// Entry is the normalized manifest record for one slide.
type Entry struct {
	Origin Origin
	// Fingerprint identifies the narration the audio was produced from. Empty
	// means unknown.
	Fingerprint textutil.Fingerprint
	RecordedAt  *time.Time
	EditedAt    *time.Time
}

// Protected reports whether the audio was recorded by a human and must not be
// replaced by synthesis.
func (e Entry) Protected() bool {
	return e.Origin == OriginCustom
}

// WithEdit returns a copy of e stamped with an edit time. The fingerprint is
// left alone so the classifier can report the audio as outdated.
func (e Entry) WithEdit(at time.Time) Entry {
	stamp := at.UTC()
	e.EditedAt = &stamp
	return e
}

// StructuredEntry is the JSON object form of an entry.
type StructuredEntry struct {
	Origin       string     `json:"origin,omitempty"`
	Custom       *bool      `json:"custom,omitempty"`
	TextHash     string     `json:"textHash,omitempty"`
	Hash         string     `json:"hash,omitempty"`
	RecordedAt   *time.Time `json:"recordedAt,omitempty"`
	TextEditedAt *time.Time `json:"textEditedAt,omitempty"`
}

// RawEntry is an entry as found on the wire: exactly one of Legacy or
// Structured is set after decoding.
type RawEntry struct {
	Legacy     *string
	Structured *StructuredEntry
}

// UnmarshalJSON accepts a string (legacy) or an object (structured).
func (r *RawEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty entry", services.ErrCorruptManifest)
	}
	switch trimmed[0] {
	case '"':
		var legacy string
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return fmt.Errorf("%w: legacy entry: %w", services.ErrCorruptManifest, err)
		}
		*r = RawEntry{Legacy: &legacy}
		return nil
	case '{':
		var structured StructuredEntry
		if err := json.Unmarshal(trimmed, &structured); err != nil {
			return fmt.Errorf("%w: structured entry: %w", services.ErrCorruptManifest, err)
		}
		*r = RawEntry{Structured: &structured}
		return nil
	default:
		return fmt.Errorf("%w: unsupported entry %s", services.ErrCorruptManifest, truncate(trimmed))
	}
}

// Normalize converts either wire form into an Entry.
func Normalize(raw RawEntry) (Entry, error) {
	switch {
	case raw.Legacy != nil:
		return Entry{Origin: OriginGenerated, Fingerprint: textutil.Fingerprint(*raw.Legacy)}, nil
	case raw.Structured != nil:
		s := raw.Structured
		origin := Origin(s.Origin)
		if s.Origin == "" {
			origin = OriginGenerated
			if s.Custom != nil && *s.Custom {
				origin = OriginCustom
			}
		}
		if !origin.Valid() {
			return Entry{}, fmt.Errorf("%w: unknown origin %q", services.ErrCorruptManifest, s.Origin)
		}
		fp := s.TextHash
		if fp == "" {
			fp = s.Hash
		}
		return Entry{
			Origin:      origin,
			Fingerprint: textutil.Fingerprint(fp),
			RecordedAt:  s.RecordedAt,
			EditedAt:    s.TextEditedAt,
		}, nil
	default:
		return Entry{}, fmt.Errorf("%w: empty entry", services.ErrCorruptManifest)
	}
}

func (e Entry) structured() StructuredEntry {
	custom := e.Origin == OriginCustom
	return StructuredEntry{
		Origin:       string(e.Origin),
		Custom:       &custom,
		TextHash:     e.Fingerprint.String(),
		RecordedAt:   e.RecordedAt,
		TextEditedAt: e.EditedAt,
	}
}

func truncate(data []byte) string {
	const limit = 32
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}
