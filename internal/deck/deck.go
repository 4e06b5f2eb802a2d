package deck

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var deckPattern = regexp.MustCompile(`^module-\d{2}$`)

// DefaultAudioExt is the extension of stored audio objects.
const DefaultAudioExt = "mp3"

// ID identifies a deck ("module-03").
type ID string

// ParseID validates a deck identifier.
func ParseID(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("deck id is required")
	}
	if !deckPattern.MatchString(raw) {
		return "", fmt.Errorf("invalid deck id %q: expected module-XX", raw)
	}
	return ID(raw), nil
}

// FromNumber builds the deck identifier for a module number (5 -> module-05).
func FromNumber(n int) (ID, error) {
	if n < 0 || n > 99 {
		return "", fmt.Errorf("invalid module number %d: expected 0-99", n)
	}
	return ID(fmt.Sprintf("module-%02d", n)), nil
}

func (id ID) String() string { return string(id) }

// ParseSlide validates a 1-based slide number supplied as text.
func ParseSlide(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid slide number %q", raw)
	}
	return n, ValidateSlide(n)
}

// ValidateSlide rejects non-positive slide numbers.
func ValidateSlide(n int) error {
	if n < 1 {
		return fmt.Errorf("invalid slide number %d: must be >= 1", n)
	}
	return nil
}

// SlideKey addresses one slide's audio within the manifest.
type SlideKey struct {
	Deck  ID
	Slide int
	Ext   string
}

// NewSlideKey validates both identifiers and returns the key.
func NewSlideKey(deckID string, slide int) (SlideKey, error) {
	id, err := ParseID(deckID)
	if err != nil {
		return SlideKey{}, err
	}
	if err := ValidateSlide(slide); err != nil {
		return SlideKey{}, err
	}
	return SlideKey{Deck: id, Slide: slide, Ext: DefaultAudioExt}, nil
}

// FileName returns "slide-NN.<ext>".
func (k SlideKey) FileName() string {
	ext := strings.TrimPrefix(strings.TrimSpace(k.Ext), ".")
	if ext == "" {
		ext = DefaultAudioExt
	}
	return fmt.Sprintf("slide-%02d.%s", k.Slide, ext)
}

// String returns the canonical manifest key "<deck>/slide-NN.<ext>".
func (k SlideKey) String() string {
	return path.Join(string(k.Deck), k.FileName())
}
