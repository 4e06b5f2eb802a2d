package workflow

import (
	"time"

	"narrate/internal/deck"
	"narrate/internal/manifest"
	"narrate/internal/staleness"
	"narrate/internal/textutil"
)

// RecordingRequest uploads a human recording for one slide.
type RecordingRequest struct {
	Deck  string
	Slide int
	Audio []byte
	// Narration is the text the recording was made against. Nil records no
	// fingerprint, which lists as unverified until the next save.
	Narration *string
}

// RecordingResult describes a completed SaveRecording.
type RecordingResult struct {
	Key             deck.SlideKey
	AudioPath       string
	AudioVersion    string
	AudioBytes      int
	Fingerprint     textutil.Fingerprint
	ManifestUpdated bool
	ManifestVersion string
	// Warning is set when the audio was stored but the manifest was not.
	Warning string
}

// TextResult describes a completed SaveNarrationText.
type TextResult struct {
	Key             deck.SlideKey
	DocumentPath    string
	DocumentVersion string
	// Changed is false when the slide already carried the text; nothing was
	// written in that case.
	Changed         bool
	Previous        string
	HadPrevious     bool
	Fingerprint     textutil.Fingerprint
	ManifestUpdated bool
	Warning         string
}

// GenerateStatus is the per-slide outcome of generation.
type GenerateStatus string

const (
	StatusGenerated   GenerateStatus = "generated"
	StatusUnchanged   GenerateStatus = "unchanged"
	StatusProtected   GenerateStatus = "protected"
	StatusNoNarration GenerateStatus = "no_narration"
	StatusFailed      GenerateStatus = "failed"
)

// GenerateResult describes one GenerateAudio outcome.
type GenerateResult struct {
	Key             deck.SlideKey
	Status          GenerateStatus
	Fingerprint     textutil.Fingerprint
	AudioPath       string
	AudioVersion    string
	AudioBytes      int
	ManifestUpdated bool
	Warning         string
	// Synthesized reports whether the provider was called.
	Synthesized bool
	// Error is the failure message for StatusFailed entries in a batch.
	Error string
}

// BatchSummary aggregates GenerateDeck.
type BatchSummary struct {
	Deck        deck.ID
	VoiceID     string
	Slides      []GenerateResult
	Generated   int
	Unchanged   int
	Protected   int
	NoNarration int
	Failed      int
}

func (b *BatchSummary) add(result GenerateResult) {
	b.Slides = append(b.Slides, result)
	switch result.Status {
	case StatusGenerated:
		b.Generated++
	case StatusUnchanged:
		b.Unchanged++
	case StatusProtected:
		b.Protected++
	case StatusNoNarration:
		b.NoNarration++
	case StatusFailed:
		b.Failed++
	}
}

// SlideStatus is one row of ListSlides.
type SlideStatus struct {
	Index        int
	Key          string
	AudioPath    string
	Narration    string
	HasNarration bool
	AudioExists  bool
	Status       staleness.Verdict
	HasEntry     bool
	Origin       manifest.Origin
	Fingerprint  textutil.Fingerprint
	RecordedAt   *time.Time
	EditedAt     *time.Time
}

// ModuleSummary is one row of ListModules.
type ModuleSummary struct {
	Deck          deck.ID
	Slides        int
	WithNarration int
	WithAudio     int
	Current       int
	Outdated      int
	Unverified    int
	None          int
}

func (m *ModuleSummary) add(slide SlideStatus) {
	m.Slides++
	if slide.HasNarration {
		m.WithNarration++
	}
	if slide.AudioExists {
		m.WithAudio++
	}
	switch slide.Status {
	case staleness.Current:
		m.Current++
	case staleness.Outdated:
		m.Outdated++
	case staleness.Unverified:
		m.Unverified++
	default:
		m.None++
	}
}
