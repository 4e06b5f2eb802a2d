// Package staleness classifies a slide's audio against its current
// narration text.
package staleness

import (
	"narrate/internal/manifest"
	"narrate/internal/textutil"
)

// Verdict is the derived audio status of a slide.
type Verdict string

const (
	// None means no audio object exists.
	None Verdict = "none"
	// Current means the audio matches the narration, or there is no narration
	// to compare against.
	Current Verdict = "current"
	// Outdated means the narration changed after the audio was produced.
	Outdated Verdict = "outdated"
	// Unverified means audio exists but nothing records what text it matches.
	Unverified Verdict = "unverified"
)

// Input is everything the classifier looks at.
type Input struct {
	ArtifactExists bool
	Entry          *manifest.Entry
	Current        textutil.Fingerprint
}

// Classify applies the decision table top-down; the first matching rule wins.
func Classify(in Input) Verdict {
	switch {
	case !in.ArtifactExists:
		return None
	case in.Entry == nil:
		return Unverified
	case in.Current.IsZero():
		return Current
	case in.Entry.Fingerprint == in.Current:
		return Current
	case !in.Entry.Fingerprint.IsZero():
		return Outdated
	default:
		return Unverified
	}
}

// NeedsAttention reports verdicts an author should act on.
func (v Verdict) NeedsAttention() bool {
	return v == Outdated || v == Unverified
}
