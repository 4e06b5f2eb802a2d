// Package deck validates deck and slide identifiers and derives the canonical
// store paths for a slide.
//
// Decks are named "module-NN". Slides are addressed by their 1-based position
// in the deck document. A SlideKey renders as "<deck>/slide-<NN>.<ext>", the
// key used by the audio manifest, and the Layout type maps decks and keys to
// store paths (document, audio object, manifest).
package deck
