// Package document locates slide markers in a deck's HTML and rewrites their
// narration attribute in place.
//
// A slide marker is an opening <section> tag whose class attribute contains
// the token "slide". Markers are addressed by 1-based position in document
// order. Patching touches only bytes inside the addressed marker; everything
// else in the document is copied verbatim.
package document
