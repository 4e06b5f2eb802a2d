// Package textutil provides the text primitives shared by the manifest,
// document, and workflow packages.
//
// The primary use cases are:
//   - Fingerprinting narration text so stored audio can be compared against
//     the narration that is current in a slide document
//   - Escaping and unescaping narration for double-quoted HTML attributes
//
// Fingerprints are lowercase hex SHA-256 digests of the UTF-8 text. Empty text
// has no fingerprint; callers treat the zero value as "absent".
package textutil
