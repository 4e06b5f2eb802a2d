// Package store defines the versioned content store the synchronization
// workflows read from and write to.
//
// Every object is addressed by a slash-separated path and carries an opaque
// version token. Writes may name the version the caller last observed
// (IfMatch); the store rejects the write with ErrVersionConflict when the
// current version differs, and applies nothing. An empty IfMatch writes
// unconditionally, creating or replacing the object.
//
// Multi-object updates are never atomic: callers write objects one at a time
// and must tolerate a later write failing after an earlier one succeeded.
//
// Backends live in subpackages (github, gcs, localfs, sqlitestore). Memory is
// an in-process implementation used by tests and dry runs.
package store
