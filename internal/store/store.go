package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrNotFound        = errors.New("object not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrInvalidPath     = errors.New("invalid object path")
)

// ConflictError reports a rejected compare-and-swap write.
type ConflictError struct {
	Path     string
	Expected string
	Current  string
}

func (e *ConflictError) Error() string {
	current := e.Current
	if current == "" {
		current = "<missing>"
	}
	return fmt.Sprintf("version conflict on %s: expected %s, current %s", e.Path, e.Expected, current)
}

// Is lets errors.Is match ErrVersionConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// Object is a stored object with its content.
type Object struct {
	Path    string
	Content []byte
	Version string
}

// ObjectInfo describes an object without its content.
type ObjectInfo struct {
	Path    string
	Version string
	Size    int64
}

// WriteRequest describes a single object write.
type WriteRequest struct {
	Path    string
	Content []byte
	// IfMatch is the version the caller last read. Empty writes unconditionally.
	IfMatch string
	// Message is recorded by backends with commit history.
	Message string
}

// Store is a path-addressed content store with version tokens.
type Store interface {
	Read(ctx context.Context, path string) (Object, error)
	Stat(ctx context.Context, path string) (ObjectInfo, error)
	// List returns the objects directly under prefix (non-recursive).
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Write(ctx context.Context, req WriteRequest) (ObjectInfo, error)
}

// CleanPath normalizes an object path and rejects paths escaping the root.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}

// BlobVersion returns the git blob SHA-1 of content, the version token used by
// backends that derive versions from content.
func BlobVersion(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// CheckPrecondition validates an IfMatch token against the current version.
// current is empty when the object does not exist.
func CheckPrecondition(objectPath, ifMatch, current string) error {
	if ifMatch == "" || ifMatch == current {
		return nil
	}
	return &ConflictError{Path: objectPath, Expected: ifMatch, Current: current}
}
