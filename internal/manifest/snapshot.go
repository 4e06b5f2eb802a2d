package manifest

import (
	"context"
	"errors"
	"fmt"

	"narrate/internal/store"
)

// Snapshot is a manifest together with the store version it was read at.
// Version is empty when the manifest did not exist.
type Snapshot struct {
	Manifest Manifest
	Version  string
}

// Exists reports whether the manifest was present in the store.
func (s Snapshot) Exists() bool {
	return s.Version != ""
}

// Load reads and decodes the manifest. A missing manifest is an empty one.
func Load(ctx context.Context, st store.Store, path string) (Snapshot, error) {
	obj, err := st.Read(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		return Snapshot{Manifest: Empty()}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Decode(obj.Content)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Manifest: m, Version: obj.Version}, nil
}

// Save writes m guarded by expectedVersion and returns the new version. An
// empty expectedVersion writes unconditionally, which is how the first
// manifest is created.
func Save(ctx context.Context, st store.Store, path string, m Manifest, expectedVersion, message string) (string, error) {
	data, err := m.Encode()
	if err != nil {
		return "", err
	}
	info, err := st.Write(ctx, store.WriteRequest{
		Path:    path,
		Content: data,
		IfMatch: expectedVersion,
		Message: message,
	})
	if err != nil {
		return "", err
	}
	return info.Version, nil
}
