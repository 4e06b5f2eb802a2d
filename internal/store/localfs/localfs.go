// Package localfs stores objects as files under a root directory. Versions
// are git blob hashes of file content, so a working copy of the course
// repository behaves like the remote backend. Writes hold an advisory file
// lock to serialize the read-compare-write sequence across processes.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"narrate/internal/fileutil"
	"narrate/internal/store"
)

const (
	lockFileName   = ".narrate.lock"
	lockRetryDelay = 25 * time.Millisecond
)

// Store is a filesystem-backed store.Store.
type Store struct {
	root string
	// mu serializes writers in this process; flock is reentrant per handle.
	mu   sync.Mutex
	lock *flock.Flock
}

// New returns a store rooted at dir. The directory must exist.
func New(dir string) (*Store, error) {
	root, err := filepath.Abs(strings.TrimSpace(dir))
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store root %s is not a directory", root)
	}
	return &Store{root: root, lock: flock.New(filepath.Join(root, lockFileName))}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) resolve(p string) (string, string, error) {
	cleaned, err := store.CleanPath(p)
	if err != nil {
		return "", "", err
	}
	return cleaned, filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

func (s *Store) Read(ctx context.Context, p string) (store.Object, error) {
	if err := ctx.Err(); err != nil {
		return store.Object{}, err
	}
	cleaned, full, err := s.resolve(p)
	if err != nil {
		return store.Object{}, err
	}
	data, err := readRegular(full)
	if err != nil {
		return store.Object{}, err
	}
	return store.Object{Path: cleaned, Content: data, Version: store.BlobVersion(data)}, nil
}

func (s *Store) Stat(ctx context.Context, p string) (store.ObjectInfo, error) {
	obj, err := s.Read(ctx, p)
	if err != nil {
		return store.ObjectInfo{}, err
	}
	return store.ObjectInfo{Path: obj.Path, Version: obj.Version, Size: int64(len(obj.Content))}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]store.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cleaned, full, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", cleaned, err)
	}
	var out []store.ObjectInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		objectPath := cleaned + "/" + name
		data, err := readRegular(filepath.Join(full, name))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, store.ObjectInfo{Path: objectPath, Version: store.BlobVersion(data), Size: int64(len(data))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *Store) Write(ctx context.Context, req store.WriteRequest) (store.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return store.ObjectInfo{}, err
	}
	cleaned, full, err := s.resolve(req.Path)
	if err != nil {
		return store.ObjectInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return store.ObjectInfo{}, fmt.Errorf("acquire store lock: %w", err)
	}
	if !locked {
		return store.ObjectInfo{}, fmt.Errorf("acquire store lock: %w", ctx.Err())
	}
	defer func() { _ = s.lock.Unlock() }()

	current := ""
	if existing, err := readRegular(full); err == nil {
		current = store.BlobVersion(existing)
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.ObjectInfo{}, err
	}
	if err := store.CheckPrecondition(cleaned, strings.TrimSpace(req.IfMatch), current); err != nil {
		return store.ObjectInfo{}, err
	}
	if err := fileutil.WriteFileVerified(full, req.Content, 0o644); err != nil {
		return store.ObjectInfo{}, fmt.Errorf("write %s: %w", cleaned, err)
	}
	return store.ObjectInfo{Path: cleaned, Version: store.BlobVersion(req.Content), Size: int64(len(req.Content))}, nil
}

func readRegular(full string) ([]byte, error) {
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, store.ErrNotFound
	}
	return os.ReadFile(full)
}
