package store

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	objects map[string]Object
	writes  []WriteRequest

	// FailWrite, when set, is consulted before every write; a non-nil error
	// aborts the write without applying it.
	FailWrite func(req WriteRequest) error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

// Put seeds an object without recording a write.
func (m *Memory) Put(p string, content []byte) string {
	cleaned, err := CleanPath(p)
	if err != nil {
		panic(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	version := BlobVersion(content)
	m.objects[cleaned] = Object{Path: cleaned, Content: append([]byte(nil), content...), Version: version}
	return version
}

// Writes returns the successful writes applied so far, in order.
func (m *Memory) Writes() []WriteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WriteRequest, len(m.writes))
	copy(out, m.writes)
	return out
}

// WritesTo counts successful writes to the given path.
func (m *Memory) WritesTo(p string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, w := range m.writes {
		if w.Path == p {
			count++
		}
	}
	return count
}

func (m *Memory) Read(ctx context.Context, p string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	cleaned, err := CleanPath(p)
	if err != nil {
		return Object{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[cleaned]
	if !ok {
		return Object{}, ErrNotFound
	}
	obj.Content = append([]byte(nil), obj.Content...)
	return obj, nil
}

func (m *Memory) Stat(ctx context.Context, p string) (ObjectInfo, error) {
	obj, err := m.Read(ctx, p)
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{Path: obj.Path, Version: obj.Version, Size: int64(len(obj.Content))}, nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := CleanPath(prefix)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for p, obj := range m.objects {
		if path.Dir(p) != dir {
			continue
		}
		out = append(out, ObjectInfo{Path: p, Version: obj.Version, Size: int64(len(obj.Content))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *Memory) Write(ctx context.Context, req WriteRequest) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	cleaned, err := CleanPath(req.Path)
	if err != nil {
		return ObjectInfo{}, err
	}
	req.Path = cleaned
	req.IfMatch = strings.TrimSpace(req.IfMatch)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrite != nil {
		if err := m.FailWrite(req); err != nil {
			return ObjectInfo{}, err
		}
	}
	current := m.objects[cleaned].Version
	if err := CheckPrecondition(cleaned, req.IfMatch, current); err != nil {
		return ObjectInfo{}, err
	}
	version := BlobVersion(req.Content)
	m.objects[cleaned] = Object{Path: cleaned, Content: append([]byte(nil), req.Content...), Version: version}
	req.Content = append([]byte(nil), req.Content...)
	m.writes = append(m.writes, req)
	return ObjectInfo{Path: cleaned, Version: version, Size: int64(len(req.Content))}, nil
}
