package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"narrate/internal/store"
)

type contentEntry struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type blobResponse struct {
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type putRequest struct {
	Message   string  `json:"message"`
	Content   string  `json:"content"`
	Branch    string  `json:"branch,omitempty"`
	SHA       string  `json:"sha,omitempty"`
	Committer *person `json:"committer,omitempty"`
}

type putResponse struct {
	Content contentEntry `json:"content"`
}

// fetch returns the contents entry for a file. Directories report ErrNotFound.
func (s *Store) fetch(ctx context.Context, objectPath string) (contentEntry, error) {
	var raw json.RawMessage
	if err := s.do(ctx, http.MethodGet, s.contentsURL(objectPath, true), nil, &raw); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return contentEntry{}, store.ErrNotFound
		}
		return contentEntry{}, err
	}
	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "[") {
		return contentEntry{}, store.ErrNotFound
	}
	var entry contentEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return contentEntry{}, fmt.Errorf("decode contents entry: %w", err)
	}
	if entry.Type != "" && entry.Type != "file" {
		return contentEntry{}, store.ErrNotFound
	}
	return entry, nil
}

func (s *Store) Read(ctx context.Context, p string) (store.Object, error) {
	cleaned, err := store.CleanPath(p)
	if err != nil {
		return store.Object{}, err
	}
	entry, err := s.fetch(ctx, cleaned)
	if err != nil {
		return store.Object{}, err
	}

	content, encoding := entry.Content, entry.Encoding
	// Files over 1 MB come back without inline content.
	if (encoding == "none" || content == "") && entry.Size > 0 {
		var blob blobResponse
		if err := s.do(ctx, http.MethodGet, s.blobURL(entry.SHA), nil, &blob); err != nil {
			return store.Object{}, fmt.Errorf("fetch blob %s: %w", entry.SHA, err)
		}
		content, encoding = blob.Content, blob.Encoding
	}

	data, err := decodeContent(content, encoding)
	if err != nil {
		return store.Object{}, fmt.Errorf("decode %s: %w", cleaned, err)
	}
	return store.Object{Path: cleaned, Content: data, Version: entry.SHA}, nil
}

func (s *Store) Stat(ctx context.Context, p string) (store.ObjectInfo, error) {
	cleaned, err := store.CleanPath(p)
	if err != nil {
		return store.ObjectInfo{}, err
	}
	entry, err := s.fetch(ctx, cleaned)
	if err != nil {
		return store.ObjectInfo{}, err
	}
	return store.ObjectInfo{Path: cleaned, Version: entry.SHA, Size: entry.Size}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]store.ObjectInfo, error) {
	dir, err := store.CleanPath(prefix)
	if err != nil {
		return nil, err
	}
	var entries []contentEntry
	if err := s.do(ctx, http.MethodGet, s.contentsURL(dir, true), nil, &entries); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]store.ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != "file" {
			continue
		}
		entryPath := entry.Path
		if entryPath == "" {
			continue
		}
		out = append(out, store.ObjectInfo{Path: entryPath, Version: entry.SHA, Size: entry.Size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *Store) Write(ctx context.Context, req store.WriteRequest) (store.ObjectInfo, error) {
	cleaned, err := store.CleanPath(req.Path)
	if err != nil {
		return store.ObjectInfo{}, err
	}
	sha := strings.TrimSpace(req.IfMatch)
	conditional := sha != ""
	if !conditional {
		// Overwriting an existing file still requires its current sha.
		info, err := s.Stat(ctx, cleaned)
		switch {
		case err == nil:
			sha = info.Version
		case errors.Is(err, store.ErrNotFound):
		default:
			return store.ObjectInfo{}, err
		}
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = "Update " + cleaned
	}
	body := putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(req.Content),
		Branch:  s.cfg.Branch,
		SHA:     sha,
	}
	if s.cfg.CommitterName != "" && s.cfg.CommitterEmail != "" {
		body.Committer = &person{Name: s.cfg.CommitterName, Email: s.cfg.CommitterEmail}
	}

	var resp putResponse
	if err := s.do(ctx, http.MethodPut, s.contentsURL(cleaned, false), body, &resp); err != nil {
		if conditional && isStatus(err, http.StatusConflict, http.StatusUnprocessableEntity, http.StatusNotFound) {
			return store.ObjectInfo{}, s.conflict(ctx, cleaned, sha, err)
		}
		if isStatus(err, http.StatusConflict) {
			return store.ObjectInfo{}, &store.ConflictError{Path: cleaned, Expected: sha}
		}
		if isStatus(err, http.StatusUnprocessableEntity) && sha == "" {
			// Lost a create race: the file appeared between Stat and PUT.
			if info, statErr := s.Stat(ctx, cleaned); statErr == nil {
				return store.ObjectInfo{}, &store.ConflictError{Path: cleaned, Current: info.Version}
			}
		}
		return store.ObjectInfo{}, err
	}
	size := resp.Content.Size
	if size == 0 {
		size = int64(len(req.Content))
	}
	return store.ObjectInfo{Path: cleaned, Version: resp.Content.SHA, Size: size}, nil
}

// conflict builds a ConflictError with the current version when it can be read.
// A 422 or 404 that is not a version mismatch is returned as is.
func (s *Store) conflict(ctx context.Context, objectPath, expected string, cause error) error {
	info, err := s.Stat(ctx, objectPath)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &store.ConflictError{Path: objectPath, Expected: expected}
	case err != nil:
		if isStatus(cause, http.StatusConflict) {
			return &store.ConflictError{Path: objectPath, Expected: expected}
		}
		return cause
	case info.Version != expected:
		return &store.ConflictError{Path: objectPath, Expected: expected, Current: info.Version}
	case isStatus(cause, http.StatusConflict):
		return &store.ConflictError{Path: objectPath, Expected: expected, Current: info.Version}
	default:
		return cause
	}
}

func decodeContent(content, encoding string) ([]byte, error) {
	switch encoding {
	case "", "base64":
		// The API wraps base64 at 60 columns.
		cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(content)
		return base64.StdEncoding.DecodeString(cleaned)
	case "utf-8":
		return []byte(content), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}
