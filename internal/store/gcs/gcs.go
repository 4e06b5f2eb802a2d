// Package gcs implements store.Store on a Google Cloud Storage bucket.
// Versions are object generations and conditional writes use generation
// preconditions, so a stale write fails with 412 and nothing is applied.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"narrate/internal/store"
)

// Config selects the bucket and optional object prefix.
type Config struct {
	Bucket string
	// Prefix is prepended to every object path, allowing one bucket to hold
	// several course repositories.
	Prefix string
	// CredentialsFile or inline JSON credentials. Empty uses application
	// default credentials.
	Credentials string
	// EmulatorHost points the client at a fake-gcs-server style emulator.
	EmulatorHost string
}

// Store is a bucket-backed store.Store.
type Store struct {
	client  *storage.Client
	bucket  *storage.BucketHandle
	prefix  string
	timeout time.Duration
}

// New opens a storage client for cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return NewWithClient(client, bucket, cfg.Prefix), nil
}

// NewWithClient wraps an existing storage client.
func NewWithClient(client *storage.Client, bucket, prefix string) *Store {
	return &Store{
		client:  client,
		bucket:  client.Bucket(bucket),
		prefix:  strings.Trim(strings.TrimSpace(prefix), "/"),
		timeout: 2 * time.Minute,
	}
}

// Close releases the storage client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func clientOptions(cfg Config) []option.ClientOption {
	if endpoint := emulatorEndpoint(cfg.EmulatorHost); endpoint != "" {
		return []option.ClientOption{option.WithEndpoint(endpoint), option.WithoutAuthentication()}
	}
	creds := strings.TrimSpace(cfg.Credentials)
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	switch {
	case creds == "":
	case strings.HasPrefix(creds, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	default:
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return opts
}

// emulatorEndpoint turns a host such as "localhost:4443" into the JSON API
// base URL of a storage emulator.
func emulatorEndpoint(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return host + "/storage/v1/"
}

func (s *Store) objectName(cleaned string) string {
	if s.prefix == "" {
		return cleaned
	}
	return s.prefix + "/" + cleaned
}

func (s *Store) storePath(name string) string {
	if s.prefix == "" {
		return name
	}
	return strings.TrimPrefix(name, s.prefix+"/")
}

func (s *Store) Read(ctx context.Context, p string) (store.Object, error) {
	cleaned, err := store.CleanPath(p)
	if err != nil {
		return store.Object{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reader, err := s.bucket.Object(s.objectName(cleaned)).NewReader(ctx)
	if err != nil {
		return store.Object{}, mapError(cleaned, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return store.Object{}, fmt.Errorf("read %s: %w", cleaned, err)
	}
	return store.Object{Path: cleaned, Content: data, Version: FormatGeneration(reader.Attrs.Generation)}, nil
}

func (s *Store) Stat(ctx context.Context, p string) (store.ObjectInfo, error) {
	cleaned, err := store.CleanPath(p)
	if err != nil {
		return store.ObjectInfo{}, err
	}
	attrs, err := s.bucket.Object(s.objectName(cleaned)).Attrs(ctx)
	if err != nil {
		return store.ObjectInfo{}, mapError(cleaned, err)
	}
	return store.ObjectInfo{Path: cleaned, Version: FormatGeneration(attrs.Generation), Size: attrs.Size}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]store.ObjectInfo, error) {
	dir, err := store.CleanPath(prefix)
	if err != nil {
		return nil, err
	}
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.objectName(dir) + "/", Delimiter: "/"})
	var out []store.ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		if attrs.Prefix != "" {
			continue
		}
		name := s.storePath(attrs.Name)
		if path.Dir(name) != dir {
			continue
		}
		out = append(out, store.ObjectInfo{Path: name, Version: FormatGeneration(attrs.Generation), Size: attrs.Size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *Store) Write(ctx context.Context, req store.WriteRequest) (store.ObjectInfo, error) {
	cleaned, err := store.CleanPath(req.Path)
	if err != nil {
		return store.ObjectInfo{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	obj := s.bucket.Object(s.objectName(cleaned))
	ifMatch := strings.TrimSpace(req.IfMatch)
	if ifMatch != "" {
		generation, err := ParseGeneration(ifMatch)
		if err != nil {
			return store.ObjectInfo{}, &store.ConflictError{Path: cleaned, Expected: ifMatch, Current: s.currentVersion(ctx, obj)}
		}
		obj = obj.If(storage.Conditions{GenerationMatch: generation})
	}

	w := obj.NewWriter(ctx)
	w.ContentType = contentTypeFor(cleaned)
	if msg := strings.TrimSpace(req.Message); msg != "" {
		w.Metadata = map[string]string{"message": msg}
	}
	if _, err := w.Write(req.Content); err != nil {
		_ = w.Close()
		return store.ObjectInfo{}, s.writeError(ctx, cleaned, ifMatch, err)
	}
	if err := w.Close(); err != nil {
		return store.ObjectInfo{}, s.writeError(ctx, cleaned, ifMatch, err)
	}
	attrs := w.Attrs()
	return store.ObjectInfo{Path: cleaned, Version: FormatGeneration(attrs.Generation), Size: attrs.Size}, nil
}

func (s *Store) writeError(ctx context.Context, cleaned, ifMatch string, err error) error {
	if ifMatch != "" && IsPreconditionFailed(err) {
		current := s.currentVersion(ctx, s.bucket.Object(s.objectName(cleaned)))
		return &store.ConflictError{Path: cleaned, Expected: ifMatch, Current: current}
	}
	return fmt.Errorf("write %s: %w", cleaned, err)
}

func (s *Store) currentVersion(ctx context.Context, obj *storage.ObjectHandle) string {
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return ""
	}
	return FormatGeneration(attrs.Generation)
}

// FormatGeneration renders a generation as a version token.
func FormatGeneration(generation int64) string {
	return strconv.FormatInt(generation, 10)
}

// ParseGeneration parses a version token produced by FormatGeneration.
func ParseGeneration(version string) (int64, error) {
	generation, err := strconv.ParseInt(strings.TrimSpace(version), 10, 64)
	if err != nil || generation <= 0 {
		return 0, fmt.Errorf("invalid generation %q", version)
	}
	return generation, nil
}

// IsPreconditionFailed reports a 412 from the storage API.
func IsPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}

func mapError(cleaned string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return store.ErrNotFound
	}
	return fmt.Errorf("gcs %s: %w", cleaned, err)
}

func contentTypeFor(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".mp3":
		return "audio/mpeg"
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
