// Package github implements store.Store on the GitHub contents API. Object
// versions are blob SHAs and a write that names a stale SHA is rejected by
// GitHub with 409, which surfaces as store.ErrVersionConflict.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
	maxErrorBody   = 4096
)

// HTTPDoer abstracts http.Client for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config describes the repository the store reads and writes.
type Config struct {
	Token   string
	Owner   string
	Repo    string
	Branch  string
	BaseURL string
	// Committer is optional; GitHub attributes commits to the token owner when empty.
	CommitterName  string
	CommitterEmail string
}

// Option customizes the client.
type Option func(*Store)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client HTTPDoer) Option {
	return func(s *Store) {
		if client != nil {
			s.client = client
		}
	}
}

// Store talks to one branch of one repository.
type Store struct {
	cfg    Config
	client HTTPDoer
}

// New validates cfg and returns a Store.
func New(cfg Config, opts ...Option) (*Store, error) {
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.Owner = strings.TrimSpace(cfg.Owner)
	cfg.Repo = strings.TrimSpace(cfg.Repo)
	cfg.Branch = strings.TrimSpace(cfg.Branch)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.Token == "" {
		return nil, errors.New("github token is required")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("github repository must be owner/name")
	}
	s := &Store{cfg: cfg, client: &http.Client{Timeout: 60 * time.Second}}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// ParseRepository splits "owner/name".
func ParseRepository(value string) (string, string, error) {
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), ".git"))
	value = strings.TrimPrefix(value, "https://github.com/")
	owner, repo, ok := strings.Cut(value, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", value)
	}
	return owner, repo, nil
}

// StatusError records a non-2xx API response.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("github %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Temporary reports whether the failure is rate limiting or a server error.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func (s *Store) contentsURL(objectPath string, withRef bool) string {
	escaped := make([]string, 0, 4)
	for _, segment := range strings.Split(objectPath, "/") {
		escaped = append(escaped, url.PathEscape(segment))
	}
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.cfg.BaseURL,
		url.PathEscape(s.cfg.Owner), url.PathEscape(s.cfg.Repo), strings.Join(escaped, "/"))
	if withRef {
		u += "?ref=" + url.QueryEscape(s.cfg.Branch)
	}
	return u
}

func (s *Store) blobURL(sha string) string {
	return fmt.Sprintf("%s/repos/%s/%s/git/blobs/%s", s.cfg.BaseURL,
		url.PathEscape(s.cfg.Owner), url.PathEscape(s.cfg.Repo), url.PathEscape(sha))
}

// do sends a request and decodes a 2xx JSON body into out.
func (s *Store) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("github %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp, method, req.URL.Path)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode github response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response, method, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	message := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		message = payload.Message
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			message = fmt.Sprintf("%s (retry after %ds)", message, secs)
		}
	}
	return &StatusError{StatusCode: resp.StatusCode, Method: method, Path: path, Message: message}
}

func isStatus(err error, codes ...int) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	for _, code := range codes {
		if statusErr.StatusCode == code {
			return true
		}
	}
	return false
}
