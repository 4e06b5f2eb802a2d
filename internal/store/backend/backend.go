// Package backend opens the store.Store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"strings"

	"narrate/internal/config"
	"narrate/internal/store"
	"narrate/internal/store/gcs"
	"narrate/internal/store/github"
	"narrate/internal/store/localfs"
	"narrate/internal/store/sqlitestore"
)

// Opened is a store plus the function releasing its resources.
type Opened struct {
	Store store.Store
	Name  string
	close func() error
}

// Close releases backend resources. It is safe to call on backends that hold
// none.
func (o Opened) Close() error {
	if o.close == nil {
		return nil
	}
	return o.close()
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg *config.Config) (Opened, error) {
	if cfg == nil {
		return Opened{}, fmt.Errorf("configuration is required")
	}
	name := cfg.Store.Backend
	switch name {
	case config.BackendLocal:
		if err := os.MkdirAll(cfg.Local.Root, 0o755); err != nil {
			return Opened{}, fmt.Errorf("ensure local store root: %w", err)
		}
		st, err := localfs.New(cfg.Local.Root)
		if err != nil {
			return Opened{}, fmt.Errorf("open local store: %w", err)
		}
		return Opened{Store: st, Name: name}, nil
	case config.BackendSQLite:
		st, err := sqlitestore.Open(cfg.SQLite.Path)
		if err != nil {
			return Opened{}, fmt.Errorf("open sqlite store: %w", err)
		}
		return Opened{Store: st, Name: name, close: st.Close}, nil
	case config.BackendGitHub:
		owner, repo, ok := strings.Cut(cfg.GitHub.Repository, "/")
		if !ok {
			return Opened{}, fmt.Errorf("github.repository %q must be owner/name", cfg.GitHub.Repository)
		}
		st, err := github.New(github.Config{
			Token:          cfg.GitHub.Token,
			Owner:          owner,
			Repo:           repo,
			Branch:         cfg.GitHub.Branch,
			BaseURL:        cfg.GitHub.BaseURL,
			CommitterName:  cfg.GitHub.CommitterName,
			CommitterEmail: cfg.GitHub.CommitterEmail,
		})
		if err != nil {
			return Opened{}, fmt.Errorf("open github store: %w", err)
		}
		return Opened{Store: st, Name: name}, nil
	case config.BackendGCS:
		st, err := gcs.New(ctx, gcs.Config{
			Bucket:       cfg.GCS.Bucket,
			Prefix:       cfg.GCS.Prefix,
			Credentials:  cfg.GCS.Credentials,
			EmulatorHost: cfg.GCS.EmulatorHost,
		})
		if err != nil {
			return Opened{}, fmt.Errorf("open gcs store: %w", err)
		}
		return Opened{Store: st, Name: name, close: st.Close}, nil
	default:
		return Opened{}, fmt.Errorf("store backend %q is not supported", name)
	}
}
