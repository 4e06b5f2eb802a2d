package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case BackendGitHub:
		if c.GitHub.Token == "" {
			return fmt.Errorf("github.token is required. Set GITHUB_TOKEN env var or edit %s (create with 'narrate config init')", displayConfigPath())
		}
		if c.GitHub.Repository == "" {
			return errors.New("github.repository is required (owner/name). Set GITHUB_REPO env var or edit the config file")
		}
		owner, repo, ok := strings.Cut(c.GitHub.Repository, "/")
		if !ok || owner == "" || repo == "" {
			return fmt.Errorf("github.repository %q must be owner/name", c.GitHub.Repository)
		}
		if (c.GitHub.CommitterName == "") != (c.GitHub.CommitterEmail == "") {
			return errors.New("github.committer_name and github.committer_email must be set together")
		}
	case BackendGCS:
		if c.GCS.Bucket == "" {
			return errors.New("gcs.bucket must be set when store.backend is gcs")
		}
	case BackendLocal:
		if c.Local.Root == "" {
			return errors.New("local.root must be set when store.backend is local")
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path must be set when store.backend is sqlite")
		}
	default:
		return fmt.Errorf("store.backend %q is not supported (use github, gcs, local or sqlite)", c.Store.Backend)
	}
	return nil
}

func (c *Config) validateLayout() error {
	if strings.Contains(c.Layout.ModulesDir, "..") || strings.Contains(c.Layout.AudioDir, "..") || strings.Contains(c.Layout.ManifestPath, "..") {
		return errors.New("layout paths must stay inside the store root")
	}
	if !strings.HasSuffix(c.Layout.ManifestPath, ".json") {
		return errors.New("layout.manifest_path must name a .json file")
	}
	return nil
}

func (c *Config) validateTTS() error {
	if c.TTS.Stability < 0 || c.TTS.Stability > 1 {
		return errors.New("tts.stability must be between 0 and 1")
	}
	if c.TTS.SimilarityBoost < 0 || c.TTS.SimilarityBoost > 1 {
		return errors.New("tts.similarity_boost must be between 0 and 1")
	}
	if c.TTS.TimeoutSeconds <= 0 {
		return errors.New("tts.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.Quality < 1 || c.Transcode.Quality > 9 {
		return errors.New("transcode.quality must be between 1 and 9 (lame VBR scale)")
	}
	if c.Transcode.TimeoutSeconds <= 0 {
		return errors.New("transcode.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	return ensurePositiveMap(map[string]int64{
		"server.max_json_bytes":  c.Server.MaxJSONBytes,
		"server.max_audio_bytes": c.Server.MaxAudioBytes,
		"server.max_text_bytes":  c.Server.MaxTextBytes,
	})
}

func (c *Config) validateBatch() error {
	if c.Batch.RequestDelayMS < 0 {
		return errors.New("batch.request_delay_ms must be >= 0")
	}
	if c.Batch.ModuleCount < 1 || c.Batch.ModuleCount > 99 {
		return errors.New("batch.module_count must be between 1 and 99")
	}
	if c.Batch.ListWorkers < 1 {
		return errors.New("batch.list_workers must be >= 1")
	}
	return nil
}

func ensurePositiveMap(values map[string]int64) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
