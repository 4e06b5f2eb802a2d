package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeStore()
	c.normalizeGitHub()
	c.normalizeGCS()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLayout()
	c.normalizeTTS()
	c.normalizeServer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		if value, ok := os.LookupEnv("NARRATE_STORE_BACKEND"); ok {
			c.Store.Backend = strings.ToLower(strings.TrimSpace(value))
		}
	}
	switch c.Store.Backend {
	case "":
		c.Store.Backend = defaultStoreBackend
	case "fs", "filesystem":
		c.Store.Backend = BackendLocal
	}
}

func (c *Config) normalizeGitHub() {
	c.GitHub.Token = strings.TrimSpace(c.GitHub.Token)
	if c.GitHub.Token == "" {
		if value, ok := os.LookupEnv("GITHUB_TOKEN"); ok {
			c.GitHub.Token = strings.TrimSpace(value)
		}
	}
	c.GitHub.Repository = strings.TrimSpace(c.GitHub.Repository)
	if c.GitHub.Repository == "" {
		if value, ok := os.LookupEnv("GITHUB_REPO"); ok {
			c.GitHub.Repository = strings.TrimSpace(value)
		}
	}
	c.GitHub.Branch = strings.TrimSpace(c.GitHub.Branch)
	if c.GitHub.Branch == "" {
		c.GitHub.Branch = defaultGitHubBranch
	}
	c.GitHub.BaseURL = strings.TrimRight(strings.TrimSpace(c.GitHub.BaseURL), "/")
	if c.GitHub.BaseURL == "" {
		c.GitHub.BaseURL = defaultGitHubBaseURL
	}
	c.GitHub.CommitterName = strings.TrimSpace(c.GitHub.CommitterName)
	c.GitHub.CommitterEmail = strings.TrimSpace(c.GitHub.CommitterEmail)
}

func (c *Config) normalizeGCS() {
	c.GCS.Bucket = strings.TrimSpace(c.GCS.Bucket)
	c.GCS.Prefix = strings.Trim(strings.TrimSpace(c.GCS.Prefix), "/")
	c.GCS.Credentials = strings.TrimSpace(c.GCS.Credentials)
	if c.GCS.Credentials == "" {
		if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
			c.GCS.Credentials = strings.TrimSpace(value)
		}
	}
	c.GCS.EmulatorHost = strings.TrimSpace(c.GCS.EmulatorHost)
	if c.GCS.EmulatorHost == "" {
		if value, ok := os.LookupEnv("STORAGE_EMULATOR_HOST"); ok {
			c.GCS.EmulatorHost = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Local.Root) == "" {
		c.Local.Root = defaultLocalRoot
	}
	if c.Local.Root, err = expandPath(c.Local.Root); err != nil {
		return fmt.Errorf("local.root: %w", err)
	}
	if strings.TrimSpace(c.SQLite.Path) == "" {
		c.SQLite.Path = defaultSQLitePath
	}
	if c.SQLite.Path, err = expandPath(c.SQLite.Path); err != nil {
		return fmt.Errorf("sqlite.path: %w", err)
	}
	if strings.TrimSpace(c.Batch.LockPath) == "" {
		c.Batch.LockPath = defaultLockPath
	}
	if c.Batch.LockPath, err = expandPath(c.Batch.LockPath); err != nil {
		return fmt.Errorf("batch.lock_path: %w", err)
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	c.Transcode.FFmpegPath = strings.TrimSpace(c.Transcode.FFmpegPath)
	return nil
}

func (c *Config) normalizeLayout() {
	trim := func(value, fallback string) string {
		value = strings.Trim(strings.TrimSpace(value), "/")
		if value == "" {
			return fallback
		}
		return value
	}
	c.Layout.ModulesDir = trim(c.Layout.ModulesDir, defaultModulesDir)
	c.Layout.AudioDir = trim(c.Layout.AudioDir, defaultAudioDir)
	c.Layout.ManifestPath = trim(c.Layout.ManifestPath, c.Layout.AudioDir+"/manifest.json")
	c.Layout.AudioExt = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Layout.AudioExt), "."))
	if c.Layout.AudioExt == "" {
		c.Layout.AudioExt = defaultAudioExt
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.APIKey = strings.TrimSpace(c.TTS.APIKey)
	if c.TTS.APIKey == "" {
		if value, ok := os.LookupEnv("ELEVENLABS_API_KEY"); ok {
			c.TTS.APIKey = strings.TrimSpace(value)
		}
	}
	c.TTS.VoiceID = strings.TrimSpace(c.TTS.VoiceID)
	if c.TTS.VoiceID == "" {
		if value, ok := os.LookupEnv("ELEVENLABS_VOICE_ID"); ok {
			c.TTS.VoiceID = strings.TrimSpace(value)
		}
	}
	if c.TTS.VoiceID == "" {
		c.TTS.VoiceID = defaultVoiceID
	}
	c.TTS.ModelID = strings.TrimSpace(c.TTS.ModelID)
	if c.TTS.ModelID == "" {
		c.TTS.ModelID = defaultModelID
	}
	c.TTS.BaseURL = strings.TrimRight(strings.TrimSpace(c.TTS.BaseURL), "/")
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultTTSBaseURL
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	c.Server.Secret = strings.TrimSpace(c.Server.Secret)
	if c.Server.Secret == "" {
		if value, ok := os.LookupEnv("STUDIO_SECRET"); ok {
			c.Server.Secret = strings.TrimSpace(value)
		}
	}
	origins := c.Server.AllowedOrigins[:0]
	for _, origin := range c.Server.AllowedOrigins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			origins = append(origins, origin)
		}
	}
	c.Server.AllowedOrigins = origins
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
