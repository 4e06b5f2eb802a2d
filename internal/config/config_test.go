package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"narrate/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"GITHUB_TOKEN", "GITHUB_REPO", "ELEVENLABS_API_KEY", "ELEVENLABS_VOICE_ID",
		"STUDIO_SECRET", "GOOGLE_APPLICATION_CREDENTIALS", "NARRATE_STORE_BACKEND", "STORAGE_EMULATOR_HOST",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	work := t.TempDir()
	t.Chdir(work)
	return home
}

func TestLoadDefaultConfigUsesEnvFallbacks(t *testing.T) {
	home := isolateEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_REPO", "acme/course")
	t.Setenv("ELEVENLABS_API_KEY", "el-key")
	t.Setenv("STUDIO_SECRET", "s3cret")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if resolved != filepath.Join(home, ".config", "narrate", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Store.Backend != config.BackendGitHub {
		t.Fatalf("unexpected backend %q", cfg.Store.Backend)
	}
	if cfg.GitHub.Token != "ghp_test" || cfg.GitHub.Repository != "acme/course" || cfg.GitHub.Branch != "main" {
		t.Fatalf("unexpected github config %+v", cfg.GitHub)
	}
	if cfg.Server.Secret != "s3cret" {
		t.Fatalf("expected studio secret from env, got %q", cfg.Server.Secret)
	}
	tts := cfg.TTSConfig()
	if tts.APIKey != "el-key" || tts.VoiceID != "21m00Tcm4TlvDq8ikWAM" || tts.ModelID != "eleven_turbo_v2_5" {
		t.Fatalf("unexpected tts config %+v", tts)
	}
	if tts.Stability != 0.5 || tts.SimilarityBoost != 0.75 {
		t.Fatalf("unexpected voice settings %+v", tts)
	}
	if cfg.RequestDelay() != 500*time.Millisecond {
		t.Fatalf("unexpected request delay %s", cfg.RequestDelay())
	}
	if cfg.SQLite.Path != filepath.Join(home, ".local", "share", "narrate", "objects.db") {
		t.Fatalf("sqlite path not expanded: %q", cfg.SQLite.Path)
	}
	if cfg.FFmpegBinary() != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary %q", cfg.FFmpegBinary())
	}
	if err := cfg.RequireTTS(); err != nil {
		t.Fatalf("RequireTTS: %v", err)
	}
}

func TestLoadRequiresGitHubCredentials(t *testing.T) {
	isolateEnv(t)
	_, _, _, err := config.Load("")
	if err == nil || !strings.Contains(err.Error(), "github.token") {
		t.Fatalf("expected github.token error, got %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "narrate.toml")

	type payload struct {
		Store struct {
			Backend string `toml:"backend"`
		} `toml:"store"`
		Local struct {
			Root string `toml:"root"`
		} `toml:"local"`
		Layout struct {
			AudioExt string `toml:"audio_ext"`
		} `toml:"layout"`
		Batch struct {
			RequestDelayMS int `toml:"request_delay_ms"`
		} `toml:"batch"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Store.Backend = "LOCAL"
	custom.Local.Root = dir
	custom.Layout.AudioExt = ".MP3"
	custom.Batch.RequestDelayMS = 0
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.Store.Backend != config.BackendLocal || cfg.Local.Root != dir {
		t.Fatalf("unexpected store config %+v %+v", cfg.Store, cfg.Local)
	}
	if cfg.Layout.AudioExt != "mp3" {
		t.Fatalf("audio ext not normalized: %q", cfg.Layout.AudioExt)
	}
	if cfg.RequestDelay() != 0 {
		t.Fatalf("expected zero delay, got %s", cfg.RequestDelay())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format %q", cfg.Logging.Format)
	}
	if err := cfg.RequireTTS(); err == nil {
		t.Fatal("expected RequireTTS to fail without api key")
	}
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "narrate.toml")
	if err := os.WriteFile(configPath, []byte("[store]\nbackend = \"sqlite\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ELEVENLABS_API_KEY=from-dotenv\nELEVENLABS_VOICE_ID=voice-x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("ELEVENLABS_API_KEY")
		os.Unsetenv("ELEVENLABS_VOICE_ID")
	})

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TTS.APIKey != "from-dotenv" || cfg.TTS.VoiceID != "voice-x" {
		t.Fatalf(".env not applied: %+v", cfg.TTS)
	}
}

func TestBackendFromEnvironment(t *testing.T) {
	isolateEnv(t)
	t.Setenv("NARRATE_STORE_BACKEND", "gcs")
	_, _, _, err := config.Load("")
	if err == nil || !strings.Contains(err.Error(), "gcs.bucket") {
		t.Fatalf("expected gcs.bucket validation error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Store.Backend = config.BackendSQLite
		cfg.SQLite.Path = "/tmp/objects.db"
		return cfg
	}
	cases := map[string]func(*config.Config){
		"unknown backend":  func(c *config.Config) { c.Store.Backend = "s3" },
		"stability":        func(c *config.Config) { c.TTS.Stability = 1.5 },
		"similarity":       func(c *config.Config) { c.TTS.SimilarityBoost = -0.1 },
		"quality":          func(c *config.Config) { c.Transcode.Quality = 12 },
		"negative delay":   func(c *config.Config) { c.Batch.RequestDelayMS = -1 },
		"module count":     func(c *config.Config) { c.Batch.ModuleCount = 0 },
		"text limit":       func(c *config.Config) { c.Server.MaxTextBytes = 0 },
		"manifest path":    func(c *config.Config) { c.Layout.ManifestPath = "audio/manifest.txt" },
		"escaping layout":  func(c *config.Config) { c.Layout.AudioDir = "../audio" },
		"half a committer": func(c *config.Config) { c.Store.Backend = "github"; c.GitHub.Token = "t"; c.GitHub.Repository = "a/b"; c.GitHub.CommitterName = "x" },
	}
	if err := func() error { cfg := base(); return cfg.Validate() }(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Store.Backend != "github" || cfg.TTS.VoiceID != "21m00Tcm4TlvDq8ikWAM" || cfg.Batch.ModuleCount != 14 {
		t.Fatalf("unexpected sample values %+v", cfg)
	}
}
