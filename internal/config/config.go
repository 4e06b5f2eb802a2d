package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Store selects the content store backend.
type Store struct {
	Backend string `toml:"backend"`
}

// GitHub contains configuration for the GitHub contents API backend.
type GitHub struct {
	Token          string `toml:"token"`
	Repository     string `toml:"repository"`
	Branch         string `toml:"branch"`
	BaseURL        string `toml:"base_url"`
	CommitterName  string `toml:"committer_name"`
	CommitterEmail string `toml:"committer_email"`
}

// GCS contains configuration for the Cloud Storage backend.
type GCS struct {
	Bucket       string `toml:"bucket"`
	Prefix       string `toml:"prefix"`
	Credentials  string `toml:"credentials"`
	EmulatorHost string `toml:"emulator_host"`
}

// Local contains configuration for the filesystem backend.
type Local struct {
	Root string `toml:"root"`
}

// SQLite contains configuration for the SQLite backend.
type SQLite struct {
	Path string `toml:"path"`
}

// Layout maps decks onto store paths.
type Layout struct {
	ModulesDir   string `toml:"modules_dir"`
	AudioDir     string `toml:"audio_dir"`
	ManifestPath string `toml:"manifest_path"`
	AudioExt     string `toml:"audio_ext"`
}

// TTS contains configuration for the ElevenLabs speech provider.
type TTS struct {
	APIKey          string  `toml:"api_key"`
	VoiceID         string  `toml:"voice_id"`
	ModelID         string  `toml:"model_id"`
	BaseURL         string  `toml:"base_url"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
}

// Transcode contains configuration for ffmpeg audio conversion.
type Transcode struct {
	FFmpegPath     string `toml:"ffmpeg_path"`
	Quality        int    `toml:"quality"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Server contains configuration for the studio HTTP API.
type Server struct {
	Bind           string   `toml:"bind"`
	Secret         string   `toml:"secret"`
	AllowedOrigins []string `toml:"allowed_origins"`
	MaxJSONBytes   int64    `toml:"max_json_bytes"`
	MaxAudioBytes  int64    `toml:"max_audio_bytes"`
	MaxTextBytes   int64    `toml:"max_text_bytes"`
}

// Batch contains configuration for batch narration generation.
type Batch struct {
	RequestDelayMS int    `toml:"request_delay_ms"`
	ModuleCount    int    `toml:"module_count"`
	LockPath       string `toml:"lock_path"`
	ListWorkers    int    `toml:"list_workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File receives a JSON copy of every record when set.
	File string `toml:"file"`
}

// Config encapsulates all configuration values for narrate.
//
// Configuration sections by subsystem:
//   - Store: backend selection (github, gcs, local, sqlite)
//   - GitHub, GCS, Local, SQLite: per-backend connection settings
//   - Layout: where decks, audio and the manifest live in the store
//   - TTS: ElevenLabs voice and model settings
//   - Transcode: ffmpeg settings for recorded audio
//   - Server: studio API bind address, shared secret and size limits
//   - Batch: batch generation pacing
//   - Logging: log format and level
type Config struct {
	Store     Store     `toml:"store"`
	GitHub    GitHub    `toml:"github"`
	GCS       GCS       `toml:"gcs"`
	Local     Local     `toml:"local"`
	SQLite    SQLite    `toml:"sqlite"`
	Layout    Layout    `toml:"layout"`
	TTS       TTS       `toml:"tts"`
	Transcode Transcode `toml:"transcode"`
	Server    Server    `toml:"server"`
	Batch     Batch     `toml:"batch"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Environment
// variables from a .env file in the working directory or beside the config
// file are loaded first; variables already set in the process win.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if err := loadDotEnv(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

func loadDotEnv(configPath string) error {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	seen := make(map[string]struct{}, len(candidates))
	var files []string
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			files = append(files, abs)
		}
	}
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for transcoding.
func (c *Config) FFmpegBinary() string {
	if path := strings.TrimSpace(c.Transcode.FFmpegPath); path != "" {
		return path
	}
	return "ffmpeg"
}

// TranscodeTimeout returns the per-conversion timeout.
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.Transcode.TimeoutSeconds) * time.Second
}

// RequestDelay returns the pause between provider calls in batch runs.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.Batch.RequestDelayMS) * time.Millisecond
}

// TTSConfig contains the resolved speech provider settings.
type TTSConfig struct {
	APIKey          string
	VoiceID         string
	ModelID         string
	BaseURL         string
	Stability       float64
	SimilarityBoost float64
	Timeout         time.Duration
}

// TTSConfig returns the speech provider settings.
func (c *Config) TTSConfig() TTSConfig {
	return TTSConfig{
		APIKey:          strings.TrimSpace(c.TTS.APIKey),
		VoiceID:         strings.TrimSpace(c.TTS.VoiceID),
		ModelID:         strings.TrimSpace(c.TTS.ModelID),
		BaseURL:         strings.TrimSpace(c.TTS.BaseURL),
		Stability:       c.TTS.Stability,
		SimilarityBoost: c.TTS.SimilarityBoost,
		Timeout:         time.Duration(c.TTS.TimeoutSeconds) * time.Second,
	}
}

// RequireTTS reports a configuration error when speech synthesis is needed
// but no API key is available.
func (c *Config) RequireTTS() error {
	if strings.TrimSpace(c.TTS.APIKey) == "" {
		return fmt.Errorf("tts.api_key is required for audio generation. Set ELEVENLABS_API_KEY or edit %s (create with 'narrate config init')", displayConfigPath())
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func displayConfigPath() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return defaultConfigPath
	}
	return path
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
