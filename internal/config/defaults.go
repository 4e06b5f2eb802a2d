package config

const (
	defaultConfigPath       = "~/.config/narrate/config.toml"
	projectConfigName       = "narrate.toml"
	defaultStoreBackend     = BackendGitHub
	defaultGitHubBranch     = "main"
	defaultGitHubBaseURL    = "https://api.github.com"
	defaultLocalRoot        = "."
	defaultSQLitePath       = "~/.local/share/narrate/objects.db"
	defaultModulesDir       = "modules"
	defaultAudioDir         = "audio"
	defaultManifestPath     = "audio/manifest.json"
	defaultAudioExt         = "mp3"
	defaultVoiceID          = "21m00Tcm4TlvDq8ikWAM"
	defaultModelID          = "eleven_turbo_v2_5"
	defaultTTSBaseURL       = "https://api.elevenlabs.io"
	defaultStability        = 0.5
	defaultSimilarityBoost  = 0.75
	defaultTTSTimeout       = 120
	defaultTranscodeQuality = 2
	defaultTranscodeTimeout = 120
	defaultServerBind       = "127.0.0.1:3000"
	defaultMaxJSONBytes     = 6 << 20
	defaultMaxAudioBytes    = 50 << 20
	defaultMaxTextBytes     = 1 << 20
	defaultRequestDelayMS   = 500
	defaultModuleCount      = 14
	defaultListWorkers      = 4
	defaultLockPath         = "~/.local/share/narrate/generate.lock"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Store backends.
const (
	BackendGitHub = "github"
	BackendGCS    = "gcs"
	BackendLocal  = "local"
	BackendSQLite = "sqlite"
)

// Default returns a Config populated with repository defaults. The store
// backend is left empty so NARRATE_STORE_BACKEND can fill it during
// normalization.
func Default() Config {
	return Config{
		GitHub: GitHub{
			Branch:  defaultGitHubBranch,
			BaseURL: defaultGitHubBaseURL,
		},
		Local: Local{
			Root: defaultLocalRoot,
		},
		SQLite: SQLite{
			Path: defaultSQLitePath,
		},
		Layout: Layout{
			ModulesDir:   defaultModulesDir,
			AudioDir:     defaultAudioDir,
			ManifestPath: defaultManifestPath,
			AudioExt:     defaultAudioExt,
		},
		TTS: TTS{
			ModelID:         defaultModelID,
			BaseURL:         defaultTTSBaseURL,
			Stability:       defaultStability,
			SimilarityBoost: defaultSimilarityBoost,
			TimeoutSeconds:  defaultTTSTimeout,
		},
		Transcode: Transcode{
			Quality:        defaultTranscodeQuality,
			TimeoutSeconds: defaultTranscodeTimeout,
		},
		Server: Server{
			Bind:          defaultServerBind,
			MaxJSONBytes:  defaultMaxJSONBytes,
			MaxAudioBytes: defaultMaxAudioBytes,
			MaxTextBytes:  defaultMaxTextBytes,
		},
		Batch: Batch{
			RequestDelayMS: defaultRequestDelayMS,
			ModuleCount:    defaultModuleCount,
			LockPath:       defaultLockPath,
			ListWorkers:    defaultListWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
