package preflight

import (
	"context"
	"path/filepath"

	"narrate/internal/config"
	"narrate/internal/services/elevenlabs"
	"narrate/internal/store"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Skipped marks checks for features that are not configured.
	Skipped bool
	Detail  string
}

// HealthChecker probes a remote provider with a single request.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options supplies the collaborators the checks exercise. A nil TTS is
// replaced by an ElevenLabs client built from the config.
type Options struct {
	Store store.Store
	TTS   HealthChecker
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	switch cfg.Store.Backend {
	case config.BackendLocal:
		results = append(results, CheckDirectoryAccess("Content root", cfg.Local.Root))
	case config.BackendSQLite:
		results = append(results, CheckDirectoryAccess("SQLite directory", filepath.Dir(cfg.SQLite.Path)))
	}

	results = append(results, CheckStore(ctx, cfg.Store.Backend, opts.Store, cfg.Layout.ModulesDir))

	tts := opts.TTS
	ttsCfg := cfg.TTSConfig()
	if tts == nil && ttsCfg.APIKey != "" {
		tts = elevenlabs.NewClient(elevenlabs.Config{
			APIKey:  ttsCfg.APIKey,
			BaseURL: ttsCfg.BaseURL,
			VoiceID: ttsCfg.VoiceID,
			ModelID: ttsCfg.ModelID,
			Timeout: ttsCfg.Timeout,
		})
	}
	results = append(results, CheckTTS(ctx, ttsCfg.APIKey, tts))

	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Command
		}
		results = append(results, result)
	}
	return results
}

// Failed returns the results that neither passed nor were skipped.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			failed = append(failed, r)
		}
	}
	return failed
}
