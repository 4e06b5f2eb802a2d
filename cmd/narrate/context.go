package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"narrate/internal/config"
	"narrate/internal/deck"
	"narrate/internal/logging"
	"narrate/internal/services"
	"narrate/internal/services/elevenlabs"
	"narrate/internal/store/backend"
	"narrate/internal/transcode"
	"narrate/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// runtimeOptions states what a command needs beyond the store.
type runtimeOptions struct {
	requireTTS bool
}

// commandRuntime bundles the opened store and the workflow service for one
// command invocation.
type commandRuntime struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   backend.Opened
	svc     *workflow.Service
	voiceID string
	tts     bool
}

func (r *commandRuntime) Close() error {
	if r == nil {
		return nil
	}
	return r.store.Close()
}

func (c *commandContext) openRuntime(ctx context.Context, opts runtimeOptions) (*commandRuntime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	if opts.requireTTS {
		if err := cfg.RequireTTS(); err != nil {
			return nil, err
		}
	}

	opened, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps := workflow.Deps{
		Store: opened.Store,
		Transcoder: transcode.New(transcode.Options{
			Binary:  cfg.FFmpegBinary(),
			Quality: cfg.Transcode.Quality,
			Timeout: cfg.TranscodeTimeout(),
		}),
		Layout: deck.Layout{
			ModulesDir:   cfg.Layout.ModulesDir,
			AudioDir:     cfg.Layout.AudioDir,
			ManifestPath: cfg.Layout.ManifestPath,
			AudioExt:     cfg.Layout.AudioExt,
		},
		Logger:       logger,
		RequestDelay: cfg.RequestDelay(),
		ListWorkers:  cfg.Batch.ListWorkers,
	}
	if deps.RequestDelay == 0 {
		deps.RequestDelay = -1
	}

	rt := &commandRuntime{cfg: cfg, logger: logger, store: opened}
	tts := cfg.TTSConfig()
	if tts.APIKey != "" {
		client := elevenlabs.NewClient(elevenlabs.Config{
			APIKey:          tts.APIKey,
			BaseURL:         tts.BaseURL,
			VoiceID:         tts.VoiceID,
			ModelID:         tts.ModelID,
			Stability:       tts.Stability,
			SimilarityBoost: tts.SimilarityBoost,
			Timeout:         tts.Timeout,
		})
		deps.Synthesizer = client
		deps.VoiceID = client.VoiceID()
		rt.tts = true
	}
	rt.voiceID = deps.VoiceID

	svc, err := workflow.New(deps)
	if err != nil {
		_ = opened.Close()
		return nil, err
	}
	rt.svc = svc
	return rt, nil
}

// withRequestID tags a CLI run so its log lines correlate like studio
// requests do.
func withRequestID(ctx context.Context) context.Context {
	return services.WithRequestID(ctx, uuid.New().String())
}

// parseDeckArg accepts "module-03" or a bare module number.
func parseDeckArg(raw string) (deck.ID, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return deck.FromNumber(n)
	}
	return deck.ParseID(raw)
}

func parseSlideArg(raw string) (int, error) {
	return deck.ParseSlide(raw)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// describeError adds the retry hint the workflow error carries.
func describeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if services.Retryable(err) {
		return fmt.Errorf("%w (retryable: re-run the command)", err)
	}
	return err
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
