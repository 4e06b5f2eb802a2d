package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"narrate/internal/deck"
	"narrate/internal/document"
	"narrate/internal/logging"
	"narrate/internal/manifest"
	"narrate/internal/services"
	"narrate/internal/store"
	"narrate/internal/textutil"
)

// GenerateAudio synthesizes audio for one slide unless the slide carries a
// human recording or its generated audio already matches text.
func (s *Service) GenerateAudio(ctx context.Context, deckID string, slide int, text string) (GenerateResult, error) {
	key, err := s.slideKey(WorkflowGenerate, deckID, slide)
	if err != nil {
		return GenerateResult{}, err
	}
	ctx, logger := s.scope(ctx, WorkflowGenerate, &key)
	return s.generate(ctx, logger, key, text, false)
}

// generate runs one slide. Paced calls wait for the batch delay right before
// the provider so spacing only applies to real provider calls.
func (s *Service) generate(ctx context.Context, logger *slog.Logger, key deck.SlideKey, text string, paced bool) (GenerateResult, error) {
	const wf = WorkflowGenerate
	op := key.String()
	if strings.TrimSpace(text) == "" {
		return GenerateResult{}, services.Wrap(services.ErrValidation, wf, op, "narration text is empty", nil)
	}
	fp := textutil.FingerprintOf(text)
	audioPath := s.layout.AudioPath(key)
	result := GenerateResult{Key: key, Fingerprint: fp, AudioPath: audioPath}

	snapshot, err := manifest.Load(ctx, s.store, s.layout.ManifestPath)
	if err != nil {
		return GenerateResult{}, services.Wrap(storeMarker(err), wf, op, "load manifest", err)
	}
	exists := true
	if _, err := s.store.Stat(ctx, audioPath); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return GenerateResult{}, services.Wrap(services.ErrStore, wf, op, "stat audio", err)
		}
		exists = false
	}

	if entry, ok := snapshot.Manifest.Get(key); ok {
		if entry.Protected() {
			result.Status = StatusProtected
			logger.Info("custom recording present; skipping generation")
			return result, nil
		}
		if entry.Fingerprint == fp && exists {
			result.Status = StatusUnchanged
			logger.Debug("generated audio matches narration")
			return result, nil
		}
	}

	if s.synth == nil {
		return GenerateResult{}, services.Wrap(services.ErrConfiguration, wf, op, "no speech provider configured", nil)
	}
	if paced {
		if err := s.waitTurn(ctx); err != nil {
			return result, err
		}
	}
	result.Synthesized = true
	audio, err := s.synth.Synthesize(ctx, text, s.voiceID)
	if paced {
		s.markProviderCall()
	}
	if err != nil {
		return result, services.Wrap(services.ErrProvider, wf, op, "synthesize", err)
	}

	written, err := s.store.Write(ctx, store.WriteRequest{
		Path:    audioPath,
		Content: audio,
		Message: commitMessage("Generate", key),
	})
	if err != nil {
		return result, services.Wrap(services.ErrStore, wf, op, "write audio", err)
	}
	result.Status = StatusGenerated
	result.AudioVersion = written.Version
	result.AudioBytes = len(audio)
	logger.Info("audio generated", logging.Int("bytes", len(audio)), logging.String("fingerprint", fp.Short()))

	entry := manifest.Entry{Origin: manifest.OriginGenerated, Fingerprint: fp, RecordedAt: s.timestamp()}
	if _, err := manifest.Save(ctx, s.store, s.layout.ManifestPath,
		snapshot.Manifest.Upsert(key, entry), snapshot.Version, commitMessage("Update manifest:", key)); err != nil {
		result.Warning = manifestWarning("audio", err)
		logger.Warn("manifest write failed after generation",
			logging.Error(err),
			logging.String(logging.FieldEventType, "manifest_update_failed"),
			logging.Bool("retryable", services.Retryable(err)),
			logging.String(logging.FieldErrorHint, "rerun generation to record the fingerprint"),
		)
		return result, nil
	}
	result.ManifestUpdated = true
	return result, nil
}

// GenerateDeck generates every narrated slide of a deck in order. Provider
// calls are separated by the configured delay, counted from the previous
// batch call of this Service, so consecutive decks keep the spacing. A
// failing slide is recorded
// and the batch moves on; cancellation and corrupt manifests stop it.
func (s *Service) GenerateDeck(ctx context.Context, deckID string) (BatchSummary, error) {
	const wf = WorkflowGenerateDeck
	id, err := deck.ParseID(deckID)
	if err != nil {
		return BatchSummary{}, services.Wrap(services.ErrValidation, wf, "", "invalid deck", err)
	}
	ctx, logger := s.scope(ctx, wf, nil)
	logger = logger.With(logging.String(logging.FieldDeck, id.String()))
	summary := BatchSummary{Deck: id, VoiceID: s.voiceID}

	obj, err := s.store.Read(ctx, s.layout.DocumentPath(id))
	if err != nil {
		return summary, services.Wrap(services.ErrStore, wf, id.String(), "read document", err)
	}
	slides := document.Narrations(obj.Content)
	sampler := logging.NewProgressSampler(25)

	for i, slide := range slides {
		if err := ctx.Err(); err != nil {
			return summary, services.Wrap(services.ErrTransient, wf, id.String(), "batch cancelled", err)
		}
		key := s.layout.Key(id, slide.Index)
		if !slide.HasNarration || strings.TrimSpace(slide.Narration) == "" {
			summary.add(GenerateResult{Key: key, Status: StatusNoNarration, AudioPath: s.layout.AudioPath(key)})
			continue
		}
		slideCtx, slideLogger := s.scope(ctx, WorkflowGenerate, &key)
		result, err := s.generate(slideCtx, slideLogger, key, slide.Narration, true)
		if err != nil {
			if errors.Is(err, services.ErrCorruptManifest) {
				return summary, err
			}
			if ctx.Err() != nil {
				return summary, services.Wrap(services.ErrTransient, wf, id.String(), "batch cancelled", ctx.Err())
			}
			result.Key = key
			result.Status = StatusFailed
			result.Error = err.Error()
			logging.ErrorWithContext(slideLogger, "slide generation failed", "slide_generation_failed",
				logging.Error(err),
				logging.Bool("retryable", services.Retryable(err)),
			)
		}
		summary.add(result)
		if sampler.ShouldLog(id.String(), i+1, len(slides)) {
			logger.Info("batch progress", logging.Int("done", i+1), logging.Int("total", len(slides)))
		}
	}

	logger.Info("batch finished",
		logging.Int("generated", summary.Generated),
		logging.Int("unchanged", summary.Unchanged),
		logging.Int("protected", summary.Protected),
		logging.Int("no_narration", summary.NoNarration),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}
