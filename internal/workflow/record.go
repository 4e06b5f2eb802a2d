package workflow

import (
	"context"
	"errors"

	"narrate/internal/logging"
	"narrate/internal/manifest"
	"narrate/internal/services"
	"narrate/internal/store"
	"narrate/internal/textutil"
)

// SaveRecording transcodes and stores a human recording, then marks the slide
// as custom in the manifest so generation never replaces it.
func (s *Service) SaveRecording(ctx context.Context, req RecordingRequest) (RecordingResult, error) {
	const wf = WorkflowSaveRecording
	key, err := s.slideKey(wf, req.Deck, req.Slide)
	if err != nil {
		return RecordingResult{}, err
	}
	ctx, logger := s.scope(ctx, wf, &key)
	op := key.String()
	if len(req.Audio) == 0 {
		return RecordingResult{}, services.Wrap(services.ErrValidation, wf, op, "audio is empty", nil)
	}
	if s.transcoder == nil {
		return RecordingResult{}, services.Wrap(services.ErrTranscode, wf, op, "no transcoder configured", nil)
	}

	encoded, err := s.transcoder.Transcode(ctx, req.Audio)
	if err != nil {
		return RecordingResult{}, services.Wrap(services.ErrTranscode, wf, op, "transcode recording", err)
	}

	audioPath := s.layout.AudioPath(key)
	ifMatch := ""
	switch info, err := s.store.Stat(ctx, audioPath); {
	case err == nil:
		ifMatch = info.Version
	case errors.Is(err, store.ErrNotFound):
	default:
		return RecordingResult{}, services.Wrap(services.ErrStore, wf, op, "stat audio", err)
	}

	written, err := s.store.Write(ctx, store.WriteRequest{
		Path:    audioPath,
		Content: encoded,
		IfMatch: ifMatch,
		Message: commitMessage("Record", key),
	})
	if err != nil {
		return RecordingResult{}, services.Wrap(services.ErrStore, wf, op, "write audio", err)
	}
	result := RecordingResult{
		Key:          key,
		AudioPath:    audioPath,
		AudioVersion: written.Version,
		AudioBytes:   len(encoded),
	}
	logger.Info("recording stored",
		logging.String("path", audioPath),
		logging.Int("bytes", len(encoded)),
		logging.Bool("replaced", ifMatch != ""),
	)

	if req.Narration != nil {
		result.Fingerprint = textutil.FingerprintOf(*req.Narration)
	}

	snapshot, err := manifest.Load(ctx, s.store, s.layout.ManifestPath)
	if err != nil {
		result.Warning = manifestWarning("audio", err)
		logging.WarnWithContext(logger, "manifest load failed after recording", "manifest_update_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "slide lists as unverified until the recording is saved again"),
		)
		return result, nil
	}
	entry := manifest.Entry{
		Origin:      manifest.OriginCustom,
		Fingerprint: result.Fingerprint,
		RecordedAt:  s.timestamp(),
	}
	version, err := manifest.Save(ctx, s.store, s.layout.ManifestPath,
		snapshot.Manifest.Upsert(key, entry), snapshot.Version, commitMessage("Update manifest:", key))
	if err != nil {
		result.Warning = manifestWarning("audio", err)
		logging.WarnWithContext(logger, "manifest write failed after recording", "manifest_update_failed",
			logging.Error(err),
			logging.Bool("retryable", services.Retryable(err)),
			logging.String(logging.FieldErrorHint, "slide lists as unverified until the recording is saved again"),
		)
		return result, nil
	}
	result.ManifestUpdated = true
	result.ManifestVersion = version
	return result, nil
}
