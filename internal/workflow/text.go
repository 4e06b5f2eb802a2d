package workflow

import (
	"context"

	"narrate/internal/document"
	"narrate/internal/logging"
	"narrate/internal/manifest"
	"narrate/internal/services"
	"narrate/internal/store"
	"narrate/internal/textutil"
)

// SaveNarrationText rewrites one slide's narration in the deck document. The
// manifest fingerprint of existing audio is kept, so a changed text lists as
// outdated; only the advisory edit time is stamped.
func (s *Service) SaveNarrationText(ctx context.Context, deckID string, slide int, text string) (TextResult, error) {
	const wf = WorkflowSaveText
	key, err := s.slideKey(wf, deckID, slide)
	if err != nil {
		return TextResult{}, err
	}
	ctx, logger := s.scope(ctx, wf, &key)
	op := key.String()

	docPath := s.layout.DocumentPath(key.Deck)
	obj, err := s.store.Read(ctx, docPath)
	if err != nil {
		return TextResult{}, services.Wrap(services.ErrStore, wf, op, "read document", err)
	}

	patch := document.PatchNarration(obj.Content, slide, text)
	if !patch.Found {
		return TextResult{}, services.Wrap(services.ErrSlideNotFound, wf, op, "locate slide", nil)
	}
	result := TextResult{
		Key:             key,
		DocumentPath:    docPath,
		DocumentVersion: obj.Version,
		Changed:         patch.Changed,
		Previous:        patch.Previous,
		HadPrevious:     patch.HadPrevious,
		Fingerprint:     textutil.FingerprintOf(text),
	}
	if !patch.Changed {
		logger.Debug("narration unchanged")
		return result, nil
	}

	written, err := s.store.Write(ctx, store.WriteRequest{
		Path:    docPath,
		Content: patch.Content,
		IfMatch: obj.Version,
		Message: commitMessage("Edit narration:", key),
	})
	if err != nil {
		return TextResult{}, services.Wrap(services.ErrStore, wf, op, "write document", err)
	}
	result.DocumentVersion = written.Version
	logger.Info("narration saved", logging.Int("chars", len(text)))

	snapshot, err := manifest.Load(ctx, s.store, s.layout.ManifestPath)
	if err != nil {
		result.Warning = manifestWarning("narration", err)
		logging.WarnWithContext(logger, "manifest load failed after text edit", "manifest_update_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "edit time not recorded; audio status is unaffected"),
		)
		return result, nil
	}
	entry, ok := snapshot.Manifest.Get(key)
	if !ok {
		logger.Debug("no manifest entry for slide; skipping manifest update")
		return result, nil
	}
	_, err = manifest.Save(ctx, s.store, s.layout.ManifestPath,
		snapshot.Manifest.Upsert(key, entry.WithEdit(*s.timestamp())), snapshot.Version, commitMessage("Update manifest:", key))
	if err != nil {
		result.Warning = manifestWarning("narration", err)
		logging.WarnWithContext(logger, "manifest write failed after text edit", "manifest_update_failed",
			logging.Error(err),
			logging.Bool("retryable", services.Retryable(err)),
			logging.String(logging.FieldErrorHint, "edit time not recorded; audio status is unaffected"),
		)
		return result, nil
	}
	result.ManifestUpdated = true
	return result, nil
}
