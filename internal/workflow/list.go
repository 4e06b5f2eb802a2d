package workflow

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"narrate/internal/deck"
	"narrate/internal/document"
	"narrate/internal/manifest"
	"narrate/internal/services"
	"narrate/internal/staleness"
	"narrate/internal/textutil"
)

// ListSlides reports every slide of a deck with its narration and audio
// status. It never writes.
func (s *Service) ListSlides(ctx context.Context, deckID string) ([]SlideStatus, error) {
	const wf = WorkflowListSlides
	id, err := deck.ParseID(deckID)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, wf, "", "invalid deck", err)
	}
	ctx, _ = s.scope(ctx, wf, nil)
	snapshot, err := manifest.Load(ctx, s.store, s.layout.ManifestPath)
	if err != nil {
		return nil, services.Wrap(storeMarker(err), wf, id.String(), "load manifest", err)
	}
	return s.listDeck(ctx, wf, id, snapshot.Manifest)
}

func (s *Service) listDeck(ctx context.Context, wf string, id deck.ID, m manifest.Manifest) ([]SlideStatus, error) {
	obj, err := s.store.Read(ctx, s.layout.DocumentPath(id))
	if err != nil {
		return nil, services.Wrap(services.ErrStore, wf, id.String(), "read document", err)
	}
	objects, err := s.store.List(ctx, s.layout.AudioDeckDir(id))
	if err != nil {
		return nil, services.Wrap(services.ErrStore, wf, id.String(), "list audio", err)
	}
	present := make(map[string]struct{}, len(objects))
	for _, info := range objects {
		present[info.Path] = struct{}{}
	}

	slides := document.Narrations(obj.Content)
	out := make([]SlideStatus, 0, len(slides))
	for _, slide := range slides {
		key := s.layout.Key(id, slide.Index)
		audioPath := s.layout.AudioPath(key)
		_, exists := present[audioPath]
		row := SlideStatus{
			Index:        slide.Index,
			Key:          key.String(),
			AudioPath:    audioPath,
			Narration:    slide.Narration,
			HasNarration: slide.HasNarration,
			AudioExists:  exists,
		}
		in := staleness.Input{ArtifactExists: exists, Current: textutil.FingerprintOf(slide.Narration)}
		if entry, ok := m.Get(key); ok {
			in.Entry = &entry
			row.HasEntry = true
			row.Origin = entry.Origin
			row.Fingerprint = entry.Fingerprint
			row.RecordedAt = entry.RecordedAt
			row.EditedAt = entry.EditedAt
		}
		row.Status = staleness.Classify(in)
		out = append(out, row)
	}
	return out, nil
}

// ListModules summarizes every deck document in the store. Deck listings run
// concurrently, bounded by the configured worker count.
func (s *Service) ListModules(ctx context.Context) ([]ModuleSummary, error) {
	const wf = WorkflowListModules
	ctx, _ = s.scope(ctx, wf, nil)
	docs, err := s.store.List(ctx, s.layout.ModulesDir)
	if err != nil {
		return nil, services.Wrap(services.ErrStore, wf, "", "list modules", err)
	}
	var ids []deck.ID
	for _, info := range docs {
		if id, ok := s.layout.DeckFromDocument(info.Path); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	snapshot, err := manifest.Load(ctx, s.store, s.layout.ManifestPath)
	if err != nil {
		return nil, services.Wrap(storeMarker(err), wf, "", "load manifest", err)
	}

	summaries := make([]ModuleSummary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.listWorkers)
	for i, id := range ids {
		g.Go(func() error {
			slides, err := s.listDeck(gctx, wf, id, snapshot.Manifest)
			if err != nil {
				return err
			}
			summary := ModuleSummary{Deck: id}
			for _, slide := range slides {
				summary.add(slide)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Deck < summaries[j].Deck })
	return summaries, nil
}
