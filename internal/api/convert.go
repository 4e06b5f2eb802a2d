package api

import (
	"fmt"
	"time"

	"narrate/internal/deps"
	"narrate/internal/manifest"
	"narrate/internal/preflight"
	"narrate/internal/workflow"
)

// FromSlideStatus converts a listing row.
func FromSlideStatus(s workflow.SlideStatus) SlideView {
	view := SlideView{
		Index:        s.Index,
		Key:          s.Key,
		AudioPath:    s.AudioPath,
		Narration:    s.Narration,
		HasNarration: s.HasNarration,
		AudioExists:  s.AudioExists,
		Status:       string(s.Status),
		TextHash:     s.Fingerprint.String(),
		RecordedAt:   formatTimePtr(s.RecordedAt),
		EditedAt:     formatTimePtr(s.EditedAt),
	}
	if s.HasEntry {
		view.Origin = string(s.Origin)
		view.Custom = s.Origin == manifest.OriginCustom
	}
	return view
}

// FromSlideStatuses converts a deck listing, never returning nil.
func FromSlideStatuses(deckID string, slides []workflow.SlideStatus) SlideListResponse {
	resp := SlideListResponse{Module: deckID, Slides: make([]SlideView, 0, len(slides))}
	for _, s := range slides {
		resp.Slides = append(resp.Slides, FromSlideStatus(s))
	}
	return resp
}

// FromModuleSummary converts one deck summary.
func FromModuleSummary(m workflow.ModuleSummary) ModuleView {
	return ModuleView{
		Module:        string(m.Deck),
		Slides:        m.Slides,
		WithNarration: m.WithNarration,
		WithAudio:     m.WithAudio,
		Current:       m.Current,
		Outdated:      m.Outdated,
		Unverified:    m.Unverified,
		None:          m.None,
	}
}

// FromModuleSummaries converts the module listing.
func FromModuleSummaries(modules []workflow.ModuleSummary) ModuleListResponse {
	resp := ModuleListResponse{Modules: make([]ModuleView, 0, len(modules))}
	for _, m := range modules {
		resp.Modules = append(resp.Modules, FromModuleSummary(m))
	}
	return resp
}

// FromRecordingResult converts a save-audio result.
func FromRecordingResult(r workflow.RecordingResult) RecordingResponse {
	return RecordingResponse{
		Success:         true,
		Path:            r.AudioPath,
		Key:             r.Key.String(),
		Bytes:           r.AudioBytes,
		TextHash:        r.Fingerprint.String(),
		ManifestUpdated: r.ManifestUpdated,
		Warning:         r.Warning,
		Message:         fmt.Sprintf("Recording saved for %s slide %d", r.Key.Deck, r.Key.Slide),
	}
}

// FromTextResult converts a save-text result.
func FromTextResult(r workflow.TextResult) TextResponse {
	message := fmt.Sprintf("Narration updated for %s slide %d", r.Key.Deck, r.Key.Slide)
	if !r.Changed {
		message = fmt.Sprintf("Narration for %s slide %d already up to date", r.Key.Deck, r.Key.Slide)
	}
	resp := TextResponse{
		Success:         true,
		Path:            r.DocumentPath,
		Changed:         r.Changed,
		TextHash:        r.Fingerprint.String(),
		ManifestUpdated: r.ManifestUpdated,
		Warning:         r.Warning,
		Message:         message,
	}
	if r.HadPrevious {
		resp.PreviousNarration = r.Previous
	}
	return resp
}

// FromGenerateResult converts one generation outcome.
func FromGenerateResult(r workflow.GenerateResult) GenerateResponse {
	return GenerateResponse{
		Success:         r.Status != workflow.StatusFailed,
		Key:             r.Key.String(),
		Path:            r.AudioPath,
		Status:          string(r.Status),
		TextHash:        r.Fingerprint.String(),
		Bytes:           r.AudioBytes,
		Synthesized:     r.Synthesized,
		ManifestUpdated: r.ManifestUpdated,
		Warning:         r.Warning,
		Error:           r.Error,
	}
}

// FromBatchSummary converts a deck generation run.
func FromBatchSummary(b workflow.BatchSummary) BatchView {
	view := BatchView{
		Module:      string(b.Deck),
		VoiceID:     b.VoiceID,
		Generated:   b.Generated,
		Unchanged:   b.Unchanged,
		Protected:   b.Protected,
		NoNarration: b.NoNarration,
		Failed:      b.Failed,
		Slides:      make([]GenerateResponse, 0, len(b.Slides)),
	}
	for _, s := range b.Slides {
		view.Slides = append(view.Slides, FromGenerateResult(s))
	}
	return view
}

// FromDependencyStatuses converts binary checks.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	return out
}

// FromPreflightResults summarizes readiness checks. Skipped checks do not
// affect readiness.
func FromPreflightResults(backend string, results []preflight.Result) StatusResponse {
	resp := StatusResponse{
		Ready:   len(preflight.Failed(results)) == 0,
		Backend: backend,
		Checks:  make([]CheckView, 0, len(results)),
	}
	for _, r := range results {
		resp.Checks = append(resp.Checks, CheckView{
			Name:    r.Name,
			Passed:  r.Passed,
			Skipped: r.Skipped,
			Detail:  r.Detail,
		})
	}
	return resp
}

// FormatTime renders t in the API timestamp format; zero renders empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTime(*t)
}
