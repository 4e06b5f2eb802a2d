package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"narrate/internal/deck"
	"narrate/internal/manifest"
	"narrate/internal/services"
	"narrate/internal/staleness"
	"narrate/internal/store"
	"narrate/internal/testsupport"
	"narrate/internal/textutil"
	"narrate/internal/workflow"
)

const manifestPath = "audio/manifest.json"

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

type harness struct {
	mem    *store.Memory
	synth  *testsupport.FakeSynthesizer
	trans  *testsupport.FakeTranscoder
	sleeps []time.Duration
	svc    *workflow.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		mem:   store.NewMemory(),
		synth: &testsupport.FakeSynthesizer{},
		trans: &testsupport.FakeTranscoder{},
	}
	svc, err := workflow.New(workflow.Deps{
		Store:        h.mem,
		Synthesizer:  h.synth,
		Transcoder:   h.trans,
		VoiceID:      "voice-1",
		Clock:        func() time.Time { return fixedNow },
		RequestDelay: 500 * time.Millisecond,
		Sleep: func(ctx context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return ctx.Err()
		},
	})
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}
	h.svc = svc
	return h
}

func (h *harness) entry(t *testing.T, deckID string, slide int) (manifest.Entry, bool) {
	t.Helper()
	snap, err := manifest.Load(context.Background(), h.mem, manifestPath)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	key, err := deck.NewSlideKey(deckID, slide)
	if err != nil {
		t.Fatalf("slide key: %v", err)
	}
	return snap.Manifest.Get(key)
}

func (h *harness) status(t *testing.T, deckID string, slide int) staleness.Verdict {
	t.Helper()
	slides, err := h.svc.ListSlides(context.Background(), deckID)
	if err != nil {
		t.Fatalf("ListSlides: %v", err)
	}
	for _, s := range slides {
		if s.Index == slide {
			return s.Status
		}
	}
	t.Fatalf("slide %d not listed", slide)
	return ""
}

func strPtr(s string) *string { return &s }

func TestNewRequiresStore(t *testing.T) {
	_, err := workflow.New(workflow.Deps{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestGenerateAudioIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.GenerateAudio(ctx, "module-01", 2, "Welcome back")
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if first.Status != workflow.StatusGenerated || !first.ManifestUpdated || first.Warning != "" {
		t.Fatalf("unexpected first result %+v", first)
	}
	writes := len(h.mem.Writes())
	if writes != 2 {
		t.Fatalf("expected audio and manifest writes, got %d", writes)
	}
	entry, ok := h.entry(t, "module-01", 2)
	if !ok || entry.Origin != manifest.OriginGenerated || entry.Fingerprint != textutil.FingerprintOf("Welcome back") {
		t.Fatalf("unexpected manifest entry %+v", entry)
	}

	second, err := h.svc.GenerateAudio(ctx, "module-01", 2, "Welcome back")
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if second.Status != workflow.StatusUnchanged || second.Synthesized {
		t.Fatalf("unexpected second result %+v", second)
	}
	if got := len(h.mem.Writes()); got != writes {
		t.Fatalf("second generate wrote %d objects", got-writes)
	}
	if calls := h.synth.Calls(); len(calls) != 1 || calls[0].VoiceID != "voice-1" {
		t.Fatalf("unexpected provider calls %+v", calls)
	}
}

func TestGenerateAudioRegeneratesWhenArtifactMissingOrTextChanged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.svc.GenerateAudio(ctx, "module-01", 1, "One"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	res, err := h.svc.GenerateAudio(ctx, "module-01", 1, "One, revised")
	if err != nil || res.Status != workflow.StatusGenerated {
		t.Fatalf("expected regeneration for changed text, got %+v, %v", res, err)
	}

	// A manifest entry without its object is regenerated.
	h2 := newHarness(t)
	key, _ := deck.NewSlideKey("module-01", 1)
	m := manifest.Empty().Upsert(key, manifest.Entry{Origin: manifest.OriginGenerated, Fingerprint: textutil.FingerprintOf("One")})
	data, _ := m.Encode()
	h2.mem.Put(manifestPath, data)
	res, err = h2.svc.GenerateAudio(ctx, "module-01", 1, "One")
	if err != nil || res.Status != workflow.StatusGenerated {
		t.Fatalf("expected regeneration for missing artifact, got %+v, %v", res, err)
	}
}

func TestGenerateAudioNeverOverwritesCustom(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rec, err := h.svc.SaveRecording(ctx, workflow.RecordingRequest{
		Deck: "module-02", Slide: 1, Audio: []byte("webm"), Narration: strPtr("Intro"),
	})
	if err != nil || !rec.ManifestUpdated {
		t.Fatalf("SaveRecording: %+v, %v", rec, err)
	}
	writes := len(h.mem.Writes())

	for _, text := range []string{"Intro", "Different text"} {
		res, err := h.svc.GenerateAudio(ctx, "module-02", 1, text)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if res.Status != workflow.StatusProtected {
			t.Fatalf("expected protected, got %s", res.Status)
		}
	}
	if got := len(h.mem.Writes()); got != writes {
		t.Fatalf("protected slide was written %d times", got-writes)
	}
	if len(h.synth.Calls()) != 0 {
		t.Fatalf("provider called for protected slide")
	}
	obj, err := h.mem.Read(ctx, rec.AudioPath)
	if err != nil || string(obj.Content) != "mp3:webm" {
		t.Fatalf("custom audio changed: %q, %v", obj.Content, err)
	}
	entry, _ := h.entry(t, "module-02", 1)
	if entry.Origin != manifest.OriginCustom {
		t.Fatalf("origin changed to %s", entry.Origin)
	}
}

func TestGenerateAudioErrors(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t)
	if _, err := h.svc.GenerateAudio(ctx, "module-1", 1, "x"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for deck, got %v", err)
	}
	if _, err := h.svc.GenerateAudio(ctx, "module-01", 0, "x"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for slide, got %v", err)
	}
	if _, err := h.svc.GenerateAudio(ctx, "module-01", 1, "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty text, got %v", err)
	}

	h.synth.Fail = func(string) error { return errors.New("http 401") }
	_, err := h.svc.GenerateAudio(ctx, "module-01", 1, "hello")
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "generate_audio") || !strings.Contains(err.Error(), "module-01/slide-01.mp3") {
		t.Fatalf("error lacks workflow or key: %v", err)
	}
	if len(h.mem.Writes()) != 0 {
		t.Fatalf("provider failure wrote objects")
	}

	corrupt := newHarness(t)
	corrupt.mem.Put(manifestPath, []byte(`{"generated":{"module-01/slide-01.mp3":42}}`))
	if _, err := corrupt.svc.GenerateAudio(ctx, "module-01", 1, "hello"); !errors.Is(err, services.ErrCorruptManifest) {
		t.Fatalf("expected corrupt manifest, got %v", err)
	}
}

func TestGenerateAudioManifestFailureIsWarning(t *testing.T) {
	h := newHarness(t)
	h.mem.FailWrite = func(req store.WriteRequest) error {
		if req.Path == manifestPath {
			return errors.New("boom")
		}
		return nil
	}
	res, err := h.svc.GenerateAudio(context.Background(), "module-01", 1, "hello")
	if err != nil {
		t.Fatalf("expected partial success, got %v", err)
	}
	if res.Status != workflow.StatusGenerated || res.ManifestUpdated || res.Warning == "" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSaveRecordingTranscodeFailureWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.trans.Err = errors.New("ffmpeg missing")
	_, err := h.svc.SaveRecording(context.Background(), workflow.RecordingRequest{Deck: "module-01", Slide: 1, Audio: []byte("x")})
	if !errors.Is(err, services.ErrTranscode) {
		t.Fatalf("expected transcode error, got %v", err)
	}
	if len(h.mem.Writes()) != 0 {
		t.Fatalf("transcode failure wrote objects")
	}
}

func TestSaveRecordingValidatesBeforeTranscode(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.SaveRecording(context.Background(), workflow.RecordingRequest{Deck: "deck", Slide: 1, Audio: []byte("x")})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = h.svc.SaveRecording(context.Background(), workflow.RecordingRequest{Deck: "module-01", Slide: 1})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty audio, got %v", err)
	}
	if h.trans.Calls() != 0 {
		t.Fatalf("transcoder ran for invalid request")
	}
}

func TestSaveRecordingAudioFailureLeavesManifest(t *testing.T) {
	h := newHarness(t)
	h.mem.FailWrite = func(req store.WriteRequest) error {
		if strings.HasSuffix(req.Path, ".mp3") {
			return errors.New("network down")
		}
		return nil
	}
	_, err := h.svc.SaveRecording(context.Background(), workflow.RecordingRequest{Deck: "module-01", Slide: 1, Audio: []byte("x")})
	if !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if h.mem.WritesTo(manifestPath) != 0 {
		t.Fatalf("manifest written after audio failure")
	}
}

func TestSaveRecordingReplacesWithVersionCheck(t *testing.T) {
	h := newHarness(t)
	prior := h.mem.Put("audio/module-01/slide-03.mp3", []byte("old"))
	res, err := h.svc.SaveRecording(context.Background(), workflow.RecordingRequest{Deck: "module-01", Slide: 3, Audio: []byte("new")})
	if err != nil {
		t.Fatalf("SaveRecording: %v", err)
	}
	writes := h.mem.Writes()
	if len(writes) != 2 || writes[0].IfMatch != prior || writes[0].Message != "Record module-01 slide 3" {
		t.Fatalf("unexpected audio write %+v", writes[0])
	}
	if writes[1].Path != manifestPath || writes[1].IfMatch != "" || writes[1].Message != "Update manifest: module-01 slide 3" {
		t.Fatalf("unexpected manifest write %+v", writes[1])
	}
	entry, _ := h.entry(t, "module-01", 3)
	if entry.Origin != manifest.OriginCustom || !entry.Fingerprint.IsZero() || entry.RecordedAt == nil || !entry.RecordedAt.Equal(fixedNow) {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if res.Fingerprint != "" {
		t.Fatalf("expected no fingerprint without narration, got %s", res.Fingerprint)
	}
}

func TestSaveRecordingManifestFailureIsPartialSuccess(t *testing.T) {
	h := newHarness(t)
	testsupport.SeedDeck(t, h.mem, "module-04", "First")
	h.mem.FailWrite = func(req store.WriteRequest) error {
		if req.Path == manifestPath {
			return &store.ConflictError{Path: req.Path, Expected: req.IfMatch, Current: "other"}
		}
		return nil
	}
	res, err := h.svc.SaveRecording(context.Background(), workflow.RecordingRequest{
		Deck: "module-04", Slide: 1, Audio: []byte("x"), Narration: strPtr("First"),
	})
	if err != nil {
		t.Fatalf("expected partial success, got %v", err)
	}
	if res.ManifestUpdated || res.Warning == "" || res.AudioVersion == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	h.mem.FailWrite = nil
	if got := h.status(t, "module-04", 1); got != staleness.Unverified {
		t.Fatalf("expected unverified after partial save, got %s", got)
	}
}

func TestSaveNarrationText(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testsupport.SeedDeck(t, h.mem, "module-02", "Old one", "")

	res, err := h.svc.SaveNarrationText(ctx, "module-02", 2, `Say "hi"`)
	if err != nil {
		t.Fatalf("SaveNarrationText: %v", err)
	}
	if !res.Changed || res.HadPrevious || res.ManifestUpdated || res.Warning != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	writes := h.mem.Writes()
	if len(writes) != 1 || writes[0].Message != "Edit narration: module-02 slide 2" || writes[0].IfMatch == "" {
		t.Fatalf("unexpected writes %+v", writes)
	}
	obj, _ := h.mem.Read(ctx, "modules/module-02.html")
	if !strings.Contains(string(obj.Content), `data-narration="Say &quot;hi&quot;"`) {
		t.Fatalf("narration not written:\n%s", obj.Content)
	}

	again, err := h.svc.SaveNarrationText(ctx, "module-02", 2, `Say "hi"`)
	if err != nil || again.Changed {
		t.Fatalf("expected no-op resave, got %+v, %v", again, err)
	}
	if len(h.mem.Writes()) != 1 {
		t.Fatalf("no-op resave wrote objects")
	}

	if _, err := h.svc.SaveNarrationText(ctx, "module-02", 3, "x"); !errors.Is(err, services.ErrSlideNotFound) {
		t.Fatalf("expected slide not found, got %v", err)
	}
	if _, err := h.svc.SaveNarrationText(ctx, "module-09", 1, "x"); !errors.Is(err, services.ErrStore) || !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected store not found, got %v", err)
	}
}

func TestSaveNarrationTextConflict(t *testing.T) {
	h := newHarness(t)
	testsupport.SeedDeck(t, h.mem, "module-02", "Old")
	h.mem.FailWrite = func(req store.WriteRequest) error {
		return &store.ConflictError{Path: req.Path, Expected: req.IfMatch, Current: "newer"}
	}
	_, err := h.svc.SaveNarrationText(context.Background(), "module-02", 1, "New")
	if !errors.Is(err, services.ErrStore) || !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatalf("conflict should be retryable")
	}
}

func TestSaveNarrationTextNormalizesLegacyEntry(t *testing.T) {
	h := newHarness(t)
	testsupport.SeedDeck(t, h.mem, "module-01", "Before")
	h.mem.Put(manifestPath, []byte(`{"generated":{"module-01/slide-01.mp3":"legacyhash"},"note":"keep"}`))

	res, err := h.svc.SaveNarrationText(context.Background(), "module-01", 1, "After")
	if err != nil {
		t.Fatalf("SaveNarrationText: %v", err)
	}
	if !res.ManifestUpdated || res.Previous != "Before" || !res.HadPrevious {
		t.Fatalf("unexpected result %+v", res)
	}
	entry, ok := h.entry(t, "module-01", 1)
	if !ok || entry.Origin != manifest.OriginGenerated || entry.Fingerprint != "legacyhash" || entry.EditedAt == nil {
		t.Fatalf("unexpected entry %+v", entry)
	}
	obj, _ := h.mem.Read(context.Background(), manifestPath)
	if !strings.Contains(string(obj.Content), `"note": "keep"`) || !strings.Contains(string(obj.Content), `"textEditedAt"`) {
		t.Fatalf("manifest not rewritten in structured form:\n%s", obj.Content)
	}
}

func TestSaveNarrationTextManifestFailureWithEntryWarns(t *testing.T) {
	h := newHarness(t)
	testsupport.SeedDeck(t, h.mem, "module-01", "Before")
	if _, err := h.svc.GenerateAudio(context.Background(), "module-01", 1, "Before"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	h.mem.FailWrite = func(req store.WriteRequest) error {
		if req.Path == manifestPath {
			return errors.New("boom")
		}
		return nil
	}
	res, err := h.svc.SaveNarrationText(context.Background(), "module-01", 1, "After")
	if err != nil || res.ManifestUpdated || res.Warning == "" {
		t.Fatalf("expected warning, got %+v, %v", res, err)
	}
}

func TestEndToEndEditRecordEdit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testsupport.SeedDeck(t, h.mem, "module-03", "One", "Two", "Three", "Four", "")

	text := "Hello <world> & friends"
	if _, err := h.svc.SaveNarrationText(ctx, "module-03", 5, text); err != nil {
		t.Fatalf("save text: %v", err)
	}
	obj, _ := h.mem.Read(ctx, "modules/module-03.html")
	if !strings.Contains(string(obj.Content), `data-narration="Hello &lt;world&gt; &amp; friends"`) {
		t.Fatalf("slide 5 not patched:\n%s", obj.Content)
	}
	if got := h.status(t, "module-03", 5); got != staleness.None {
		t.Fatalf("expected none before recording, got %s", got)
	}

	if _, err := h.svc.SaveRecording(ctx, workflow.RecordingRequest{
		Deck: "module-03", Slide: 5, Audio: []byte("rec"), Narration: strPtr(text),
	}); err != nil {
		t.Fatalf("save recording: %v", err)
	}
	entry, _ := h.entry(t, "module-03", 5)
	if entry.Origin != manifest.OriginCustom || entry.Fingerprint != textutil.FingerprintOf(text) {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if got := h.status(t, "module-03", 5); got != staleness.Current {
		t.Fatalf("expected current after recording, got %s", got)
	}

	res, err := h.svc.SaveNarrationText(ctx, "module-03", 5, "Goodbye")
	if err != nil || !res.ManifestUpdated {
		t.Fatalf("second save text: %+v, %v", res, err)
	}
	after, _ := h.entry(t, "module-03", 5)
	if after.Fingerprint != entry.Fingerprint || after.EditedAt == nil {
		t.Fatalf("edit changed fingerprint or missed edit time: %+v", after)
	}
	if got := h.status(t, "module-03", 5); got != staleness.Outdated {
		t.Fatalf("expected outdated after edit, got %s", got)
	}
}

func TestGenerateDeck(t *testing.T) {
	h := newHarness(t)
	testsupport.SeedDeck(t, h.mem, "module-05", "One", "", "Three", "Four")
	h.synth.Fail = func(text string) error {
		if text == "Three" {
			return errors.New("http 500")
		}
		return nil
	}

	summary, err := h.svc.GenerateDeck(context.Background(), "module-05")
	if err != nil {
		t.Fatalf("GenerateDeck: %v", err)
	}
	if summary.Generated != 2 || summary.NoNarration != 1 || summary.Failed != 1 || len(summary.Slides) != 4 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Slides[2].Status != workflow.StatusFailed || summary.Slides[2].Error == "" {
		t.Fatalf("unexpected failed slide %+v", summary.Slides[2])
	}
	if len(h.sleeps) != 2 || h.sleeps[0] != 500*time.Millisecond {
		t.Fatalf("expected a delay before each later provider call, got %v", h.sleeps)
	}

	h.synth.Fail = nil
	h.sleeps = nil
	rerun, err := h.svc.GenerateDeck(context.Background(), "module-05")
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if rerun.Generated != 1 || rerun.Unchanged != 2 {
		t.Fatalf("unexpected rerun %+v", rerun)
	}
	if len(h.sleeps) != 1 {
		t.Fatalf("expected only the regenerated slide to wait, got %v", h.sleeps)
	}
}

func TestGenerateDeckKeepsDelayAcrossDecks(t *testing.T) {
	h := newHarness(t)
	testsupport.SeedDeck(t, h.mem, "module-01", "A one", "A two")
	testsupport.SeedDeck(t, h.mem, "module-02", "B one", "B two")

	for _, id := range []string{"module-01", "module-02"} {
		summary, err := h.svc.GenerateDeck(context.Background(), id)
		if err != nil {
			t.Fatalf("GenerateDeck %s: %v", id, err)
		}
		if summary.Generated != 2 {
			t.Fatalf("unexpected summary for %s: %+v", id, summary)
		}
	}
	if calls := len(h.synth.Calls()); calls != 4 {
		t.Fatalf("expected 4 provider calls, got %d", calls)
	}
	if len(h.sleeps) != 3 {
		t.Fatalf("expected a delay before every provider call after the first, got %v", h.sleeps)
	}
	for _, d := range h.sleeps {
		if d != 500*time.Millisecond {
			t.Fatalf("unexpected delay %v", d)
		}
	}
}

func TestGenerateDeckSkipsElapsedDelay(t *testing.T) {
	h := newHarness(t)
	testsupport.SeedDeck(t, h.mem, "module-01", "First")
	testsupport.SeedDeck(t, h.mem, "module-02", "Second")
	now := fixedNow
	svc, err := workflow.New(workflow.Deps{
		Store:        h.mem,
		Synthesizer:  h.synth,
		Clock:        func() time.Time { return now },
		RequestDelay: 500 * time.Millisecond,
		Sleep: func(ctx context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}

	if _, err := svc.GenerateDeck(context.Background(), "module-01"); err != nil {
		t.Fatalf("first deck: %v", err)
	}
	now = now.Add(200 * time.Millisecond)
	if _, err := svc.GenerateDeck(context.Background(), "module-02"); err != nil {
		t.Fatalf("second deck: %v", err)
	}
	if len(h.sleeps) != 1 || h.sleeps[0] != 300*time.Millisecond {
		t.Fatalf("expected the remaining 300ms, got %v", h.sleeps)
	}

	now = now.Add(time.Second)
	testsupport.SeedDeck(t, h.mem, "module-03", "Third")
	if _, err := svc.GenerateDeck(context.Background(), "module-03"); err != nil {
		t.Fatalf("third deck: %v", err)
	}
	if len(h.sleeps) != 1 {
		t.Fatalf("expected no sleep once the delay elapsed, got %v", h.sleeps)
	}
}

func TestGenerateDeckStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	testsupport.SeedDeck(t, h.mem, "module-06", "One", "Two", "Three")
	ctx, cancel := context.WithCancel(context.Background())
	svc, err := workflow.New(workflow.Deps{
		Store:       h.mem,
		Synthesizer: h.synth,
		Sleep: func(context.Context, time.Duration) error {
			cancel()
			return context.Canceled
		},
	})
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}
	summary, err := svc.GenerateDeck(ctx, "module-06")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if summary.Generated != 1 || len(h.synth.Calls()) != 1 {
		t.Fatalf("expected one slide before cancel, got %+v", summary)
	}
}

func TestListModules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testsupport.SeedDeck(t, h.mem, "module-02", "A", "B")
	testsupport.SeedDeck(t, h.mem, "module-01", "C", "", "D")
	h.mem.Put("modules/index.html", []byte("<html></html>"))
	h.mem.Put("audio/module-01/slide-04.mp3", []byte("orphan"))

	if _, err := h.svc.GenerateAudio(ctx, "module-01", 1, "C"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := h.svc.GenerateAudio(ctx, "module-02", 1, "old A"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	h.mem.Put("audio/module-02/slide-02.mp3", []byte("untracked"))

	summaries, err := h.svc.ListModules(ctx)
	if err != nil {
		t.Fatalf("ListModules: %v", err)
	}
	if len(summaries) != 2 || summaries[0].Deck != "module-01" || summaries[1].Deck != "module-02" {
		t.Fatalf("unexpected summaries %+v", summaries)
	}
	one := summaries[0]
	if one.Slides != 3 || one.WithNarration != 2 || one.Current != 1 || one.None != 2 {
		t.Fatalf("unexpected module-01 summary %+v", one)
	}
	two := summaries[1]
	if two.Outdated != 1 || two.Unverified != 1 || two.WithAudio != 2 {
		t.Fatalf("unexpected module-02 summary %+v", two)
	}
}

func TestListSlidesReportsEntryDetails(t *testing.T) {
	h := newHarness(t)
	testsupport.SeedDeck(t, h.mem, "module-01", "Hello & <bye>")
	if _, err := h.svc.GenerateAudio(context.Background(), "module-01", 1, "Hello & <bye>"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	slides, err := h.svc.ListSlides(context.Background(), "module-01")
	if err != nil {
		t.Fatalf("ListSlides: %v", err)
	}
	if len(slides) != 1 {
		t.Fatalf("expected one slide, got %d", len(slides))
	}
	s := slides[0]
	if s.Narration != "Hello & <bye>" || !s.HasEntry || s.Origin != manifest.OriginGenerated || s.Status != staleness.Current {
		t.Fatalf("unexpected slide %+v", s)
	}
	if s.Key != "module-01/slide-01.mp3" || s.AudioPath != "audio/module-01/slide-01.mp3" {
		t.Fatalf("unexpected paths %+v", s)
	}
	if _, err := h.svc.ListSlides(context.Background(), "nope"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateAudioFingerprintsTextSentToProvider(t *testing.T) {
	h := newHarness(t)
	text := "  Padded narration \n"

	res, err := h.svc.GenerateAudio(context.Background(), "module-01", 1, text)
	if err != nil {
		t.Fatalf("GenerateAudio: %v", err)
	}
	calls := h.synth.Calls()
	if len(calls) != 1 || calls[0].Text != text {
		t.Fatalf("expected provider to receive the exact text, got %+v", calls)
	}
	if res.Fingerprint != textutil.FingerprintOf(calls[0].Text) {
		t.Fatalf("fingerprint %s does not describe the synthesized text", res.Fingerprint)
	}
}

func TestManifestTimestampsShareSecondPrecision(t *testing.T) {
	mem := store.NewMemory()
	testsupport.SeedDeck(t, mem, "module-02", "Before")
	svc, err := workflow.New(workflow.Deps{
		Store:      mem,
		Transcoder: &testsupport.FakeTranscoder{},
		Clock:      func() time.Time { return fixedNow.Add(750 * time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}
	ctx := context.Background()
	if _, err := svc.SaveRecording(ctx, workflow.RecordingRequest{Deck: "module-02", Slide: 1, Audio: []byte("webm")}); err != nil {
		t.Fatalf("SaveRecording: %v", err)
	}
	if _, err := svc.SaveNarrationText(ctx, "module-02", 1, "After"); err != nil {
		t.Fatalf("SaveNarrationText: %v", err)
	}

	snap, err := manifest.Load(ctx, mem, manifestPath)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	key, err := deck.NewSlideKey("module-02", 1)
	if err != nil {
		t.Fatalf("slide key: %v", err)
	}
	entry, ok := snap.Manifest.Get(key)
	if !ok || entry.RecordedAt == nil || entry.EditedAt == nil {
		t.Fatalf("expected both timestamps, got %+v", entry)
	}
	if !entry.RecordedAt.Equal(fixedNow) || !entry.EditedAt.Equal(fixedNow) {
		t.Fatalf("expected whole-second timestamps, got recorded=%v edited=%v", entry.RecordedAt, entry.EditedAt)
	}
}
