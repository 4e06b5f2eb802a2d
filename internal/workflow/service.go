package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"narrate/internal/deck"
	"narrate/internal/logging"
	"narrate/internal/services"
	"narrate/internal/store"
)

// Workflow names used in errors and log records.
const (
	WorkflowSaveRecording = "save_recording"
	WorkflowSaveText      = "save_narration_text"
	WorkflowGenerate      = "generate_audio"
	WorkflowGenerateDeck  = "generate_deck"
	WorkflowListSlides    = "list_slides"
	WorkflowListModules   = "list_modules"
)

const (
	defaultRequestDelay = 500 * time.Millisecond
	defaultListWorkers  = 4
)

// Synthesizer turns narration text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Transcoder converts an uploaded recording into the stored audio format.
type Transcoder interface {
	Transcode(ctx context.Context, input []byte) ([]byte, error)
}

// Deps carries everything a Service needs. Store is required; Synthesizer
// and Transcoder are only needed by the operations that use them.
type Deps struct {
	Store       store.Store
	Synthesizer Synthesizer
	Transcoder  Transcoder
	Layout      deck.Layout
	// VoiceID is passed to the synthesizer; empty selects its default.
	VoiceID string
	Clock   func() time.Time
	Logger  *slog.Logger
	// RequestDelay spaces provider calls during GenerateDeck. Zero selects
	// 500ms; a negative value disables the delay.
	RequestDelay time.Duration
	// Sleep waits between provider calls; it must return early when ctx ends.
	Sleep func(ctx context.Context, d time.Duration) error
	// ListWorkers bounds concurrent deck reads in ListModules.
	ListWorkers int
}

// Service runs the narration workflows against one store.
type Service struct {
	store        store.Store
	synth        Synthesizer
	transcoder   Transcoder
	layout       deck.Layout
	voiceID      string
	now          func() time.Time
	logger       *slog.Logger
	requestDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	listWorkers  int

	paceMu       sync.Mutex
	lastProvider time.Time
}

// New validates deps and fills defaults.
func New(deps Deps) (*Service, error) {
	if deps.Store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "", "store is required", nil)
	}
	layout := deps.Layout
	if layout == (deck.Layout{}) {
		layout = deck.DefaultLayout()
	}
	svc := &Service{
		store:        deps.Store,
		synth:        deps.Synthesizer,
		transcoder:   deps.Transcoder,
		layout:       layout,
		voiceID:      deps.VoiceID,
		now:          deps.Clock,
		logger:       logging.NewComponentLogger(deps.Logger, "workflow"),
		requestDelay: deps.RequestDelay,
		sleep:        deps.Sleep,
		listWorkers:  deps.ListWorkers,
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.requestDelay < 0 {
		svc.requestDelay = 0
	} else if svc.requestDelay == 0 {
		svc.requestDelay = defaultRequestDelay
	}
	if svc.sleep == nil {
		svc.sleep = sleepContext
	}
	if svc.listWorkers <= 0 {
		svc.listWorkers = defaultListWorkers
	}
	return svc, nil
}

// Layout returns the store layout the service operates on.
func (s *Service) Layout() deck.Layout {
	return s.layout
}

func (s *Service) slideKey(workflow, deckID string, slide int) (deck.SlideKey, error) {
	id, err := deck.ParseID(deckID)
	if err != nil {
		return deck.SlideKey{}, services.Wrap(services.ErrValidation, workflow, "", "invalid deck", err)
	}
	if err := deck.ValidateSlide(slide); err != nil {
		return deck.SlideKey{}, services.Wrap(services.ErrValidation, workflow, id.String(), "invalid slide", err)
	}
	return s.layout.Key(id, slide), nil
}

// scope annotates ctx for one operation and returns the matching logger.
func (s *Service) scope(ctx context.Context, workflow string, key *deck.SlideKey) (context.Context, *slog.Logger) {
	ctx = services.WithWorkflow(ctx, workflow)
	if key != nil {
		ctx = services.WithSlideKey(ctx, key.String())
	}
	return ctx, logging.WithContext(ctx, s.logger)
}

func (s *Service) timestamp() *time.Time {
	now := s.now().UTC().Truncate(time.Second)
	return &now
}

// storeMarker keeps corrupt manifest errors distinct from transport failures.
func storeMarker(err error) error {
	if errors.Is(err, services.ErrCorruptManifest) {
		return services.ErrCorruptManifest
	}
	return services.ErrStore
}

// manifestWarning formats the warning attached to results whose content
// write succeeded but whose manifest write did not.
func manifestWarning(what string, err error) string {
	return fmt.Sprintf("%s saved but manifest update failed: %v", what, err)
}

func commitMessage(verb string, key deck.SlideKey) string {
	return fmt.Sprintf("%s %s slide %d", verb, key.Deck, key.Slide)
}

// waitTurn sleeps until the request delay has passed since the previous
// batch provider call.
func (s *Service) waitTurn(ctx context.Context) error {
	s.paceMu.Lock()
	last := s.lastProvider
	s.paceMu.Unlock()
	if last.IsZero() || s.requestDelay <= 0 {
		return ctx.Err()
	}
	remaining := s.requestDelay - s.now().Sub(last)
	if remaining <= 0 {
		return ctx.Err()
	}
	return s.sleep(ctx, remaining)
}

func (s *Service) markProviderCall() {
	s.paceMu.Lock()
	s.lastProvider = s.now()
	s.paceMu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
