package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"narrate/internal/config"
	"narrate/internal/deps"
	"narrate/internal/logging"
	"narrate/internal/workflow"
)

// Workflows is the subset of workflow.Service the studio calls.
type Workflows interface {
	SaveRecording(ctx context.Context, req workflow.RecordingRequest) (workflow.RecordingResult, error)
	SaveNarrationText(ctx context.Context, deckID string, slide int, text string) (workflow.TextResult, error)
	GenerateAudio(ctx context.Context, deckID string, slide int, text string) (workflow.GenerateResult, error)
	GenerateDeck(ctx context.Context, deckID string) (workflow.BatchSummary, error)
	ListSlides(ctx context.Context, deckID string) ([]workflow.SlideStatus, error)
	ListModules(ctx context.Context) ([]workflow.ModuleSummary, error)
}

// Options configures a Server.
type Options struct {
	Workflows Workflows
	Server    config.Server
	// Backend names the store backend for the health endpoint.
	Backend string
	// TTSEnabled reports whether a synthesizer is configured.
	TTSEnabled bool
	// Dependencies reports external binary availability for the health
	// endpoint. Nil reports none.
	Dependencies func() []deps.Status
	Logger       *slog.Logger
}

// Server is the studio HTTP API.
type Server struct {
	workflows  Workflows
	cfg        config.Server
	backend    string
	ttsEnabled bool
	deps       func() []deps.Status
	logger     *slog.Logger
	engine     *gin.Engine
}

// New builds the router. It does not start listening.
func New(opts Options) (*Server, error) {
	if opts.Workflows == nil {
		return nil, errors.New("studio: workflows are required")
	}
	s := &Server{
		workflows:  opts.Workflows,
		cfg:        opts.Server,
		backend:    strings.TrimSpace(opts.Backend),
		ttsEnabled: opts.TTSEnabled,
		deps:       opts.Dependencies,
		logger:     logging.NewComponentLogger(opts.Logger, "studio"),
	}
	if s.cfg.MaxJSONBytes <= 0 {
		s.cfg.MaxJSONBytes = 6 << 20
	}
	if s.cfg.MaxAudioBytes <= 0 {
		s.cfg.MaxAudioBytes = 50 << 20
	}
	if s.cfg.MaxTextBytes <= 0 {
		s.cfg.MaxTextBytes = 1 << 20
	}
	s.engine = s.newRouter()
	return s, nil
}

// Handler exposes the router for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe binds the configured address and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Bind)
	if bind == "" {
		return errors.New("studio: bind address is required")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("studio listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("studio listening",
		logging.String("address", listener.Addr().String()),
		logging.String("backend", s.backend),
		logging.Bool("tts", s.ttsEnabled),
		logging.Bool("secret_required", s.cfg.Secret != ""),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("studio serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("studio shutdown: %w", err)
	}
	s.logger.Info("studio stopped")
	return nil
}
