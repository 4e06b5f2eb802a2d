// Package elevenlabs is a minimal client for the ElevenLabs text-to-speech API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL         = "https://api.elevenlabs.io"
	DefaultVoiceID         = "21m00Tcm4TlvDq8ikWAM"
	DefaultModelID         = "eleven_turbo_v2_5"
	DefaultStability       = 0.5
	DefaultSimilarityBoost = 0.75
	defaultHTTPTimeout     = 60 * time.Second
	defaultOutputFormat    = "mp3_44100_128"
	maxErrorBody           = 4 << 10
)

// Config captures the runtime settings required to synthesize speech.
type Config struct {
	APIKey          string
	BaseURL         string
	VoiceID         string
	ModelID         string
	Stability       float64
	SimilarityBoost float64
	Timeout         time.Duration
}

// Client wraps the text-to-speech endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client, filling unset fields with the documented defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.VoiceID = strings.TrimSpace(cfg.VoiceID); cfg.VoiceID == "" {
		cfg.VoiceID = DefaultVoiceID
	}
	if cfg.ModelID = strings.TrimSpace(cfg.ModelID); cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.Stability <= 0 {
		cfg.Stability = DefaultStability
	}
	if cfg.SimilarityBoost <= 0 {
		cfg.SimilarityBoost = DefaultSimilarityBoost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	client := &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// VoiceID returns the configured default voice.
func (c *Client) VoiceID() string {
	return c.cfg.VoiceID
}

// ModelID returns the configured synthesis model.
func (c *Client) ModelID() string {
	return c.cfg.ModelID
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("elevenlabs: http %d", e.StatusCode)
	}
	return fmt.Sprintf("elevenlabs: http %d: %s", e.StatusCode, body)
}

// Temporary reports whether the provider may accept the same request later.
// Rejected credentials (401/403) and bad payloads are permanent.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// transportError marks network failures as transient.
type transportError struct {
	err error
}

func (e *transportError) Error() string   { return "elevenlabs: " + e.err.Error() }
func (e *transportError) Unwrap() error   { return e.err }
func (e *transportError) Temporary() bool { return true }

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to MP3 audio using voiceID, or the configured
// voice when voiceID is empty. The text is sent unchanged so the audio matches
// the fingerprint callers record. The call is made exactly once.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("elevenlabs: text required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("elevenlabs: api key required")
	}
	voiceID = strings.TrimSpace(voiceID)
	if voiceID == "" {
		voiceID = c.cfg.VoiceID
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "text-to-speech", voiceID)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: build url: %w", err)
	}
	endpoint += "?output_format=" + defaultOutputFormat

	payload, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read body: %w", err)}
	}
	if len(audio) == 0 {
		return nil, errors.New("elevenlabs: empty audio response")
	}
	return audio, nil
}

// HealthCheck confirms the API key is accepted by looking up the configured
// voice. It makes a single request.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("elevenlabs: api key required")
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "voices", c.cfg.VoiceID)
	if err != nil {
		return fmt.Errorf("elevenlabs: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("elevenlabs: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &transportError{err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}
