package studio

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"narrate/internal/api"
	"narrate/internal/deps"
	"narrate/internal/services"
	"narrate/internal/workflow"
)

// slideNumber accepts both 5 and "5" like the browser studio sends.
type slideNumber int

func (n *slideNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid slide number %q", raw)
		}
		*n = slideNumber(v)
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid slide number %s", data)
	}
	*n = slideNumber(v)
	return nil
}

type saveAudioRequest struct {
	Module    string      `json:"module"`
	Slide     slideNumber `json:"slide"`
	Narration *string     `json:"narration"`
	Audio     string      `json:"audio"`
}

type saveTextRequest struct {
	Module    string      `json:"module"`
	Slide     slideNumber `json:"slide"`
	Narration *string     `json:"narration"`
}

type generateRequest struct {
	Module string      `json:"module"`
	Slide  slideNumber `json:"slide"`
	Text   *string     `json:"text"`
}

type generateDeckRequest struct {
	Module string `json:"module"`
}

func (s *Server) handleHealth(c *gin.Context) {
	var statuses []deps.Status
	if s.deps != nil {
		statuses = s.deps()
	}
	respondOK(c, api.HealthResponse{
		Status:       "ok",
		Backend:      s.backend,
		TTS:          s.ttsEnabled,
		Dependencies: api.FromDependencyStatuses(statuses),
	})
}

// handleSaveAudio accepts either a JSON body with base64 audio or a raw
// audio/* body addressed by query parameters.
func (s *Server) handleSaveAudio(c *gin.Context) {
	var req workflow.RecordingRequest
	if isRawAudio(c.ContentType()) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxAudioBytes))
		if err != nil {
			respondError(c, err)
			return
		}
		slide, err := querySlide(c)
		if err != nil {
			respondError(c, err)
			return
		}
		req = workflow.RecordingRequest{Deck: c.Query("module"), Slide: slide, Audio: body}
		if narration, ok := c.GetQuery("narration"); ok {
			req.Narration = &narration
		}
	} else {
		var payload saveAudioRequest
		if err := s.decodeJSON(c, s.cfg.MaxJSONBytes, &payload); err != nil {
			respondError(c, err)
			return
		}
		if strings.TrimSpace(payload.Audio) == "" {
			respondError(c, validation("missing required fields: module, slide, audio"))
			return
		}
		audio, err := base64.StdEncoding.DecodeString(stripDataURL(payload.Audio))
		if err != nil {
			respondError(c, services.Wrap(services.ErrValidation, workflow.WorkflowSaveRecording, "", "audio is not valid base64", err))
			return
		}
		req = workflow.RecordingRequest{Deck: payload.Module, Slide: int(payload.Slide), Audio: audio, Narration: payload.Narration}
	}

	result, err := s.workflows.SaveRecording(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, api.FromRecordingResult(result))
}

func (s *Server) handleSaveText(c *gin.Context) {
	var payload saveTextRequest
	if err := s.decodeJSON(c, s.cfg.MaxTextBytes, &payload); err != nil {
		respondError(c, err)
		return
	}
	if err := fillFromQuery(c, &payload.Module, &payload.Slide); err != nil {
		respondError(c, err)
		return
	}
	if payload.Narration == nil {
		respondError(c, validation("missing required fields: module, slide, narration"))
		return
	}
	result, err := s.workflows.SaveNarrationText(c.Request.Context(), payload.Module, int(payload.Slide), *payload.Narration)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, api.FromTextResult(result))
}

func (s *Server) handleGenerateAudio(c *gin.Context) {
	var payload generateRequest
	if err := s.decodeJSON(c, s.cfg.MaxTextBytes, &payload); err != nil {
		respondError(c, err)
		return
	}
	if err := fillFromQuery(c, &payload.Module, &payload.Slide); err != nil {
		respondError(c, err)
		return
	}
	if payload.Text == nil {
		respondError(c, validation("missing text in request body"))
		return
	}
	result, err := s.workflows.GenerateAudio(c.Request.Context(), payload.Module, int(payload.Slide), *payload.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, api.FromGenerateResult(result))
}

func (s *Server) handleGenerateDeck(c *gin.Context) {
	var payload generateDeckRequest
	if err := s.decodeJSON(c, s.cfg.MaxTextBytes, &payload); err != nil {
		respondError(c, err)
		return
	}
	if payload.Module == "" {
		payload.Module = c.Query("module")
	}
	summary, err := s.workflows.GenerateDeck(c.Request.Context(), payload.Module)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, api.FromBatchSummary(summary))
}

func (s *Server) handleModules(c *gin.Context) {
	modules, err := s.workflows.ListModules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, api.FromModuleSummaries(modules))
}

func (s *Server) handleSlides(c *gin.Context) {
	module := c.Param("module")
	slides, err := s.workflows.ListSlides(c.Request.Context(), module)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, api.FromSlideStatuses(module, slides))
}

// decodeJSON reads at most limit bytes. An empty body decodes to the zero
// value so query parameters can still address the slide.
func (s *Server) decodeJSON(c *gin.Context, limit int64, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return services.Wrap(services.ErrValidation, "", "", "invalid JSON body", err)
	}
	return nil
}

func fillFromQuery(c *gin.Context, module *string, slide *slideNumber) error {
	if *module == "" {
		*module = c.Query("module")
	}
	if *slide == 0 && c.Query("slide") != "" {
		n, err := querySlide(c)
		if err != nil {
			return err
		}
		*slide = slideNumber(n)
	}
	return nil
}

func querySlide(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("slide"))
	if raw == "" {
		return 0, validation("missing required parameters: module and slide")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation(fmt.Sprintf("invalid slide number %q", raw))
	}
	return n, nil
}

func isRawAudio(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(contentType, "audio/") || contentType == "application/octet-stream"
}

// stripDataURL drops a "data:audio/mpeg;base64," prefix when present.
func stripDataURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		if idx := strings.Index(raw, ","); idx >= 0 {
			return raw[idx+1:]
		}
	}
	return raw
}

func validation(message string) error {
	return services.Wrap(services.ErrValidation, "", "", message, nil)
}
