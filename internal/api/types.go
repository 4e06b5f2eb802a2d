package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SlideView is the transport representation of one slide.
type SlideView struct {
	Index        int    `json:"index"`
	Key          string `json:"key"`
	AudioPath    string `json:"audioPath"`
	Narration    string `json:"narration"`
	HasNarration bool   `json:"hasNarration"`
	AudioExists  bool   `json:"audioExists"`
	Status       string `json:"status"`
	Custom       bool   `json:"custom"`
	Origin       string `json:"origin,omitempty"`
	TextHash     string `json:"textHash,omitempty"`
	RecordedAt   string `json:"recordedAt,omitempty"`
	EditedAt     string `json:"textEditedAt,omitempty"`
}

// SlideListResponse wraps the slides of one deck.
type SlideListResponse struct {
	Module string      `json:"module"`
	Slides []SlideView `json:"slides"`
}

// ModuleView summarizes one deck.
type ModuleView struct {
	Module        string `json:"module"`
	Slides        int    `json:"slides"`
	WithNarration int    `json:"withNarration"`
	WithAudio     int    `json:"withAudio"`
	Current       int    `json:"current"`
	Outdated      int    `json:"outdated"`
	Unverified    int    `json:"unverified"`
	None          int    `json:"none"`
}

// ModuleListResponse wraps the deck summaries.
type ModuleListResponse struct {
	Modules []ModuleView `json:"modules"`
}

// RecordingResponse is returned by save-audio.
type RecordingResponse struct {
	Success         bool   `json:"success"`
	Path            string `json:"path"`
	Key             string `json:"key"`
	Bytes           int    `json:"bytes"`
	TextHash        string `json:"textHash,omitempty"`
	ManifestUpdated bool   `json:"manifestUpdated"`
	Warning         string `json:"warning,omitempty"`
	Message         string `json:"message"`
}

// TextResponse is returned by save-text.
type TextResponse struct {
	Success           bool   `json:"success"`
	Path              string `json:"path"`
	Changed           bool   `json:"changed"`
	PreviousNarration string `json:"previousNarration,omitempty"`
	TextHash          string `json:"textHash,omitempty"`
	ManifestUpdated   bool   `json:"manifestUpdated"`
	Warning           string `json:"warning,omitempty"`
	Message           string `json:"message"`
}

// GenerateResponse is returned by generate-audio and embedded in batches.
type GenerateResponse struct {
	Success         bool   `json:"success"`
	Key             string `json:"key"`
	Path            string `json:"path,omitempty"`
	Status          string `json:"status"`
	TextHash        string `json:"textHash,omitempty"`
	Bytes           int    `json:"bytes,omitempty"`
	Synthesized     bool   `json:"synthesized"`
	ManifestUpdated bool   `json:"manifestUpdated"`
	Warning         string `json:"warning,omitempty"`
	Error           string `json:"error,omitempty"`
}

// BatchView is the outcome of generating every slide of a deck.
type BatchView struct {
	Module      string             `json:"module"`
	VoiceID     string             `json:"voiceId"`
	Generated   int                `json:"generated"`
	Unchanged   int                `json:"unchanged"`
	Protected   int                `json:"protected"`
	NoNarration int                `json:"noNarration"`
	Failed      int                `json:"failed"`
	Slides      []GenerateResponse `json:"slides"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status       string             `json:"status"`
	Backend      string             `json:"backend"`
	TTS          bool               `json:"tts"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// CheckView reports one readiness check.
type CheckView struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// StatusResponse is the readiness summary rendered by "narrate status --json".
type StatusResponse struct {
	Ready   bool        `json:"ready"`
	Backend string      `json:"backend"`
	Checks  []CheckView `json:"checks"`
}

// APIError is the error detail inside ErrorEnvelope.
type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
