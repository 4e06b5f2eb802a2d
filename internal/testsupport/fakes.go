package testsupport

import (
	"context"
	"errors"
	"sync"
)

// FakeSynthesizer returns "audio:<text>" and records every call.
type FakeSynthesizer struct {
	mu    sync.Mutex
	calls []SynthCall
	// Fail, when set, decides per call whether to return an error.
	Fail func(text string) error
}

// SynthCall is one recorded Synthesize invocation.
type SynthCall struct {
	Text    string
	VoiceID string
}

func (f *FakeSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, SynthCall{Text: text, VoiceID: voiceID})
	fail := f.Fail
	f.mu.Unlock()
	if fail != nil {
		if err := fail(text); err != nil {
			return nil, err
		}
	}
	return []byte("audio:" + text), nil
}

// Calls returns the recorded invocations.
func (f *FakeSynthesizer) Calls() []SynthCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SynthCall(nil), f.calls...)
}

// FakeTranscoder prefixes its input with "mp3:" or returns Err.
type FakeTranscoder struct {
	Err   error
	mu    sync.Mutex
	calls int
}

func (f *FakeTranscoder) Transcode(ctx context.Context, input []byte) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if len(input) == 0 {
		return nil, errors.New("fake transcoder: empty input")
	}
	return append([]byte("mp3:"), input...), nil
}

// Calls reports how many times Transcode ran.
func (f *FakeTranscoder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
