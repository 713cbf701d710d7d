package speech

import (
	"context"
	"sync"
)

// MockTranscriber implements Transcriber for testing.
type MockTranscriber struct {
	// TranscribeFunc is called when Transcribe is invoked.
	TranscribeFunc func(ctx context.Context, audio []byte, mimeHint, languageHint string) (string, error)

	mu    sync.Mutex
	calls []TranscribeCall
}

// TranscribeCall records one Transcribe invocation.
type TranscribeCall struct {
	AudioBytes   int
	MimeHint     string
	LanguageHint string
}

// NewMockTranscriber creates a mock that returns a fixed transcript.
func NewMockTranscriber(transcript string) *MockTranscriber {
	return &MockTranscriber{
		TranscribeFunc: func(ctx context.Context, audio []byte, mimeHint, languageHint string) (string, error) {
			return transcript, nil
		},
	}
}

// Transcribe calls TranscribeFunc and records the call.
func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, mimeHint, languageHint string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, TranscribeCall{
		AudioBytes:   len(audio),
		MimeHint:     mimeHint,
		LanguageHint: languageHint,
	})
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, mimeHint, languageHint)
	}
	return "", nil
}

// Calls returns all recorded Transcribe invocations.
func (m *MockTranscriber) Calls() []TranscribeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TranscribeCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockSynthesizer implements Synthesizer for testing.
type MockSynthesizer struct {
	// SynthesizeFunc is called when Synthesize is invoked.
	SynthesizeFunc func(ctx context.Context, text string, voice Voice) ([]byte, error)

	// VoicesFunc is called when Voices is invoked.
	VoicesFunc func(ctx context.Context, languageCode string) ([]VoiceInfo, error)

	mu    sync.Mutex
	calls []SynthesizeCall
}

// SynthesizeCall records one Synthesize invocation.
type SynthesizeCall struct {
	Text  string
	Voice Voice
}

// NewMockSynthesizer creates a mock that returns fixed audio bytes.
func NewMockSynthesizer(audio []byte) *MockSynthesizer {
	return &MockSynthesizer{
		SynthesizeFunc: func(ctx context.Context, text string, voice Voice) ([]byte, error) {
			return audio, nil
		},
	}
}

// Synthesize calls SynthesizeFunc and records the call.
func (m *MockSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, SynthesizeCall{Text: text, Voice: voice})
	m.mu.Unlock()

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, voice)
	}
	return nil, nil
}

// Voices calls VoicesFunc.
func (m *MockSynthesizer) Voices(ctx context.Context, languageCode string) ([]VoiceInfo, error) {
	if m.VoicesFunc != nil {
		return m.VoicesFunc(ctx, languageCode)
	}
	return nil, nil
}

// Calls returns all recorded Synthesize invocations.
func (m *MockSynthesizer) Calls() []SynthesizeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SynthesizeCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Verify mocks implement the interfaces at compile time.
var (
	_ Transcriber = (*MockTranscriber)(nil)
	_ Synthesizer = (*MockSynthesizer)(nil)
)
