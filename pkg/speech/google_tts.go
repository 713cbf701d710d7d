package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

const gatewayTTS = "google-tts"

// GoogleSynthesizer implements Synthesizer using Google Cloud
// Text-to-Speech. Output is always MP3, which every browser client can
// decode without negotiation.
type GoogleSynthesizer struct {
	service *texttospeech.Service
	config  *Config
	logger  *slog.Logger
}

// NewGoogleSynthesizer creates a Text-to-Speech gateway.
func NewGoogleSynthesizer(opts ...Option) (*GoogleSynthesizer, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(gatewayTTS, ErrNoAPIKey)
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := texttospeech.NewService(context.Background(), clientOpts...)
	if err != nil {
		return nil, WrapError(gatewayTTS, fmt.Errorf("create service: %w", err))
	}

	return &GoogleSynthesizer{
		service: service,
		config:  cfg,
		logger:  cfg.Logger.With("component", "speech.tts"),
	}, nil
}

// Synthesize renders text as MP3 audio using the given voice.
func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	if text == "" {
		return nil, WrapError(gatewayTTS, ErrEmptyText)
	}

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: voice.LanguageCode,
			Name:         voice.Name,
			SsmlGender:   voice.Gender,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: "MP3",
		},
	}

	resp, err := s.service.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, WrapError(gatewayTTS, fmt.Errorf("synthesize: %w", err))
	}

	data, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, WrapError(gatewayTTS, fmt.Errorf("decode audio content: %w", err))
	}

	s.logger.Debug("synthesis complete",
		"chars", len(text),
		"bytes", len(data),
		"voice", voice.Name,
	)

	return data, nil
}

// Voices lists the available voices, optionally filtered by language.
func (s *GoogleSynthesizer) Voices(ctx context.Context, languageCode string) ([]VoiceInfo, error) {
	call := s.service.Voices.List()
	if languageCode != "" {
		call = call.LanguageCode(languageCode)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, WrapError(gatewayTTS, fmt.Errorf("list voices: %w", err))
	}

	voices := make([]VoiceInfo, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		voices = append(voices, VoiceInfo{
			Name:          v.Name,
			LanguageCodes: v.LanguageCodes,
			Gender:        v.SsmlGender,
			SampleRate:    v.NaturalSampleRateHertz,
		})
	}
	return voices, nil
}

// Verify GoogleSynthesizer implements Synthesizer at compile time.
var _ Synthesizer = (*GoogleSynthesizer)(nil)
