package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"
	speechapi "google.golang.org/api/speech/v1"

	"github.com/voxrelay/voxrelay/pkg/audio"
)

const gatewaySTT = "google-stt"

// GoogleTranscriber implements Transcriber using Google Cloud
// Speech-to-Text. The recognition encoding and sample rate are derived
// from the audio payload itself, with the client's MIME type as a
// fallback hint.
type GoogleTranscriber struct {
	service *speechapi.Service
	config  *Config
	logger  *slog.Logger
}

// NewGoogleTranscriber creates a Speech-to-Text gateway.
func NewGoogleTranscriber(opts ...Option) (*GoogleTranscriber, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(gatewaySTT, ErrNoAPIKey)
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := speechapi.NewService(context.Background(), clientOpts...)
	if err != nil {
		return nil, WrapError(gatewaySTT, fmt.Errorf("create service: %w", err))
	}

	return &GoogleTranscriber{
		service: service,
		config:  cfg,
		logger:  cfg.Logger.With("component", "speech.stt"),
	}, nil
}

// Transcribe recognizes speech in a complete audio utterance.
func (t *GoogleTranscriber) Transcribe(ctx context.Context, data []byte, mimeHint, languageHint string) (string, error) {
	if len(data) == 0 {
		return "", WrapError(gatewaySTT, ErrEmptyAudio)
	}

	format := audio.Classify(data, mimeHint)

	language := languageHint
	if language == "" {
		language = t.config.DefaultLanguage
	}

	req := &speechapi.RecognizeRequest{
		Config: &speechapi.RecognitionConfig{
			Encoding:                   format.String(),
			SampleRateHertz:            int64(format.SampleRate()),
			LanguageCode:               language,
			AlternativeLanguageCodes:   t.alternatesFor(language),
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechapi.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(data),
		},
	}

	resp, err := t.service.Speech.Recognize(req).Context(ctx).Do()
	if err != nil {
		return "", WrapError(gatewaySTT, fmt.Errorf("recognize: %w", err))
	}

	transcript := joinResults(resp)

	t.logger.Debug("transcription complete",
		"encoding", format.String(),
		"language", language,
		"bytes", len(data),
		"results", len(resp.Results),
	)

	return transcript, nil
}

// alternatesFor returns the alternate language list, excluding the
// primary language itself.
func (t *GoogleTranscriber) alternatesFor(primary string) []string {
	var alts []string
	for _, code := range t.config.AlternateLanguages {
		if code != primary {
			alts = append(alts, code)
		}
	}
	return alts
}

// joinResults concatenates the top alternative of each recognition
// result. An utterance with no recognized speech yields "".
func joinResults(resp *speechapi.RecognizeResponse) string {
	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(result.Alternatives[0].Transcript); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Verify GoogleTranscriber implements Transcriber at compile time.
var _ Transcriber = (*GoogleTranscriber)(nil)
