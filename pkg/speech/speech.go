// Package speech provides transcription and synthesis gateways backed by
// Google Cloud Speech-to-Text and Text-to-Speech.
//
// Both directions are abstracted behind small interfaces so the relay
// can be tested without network access:
//
//	stt, _ := speech.NewGoogleTranscriber(speech.WithAPIKey(key))
//	text, _ := stt.Transcribe(ctx, audioBytes, "audio/webm", "en-IN")
//
//	tts, _ := speech.NewGoogleSynthesizer(speech.WithAPIKey(key))
//	mp3, _ := tts.Synthesize(ctx, "Hello!", speech.Voice{
//	    LanguageCode: "en-IN",
//	    Name:         "en-IN-Chirp3-HD-Zephyr",
//	})
package speech

import "context"

// Transcriber converts recorded audio to text.
type Transcriber interface {
	// Transcribe recognizes speech in a complete audio utterance.
	// An empty transcript with a nil error means no speech was detected.
	Transcribe(ctx context.Context, audio []byte, mimeHint, languageHint string) (string, error)
}

// Synthesizer converts text to spoken audio.
type Synthesizer interface {
	// Synthesize renders text as audio using the given voice.
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)

	// Voices lists the available voices, optionally filtered by language.
	Voices(ctx context.Context, languageCode string) ([]VoiceInfo, error)
}

// Voice selects a synthesis voice.
type Voice struct {
	// LanguageCode is a BCP-47 code like "en-IN".
	LanguageCode string

	// Name is the full backend voice name, e.g. "en-IN-Chirp3-HD-Zephyr".
	Name string

	// Gender is the SSML gender hint ("FEMALE", "MALE", "NEUTRAL").
	Gender string
}

// VoiceInfo describes one available synthesis voice.
type VoiceInfo struct {
	Name          string   `json:"name"`
	LanguageCodes []string `json:"languageCodes"`
	Gender        string   `json:"ssmlGender"`
	SampleRate    int64    `json:"naturalSampleRateHertz"`
}
