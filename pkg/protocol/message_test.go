package protocol

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wantType MessageType
	}{
		{
			name:     "chat message",
			input:    `{"type":"chat_message","message":"hello"}`,
			wantType: TypeChat,
		},
		{
			name:     "audio chunk",
			input:    `{"type":"audio_data","audio":"aGk=","format":"base64","isChunk":true,"chunkNumber":3,"isLastChunk":false}`,
			wantType: TypeAudio,
		},
		{
			name:     "interrupt",
			input:    `{"type":"interrupt"}`,
			wantType: TypeInterrupt,
		},
		{
			name:    "invalid json",
			input:   "not json",
			wantErr: true,
		},
		{
			name:     "empty object",
			input:    "{}",
			wantType: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Parse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if env.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", env.Type, tt.wantType)
			}
		})
	}
}

func TestParseAudioFields(t *testing.T) {
	input := `{"type":"audio_data","audio":"AAAA","format":"base64","mimeType":"audio/webm","isChunk":true,"chunkNumber":0,"isLastChunk":true}`

	env, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if env.Audio != "AAAA" {
		t.Errorf("Audio = %q, want AAAA", env.Audio)
	}
	if env.Format != AudioTransportFormat {
		t.Errorf("Format = %q, want %q", env.Format, AudioTransportFormat)
	}
	if !env.IsChunk {
		t.Error("IsChunk should be true")
	}
	if env.ChunkNumber == nil || *env.ChunkNumber != 0 {
		t.Errorf("ChunkNumber = %v, want 0", env.ChunkNumber)
	}
	if !env.IsLastChunk {
		t.Error("IsLastChunk should be true")
	}
}

func TestParseConfigPartialFields(t *testing.T) {
	// Absent fields must be distinguishable from zero values.
	env, err := Parse([]byte(`{"type":"config","modelId":"gpt-4o-mini"}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if env.ModelID != "gpt-4o-mini" {
		t.Errorf("ModelID = %q, want gpt-4o-mini", env.ModelID)
	}
	if env.AudioSession != nil {
		t.Error("AudioSession should be nil when absent")
	}
	if env.Voice != nil {
		t.Error("Voice should be nil when absent")
	}

	env, err = Parse([]byte(`{"type":"config","audioSession":false}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if env.AudioSession == nil || *env.AudioSession != false {
		t.Errorf("AudioSession = %v, want explicit false", env.AudioSession)
	}
}

func TestParseVoice(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantName string
		wantFull *VoiceConfig
		wantErr  bool
	}{
		{
			name:     "string form",
			raw:      `"hi-IN-Chirp3-HD-Orus"`,
			wantName: "hi-IN-Chirp3-HD-Orus",
		},
		{
			name: "object form",
			raw:  `{"languageCode":"en-IN","ssmlGender":"FEMALE","name":"en-IN-Chirp3-HD-Zephyr"}`,
			wantFull: &VoiceConfig{
				LanguageCode: "en-IN",
				SSMLGender:   "FEMALE",
				Name:         "en-IN-Chirp3-HD-Zephyr",
			},
		},
		{
			name:    "invalid form",
			raw:     `42`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVoice(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVoice() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if v.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", v.Name, tt.wantName)
			}
			if tt.wantFull != nil {
				if v.Full == nil {
					t.Fatal("Full should not be nil")
				}
				if *v.Full != *tt.wantFull {
					t.Errorf("Full = %+v, want %+v", *v.Full, *tt.wantFull)
				}
			}
		})
	}

	empty, err := ParseVoice(nil)
	if err != nil {
		t.Fatalf("ParseVoice(nil) error = %v", err)
	}
	if !empty.IsZero() {
		t.Error("nil raw should yield zero VoiceInput")
	}
}

func TestOutboundConstructors(t *testing.T) {
	bot := NewBotMessage("abc-123", "hello there")
	if bot.Type != TypeBotMessage || bot.ID != "abc-123" || bot.Text != "hello there" {
		t.Errorf("NewBotMessage() = %+v", bot)
	}
	if bot.Timestamp == 0 {
		t.Error("timestamp should be set")
	}

	audio := NewAudioMessage("bXAz", "en-IN-Chirp3-HD-Zephyr")
	if audio.Format != "mp3" {
		t.Errorf("Format = %q, want mp3", audio.Format)
	}
	if v, err := ParseVoice(audio.Voice); err != nil || v.Name != "en-IN-Chirp3-HD-Zephyr" {
		t.Errorf("voice = %+v, err = %v", v, err)
	}

	ack := NewConfigAck("gpt-4o-mini", "primary", true, "en-IN-Chirp3-HD-Zephyr")
	if ack.AudioSession == nil || !*ack.AudioSession {
		t.Error("config ack should carry audioSession=true")
	}

	errMsg := NewError("Message is required")
	data, err := errMsg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed["type"] != "error" {
		t.Errorf("type = %v, want error", parsed["type"])
	}
	if parsed["error"] != "Message is required" {
		t.Errorf("error = %v", parsed["error"])
	}
}

func TestAudioMessageWireKeys(t *testing.T) {
	data, err := NewAudioMessage("QUJD", "en-IN-Chirp3-HD-Zephyr").Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if parsed["audio"] != "QUJD" {
		t.Errorf("audio = %v", parsed["audio"])
	}
	if parsed["format"] != "mp3" {
		t.Errorf("format = %v", parsed["format"])
	}
	if parsed["voice"] != "en-IN-Chirp3-HD-Zephyr" {
		t.Errorf("voice = %v, want the voice name under the voice key", parsed["voice"])
	}
	if _, ok := parsed["voiceName"]; ok {
		t.Error("audio_message should not carry a voiceName key")
	}
}
