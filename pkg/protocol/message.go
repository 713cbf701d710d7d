// Package protocol defines the message types exchanged between relay
// clients and the server. Messages are flat JSON objects discriminated
// by a "type" field, one object per WebSocket frame.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies the type of a relay message.
type MessageType string

const (
	// Client → Server messages
	TypeConfig    MessageType = "config"       // Session configuration update
	TypeChat      MessageType = "chat_message" // Text input
	TypeAudio     MessageType = "audio_data"   // Audio input (possibly chunked)
	TypeInterrupt MessageType = "interrupt"    // Cancel the in-flight response
	TypePing      MessageType = "ping"         // Keepalive

	// Server → Client messages
	TypeConnected    MessageType = "connected"
	TypeConfigAck    MessageType = "config_acknowledged"
	TypeTranscript   MessageType = "transcript"
	TypeBotMessage   MessageType = "bot_message"
	TypeAudioMessage MessageType = "audio_message"
	TypeInterruptAck MessageType = "interrupt_acknowledged"
	TypeError        MessageType = "error"
	TypePong         MessageType = "pong"
)

// AudioTransportFormat is the only accepted encoding for inbound audio payloads.
const AudioTransportFormat = "base64"

// Envelope is the wire representation of a relay message. All fields other
// than Type are optional; which ones are meaningful depends on the type.
type Envelope struct {
	Type MessageType `json:"type"`

	// config fields. Pointers distinguish "absent" from zero values so
	// partial updates leave unnamed settings untouched. Voice doubles as
	// the outbound voice name on audio_message, as a bare JSON string.
	ModelID      string          `json:"modelId,omitempty"`
	ModelType    string          `json:"modelType,omitempty"`
	AudioSession *bool           `json:"audioSession,omitempty"`
	Voice        json.RawMessage `json:"voice,omitempty"`

	// chat_message fields
	Message string `json:"message,omitempty"`

	// audio_data fields
	Audio       string `json:"audio,omitempty"`
	Format      string `json:"format,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	IsChunk     bool   `json:"isChunk,omitempty"`
	ChunkNumber *int   `json:"chunkNumber,omitempty"`
	IsLastChunk bool   `json:"isLastChunk,omitempty"`

	// Server → client fields
	ID        string `json:"id,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text,omitempty"`
	VoiceName string `json:"voiceName,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"ts,omitempty"`
}

// Parse decodes a relay message from raw bytes.
func Parse(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &env, nil
}

// Bytes returns the JSON-encoded message.
func (e *Envelope) Bytes() ([]byte, error) {
	return json.Marshal(e)
}

// VoiceConfig is the object form of the "voice" config field. Clients may
// alternatively send a bare voice-name string.
type VoiceConfig struct {
	LanguageCode string `json:"languageCode,omitempty"`
	SSMLGender   string `json:"ssmlGender,omitempty"`
	Name         string `json:"name,omitempty"`
}

// VoiceInput is the decoded "voice" field: either a bare name or a full
// voice configuration.
type VoiceInput struct {
	// Name is set when the client sent a plain string.
	Name string

	// Full is set when the client sent an object.
	Full *VoiceConfig
}

// ParseVoice decodes the raw voice field into its tagged form. A nil raw
// value yields a zero VoiceInput.
func ParseVoice(raw json.RawMessage) (VoiceInput, error) {
	if len(raw) == 0 {
		return VoiceInput{}, nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return VoiceInput{Name: name}, nil
	}
	var full VoiceConfig
	if err := json.Unmarshal(raw, &full); err != nil {
		return VoiceInput{}, fmt.Errorf("invalid voice config: %w", err)
	}
	return VoiceInput{Full: &full}, nil
}

// IsZero reports whether the client supplied no voice configuration.
func (v VoiceInput) IsZero() bool {
	return v.Name == "" && v.Full == nil
}
