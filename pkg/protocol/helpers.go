package protocol

import (
	"encoding/json"
	"time"
)

// NewConnected builds the handshake message sent when a session is created.
func NewConnected(sessionID string) *Envelope {
	return &Envelope{
		Type:      TypeConnected,
		SessionID: sessionID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewConfigAck echoes the resolved session configuration back to the client.
func NewConfigAck(modelID, modelType string, audioSession bool, voiceName string) *Envelope {
	enabled := audioSession
	return &Envelope{
		Type:         TypeConfigAck,
		ModelID:      modelID,
		ModelType:    modelType,
		AudioSession: &enabled,
		VoiceName:    voiceName,
		Timestamp:    time.Now().UnixMilli(),
	}
}

// NewTranscript reports recognized speech back to the client.
func NewTranscript(text string) *Envelope {
	return &Envelope{
		Type:      TypeTranscript,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewBotMessage carries an assistant response. Each response gets a fresh id.
func NewBotMessage(id, text string) *Envelope {
	return &Envelope{
		Type:      TypeBotMessage,
		ID:        id,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewAudioMessage carries synthesized MP3 audio, base64-encoded. The
// voice name travels under the "voice" key as a bare string.
func NewAudioMessage(audioB64, voiceName string) *Envelope {
	name, _ := json.Marshal(voiceName)
	return &Envelope{
		Type:      TypeAudioMessage,
		Audio:     audioB64,
		Format:    "mp3",
		Voice:     name,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewInterruptAck confirms an interrupt request was registered.
func NewInterruptAck() *Envelope {
	return &Envelope{
		Type:      TypeInterruptAck,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewError reports a per-message failure. The connection stays open.
func NewError(description string) *Envelope {
	return &Envelope{
		Type:      TypeError,
		Error:     description,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewPong answers a ping.
func NewPong() *Envelope {
	return &Envelope{
		Type:      TypePong,
		Timestamp: time.Now().UnixMilli(),
	}
}
