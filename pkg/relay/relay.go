// Package relay implements the conversational state machine: it
// dispatches inbound protocol messages, reassembles audio, invokes the
// transcription and generation backends, and emits the outbound
// messages for each turn.
package relay

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxrelay/voxrelay/pkg/audio"
	"github.com/voxrelay/voxrelay/pkg/inference"
	"github.com/voxrelay/voxrelay/pkg/protocol"
	"github.com/voxrelay/voxrelay/pkg/session"
	"github.com/voxrelay/voxrelay/pkg/speech"
)

// Client-visible error strings. The exact wording is part of the wire
// contract; clients match on it.
const (
	errMessageRequired = "Message is required"
	errAudioRequired   = "Audio data is required"
	errAudioFormat     = "Unsupported audio transport format"
	errAudioInvalid    = "Invalid audio payload"
	errTranscription   = "Could not transcribe audio"
	errUnknownType     = "Unknown message type"
)

// Sender delivers outbound protocol messages to one client. The
// transport layer guarantees Send is safe for concurrent use.
type Sender interface {
	Send(env *protocol.Envelope) error
}

// Event is one observable moment in a session, fed to monitors.
type Event struct {
	SessionID string    `json:"sessionId"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text,omitempty"`
	Time      time.Time `json:"time"`
}

// Observer receives session events. Implementations must not block.
type Observer interface {
	OnEvent(ev Event)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) OnEvent(Event) {}

// Relay orchestrates conversations across sessions. One Relay serves
// the whole process; per-session state lives on the Session itself.
type Relay struct {
	sessions  *session.Manager
	primary   inference.Provider
	secondary inference.Provider
	streamer  *CompletionStreamer
	stt       speech.Transcriber
	tts       speech.Synthesizer
	observer  Observer
	logger    *slog.Logger
}

// Options configures a Relay.
type Options struct {
	// Sessions is the session registry.
	Sessions *session.Manager

	// Primary is the default text-generation backend.
	Primary inference.Provider

	// Secondary is the alternate backend, selected by modelType. May be
	// nil, in which case the primary serves both.
	Secondary inference.Provider

	// Transcriber converts completed audio utterances to text. May be
	// nil when speech input is not configured.
	Transcriber speech.Transcriber

	// Synthesizer renders replies as audio. May be nil when speech
	// output is not configured.
	Synthesizer speech.Synthesizer

	// SystemPrompt overrides the default generation system prompt.
	SystemPrompt string

	// Observer receives session events for monitoring. May be nil.
	Observer Observer
}

// New creates a Relay.
func New(opts Options) *Relay {
	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	secondary := opts.Secondary
	if secondary == nil {
		secondary = opts.Primary
	}
	return &Relay{
		sessions:  opts.Sessions,
		primary:   opts.Primary,
		secondary: secondary,
		streamer:  NewCompletionStreamer(opts.SystemPrompt),
		stt:       opts.Transcriber,
		tts:       opts.Synthesizer,
		observer:  observer,
		logger:    slog.Default().With("component", "relay"),
	}
}

// Sessions returns the session registry.
func (r *Relay) Sessions() *session.Manager {
	return r.sessions
}

// HandleMessage dispatches one inbound message for a session. The
// transport serializes calls per session, except for interrupt and ping
// which may arrive concurrently (both touch only atomic or
// send-mutex-guarded state).
func (r *Relay) HandleMessage(ctx context.Context, s *session.Session, env *protocol.Envelope, send Sender) {
	s.Touch()

	switch env.Type {
	case protocol.TypeConfig:
		r.handleConfig(s, env, send)
	case protocol.TypeChat:
		r.handleChat(ctx, s, env, send)
	case protocol.TypeAudio:
		r.handleAudio(ctx, s, env, send)
	case protocol.TypeInterrupt:
		r.handleInterrupt(s, send)
	case protocol.TypePing:
		r.send(s, send, protocol.NewPong())
	default:
		r.send(s, send, protocol.NewError(errUnknownType))
	}
}

// handleConfig applies partial updates: only fields present in the
// message change, absent fields retain their prior value. Everything is
// validated up front so a rejected message leaves the session untouched.
func (r *Relay) handleConfig(s *session.Session, env *protocol.Envelope, send Sender) {
	voiceIn, err := protocol.ParseVoice(env.Voice)
	if err != nil {
		r.send(s, send, protocol.NewError("Invalid voice configuration"))
		return
	}

	s.Gate.Reset()

	if env.ModelID != "" {
		s.Model.ModelID = env.ModelID
	}
	if env.ModelType != "" {
		s.Model.Backend = session.ParseBackend(env.ModelType)
	}
	if env.AudioSession != nil {
		s.AudioEnabled = *env.AudioSession
	}
	s.Voice = session.ResolveVoice(voiceIn, s.Voice)

	r.logger.Info("session configured",
		"session_id", s.ID,
		"model", s.Model.ModelID,
		"backend", s.Model.Backend,
		"audio", s.AudioEnabled,
		"voice", s.Voice.Name,
	)

	r.send(s, send, protocol.NewConfigAck(
		s.Model.ModelID,
		string(s.Model.Backend),
		s.AudioEnabled,
		s.Voice.Name,
	))
}

func (r *Relay) handleChat(ctx context.Context, s *session.Session, env *protocol.Envelope, send Sender) {
	if strings.TrimSpace(env.Message) == "" {
		r.send(s, send, protocol.NewError(errMessageRequired))
		return
	}

	s.Gate.Reset()
	r.respond(ctx, s, env.Message, send)
}

func (r *Relay) handleAudio(ctx context.Context, s *session.Session, env *protocol.Envelope, send Sender) {
	if env.Audio == "" {
		r.send(s, send, protocol.NewError(errAudioRequired))
		return
	}
	if env.Format != "" && env.Format != protocol.AudioTransportFormat {
		r.send(s, send, protocol.NewError(errAudioFormat))
		return
	}

	s.Gate.Reset()

	var (
		unit *audio.Unit
		err  error
	)
	if env.IsChunk {
		seq := 0
		if env.ChunkNumber != nil {
			seq = *env.ChunkNumber
		}
		unit, err = s.Assembler.Ingest(env.Audio, seq, env.IsLastChunk, env.MimeType)
	} else {
		unit, err = audio.DecodeSingle(env.Audio, env.MimeType)
	}
	if err != nil {
		r.logger.Warn("audio decode failed", "session_id", s.ID, "error", err)
		r.send(s, send, protocol.NewError(errAudioInvalid))
		return
	}
	if unit == nil {
		// Mid-utterance fragment, nothing to do yet.
		return
	}

	r.transcribeAndRespond(ctx, s, unit, send)
}

func (r *Relay) handleInterrupt(s *session.Session, send Sender) {
	s.Gate.Trip()
	r.logger.Info("interrupt requested", "session_id", s.ID)
	r.observer.OnEvent(Event{SessionID: s.ID, Kind: "interrupt", Time: time.Now()})
	r.send(s, send, protocol.NewInterruptAck())
}

// transcribeAndRespond runs a completed audio unit through the
// transcription gateway and, on success, continues exactly as a chat
// message would.
func (r *Relay) transcribeAndRespond(ctx context.Context, s *session.Session, unit *audio.Unit, send Sender) {
	if r.stt == nil {
		r.send(s, send, protocol.NewError(errTranscription))
		return
	}

	text, err := r.stt.Transcribe(ctx, unit.Payload, unit.MimeType, s.Voice.LanguageCode)
	if err != nil {
		r.logger.Error("transcription failed", "session_id", s.ID, "error", err)
		r.send(s, send, protocol.NewError(errTranscription))
		return
	}
	if strings.TrimSpace(text) == "" {
		r.send(s, send, protocol.NewError(errTranscription))
		return
	}

	r.send(s, send, protocol.NewTranscript(text))
	r.observer.OnEvent(Event{SessionID: s.ID, Kind: "transcript", Text: text, Time: time.Now()})

	// The client may have interrupted while transcription was in flight.
	if s.Gate.Interrupted() {
		return
	}

	r.respond(ctx, s, text, send)
}

// respond runs one full conversational turn: append the user message,
// stream a completion, and emit the reply (plus audio when enabled).
// If the gate trips at any point, nothing further is emitted and the
// assistant turn is not recorded.
func (r *Relay) respond(ctx context.Context, s *session.Session, userText string, send Sender) {
	s.Context.Append(session.RoleUser, userText)
	r.observer.OnEvent(Event{SessionID: s.ID, Kind: "user", Text: userText, Time: time.Now()})

	reply := r.streamer.Generate(ctx, r.providerFor(s.Model.Backend), s.Model.ModelID, s.Context.Turns(), s.Gate.Interrupted)

	if s.Gate.Interrupted() {
		r.logger.Info("turn discarded after interrupt", "session_id", s.ID)
		return
	}

	s.Context.Append(session.RoleAssistant, reply)
	r.send(s, send, protocol.NewBotMessage(uuid.NewString(), reply))
	r.observer.OnEvent(Event{SessionID: s.ID, Kind: "assistant", Text: reply, Time: time.Now()})

	if !s.AudioEnabled || r.tts == nil || reply == "" {
		return
	}

	audioBytes, err := r.tts.Synthesize(ctx, reply, speech.Voice{
		LanguageCode: s.Voice.LanguageCode,
		Name:         s.Voice.Name,
		Gender:       s.Voice.Gender,
	})
	if err != nil {
		// Text-only fallback: the reply was already delivered.
		r.logger.Error("synthesis failed", "session_id", s.ID, "error", err)
		return
	}
	if s.Gate.Interrupted() {
		return
	}

	r.send(s, send, protocol.NewAudioMessage(base64.StdEncoding.EncodeToString(audioBytes), s.Voice.Name))
}

func (r *Relay) providerFor(b session.Backend) inference.Provider {
	if b == session.BackendSecondary {
		return r.secondary
	}
	return r.primary
}

func (r *Relay) send(s *session.Session, send Sender, env *protocol.Envelope) {
	if err := send.Send(env); err != nil {
		r.logger.Warn("send failed", "session_id", s.ID, "type", env.Type, "error", err)
	}
}
