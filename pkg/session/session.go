// Package session holds all durable per-conversation state: the bounded
// turn history, model and voice selection, the interrupt gate, and the
// audio reassembly buffer. Sessions are ephemeral and in-memory; nothing
// survives a process restart.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxrelay/voxrelay/pkg/audio"
)

// MaxTurns caps the conversation history. Older turns are trimmed from
// the front; the most recent MaxTurns entries form the prompt history.
const MaxTurns = 10

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message in the conversation history.
// Turns are immutable once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Context is the ordered, bounded conversation log for one session,
// oldest turn first. It is not internally synchronized: each session's
// message handling is serialized, and the context is only touched from
// that handler chain.
type Context struct {
	turns []Turn
}

// Append adds a turn, trimming the oldest entries beyond MaxTurns.
func (c *Context) Append(role Role, content string) {
	c.turns = append(c.turns, Turn{Role: role, Content: content})
	if len(c.turns) > MaxTurns {
		c.turns = c.turns[len(c.turns)-MaxTurns:]
	}
}

// Turns returns a copy of the history, oldest first.
func (c *Context) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of retained turns.
func (c *Context) Len() int {
	return len(c.turns)
}

// Backend selects which text-generation service handles a session.
type Backend string

const (
	// BackendPrimary is the OpenAI-compatible service.
	BackendPrimary Backend = "primary"

	// BackendSecondary is the Gemini service.
	BackendSecondary Backend = "secondary"
)

// ParseBackend maps a client-supplied model type to a Backend.
// Anything unrecognized resolves to the primary backend.
func ParseBackend(s string) Backend {
	if s == string(BackendSecondary) {
		return BackendSecondary
	}
	return BackendPrimary
}

// ModelSelector names the text-generation backend and model variant.
type ModelSelector struct {
	Backend Backend
	ModelID string
}

// InterruptGate is the per-session cancellation flag. It trips only on an
// explicit interrupt request and resets only when new user input starts
// processing; generation checks it at every suspension point.
type InterruptGate struct {
	tripped atomic.Bool
}

// Trip marks the current response as cancelled.
func (g *InterruptGate) Trip() {
	g.tripped.Store(true)
}

// Reset clears the flag. Called only at the start of new user input.
func (g *InterruptGate) Reset() {
	g.tripped.Store(false)
}

// Interrupted reports whether the current response was cancelled.
func (g *InterruptGate) Interrupted() bool {
	return g.tripped.Load()
}

// Session is all state associated with one logical conversation, keyed by
// connection or by an externally supplied identifier.
type Session struct {
	// ID is the opaque unique session identifier.
	ID string

	// Context is the bounded conversation history.
	Context Context

	// Model selects the text-generation backend and model.
	Model ModelSelector

	// Voice is the synthesis voice configuration.
	Voice VoiceSelector

	// AudioEnabled gates whether responses are also synthesized.
	AudioEnabled bool

	// Gate is the interruption flag for the in-flight response.
	Gate InterruptGate

	// Assembler buffers chunked audio for the current utterance.
	Assembler *audio.Assembler

	// mu serializes message handling for this session. The transport
	// layer holds it for the duration of each handled message; interrupt
	// and ping bypass it (the gate is atomic).
	mu sync.Mutex

	lastActive atomic.Int64
}

// Lock acquires the session's handler mutex.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's handler mutex.
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records activity, deferring idle eviction.
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// IdleFor returns how long the session has gone without activity.
func (s *Session) IdleFor() time.Duration {
	return time.Since(time.Unix(0, s.lastActive.Load()))
}
