package relay

import (
	"context"
	"log/slog"
	"strings"

	"github.com/voxrelay/voxrelay/pkg/inference"
	"github.com/voxrelay/voxrelay/pkg/session"
)

// FallbackReply is sent in place of a response when the text-generation
// backend fails. The turn still counts as a normal exchange: the reply
// is appended to history and synthesized like any other.
const FallbackReply = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."

// DefaultSystemPrompt shapes replies for spoken delivery.
const DefaultSystemPrompt = "You are a friendly voice assistant. Reply conversationally, " +
	"in plain sentences without markdown or lists, and keep answers brief enough to be spoken aloud."

// CompletionStreamer drives one streamed completion against a
// text-generation provider, checking the interrupt predicate at every
// fragment boundary.
type CompletionStreamer struct {
	systemPrompt string
	logger       *slog.Logger
}

// NewCompletionStreamer creates a streamer with the given system prompt.
// An empty prompt selects DefaultSystemPrompt.
func NewCompletionStreamer(systemPrompt string) *CompletionStreamer {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &CompletionStreamer{
		systemPrompt: systemPrompt,
		logger:       slog.Default().With("component", "relay.completion"),
	}
}

// Generate streams a completion for the given history and concatenates
// the consumed fragments. The interrupted predicate is consulted before
// every fragment; once it reports true no further fragments are
// consumed. Cancellation is cooperative: the underlying call is left to
// wind down on its own.
//
// A backend failure yields FallbackReply instead of an error. An empty
// return value is valid: it means generation was interrupted before the
// first fragment, or the backend produced nothing.
func (cs *CompletionStreamer) Generate(ctx context.Context, provider inference.Provider, modelID string, turns []session.Turn, interrupted func() bool) string {
	msgs := make([]inference.Message, 0, len(turns)+1)
	msgs = append(msgs, inference.NewSystemMessage(cs.systemPrompt))
	for _, t := range turns {
		role := inference.RoleUser
		if t.Role == session.RoleAssistant {
			role = inference.RoleAssistant
		}
		msgs = append(msgs, inference.Message{Role: role, Content: t.Content})
	}

	stream, err := provider.Stream(ctx, &inference.ChatRequest{
		Messages: msgs,
		Model:    modelID,
	})
	if err != nil {
		cs.logger.Error("completion request failed", "model", modelID, "error", err)
		return FallbackReply
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		if interrupted() {
			cs.logger.Debug("generation interrupted", "consumed_chars", reply.Len())
			break
		}

		chunk, err := stream.Recv()
		if err != nil {
			cs.logger.Error("completion stream failed", "model", modelID, "error", err)
			return FallbackReply
		}

		reply.WriteString(chunk.Delta)
		if chunk.Done {
			break
		}
	}

	return reply.String()
}
