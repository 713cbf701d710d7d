package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/voxrelay/voxrelay/pkg/inference"
	"github.com/voxrelay/voxrelay/pkg/session"
)

func never() bool { return false }

func TestGenerateConcatenatesFragments(t *testing.T) {
	provider := inference.NewMock()
	provider.StreamFunc = func(ctx context.Context, req *inference.ChatRequest) (inference.Stream, error) {
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", req.Model)
		}
		return &inference.MockStream{Chunks: []string{"Roses ", "need ", "sunlight."}}, nil
	}

	cs := NewCompletionStreamer("")
	got := cs.Generate(context.Background(), provider, "gpt-4o-mini",
		[]session.Turn{{Role: session.RoleUser, Content: "rose care?"}}, never)

	if got != "Roses need sunlight." {
		t.Errorf("Generate = %q", got)
	}
}

func TestGeneratePrependsSystemPromptAndMapsRoles(t *testing.T) {
	var captured []inference.Message
	provider := inference.NewMock()
	provider.StreamFunc = func(ctx context.Context, req *inference.ChatRequest) (inference.Stream, error) {
		captured = req.Messages
		return &inference.MockStream{}, nil
	}

	cs := NewCompletionStreamer("custom prompt")
	cs.Generate(context.Background(), provider, "m", []session.Turn{
		{Role: session.RoleUser, Content: "hi"},
		{Role: session.RoleAssistant, Content: "hello"},
	}, never)

	if len(captured) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(captured))
	}
	if captured[0].Role != inference.RoleSystem || captured[0].Content != "custom prompt" {
		t.Errorf("system message = %+v", captured[0])
	}
	if captured[1].Role != inference.RoleUser || captured[2].Role != inference.RoleAssistant {
		t.Errorf("roles = %v, %v", captured[1].Role, captured[2].Role)
	}
}

func TestGenerateInterruptedBeforeFirstFragment(t *testing.T) {
	provider := inference.NewMock()
	provider.StreamFunc = func(ctx context.Context, req *inference.ChatRequest) (inference.Stream, error) {
		return &inference.MockStream{Chunks: []string{"never consumed"}}, nil
	}

	cs := NewCompletionStreamer("")
	got := cs.Generate(context.Background(), provider, "m", nil, func() bool { return true })

	if got != "" {
		t.Errorf("Generate = %q, want empty for pre-fragment interrupt", got)
	}
}

func TestGenerateInterruptedMidStream(t *testing.T) {
	var consumed int
	provider := inference.NewMock()
	provider.StreamFunc = func(ctx context.Context, req *inference.ChatRequest) (inference.Stream, error) {
		return &inference.MockStream{Chunks: []string{"one ", "two ", "three"}}, nil
	}

	// Trip after two fragments have been consumed.
	interrupted := func() bool {
		consumed++
		return consumed > 2
	}

	cs := NewCompletionStreamer("")
	got := cs.Generate(context.Background(), provider, "m", nil, interrupted)

	if got != "one two " {
		t.Errorf("Generate = %q, want partial consumption to stop at the boundary", got)
	}
}

func TestGenerateFallbackOnRequestError(t *testing.T) {
	cs := NewCompletionStreamer("")
	got := cs.Generate(context.Background(), inference.WithError(errors.New("down")), "m", nil, never)
	if got != FallbackReply {
		t.Errorf("Generate = %q, want fallback", got)
	}
}

func TestGenerateFallbackOnStreamError(t *testing.T) {
	provider := inference.NewMock()
	provider.StreamFunc = func(ctx context.Context, req *inference.ChatRequest) (inference.Stream, error) {
		return &inference.MockStream{
			Chunks: []string{"partial "},
			Err:    errors.New("stream cut"),
			ErrAt:  1,
		}, nil
	}

	cs := NewCompletionStreamer("")
	got := cs.Generate(context.Background(), provider, "m", nil, never)
	if got != FallbackReply {
		t.Errorf("Generate = %q, want fallback after mid-stream failure", got)
	}
}
