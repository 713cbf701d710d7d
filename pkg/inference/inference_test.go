package inference

import (
	"context"
	"errors"
	"testing"
)

func TestMockProvider(t *testing.T) {
	ctx := context.Background()
	mock := NewMock()

	// Test Chat
	resp, err := mock.Chat(ctx, &ChatRequest{
		Messages: []Message{NewUserMessage("Hello")},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Message.Content == "" {
		t.Error("Expected content in response")
	}
	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish_reason 'stop', got %s", resp.FinishReason)
	}

	// Test call tracking
	if mock.CallCount("Chat") != 1 {
		t.Errorf("Expected 1 Chat call, got %d", mock.CallCount("Chat"))
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Errorf("Expected 1 call, got %d", len(calls))
	}

	// Test reset
	mock.Reset()
	if len(mock.Calls()) != 0 {
		t.Error("Expected 0 calls after reset")
	}
}

func TestMockStreamChunks(t *testing.T) {
	stream := &MockStream{Chunks: []string{"one ", "two ", "three"}}

	var full string
	for {
		chunk, err := stream.Recv()
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		full += chunk.Delta
		if chunk.Done {
			break
		}
	}
	if full != "one two three" {
		t.Errorf("Assembled = %q, want %q", full, "one two three")
	}

	stream.Close()
	if _, err := stream.Recv(); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Expected ErrStreamClosed after Close, got %v", err)
	}
}

func TestMockStreamErrAt(t *testing.T) {
	wantErr := errors.New("backend hiccup")
	stream := &MockStream{Chunks: []string{"a", "b", "c"}, Err: wantErr, ErrAt: 1}

	chunk, err := stream.Recv()
	if err != nil || chunk.Delta != "a" {
		t.Fatalf("first Recv = (%v, %v), want chunk a", chunk, err)
	}

	if _, err := stream.Recv(); !errors.Is(err, wantErr) {
		t.Errorf("Expected injected error, got %v", err)
	}
}

func TestMockWithError(t *testing.T) {
	ctx := context.Background()
	testErr := errors.New("test error")
	mock := WithError(testErr)

	_, err := mock.Chat(ctx, &ChatRequest{})
	if !errors.Is(err, testErr) {
		t.Errorf("Expected test error, got: %v", err)
	}

	_, err = mock.Stream(ctx, &ChatRequest{})
	if !errors.Is(err, testErr) {
		t.Errorf("Expected test error, got: %v", err)
	}
}

func TestFunctionalOptions(t *testing.T) {
	cfg := DefaultConfig()

	// Apply options
	cfg.Apply(
		WithBaseURL("http://localhost:11434/v1"),
		WithAPIKey("test-key"),
		WithModel("llama3"),
		WithMaxTokens(512),
		WithTemperature(0.5),
	)

	if cfg.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("Expected Ollama URL, got %s", cfg.BaseURL)
	}
	if cfg.APIKey != "test-key" {
		t.Errorf("Expected test-key, got %s", cfg.APIKey)
	}
	if cfg.Model != "llama3" {
		t.Errorf("Expected llama3, got %s", cfg.Model)
	}
	if cfg.MaxTokens != 512 {
		t.Errorf("Expected 512, got %d", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.5 {
		t.Errorf("Expected 0.5, got %f", cfg.Temperature)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("Expected OpenAI URL, got %s", cfg.BaseURL)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Expected gpt-4o-mini, got %s", cfg.Model)
	}
	if cfg.MaxTokens != 1024 {
		t.Errorf("Expected 1024, got %d", cfg.MaxTokens)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("Expected 3 retries, got %d", cfg.MaxRetries)
	}
}

func TestAPIError(t *testing.T) {
	// Test rate limit
	err := &APIError{StatusCode: 429, Message: "rate limited", Provider: "test"}
	if !err.IsRateLimited() {
		t.Error("Expected IsRateLimited() to be true")
	}
	if !err.IsRetryable() {
		t.Error("Expected IsRetryable() to be true for 429")
	}

	// Test unauthorized
	err = &APIError{StatusCode: 401, Message: "unauthorized", Provider: "test"}
	if !err.IsUnauthorized() {
		t.Error("Expected IsUnauthorized() to be true")
	}
	if err.IsRetryable() {
		t.Error("Expected IsRetryable() to be false for 401")
	}

	// Test server error
	err = &APIError{StatusCode: 500, Message: "server error", Provider: "test"}
	if !err.IsServerError() {
		t.Error("Expected IsServerError() to be true")
	}
	if !err.IsRetryable() {
		t.Error("Expected IsRetryable() to be true for 500")
	}

	// Test error string with code
	err = &APIError{StatusCode: 400, Message: "bad request", Code: "invalid_api_key", Provider: "test"}
	errStr := err.Error()
	if errStr == "" {
		t.Error("Expected non-empty error string")
	}
}

func TestChainError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")

	chainErr := &ChainError{Errors: []error{err1, err2}}
	if chainErr.Unwrap() != err2 {
		t.Error("Unwrap should return last error")
	}

	errStr := chainErr.Error()
	if errStr == "" {
		t.Error("Expected non-empty error string")
	}
}

func TestMessageHelpers(t *testing.T) {
	// Test NewSystemMessage
	sys := NewSystemMessage("You are helpful")
	if sys.Role != RoleSystem || sys.Content != "You are helpful" {
		t.Error("NewSystemMessage failed")
	}

	// Test NewUserMessage
	user := NewUserMessage("Hello")
	if user.Role != RoleUser || user.Content != "Hello" {
		t.Error("NewUserMessage failed")
	}

	// Test NewAssistantMessage
	asst := NewAssistantMessage("Hi there")
	if asst.Role != RoleAssistant || asst.Content != "Hi there" {
		t.Error("NewAssistantMessage failed")
	}
}

func TestCapabilities(t *testing.T) {
	mock := NewMock()
	caps := mock.Capabilities()

	if !caps.Chat {
		t.Error("Expected Chat capability")
	}
	if !caps.Streaming {
		t.Error("Expected Streaming capability")
	}
}

func TestMockLastCall(t *testing.T) {
	mock := NewMock()

	// No calls yet
	if mock.LastCall() != nil {
		t.Error("Expected nil LastCall before any calls")
	}

	// Make a call
	ctx := context.Background()
	mock.Chat(ctx, &ChatRequest{})

	last := mock.LastCall()
	if last == nil {
		t.Fatal("Expected non-nil LastCall after call")
	}
	if last.Method != "Chat" {
		t.Errorf("Expected method 'Chat', got %s", last.Method)
	}
}
