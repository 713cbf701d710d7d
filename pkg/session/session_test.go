package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/voxrelay/voxrelay/pkg/protocol"
)

func TestContextTrimsOldestTurns(t *testing.T) {
	var c Context
	for i := 0; i < MaxTurns+7; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		c.Append(role, fmt.Sprintf("turn %d", i))
	}

	if c.Len() != MaxTurns {
		t.Fatalf("Len() = %d, want %d", c.Len(), MaxTurns)
	}

	turns := c.Turns()
	if got, want := turns[0].Content, fmt.Sprintf("turn %d", 7); got != want {
		t.Errorf("oldest retained turn = %q, want %q", got, want)
	}
	if got, want := turns[len(turns)-1].Content, fmt.Sprintf("turn %d", MaxTurns+6); got != want {
		t.Errorf("newest retained turn = %q, want %q", got, want)
	}
}

func TestContextTurnsReturnsCopy(t *testing.T) {
	var c Context
	c.Append(RoleUser, "hello")

	turns := c.Turns()
	turns[0].Content = "mutated"

	if c.Turns()[0].Content != "hello" {
		t.Error("mutating the returned slice must not affect the context")
	}
}

func TestInterruptGate(t *testing.T) {
	var g InterruptGate
	if g.Interrupted() {
		t.Error("fresh gate should not be tripped")
	}

	g.Trip()
	if !g.Interrupted() {
		t.Error("gate should report tripped after Trip")
	}

	// Tripping twice is idempotent, only Reset clears it.
	g.Trip()
	if !g.Interrupted() {
		t.Error("gate should stay tripped")
	}

	g.Reset()
	if g.Interrupted() {
		t.Error("gate should clear after Reset")
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
	}{
		{"primary", BackendPrimary},
		{"secondary", BackendSecondary},
		{"", BackendPrimary},
		{"something-else", BackendPrimary},
	}
	for _, tt := range tests {
		if got := ParseBackend(tt.in); got != tt.want {
			t.Errorf("ParseBackend(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLanguageFromVoiceName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"hi-IN-Chirp3-HD-Orus", "hi-IN"},
		{"en-IN-Chirp3-HD-Zephyr", "en-IN"},
		{"en-US-Standard-A", "en-US"},
		{"en-GB", "en-GB"},
		{"nolanguage", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := LanguageFromVoiceName(tt.name); got != tt.want {
			t.Errorf("LanguageFromVoiceName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResolveVoice(t *testing.T) {
	prev := DefaultVoice("en-IN-Chirp3-HD-Zephyr")

	t.Run("zero input keeps previous", func(t *testing.T) {
		got := ResolveVoice(protocol.VoiceInput{}, prev)
		if got != prev {
			t.Errorf("got %+v, want %+v", got, prev)
		}
	})

	t.Run("bare name rederives language", func(t *testing.T) {
		got := ResolveVoice(protocol.VoiceInput{Name: "hi-IN-Chirp3-HD-Orus"}, prev)
		if got.Name != "hi-IN-Chirp3-HD-Orus" {
			t.Errorf("Name = %q", got.Name)
		}
		if got.LanguageCode != "hi-IN" {
			t.Errorf("LanguageCode = %q, want hi-IN", got.LanguageCode)
		}
		if got.Gender != prev.Gender {
			t.Errorf("Gender = %q, want retained %q", got.Gender, prev.Gender)
		}
	})

	t.Run("full object partial update retains prior fields", func(t *testing.T) {
		got := ResolveVoice(protocol.VoiceInput{
			Full: &protocol.VoiceConfig{SSMLGender: "MALE"},
		}, prev)
		if got.Gender != "MALE" {
			t.Errorf("Gender = %q, want MALE", got.Gender)
		}
		if got.Name != prev.Name || got.LanguageCode != prev.LanguageCode {
			t.Errorf("name/language should be retained, got %+v", got)
		}
	})

	t.Run("full object name rederives language unless explicit", func(t *testing.T) {
		got := ResolveVoice(protocol.VoiceInput{
			Full: &protocol.VoiceConfig{Name: "hi-IN-Chirp3-HD-Orus"},
		}, prev)
		if got.LanguageCode != "hi-IN" {
			t.Errorf("LanguageCode = %q, want hi-IN", got.LanguageCode)
		}

		got = ResolveVoice(protocol.VoiceInput{
			Full: &protocol.VoiceConfig{Name: "hi-IN-Chirp3-HD-Orus", LanguageCode: "en-US"},
		}, prev)
		if got.LanguageCode != "en-US" {
			t.Errorf("explicit LanguageCode = %q, want en-US", got.LanguageCode)
		}
	})
}

func TestManagerGetOrCreate(t *testing.T) {
	m := NewManager(Defaults{
		ModelID: "gpt-4o-mini",
		Voice:   DefaultVoice("en-IN-Chirp3-HD-Zephyr"),
	})

	s, created := m.GetOrCreate("")
	if !created {
		t.Fatal("empty id should create a session")
	}
	if s.ID == "" {
		t.Fatal("created session should have a generated id")
	}
	if s.Model.Backend != BackendPrimary || s.Model.ModelID != "gpt-4o-mini" {
		t.Errorf("defaults not applied: %+v", s.Model)
	}
	if s.Assembler == nil {
		t.Error("session should carry an assembler")
	}

	again, created := m.GetOrCreate(s.ID)
	if created {
		t.Error("existing id should not create")
	}
	if again != s {
		t.Error("GetOrCreate should return the same session for the same id")
	}

	named, created := m.GetOrCreate("client-chosen-id")
	if !created || named.ID != "client-chosen-id" {
		t.Errorf("created=%v id=%q, want creation with the supplied id", created, named.ID)
	}

	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}

	m.Remove(s.ID)
	if _, ok := m.Get(s.ID); ok {
		t.Error("removed session should be gone")
	}
}

func TestManagerConcurrentAccess(t *testing.T) {
	m := NewManager(Defaults{ModelID: "gpt-4o-mini"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("sess-%d", i%4)
			s, _ := m.GetOrCreate(id)
			s.Touch()
			m.Get(id)
			m.Len()
		}(i)
	}
	wg.Wait()

	if m.Len() != 4 {
		t.Errorf("Len() = %d, want 4", m.Len())
	}
}
