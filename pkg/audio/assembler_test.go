package audio

import (
	"bytes"
	"encoding/base64"
	"testing"
)

// splitB64 base64-encodes data and splits the encoded text into n chunks,
// the way clients fragment an upload. Chunks are numbered from 1.
func splitB64(t *testing.T, data []byte, n int) []string {
	t.Helper()
	encoded := base64.StdEncoding.EncodeToString(data)
	size := (len(encoded) + n - 1) / n
	var chunks []string
	for i := 0; i < len(encoded); i += size {
		end := i + size
		if end > len(encoded) {
			end = len(encoded)
		}
		chunks = append(chunks, encoded[i:end])
	}
	return chunks
}

func TestIngestCompletesOnLastChunk(t *testing.T) {
	payload := []byte("some pcm audio bytes for testing")
	chunks := splitB64(t, payload, 3)

	a := NewAssembler()
	for i, c := range chunks {
		unit, err := a.Ingest(c, i+1, i == len(chunks)-1, "audio/webm")
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
		if i < len(chunks)-1 {
			if unit != nil {
				t.Fatalf("chunk %d should not complete the utterance", i+1)
			}
			continue
		}
		if unit == nil {
			t.Fatal("last chunk should complete the utterance")
		}
		if !bytes.Equal(unit.Payload, payload) {
			t.Errorf("Payload = %q, want %q", unit.Payload, payload)
		}
		if unit.MimeType != "audio/webm" {
			t.Errorf("MimeType = %q, want audio/webm", unit.MimeType)
		}
		if unit.Fragments != 3 {
			t.Errorf("Fragments = %d, want 3", unit.Fragments)
		}
	}

	if a.Pending() != 0 {
		t.Errorf("Pending() = %d after completion, want 0", a.Pending())
	}
}

func TestIngestCompletesByCount(t *testing.T) {
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = byte(i)
	}
	chunks := splitB64(t, payload, maxBufferedFragments)
	if len(chunks) != maxBufferedFragments {
		t.Fatalf("test setup: got %d chunks, want %d", len(chunks), maxBufferedFragments)
	}

	a := NewAssembler()
	var unit *Unit
	var err error
	for i, c := range chunks {
		unit, err = a.Ingest(c, i+1, false, "audio/webm")
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
		if i < maxBufferedFragments-1 && unit != nil {
			t.Fatalf("completed too early at chunk %d", i+1)
		}
	}

	if unit == nil {
		t.Fatalf("utterance should complete after %d chunks without a last marker", maxBufferedFragments)
	}
	if !bytes.Equal(unit.Payload, payload) {
		t.Error("reassembled payload does not match original")
	}
}

func TestIngestFLACSuppressesCountCompletion(t *testing.T) {
	a := NewAssembler()

	// Well past the count threshold: a structured container must wait for
	// the explicit end marker.
	for i := 1; i <= maxBufferedFragments+5; i++ {
		unit, err := a.Ingest("QUJD", i, false, "audio/flac")
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
		if unit != nil {
			t.Fatalf("FLAC completed by count at chunk %d", i)
		}
	}

	unit, err := a.Ingest("REVG", maxBufferedFragments+6, true, "audio/flac")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if unit == nil {
		t.Fatal("FLAC should complete on explicit last chunk")
	}
	if unit.Fragments != maxBufferedFragments+6 {
		t.Errorf("Fragments = %d, want %d", unit.Fragments, maxBufferedFragments+6)
	}
}

func TestIngestNewUtteranceDiscardsOldBuffer(t *testing.T) {
	stale := []byte("stale utterance that was never finished")
	fresh := []byte("fresh utterance")

	a := NewAssembler()
	for i, c := range splitB64(t, stale, 4) {
		if unit, _ := a.Ingest(c, i+1, false, "audio/webm"); unit != nil {
			t.Fatal("stale utterance should not complete")
		}
	}
	if a.Pending() == 0 {
		t.Fatal("expected buffered fragments before restart")
	}

	// chunkNumber 0 restarts; the stale fragments must not leak into the
	// next completed payload.
	unit, err := a.Ingest(base64.StdEncoding.EncodeToString(fresh), 0, true, "audio/ogg")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if unit == nil {
		t.Fatal("fresh utterance should complete")
	}
	if !bytes.Equal(unit.Payload, fresh) {
		t.Errorf("Payload = %q, want %q", unit.Payload, fresh)
	}
	if unit.MimeType != "audio/ogg" {
		t.Errorf("MimeType = %q, want audio/ogg", unit.MimeType)
	}
	if unit.Fragments != 1 {
		t.Errorf("Fragments = %d, want 1", unit.Fragments)
	}
}

func TestIngestInvalidBase64(t *testing.T) {
	a := NewAssembler()
	if _, err := a.Ingest("!!!not base64!!!", 1, true, ""); err == nil {
		t.Error("expected error for invalid base64 payload")
	}
	if a.Pending() != 0 {
		t.Error("buffer should be cleared after a failed decode")
	}
}

func TestDecodeSingle(t *testing.T) {
	payload := []byte("one-shot audio")
	unit, err := DecodeSingle(base64.StdEncoding.EncodeToString(payload), "audio/wav")
	if err != nil {
		t.Fatalf("DecodeSingle() error = %v", err)
	}
	if !bytes.Equal(unit.Payload, payload) {
		t.Errorf("Payload = %q, want %q", unit.Payload, payload)
	}
	if unit.Fragments != 1 {
		t.Errorf("Fragments = %d, want 1", unit.Fragments)
	}

	if _, err := DecodeSingle("%%%", ""); err == nil {
		t.Error("expected error for invalid base64")
	}
}
