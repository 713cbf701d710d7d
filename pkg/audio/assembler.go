package audio

import (
	"encoding/base64"
	"fmt"
	"time"
)

// maxBufferedFragments is the count-based completion threshold for
// chunked uploads with no explicit last-chunk marker.
const maxBufferedFragments = 10

// Unit is a fully reassembled utterance ready for recognition.
type Unit struct {
	// Payload is the decoded audio bytes.
	Payload []byte

	// MimeType is the hint recorded at utterance start.
	MimeType string

	// Fragments is how many chunks the utterance arrived in.
	Fragments int
}

// Assembler accumulates base64 audio fragments for one session and decides
// when a complete utterance has arrived. It is not safe for concurrent use;
// each session owns exactly one assembler and feeds it serially.
type Assembler struct {
	fragments []string
	arrivals  []time.Time
	mimeType  string
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Ingest adds one fragment. A sequence number of 0 or 1 starts a new
// utterance, discarding any previously buffered fragments. The returned
// Unit is non-nil when one of the completion rules fired:
//
//  1. isLast is set — always completes, regardless of format.
//  2. The format carries trailing structure (see Format.RequiresExplicitEnd)
//     — only rule 1 applies.
//  3. The buffer reached maxBufferedFragments.
func (a *Assembler) Ingest(fragment string, seq int, isLast bool, mimeType string) (*Unit, error) {
	if seq <= 1 {
		a.reset()
		a.mimeType = mimeType
	}
	if a.mimeType == "" && mimeType != "" {
		a.mimeType = mimeType
	}

	a.fragments = append(a.fragments, fragment)
	a.arrivals = append(a.arrivals, time.Now())

	if !isLast {
		if FormatFromMIME(a.mimeType).RequiresExplicitEnd() {
			return nil, nil
		}
		if len(a.fragments) < maxBufferedFragments {
			return nil, nil
		}
	}

	return a.complete()
}

// Pending returns how many fragments are currently buffered.
func (a *Assembler) Pending() int {
	return len(a.fragments)
}

// Reset discards any in-progress utterance.
func (a *Assembler) Reset() {
	a.reset()
	a.mimeType = ""
}

// complete concatenates the buffered fragments in arrival order, decodes
// the transport encoding, and clears the buffer.
func (a *Assembler) complete() (*Unit, error) {
	var joined string
	for _, f := range a.fragments {
		joined += f
	}

	count := len(a.fragments)
	mime := a.mimeType
	a.reset()

	payload, err := base64.StdEncoding.DecodeString(joined)
	if err != nil {
		return nil, fmt.Errorf("decode assembled audio: %w", err)
	}

	return &Unit{
		Payload:   payload,
		MimeType:  mime,
		Fragments: count,
	}, nil
}

func (a *Assembler) reset() {
	a.fragments = nil
	a.arrivals = nil
}

// DecodeSingle handles non-chunked audio, which bypasses assembly entirely.
func DecodeSingle(b64, mimeType string) (*Unit, error) {
	payload, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return &Unit{
		Payload:   payload,
		MimeType:  mimeType,
		Fragments: 1,
	}, nil
}
