package session

import (
	"strings"

	"github.com/voxrelay/voxrelay/pkg/protocol"
)

// Default gender reported to the synthesis backend when the client never
// specified one.
const defaultGender = "FEMALE"

// VoiceSelector is the canonical synthesis voice configuration.
type VoiceSelector struct {
	// LanguageCode is a BCP-47 code like "en-IN".
	LanguageCode string

	// Gender is the SSML gender hint ("FEMALE", "MALE").
	Gender string

	// Name is the full backend voice name, e.g. "en-IN-Chirp3-HD-Zephyr".
	Name string
}

// DefaultVoice builds the selector assigned to new sessions from a
// configured voice name.
func DefaultVoice(name string) VoiceSelector {
	return VoiceSelector{
		LanguageCode: LanguageFromVoiceName(name),
		Gender:       defaultGender,
		Name:         name,
	}
}

// LanguageFromVoiceName derives the language code from a voice name by
// the backend naming convention: the first two hyphen-delimited segments
// ("hi-IN-Chirp3-HD-Orus" → "hi-IN"). Names without two segments yield "".
func LanguageFromVoiceName(name string) string {
	parts := strings.SplitN(name, "-", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "-" + parts[1]
}

// ResolveVoice normalizes a client voice input against the previous
// selector. Partial updates retain prior values; a bare voice name
// re-derives the language code from the name.
func ResolveVoice(in protocol.VoiceInput, prev VoiceSelector) VoiceSelector {
	if in.IsZero() {
		return prev
	}

	next := prev

	if in.Full != nil {
		if in.Full.Name != "" {
			next.Name = in.Full.Name
		}
		if in.Full.LanguageCode != "" {
			next.LanguageCode = in.Full.LanguageCode
		} else if in.Full.Name != "" {
			if code := LanguageFromVoiceName(in.Full.Name); code != "" {
				next.LanguageCode = code
			}
		}
		if in.Full.SSMLGender != "" {
			next.Gender = in.Full.SSMLGender
		}
		return next
	}

	next.Name = in.Name
	if code := LanguageFromVoiceName(in.Name); code != "" {
		next.LanguageCode = code
	}
	return next
}
