// Package audio handles inbound audio classification and reassembly.
//
// Clients deliver audio as base64 text, either whole or split into
// arbitrary-sized chunks over the message transport. The package decides
// what codec a payload carries (classification) and when a chunked
// utterance is complete (assembly); it never decodes the audio itself —
// recognition is delegated to the speech gateway.
package audio

import (
	"bytes"
	"strings"
)

// Format enumerates the audio codecs the relay recognizes.
type Format int

const (
	// FormatLinear16 is uncompressed little-endian PCM (also the fallback
	// for anything unrecognized).
	FormatLinear16 Format = iota

	// FormatFLAC is block-structured lossless audio.
	FormatFLAC

	// FormatMuLaw is 8-bit mu-law telephony audio.
	FormatMuLaw

	// FormatAMR is adaptive multi-rate narrowband.
	FormatAMR

	// FormatAMRWB is adaptive multi-rate wideband.
	FormatAMRWB

	// FormatOggOpus is Opus in an Ogg container.
	FormatOggOpus

	// FormatWebMOpus is Opus in a WebM/EBML container.
	FormatWebMOpus
)

// String returns the Cloud Speech encoding name for the format.
func (f Format) String() string {
	switch f {
	case FormatFLAC:
		return "FLAC"
	case FormatMuLaw:
		return "MULAW"
	case FormatAMR:
		return "AMR"
	case FormatAMRWB:
		return "AMR_WB"
	case FormatOggOpus:
		return "OGG_OPUS"
	case FormatWebMOpus:
		return "WEBM_OPUS"
	default:
		return "LINEAR16"
	}
}

// SampleRate returns the sample rate the recognizer must be told for
// formats with a fixed rate, or 0 when the container is self-describing.
func (f Format) SampleRate() int {
	switch f {
	case FormatMuLaw:
		return 8000
	case FormatAMR:
		return 8000
	case FormatAMRWB:
		return 16000
	case FormatOggOpus, FormatWebMOpus:
		return 48000
	case FormatLinear16:
		return 16000
	default:
		return 0
	}
}

// RequiresExplicitEnd reports whether the format carries trailing
// structure, so chunked uploads can only be finalized by an explicit
// last-chunk marker (count-based completion would truncate the stream).
func (f Format) RequiresExplicitEnd() bool {
	return f == FormatFLAC
}

// Magic byte signatures, checked before any MIME matching.
var (
	sigFLAC  = []byte("fLaC")
	sigOgg   = []byte("OggS")
	sigAMRWB = []byte("#!AMR-WB")
	sigAMR   = []byte("#!AMR")
	sigEBML  = []byte{0x1A, 0x45, 0xDF, 0xA3}
	sigRIFF  = []byte("RIFF")
)

// Classify determines the audio format of a payload. Precedence:
// byte signatures first, then MIME substring matches, then LINEAR16.
// It is total: every input maps to some Format.
func Classify(data []byte, mimeHint string) Format {
	switch {
	case bytes.HasPrefix(data, sigFLAC):
		return FormatFLAC
	case bytes.HasPrefix(data, sigOgg):
		return FormatOggOpus
	case bytes.HasPrefix(data, sigAMRWB):
		return FormatAMRWB
	case bytes.HasPrefix(data, sigAMR):
		return FormatAMR
	case bytes.HasPrefix(data, sigEBML):
		return FormatWebMOpus
	case bytes.HasPrefix(data, sigRIFF):
		// WAV container; the recognizer reads the header itself.
		return FormatLinear16
	}
	return FormatFromMIME(mimeHint)
}

// FormatFromMIME maps a MIME hint to a Format using substring matching.
// Unrecognized or empty hints fall back to LINEAR16.
func FormatFromMIME(mimeHint string) Format {
	mime := strings.ToLower(mimeHint)
	switch {
	case strings.Contains(mime, "flac"):
		return FormatFLAC
	case strings.Contains(mime, "amr-wb"):
		return FormatAMRWB
	case strings.Contains(mime, "amr"):
		return FormatAMR
	case strings.Contains(mime, "mulaw"), strings.Contains(mime, "basic"):
		return FormatMuLaw
	case strings.Contains(mime, "ogg"), strings.Contains(mime, "opus"):
		return FormatOggOpus
	case strings.Contains(mime, "webm"):
		return FormatWebMOpus
	default:
		return FormatLinear16
	}
}
