// Package ai defines the narrow contracts the interview core needs from
// language-model and speech-to-text providers.
package ai

import (
	"context"
	"net/http"
	"strings"
)

// Completer sends one system+user prompt pair to a chat model and returns the raw reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Transcriber converts one spoken utterance into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// DetectAudioMIME sniffs the container format of audio. Unknown payloads get fallback.
func DetectAudioMIME(audio []byte, fallback string) string {
	detected := http.DetectContentType(audio)
	switch {
	case detected == "audio/wave":
		return "audio/wav"
	case detected == "video/webm":
		return "audio/webm"
	case detected == "video/mp4":
		return "audio/mp4"
	case detected == "application/ogg":
		return "audio/ogg"
	case strings.HasPrefix(detected, "audio/"):
		return detected
	default:
		return fallback
	}
}

// AudioExtension returns a file extension matching the MIME type, for APIs that infer format from names.
func AudioExtension(mimeType string) string {
	switch mimeType {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/webm":
		return ".webm"
	case "audio/mpeg":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/mp4":
		return ".m4a"
	case "audio/flac":
		return ".flac"
	default:
		return ".wav"
	}
}
