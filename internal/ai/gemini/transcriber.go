package gemini

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/interviewer/internal/ai"
)

const transcriptionPrompt = "Transcribe the spoken answer in this audio verbatim. " +
	"Reply with the transcript text only. If nobody speaks, reply with an empty message."

var _ ai.Transcriber = (*Transcriber)(nil)

// Transcriber turns audio into text by sending it to Gemini as inline data.
type Transcriber struct {
	generator *Generator
	model     string
	mimeType  string
}

// Transcriber returns a speech-to-text engine sharing the generator's client.
// An empty model reuses the generator model.
func (g *Generator) Transcriber(model, fallbackMIME string) *Transcriber {
	if model = strings.TrimSpace(model); model == "" {
		model = g.model
	}
	if fallbackMIME == "" {
		fallbackMIME = "audio/wav"
	}
	return &Transcriber{generator: g, model: model, mimeType: fallbackMIME}
}

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if t == nil || t.generator == nil || t.generator.models == nil {
		return "", errors.New("gemini transcriber is not initialized")
	}

	mimeType := ai.DetectAudioMIME(audio, t.mimeType)
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: transcriptionPrompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
		},
	}}

	resp, err := t.generator.models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return "", err
	}

	text := responseText(resp)
	t.generator.logger.Debug("gemini transcription completed",
		zap.String("mime_type", mimeType),
		zap.Int("audio_bytes", len(audio)),
		zap.Int("transcript_length", len(text)),
	)

	return text, nil
}

func (t *Transcriber) Model() string { return t.model }
