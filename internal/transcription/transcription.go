// Package transcription turns recorded answers into text using a
// process-wide speech-to-text engine.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/utils"
)

// NoSpeechMarker replaces an empty transcript.
const NoSpeechMarker = "no speech detected"

// ErrModelUnavailable means the engine failed to initialize at process start.
// It is reported on every call and never recovers for the life of the process.
var ErrModelUnavailable = errors.New("transcription model unavailable")

type Adapter struct {
	engine    ai.Transcriber
	initErr   error
	logger    *zap.Logger
	maxLogLen int
}

// New wraps an engine. initErr is the engine's construction failure, if any;
// when set (or engine is nil) every Transcribe call fails with ErrModelUnavailable.
func New(engine ai.Transcriber, initErr error, logger *zap.Logger, maxLogLen int) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil && initErr == nil {
		initErr = errors.New("no transcription engine configured")
	}
	if initErr != nil {
		logger.Error("transcription engine failed to initialize", zap.Error(initErr))
	}
	return &Adapter{engine: engine, initErr: initErr, logger: logger, maxLogLen: maxLogLen}
}

// Available reports whether the engine initialized successfully.
func (a *Adapter) Available() bool { return a.initErr == nil }

func (a *Adapter) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if a.initErr != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, a.initErr)
	}

	if len(audio) == 0 {
		return NoSpeechMarker, nil
	}

	text, err := a.engine.Transcribe(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		a.logger.Debug("transcription returned no text", zap.Int("audio_bytes", len(audio)))
		return NoSpeechMarker, nil
	}

	a.logger.Debug("transcription completed",
		zap.Int("audio_bytes", len(audio)),
		zap.String("transcript_preview", utils.TruncateForLog(text, a.maxLogLen)),
	)

	return text, nil
}
