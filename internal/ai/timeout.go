package ai

import (
	"context"
	"time"
)

type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithCompleteTimeout bounds every Complete call. A non-positive timeout returns c unchanged.
func WithCompleteTimeout(c Completer, timeout time.Duration) Completer {
	if timeout <= 0 || c == nil {
		return c
	}
	return &timeoutCompleter{next: c, timeout: timeout}
}

func (t *timeoutCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, systemPrompt, userPrompt)
}

type timeoutTranscriber struct {
	next    Transcriber
	timeout time.Duration
}

// WithTranscribeTimeout bounds every Transcribe call. A non-positive timeout returns tr unchanged.
func WithTranscribeTimeout(tr Transcriber, timeout time.Duration) Transcriber {
	if timeout <= 0 || tr == nil {
		return tr
	}
	return &timeoutTranscriber{next: tr, timeout: timeout}
}

func (t *timeoutTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Transcribe(ctx, audio)
}
