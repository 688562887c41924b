package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across packages.
const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
	FieldSession  = "session_id"
)

// nonBlank turns key/value pairs into zap string fields, skipping pairs
// whose trimmed value is empty.
func nonBlank(pairs ...[2]string) []zap.Field {
	fields := make([]zap.Field, 0, len(pairs))
	for _, p := range pairs {
		if v := strings.TrimSpace(p[1]); v != "" {
			fields = append(fields, zap.String(p[0], v))
		}
	}
	return fields
}

func with(log *zap.Logger, fields []zap.Field) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// WithCommonFields tags log with the language model provider and model. Blank values are omitted.
func WithCommonFields(log *zap.Logger, provider, model string) *zap.Logger {
	return with(log, nonBlank(
		[2]string{FieldProvider, provider},
		[2]string{FieldModel, model},
	))
}

// WithSession tags log with the interview session id.
func WithSession(log *zap.Logger, sessionID string) *zap.Logger {
	return with(log, nonBlank([2]string{FieldSession, sessionID}))
}
