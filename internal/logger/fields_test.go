package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestWithCommonFields(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		expect   map[string]any
	}{
		{
			name:     "both values trimmed",
			provider: "  gemini ",
			model:    "gemini-2.5-flash",
			expect:   map[string]any{FieldProvider: "gemini", FieldModel: "gemini-2.5-flash"},
		},
		{
			name:     "blank model omitted",
			provider: "openai",
			model:    "   ",
			expect:   map[string]any{FieldProvider: "openai"},
		},
		{
			name:   "nothing to add",
			expect: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, logs := observed()
			WithCommonFields(log, tt.provider, tt.model).Info("question generated")

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			ctx := entries[0].ContextMap()
			if len(ctx) != len(tt.expect) {
				t.Fatalf("expected fields %v, got %v", tt.expect, ctx)
			}
			for k, v := range tt.expect {
				if ctx[k] != v {
					t.Fatalf("field %s: expected %v, got %v", k, v, ctx[k])
				}
			}
		})
	}
}

func TestWithSession(t *testing.T) {
	log, logs := observed()

	WithSession(log, "abc-123").Info("turn finished")
	WithSession(log, "").Info("no session yet")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if got := entries[0].ContextMap()[FieldSession]; got != "abc-123" {
		t.Fatalf("expected session id, got %v", got)
	}
	if _, ok := entries[1].ContextMap()[FieldSession]; ok {
		t.Fatalf("blank session id should be omitted")
	}
}

func TestNilLoggerFallsBackToNop(t *testing.T) {
	WithSession(nil, "abc").Info("must not panic")
	WithCommonFields(nil, "gemini", "").Debug("must not panic")
}
