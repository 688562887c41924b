package evaluator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubLLM struct {
	reply  string
	err    error
	prompt string
}

func (s *stubLLM) Complete(_ context.Context, _, userPrompt string) (string, error) {
	s.prompt = userPrompt
	return s.reply, s.err
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		expected Result
	}{
		{
			name:     "unsatisfactory with follow-up",
			reply:    "```json\n{\"is_satisfactory\": false, \"follow_up_question\": \"Which database?\", \"feedback\": \"vague\"}\n```",
			expected: Result{Satisfactory: false, FollowUp: "Which database?", Feedback: "vague"},
		},
		{
			name:     "string false is unsatisfactory",
			reply:    "```json\n{\"is_satisfactory\": \"false\", \"follow_up_question\": null}\n```",
			expected: Result{Satisfactory: false},
		},
		{
			name:     "satisfactory",
			reply:    "```json\n{\"is_satisfactory\": true, \"follow_up_question\": null, \"feedback\": \"good\"}\n```",
			expected: Result{Satisfactory: true, Feedback: "good"},
		},
		{
			name:     "capitalised string is not explicit false",
			reply:    "```json\n{\"is_satisfactory\": \"False\"}\n```",
			expected: Result{Satisfactory: true},
		},
		{
			name:     "missing field defaults to satisfactory",
			reply:    "```json\n{\"feedback\": \"ok\"}\n```",
			expected: Result{Satisfactory: true, Feedback: "ok"},
		},
		{
			name:     "zero is not explicit false",
			reply:    "```json\n{\"is_satisfactory\": 0}\n```",
			expected: Result{Satisfactory: true},
		},
		{
			name:     "malformed reply",
			reply:    "The answer was fine I guess",
			expected: Result{Satisfactory: true},
		},
		{
			name:     "model error",
			err:      errors.New("timeout"),
			expected: Result{Satisfactory: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := New(&stubLLM{reply: tt.reply, err: tt.err}, zap.NewNop(), 0)
			got := ev.Evaluate(context.Background(), "Q", "A")
			if got != tt.expected {
				t.Fatalf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestEvaluateEmbedsQuestionAndAnswer(t *testing.T) {
	llm := &stubLLM{reply: "{}"}
	New(llm, nil, 0).Evaluate(context.Background(), "  What is a goroutine? ", "A lightweight thread.")

	if !strings.Contains(llm.prompt, "Question: What is a goroutine?") {
		t.Fatalf("prompt missing question:\n%s", llm.prompt)
	}
	if !strings.Contains(llm.prompt, "Answer: A lightweight thread.") {
		t.Fatalf("prompt missing answer:\n%s", llm.prompt)
	}
}

func TestEvaluateWithoutModel(t *testing.T) {
	if got := New(nil, nil, 0).Evaluate(context.Background(), "Q", "A"); got != (Result{Satisfactory: true}) {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestEvaluateLogsFeedback(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	llm := &stubLLM{reply: `{"is_satisfactory": false, "follow_up_question": "Why?", "feedback": "The answer skipped error handling entirely"}`}

	New(llm, zap.New(core), 20).Evaluate(context.Background(), "How do you handle errors?", "I don't")

	entries := logs.FilterMessage("answer evaluated").All()
	if len(entries) != 1 {
		t.Fatalf("expected one evaluation entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["feedback"] != "The answer skipped e..." {
		t.Fatalf("expected truncated feedback, got %v", fields["feedback"])
	}
	if fields["satisfactory"] != false {
		t.Fatalf("expected satisfactory=false, got %v", fields["satisfactory"])
	}
}
