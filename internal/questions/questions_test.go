package questions

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubLLM struct {
	reply  string
	err    error
	system string
	prompt string
}

func (s *stubLLM) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.system = systemPrompt
	s.prompt = userPrompt
	return s.reply, s.err
}

func TestInterviewParsesFencedReply(t *testing.T) {
	llm := &stubLLM{reply: "Sure!\n```json\n{\"questions\":[{\"question\":\"Q1\",\"category\":\"go\",\"difficulty\":\"easy\",\"purpose\":\"p\"},{\"question\":\"Q2\"},\"Q3\",\"Q4\",{\"question\":\"Q5\"}]}\n```"}
	gen := New(llm, zap.NewNop(), Options{})

	got := gen.Interview(context.Background(), "resume body", "job body")
	if !reflect.DeepEqual(got, []string{"Q1", "Q2", "Q3", "Q4", "Q5"}) {
		t.Fatalf("unexpected questions: %v", got)
	}

	if llm.system != systemPrompt {
		t.Fatalf("unexpected system prompt %q", llm.system)
	}
	for _, want := range []string{"resume body", "job body", "5 - 7"} {
		if !strings.Contains(llm.prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, llm.prompt)
		}
	}
	if strings.Contains(llm.prompt, "{{") {
		t.Fatalf("prompt has unreplaced placeholders:\n%s", llm.prompt)
	}
}

func TestInterviewCapsQuestionCount(t *testing.T) {
	llm := &stubLLM{reply: "```json\n{\"questions\":[\"a\",\"b\",\"c\",\"d\"]}\n```"}
	gen := New(llm, nil, Options{MaxQuestions: 3})

	got := gen.Interview(context.Background(), "r", "j")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected questions: %v", got)
	}
}

func TestInterviewFallbackIsDeterministic(t *testing.T) {
	tests := []struct {
		name string
		llm  *stubLLM
	}{
		{name: "unparsable reply", llm: &stubLLM{reply: "I cannot help with that."}},
		{name: "model error", llm: &stubLLM{err: errors.New("boom")}},
		{name: "empty question list", llm: &stubLLM{reply: "```json\n{\"questions\":[]}\n```"}},
		{name: "items without text", llm: &stubLLM{reply: "```json\n{\"questions\":[{\"category\":\"x\"}]}\n```"}},
		{name: "fewer than five questions", llm: &stubLLM{reply: "```json\n{\"questions\":[\"a\",\"b\",\"c\",\"d\"]}\n```"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := New(tt.llm, zap.NewNop(), Options{})
			for i := 0; i < 3; i++ {
				got := gen.Interview(context.Background(), "r", "j")
				if len(got) != 5 {
					t.Fatalf("expected 5 fallback questions, got %d", len(got))
				}
				if !reflect.DeepEqual(got, fallbackQuestions) {
					t.Fatalf("unexpected fallback: %v", got)
				}
			}
		})
	}
}

func TestInterviewWithoutModelFallsBack(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	gen := New(nil, zap.New(core), Options{})

	if got := gen.Interview(context.Background(), "r", "j"); !reflect.DeepEqual(got, Fallback()) {
		t.Fatalf("unexpected questions: %v", got)
	}
	if observed.Len() != 1 {
		t.Fatalf("expected a degradation warning, got %d entries", observed.Len())
	}
}

func TestFallbackReturnsCopy(t *testing.T) {
	first := Fallback()
	first[0] = "mutated"
	if Fallback()[0] == "mutated" {
		t.Fatal("Fallback must not expose the shared slice")
	}
}

func TestRecruiterKeepsStructuredFields(t *testing.T) {
	llm := &stubLLM{reply: "```json\n{\"questions\":[{\"question\":\"How big is the team?\",\"category\":\"team\",\"difficulty\":\"HARD\",\"purpose\":\"size\"},{\"question\":\"Remote?\",\"difficulty\":\"tricky\"}]}\n```"}
	gen := New(llm, zap.NewNop(), Options{})

	set := gen.Recruiter(context.Background(), "r", "j")
	want := []Question{
		{Question: "How big is the team?", Category: "team", Difficulty: DifficultyHard, Purpose: "size"},
		{Question: "Remote?", Difficulty: DifficultyMedium},
	}
	if !reflect.DeepEqual(set.Questions, want) {
		t.Fatalf("unexpected set: %+v", set.Questions)
	}
	if !strings.Contains(llm.prompt, "10 - 15") {
		t.Fatalf("recruiter prompt should request 10 - 15 questions:\n%s", llm.prompt)
	}
}

func TestRecruiterFallback(t *testing.T) {
	gen := New(&stubLLM{reply: "nope"}, zap.NewNop(), Options{})

	set := gen.Recruiter(context.Background(), "r", "j")
	if len(set.Questions) != len(fallbackRecruiter) {
		t.Fatalf("expected fallback set, got %d items", len(set.Questions))
	}
	set.Questions[0].Question = "mutated"
	if fallbackRecruiter[0].Question == "mutated" {
		t.Fatal("fallback set must be copied")
	}
}
