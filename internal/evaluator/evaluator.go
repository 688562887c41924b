// Package evaluator judges whether a transcribed answer is sufficient and
// proposes a follow-up question when it is not.
package evaluator

import (
	"context"
	_ "embed"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/llmjson"
	"github.com/spigell/interviewer/internal/utils"
)

const systemPrompt = "You are an expert technical interviewer. Evaluate the candidate's answer and provide structured feedback."

const defaultMaxLogLength = 200

//go:embed prompt.md
var promptTemplate string

// Result is the verdict for one answer. FollowUp is empty when none was proposed.
type Result struct {
	Satisfactory bool
	FollowUp     string
	Feedback     string
}

type Evaluator struct {
	llm       ai.Completer
	logger    *zap.Logger
	maxLogLen int
}

func New(llm ai.Completer, logger *zap.Logger, maxLogLength int) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Evaluator{llm: llm, logger: logger, maxLogLen: maxLogLength}
}

// Evaluate never fails. Model errors and unreadable replies count as a
// satisfactory answer with no follow-up so the interview keeps moving.
func (e *Evaluator) Evaluate(ctx context.Context, question, answer string) Result {
	if e.llm == nil {
		e.logger.Warn("evaluation degraded: no language model configured")
		return Result{Satisfactory: true}
	}

	prompt := buildPrompt(question, answer)

	e.logger.Debug("evaluation request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("question_preview", utils.TruncateForLog(question, e.maxLogLen)),
		zap.String("answer_preview", utils.TruncateForLog(answer, e.maxLogLen)),
	)

	raw, err := e.llm.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		e.logger.Warn("evaluation degraded: model call failed", zap.Error(err))
		return Result{Satisfactory: true}
	}

	e.logger.Debug("evaluation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	result, err := parseResponse(raw)
	if err != nil {
		e.logger.Warn("evaluation degraded: unreadable reply", zap.Error(err))
		return Result{Satisfactory: true}
	}

	e.logger.Info("answer evaluated",
		zap.Bool("satisfactory", result.Satisfactory),
		zap.Bool("follow_up", result.FollowUp != ""),
		zap.String("feedback", utils.TruncateForLog(result.Feedback, e.maxLogLen)),
	)

	return result
}

func buildPrompt(question, answer string) string {
	prompt := strings.ReplaceAll(promptTemplate, "{{QUESTION}}", strings.TrimSpace(question))
	return strings.ReplaceAll(prompt, "{{ANSWER}}", strings.TrimSpace(answer))
}

func parseResponse(raw string) (Result, error) {
	var data map[string]any
	if err := llmjson.Decode(raw, &data); err != nil {
		return Result{}, err
	}

	return Result{
		Satisfactory: !isExplicitFalse(data["is_satisfactory"]),
		FollowUp:     coerceString(data["follow_up_question"]),
		Feedback:     coerceString(data["feedback"]),
	}, nil
}

// isExplicitFalse only accepts boolean false or the exact string "false".
func isExplicitFalse(v any) bool {
	switch val := v.(type) {
	case bool:
		return !val
	case string:
		return val == "false"
	default:
		return false
	}
}

func coerceString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return ""
	}
	return s
}
