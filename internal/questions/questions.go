// Package questions asks the language model for interview questions built
// from a resume and a job post.
package questions

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/llmjson"
	"github.com/spigell/interviewer/internal/utils"
)

const systemPrompt = "You are an expert technical interviewer. Generate relevant interview questions based on the job requirements and candidate's background."

const (
	defaultMaxQuestions          = 7
	minInterviewQuestions        = 5
	defaultRecruiterMaxQuestions = 15
	minRecruiterQuestions        = 10
	defaultMaxLogLength          = 200
)

//go:embed interview_prompt.md
var interviewTemplate string

//go:embed recruiter_prompt.md
var recruiterTemplate string

var fallbackQuestions = []string{
	"Tell me about your experience with the technologies mentioned in the job post.",
	"What projects have you worked on that are most relevant to this position?",
	"How do you handle tight deadlines and multiple priorities?",
	"Describe a challenging technical problem you've solved recently.",
	"How do you stay updated with the latest technologies in your field?",
}

var fallbackRecruiter = []Question{
	{Question: "Which of the listed responsibilities take most of the time in a typical week?", Category: "responsibilities", Difficulty: DifficultyEasy, Purpose: "Clarify the day-to-day scope of the role."},
	{Question: "Which of the required skills are must-haves and which can be learned on the job?", Category: "skills", Difficulty: DifficultyMedium, Purpose: "Separate hard requirements from nice-to-haves."},
	{Question: "What level of experience does the ideal candidate bring to this position?", Category: "experience", Difficulty: DifficultyEasy, Purpose: "Calibrate seniority expectations."},
	{Question: "Which soft skills matter most for success in this team?", Category: "soft skills", Difficulty: DifficultyMedium, Purpose: "Understand interpersonal expectations."},
	{Question: "How is the team structured and who would this person work with most closely?", Category: "team", Difficulty: DifficultyEasy, Purpose: "Understand reporting lines and collaboration."},
	{Question: "How would you describe the engineering culture and decision-making process?", Category: "culture", Difficulty: DifficultyMedium, Purpose: "Assess cultural fit factors."},
	{Question: "What does success look like for this hire after the first six months?", Category: "expectations", Difficulty: DifficultyMedium, Purpose: "Capture measurable goals for the role."},
	{Question: "What are the biggest technical challenges the team is facing right now?", Category: "responsibilities", Difficulty: DifficultyHard, Purpose: "Surface problems the candidate would own."},
	{Question: "Are there constraints such as on-call duty, travel or time zones that the post does not mention?", Category: "other", Difficulty: DifficultyEasy, Purpose: "Reveal unstated working conditions."},
	{Question: "What made previous candidates for this position fall short?", Category: "other", Difficulty: DifficultyHard, Purpose: "Learn implicit rejection criteria."},
}

// Difficulty values accepted in structured question sets.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question is one structured item of a generated question set.
type Question struct {
	Question   string `json:"question"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Purpose    string `json:"purpose"`
}

// Set is the structured reply shape shared by both question flows.
type Set struct {
	Questions []Question `json:"questions"`
}

// Texts returns the question strings in order.
func (s *Set) Texts() []string {
	out := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		out = append(out, q.Question)
	}
	return out
}

type Options struct {
	MaxQuestions          int
	RecruiterMaxQuestions int
	MaxLogLength          int
}

type Generator struct {
	llm          ai.Completer
	logger       *zap.Logger
	maxQuestions int
	recruiterMax int
	maxLogLen    int
}

func New(llm ai.Completer, logger *zap.Logger, opts Options) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = defaultMaxQuestions
	}
	if opts.RecruiterMaxQuestions <= 0 {
		opts.RecruiterMaxQuestions = defaultRecruiterMaxQuestions
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}

	return &Generator{
		llm:          llm,
		logger:       logger,
		maxQuestions: opts.MaxQuestions,
		recruiterMax: opts.RecruiterMaxQuestions,
		maxLogLen:    opts.MaxLogLength,
	}
}

// Fallback returns a copy of the fixed question list used when generation degrades.
func Fallback() []string {
	return append([]string(nil), fallbackQuestions...)
}

// Interview returns the ordered questions for the spoken interview. It never
// fails: any model or parsing problem degrades to Fallback.
func (g *Generator) Interview(ctx context.Context, resume, jobPost string) []string {
	set, err := g.generate(ctx, "interview", interviewTemplate, resume, jobPost, minInterviewQuestions, g.maxQuestions)
	if err != nil {
		g.logger.Warn("question generation degraded, using fallback questions", zap.Error(err))
		return Fallback()
	}

	questions := set.Texts()
	if floor := min(minInterviewQuestions, g.maxQuestions); len(questions) < floor {
		g.logger.Warn("question generation degraded, using fallback questions",
			zap.Int("count", len(questions)), zap.Int("minimum", floor))
		return Fallback()
	}
	if len(questions) > g.maxQuestions {
		questions = questions[:g.maxQuestions]
	}

	for i, q := range questions {
		g.logger.Debug("generated question", zap.Int("index", i+1), zap.String("question", q))
	}

	return questions
}

// Recruiter returns the structured clarification questions meant for
// recruiters or hiring managers. It degrades to a fixed set like Interview.
func (g *Generator) Recruiter(ctx context.Context, resume, jobPost string) *Set {
	set, err := g.generate(ctx, "recruiter", recruiterTemplate, resume, jobPost, minRecruiterQuestions, g.recruiterMax)
	if err != nil {
		g.logger.Warn("recruiter question generation degraded, using fallback questions", zap.Error(err))
		return &Set{Questions: append([]Question(nil), fallbackRecruiter...)}
	}

	if len(set.Questions) > g.recruiterMax {
		set.Questions = set.Questions[:g.recruiterMax]
	}

	return set
}

func (g *Generator) generate(ctx context.Context, flow, template, resume, jobPost string, minCount, maxCount int) (*Set, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("no language model configured")
	}

	prompt := buildPrompt(template, resume, jobPost, minCount, maxCount)

	g.logger.Debug("question generation request",
		zap.String("flow", flow),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.maxLogLen)),
	)

	raw, err := g.llm.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("complete %s prompt: %w", flow, err)
	}

	g.logger.Debug("question generation response",
		zap.String("flow", flow),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, g.maxLogLen)),
	)

	set, err := parseSet(raw)
	if err != nil {
		return nil, err
	}

	g.logger.Info("generated questions", zap.String("flow", flow), zap.Int("count", len(set.Questions)))
	return set, nil
}

func buildPrompt(template, resume, jobPost string, minCount, maxCount int) string {
	if minCount > maxCount {
		minCount = maxCount
	}
	prompt := strings.ReplaceAll(template, "{{JOB_POST}}", strings.TrimSpace(jobPost))
	prompt = strings.ReplaceAll(prompt, "{{RESUME}}", strings.TrimSpace(resume))
	prompt = strings.ReplaceAll(prompt, "{{MIN_QUESTIONS}}", strconv.Itoa(minCount))
	prompt = strings.ReplaceAll(prompt, "{{MAX_QUESTIONS}}", strconv.Itoa(maxCount))
	return prompt
}

// parseSet accepts question items either as objects or as bare strings and
// drops entries without question text.
func parseSet(raw string) (*Set, error) {
	var payload struct {
		Questions []any `json:"questions"`
	}
	if err := llmjson.Decode(raw, &payload); err != nil {
		return nil, err
	}

	set := &Set{Questions: make([]Question, 0, len(payload.Questions))}
	for _, item := range payload.Questions {
		var q Question
		switch val := item.(type) {
		case string:
			q.Question = strings.TrimSpace(val)
		case map[string]any:
			q.Question = coerceString(val["question"])
			q.Category = coerceString(val["category"])
			q.Difficulty = normalizeDifficulty(coerceString(val["difficulty"]))
			q.Purpose = coerceString(val["purpose"])
		}
		if q.Question == "" {
			continue
		}
		set.Questions = append(set.Questions, q)
	}

	if len(set.Questions) == 0 {
		return nil, fmt.Errorf("model reply contains no questions")
	}

	return set, nil
}

func normalizeDifficulty(v string) string {
	switch strings.ToLower(v) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	case "":
		return ""
	default:
		return DifficultyMedium
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
