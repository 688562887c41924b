// Package session holds the authoritative in-memory record of one interview.
//
// A Session is owned by a single writer (the interview orchestrator) for the
// lifetime of one connection. It is not safe for concurrent use.
package session

import (
	"fmt"
	"time"
)

const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

var now = time.Now

// TranscriptEntry is one line of the audit log. It is never used for control flow.
type TranscriptEntry struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// State is the orchestrator-facing position of an interview.
type State int

const (
	AwaitingMainAnswer State = iota
	AwaitingFollowUpAnswer
	Completed
)

func (s State) String() string {
	switch s {
	case AwaitingMainAnswer:
		return "awaiting_main_answer"
	case AwaitingFollowUpAnswer:
		return "awaiting_follow_up_answer"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Session struct {
	id        string
	createdAt time.Time

	resumeText  string
	jobPostText string

	questions    []string
	currentIndex int
	answers      []string
	followUps    []string
	transcript   []TranscriptEntry
	completed    bool
}

// New creates an empty session. The creation time is normalized to UTC.
func New(id string, createdAt time.Time) *Session {
	return &Session{
		id:         id,
		createdAt:  normalizeTime(createdAt),
		questions:  []string{},
		answers:    []string{},
		followUps:  []string{},
		transcript: []TranscriptEntry{},
	}
}

func (s *Session) ID() string { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) ResumeText() string { return s.resumeText }
func (s *Session) JobPostText() string { return s.jobPostText }
func (s *Session) CurrentIndex() int { return s.currentIndex }
func (s *Session) Completed() bool { return s.completed }
func (s *Session) Questions() []string { return append([]string{}, s.questions...) }
func (s *Session) Answers() []string { return append([]string{}, s.answers...) }
func (s *Session) PendingFollowUps() []string {
	return append([]string{}, s.followUps...)
}

func (s *Session) Transcript() []TranscriptEntry {
	return append([]TranscriptEntry{}, s.transcript...)
}

// SetDocuments stores the extracted resume and job post. It may be called once.
func (s *Session) SetDocuments(resumeText, jobPostText string) error {
	if s.resumeText != "" || s.jobPostText != "" {
		return ErrDocumentsSet
	}
	s.resumeText = resumeText
	s.jobPostText = jobPostText
	return nil
}

// AddQuestion appends a numbered question. Questions are fixed once the first
// turn has been logged.
func (s *Session) AddQuestion(question string) error {
	if s.completed || s.currentIndex > 0 || len(s.transcript) > 0 {
		return ErrQuestionsFixed
	}
	s.questions = append(s.questions, question)
	return nil
}

// AddFollowUp enqueues a follow-up question. Follow-ups never become numbered questions.
func (s *Session) AddFollowUp(question string) error {
	if s.completed {
		return ErrAlreadyCompleted
	}
	s.followUps = append(s.followUps, question)
	return nil
}

func (s *Session) HasFollowUps() bool { return len(s.followUps) > 0 }

// PeekFollowUp returns the head of the follow-up queue without removing it.
func (s *Session) PeekFollowUp() (string, error) {
	if len(s.followUps) == 0 {
		return "", ErrEmptyQueue
	}
	return s.followUps[0], nil
}

// PopFollowUp removes and returns the head of the follow-up queue.
func (s *Session) PopFollowUp() (string, error) {
	if len(s.followUps) == 0 {
		return "", ErrEmptyQueue
	}
	head := s.followUps[0]
	s.followUps = append([]string{}, s.followUps[1:]...)
	return head, nil
}

// CurrentQuestion returns the main question under the cursor.
func (s *Session) CurrentQuestion() (string, error) {
	if s.currentIndex >= len(s.questions) {
		return "", ErrNoQuestion
	}
	return s.questions[s.currentIndex], nil
}

// RecordAnswer stores the accepted answer for the current question and advances the cursor.
func (s *Session) RecordAnswer(answer string) error {
	if s.completed {
		return ErrAlreadyCompleted
	}
	if s.currentIndex >= len(s.questions) {
		return ErrNoQuestion
	}
	s.answers = append(s.answers, answer)
	s.currentIndex++
	return nil
}

func (s *Session) LogTurn(role, content string) {
	s.transcript = append(s.transcript, TranscriptEntry{
		Role:      role,
		Content:   content,
		Timestamp: normalizeTime(now()),
	})
}

// Finished reports whether every question has an accepted answer and no follow-up is pending.
func (s *Session) Finished() bool {
	return s.currentIndex == len(s.questions) && len(s.followUps) == 0
}

// MarkCompleted flips the completion flag. It succeeds exactly once.
func (s *Session) MarkCompleted() error {
	if s.completed {
		return ErrAlreadyCompleted
	}
	if !s.Finished() {
		return ErrNotFinished
	}
	s.completed = true
	return nil
}

func (s *Session) State() State {
	switch {
	case s.completed:
		return Completed
	case len(s.followUps) > 0:
		return AwaitingFollowUpAnswer
	default:
		return AwaitingMainAnswer
	}
}

// Validate checks the structural invariants of the session.
func (s *Session) Validate() error {
	if s.id == "" {
		return fmt.Errorf("%w: empty session id", ErrInvalidSnapshot)
	}
	if s.currentIndex < 0 || s.currentIndex > len(s.questions) {
		return fmt.Errorf("%w: question index %d out of range [0, %d]", ErrInvalidSnapshot, s.currentIndex, len(s.questions))
	}
	if len(s.answers) != s.currentIndex {
		return fmt.Errorf("%w: %d answers for question index %d", ErrInvalidSnapshot, len(s.answers), s.currentIndex)
	}
	if s.completed && !s.Finished() {
		return fmt.Errorf("%w: completed with unanswered questions or pending follow-ups", ErrInvalidSnapshot)
	}
	return nil
}

func normalizeTime(t time.Time) time.Time {
	return t.Round(0).UTC()
}
