package session

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func fixedClock(t *testing.T) {
	t.Helper()
	original := now
	tick := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.FixedZone("CEST", 2*60*60))
	now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	t.Cleanup(func() { now = original })
}

func newStarted(t *testing.T, questions ...string) *Session {
	t.Helper()
	s := New("session-1", time.Date(2024, 5, 1, 9, 59, 0, 0, time.UTC))
	if err := s.SetDocuments("resume text", "job post text"); err != nil {
		t.Fatalf("set documents: %v", err)
	}
	for _, q := range questions {
		if err := s.AddQuestion(q); err != nil {
			t.Fatalf("add question: %v", err)
		}
	}
	return s
}

func assertInvariants(t *testing.T, s *Session) {
	t.Helper()
	if len(s.Answers()) != s.CurrentIndex() {
		t.Fatalf("expected %d answers, got %d", s.CurrentIndex(), len(s.Answers()))
	}
	if s.CurrentIndex() > len(s.Questions()) {
		t.Fatalf("index %d beyond %d questions", s.CurrentIndex(), len(s.Questions()))
	}
	if s.Completed() && (len(s.PendingFollowUps()) != 0 || s.CurrentIndex() != len(s.Questions())) {
		t.Fatalf("completed session has unfinished work")
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestFollowUpQueueIsFIFO(t *testing.T) {
	s := newStarted(t, "Q1")

	if _, err := s.PopFollowUp(); !errors.Is(err, ErrEmptyQueue) {
		t.Fatalf("expected ErrEmptyQueue, got %v", err)
	}
	if _, err := s.PeekFollowUp(); !errors.Is(err, ErrEmptyQueue) {
		t.Fatalf("expected ErrEmptyQueue on peek, got %v", err)
	}

	_ = s.AddFollowUp("F1")
	_ = s.AddFollowUp("F2")

	if s.State() != AwaitingFollowUpAnswer {
		t.Fatalf("unexpected state %s", s.State())
	}

	head, _ := s.PeekFollowUp()
	if head != "F1" {
		t.Fatalf("expected F1 at head, got %q", head)
	}

	for _, want := range []string{"F1", "F2"} {
		got, err := s.PopFollowUp()
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}

	if s.State() != AwaitingMainAnswer {
		t.Fatalf("unexpected state %s", s.State())
	}
	if len(s.Questions()) != 1 {
		t.Fatalf("follow-ups must not become numbered questions")
	}
}

func TestRecordAnswerAdvancesCursor(t *testing.T) {
	fixedClock(t)
	s := newStarted(t, "Q1", "Q2")

	q, err := s.CurrentQuestion()
	if err != nil || q != "Q1" {
		t.Fatalf("expected Q1, got %q (%v)", q, err)
	}

	s.LogTurn(RoleAssistant, "Q1")
	s.LogTurn(RoleUser, "A1")
	if err := s.RecordAnswer("A1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	assertInvariants(t, s)

	if err := s.AddQuestion("Q3"); !errors.Is(err, ErrQuestionsFixed) {
		t.Fatalf("expected ErrQuestionsFixed, got %v", err)
	}
	if err := s.MarkCompleted(); !errors.Is(err, ErrNotFinished) {
		t.Fatalf("expected ErrNotFinished, got %v", err)
	}

	if err := s.RecordAnswer("A2"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.RecordAnswer("A3"); !errors.Is(err, ErrNoQuestion) {
		t.Fatalf("expected ErrNoQuestion, got %v", err)
	}
	if _, err := s.CurrentQuestion(); !errors.Is(err, ErrNoQuestion) {
		t.Fatalf("expected ErrNoQuestion, got %v", err)
	}

	if err := s.MarkCompleted(); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if err := s.MarkCompleted(); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
	if err := s.AddFollowUp("late"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
	if s.State() != Completed {
		t.Fatalf("unexpected state %s", s.State())
	}
	assertInvariants(t, s)
}

func TestMarkCompletedRequiresDrainedFollowUps(t *testing.T) {
	s := newStarted(t, "Q1")
	_ = s.RecordAnswer("A1")
	_ = s.AddFollowUp("F1")

	if err := s.MarkCompleted(); !errors.Is(err, ErrNotFinished) {
		t.Fatalf("expected ErrNotFinished, got %v", err)
	}
}

func TestSetDocumentsOnce(t *testing.T) {
	s := newStarted(t)
	if err := s.SetDocuments("other", "other"); !errors.Is(err, ErrDocumentsSet) {
		t.Fatalf("expected ErrDocumentsSet, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	fixedClock(t)

	empty := New("empty", time.Date(2024, 1, 2, 3, 4, 5, 6, time.FixedZone("X", 3600)))

	mid := newStarted(t, "Q1", "Q2", "Q3")
	mid.LogTurn(RoleAssistant, "Q1")
	mid.LogTurn(RoleUser, "A1")
	_ = mid.RecordAnswer("A1")
	mid.LogTurn(RoleAssistant, "Q2")
	mid.LogTurn(RoleUser, "partial")
	_ = mid.AddFollowUp("F1")
	_ = mid.AddFollowUp("F2")

	done := newStarted(t, "Q1")
	done.LogTurn(RoleAssistant, "Q1")
	done.LogTurn(RoleUser, "A1")
	_ = done.RecordAnswer("A1")
	_ = done.MarkCompleted()

	tests := []struct {
		name    string
		session *Session
	}{
		{name: "empty", session: empty},
		{name: "mid interview with follow-ups", session: mid},
		{name: "completed", session: done},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viaSnapshot, err := FromSnapshot(tt.session.Snapshot())
			if err != nil {
				t.Fatalf("from snapshot: %v", err)
			}
			if !reflect.DeepEqual(viaSnapshot, tt.session) {
				t.Fatalf("snapshot round trip mismatch:\nwant %+v\ngot  %+v", tt.session, viaSnapshot)
			}

			viaMap, err := FromMap(tt.session.ToMap())
			if err != nil {
				t.Fatalf("from map: %v", err)
			}
			if !reflect.DeepEqual(viaMap, tt.session) {
				t.Fatalf("map round trip mismatch:\nwant %+v\ngot  %+v", tt.session, viaMap)
			}
			assertInvariants(t, viaMap)
		})
	}
}

func TestFromMapAcceptsLooseTypes(t *testing.T) {
	doc := map[string]any{
		"_id":                    "ignored",
		"session_id":             "abc",
		"created_at":             "2024-03-01T12:00:00.123456",
		"resume_text":            "r",
		"job_post_text":          "j",
		"interview_questions":    []any{"Q1", "Q2"},
		"current_question_index": float64(1),
		"answers":                []any{"A1"},
		"follow_up_questions":    []any{"F1"},
		"is_completed":           false,
		"chat_history": []any{
			map[string]any{"role": "assistant", "content": "Q1", "timestamp": "2024-03-01T12:00:01Z"},
		},
	}

	s, err := FromMap(doc)
	if err != nil {
		t.Fatalf("from map: %v", err)
	}

	if s.CurrentIndex() != 1 || s.Questions()[1] != "Q2" {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.CreatedAt().Nanosecond() != 123456000 {
		t.Fatalf("unexpected created_at %v", s.CreatedAt())
	}
	if got := s.Transcript(); len(got) != 1 || got[0].Role != RoleAssistant {
		t.Fatalf("unexpected transcript %+v", got)
	}
}

func TestFromSnapshotRejectsBrokenInvariants(t *testing.T) {
	base := func() *Snapshot {
		return newStarted(t, "Q1", "Q2").Snapshot()
	}

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{name: "index beyond questions", mutate: func(s *Snapshot) {
			s.CurrentQuestionIndex = 3
			s.Answers = []string{"a", "b", "c"}
		}},
		{name: "negative index", mutate: func(s *Snapshot) { s.CurrentQuestionIndex = -1 }},
		{name: "answers mismatch", mutate: func(s *Snapshot) { s.Answers = []string{"a"} }},
		{name: "completed early", mutate: func(s *Snapshot) { s.IsCompleted = true }},
		{name: "bad timestamp", mutate: func(s *Snapshot) { s.CreatedAt = "yesterday" }},
		{name: "empty id", mutate: func(s *Snapshot) { s.SessionID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := base()
			tt.mutate(snap)
			if _, err := FromSnapshot(snap); !errors.Is(err, ErrInvalidSnapshot) {
				t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}
