package session

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Snapshot is the flat persisted layout of a session.
type Snapshot struct {
	SessionID            string      `json:"session_id" bson:"session_id" msgpack:"session_id" mapstructure:"session_id"`
	CreatedAt            string      `json:"created_at" bson:"created_at" msgpack:"created_at" mapstructure:"created_at"`
	ResumeText           string      `json:"resume_text" bson:"resume_text" msgpack:"resume_text" mapstructure:"resume_text"`
	JobPostText          string      `json:"job_post_text" bson:"job_post_text" msgpack:"job_post_text" mapstructure:"job_post_text"`
	InterviewQuestions   []string    `json:"interview_questions" bson:"interview_questions" msgpack:"interview_questions" mapstructure:"interview_questions"`
	CurrentQuestionIndex int         `json:"current_question_index" bson:"current_question_index" msgpack:"current_question_index" mapstructure:"current_question_index"`
	Answers              []string    `json:"answers" bson:"answers" msgpack:"answers" mapstructure:"answers"`
	FollowUpQuestions    []string    `json:"follow_up_questions" bson:"follow_up_questions" msgpack:"follow_up_questions" mapstructure:"follow_up_questions"`
	IsCompleted          bool        `json:"is_completed" bson:"is_completed" msgpack:"is_completed" mapstructure:"is_completed"`
	ChatHistory          []ChatEntry `json:"chat_history" bson:"chat_history" msgpack:"chat_history" mapstructure:"chat_history"`
}

type ChatEntry struct {
	Role      string `json:"role" bson:"role" msgpack:"role" mapstructure:"role"`
	Content   string `json:"content" bson:"content" msgpack:"content" mapstructure:"content"`
	Timestamp string `json:"timestamp" bson:"timestamp" msgpack:"timestamp" mapstructure:"timestamp"`
}

// timeLayouts are tried in order when parsing persisted timestamps. The last
// one accepts naive ISO-8601 values written without a zone.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// Snapshot returns a detached copy of the session in its persisted layout.
func (s *Session) Snapshot() *Snapshot {
	history := make([]ChatEntry, 0, len(s.transcript))
	for _, entry := range s.transcript {
		history = append(history, ChatEntry{
			Role:      entry.Role,
			Content:   entry.Content,
			Timestamp: formatTime(entry.Timestamp),
		})
	}

	return &Snapshot{
		SessionID:            s.id,
		CreatedAt:            formatTime(s.createdAt),
		ResumeText:           s.resumeText,
		JobPostText:          s.jobPostText,
		InterviewQuestions:   append([]string{}, s.questions...),
		CurrentQuestionIndex: s.currentIndex,
		Answers:              append([]string{}, s.answers...),
		FollowUpQuestions:    append([]string{}, s.followUps...),
		IsCompleted:          s.completed,
		ChatHistory:          history,
	}
}

// FromSnapshot rebuilds a session and rejects snapshots that violate the session invariants.
func FromSnapshot(snap *Snapshot) (*Session, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}

	createdAt, err := parseTime(snap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", ErrInvalidSnapshot, err)
	}

	transcript := make([]TranscriptEntry, 0, len(snap.ChatHistory))
	for i, entry := range snap.ChatHistory {
		ts, err := parseTime(entry.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: chat_history[%d].timestamp: %v", ErrInvalidSnapshot, i, err)
		}
		transcript = append(transcript, TranscriptEntry{
			Role:      entry.Role,
			Content:   entry.Content,
			Timestamp: ts,
		})
	}

	s := &Session{
		id:           snap.SessionID,
		createdAt:    createdAt,
		resumeText:   snap.ResumeText,
		jobPostText:  snap.JobPostText,
		questions:    append([]string{}, snap.InterviewQuestions...),
		currentIndex: snap.CurrentQuestionIndex,
		answers:      append([]string{}, snap.Answers...),
		followUps:    append([]string{}, snap.FollowUpQuestions...),
		transcript:   transcript,
		completed:    snap.IsCompleted,
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// ToMap renders the snapshot as a flat key-value document.
func (snap *Snapshot) ToMap() map[string]any {
	history := make([]map[string]any, 0, len(snap.ChatHistory))
	for _, entry := range snap.ChatHistory {
		history = append(history, map[string]any{
			"role":      entry.Role,
			"content":   entry.Content,
			"timestamp": entry.Timestamp,
		})
	}

	return map[string]any{
		"session_id":             snap.SessionID,
		"created_at":             snap.CreatedAt,
		"resume_text":            snap.ResumeText,
		"job_post_text":          snap.JobPostText,
		"interview_questions":    append([]string{}, snap.InterviewQuestions...),
		"current_question_index": snap.CurrentQuestionIndex,
		"answers":                append([]string{}, snap.Answers...),
		"follow_up_questions":    append([]string{}, snap.FollowUpQuestions...),
		"is_completed":           snap.IsCompleted,
		"chat_history":           history,
	}
}

// SnapshotFromMap decodes a flat document. Unknown keys (such as a database _id) are ignored.
func SnapshotFromMap(doc map[string]any) (*Snapshot, error) {
	var snap Snapshot
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           &snap,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	return &snap, nil
}

func (s *Session) ToMap() map[string]any {
	return s.Snapshot().ToMap()
}

// FromMap rebuilds a session from its flat key-value document.
func FromMap(doc map[string]any) (*Session, error) {
	snap, err := SnapshotFromMap(doc)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(snap)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return normalizeTime(t), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
