package session

import "errors"

var (
	// ErrEmptyQueue is returned when a follow-up is requested from an empty queue.
	ErrEmptyQueue = errors.New("follow-up queue is empty")
	// ErrNoQuestion is returned when the cursor is past the last question.
	ErrNoQuestion = errors.New("no question at the current position")
	// ErrQuestionsFixed is returned when questions are added after the interview started.
	ErrQuestionsFixed = errors.New("questions are fixed once the interview has started")
	// ErrDocumentsSet is returned when source documents are set twice.
	ErrDocumentsSet = errors.New("source documents are already set")
	// ErrNotFinished is returned when completion is requested too early.
	ErrNotFinished = errors.New("interview is not finished")
	// ErrAlreadyCompleted is returned for mutations of a completed interview.
	ErrAlreadyCompleted = errors.New("interview is already completed")
	// ErrInvalidSnapshot is returned when a snapshot violates session invariants.
	ErrInvalidSnapshot = errors.New("invalid session snapshot")
)
