package interview

import (
	"context"
	"errors"
)

// Kinds of server messages.
const (
	TypeQuestion = "question"
	TypeFollowUp = "follow_up"
	TypeComplete = "complete"
	TypeError    = "error"
)

// Statuses attached to server messages.
const (
	StatusIncomplete = "incomplete"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

const (
	MessageStarted   = "Interview session started"
	MessageCompleted = "Interview completed successfully"
	MessageTurnError = "Error processing your answer. Please try again."
	MessageNotFound  = "Session not found"
	MessageBusy      = "Session already has an active connection"
)

var (
	// ErrChannelClosed means the peer went away. It ends the turn loop.
	ErrChannelClosed = errors.New("channel closed")
	// ErrUnexpectedFrame is returned by Receive for a frame that is not a
	// binary audio payload. The channel stays usable.
	ErrUnexpectedFrame = errors.New("expected a binary audio frame")
)

// Message is a server to client frame.
type Message struct {
	Type     string `json:"type"`
	Question string `json:"question,omitempty"`
	Message  string `json:"message,omitempty"`
	Status   string `json:"status"`
}

// Channel is the duplex connection of one interview session. Send and
// Receive are never called concurrently. Implementations report a broken
// connection with an error wrapping ErrChannelClosed.
type Channel interface {
	Send(ctx context.Context, msg Message) error
	Receive(ctx context.Context) ([]byte, error)
}
