package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/evaluator"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/session"
	"github.com/spigell/interviewer/internal/store"
	"github.com/spigell/interviewer/internal/utils"
)

// elaborationPrompt is queued when an answer is rejected without a follow-up.
const elaborationPrompt = "Could you elaborate on your previous answer with more technical detail?"

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string) evaluator.Result
}

// Orchestrator drives the turn loop of one session over one channel.
type Orchestrator struct {
	store       store.Store
	transcriber Transcriber
	evaluator   Evaluator
	logger      *zap.Logger
	maxLogLen   int
}

func NewOrchestrator(st store.Store, transcriber Transcriber, ev Evaluator, log *zap.Logger, maxLogLen int) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	if maxLogLen <= 0 {
		maxLogLen = 200
	}
	return &Orchestrator{
		store:       st,
		transcriber: transcriber,
		evaluator:   ev,
		logger:      log,
		maxLogLen:   maxLogLen,
	}
}

// Run asks questions until the session completes, the channel closes or
// ctx is cancelled. Failed turns are reported to the peer as error messages
// and retried with the same prompt; they never change session state.
func (o *Orchestrator) Run(ctx context.Context, s *session.Session, ch Channel) error {
	log := logger.WithSession(o.logger, s.ID())

	if s.Completed() {
		log.Info("session already completed")
		return o.sendComplete(ctx, ch)
	}

	if s.Finished() {
		return o.complete(ctx, s, ch, log)
	}

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrChannelClosed, err)
		}

		err := o.turn(ctx, s, ch, log)
		switch {
		case err == nil:
		case errors.Is(err, ErrChannelClosed):
			log.Info("channel closed, leaving turn loop", zap.Error(err))
			return err
		case errors.Is(err, session.ErrNoQuestion), errors.Is(err, session.ErrEmptyQueue):
			return fmt.Errorf("session %s in inconsistent state: %w", s.ID(), err)
		default:
			log.Error("turn failed", zap.Error(err), zap.String("state", s.State().String()))
			sendErr := ch.Send(ctx, Message{Type: TypeError, Message: MessageTurnError, Status: StatusError})
			if sendErr != nil {
				return sendErr
			}
			continue
		}

		if s.Finished() {
			return o.complete(ctx, s, ch, log)
		}
	}
}

// turn asks the head follow-up or the current question and applies the
// verdict. Session state only changes after the answer was transcribed.
func (o *Orchestrator) turn(ctx context.Context, s *session.Session, ch Channel, log *zap.Logger) error {
	followUp := s.HasFollowUps()

	var (
		prompt  string
		msgType string
		err     error
	)
	if followUp {
		prompt, err = s.PeekFollowUp()
		msgType = TypeFollowUp
	} else {
		prompt, err = s.CurrentQuestion()
		msgType = TypeQuestion
	}
	if err != nil {
		return err
	}

	if err := ch.Send(ctx, Message{Type: msgType, Question: prompt, Status: StatusIncomplete}); err != nil {
		return err
	}
	log.Info("prompt sent", zap.String("type", msgType), zap.Int("question_index", s.CurrentIndex()))

	audio, err := ch.Receive(ctx)
	if err != nil {
		return err
	}
	log.Debug("answer received", zap.Int("audio_bytes", len(audio)))

	answer, err := o.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return fmt.Errorf("transcribe answer: %w", err)
	}
	log.Debug("answer transcribed", zap.String("answer_preview", utils.TruncateForLog(answer, o.maxLogLen)))

	verdict := o.evaluator.Evaluate(ctx, prompt, answer)

	s.LogTurn(session.RoleAssistant, prompt)
	s.LogTurn(session.RoleUser, answer)

	if followUp {
		if _, err := s.PopFollowUp(); err != nil {
			return err
		}
	}

	switch {
	case !verdict.Satisfactory:
		next := strings.TrimSpace(verdict.FollowUp)
		if next == "" {
			next = elaborationPrompt
		}
		if err := s.AddFollowUp(next); err != nil {
			return err
		}
		log.Info("answer needs a follow-up", zap.String("follow_up", utils.TruncateForLog(next, o.maxLogLen)))
	case !s.HasFollowUps() && s.CurrentIndex() < len(s.Questions()):
		if err := s.RecordAnswer(answer); err != nil {
			return err
		}
		log.Info("answer accepted", zap.Int("question_index", s.CurrentIndex()))
	default:
		log.Info("follow-up answered", zap.Int("pending_follow_ups", len(s.PendingFollowUps())))
	}

	if !s.Finished() {
		o.persist(ctx, s, log)
	}
	return nil
}

func (o *Orchestrator) complete(ctx context.Context, s *session.Session, ch Channel, log *zap.Logger) error {
	if err := s.MarkCompleted(); err != nil {
		return err
	}
	o.persist(ctx, s, log)
	log.Info("interview completed", zap.Int("answers", len(s.Answers())))
	return o.sendComplete(ctx, ch)
}

func (o *Orchestrator) sendComplete(ctx context.Context, ch Channel) error {
	return ch.Send(ctx, Message{Type: TypeComplete, Message: MessageCompleted, Status: StatusCompleted})
}

// persist keeps the loop going on store failures; the in-memory session stays authoritative.
func (o *Orchestrator) persist(ctx context.Context, s *session.Session, log *zap.Logger) {
	if o.store == nil {
		return
	}
	if err := o.store.Upsert(ctx, s.Snapshot()); err != nil {
		log.Error("persist session failed", zap.Error(err))
	}
}
