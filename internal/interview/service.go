package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/archive"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/questions"
	"github.com/spigell/interviewer/internal/session"
	"github.com/spigell/interviewer/internal/store"
)

var (
	// ErrSessionNotFound is returned for operations on an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDocumentNotFound is returned when a session has no archived upload of the requested kind.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUnknownDocument is returned for a document kind other than resume or job post.
	ErrUnknownDocument = errors.New("unknown document kind")
)

type Extractor interface {
	Extract(name string, data []byte) (string, error)
}

type QuestionGenerator interface {
	Interview(ctx context.Context, resume, jobPost string) []string
	Recruiter(ctx context.Context, resume, jobPost string) *questions.Set
}

// Upload is one document received from a client.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (u Upload) document() archive.Document {
	return archive.Document{Name: u.Name, ContentType: u.ContentType, Data: u.Data}
}

// StartResult is returned to the caller that started an interview.
type StartResult struct {
	SessionID     string `json:"session_id"`
	Message       string `json:"message"`
	FirstQuestion string `json:"first_question"`
}

type Deps struct {
	Extractor    Extractor
	Archive      *archive.Archive
	Questions    QuestionGenerator
	Store        store.Store
	Registry     *Registry
	Orchestrator *Orchestrator
	Logger       *zap.Logger
}

// Service implements the interview entry operations on top of the collaborators.
type Service struct {
	extractor    Extractor
	archive      *archive.Archive
	questions    QuestionGenerator
	store        store.Store
	registry     *Registry
	orchestrator *Orchestrator
	logger       *zap.Logger

	newID func() string
	now   func() time.Time
}

func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	if deps.Archive == nil {
		deps.Archive = archive.New(nil, deps.Logger)
	}

	return &Service{
		extractor:    deps.Extractor,
		archive:      deps.Archive,
		questions:    deps.Questions,
		store:        deps.Store,
		registry:     deps.Registry,
		orchestrator: deps.Orchestrator,
		logger:       deps.Logger,
		newID:        func() string { return uuid.NewString() },
		now:          time.Now,
	}
}

// Start extracts both documents, generates the questions and persists a
// new session. A failed start leaves neither a stored session nor archived uploads.
func (s *Service) Start(ctx context.Context, resume, jobPost Upload) (*StartResult, error) {
	id := s.newID()
	log := logger.WithSession(s.logger, id)
	log.Info("starting interview session")

	resumeText, jobPostText, err := s.extractBoth(resume, jobPost)
	if err != nil {
		return nil, err
	}

	if err := s.archive.Save(ctx, id, resume.document(), jobPost.document()); err != nil {
		return nil, fmt.Errorf("archive uploads: %w", err)
	}

	sess := session.New(id, s.now())
	if err := sess.SetDocuments(resumeText, jobPostText); err != nil {
		s.discard(ctx, id, log)
		return nil, err
	}

	for _, q := range s.questions.Interview(ctx, resumeText, jobPostText) {
		if err := sess.AddQuestion(q); err != nil {
			s.discard(ctx, id, log)
			return nil, err
		}
	}

	first, err := sess.CurrentQuestion()
	if err != nil {
		s.discard(ctx, id, log)
		return nil, fmt.Errorf("no questions generated: %w", err)
	}

	if err := s.store.Upsert(ctx, sess.Snapshot()); err != nil {
		s.discard(ctx, id, log)
		return nil, fmt.Errorf("save session: %w", err)
	}

	log.Info("interview session started", zap.Int("questions", len(sess.Questions())))

	return &StartResult{
		SessionID:     id,
		Message:       MessageStarted,
		FirstQuestion: first,
	}, nil
}

// RecruiterQuestions returns clarification questions for recruiters. Nothing is persisted.
func (s *Service) RecruiterQuestions(ctx context.Context, resume, jobPost Upload) (*questions.Set, error) {
	resumeText, jobPostText, err := s.extractBoth(resume, jobPost)
	if err != nil {
		return nil, err
	}
	return s.questions.Recruiter(ctx, resumeText, jobPostText), nil
}

// Conduct claims the session for one connection and runs the turn loop until
// it ends. Unknown and busy sessions are reported to the peer before returning.
func (s *Service) Conduct(ctx context.Context, id string, ch Channel) error {
	log := logger.WithSession(s.logger, id)

	release, err := s.registry.Acquire(id)
	if err != nil {
		log.Warn("rejecting second connection")
		_ = ch.Send(ctx, Message{Type: TypeError, Message: MessageBusy, Status: StatusError})
		return err
	}
	defer release()

	sess, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			log.Warn("session not found")
			_ = ch.Send(ctx, Message{Type: TypeError, Message: MessageNotFound, Status: StatusError})
		}
		return err
	}

	log.Info("connection established", zap.String("state", sess.State().String()), zap.Int("active_sessions", s.registry.Len()))
	return s.orchestrator.Run(ctx, sess, ch)
}

// Snapshot returns the persisted state of a session.
func (s *Service) Snapshot(ctx context.Context, id string) (*session.Snapshot, error) {
	snap, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return snap, err
}

// Delete removes a session and its archived uploads. Sessions with a live
// connection cannot be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	release, err := s.registry.Acquire(id)
	if err != nil {
		return err
	}
	defer release()

	err = s.store.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	if err := s.archive.Delete(ctx, id); err != nil {
		logger.WithSession(s.logger, id).Warn("delete archived uploads failed", zap.Error(err))
	}
	logger.WithSession(s.logger, id).Info("session deleted")
	return nil
}

// Document returns one archived upload of an existing session.
func (s *Service) Document(ctx context.Context, id, kind string) ([]byte, error) {
	if kind != archive.KindResume && kind != archive.KindJobPost {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocument, kind)
	}
	if _, err := s.Snapshot(ctx, id); err != nil {
		return nil, err
	}

	data, err := s.archive.Load(ctx, id, kind)
	if errors.Is(err, archive.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", kind, err)
	}
	return data, nil
}

func (s *Service) load(ctx context.Context, id string) (*session.Session, error) {
	snap, err := s.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.FromSnapshot(snap)
}

func (s *Service) extractBoth(resume, jobPost Upload) (string, string, error) {
	resumeText, err := s.extractor.Extract(resume.Name, resume.Data)
	if err != nil {
		return "", "", err
	}
	jobPostText, err := s.extractor.Extract(jobPost.Name, jobPost.Data)
	if err != nil {
		return "", "", err
	}
	return resumeText, jobPostText, nil
}

func (s *Service) discard(ctx context.Context, id string, log *zap.Logger) {
	if err := s.archive.Delete(ctx, id); err != nil {
		log.Warn("discard archived uploads failed", zap.Error(err))
	}
}
