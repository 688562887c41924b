// Package server exposes the interview service over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/questions"
	"github.com/spigell/interviewer/internal/session"
)

const (
	defaultListen        = ":8000"
	defaultMaxUploadSize = 20 << 20
	shutdownTimeout      = 10 * time.Second
)

// Interviews is the service behind the HTTP API.
type Interviews interface {
	Start(ctx context.Context, resume, jobPost interview.Upload) (*interview.StartResult, error)
	RecruiterQuestions(ctx context.Context, resume, jobPost interview.Upload) (*questions.Set, error)
	Conduct(ctx context.Context, id string, ch interview.Channel) error
	Snapshot(ctx context.Context, id string) (*session.Snapshot, error)
	Delete(ctx context.Context, id string) error
	Document(ctx context.Context, id, kind string) ([]byte, error)
}

type Config struct {
	Listen         string        `mapstructure:"listen"`
	AnswerTimeout  time.Duration `mapstructure:"answer-timeout"`
	MaxUploadSize  int64         `mapstructure:"max-upload-size"`
	AllowedOrigins []string      `mapstructure:"allowed-origins"`
}

type Server struct {
	cfg      Config
	svc      Interviews
	logger   *zap.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

func New(cfg Config, svc Interviews, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUploadSize
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  32 << 10,
		WriteBufferSize: 4 << 10,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(s.cfg.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("POST /start_interview", s.handleStartInterview)
	s.mux.HandleFunc("POST /generate_questions", s.handleGenerateQuestions)
	s.mux.HandleFunc("GET /ws/{session_id}", s.handleWebSocket)
	s.mux.HandleFunc("GET /sessions/{session_id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /sessions/{session_id}", s.handleDeleteSession)
	s.mux.HandleFunc("GET /sessions/{session_id}/documents/{kind}", s.handleGetDocument)
}

// Handler returns the routes wrapped with CORS and access logging.
func (s *Server) Handler() http.Handler {
	return s.withLogging(s.withCORS(s.mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully. Open
// WebSocket sessions see the cancellation through their request context.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
