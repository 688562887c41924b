package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/extract"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"
)

const welcomeMessage = "Welcome to AI Interview Agent!"

var errMissingUploads = errors.New("two files are required: a resume and a job post")

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	resume, jobPost, err := s.readUploads(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.svc.Start(r.Context(), resume, jobPost)
	if err != nil {
		s.logger.Error("start interview failed", zap.Error(err))
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	resume, jobPost, err := s.readUploads(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	set, err := s.svc.RecruiterQuestions(r.Context(), resume, jobPost)
	if err != nil {
		s.logger.Error("generate recruiter questions failed", zap.Error(err))
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context(), r.PathValue("session_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("session_id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetDocument serves an archived upload as it was received.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.Document(r.Context(), r.PathValue("session_id"), r.PathValue("kind"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	log := logger.WithSession(s.logger, id)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := newWSChannel(conn, s.cfg.AnswerTimeout, s.cfg.MaxUploadSize)
	defer ch.Close()

	log.Info("websocket connected", zap.String("remote", r.RemoteAddr))

	err = s.svc.Conduct(r.Context(), id, ch)
	switch {
	case err == nil:
		log.Info("websocket session finished")
	case errors.Is(err, interview.ErrChannelClosed):
		log.Info("websocket disconnected")
	default:
		log.Warn("websocket session ended with error", zap.Error(err))
	}
}

// readUploads accepts either a "files" field carrying the resume then the
// job post, or separate "resume" and "job_post" fields.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) (interview.Upload, interview.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadSize); err != nil {
		return interview.Upload{}, interview.Upload{}, badRequest(fmt.Errorf("parse multipart form: %w", err))
	}

	form := r.MultipartForm
	var resumeHeader, jobHeader *multipart.FileHeader
	if files := form.File["files"]; len(files) >= 2 {
		resumeHeader, jobHeader = files[0], files[1]
	} else {
		resumeHeader = firstFile(form, "resume")
		jobHeader = firstFile(form, "job_post")
	}
	if resumeHeader == nil || jobHeader == nil {
		return interview.Upload{}, interview.Upload{}, badRequest(errMissingUploads)
	}

	resume, err := readUpload(resumeHeader)
	if err != nil {
		return interview.Upload{}, interview.Upload{}, badRequest(err)
	}
	jobPost, err := readUpload(jobHeader)
	if err != nil {
		return interview.Upload{}, interview.Upload{}, badRequest(err)
	}
	return resume, jobPost, nil
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if files := form.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}

func readUpload(h *multipart.FileHeader) (interview.Upload, error) {
	f, err := h.Open()
	if err != nil {
		return interview.Upload{}, fmt.Errorf("open %s: %w", h.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return interview.Upload{}, fmt.Errorf("read %s: %w", h.Filename, err)
	}

	return interview.Upload{
		Name:        h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

func statusFor(err error) int {
	var (
		reqErr     *requestError
		extractErr *extract.ExtractionError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &extractErr), errors.Is(err, interview.ErrUnknownDocument):
		return http.StatusBadRequest
	case errors.Is(err, interview.ErrSessionNotFound), errors.Is(err, interview.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, interview.ErrSessionBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
