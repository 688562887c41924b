// Package archive keeps the raw documents uploaded for each interview so
// they can be inspected or removed later.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
)

// Document kinds stored per session.
const (
	KindResume  = "resume"
	KindJobPost = "job_post"
)

// ErrNotFound is returned when an archived document does not exist.
var ErrNotFound = os.ErrNotExist

// FileStore is the object storage contract behind an Archive. Keys are
// forward-slash separated. Delete of a missing key is not an error.
type FileStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Document is one uploaded file.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Archive stores the documents of a session under "<session_id>/<kind>".
// A nil store disables archiving and turns every call into a no-op.
type Archive struct {
	store  FileStore
	logger *zap.Logger
}

func New(store FileStore, logger *zap.Logger) *Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{store: store, logger: logger}
}

// Enabled reports whether documents are actually persisted.
func (a *Archive) Enabled() bool { return a != nil && a.store != nil }

// Save stores the resume and job post of a session. On failure anything
// already written for the session is removed again.
func (a *Archive) Save(ctx context.Context, sessionID string, resume, jobPost Document) error {
	if !a.Enabled() {
		return nil
	}

	docs := []struct {
		kind string
		doc  Document
	}{
		{KindResume, resume},
		{KindJobPost, jobPost},
	}

	for _, d := range docs {
		key, err := Key(sessionID, d.kind)
		if err != nil {
			return err
		}

		if err := a.store.Put(ctx, key, d.doc.Data, contentType(d.doc)); err != nil {
			if cleanupErr := a.Delete(ctx, sessionID); cleanupErr != nil {
				a.logger.Warn("archive cleanup failed", zap.String("session_id", sessionID), zap.Error(cleanupErr))
			}
			return fmt.Errorf("archive %s: %w", d.kind, err)
		}

		a.logger.Debug("document archived",
			zap.String("session_id", sessionID),
			zap.String("kind", d.kind),
			zap.String("file_name", d.doc.Name),
			zap.Int("bytes", len(d.doc.Data)),
		)
	}

	return nil
}

// Load returns one archived document of a session.
func (a *Archive) Load(ctx context.Context, sessionID, kind string) ([]byte, error) {
	if !a.Enabled() {
		return nil, ErrNotFound
	}
	key, err := Key(sessionID, kind)
	if err != nil {
		return nil, err
	}
	return a.store.Get(ctx, key)
}

// Delete removes every archived document of a session.
func (a *Archive) Delete(ctx context.Context, sessionID string) error {
	if !a.Enabled() {
		return nil
	}

	var errs []error
	for _, kind := range []string{KindResume, KindJobPost} {
		key, err := Key(sessionID, kind)
		if err != nil {
			return err
		}
		if err := a.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", kind, err))
		}
	}

	return errors.Join(errs...)
}

// Key builds the storage key for a session document and rejects ids or
// kinds that would escape the session directory.
func Key(sessionID, kind string) (string, error) {
	if kind != KindResume && kind != KindJobPost {
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return path.Join(sessionID, kind), nil
}

func contentType(doc Document) string {
	if doc.ContentType != "" {
		return doc.ContentType
	}
	if strings.EqualFold(path.Ext(doc.Name), ".pdf") {
		return "application/pdf"
	}
	return "application/octet-stream"
}
