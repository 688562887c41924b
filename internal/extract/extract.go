// Package extract pulls plain text out of uploaded resumes and job posts.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

var pdfMagic = []byte("%PDF-")

// ExtractionError reports an unreadable or empty document.
type ExtractionError struct {
	Name   string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extract %q: %s", e.Name, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

type Extractor struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract returns the trimmed text of a PDF or UTF-8 text document.
func (e *Extractor) Extract(name string, data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", &ExtractionError{Name: name, Reason: "document is empty"}
	}

	var (
		text string
		err  error
	)

	switch {
	case bytes.HasPrefix(data, pdfMagic) || strings.EqualFold(filepath.Ext(name), ".pdf"):
		text, err = pdfText(data)
		if err != nil {
			return "", &ExtractionError{Name: name, Reason: "unreadable pdf", Err: err}
		}
	case utf8.Valid(data) && !bytes.ContainsRune(data, 0):
		text = string(data)
	default:
		return "", &ExtractionError{Name: name, Reason: "unsupported binary document"}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ExtractionError{Name: name, Reason: "no text found"}
	}

	e.logger.Debug("document extracted", zap.String("name", name), zap.Int("bytes", len(data)), zap.Int("text_length", utf8.RuneCountInString(text)))
	return text, nil
}

func pdfText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}
