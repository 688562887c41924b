package extract

import (
	"errors"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	t.Parallel()

	got, err := New(nil).Extract("job.txt", []byte("\n  Senior Go engineer wanted.  \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Senior Go engineer wanted." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fileName string
		data     []byte
		reason   string
	}{
		{name: "empty", fileName: "resume.pdf", data: nil, reason: "document is empty"},
		{name: "whitespace only", fileName: "resume.txt", data: []byte(" \n\t "), reason: "document is empty"},
		{name: "broken pdf", fileName: "resume.pdf", data: []byte("%PDF-1.4\nnot really a pdf"), reason: "unreadable pdf"},
		{name: "pdf extension with text body", fileName: "resume.pdf", data: []byte("plain words"), reason: "unreadable pdf"},
		{name: "binary", fileName: "resume.bin", data: []byte{0x00, 0xff, 0xfe, 0x01}, reason: "unsupported binary document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(nil).Extract(tt.fileName, tt.data)
			var extractErr *ExtractionError
			if !errors.As(err, &extractErr) {
				t.Fatalf("expected ExtractionError, got %v", err)
			}
			if extractErr.Reason != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, extractErr.Reason)
			}
			if extractErr.Name != tt.fileName {
				t.Fatalf("expected name %q, got %q", tt.fileName, extractErr.Name)
			}
		})
	}
}
