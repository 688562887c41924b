package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu        sync.Mutex
	calls     []modelCall
	responses []fakeResponse
}

type modelCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, modelCall{model: model, contents: contents, config: config})
	if len(f.responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next.resp, next.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func noWait(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	original := waitFor
	waitFor = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	t.Cleanup(func() { waitFor = original })
	return &waits
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	waits := noWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	g := &Generator{models: models, model: "gemini-pro", maxRetries: 2, logger: zap.NewNop()}

	output, err := g.Complete(context.Background(), "system", "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}

	if len(*waits) != 1 || (*waits)[0] != baseRetryDelay {
		t.Fatalf("unexpected waits: %v", *waits)
	}

	for _, call := range models.calls {
		if call.config == nil || call.config.SystemInstruction == nil {
			t.Fatalf("expected system instruction to be set")
		}
		if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
			t.Fatalf("unexpected system instruction: %q", got)
		}
		if got := call.contents[0].Parts[0].Text; got != "message" {
			t.Fatalf("unexpected user message: %q", got)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	noWait(t)

	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	g := &Generator{models: models, model: "gemini-pro", maxRetries: 2, logger: zap.NewNop()}

	_, err := g.Complete(context.Background(), "sys", "msg")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected wrapped api error, got %v", err)
	}

	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	noWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	g := &Generator{models: models, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.Complete(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error when quota delay too long")
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorHonoursShortQuotaHint(t *testing.T) {
	waits := noWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusTooManyRequests, Message: "Please retry in 1.5s."})
	models.enqueue(textResponse("ok"), nil)

	g := &Generator{models: models, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.Complete(context.Background(), "", "msg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(*waits) != 1 || (*waits)[0] != 1500*time.Millisecond {
		t.Fatalf("unexpected waits: %v", *waits)
	}

	if models.calls[0].config != nil {
		t.Fatalf("expected no config without system prompt")
	}
}

func TestGeneratorDoesNotRetryPermanentErrors(t *testing.T) {
	noWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := &Generator{models: models, model: "gemini-pro", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.Complete(context.Background(), "", "msg"); err == nil {
		t.Fatal("expected error")
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorSkipsThoughtsAndRejectsEmptyReply(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "answer"},
			}},
		}},
	}, nil)
	models.enqueue(&genai.GenerateContentResponse{}, nil)

	g := &Generator{models: models, model: "m", maxRetries: 1, logger: zap.NewNop()}

	out, err := g.Complete(context.Background(), "", "msg")
	if err != nil || out != "answer" {
		t.Fatalf("expected answer, got %q (%v)", out, err)
	}

	if _, err := g.Complete(context.Background(), "", "msg"); err == nil {
		t.Fatal("expected error for empty reply")
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	g := &Generator{models: &fakeModels{}, model: "m", logger: zap.NewNop()}
	if _, err := g.Complete(context.Background(), "sys", "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestTranscriberSendsInlineAudio(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("  I have five years of Go.  "), nil)

	g := &Generator{models: models, model: "gemini-pro", maxRetries: 1, logger: zap.NewNop()}
	tr := g.Transcriber("gemini-flash", "audio/webm")

	audio := []byte{0x1a, 0x45, 0xdf, 0xa3, 0x00}
	text, err := tr.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "I have five years of Go." {
		t.Fatalf("unexpected transcript %q", text)
	}

	call := models.calls[0]
	if call.model != "gemini-flash" {
		t.Fatalf("unexpected model %q", call.model)
	}
	blob := call.contents[0].Parts[1].InlineData
	if blob == nil || string(blob.Data) != string(audio) {
		t.Fatalf("expected inline audio data")
	}
	if blob.MIMEType != "audio/webm" {
		t.Fatalf("unexpected mime type %q", blob.MIMEType)
	}
}

func TestTranscriberDefaultsToGeneratorModel(t *testing.T) {
	g := &Generator{models: &fakeModels{}, model: "gemini-pro", logger: zap.NewNop()}
	if got := g.Transcriber("", "").Model(); got != "gemini-pro" {
		t.Fatalf("unexpected model %q", got)
	}
}
