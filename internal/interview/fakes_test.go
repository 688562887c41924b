package interview

import (
	"context"
	"errors"
	"sync"

	"github.com/spigell/interviewer/internal/evaluator"
	"github.com/spigell/interviewer/internal/questions"
	"github.com/spigell/interviewer/internal/session"
	"github.com/spigell/interviewer/internal/store"
)

type frame struct {
	audio []byte
	err   error
}

func audio(s string) frame { return frame{audio: []byte(s)} }

// fakeChannel replays scripted frames and reports closed once they run out.
type fakeChannel struct {
	mu      sync.Mutex
	frames  []frame
	sent    []Message
	sendErr error
}

func newFakeChannel(frames ...frame) *fakeChannel {
	return &fakeChannel{frames: frames}
}

func (c *fakeChannel) Send(_ context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeChannel) Receive(context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil, ErrChannelClosed
	}
	next := c.frames[0]
	c.frames = c.frames[1:]
	return next.audio, next.err
}

func (c *fakeChannel) messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}

// echoTranscriber returns the audio bytes as text, failing for queued errors first.
type echoTranscriber struct {
	errs []error
}

func (t *echoTranscriber) Transcribe(_ context.Context, audio []byte) (string, error) {
	if len(t.errs) > 0 {
		err := t.errs[0]
		t.errs = t.errs[1:]
		return "", err
	}
	return string(audio), nil
}

type evalCall struct {
	question, answer string
}

type scriptedEvaluator struct {
	verdicts map[string]evaluator.Result
	calls    []evalCall
}

func (e *scriptedEvaluator) Evaluate(_ context.Context, question, answer string) evaluator.Result {
	e.calls = append(e.calls, evalCall{question, answer})
	if v, ok := e.verdicts[answer]; ok {
		return v
	}
	return evaluator.Result{Satisfactory: true}
}

type flakyStore struct {
	*store.Memory
	mu      sync.Mutex
	err     error
	upserts int

	// beforeDelete runs inside Delete, before the record is removed.
	beforeDelete func()
}

func (f *flakyStore) Delete(ctx context.Context, id string) error {
	if f.beforeDelete != nil {
		f.beforeDelete()
	}
	return f.Memory.Delete(ctx, id)
}

func (f *flakyStore) Upsert(ctx context.Context, snap *session.Snapshot) error {
	f.mu.Lock()
	f.upserts++
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Memory.Upsert(ctx, snap)
}

type stubExtractor struct {
	err error
}

func (e stubExtractor) Extract(name string, data []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return name + ":" + string(data), nil
}

type stubQuestions struct {
	interview []string
	recruiter *questions.Set
	seen      []string
}

func (q *stubQuestions) Interview(_ context.Context, resume, jobPost string) []string {
	q.seen = []string{resume, jobPost}
	return q.interview
}

func (q *stubQuestions) Recruiter(_ context.Context, resume, jobPost string) *questions.Set {
	q.seen = []string{resume, jobPost}
	return q.recruiter
}

var errBoom = errors.New("boom")
