package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"frontdesk/internal/domain"
)

type mockLLM struct {
	mu       sync.Mutex
	answer   string
	err      error
	panicMsg string
	block    bool
	prompts  []string
}

func (m *mockLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.answer, m.err
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

type sentMessage struct {
	from, to, body string
}

type fakeMessenger struct {
	mu       sync.Mutex
	err      error
	panicMsg string
	delay    time.Duration
	sent     []sentMessage
}

func (f *fakeMessenger) SendMessage(_ context.Context, from, to, body string) (string, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMessage{from: from, to: to, body: body})
	return fmt.Sprintf("SM%d", len(f.sent)), nil
}

func (f *fakeMessenger) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeLog struct {
	mu   sync.Mutex
	err  error
	recs []domain.Interaction
}

func (f *fakeLog) Append(_ context.Context, rec domain.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return f.err
}

func (f *fakeLog) records() []domain.Interaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Interaction(nil), f.recs...)
}

type stubReplier struct {
	reply    string
	err      error
	panicMsg string
}

func (s *stubReplier) Generate(_ context.Context, _, _ string) (string, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.reply, s.err
}

var errBoom = errors.New("boom")
