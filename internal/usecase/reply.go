package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"frontdesk/internal/domain"
)

const (
	defaultGenerationTimeout = 10 * time.Second
	historyWindow            = 10
)

// TextGenerator is the language-model capability used to draft replies.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// HistoryStore is the per-sender conversation state.
type HistoryStore interface {
	Append(sender string, role domain.Role, text string)
	RecentHistory(sender string, limit int) []domain.Turn
	Len(sender string) int
}

// ReplyGenerator drafts SMS replies from a sender's recent conversation.
type ReplyGenerator struct {
	llm     TextGenerator
	store   HistoryStore
	timeout time.Duration
	logger  *slog.Logger
}

// NewReplyGenerator returns a generator bounding each model call by timeout.
// A non-positive timeout selects a 10s default.
func NewReplyGenerator(llm TextGenerator, store HistoryStore, timeout time.Duration, logger *slog.Logger) (*ReplyGenerator, error) {
	if llm == nil {
		return nil, errors.New("usecase: text generator must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: history store must not be nil")
	}
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplyGenerator{llm: llm, store: store, timeout: timeout, logger: logger}, nil
}

// Generate records incoming as a customer turn and returns a reply of at most 160
// characters. On failure it returns a *Error and records no agent turn.
func (g *ReplyGenerator) Generate(ctx context.Context, sender, incoming string) (string, error) {
	g.store.Append(sender, domain.RoleCustomer, incoming)
	prompt := buildPrompt(g.store.RecentHistory(sender, historyWindow))

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.call(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", newError(ErrorUpstreamTimeout, "generation_timeout", err)
		}
		return "", newError(ErrorUpstream, "generation_error", err)
	}

	reply := truncateReply(strings.TrimSpace(raw))
	if reply == "" {
		return "", newError(ErrorMalformedResponse, "empty_reply", nil)
	}
	g.store.Append(sender, domain.RoleAgent, reply)
	g.logger.Info("reply generated", "sender", sender, "reply", reply, "turns", g.store.Len(sender))
	return reply, nil
}

type generation struct {
	text string
	err  error
}

// call runs the model request so that the deadline holds even when the
// generator ignores ctx. Panics become errors.
func (g *ReplyGenerator) call(ctx context.Context, prompt string) (string, error) {
	done := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generation{err: fmt.Errorf("usecase: text generator panicked: %v", r)}
			}
		}()
		text, err := g.llm.GenerateText(ctx, prompt)
		done <- generation{text: text, err: err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
