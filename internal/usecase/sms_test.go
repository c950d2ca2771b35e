package usecase

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"frontdesk/internal/conversation"
	"frontdesk/internal/domain"
	"frontdesk/internal/twiml"
)

func newTestSMSRouter(t *testing.T, replier Replier, sink InteractionLog, m Messenger, monitor string) *SMSRouter {
	t.Helper()
	r, err := NewSMSRouter(replier, sink, m, "+1000", monitor, discardLogger())
	require.NoError(t, err)
	return r
}

func TestNewSMSRouter_ValidatesDependencies(t *testing.T) {
	_, err := NewSMSRouter(nil, &fakeLog{}, nil, "+1000", "", nil)
	require.Error(t, err)
	_, err = NewSMSRouter(&stubReplier{}, nil, nil, "+1000", "", nil)
	require.Error(t, err)
	_, err = NewSMSRouter(&stubReplier{}, &fakeLog{}, nil, "+1000", "+1777", nil)
	require.Error(t, err)

	_, err = NewSMSRouter(&stubReplier{}, &fakeLog{}, nil, "+1000", "", nil)
	require.NoError(t, err)
}

// First text from a new sender: bounded reply, one log row, two turns of history.
func TestOnIncomingSMS_FirstMessage(t *testing.T) {
	setClock(t, t0)
	store := conversation.NewStore()
	gen := newTestGenerator(t, &mockLLM{answer: strings.Repeat("Thanks for reaching out! ", 20)}, store, time.Second)
	sink := &fakeLog{}
	r := newTestSMSRouter(t, gen, sink, nil, "")

	doc := r.OnIncomingSMS(context.Background(), "+1555", "Hi, my roof is leaking")

	msgs := doc.Messages()
	require.Len(t, msgs, 1)
	require.LessOrEqual(t, utf8.RuneCountInString(msgs[0]), 160)
	require.Equal(t, []domain.Interaction{{
		Timestamp: t0,
		Sender:    "+1555",
		Incoming:  "Hi, my roof is leaking",
		Reply:     msgs[0],
	}}, sink.records())
	require.Equal(t, 2, store.Len("+1555"))
}

func TestOnIncomingSMS_GenerationFailureUsesFallback(t *testing.T) {
	setClock(t, t0)
	store := conversation.NewStore()
	gen := newTestGenerator(t, &mockLLM{err: errBoom}, store, time.Second)
	sink := &fakeLog{}
	r := newTestSMSRouter(t, gen, sink, nil, "")

	doc := r.OnIncomingSMS(context.Background(), "+1555", "hello")

	require.Equal(t, twiml.New(twiml.Message{Body: FallbackReply}), doc)
	recs := sink.records()
	require.Len(t, recs, 1)
	require.Equal(t, FallbackReply, recs[0].Reply)
	require.Equal(t, 1, store.Len("+1555"))
}

func TestOnIncomingSMS_TrimsInput(t *testing.T) {
	setClock(t, t0)
	sink := &fakeLog{}
	r := newTestSMSRouter(t, &stubReplier{reply: "hi"}, sink, nil, "")

	r.OnIncomingSMS(context.Background(), " +1555 ", "  hello \n")
	recs := sink.records()
	require.Equal(t, "+1555", recs[0].Sender)
	require.Equal(t, "hello", recs[0].Incoming)
}

func TestOnIncomingSMS_LogFailureStillReplies(t *testing.T) {
	setClock(t, t0)
	r := newTestSMSRouter(t, &stubReplier{reply: "We'll be in touch"}, &fakeLog{err: errBoom}, nil, "")

	doc := r.OnIncomingSMS(context.Background(), "+1555", "hello")
	require.Equal(t, []string{"We'll be in touch"}, doc.Messages())
}

func TestOnIncomingSMS_PanicReturnsFallback(t *testing.T) {
	setClock(t, t0)
	sink := &fakeLog{}
	r := newTestSMSRouter(t, &stubReplier{panicMsg: "nil map"}, sink, nil, "")

	doc := r.OnIncomingSMS(context.Background(), "+1555", "hello")
	require.Equal(t, []string{FallbackReply}, doc.Messages())
	require.Empty(t, sink.records())
}

func TestOnIncomingSMS_RelaysToMonitor(t *testing.T) {
	setClock(t, t0)
	m := &fakeMessenger{}
	r := newTestSMSRouter(t, &stubReplier{reply: "What's your address?"}, &fakeLog{}, m, "+1777")

	r.OnIncomingSMS(context.Background(), "+1555", "Leak in the attic")
	require.Equal(t, []sentMessage{{
		from: "+1000",
		to:   "+1777",
		body: "New SMS from +1555: Leak in the attic\nReply: What's your address?",
	}}, m.messages())
}

func TestOnIncomingSMS_RelayFailureIgnored(t *testing.T) {
	setClock(t, t0)
	r := newTestSMSRouter(t, &stubReplier{reply: "ok"}, &fakeLog{}, &fakeMessenger{err: errBoom}, "+1777")

	doc := r.OnIncomingSMS(context.Background(), "+1555", "hello")
	require.Equal(t, []string{"ok"}, doc.Messages())
}

func TestOnIncomingSMS_NoMonitorNoRelay(t *testing.T) {
	setClock(t, t0)
	m := &fakeMessenger{}
	r := newTestSMSRouter(t, &stubReplier{reply: "ok"}, &fakeLog{}, m, "")

	r.OnIncomingSMS(context.Background(), "+1555", "hello")
	require.Empty(t, m.messages())
}

func TestOnIncomingSMS_FailureLogsErrorCode(t *testing.T) {
	setClock(t, t0)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	gen := newTestGenerator(t, &mockLLM{block: true}, conversation.NewStore(), 10*time.Millisecond)
	r, err := NewSMSRouter(gen, &fakeLog{}, nil, "+1000", "", logger)
	require.NoError(t, err)

	doc := r.OnIncomingSMS(context.Background(), "+1555", "hello")

	require.Equal(t, []string{FallbackReply}, doc.Messages())
	require.Contains(t, buf.String(), `"code":"UPSTREAM_TIMEOUT"`)
}
