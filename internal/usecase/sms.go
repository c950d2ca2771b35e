package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"frontdesk/internal/domain"
	"frontdesk/internal/twiml"
)

// FallbackReply is sent whenever a reply cannot be generated.
const FallbackReply = "I'm a bit tied up, but I'll call you shortly!"

// Replier drafts a reply for one inbound text.
type Replier interface {
	Generate(ctx context.Context, sender, incoming string) (string, error)
}

// InteractionLog is the append side of the interaction log.
type InteractionLog interface {
	Append(ctx context.Context, rec domain.Interaction) error
}

// SMSRouter answers inbound texts and records each exchange.
type SMSRouter struct {
	replier       Replier
	sink          InteractionLog
	messenger     Messenger
	businessPhone string
	monitorPhone  string
	logger        *slog.Logger
}

// NewSMSRouter wires the router. The messenger is only used for the monitoring
// relay and may be nil when monitorPhone is empty.
func NewSMSRouter(replier Replier, sink InteractionLog, m Messenger, businessPhone, monitorPhone string, logger *slog.Logger) (*SMSRouter, error) {
	if replier == nil {
		return nil, errors.New("usecase: replier must not be nil")
	}
	if sink == nil {
		return nil, errors.New("usecase: interaction log must not be nil")
	}
	if monitorPhone != "" && m == nil {
		return nil, errors.New("usecase: messenger is required for monitoring relay")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMSRouter{
		replier:       replier,
		sink:          sink,
		messenger:     m,
		businessPhone: businessPhone,
		monitorPhone:  monitorPhone,
		logger:        logger,
	}, nil
}

// OnIncomingSMS always returns a messaging document: the generated reply, or
// FallbackReply if anything goes wrong.
func (r *SMSRouter) OnIncomingSMS(ctx context.Context, sender, text string) (doc twiml.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("sms handler panicked", "sender", sender, "panic", rec)
			doc = twiml.New(twiml.Message{Body: FallbackReply})
		}
	}()

	sender = strings.TrimSpace(sender)
	text = strings.TrimSpace(text)
	r.logger.Info("received sms", "sender", sender, "body", text)

	reply, err := r.replier.Generate(ctx, sender, text)
	if err != nil {
		code := ErrorUpstream
		var uerr *Error
		if errors.As(err, &uerr) {
			code = uerr.Code
		}
		r.logger.Warn("reply generation failed, using fallback", "sender", sender, "code", code, "err", err)
		reply = FallbackReply
	}

	if err := r.sink.Append(ctx, domain.Interaction{
		Timestamp: now(),
		Sender:    sender,
		Incoming:  text,
		Reply:     reply,
	}); err != nil {
		r.logger.Error("failed to log interaction", "sender", sender, "err", err)
	}

	r.relay(ctx, sender, text, reply)
	return twiml.New(twiml.Message{Body: reply})
}

// relay forwards a copy of the exchange to the monitoring number, best effort.
func (r *SMSRouter) relay(ctx context.Context, sender, text, reply string) {
	if r.monitorPhone == "" {
		return
	}
	body := "New SMS from " + sender + ": " + text + "\nReply: " + reply
	if _, err := r.messenger.SendMessage(ctx, r.businessPhone, r.monitorPhone, body); err != nil {
		r.logger.Warn("monitoring relay failed", "sender", sender, "err", err)
	}
}
