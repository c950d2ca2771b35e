package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"frontdesk/internal/twiml"
)

const (
	ringTimeoutSeconds = 20
	StatusCallbackPath = "/call-status"

	ApologyMessage    = "Sorry, we're experiencing technical difficulties. Please try again later."
	MissedCallMessage = "Sorry I missed you! I'm on a roof right now. How can I help you?"
)

// missedStatuses are the DialCallStatus values of a call nobody picked up.
var missedStatuses = map[string]bool{
	"no-answer": true,
	"busy":      true,
	"failed":    true,
	"canceled":  true,
}

// Messenger is the telephony capability to send an SMS. It returns the message id.
type Messenger interface {
	SendMessage(ctx context.Context, from, to, body string) (string, error)
}

// NotificationGate enforces the missed-call cooldown. Lock serializes a sender's
// check and record.
type NotificationGate interface {
	Lock(sender string) (unlock func())
	ShouldNotify(sender string, now time.Time) bool
	RecordNotification(sender string, now time.Time)
}

// CallOutcome describes what OnCallStatus did.
type CallOutcome string

const (
	CallConnected  CallOutcome = "connected"
	CallNotified   CallOutcome = "notified"
	CallSuppressed CallOutcome = "suppressed"
	CallSendFailed CallOutcome = "send_failed"
)

// CallRouter bridges inbound calls and follows up on missed ones.
type CallRouter struct {
	messenger     Messenger
	gate          NotificationGate
	personalPhone string
	businessPhone string
	logger        *slog.Logger
}

func NewCallRouter(m Messenger, gate NotificationGate, personalPhone, businessPhone string, logger *slog.Logger) (*CallRouter, error) {
	if m == nil {
		return nil, errors.New("usecase: messenger must not be nil")
	}
	if gate == nil {
		return nil, errors.New("usecase: notification gate must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CallRouter{
		messenger:     m,
		gate:          gate,
		personalPhone: personalPhone,
		businessPhone: businessPhone,
		logger:        logger,
	}, nil
}

// OnIncomingCall returns the document that forwards the call to the personal
// phone, or a spoken apology when the call cannot be bridged.
func (r *CallRouter) OnIncomingCall(_ context.Context, caller string) (doc twiml.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("incoming call handler panicked", "caller", caller, "panic", rec)
			doc = apology()
		}
	}()

	caller = strings.TrimSpace(caller)
	r.logger.Info("incoming call", "caller", caller)
	if r.personalPhone == "" {
		r.logger.Error("no forwarding number configured", "caller", caller)
		return apology()
	}
	return twiml.New(twiml.Dial{
		Timeout:  ringTimeoutSeconds,
		Action:   StatusCallbackPath,
		CallerID: caller,
		Number:   r.personalPhone,
	})
}

// OnCallStatus texts the caller after a missed call unless they were texted
// within the cooldown window. The cooldown only starts after a successful send.
func (r *CallRouter) OnCallStatus(ctx context.Context, caller, dialStatus string) (outcome CallOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("call status handler panicked", "caller", caller, "panic", rec)
			outcome = CallSendFailed
		}
	}()

	caller = strings.TrimSpace(caller)
	dialStatus = strings.TrimSpace(dialStatus)
	r.logger.Info("call status", "caller", caller, "status", dialStatus)
	if !missedStatuses[dialStatus] {
		return CallConnected
	}

	unlock := r.gate.Lock(caller)
	defer unlock()

	t := now()
	if !r.gate.ShouldNotify(caller, t) {
		r.logger.Info("cooldown active, skipping missed-call text", "caller", caller)
		return CallSuppressed
	}

	sid, err := r.messenger.SendMessage(ctx, r.businessPhone, caller, MissedCallMessage)
	if err != nil {
		r.logger.Error("failed to send missed-call text", "caller", caller, "err", err)
		return CallSendFailed
	}
	r.gate.RecordNotification(caller, t)
	r.logger.Info("missed-call text sent", "caller", caller, "sid", sid)
	return CallNotified
}

func apology() twiml.Response {
	return twiml.New(twiml.Say{Text: ApologyMessage})
}

var now = time.Now
