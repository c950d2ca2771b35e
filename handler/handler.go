package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"frontdesk/internal/twiml"
	"frontdesk/internal/usecase"
)

const (
	healthMessage       = "SMS Auto-Responder is running!"
	correlationIDHeader = "X-Correlation-Id"
)

// fallbackSMSDocument is served if rendering the reply document itself fails.
var fallbackSMSDocument = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
	`<Response><Message>I&#39;m a bit tied up, but I&#39;ll call you shortly!</Message></Response>`

type CallRouter interface {
	OnIncomingCall(ctx context.Context, caller string) twiml.Response
	OnCallStatus(ctx context.Context, caller, dialStatus string) usecase.CallOutcome
}

type SMSRouter interface {
	OnIncomingSMS(ctx context.Context, sender, text string) twiml.Response
}

// Handler serves the telephony webhooks from API Gateway proxy events.
type Handler struct {
	calls  CallRouter
	sms    SMSRouter
	logger *slog.Logger
}

func NewHandler(calls CallRouter, sms SMSRouter, logger *slog.Logger) (*Handler, error) {
	if calls == nil {
		return nil, errors.New("handler: call router must not be nil")
	}
	if sms == nil {
		return nil, errors.New("handler: sms router must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{calls: calls, sms: sms, logger: logger}, nil
}

// Handle routes one webhook request. It never returns an error; every failure is
// expressed in the response.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationIDHeader)
	if correlationID == "" {
		correlationID = newUUID()
	}
	path := normalizePath(req.Path)
	log := h.logger.With("correlation_id", correlationID, "method", req.HTTPMethod, "path", path)

	var resp events.APIGatewayProxyResponse
	switch {
	case path == "/" && req.HTTPMethod == http.MethodGet:
		resp = textResponse(http.StatusOK, healthMessage)
	case path == "/voice" && req.HTTPMethod == http.MethodPost:
		form := parseForm(req, log)
		resp = h.documentResponse(h.calls.OnIncomingCall(ctx, formValue(form, "From", "Unknown")), log, "")
	case path == usecase.StatusCallbackPath && req.HTTPMethod == http.MethodPost:
		form := parseForm(req, log)
		outcome := h.calls.OnCallStatus(ctx, formValue(form, "From", ""), formValue(form, "DialCallStatus", ""))
		log.Debug("call status handled", "outcome", outcome)
		resp = textResponse(http.StatusOK, "")
	case path == "/sms" && req.HTTPMethod == http.MethodPost:
		form := parseForm(req, log)
		resp = h.documentResponse(h.sms.OnIncomingSMS(ctx, formValue(form, "From", ""), formValue(form, "Body", "")), log, fallbackSMSDocument)
	case path == "/" || path == "/voice" || path == usecase.StatusCallbackPath || path == "/sms":
		resp = textResponse(http.StatusMethodNotAllowed, "method not allowed")
	default:
		resp = textResponse(http.StatusNotFound, "not found")
	}

	resp.Headers[correlationIDHeader] = correlationID
	log.Info("request handled", "status", resp.StatusCode)
	return resp, nil
}

func (h *Handler) documentResponse(doc twiml.Response, log *slog.Logger, fallback string) events.APIGatewayProxyResponse {
	body, err := doc.Render()
	if err != nil {
		log.Error("failed to render response document", "err", err)
		body = fallback
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": twiml.ContentType},
		Body:       body,
	}
}

func textResponse(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       body,
	}
}

// parseForm decodes a urlencoded body. Malformed input yields whatever pairs
// could be parsed, so missing fields read as empty.
func parseForm(req events.APIGatewayProxyRequest, log *slog.Logger) url.Values {
	body := req.Body
	if req.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			log.Warn("invalid base64 body", "err", err)
			return url.Values{}
		}
		body = string(raw)
	}
	form, err := url.ParseQuery(body)
	if err != nil {
		log.Warn("malformed form body", "err", err)
	}
	if form == nil {
		form = url.Values{}
	}
	return form
}

func formValue(form url.Values, key, def string) string {
	if _, ok := form[key]; !ok {
		return def
	}
	return form.Get(key)
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func normalizePath(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

var newUUID = func() string {
	return uuid.NewString()
}
