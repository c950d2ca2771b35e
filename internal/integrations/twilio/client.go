package twilio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	twiliosdk "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const defaultTimeout = 10 * time.Second

// messageCreator is the slice of the v2010 API used by Client.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	Code       int
	Message    string
	MoreInfo   string
}

func (e *HTTPStatusError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("twilio: unexpected status %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("twilio: unexpected status %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client sends SMS through the Twilio Messages API.
type Client struct {
	api messageCreator
}

type options struct {
	httpClient *http.Client
}

type Option func(*options)

// WithHTTPClient replaces the HTTP client used for API calls. The default has a
// 10s timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// NewClient creates a Client authenticating with the account SID and auth token.
func NewClient(accountSID, authToken string, opts ...Option) (*Client, error) {
	accountSID = strings.TrimSpace(accountSID)
	if accountSID == "" {
		return nil, errors.New("twilio: account sid must not be empty")
	}
	authToken = strings.TrimSpace(authToken)
	if authToken == "" {
		return nil, errors.New("twilio: auth token must not be empty")
	}
	o := options{httpClient: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	base := &twilioclient.Client{
		Credentials: twilioclient.NewCredentials(accountSID, authToken),
		HTTPClient:  o.httpClient,
	}
	base.SetAccountSid(accountSID)
	rest := twiliosdk.NewRestClientWithParams(twiliosdk.ClientParams{Client: base})
	return &Client{api: rest.Api}, nil
}

// SendMessage queues an SMS and returns its message SID. The SDK call does not
// take a context, so ctx is only checked before sending; the HTTP client
// timeout bounds the request itself.
func (c *Client) SendMessage(ctx context.Context, from, to, body string) (string, error) {
	if strings.TrimSpace(from) == "" {
		return "", errors.New("twilio: from number must not be empty")
	}
	if strings.TrimSpace(to) == "" {
		return "", errors.New("twilio: to number must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("twilio: request failed: %w", err)
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	msg, err := c.api.CreateMessage(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			return "", &HTTPStatusError{
				StatusCode: restErr.Status,
				Code:       restErr.Code,
				Message:    restErr.Message,
				MoreInfo:   restErr.MoreInfo,
			}
		}
		return "", fmt.Errorf("twilio: request failed: %w", err)
	}
	if msg == nil {
		return "", errors.New("twilio: empty response")
	}
	if msg.ErrorCode != nil && *msg.ErrorCode != 0 {
		reason := ""
		if msg.ErrorMessage != nil {
			reason = *msg.ErrorMessage
		}
		return "", fmt.Errorf("twilio: message rejected with code %d: %s", *msg.ErrorCode, reason)
	}
	if msg.Sid == nil || *msg.Sid == "" {
		return "", errors.New("twilio: no sid in response")
	}
	return *msg.Sid, nil
}
