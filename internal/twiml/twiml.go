// Package twiml builds the call-control and messaging documents the telephony
// provider expects in webhook responses.
package twiml

import (
	"fmt"
	"strconv"

	twilioxml "github.com/twilio/twilio-go/twiml"
)

// ContentType is the media type of a rendered document.
const ContentType = "text/xml"

// Verb is one instruction inside a Response.
type Verb interface {
	element() twilioxml.Element
}

// Response is the root of every document. Verbs keep their order.
type Response struct {
	Verbs []Verb
}

// Dial bridges the call to Number. A zero Timeout leaves the provider default.
type Dial struct {
	Timeout  int
	Action   string
	CallerID string
	Number   string
}

// Say speaks Text to the caller.
type Say struct {
	Text string
}

// Message replies to an inbound text with Body.
type Message struct {
	Body string
}

func (d Dial) element() twilioxml.Element {
	dial := twilioxml.VoiceDial{
		Action:        d.Action,
		CallerId:      d.CallerID,
		InnerElements: []twilioxml.Element{twilioxml.VoiceNumber{PhoneNumber: d.Number}},
	}
	if d.Timeout > 0 {
		dial.Timeout = strconv.Itoa(d.Timeout)
	}
	return dial
}

func (s Say) element() twilioxml.Element {
	return twilioxml.VoiceSay{Message: s.Text}
}

func (m Message) element() twilioxml.Element {
	return twilioxml.MessagingMessage{Body: m.Body}
}

func New(verbs ...Verb) Response {
	return Response{Verbs: verbs}
}

// Render returns the document with its XML declaration. A document holding a
// Message is rendered as a messaging response, anything else as a voice response.
func (r Response) Render() (string, error) {
	elems := make([]twilioxml.Element, 0, len(r.Verbs))
	render := twilioxml.Voice
	for _, v := range r.Verbs {
		if _, ok := v.(Message); ok {
			render = twilioxml.Messages
		}
		elems = append(elems, v.element())
	}
	out, err := render(elems)
	if err != nil {
		return "", fmt.Errorf("twiml: render response: %w", err)
	}
	return out, nil
}

// Messages returns the bodies of the Message verbs in document order.
func (r Response) Messages() []string {
	var out []string
	for _, v := range r.Verbs {
		if m, ok := v.(Message); ok {
			out = append(out, m.Body)
		}
	}
	return out
}
