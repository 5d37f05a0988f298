package mailer

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNoRecipient = errors.New("mail recipient required")
	ErrNoSubject   = errors.New("mail subject required")
	ErrNoSender    = errors.New("mail sender required")
)

// Dispatcher delivers a rendered message. Implementations return an error
// only when the message was not accepted.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a single HTML email.
type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (m Message) validate() error {
	if strings.TrimSpace(m.From) == "" {
		return ErrNoSender
	}
	if len(m.recipients()) == 0 {
		return ErrNoRecipient
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrNoSubject
	}
	return nil
}

func (m Message) recipients() []string {
	out := make([]string, 0, len(m.To))
	for _, to := range m.To {
		if to = strings.TrimSpace(to); to != "" {
			out = append(out, to)
		}
	}
	return out
}

// withDefaultFrom fills From when the caller left it blank.
func (m Message) withDefaultFrom(from string) Message {
	if strings.TrimSpace(m.From) == "" {
		m.From = from
	}
	return m
}

func contentTypeOf(a Attachment) string {
	if ct := strings.TrimSpace(a.ContentType); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
