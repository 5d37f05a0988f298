package mailer

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendgridSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendgridDispatcher sends through the SendGrid v3 mail API.
type SendgridDispatcher struct {
	client sendgridSender
	from   string
}

func NewSendgridDispatcher(apiKey, from string) (*SendgridDispatcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	return &SendgridDispatcher{client: sendgrid.NewSendClient(apiKey), from: from}, nil
}

func (d *SendgridDispatcher) Send(ctx context.Context, msg Message) error {
	msg = msg.withDefaultFrom(d.from)
	if err := msg.validate(); err != nil {
		return err
	}

	resp, err := d.client.SendWithContext(ctx, buildSendgridMail(msg))
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func buildSendgridMail(msg Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", msg.From))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, to := range msg.recipients() {
		p.AddTos(mail.NewEmail("", to))
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/html", msg.HTML))

	for _, att := range msg.Attachments {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(att.Data))
		a.SetType(contentTypeOf(att))
		a.SetFilename(att.Filename)
		a.SetDisposition("attachment")
		m.AddAttachment(a)
	}
	return m
}
