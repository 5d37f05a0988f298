package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/onetwoclick/rinkshots-backend/pkg/config"
	gomail "github.com/wneessen/go-mail"
)

type smtpSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPDispatcher relays through an authenticated SMTP server.
type SMTPDispatcher struct {
	client smtpSender
	from   string
}

func NewSMTPDispatcher(cfg config.SMTPConfig, from string) (*SMTPDispatcher, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host required")
	}
	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.Secure {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPDispatcher{client: client, from: from}, nil
}

func (d *SMTPDispatcher) Send(ctx context.Context, msg Message) error {
	msg = msg.withDefaultFrom(d.from)
	if err := msg.validate(); err != nil {
		return err
	}
	m, err := buildSMTPMsg(msg)
	if err != nil {
		return err
	}
	if err := d.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildSMTPMsg(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(msg.recipients()...); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	for _, att := range msg.Attachments {
		if err := m.AttachReader(att.Filename, bytes.NewReader(att.Data),
			gomail.WithFileContentType(gomail.ContentType(contentTypeOf(att)))); err != nil {
			return nil, fmt.Errorf("smtp attach %s: %w", att.Filename, err)
		}
	}
	return m, nil
}
