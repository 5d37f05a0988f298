package mailer

import (
	"context"
	"strings"

	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
)

// LogDispatcher writes messages to the log instead of sending them. Used in dev.
type LogDispatcher struct {
	logg *logger.Logger
	from string
}

func NewLogDispatcher(logg *logger.Logger, from string) *LogDispatcher {
	return &LogDispatcher{logg: logg, from: from}
}

func (d *LogDispatcher) Send(ctx context.Context, msg Message) error {
	msg = msg.withDefaultFrom(d.from)
	if err := msg.validate(); err != nil {
		return err
	}
	if d.logg == nil {
		return nil
	}
	ctx = d.logg.WithFields(ctx, map[string]any{
		"mail_to":          strings.Join(msg.recipients(), ","),
		"mail_subject":     msg.Subject,
		"mail_attachments": len(msg.Attachments),
		"mail_html_bytes":  len(msg.HTML),
	})
	d.logg.Info(ctx, "mail.logged")
	d.logg.Debug(ctx, msg.HTML)
	return nil
}
