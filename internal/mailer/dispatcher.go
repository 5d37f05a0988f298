package mailer

import (
	"fmt"
	"strings"

	"github.com/onetwoclick/rinkshots-backend/pkg/config"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
)

// New selects the dispatcher named by RINKSHOTS_MAIL_PROVIDER.
func New(cfg *config.Config, logg *logger.Logger) (Dispatcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	from := cfg.Mail.From
	switch strings.ToLower(strings.TrimSpace(cfg.Mail.Provider)) {
	case config.MailProviderSendgrid:
		return NewSendgridDispatcher(cfg.Sendgrid.APIKey, from)
	case config.MailProviderSMTP:
		return NewSMTPDispatcher(cfg.SMTP, from)
	case config.MailProviderLog, "":
		return NewLogDispatcher(logg, from), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
}
