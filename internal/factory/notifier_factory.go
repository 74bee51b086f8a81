package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/adapters/notify"
	"github.com/mikey/phish-interrogator/internal/config"
	"github.com/mikey/phish-interrogator/internal/core"
)

// NotifierFactory creates the collaborator behind verify and report
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier creates a notifier based on the configuration
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	notifyCfg := f.cfg.GetNotify()

	switch notifyCfg.Type {
	case "log", "":
		return notify.NewLogNotifier(f.logger), nil
	case "smtp":
		return notify.NewSMTPNotifier(notify.SMTPOptions{
			Address:       notifyCfg.SMTP.Address,
			From:          notifyCfg.SMTP.From,
			To:            notifyCfg.SMTP.To,
			Username:      notifyCfg.SMTP.Username,
			Password:      notifyCfg.SMTP.Password,
			SubjectPrefix: notifyCfg.SMTP.SubjectPrefix,
		}, f.logger)
	default:
		return nil, fmt.Errorf("unsupported notifier type: %s", notifyCfg.Type)
	}
}
