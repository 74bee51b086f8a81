package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/core"
)

const defaultSMTPTimeout = 30 * time.Second

// SMTPOptions configures the relay that receives remediation notices
type SMTPOptions struct {
	Address       string
	From          string
	To            []string
	Username      string
	Password      string
	SubjectPrefix string
}

// SMTPNotifier mails remediation notices to the security mailbox
type SMTPNotifier struct {
	opts   SMTPOptions
	logger *zap.Logger
	now    func() time.Time
}

// NewSMTPNotifier creates a notifier that delivers over SMTP
func NewSMTPNotifier(opts SMTPOptions, logger *zap.Logger) (*SMTPNotifier, error) {
	if opts.Address == "" {
		return nil, errors.New("smtp notifier: address is required")
	}
	if opts.From == "" {
		return nil, errors.New("smtp notifier: from address is required")
	}
	if len(opts.To) == 0 {
		return nil, errors.New("smtp notifier: at least one recipient is required")
	}
	return &SMTPNotifier{opts: opts, logger: logger, now: time.Now}, nil
}

// Notify sends one notice per remediation request
func (n *SMTPNotifier) Notify(ctx context.Context, r core.Remediation) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", n.opts.Address)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP relay: %w", err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultSMTPTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if n.opts.Username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("SMTP relay does not support authentication")
		}
		if err := c.Auth(sasl.NewPlainClient("", n.opts.Username, n.opts.Password)); err != nil {
			return fmt.Errorf("AUTH failed: %w", err)
		}
	}

	if err := c.Mail(n.opts.From, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range n.opts.To {
		if err := c.Rcpt(recipient, nil); err != nil {
			n.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return errors.New("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(buildMessage(n.opts.From, n.opts.To, n.opts.SubjectPrefix, r, n.now())); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send notice data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// Already accepted by the relay
		n.logger.Warn("QUIT command failed", zap.Error(err))
	}

	n.logger.Debug("Remediation notice delivered",
		zap.String("session_id", r.SessionID),
		zap.String("action", string(r.Action)),
		zap.Strings("recipients", n.opts.To))
	return nil
}
