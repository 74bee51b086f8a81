package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/core"
)

// LogNotifier records remediation requests in the application log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the remediation request
func (n *LogNotifier) Notify(_ context.Context, r core.Remediation) error {
	concerns := make([]string, 0, len(r.Statements))
	for _, st := range r.Statements {
		concerns = append(concerns, st.Text)
	}

	n.logger.Info("Remediation requested",
		zap.String("action", string(r.Action)),
		zap.String("session_id", r.SessionID),
		zap.String("sender", r.Attributes.From),
		zap.String("subject", r.Attributes.Subject),
		zap.String("domain", r.Domain),
		zap.Strings("concerns", concerns),
		zap.Time("requested_at", r.RequestedAt))
	return nil
}
