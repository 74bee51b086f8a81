package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Acknowledgements shown to the user after a summary action
const (
	AckVerify  = "Verify with sender triggered."
	AckReport  = "Reported to security."
	AckProceed = "Warning dismissed."
)

// Censor rewrites message text before it is shown as evidence
type Censor func(string) string

// ServiceOptions tunes the interrogation service
type ServiceOptions struct {
	CacheEnabled    bool
	CacheTTL        time.Duration
	ClassifyTimeout time.Duration
}

// InterrogationService turns a message on the host page into an interrogation session, or nothing.
// Every failure on the way to a verdict fails open: no session, no error for the caller.
type InterrogationService struct {
	classifier Classifier
	cache      VerdictCache
	trust      DomainTrust
	notifier   Notifier
	censor     Censor
	logger     *zap.Logger
	opts       ServiceOptions
}

// NewInterrogationService creates a new interrogation service
func NewInterrogationService(
	classifier Classifier,
	cache VerdictCache,
	trust DomainTrust,
	notifier Notifier,
	censor Censor,
	logger *zap.Logger,
	opts ServiceOptions,
) *InterrogationService {
	if cache == nil {
		opts.CacheEnabled = false
	}
	return &InterrogationService{
		classifier: classifier,
		cache:      cache,
		trust:      trust,
		notifier:   notifier,
		censor:     censor,
		logger:     logger,
		opts:       opts,
	}
}

// Fingerprint identifies a message by its attributes for verdict caching
func Fingerprint(attrs MessageAttributes) string {
	raw, _ := json.Marshal(attrs)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Classify returns the verdict for a message, or nil when none could be obtained
func (s *InterrogationService) Classify(ctx context.Context, attrs MessageAttributes) *Verdict {
	if s.trust != nil && s.trust.IsWhitelisted(attrs.From) {
		s.logger.Info("Skipping classification for trusted domain",
			zap.String("sender", attrs.From),
			zap.String("action", "whitelist_bypass"))
		return nil
	}

	fingerprint := Fingerprint(attrs)

	if s.opts.CacheEnabled {
		if entry, err := s.cache.Get(ctx, fingerprint); err == nil {
			s.logger.Debug("Cache hit for message", zap.String("fingerprint", fingerprint))
			v := entry.Verdict
			return &v
		}
	}

	if s.opts.ClassifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ClassifyTimeout)
		defer cancel()
	}

	verdict, err := s.classifier.Classify(ctx, attrs)
	if err != nil {
		s.logger.Warn("Phishing check failed", zap.Error(err), zap.String("sender", attrs.From))
		return nil
	}
	if verdict == nil {
		s.logger.Warn("Classifier returned no verdict", zap.String("sender", attrs.From))
		return nil
	}

	if s.opts.CacheEnabled {
		now := time.Now()
		entry := &CacheEntry{
			Fingerprint: fingerprint,
			Verdict:     *verdict,
			CachedAt:    now,
			ExpiresAt:   now.Add(s.opts.CacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	return verdict
}

// Begin classifies the message and starts a session when it is flagged.
// A nil session means no warning is shown.
func (s *InterrogationService) Begin(ctx context.Context, attrs MessageAttributes) *Session {
	verdict := s.Classify(ctx, attrs)
	if !verdict.Flagged() {
		if verdict != nil {
			s.logger.Debug("Message not flagged", zap.Int("label", verdict.Label))
		}
		return nil
	}

	session, err := NewSession(attrs, *verdict, s.censor)
	if err != nil {
		s.logger.Error("Failed to start interrogation", zap.Error(err))
		return nil
	}

	s.logger.Info("Started interrogation",
		zap.String("session_id", session.ID),
		zap.String("sender", attrs.From),
		zap.String("domain", verdict.Domain),
		zap.Int("num_recipients", verdict.Features.NumRecipients),
		zap.String("model", verdict.ModelUsed))
	return session
}

// BeginAsync runs Begin in the background and returns its continuation
func (s *InterrogationService) BeginAsync(ctx context.Context, attrs MessageAttributes) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.session = s.Begin(ctx, attrs)
	}()
	return p
}

// Remediate applies a summary action and returns the acknowledgement for the user.
// A notifier failure is logged and does not change the acknowledgement.
func (s *InterrogationService) Remediate(ctx context.Context, session *Session, action Action) (string, error) {
	if err := session.Act(action); err != nil {
		return "", err
	}

	if action == ActionProceed {
		s.logger.Info("User proceeded past warning", zap.String("session_id", session.ID))
		return AckProceed, nil
	}

	statements, _ := session.Summary()
	notice := Remediation{
		Action:      action,
		SessionID:   session.ID,
		Attributes:  session.Attributes(),
		Domain:      session.Verdict().Domain,
		Statements:  statements,
		RequestedAt: time.Now(),
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, notice); err != nil {
			s.logger.Error("Failed to deliver remediation notice",
				zap.Error(err),
				zap.String("session_id", session.ID),
				zap.String("action", string(action)))
		}
	}

	if action == ActionVerify {
		return AckVerify, nil
	}
	return AckReport, nil
}

// Pending is a single outstanding classify-and-resume continuation
type Pending struct {
	done    chan struct{}
	session *Session
}

// Done is closed once classification settles, on success or failure
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Session blocks until classification settles and returns the session, or nil for no warning
func (p *Pending) Session() *Session {
	<-p.done
	return p.session
}
