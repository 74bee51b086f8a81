package whitelist

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender belongs to a trusted domain
type Checker struct {
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a new whitelist checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}

	normalized := make(map[string]struct{}, len(domains))
	for _, domain := range domains {
		domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "@")
		if domain != "" {
			normalized[domain] = struct{}{}
		}
	}

	if len(normalized) > 0 {
		logger.Info("Initialized whitelist checker", zap.Int("trusted_domains", len(normalized)))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsWhitelisted reports whether the sender's domain, or a parent of it, is trusted.
// from may be a bare address or a display-name address.
func (c *Checker) IsWhitelisted(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain := senderDomain(from)
	for domain != "" {
		if _, ok := c.domains[domain]; ok {
			c.logger.Debug("Domain is whitelisted",
				zap.String("domain", domain),
				zap.String("email", from))
			return true
		}
		dot := strings.IndexByte(domain, '.')
		if dot < 0 {
			break
		}
		domain = domain[dot+1:]
	}
	return false
}

func senderDomain(from string) string {
	address := strings.TrimSpace(from)
	if parsed, err := mail.ParseAddress(address); err == nil {
		address = parsed.Address
	}

	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}
