// Package evidence computes the message features the classifier reports,
// for classifiers that do not compute them server side.
package evidence

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/mikey/phish-interrogator/internal/core"
)

var phishyKeywords = []string{
	"verify", "reset your password", "confirm your identity", "sign in", "unauthorized login",
	"your account", "update your account", "security alert", "click here", "login attempt",
	"secure message", "reactivate", "reset password", "confirm account", "your credentials",
	"important notice", "urgent", "immediate action", "unusual activity", "suspicious login",
	"account locked", "account suspended", "you must", "action required", "follow the link",
	"verify your email", "check the attachment", "shared document", "document has been shared",
	"view document", "dropbox", "onedrive", "sharepoint", "google drive", "view attachment",
	"encrypted message", "compliance notice", "security update", "new device", "you have received a message",
}

var (
	emailPattern = regexp.MustCompile(`\b[\w.-]+@[\w.-]+\.\w+\b`)
	urlPattern   = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"'@]+`)
	portSuffix   = regexp.MustCompile(`:\d+$`)
)

const (
	leadingJunk  = "<[\"'( \t\r\n"
	trailingJunk = ">]\"') \t\r\n.,;:="
)

// Evidence is the locally computed feature vector of a message
type Evidence struct {
	HasPhishyKeywords bool
	NumRecipients     int
	Domains           []string
}

// Compute derives the evidence for a message
func Compute(attrs core.MessageAttributes) Evidence {
	text := attrs.Subject + " " + attrs.Body
	return Evidence{
		HasPhishyKeywords: HasPhishyKeywords(text),
		NumRecipients:     CountRecipients(attrs.To),
		Domains:           ExtractDomains(text),
	}
}

// Domain returns the domain to ask about: the first linked domain, else the sender's
func (e Evidence) Domain(attrs core.MessageAttributes) string {
	if len(e.Domains) > 0 {
		return e.Domains[0]
	}
	if i := strings.LastIndex(attrs.From, "@"); i >= 0 && i < len(attrs.From)-1 {
		return strings.ToLower(attrs.From[i+1:])
	}
	return attrs.From
}

// Features converts the evidence into the verdict's feature set
func (e Evidence) Features() core.Features {
	phishy := "0"
	if e.HasPhishyKeywords {
		phishy = "1"
	}
	return core.Features{
		NumRecipients: e.NumRecipients,
		Extra: map[string]json.RawMessage{
			"HasPhishyKeywords": json.RawMessage(phishy),
		},
	}
}

// HasPhishyKeywords reports whether text uses wording common to credential phishing
func HasPhishyKeywords(text string) bool {
	text = strings.ToLower(text)
	for _, keyword := range phishyKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// CountRecipients counts the distinct addresses in a comma-separated recipient field
func CountRecipients(to string) int {
	if to == "" || to == core.NoRecipient {
		return 0
	}
	seen := make(map[string]struct{})
	for _, r := range strings.Split(to, ",") {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			seen[r] = struct{}{}
		}
	}
	return len(seen)
}

// ExtractDomains returns the distinct domains linked from text, in order of appearance.
// Email addresses are removed first so their domains are not counted as links.
func ExtractDomains(text string) []string {
	text = emailPattern.ReplaceAllString(text, "")

	var domains []string
	seen := make(map[string]struct{})
	for _, raw := range urlPattern.FindAllString(text, -1) {
		domain, ok := domainOf(raw)
		if !ok {
			continue
		}
		if _, dup := seen[domain]; dup {
			continue
		}
		seen[domain] = struct{}{}
		domains = append(domains, domain)
	}
	return domains
}

func domainOf(raw string) (string, bool) {
	raw = strings.TrimRight(strings.TrimLeft(strings.TrimSpace(raw), leadingJunk), trailingJunk)
	raw = strings.SplitN(raw, ",", 2)[0]
	if !strings.Contains(strings.ToLower(raw), "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	domain := strings.ToLower(portSuffix.ReplaceAllString(u.Host, ""))
	domain = strings.TrimPrefix(domain, "www.")
	domain = strings.TrimRight(domain, "-")
	if !strings.Contains(domain, ".") || strings.Contains(domain, "@") {
		return "", false
	}
	return domain, true
}
