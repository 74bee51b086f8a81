package notify

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/mikey/phish-interrogator/internal/core"
)

// subject returns the notice subject for a remediation action
func subject(prefix string, r core.Remediation) string {
	var text string
	switch r.Action {
	case core.ActionVerify:
		text = fmt.Sprintf("Sender verification requested for %s", r.Attributes.From)
	default:
		text = fmt.Sprintf("Suspected phishing reported from %s", r.Attributes.From)
	}
	if prefix != "" {
		text = prefix + " " + text
	}
	return text
}

// noticeBody renders the plain text notice. The message body is left out;
// the recipient gets the signals, not the content.
func noticeBody(r core.Remediation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action: %s\n", r.Action)
	fmt.Fprintf(&b, "Session: %s\n", r.SessionID)
	fmt.Fprintf(&b, "Requested at: %s\n\n", r.RequestedAt.UTC().Format(time.RFC3339))

	fmt.Fprintf(&b, "From: %s\n", r.Attributes.From)
	fmt.Fprintf(&b, "To: %s\n", r.Attributes.To)
	fmt.Fprintf(&b, "Date: %s\n", r.Attributes.Date)
	fmt.Fprintf(&b, "Subject: %s\n", r.Attributes.Subject)
	fmt.Fprintf(&b, "Linked domain: %s\n\n", r.Domain)

	if len(r.Statements) == 0 {
		b.WriteString("The user reported no concerns.\n")
		return b.String()
	}
	b.WriteString("User concerns:\n")
	for _, st := range r.Statements {
		fmt.Fprintf(&b, "- [%s] %s\n", st.Severity, st.Text)
	}
	return b.String()
}

// buildMessage renders a complete RFC 5322 message with CRLF line endings
func buildMessage(from string, to []string, subjectPrefix string, r core.Remediation, now time.Time) []byte {
	var buf bytes.Buffer
	header := func(name, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", name, headerSafe(value))
	}

	header("From", from)
	header("To", strings.Join(to, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", headerSafe(subject(subjectPrefix, r))))
	header("Date", now.Format(time.RFC1123Z))
	header("X-Phish-Session", r.SessionID)
	header("X-Phish-Action", string(r.Action))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")

	body := strings.ReplaceAll(noticeBody(r), "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}

// headerSafe keeps page-derived values from injecting header lines
func headerSafe(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}
