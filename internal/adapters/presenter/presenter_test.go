package presenter

import (
	"context"
	"errors"
	"sync"

	"github.com/mikey/phish-interrogator/internal/core"
)

const hostPage = `<html><body>
<div class="sender-row"><strong>it@evil.example</strong></div>
<div class="receiver-name">to Bob &lt;script&gt;</div>
<div id="email-details">
  <p>from: it@evil.example</p>
  <p>to: all@corp.example</p>
  <p>date: 2024-05-01 10:02:00</p>
</div>
<h2 class="subject">Password expiry</h2>
<div class="email-body">Reset now at https://evil.example/reset?u=bob</div>
</body></html>`

type stubClassifier struct {
	mu      sync.Mutex
	verdict *core.Verdict
	err     error
	seen    []core.MessageAttributes
}

func (s *stubClassifier) Classify(_ context.Context, attrs core.MessageAttributes) (*core.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, attrs)
	if s.err != nil {
		return nil, s.err
	}
	v := *s.verdict
	return &v, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []core.Remediation
}

func (n *recordingNotifier) Notify(_ context.Context, r core.Remediation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, r)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

func flagging() *stubClassifier {
	return &stubClassifier{verdict: &core.Verdict{
		Label:    1,
		Domain:   "evil.example",
		Features: core.Features{NumRecipients: 42},
	}}
}

func failing() *stubClassifier {
	return &stubClassifier{err: errors.New("connection refused")}
}
