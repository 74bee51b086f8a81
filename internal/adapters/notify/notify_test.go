package notify

import (
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mikey/phish-interrogator/internal/core"
)

type received struct {
	from string
	to   []string
	data []byte
	user string
}

type testBackend struct {
	mu       sync.Mutex
	messages []received
	password string
}

func (b *testBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &testSession{backend: b}, nil
}

func (b *testBackend) Messages() []received {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]received(nil), b.messages...)
}

type testSession struct {
	backend *testBackend
	current received
}

func (s *testSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *testSession) Auth(_ string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if password != s.backend.password {
			return errors.New("invalid credentials")
		}
		s.current.user = username
		return nil
	}), nil
}

func (s *testSession) Mail(from string, _ *smtp.MailOptions) error {
	s.current.from = from
	return nil
}

func (s *testSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if strings.HasPrefix(to, "reject") {
		return &smtp.SMTPError{Code: 550, Message: "no such user"}
	}
	s.current.to = append(s.current.to, to)
	return nil
}

func (s *testSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.current.data = data

	s.backend.mu.Lock()
	s.backend.messages = append(s.backend.messages, s.current)
	s.backend.mu.Unlock()
	return nil
}

func (s *testSession) Reset() {
	user := s.current.user
	s.current = received{user: user}
}

func (s *testSession) Logout() error { return nil }

func startSMTPServer(t *testing.T, backend *testBackend) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := smtp.NewServer(backend)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.ReadTimeout = 5 * time.Second
	srv.WriteTimeout = 5 * time.Second

	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })
	return l.Addr().String()
}

func testRemediation() core.Remediation {
	return core.Remediation{
		Action:    core.ActionReport,
		SessionID: "3f1c",
		Attributes: core.NewMessageAttributes(
			"it@evil.example", "all@corp.example", "2024-05-01 10:02:00",
			"Password expiry\r\nBcc: everyone@corp.example", "secret body text", "Bob",
		),
		Domain: "evil.example",
		Statements: []core.RiskStatement{
			{Key: core.KeySenderKnown, Severity: core.SeverityStrong, Text: "You don't usually get emails from it@evil.example"},
		},
		RequestedAt: time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC),
	}
}

func TestSMTPNotifier_Delivers(t *testing.T) {
	backend := &testBackend{password: "hunter2"}
	addr := startSMTPServer(t, backend)

	n, err := NewSMTPNotifier(SMTPOptions{
		Address:       addr,
		From:          "guard@corp.example",
		To:            []string{"security@corp.example", "reject@corp.example"},
		Username:      "guard",
		Password:      "hunter2",
		SubjectPrefix: "[phish]",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, n.Notify(ctx, testRemediation()))

	msgs := backend.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "guard", msgs[0].user)
	assert.Equal(t, "guard@corp.example", msgs[0].from)
	assert.Equal(t, []string{"security@corp.example"}, msgs[0].to)

	parsed, err := mail.ReadMessage(strings.NewReader(string(msgs[0].data)))
	require.NoError(t, err)
	assert.Equal(t, "3f1c", parsed.Header.Get("X-Phish-Session"))
	assert.Equal(t, "report", parsed.Header.Get("X-Phish-Action"))
	assert.Empty(t, parsed.Header.Get("Bcc"))

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "[phish] Suspected phishing reported from it@evil.example", subject)

	body, err := io.ReadAll(parsed.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "- [strong] You don't usually get emails from it@evil.example")
	assert.Contains(t, string(body), "Linked domain: evil.example")
	assert.NotContains(t, string(body), "secret body text")
}

func TestSMTPNotifier_BadCredentials(t *testing.T) {
	backend := &testBackend{password: "hunter2"}
	addr := startSMTPServer(t, backend)

	n, err := NewSMTPNotifier(SMTPOptions{
		Address:  addr,
		From:     "guard@corp.example",
		To:       []string{"security@corp.example"},
		Username: "guard",
		Password: "wrong",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	err = n.Notify(context.Background(), testRemediation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH failed")
	assert.Empty(t, backend.Messages())
}

func TestSMTPNotifier_AllRecipientsRejected(t *testing.T) {
	backend := &testBackend{}
	addr := startSMTPServer(t, backend)

	n, err := NewSMTPNotifier(SMTPOptions{
		Address: addr,
		From:    "guard@corp.example",
		To:      []string{"reject-1@corp.example", "reject-2@corp.example"},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	err = n.Notify(context.Background(), testRemediation())
	assert.EqualError(t, err, "all recipients were rejected")
}

func TestSMTPNotifier_Unreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	n, err := NewSMTPNotifier(SMTPOptions{Address: addr, From: "a@b.example", To: []string{"c@d.example"}}, zap.NewNop())
	require.NoError(t, err)
	assert.Error(t, n.Notify(context.Background(), testRemediation()))
}

func TestNewSMTPNotifier_Validation(t *testing.T) {
	_, err := NewSMTPNotifier(SMTPOptions{From: "a@b.example", To: []string{"c@d.example"}}, nil)
	assert.Error(t, err)
	_, err = NewSMTPNotifier(SMTPOptions{Address: "localhost:25", To: []string{"c@d.example"}}, nil)
	assert.Error(t, err)
	_, err = NewSMTPNotifier(SMTPOptions{Address: "localhost:25", From: "a@b.example"}, nil)
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	observed, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(observed))

	require.NoError(t, n.Notify(context.Background(), testRemediation()))

	entries := logs.FilterMessage("Remediation requested").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "report", fields["action"])
	assert.Equal(t, "evil.example", fields["domain"])
	assert.NotContains(t, fields, "body")
}

func TestNoticeBody_NoConcerns(t *testing.T) {
	r := testRemediation()
	r.Action = core.ActionVerify
	r.Statements = nil

	assert.Contains(t, noticeBody(r), "The user reported no concerns.")
	assert.Equal(t, "Sender verification requested for it@evil.example", subject("", r))
}

func TestHeaderSafe(t *testing.T) {
	assert.Equal(t, "Hi  Bcc: x@y.example", headerSafe("Hi\r\nBcc: x@y.example"))
}
