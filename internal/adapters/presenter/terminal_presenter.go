package presenter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/extract"
	"github.com/mikey/phish-interrogator/internal/ports"
	"github.com/mikey/phish-interrogator/internal/utils"
)

var _ ports.Presenter = (*TerminalPresenter)(nil)

// ErrInputClosed is returned when input ends before the interrogation is resolved
var ErrInputClosed = errors.New("input ended before the interrogation was resolved")

// Outcome records how a terminal interrogation ended
type Outcome struct {
	Flagged          bool                             `json:"flagged"`
	SessionID        string                           `json:"session_id,omitempty"`
	Attributes       core.MessageAttributes           `json:"attributes"`
	Answers          map[core.QuestionKey]core.Answer `json:"answers,omitempty"`
	Summary          []core.RiskStatement             `json:"summary,omitempty"`
	Acknowledgements []string                         `json:"acknowledgements,omitempty"`
	State            string                           `json:"state,omitempty"`
}

// TerminalPresenter runs the interrogation as a prompt on a terminal
type TerminalPresenter struct {
	service       *core.InterrogationService
	extractor     *extract.Extractor
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	in            *bufio.Reader
	out           io.Writer
	width         int
}

// NewTerminalPresenter creates a presenter reading answers from in and writing prompts to out.
// Message text is passed through textProcessor.Printable before it is written.
func NewTerminalPresenter(
	service *core.InterrogationService,
	extractor *extract.Extractor,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	in io.Reader,
	out io.Writer,
) *TerminalPresenter {
	if textProcessor == nil {
		textProcessor = utils.NewTextProcessor(logger)
	}
	return &TerminalPresenter{
		service:       service,
		extractor:     extractor,
		textProcessor: textProcessor,
		logger:        logger,
		in:            bufio.NewReader(in),
		out:           out,
		width:         terminalWidth(out),
	}
}

// IsInteractive reports whether stdin is attached to a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func terminalWidth(out io.Writer) int {
	const fallback = 64
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	if width > 100 {
		return 100
	}
	return width
}

// Start is a no-op for the terminal presenter
func (p *TerminalPresenter) Start() error {
	return nil
}

// Stop is a no-op for the terminal presenter
func (p *TerminalPresenter) Stop() error {
	return nil
}

// InspectFile reads a saved page or RFC 5322 message and interrogates the user about it
func (p *TerminalPresenter) InspectFile(ctx context.Context, path string) (*Outcome, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var attrs core.MessageAttributes
	if looksLikeMessage(path, raw) {
		p.logger.Debug("Reading input as a mail message", zap.String("path", path))
		attrs = p.extractor.FromMessage(bytes.NewReader(raw))
	} else {
		p.logger.Debug("Reading input as a host page", zap.String("path", path))
		attrs = p.extractor.Extract(bytes.NewReader(raw))
	}
	return p.Inspect(ctx, attrs)
}

// Inspect classifies the message and, when flagged, walks the user through the questions
func (p *TerminalPresenter) Inspect(ctx context.Context, attrs core.MessageAttributes) (*Outcome, error) {
	outcome := &Outcome{Attributes: attrs}

	fmt.Fprintf(p.out, "\n=== Message ===\n")
	fmt.Fprintf(p.out, "From: %s\n", p.printable(attrs.From))
	fmt.Fprintf(p.out, "To: %s\n", p.printable(attrs.To))
	fmt.Fprintf(p.out, "Date: %s\n", p.printable(attrs.Date))
	fmt.Fprintf(p.out, "Subject: %s\n", p.printable(attrs.Subject))

	session := p.service.Begin(ctx, attrs)
	if session == nil {
		fmt.Fprintf(p.out, "\nNo warning for this message.\n")
		return outcome, nil
	}
	outcome.Flagged = true
	outcome.SessionID = session.ID

	fmt.Fprintf(p.out, "\n=== Quick Security Check ===\n")
	for {
		q, ok := session.Current()
		if !ok {
			break
		}
		answer, err := p.askQuestion(session.Cursor(), session.QuestionCount(), q)
		if err != nil {
			return p.finish(outcome, session), err
		}
		if err := session.Answer(answer); err != nil {
			return p.finish(outcome, session), err
		}
	}

	statements, err := session.Summary()
	if err != nil {
		return p.finish(outcome, session), err
	}
	outcome.Summary = statements
	p.printSummary(statements)

	for session.State() == core.StateSummary {
		action, err := p.askAction()
		if err != nil {
			return p.finish(outcome, session), err
		}
		ack, err := p.service.Remediate(ctx, session, action)
		if err != nil {
			return p.finish(outcome, session), err
		}
		outcome.Acknowledgements = append(outcome.Acknowledgements, ack)
		fmt.Fprintf(p.out, "%s\n", p.printable(ack))
	}

	return p.finish(outcome, session), nil
}

func (p *TerminalPresenter) finish(outcome *Outcome, s *core.Session) *Outcome {
	outcome.Answers = s.Answers().Map()
	outcome.State = s.State().String()
	return outcome
}

func (p *TerminalPresenter) askQuestion(index, total int, q core.Question) (core.Answer, error) {
	fmt.Fprintf(p.out, "\n%s\n", p.progress(index+1, total))
	fmt.Fprintf(p.out, "Question %d of %d\n", index+1, total)
	fmt.Fprintf(p.out, "%s\n", p.printable(q.Prompt))
	if q.RequiresEvidenceDisplay {
		rule := strings.Repeat("-", p.width)
		fmt.Fprintf(p.out, "%s\n%s\n%s\n", rule, p.printable(q.Evidence), rule)
	}

	for {
		fmt.Fprintf(p.out, "[y] Yes  [n] No  [u] Not sure: ")
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		if answer, ok := parseAnswerInput(line); ok {
			return answer, nil
		}
		fmt.Fprintf(p.out, "Please answer y, n or u.\n")
	}
}

func (p *TerminalPresenter) printSummary(statements []core.RiskStatement) {
	fmt.Fprintf(p.out, "\n=== Potential Risk Identified ===\n")
	if len(statements) == 0 {
		fmt.Fprintf(p.out, "You raised no concerns about this message.\n")
	}
	for _, st := range statements {
		marker := "?"
		if st.Severity == core.SeverityStrong {
			marker = "!"
		}
		fmt.Fprintf(p.out, " %s %s\n", marker, p.printable(st.Text))
	}
}

func (p *TerminalPresenter) askAction() (core.Action, error) {
	for {
		fmt.Fprintf(p.out, "\n[v] Verify with Sender  [r] Report to Security  [p] Proceed Anyway: ")
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		if action, ok := parseActionInput(line); ok {
			return action, nil
		}
		fmt.Fprintf(p.out, "Please choose v, r or p.\n")
	}
}

func (p *TerminalPresenter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *TerminalPresenter) printable(text string) string {
	return p.textProcessor.Printable(text)
}

func (p *TerminalPresenter) progress(n, total int) string {
	width := max(p.width-2, 1)
	filled := width * n / total
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func parseAnswerInput(input string) (core.Answer, bool) {
	switch strings.ToLower(input) {
	case "y", "yes":
		return core.AnswerYes, true
	case "n", "no":
		return core.AnswerNo, true
	case "u", "unsure", "not sure", "?":
		return core.AnswerUnsure, true
	default:
		return "", false
	}
}

func parseActionInput(input string) (core.Action, bool) {
	switch strings.ToLower(input) {
	case "v", "verify":
		return core.ActionVerify, true
	case "r", "report":
		return core.ActionReport, true
	case "p", "proceed":
		return core.ActionProceed, true
	default:
		return "", false
	}
}

// looksLikeMessage tells a saved mail message from a saved web page
func looksLikeMessage(path string, raw []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".eml", ".msg", ".mbox":
		return true
	case ".html", ".htm":
		return false
	}
	head := bytes.TrimSpace(raw)
	if len(head) > 0 && head[0] == '<' {
		return false
	}
	firstLine, _, _ := bytes.Cut(head, []byte("\n"))
	name, _, found := bytes.Cut(firstLine, []byte(":"))
	return found && len(name) > 0 && !bytes.ContainsAny(name, " \t")
}
