package presenter

import (
	"bytes"
	"html/template"

	"github.com/mikey/phish-interrogator/internal/core"
)

// SessionView is the JSON shape of a session returned by the overlay API
type SessionView struct {
	ID       string               `json:"id"`
	PageID   string               `json:"page_id"`
	State    string               `json:"state"`
	Cursor   int                  `json:"cursor"`
	Total    int                  `json:"total"`
	Question *core.Question       `json:"question,omitempty"`
	Summary  []core.RiskStatement `json:"summary,omitempty"`
	Actions  []core.Action        `json:"actions,omitempty"`
}

var summaryActions = []core.Action{core.ActionVerify, core.ActionReport, core.ActionProceed}

func newSessionView(pageID string, s *core.Session) SessionView {
	view := SessionView{
		ID:     s.ID,
		PageID: pageID,
		State:  s.State().String(),
		Cursor: s.Cursor(),
		Total:  s.QuestionCount(),
	}
	if q, ok := s.Current(); ok {
		view.Question = &q
	}
	if statements, err := s.Summary(); err == nil {
		view.Summary = statements
		view.Actions = summaryActions
	}
	return view
}

type answerButton struct {
	Value core.Answer
	Label string
}

type actionButton struct {
	Value core.Action
	Label string
}

var (
	answerButtons = []answerButton{
		{core.AnswerYes, "Yes"},
		{core.AnswerNo, "No"},
		{core.AnswerUnsure, "Not sure"},
	}
	actionButtons = []actionButton{
		{core.ActionVerify, "Verify with Sender"},
		{core.ActionReport, "Report to Security"},
		{core.ActionProceed, "Proceed Anyway"},
	}
)

// Every page-derived string reaches the overlay through html/template escaping
var overlayTemplate = template.Must(template.New("overlay").Parse(`
{{- define "question" -}}
<div class="phish-overlay" data-session="{{.View.ID}}" data-state="{{.View.State}}">
  <h2>Quick Security Check</h2>
  <div class="progress"><div class="progress-bar" style="width: {{.Percent}}%"></div></div>
  <p class="progress-label">Question {{.Number}} of {{.View.Total}}</p>
  <div class="question">
    <p>{{.View.Question.Prompt}}</p>
    {{- if .View.Question.RequiresEvidenceDisplay}}
    <pre class="nocopy">{{.View.Question.Evidence}}</pre>
    {{- end}}
  </div>
  <div class="answers">
    {{- range .Answers}}
    <button class="btn answer" data-value="{{.Value}}">{{.Label}}</button>
    {{- end}}
  </div>
</div>
{{- end -}}
{{- define "summary" -}}
<div class="phish-overlay" data-session="{{.View.ID}}" data-state="{{.View.State}}">
  <h2>Potential Risk Identified</h2>
  <div class="summary-box">
    {{- range .View.Summary}}
    <p class="risk risk--{{.Severity}}">{{.Text}}</p>
    {{- end}}
  </div>
  <div class="action-buttons">
    {{- range .Actions}}
    <button class="btn btn--{{.Value}}" data-action="{{.Value}}">{{.Label}}</button>
    {{- end}}
  </div>
</div>
{{- end -}}
`))

type overlayData struct {
	View    SessionView
	Number  int
	Percent int
	Answers []answerButton
	Actions []actionButton
}

// renderOverlay renders the escaped HTML fragment for the session's current state
func renderOverlay(view SessionView) ([]byte, error) {
	data := overlayData{
		View:    view,
		Answers: answerButtons,
		Actions: actionButtons,
	}

	name := "summary"
	if view.Question != nil {
		name = "question"
		data.Number = view.Cursor + 1
		data.Percent = data.Number * 100 / view.Total
	}

	var buf bytes.Buffer
	if err := overlayTemplate.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
