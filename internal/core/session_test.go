package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flaggedVerdict() Verdict {
	return Verdict{Label: 1, Domain: "evil.example", Features: Features{NumRecipients: 42}}
}

func testMessage() MessageAttributes {
	return NewMessageAttributes(
		"it@evil.example", "all@corp.example", "2024-05-01 10:02:00",
		"Password expiry", "Click http://evil.example/reset now", "Bob",
	)
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(testMessage(), flaggedVerdict(), strings.ToUpper)
	require.NoError(t, err)
	return s
}

func answerAll(t *testing.T, s *Session, answers ...Answer) {
	t.Helper()
	for _, a := range answers {
		require.NoError(t, s.Answer(a))
	}
}

func TestNewSession_RejectsUnflagged(t *testing.T) {
	for _, label := range []int{0, 2, -1} {
		_, err := NewSession(testMessage(), Verdict{Label: label}, nil)
		assert.True(t, errors.Is(err, ErrNotFlagged), "label %d", label)
	}
}

func TestNewSession_Questions(t *testing.T) {
	s := newTestSession(t)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StateAwaitingQuestion, s.State())
	assert.Equal(t, 0, s.Cursor())
	require.Equal(t, 3, s.QuestionCount())

	qs := s.Questions()
	assert.Equal(t, KeySenderKnown, qs[0].Key)
	assert.Equal(t, "Hey Bob, do you usually get emails from it@evil.example?", qs[0].Prompt)
	assert.False(t, qs[0].RequiresEvidenceDisplay)

	assert.Equal(t, KeyVolumeNormal, qs[1].Key)
	assert.Equal(t, "Does it make sense for this message to be sent to 42 people?", qs[1].Prompt)
	assert.True(t, qs[1].RequiresEvidenceDisplay)
	assert.Equal(t, "CLICK HTTP://EVIL.EXAMPLE/RESET NOW", qs[1].Evidence)

	assert.Equal(t, KeyDomainFamiliar, qs[2].Key)
	assert.Equal(t, "Is the domain evil.example familiar to you?", qs[2].Prompt)
	assert.False(t, qs[2].RequiresEvidenceDisplay)
}

func TestNewSession_PlaceholdersInPrompts(t *testing.T) {
	s, err := NewSession(NewMessageAttributes("", "", "", "", "", ""), Verdict{Label: 1}, nil)
	require.NoError(t, err)

	qs := s.Questions()
	assert.Equal(t, "Hey no name, do you usually get emails from (No sender)?", qs[0].Prompt)
	assert.Equal(t, "Does it make sense for this message to be sent to 0 people?", qs[1].Prompt)
	assert.Equal(t, NoBody, qs[1].Evidence)
	assert.Equal(t, "Is the domain  familiar to you?", qs[2].Prompt)
}

func TestSession_Walkthrough(t *testing.T) {
	s := newTestSession(t)

	q, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, KeySenderKnown, q.Key)

	_, err := s.Summary()
	assert.True(t, errors.Is(err, ErrNotInSummary))

	answerAll(t, s, AnswerNo, AnswerYes, AnswerUnsure)

	assert.Equal(t, StateSummary, s.State())
	assert.Equal(t, 3, s.Cursor())
	_, ok = s.Current()
	assert.False(t, ok)

	summary, err := s.Summary()
	require.NoError(t, err)
	assert.Equal(t, []RiskStatement{
		{Key: KeySenderKnown, Severity: SeverityStrong, Text: "You don't usually get emails from it@evil.example"},
		{Key: KeyDomainFamiliar, Severity: SeverityWeak, Text: "Not sure about the domain evil.example"},
	}, summary)
}

func TestSession_SummaryPerAnswer(t *testing.T) {
	tests := []struct {
		name    string
		answers [3]Answer
		want    []string
	}{
		{
			name:    "all yes",
			answers: [3]Answer{AnswerYes, AnswerYes, AnswerYes},
			want:    []string{},
		},
		{
			name:    "all no",
			answers: [3]Answer{AnswerNo, AnswerNo, AnswerNo},
			want: []string{
				"You don't usually get emails from it@evil.example",
				"This message was sent to many people unexpectedly",
				"The domain evil.example is unfamiliar",
			},
		},
		{
			name:    "all unsure",
			answers: [3]Answer{AnswerUnsure, AnswerUnsure, AnswerUnsure},
			want: []string{
				"Not sure about the sender it@evil.example",
				"Not sure about the recipient volume",
				"Not sure about the domain evil.example",
			},
		},
		{
			name:    "volume only",
			answers: [3]Answer{AnswerYes, AnswerNo, AnswerYes},
			want:    []string{"This message was sent to many people unexpectedly"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			answerAll(t, s, tt.answers[:]...)

			summary, err := s.Summary()
			require.NoError(t, err)

			texts := make([]string, 0, len(summary))
			for _, st := range summary {
				texts = append(texts, st.Text)
			}
			assert.Equal(t, tt.want, texts)
		})
	}
}

func TestSession_InvalidAnswerDoesNotAdvance(t *testing.T) {
	s := newTestSession(t)

	err := s.Answer(Answer("maybe"))
	assert.True(t, errors.Is(err, ErrInvalidAnswer))
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, 0, s.Answers().Len())
}

func TestSession_AnswerAfterLastQuestion(t *testing.T) {
	s := newTestSession(t)
	answerAll(t, s, AnswerYes, AnswerYes, AnswerYes)

	err := s.Answer(AnswerNo)
	assert.True(t, errors.Is(err, ErrNotAwaitingAnswer))
	assert.Equal(t, 3, s.Answers().Len())
}

func TestSession_AnswersKeepOrder(t *testing.T) {
	s := newTestSession(t)
	answerAll(t, s, AnswerUnsure, AnswerNo, AnswerYes)

	answers := s.Answers()
	assert.Equal(t, []QuestionKey{KeySenderKnown, KeyVolumeNormal, KeyDomainFamiliar}, answers.Keys())
	assert.Equal(t, map[QuestionKey]Answer{
		KeySenderKnown:    AnswerUnsure,
		KeyVolumeNormal:   AnswerNo,
		KeyDomainFamiliar: AnswerYes,
	}, answers.Map())
}

func TestSession_Act(t *testing.T) {
	s := newTestSession(t)

	err := s.Act(ActionVerify)
	assert.True(t, errors.Is(err, ErrNotInSummary))

	answerAll(t, s, AnswerNo, AnswerNo, AnswerNo)

	require.NoError(t, s.Act(ActionVerify))
	assert.Equal(t, StateSummary, s.State())
	require.NoError(t, s.Act(ActionReport))
	assert.Equal(t, StateSummary, s.State())

	err = s.Act(Action("delete"))
	assert.True(t, errors.Is(err, ErrUnknownAction))

	require.NoError(t, s.Act(ActionProceed))
	assert.Equal(t, StateResolved, s.State())

	assert.True(t, errors.Is(s.Act(ActionReport), ErrSessionResolved))
	assert.True(t, errors.Is(s.Answer(AnswerYes), ErrSessionResolved))
	_, err = s.Summary()
	assert.True(t, errors.Is(err, ErrSessionResolved))
}

func TestParseAnswerAndAction(t *testing.T) {
	for _, in := range []string{"yes", "no", "unsure"} {
		a, err := ParseAnswer(in)
		require.NoError(t, err)
		assert.Equal(t, Answer(in), a)
	}
	for _, in := range []string{"", "Yes", "y", "maybe"} {
		_, err := ParseAnswer(in)
		assert.True(t, errors.Is(err, ErrInvalidAnswer), in)
	}

	for _, in := range []string{"verify", "report", "proceed"} {
		a, err := ParseAction(in)
		require.NoError(t, err)
		assert.Equal(t, Action(in), a)
	}
	_, err := ParseAction("ignore")
	assert.True(t, errors.Is(err, ErrUnknownAction))
}

func TestNewMessageAttributes_Placeholders(t *testing.T) {
	attrs := NewMessageAttributes("", "", "", "", "", "")
	assert.Equal(t, MessageAttributes{
		From:         NoSender,
		To:           NoRecipient,
		Date:         NoDate,
		Subject:      NoSubject,
		Body:         NoBody,
		ReceiverName: NoReceiverName,
	}, attrs)

	attrs = NewMessageAttributes("a@b.example", "", "", "Hi", "", "Ann")
	assert.Equal(t, "a@b.example", attrs.From)
	assert.Equal(t, NoRecipient, attrs.To)
	assert.Equal(t, "Hi", attrs.Subject)
	assert.Equal(t, "Ann", attrs.ReceiverName)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting_question", StateAwaitingQuestion.String())
	assert.Equal(t, "summary", StateSummary.String())
	assert.Equal(t, "resolved", StateResolved.String())
	assert.Equal(t, "unknown", State(9).String())
}
