package core

import "errors"

var (
	// ErrNotFlagged is returned when a session is requested for a verdict that does not flag the message
	ErrNotFlagged = errors.New("verdict does not flag the message")
	// ErrInvalidAnswer is returned for answers outside yes, no and unsure
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrNotAwaitingAnswer is returned when an answer arrives after the last question
	ErrNotAwaitingAnswer = errors.New("session is not awaiting an answer")
	// ErrNotInSummary is returned when an action is taken before the summary is shown
	ErrNotInSummary = errors.New("session is not showing a summary")
	// ErrSessionResolved is returned for any transition on a resolved session
	ErrSessionResolved = errors.New("session is resolved")
	// ErrUnknownAction is returned for actions outside verify, report and proceed
	ErrUnknownAction = errors.New("unknown action")
)
