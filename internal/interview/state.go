// Package interview runs the five-round résumé interview.
//
// Step is a pure transition function over State. Session wraps it, executing
// the model calls that Step asks for and feeding their results back in.
package interview

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/safdarjung/resume-interview/internal/ai"
)

// MaxRounds is the number of answered questions that completes an interview.
const MaxRounds = 5

type Phase int

const (
	PhaseNeedResume Phase = iota
	PhaseAwaitingQuestion
	PhaseAwaitingAnswer
	PhaseAwaitingConfirmation
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseNeedResume:
		return "need_resume"
	case PhaseAwaitingQuestion:
		return "awaiting_question"
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseAwaitingConfirmation:
		return "awaiting_confirmation"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Failures records which model calls of a round degraded to an error message.
type Failures uint8

const (
	FailedQuestion Failures = 1 << iota
	FailedEvaluation
	FailedClarification
)

func (f Failures) Has(flag Failures) bool { return f&flag != 0 }

func (f Failures) set(flag Failures, on bool) Failures {
	if on {
		return f | flag
	}
	return f &^ flag
}

// List names the failed operations in call order.
func (f Failures) List() []string {
	names := make([]string, 0, 3)
	if f.Has(FailedQuestion) {
		names = append(names, "question")
	}
	if f.Has(FailedEvaluation) {
		names = append(names, "evaluation")
	}
	if f.Has(FailedClarification) {
		names = append(names, "clarification")
	}
	return names
}

func (f Failures) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.List())
}

// Entry is one completed round. Entries are never modified after they are appended.
type Entry struct {
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	Evaluation    string   `json:"evaluation"`
	Clarification string   `json:"clarification,omitempty"`
	Failures      Failures `json:"failures"`
}

// State is everything one interview session knows.
type State struct {
	ResumeText           string    `json:"-"`
	History              []Entry   `json:"history"`
	CurrentQuestion      string    `json:"current_question"`
	CurrentAnswer        string    `json:"current_answer"`
	CurrentEvaluation    string    `json:"current_evaluation"`
	CurrentClarification string    `json:"current_clarification"`
	CurrentFailures      Failures  `json:"current_failures"`
	Round                int       `json:"round"`
	AwaitingConfirmation bool      `json:"awaiting_confirmation"`
	Model                ai.Choice `json:"model"`
}

// NewState returns an empty session using the given model selection.
func NewState(model ai.Choice) State {
	if !model.Valid() {
		model = ai.DefaultChoice
	}
	return State{Model: model}
}

// Phase derives the current phase from the state fields.
func (s State) Phase() Phase {
	switch {
	case strings.TrimSpace(s.ResumeText) == "":
		return PhaseNeedResume
	case s.Round >= MaxRounds:
		return PhaseCompleted
	case s.AwaitingConfirmation:
		return PhaseAwaitingConfirmation
	case s.CurrentQuestion == "":
		return PhaseAwaitingQuestion
	default:
		return PhaseAwaitingAnswer
	}
}

func (s State) HasResume() bool { return s.Phase() != PhaseNeedResume }

// clone copies the history so a returned State never aliases its input.
func (s State) clone() State {
	s.History = slices.Clone(s.History)
	return s
}

// currentEntry builds the entry that Advance appends.
func (s State) currentEntry() Entry {
	return Entry{
		Question:      s.CurrentQuestion,
		Answer:        s.CurrentAnswer,
		Evaluation:    s.CurrentEvaluation,
		Clarification: s.CurrentClarification,
		Failures:      s.CurrentFailures,
	}
}
