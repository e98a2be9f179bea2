package interview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/safdarjung/resume-interview/internal/ai"
)

var (
	ErrNoResume         = errors.New("please upload your resume to begin the interview")
	ErrEmptyResume      = errors.New("resume contains no text")
	ErrEmptyAnswer      = errors.New("please enter your answer before submitting")
	ErrEmptyQuestion    = errors.New("question must not be empty")
	ErrCompleted        = errors.New("interview is already completed")
	ErrNotCompleted     = errors.New("interview is not completed yet")
	ErrUnknownModel     = errors.New("unknown model choice")
	ErrUnexpectedAction = errors.New("action is not allowed right now")
)

// Action is an event fed into Step.
type Action interface {
	name() string
}

type (
	// LoadResume stores extracted résumé text.
	LoadResume struct{ Text string }
	// SelectModel changes which model(s) grade answers.
	SelectModel struct{ Choice ai.Choice }
	// RequestQuestion asks for a question when none is pending.
	RequestQuestion struct{}
	// QuestionGenerated delivers the question generation result.
	QuestionGenerated struct{ Result ai.Result }
	// SubmitAnswer hands in the user's answer to the current question.
	SubmitAnswer struct{ Answer string }
	// AnswerEvaluated delivers the evaluation for a submitted answer.
	AnswerEvaluated struct {
		Answer string
		Result ai.Result
	}
	// RequestClarification asks for suggestions on the current answer.
	RequestClarification struct{}
	// ClarificationGenerated delivers clarification suggestions.
	ClarificationGenerated struct{ Result ai.Result }
	// Advance closes the round and moves to the next question.
	Advance struct{}
)

func (LoadResume) name() string             { return "load_resume" }
func (SelectModel) name() string            { return "select_model" }
func (RequestQuestion) name() string        { return "request_question" }
func (QuestionGenerated) name() string      { return "question_generated" }
func (SubmitAnswer) name() string           { return "submit_answer" }
func (AnswerEvaluated) name() string        { return "answer_evaluated" }
func (RequestClarification) name() string   { return "request_clarification" }
func (ClarificationGenerated) name() string { return "clarification_generated" }
func (Advance) name() string                { return "advance" }

// ActionName returns the log name of an action.
func ActionName(a Action) string {
	if a == nil {
		return ""
	}
	return a.name()
}

type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectGenerateQuestion
	EffectEvaluateAnswer
	EffectGenerateClarification
)

func (k EffectKind) String() string {
	switch k {
	case EffectGenerateQuestion:
		return "question generation"
	case EffectEvaluateAnswer:
		return "evaluation"
	case EffectGenerateClarification:
		return "clarification generation"
	default:
		return "none"
	}
}

// Effect is a model call Step wants performed. Its result comes back as the
// matching *Generated or AnswerEvaluated action.
type Effect struct {
	Kind       EffectKind
	ResumeText string
	History    []Entry
	Question   string
	Answer     string
	Model      ai.Choice
	Round      int
}

// Step applies a to s. It never performs I/O and never mutates s; on error the
// returned state equals s.
func Step(s State, a Action) (State, Effect, error) {
	phase := s.Phase()

	if phase == PhaseCompleted {
		return s, Effect{}, ErrCompleted
	}

	switch act := a.(type) {
	case LoadResume:
		text := strings.TrimSpace(act.Text)
		if text == "" {
			return s, Effect{}, ErrEmptyResume
		}
		next := s.clone()
		next.ResumeText = text
		return next, questionEffect(next), nil

	case SelectModel:
		choice, err := ai.ParseChoice(string(act.Choice))
		if err != nil {
			return s, Effect{}, fmt.Errorf("%w: %q", ErrUnknownModel, act.Choice)
		}
		next := s.clone()
		next.Model = choice
		return next, Effect{}, nil
	}

	if phase == PhaseNeedResume {
		return s, Effect{}, ErrNoResume
	}

	switch act := a.(type) {
	case RequestQuestion:
		// A question is already pending; nothing to do.
		return s, questionEffect(s), nil

	case QuestionGenerated:
		if phase != PhaseAwaitingQuestion {
			return s, Effect{}, unexpected(a, phase)
		}
		text := strings.TrimSpace(act.Result.Display(EffectGenerateQuestion.String()))
		if text == "" {
			return s, Effect{}, ErrEmptyQuestion
		}
		next := s.clone()
		next.CurrentQuestion = text
		next.CurrentFailures = next.CurrentFailures.set(FailedQuestion, act.Result.Failed())
		return next, Effect{}, nil

	case SubmitAnswer:
		if phase != PhaseAwaitingAnswer {
			return s, Effect{}, unexpected(a, phase)
		}
		if strings.TrimSpace(act.Answer) == "" {
			return s, Effect{}, ErrEmptyAnswer
		}
		return s, Effect{
			Kind:     EffectEvaluateAnswer,
			Question: s.CurrentQuestion,
			Answer:   act.Answer,
			Model:    s.Model,
			Round:    s.Round,
		}, nil

	case AnswerEvaluated:
		if phase != PhaseAwaitingAnswer {
			return s, Effect{}, unexpected(a, phase)
		}
		if strings.TrimSpace(act.Answer) == "" {
			return s, Effect{}, ErrEmptyAnswer
		}
		next := s.clone()
		next.CurrentAnswer = act.Answer
		next.CurrentEvaluation = act.Result.Display(EffectEvaluateAnswer.String())
		next.CurrentFailures = next.CurrentFailures.set(FailedEvaluation, act.Result.Failed())
		next.AwaitingConfirmation = true
		return next, Effect{}, nil

	case RequestClarification:
		if phase != PhaseAwaitingConfirmation {
			return s, Effect{}, unexpected(a, phase)
		}
		return s, Effect{
			Kind:     EffectGenerateClarification,
			Question: s.CurrentQuestion,
			Answer:   s.CurrentAnswer,
			Model:    s.Model,
			Round:    s.Round,
		}, nil

	case ClarificationGenerated:
		if phase != PhaseAwaitingConfirmation {
			return s, Effect{}, unexpected(a, phase)
		}
		next := s.clone()
		next.CurrentClarification = act.Result.Display(EffectGenerateClarification.String())
		next.CurrentFailures = next.CurrentFailures.set(FailedClarification, act.Result.Failed())
		return next, Effect{}, nil

	case Advance:
		if phase != PhaseAwaitingConfirmation {
			return s, Effect{}, unexpected(a, phase)
		}
		next := s.clone()
		next.History = append(next.History, s.currentEntry())
		next.Round++
		next.CurrentQuestion = ""
		next.CurrentAnswer = ""
		next.CurrentEvaluation = ""
		next.CurrentClarification = ""
		next.CurrentFailures = 0
		next.AwaitingConfirmation = false
		return next, questionEffect(next), nil

	default:
		return s, Effect{}, fmt.Errorf("%w: unknown action %T", ErrUnexpectedAction, a)
	}
}

// questionEffect requests a question when s is waiting for one.
func questionEffect(s State) Effect {
	if s.Phase() != PhaseAwaitingQuestion {
		return Effect{}
	}
	return Effect{
		Kind:       EffectGenerateQuestion,
		ResumeText: s.ResumeText,
		History:    s.History,
		Model:      s.Model,
		Round:      s.Round,
	}
}

func unexpected(a Action, phase Phase) error {
	return fmt.Errorf("%w: %s while %s", ErrUnexpectedAction, ActionName(a), phase)
}
