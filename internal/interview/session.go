package interview

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/safdarjung/resume-interview/internal/ai"
	"github.com/safdarjung/resume-interview/internal/logger"
)

// Session drives one interview. It is not safe for concurrent use.
type Session struct {
	state     State
	assistant Assistant
	logger    *zap.Logger
}

func NewSession(assistant Assistant, model ai.Choice, log *zap.Logger) *Session {
	return &Session{
		state:     NewState(model),
		assistant: assistant,
		logger:    logger.WithFields(log),
	}
}

// State returns a snapshot that shares no memory with the session.
func (s *Session) State() State { return s.state.clone() }

func (s *Session) Phase() Phase { return s.state.Phase() }

// Dispatch applies the action and runs every model call it triggers. The state
// is left untouched when the action itself is rejected.
func (s *Session) Dispatch(ctx context.Context, action Action) error {
	next, effect, err := Step(s.state, action)
	if err != nil {
		s.logger.Debug("action rejected",
			zap.String("action", ActionName(action)),
			zap.Stringer("phase", s.state.Phase()),
			zap.Error(err),
		)
		return err
	}
	s.state = next

	for effect.Kind != EffectNone {
		follow := s.perform(ctx, effect)

		next, effect, err = Step(s.state, follow)
		if err != nil {
			return err
		}
		s.state = next
	}

	return nil
}

func (s *Session) perform(ctx context.Context, effect Effect) Action {
	var (
		action Action
		result ai.Result
	)

	switch effect.Kind {
	case EffectGenerateQuestion:
		result = s.assistant.GenerateQuestion(ctx, effect.ResumeText, effect.History)
		action = QuestionGenerated{Result: result}
	case EffectEvaluateAnswer:
		result = s.assistant.Evaluate(ctx, effect.Question, effect.Answer, effect.Model)
		action = AnswerEvaluated{Answer: effect.Answer, Result: result}
	case EffectGenerateClarification:
		result = s.assistant.Clarify(ctx, effect.Question, effect.Answer)
		action = ClarificationGenerated{Result: result}
	}

	if result.Failed() {
		s.logger.Warn("model call degraded to an error message",
			zap.Stringer("operation", effect.Kind),
			zap.Int(logger.FieldRound, effect.Round),
			zap.Error(result.Err),
		)
	}

	return action
}

func (s *Session) LoadResume(ctx context.Context, text string) error {
	return s.Dispatch(ctx, LoadResume{Text: text})
}

func (s *Session) SelectModel(ctx context.Context, choice ai.Choice) error {
	return s.Dispatch(ctx, SelectModel{Choice: choice})
}

// EnsureQuestion generates a question if none is pending.
func (s *Session) EnsureQuestion(ctx context.Context) error {
	return s.Dispatch(ctx, RequestQuestion{})
}

func (s *Session) SubmitAnswer(ctx context.Context, answer string) error {
	return s.Dispatch(ctx, SubmitAnswer{Answer: answer})
}

func (s *Session) Clarify(ctx context.Context) error {
	return s.Dispatch(ctx, RequestClarification{})
}

func (s *Session) Advance(ctx context.Context) error {
	return s.Dispatch(ctx, Advance{})
}

// Report renders the transcript of a completed interview.
func (s *Session) Report() (string, error) {
	switch s.state.Phase() {
	case PhaseCompleted:
		return Report(s.state.History), nil
	case PhaseNeedResume:
		return "", ErrNoResume
	default:
		return "", ErrNotCompleted
	}
}

// IsUserError reports whether err is a rejection the user can fix, as opposed
// to a programming or wiring problem.
func IsUserError(err error) bool {
	return errors.Is(err, ErrNoResume) ||
		errors.Is(err, ErrEmptyResume) ||
		errors.Is(err, ErrEmptyAnswer) ||
		errors.Is(err, ErrUnknownModel) ||
		errors.Is(err, ErrCompleted) ||
		errors.Is(err, ErrNotCompleted) ||
		errors.Is(err, ErrUnexpectedAction)
}
