package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/safdarjung/resume-interview/internal/ai"
	"github.com/safdarjung/resume-interview/internal/logger"
)

// Assistant performs the model calls an interview needs.
type Assistant interface {
	GenerateQuestion(ctx context.Context, resumeText string, history []Entry) ai.Result
	Evaluate(ctx context.Context, question, answer string, choice ai.Choice) ai.Result
	Clarify(ctx context.Context, question, answer string) ai.Result
}

// Interviewer is the Assistant backed by a chat model Caller. Questions and
// clarifications always use the Gemini identifier; evaluations use the
// selected model(s).
type Interviewer struct {
	caller ai.Caller
	models ai.Models
	logger *zap.Logger
}

func NewInterviewer(caller ai.Caller, models ai.Models, log *zap.Logger) *Interviewer {
	return &Interviewer{
		caller: caller,
		models: models.WithDefaults(),
		logger: logger.WithFields(log),
	}
}

func (i *Interviewer) GenerateQuestion(ctx context.Context, resumeText string, history []Entry) ai.Result {
	i.logger.Info("generating interview question", logger.CallFields("question", i.models.Gemini, len(history))...)
	return i.caller.Call(ctx, i.models.Gemini, buildQuestionPrompt(resumeText, history))
}

// Evaluate grades the answer with each selected model in turn. Every section is
// present in the output; a failed call contributes its error message instead of
// an evaluation and its error is joined into Result.Err.
func (i *Interviewer) Evaluate(ctx context.Context, question, answer string, choice ai.Choice) ai.Result {
	prompt := buildEvaluationPrompt(question, answer)

	var (
		sections []string
		errs     []error
	)

	for _, target := range i.models.Targets(choice) {
		i.logger.Info(fmt.Sprintf("calling %s model for evaluation", target.Label), zap.String(logger.FieldModel, target.Model))

		res := i.caller.Call(ctx, target.Model, prompt)
		if res.Failed() {
			errs = append(errs, fmt.Errorf("%s: %w", target.Label, res.Err))
			res.Text = ""
		}

		body := res.Display("evaluation with " + target.Model)
		sections = append(sections, fmt.Sprintf("**Evaluation from %s:**\n%s", target.Label, body))
	}

	return ai.Result{
		Text: strings.Join(sections, "\n\n"),
		Err:  errors.Join(errs...),
	}
}

func (i *Interviewer) Clarify(ctx context.Context, question, answer string) ai.Result {
	i.logger.Info("generating clarification", zap.String(logger.FieldModel, i.models.Gemini))
	return i.caller.Call(ctx, i.models.Gemini, buildClarificationPrompt(question, answer))
}
