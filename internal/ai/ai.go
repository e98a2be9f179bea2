package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Choice selects which model(s) grade an answer.
type Choice string

const (
	ChoiceGemini Choice = "Gemini"
	ChoiceQwen   Choice = "Qwen"
	ChoiceBoth   Choice = "Both"

	DefaultChoice = ChoiceBoth
)

// Choices lists the selectable options in display order.
var Choices = []Choice{ChoiceGemini, ChoiceQwen, ChoiceBoth}

var ErrUnknownChoice = errors.New("unknown model choice")

// ParseChoice resolves a user supplied model selection, ignoring case and surrounding space.
func ParseChoice(s string) (Choice, error) {
	trimmed := strings.TrimSpace(s)
	for _, c := range Choices {
		if strings.EqualFold(trimmed, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q (expected one of Gemini, Qwen, Both)", ErrUnknownChoice, s)
}

func (c Choice) Valid() bool {
	_, err := ParseChoice(string(c))
	return err == nil
}

func (c Choice) String() string { return string(c) }

// Models holds the remote model identifiers behind each label.
type Models struct {
	Gemini string `mapstructure:"gemini" json:"gemini"`
	Qwen   string `mapstructure:"qwen" json:"qwen"`
}

const (
	DefaultGeminiModel = "google/gemini-2.0-flash-thinking-exp:free"
	DefaultQwenModel   = "qwen/qwen-vl-plus:free"
)

// DefaultModels returns the identifiers used when nothing is configured.
func DefaultModels() Models {
	return Models{Gemini: DefaultGeminiModel, Qwen: DefaultQwenModel}
}

// WithDefaults fills empty identifiers from DefaultModels.
func (m Models) WithDefaults() Models {
	d := DefaultModels()
	if strings.TrimSpace(m.Gemini) == "" {
		m.Gemini = d.Gemini
	}
	if strings.TrimSpace(m.Qwen) == "" {
		m.Qwen = d.Qwen
	}
	return m
}

// Target is a labelled model identifier.
type Target struct {
	Label string
	Model string
}

// Targets expands a choice into the models to call, in call order.
func (m Models) Targets(c Choice) []Target {
	switch c {
	case ChoiceGemini:
		return []Target{{Label: string(ChoiceGemini), Model: m.Gemini}}
	case ChoiceQwen:
		return []Target{{Label: string(ChoiceQwen), Model: m.Qwen}}
	default:
		return []Target{
			{Label: string(ChoiceGemini), Model: m.Gemini},
			{Label: string(ChoiceQwen), Model: m.Qwen},
		}
	}
}

// Result carries model output, the reason there is none, or both when an
// aggregated call produced partial output.
type Result struct {
	Text string
	Err  error
}

// Failure builds a failed Result.
func Failure(err error) Result {
	return Result{Err: err}
}

func (r Result) Failed() bool { return r.Err != nil }

// Display returns the text to show the user. Failures without output render as
// "Error during <operation>: <details>" so the interview can carry on.
func (r Result) Display(operation string) string {
	if r.Err == nil || r.Text != "" {
		return r.Text
	}
	return fmt.Sprintf("Error during %s: %v", operation, r.Err)
}

// Caller sends a single prompt to a chat model. Implementations never panic and
// report every transport, status or decoding problem through Result.Err.
type Caller interface {
	Call(ctx context.Context, model, prompt string) Result
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, model, prompt string) Result

func (f CallerFunc) Call(ctx context.Context, model, prompt string) Result {
	return f(ctx, model, prompt)
}
