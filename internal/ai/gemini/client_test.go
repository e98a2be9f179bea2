package gemini

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	calls   int
	model   string
	prompts []string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	for _, c := range contents {
		for _, p := range c.Parts {
			f.prompts = append(f.prompts, p.Text)
		}
	}
	return f.resp, f.err
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: parts},
		}},
	}
}

func TestGeneratorCall(t *testing.T) {
	models := &fakeModels{resp: textResponse(
		&genai.Part{Text: "thinking...", Thought: true},
		&genai.Part{Text: "Practical Skills: 75/100"},
		&genai.Part{Text: "Clarity: 60/100"},
	)}
	g := newGenerator(models, "gemini-pro", 0, zap.NewNop())

	res := g.Call(context.Background(), "", "Evaluate the answer")
	if res.Failed() {
		t.Fatalf("unexpected failure: %v", res.Err)
	}

	if res.Text != "Practical Skills: 75/100\nClarity: 60/100" {
		t.Fatalf("unexpected output: %q", res.Text)
	}

	if models.model != "gemini-pro" {
		t.Fatalf("expected default model to be used, got %q", models.model)
	}

	if len(models.prompts) != 1 || models.prompts[0] != "Evaluate the answer" {
		t.Fatalf("unexpected prompts: %v", models.prompts)
	}
}

func TestGeneratorCallUsesRequestedModel(t *testing.T) {
	models := &fakeModels{resp: textResponse(&genai.Part{Text: "ok"})}
	g := newGenerator(models, "", 0, zap.NewNop())

	if g.Model() != defaultModel {
		t.Fatalf("expected default model %q, got %q", defaultModel, g.Model())
	}

	g.Call(context.Background(), "gemini-2.5-pro", "prompt")
	if models.model != "gemini-2.5-pro" {
		t.Fatalf("expected requested model, got %q", models.model)
	}
}

func TestGeneratorCallReportsFailures(t *testing.T) {
	cases := []struct {
		name   string
		models *fakeModels
		prompt string
		want   string
	}{
		{
			name:   "api error",
			models: &fakeModels{err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota"}},
			prompt: "p",
			want:   "generate content",
		},
		{
			name:   "empty candidates",
			models: &fakeModels{resp: &genai.GenerateContentResponse{}},
			prompt: "p",
			want:   "empty response",
		},
		{
			name:   "empty prompt",
			models: &fakeModels{},
			prompt: "  ",
			want:   "prompt must not be empty",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newGenerator(tc.models, "gemini-pro", 0, zap.NewNop())

			res := g.Call(context.Background(), "", tc.prompt)
			if !res.Failed() {
				t.Fatalf("expected failure, got %q", res.Text)
			}
			if !strings.Contains(res.Err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, res.Err)
			}
		})
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), Config{}, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestDefaultModelsStayOnGemini(t *testing.T) {
	models := DefaultModels()
	if models.Gemini != defaultModel {
		t.Fatalf("expected %q, got %q", defaultModel, models.Gemini)
	}
	if models.Qwen == "" || models.Qwen == models.Gemini {
		t.Fatalf("expected a distinct second model, got %q", models.Qwen)
	}
}
