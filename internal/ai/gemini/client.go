package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/safdarjung/resume-interview/internal/ai"
	"github.com/safdarjung/resume-interview/internal/logger"
)

const (
	Provider = "gemini"

	defaultModel        = "gemini-2.0-flash"
	secondaryModel      = "gemini-2.0-flash-lite"
	DefaultTimeout      = 60 * time.Second
	defaultMaxLogLength = 200
)

// contentGenerator is the subset of *genai.Models the generator needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator talks to the Gemini API directly instead of going through OpenRouter.
type Generator struct {
	models    contentGenerator
	model     string
	logger    *zap.Logger
	maxLogLen int
}

// DefaultModels fills both evaluation slots with Gemini API models. The
// Gemini backend cannot reach Qwen, so the second slot gets a lighter model.
func DefaultModels() ai.Models {
	return ai.Models{Gemini: defaultModel, Qwen: secondaryModel}
}

// Config configures the Gemini backend.
type Config struct {
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxLogLength int
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg.Model, cfg.MaxLogLength, log), nil
}

func newGenerator(models contentGenerator, model string, maxLogLen int, log *zap.Logger) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Generator{
		models:    models,
		model:     model,
		logger:    logger.WithCommonFields(log, Provider, ""),
		maxLogLen: maxLogLen,
	}
}

// Call implements ai.Caller. An empty model falls back to the generator default.
func (g *Generator) Call(ctx context.Context, model, prompt string) ai.Result {
	if model = strings.TrimSpace(model); model == "" {
		model = g.Model()
	}

	text, err := g.generateContent(ctx, model, prompt)
	if err != nil {
		g.logger.Warn("generate content failed", zap.String(logger.FieldModel, model), zap.Error(err))
		return ai.Failure(err)
	}

	return ai.Result{Text: text}
}

func (g *Generator) generateContent(ctx context.Context, model, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	g.logger.Debug("gemini generate content request",
		zap.String(logger.FieldModel, model),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, g.maxLogLen)),
	)

	resp, err := g.models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if resp == nil {
		return "", errors.New("gemini api returned empty response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	g.logger.Debug("gemini generate content response",
		zap.String(logger.FieldModel, model),
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", logger.TruncateForLog(output, g.maxLogLen)),
	)

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
