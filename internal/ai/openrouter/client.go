package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/safdarjung/resume-interview/internal/ai"
	"github.com/safdarjung/resume-interview/internal/logger"
)

const (
	Provider = "openrouter"

	DefaultBaseURL  = "https://openrouter.ai/api/v1"
	DefaultTimeout  = 60 * time.Second
	DefaultSiteURL  = "https://your-site.com"
	DefaultSiteName = "YourSiteName"

	completionsPath     = "/chat/completions"
	defaultMaxLogLength = 200
)

var (
	ErrEmptyResponse = errors.New("model returned an empty response")
	ErrNoChoices     = errors.New("response contains no choices")
)

// Config describes how to reach the chat-completion endpoint.
type Config struct {
	APIKey       string
	BaseURL      string
	SiteURL      string
	SiteName     string
	Timeout      time.Duration
	MaxLogLength int
}

// Client calls an OpenAI-compatible chat-completion endpoint.
type Client struct {
	http      *resty.Client
	logger    *zap.Logger
	maxLogLen int
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

// New builds a Client. The API key is mandatory.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openrouter api key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	siteURL := strings.TrimSpace(cfg.SiteURL)
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}

	siteName := strings.TrimSpace(cfg.SiteName)
	if siteName == "" {
		siteName = DefaultSiteName
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", siteURL).
		SetHeader("X-Title", siteName)

	return &Client{
		http:      client,
		logger:    logger.WithCommonFields(log, Provider, ""),
		maxLogLen: maxLogLen,
	}, nil
}

// Call sends prompt as a single user message and returns the first choice's content.
func (c *Client) Call(ctx context.Context, model, prompt string) ai.Result {
	text, err := c.complete(ctx, model, prompt)
	if err != nil {
		c.logger.Warn("chat completion failed", zap.String(logger.FieldModel, model), zap.Error(err))
		return ai.Failure(err)
	}
	return ai.Result{Text: text}
}

func (c *Client) complete(ctx context.Context, model, prompt string) (string, error) {
	if c == nil || c.http == nil {
		return "", errors.New("openrouter client is not initialized")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		return "", errors.New("model must not be empty")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	body := completionRequest{
		Model: model,
		Messages: []message{{
			Role:    "user",
			Content: []contentPart{{Type: "text", Text: prompt}},
		}},
	}

	c.logger.Debug("chat completion request",
		zap.String(logger.FieldModel, model),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, c.maxLogLen)),
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(completionsPath)
	if err != nil {
		return "", fmt.Errorf("post chat completion: %w", err)
	}

	raw := resp.Body()

	if resp.IsError() {
		if msg := gjson.GetBytes(raw, "error.message").String(); msg != "" {
			return "", fmt.Errorf("bad status: %s: %s", resp.Status(), msg)
		}
		return "", fmt.Errorf("bad status: %s", resp.Status())
	}

	text, err := parseCompletion(raw)
	if err != nil {
		return "", err
	}

	c.logger.Debug("chat completion response",
		zap.String(logger.FieldModel, model),
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", logger.TruncateForLog(text, c.maxLogLen)),
	)

	return text, nil
}

// parseCompletion extracts choices[0].message.content. Content may be a plain
// string or an array of typed parts; text parts are joined by newlines.
func parseCompletion(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("decode chat completion: invalid json")
	}

	doc := gjson.ParseBytes(raw)

	// Some upstream providers answer 200 with an error object.
	if msg := doc.Get("error.message"); msg.Exists() {
		return "", fmt.Errorf("provider error: %s", msg.String())
	}

	if len(doc.Get("choices").Array()) == 0 {
		return "", ErrNoChoices
	}

	content := doc.Get("choices.0.message.content")

	var text string
	if content.IsArray() {
		var builder strings.Builder
		for _, part := range content.Array() {
			t := strings.TrimSpace(part.Get("text").String())
			if t == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(t)
		}
		text = builder.String()
	} else {
		text = strings.TrimSpace(content.String())
	}

	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
