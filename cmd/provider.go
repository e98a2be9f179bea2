package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/safdarjung/resume-interview/internal/ai"
	"github.com/safdarjung/resume-interview/internal/ai/gemini"
	"github.com/safdarjung/resume-interview/internal/ai/openrouter"
	"github.com/safdarjung/resume-interview/internal/interview"
	"github.com/safdarjung/resume-interview/internal/logger"
	"github.com/safdarjung/resume-interview/internal/secrets"
)

// newAssistant wires the configured chat provider into an interviewer.
func newAssistant(ctx context.Context, config *Config, log *zap.Logger) (*interview.Interviewer, error) {
	caller, models, err := newCaller(ctx, config, log)
	if err != nil {
		return nil, err
	}

	log.Info("using chat provider",
		zap.String(logger.FieldProvider, config.Provider),
		zap.String("gemini_model", models.Gemini),
		zap.String("qwen_model", models.Qwen),
	)

	return interview.NewInterviewer(caller, models, log), nil
}

func newCaller(ctx context.Context, config *Config, log *zap.Logger) (ai.Caller, ai.Models, error) {
	switch config.Provider {
	case gemini.Provider:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: config.Gemini.APIKey,
			Env:   "GEMINI_API_KEY",
			File:  config.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, ai.Models{}, fmt.Errorf("%w (or set gemini.api-key-file / GEMINI_API_KEY_FILE)", err)
		}

		models := withFallback(config.Models, gemini.DefaultModels())

		generator, err := gemini.NewGenerator(ctx, gemini.Config{
			APIKey:       apiKey,
			Model:        models.Gemini,
			Timeout:      config.Gemini.Timeout,
			MaxLogLength: config.MaxLogLength,
		}, logger.WithFields(log, zap.String(logger.FieldProvider, gemini.Provider)))
		if err != nil {
			return nil, ai.Models{}, fmt.Errorf("creating gemini client: %w", err)
		}

		return generator, models, nil

	default:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openrouter api key",
			Value: config.OpenRouter.APIKey,
			Env:   "OPENROUTER_API_KEY",
			File:  config.OpenRouter.APIKeyFile,
		})
		if err != nil {
			return nil, ai.Models{}, fmt.Errorf("%w (or set openrouter.api-key-file / OPENROUTER_API_KEY_FILE)", err)
		}

		client, err := openrouter.New(openrouter.Config{
			APIKey:       apiKey,
			BaseURL:      config.OpenRouter.BaseURL,
			SiteURL:      config.OpenRouter.SiteURL,
			SiteName:     config.OpenRouter.SiteName,
			Timeout:      config.OpenRouter.Timeout,
			MaxLogLength: config.MaxLogLength,
		}, logger.WithFields(log, zap.String(logger.FieldProvider, openrouter.Provider)))
		if err != nil {
			return nil, ai.Models{}, fmt.Errorf("creating openrouter client: %w", err)
		}

		return client, withFallback(config.Models, ai.DefaultModels()), nil
	}
}

func withFallback(models, defaults ai.Models) ai.Models {
	if models.Gemini == "" {
		models.Gemini = defaults.Gemini
	}
	if models.Qwen == "" {
		models.Qwen = defaults.Qwen
	}
	return models
}
