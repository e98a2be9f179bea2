package cmd

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/safdarjung/resume-interview/internal/ai"
	"github.com/safdarjung/resume-interview/internal/ai/gemini"
	"github.com/safdarjung/resume-interview/internal/ai/openrouter"
	"github.com/safdarjung/resume-interview/internal/server"
)

const (
	app = "interviewer"

	defaultMaxLogLength = 200
)

type Config struct {
	Provider     string           `mapstructure:"provider" json:"provider"`
	OpenRouter   OpenRouterConfig `mapstructure:"openrouter" json:"openrouter"`
	Gemini       GeminiConfig     `mapstructure:"gemini" json:"gemini"`
	Models       ai.Models        `mapstructure:"models" json:"models"`
	DefaultModel ai.Choice        `mapstructure:"default-model" json:"default_model"`
	MaxLogLength int              `mapstructure:"max-log-length" json:"max_log_length"`
	Server       ServerConfig     `mapstructure:"server" json:"server"`
}

type OpenRouterConfig struct {
	APIKey     string        `mapstructure:"api-key" json:"-"`
	APIKeyFile string        `mapstructure:"api-key-file" json:"api_key_file,omitempty"`
	BaseURL    string        `mapstructure:"base-url" json:"base_url"`
	SiteURL    string        `mapstructure:"site-url" json:"site_url"`
	SiteName   string        `mapstructure:"site-name" json:"site_name"`
	Timeout    time.Duration `mapstructure:"timeout" json:"timeout"`
}

type GeminiConfig struct {
	APIKey     string        `mapstructure:"api-key" json:"-"`
	APIKeyFile string        `mapstructure:"api-key-file" json:"api_key_file,omitempty"`
	Timeout    time.Duration `mapstructure:"timeout" json:"timeout"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen" json:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interviewer runs a five round mock interview built from your resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"openrouter.api-key-file": "OPENROUTER_API_KEY_FILE",
		"gemini.api-key-file":     "GEMINI_API_KEY_FILE",
		"server.listen":           "INTERVIEWER_LISTEN",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interviewer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", openrouter.Provider)
	v.SetDefault("openrouter.base-url", openrouter.DefaultBaseURL)
	v.SetDefault("openrouter.site-url", openrouter.DefaultSiteURL)
	v.SetDefault("openrouter.site-name", openrouter.DefaultSiteName)
	v.SetDefault("openrouter.timeout", openrouter.DefaultTimeout)
	v.SetDefault("gemini.timeout", gemini.DefaultTimeout)
	v.SetDefault("default-model", string(ai.DefaultChoice))
	v.SetDefault("max-log-length", defaultMaxLogLength)
	v.SetDefault("server.listen", server.DefaultListen)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless it was asked for explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config Config
	err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		choiceHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))
	switch config.Provider {
	case "":
		config.Provider = openrouter.Provider
	case openrouter.Provider, gemini.Provider:
	default:
		return nil, fmt.Errorf("unsupported provider %q (expected %s or %s)", config.Provider, openrouter.Provider, gemini.Provider)
	}

	if config.MaxLogLength <= 0 {
		config.MaxLogLength = defaultMaxLogLength
	}

	return &config, nil
}

// choiceHookFunc decodes model selections case-insensitively.
func choiceHookFunc() mapstructure.DecodeHookFuncType {
	choiceType := reflect.TypeOf(ai.Choice(""))

	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != choiceType {
			return data, nil
		}

		raw, _ := data.(string)
		if strings.TrimSpace(raw) == "" {
			return ai.DefaultChoice, nil
		}
		return ai.ParseChoice(raw)
	}
}
