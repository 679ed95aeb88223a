package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/career-assistant/internal/ai"
	"github.com/spigell/career-assistant/internal/ai/gemini"
	"github.com/spigell/career-assistant/internal/ai/keyword"
	"github.com/spigell/career-assistant/internal/ai/openai"
	"github.com/spigell/career-assistant/internal/assistant"
	"github.com/spigell/career-assistant/internal/jobs"
	"github.com/spigell/career-assistant/internal/logger"
	"github.com/spigell/career-assistant/internal/profile"
	"github.com/spigell/career-assistant/internal/router"
	"github.com/spigell/career-assistant/internal/secrets"
)

const (
	app = "career-assistant"

	providerOpenAI  = "openai"
	providerAzure   = "azure"
	providerGemini  = "gemini"
	providerKeyword = "keyword"

	defaultHistoryFile  = "career-assistant.db"
	defaultMaxLogLength = 500
)

type Config struct {
	Profile     string           `mapstructure:"profile"`
	HistoryFile string           `mapstructure:"history-file"`
	LogFile     string           `mapstructure:"log-file"`
	LLM         LLMConfig        `mapstructure:"llm"`
	Router      router.Config    `mapstructure:"router"`
	Assistant   assistant.Config `mapstructure:"assistant"`
	Session     SessionConfig    `mapstructure:"session"`
	Jobs        JobsConfig       `mapstructure:"jobs"`

	// CompletionThreshold is the score at which the analyzer calls a profile complete.
	CompletionThreshold float64 `mapstructure:"completion-threshold"`
}

type LLMConfig struct {
	Provider     string       `mapstructure:"provider"`
	MaxLogLength int          `mapstructure:"max-log-length"`
	OpenAI       OpenAIConfig `mapstructure:"openai"`
	Azure        AzureConfig  `mapstructure:"azure"`
	Gemini       GeminiConfig `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type AzureConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Endpoint   string `mapstructure:"endpoint"`
	APIVersion string `mapstructure:"api-version"`
	Deployment string `mapstructure:"deployment"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type SessionConfig struct {
	TTL                  time.Duration `mapstructure:"ttl"`
	WindowSize           int           `mapstructure:"window-size"`
	RemediationThreshold float64       `mapstructure:"remediation-threshold"`
	NotHelpfulStreak     int           `mapstructure:"not-helpful-streak"`
}

type JobsConfig struct {
	// Catalog is a JSON file written by `jobs --export`. The built-in catalog is used when empty.
	Catalog          string   `mapstructure:"catalog"`
	ExcludeDivisions []string `mapstructure:"exclude-divisions"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "career-assistant is a conversational helper for profile improvement and internal job matching",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"llm.provider":            "LLM_PROVIDER",
		"llm.openai.api-key":      "OPENAI_API_KEY",
		"llm.azure.api-key":       "AZURE_OPENAI_API_KEY",
		"llm.azure.endpoint":      "AZURE_OPENAI_ENDPOINT",
		"llm.azure.api-version":   "AZURE_OPENAI_API_VERSION",
		"llm.azure.deployment":    "AZURE_OPENAI_DEPLOYMENT_NAME",
		"llm.gemini.api-key":      "GEMINI_API_KEY",
		"llm.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"profile":                 "CAREER_PROFILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("llm.provider", providerOpenAI)
	viper.SetDefault("llm.max-log-length", defaultMaxLogLength)
	viper.SetDefault("history-file", defaultHistoryFile)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is career-assistant.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "talent profile JSON file (default is the bundled sample profile)")
	rootCmd.PersistentFlags().String("history-file", "", "sqlite file with persisted conversations (default is career-assistant.db)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("history-file", rootCmd.PersistentFlags().Lookup("history-file"))
}

func initConfig() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The config file is optional unless it was asked for explicitly.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	return config, nil
}

// setup builds the logger and reads the configuration every command needs.
func setup() (*zap.Logger, *Config) {
	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	logger, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		File:  config.LogFile,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	return logger, config
}

func loadProfile(path string, logger *zap.Logger) *profile.Profile {
	path = strings.TrimSpace(path)
	if path == "" {
		logger.Debug("using the bundled sample profile")
		return profile.Sample()
	}

	p, err := profile.Load(path)
	if err != nil {
		logger.Warn("profile is not available, starting with an empty one",
			zap.String("path", path),
			zap.Error(err),
		)
		return &profile.Profile{}
	}
	return p
}

func loadCatalog(cfg JobsConfig) (*jobs.Jobs, error) {
	path := strings.TrimSpace(cfg.Catalog)
	if path == "" {
		return jobs.Catalog(), nil
	}

	catalog, err := jobs.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading job catalog %q: %w", path, err)
	}
	return catalog, nil
}

// newCompleter builds the intent completer for the configured provider.
func newCompleter(ctx context.Context, cfg LLMConfig, log *zap.Logger) (ai.Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	var (
		generator ai.TextGenerator
		err       error
	)

	switch provider {
	case providerKeyword:
		log.Info("using offline keyword routing")
		return keyword.New(), nil
	case providerOpenAI:
		generator, err = newOpenAI(cfg.OpenAI, log)
	case providerAzure:
		generator, err = newAzure(cfg.Azure, log)
	case providerGemini:
		generator, err = newGemini(ctx, cfg.Gemini, log)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	classifierLogger := logger.WithCommonFields(log, provider, generator.Model())
	return ai.NewClassifier(generator, classifierLogger, cfg.MaxLogLength), nil
}

func newOpenAI(cfg OpenAIConfig, logger *zap.Logger) (ai.TextGenerator, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "openai api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "OPENAI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set llm.openai.api-key or OPENAI_API_KEY)", err)
	}

	return openai.New(openai.Options{
		APIKey:     apiKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		MaxRetries: cfg.MaxRetries,
	}, logger.With(zap.Int("ai_retry_attempts", cfg.MaxRetries)))
}

func newAzure(cfg AzureConfig, logger *zap.Logger) (ai.TextGenerator, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "azure openai api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "AZURE_OPENAI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set llm.azure.api-key or AZURE_OPENAI_API_KEY)", err)
	}

	return openai.NewAzure(openai.Options{
		APIKey:          apiKey,
		AzureEndpoint:   cfg.Endpoint,
		AzureDeployment: cfg.Deployment,
		APIVersion:      cfg.APIVersion,
		MaxRetries:      cfg.MaxRetries,
	}, logger.With(zap.Int("ai_retry_attempts", cfg.MaxRetries)))
}

func newGemini(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (ai.TextGenerator, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set llm.gemini.api-key or GEMINI_API_KEY)", err)
	}

	genLogger := logger.With(
		zap.String("provider", providerGemini),
		zap.String("model", cfg.Model),
		zap.Int("ai_retry_attempts", cfg.MaxRetries),
	)

	return gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, genLogger)
}
