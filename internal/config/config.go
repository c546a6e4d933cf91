package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Hugging Face Router
	HFToken         string
	HFModel         string
	HFFallbackModel string
	HFBaseURL       string

	// Data
	CorpusPath   string
	DatabasePath string
	VecLitePath  string // optional semantic exemplar index

	// Generation
	GenerateTimeout time.Duration
	MaxPromptChars  int
	MaxNewTokens    int
	Temperature     float64
	ExemplarCount   int
	RetryAttempts   int
	RetryBackoff    time.Duration

	// HTTP server
	HTTPAddr string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HFToken:         getEnv("HF_TOKEN", ""),
		HFModel:         getEnv("HF_MODEL", "HuggingFaceH4/zephyr-7b-beta"),
		HFFallbackModel: getEnv("HF_FALLBACK_MODEL", "gpt2"),
		HFBaseURL:       getEnv("HF_BASE_URL", "https://router.huggingface.co"),
		CorpusPath:      getEnv("CORPUS_PATH", "data/poems_clean.csv"),
		DatabasePath:    getEnv("DATABASE_PATH", "data/versobot.db"),
		VecLitePath:     getEnv("VECLITE_PATH", ""),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.GenerateTimeout, err = time.ParseDuration(getEnv("GENERATE_TIMEOUT", "90s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATE_TIMEOUT: %w", err)
	}

	cfg.RetryBackoff, err = time.ParseDuration(getEnv("RETRY_BACKOFF", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETRY_BACKOFF: %w", err)
	}

	cfg.MaxPromptChars, err = intEnv("MAX_PROMPT_CHARS", 4000)
	if err != nil {
		return nil, err
	}
	cfg.MaxNewTokens, err = intEnv("MAX_NEW_TOKENS", 300)
	if err != nil {
		return nil, err
	}
	cfg.ExemplarCount, err = intEnv("EXEMPLAR_COUNT", 3)
	if err != nil {
		return nil, err
	}
	cfg.RetryAttempts, err = intEnv("RETRY_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}

	cfg.Temperature, err = strconv.ParseFloat(getEnv("TEMPERATURE", "0.9"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TEMPERATURE: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	return nil
}

// ValidateForCorpus checks configuration needed for corpus commands.
func (c *Config) ValidateForCorpus() error {
	if c.CorpusPath == "" {
		return fmt.Errorf("CORPUS_PATH is required")
	}
	return nil
}

// ValidateForIndex checks configuration needed to build the exemplar index.
func (c *Config) ValidateForIndex() error {
	if err := c.ValidateForCorpus(); err != nil {
		return err
	}
	if c.VecLitePath == "" {
		return fmt.Errorf("VECLITE_PATH is required to build the exemplar index")
	}
	return nil
}

// ValidateForServe checks configuration needed for serve mode. The HF token
// is deliberately not required here: its absence surfaces as an
// authentication failure on the first generation call, not a crash.
func (c *Config) ValidateForServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func intEnv(key string, defaultVal int) (int, error) {
	val, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultVal)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return val, nil
}
