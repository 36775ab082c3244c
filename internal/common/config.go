package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LLM providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all application configuration
type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	Reader ReaderConfig `yaml:"reader"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// LLMConfig holds generative API configuration
type LLMConfig struct {
	Provider       string        `yaml:"provider"`
	APIKey         string        `yaml:"api_key,omitempty"`
	BaseURL        string        `yaml:"base_url,omitempty"`
	Model          string        `yaml:"model"`
	FlashcardModel string        `yaml:"flashcard_model"`
	Timeout        time.Duration `yaml:"timeout"` // 0 = no timeout
}

// ReaderConfig holds document reader configuration
type ReaderConfig struct {
	Pdftotext string `yaml:"pdftotext"`
}

// ServerConfig holds daemon configuration
type ServerConfig struct {
	GRPCAddr      string        `yaml:"grpc_addr"`
	Workers       int           `yaml:"workers"`
	QueueSize     int           `yaml:"queue_size"`
	RunTimeout    time.Duration `yaml:"run_timeout"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SweepSchedule string        `yaml:"sweep_schedule"` // cron spec
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string `yaml:"format"` // text | json
	Level  string `yaml:"level"`
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       ProviderGemini,
			Model:          "gemini-2.0-flash",
			FlashcardModel: "gemini-1.5-flash",
		},
		Reader: ReaderConfig{
			Pdftotext: "pdftotext",
		},
		Server: ServerConfig{
			GRPCAddr:      ":8080",
			Workers:       4,
			QueueSize:     64,
			RunTimeout:    5 * time.Minute,
			SessionTTL:    time.Hour,
			SweepSchedule: "@every 5m",
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// LoadConfig loads defaults, then the optional YAML file at path, then
// environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LLM.Provider = strings.ToLower(getEnv("STUDYPLANNER_LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = getEnv("STUDYPLANNER_LLM_MODEL", c.LLM.Model)
	c.LLM.FlashcardModel = getEnv("STUDYPLANNER_FLASHCARD_MODEL", c.LLM.FlashcardModel)
	c.LLM.BaseURL = getEnv("STUDYPLANNER_LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Timeout = getEnvAsDuration("STUDYPLANNER_LLM_TIMEOUT", c.LLM.Timeout)

	keyVar := "GEMINI_API_KEY"
	if c.LLM.Provider == ProviderOpenAI {
		keyVar = "OPENAI_API_KEY"
		// gemini model names are meaningless to the openai provider
		if strings.HasPrefix(c.LLM.Model, "gemini") {
			c.LLM.Model = "gpt-4o-mini"
		}
		if strings.HasPrefix(c.LLM.FlashcardModel, "gemini") {
			c.LLM.FlashcardModel = ""
		}
	}
	c.LLM.APIKey = getEnv(keyVar, c.LLM.APIKey)

	c.Reader.Pdftotext = getEnv("PDFTOTEXT", c.Reader.Pdftotext)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.Workers = getEnvAsInt("STUDYPLANNER_WORKERS", c.Server.Workers)
	c.Server.RunTimeout = getEnvAsDuration("STUDYPLANNER_RUN_TIMEOUT", c.Server.RunTimeout)
	c.Server.SessionTTL = getEnvAsDuration("STUDYPLANNER_SESSION_TTL", c.Server.SessionTTL)
	c.Server.SweepSchedule = getEnv("STUDYPLANNER_SWEEP_SCHEDULE", c.Server.SweepSchedule)

	c.Log.Format = getEnv("STUDYPLANNER_LOG_FORMAT", c.Log.Format)
	c.Log.Level = getEnv("STUDYPLANNER_LOG_LEVEL", c.Log.Level)
}

// SaveConfig writes cfg as YAML via a temp file + rename. The API key is
// never written.
func SaveConfig(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	out := *cfg
	out.LLM.APIKey = ""

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".studyplanner-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.APIKey == "" {
			return NewAppError(CodeConfig, "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown llm provider %q", c.LLM.Provider), ErrInvalidInput)
	}
	if c.LLM.Model == "" {
		return NewAppError(CodeConfig, "llm model is required", ErrInvalidInput)
	}
	if c.Server.Workers <= 0 {
		return NewAppError(CodeConfig, "server workers must be positive", ErrInvalidInput)
	}
	return nil
}

// ValidateServer additionally checks settings only the daemon needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Server.SessionTTL <= 0 {
		return NewAppError(CodeConfig, "session ttl must be positive", ErrInvalidInput)
	}
	return nil
}
