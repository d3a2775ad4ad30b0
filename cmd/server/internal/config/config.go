package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the unified server configuration, loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	CORS     CORSConfig
	Upload   UploadConfig
	Whisper  WhisperConfig
	LLM      LLMConfig
	Prompt   PromptConfig
	Audit    AuditConfig
	Demo     DemoConfig
	Frontend FrontendConfig
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Env  string // dev, staging, production
	Port string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // console, json
}

// CORSConfig holds browser origin allowances for the dashboard frontend.
type CORSConfig struct {
	AllowedOrigins []string
}

// UploadConfig holds audio upload handling settings.
type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

// WhisperConfig holds speech-to-text service settings.
type WhisperConfig struct {
	APIURL         string
	Model          string
	Language       string
	FallbackModels []string
	CheckInterval  int // seconds between health probes
	FailThreshold  int // consecutive failures before degradation
}

// LLMConfig holds evaluation model settings.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
}

// PromptConfig points at an optional prompt override file.
type PromptConfig struct {
	ConfigPath string
}

// AuditConfig holds the rotated audit log location.
type AuditConfig struct {
	LogPath string
}

// DemoConfig controls offline demo behavior.
type DemoConfig struct {
	Enabled bool
}

// FrontendConfig holds the prebuilt dashboard location.
type FrontendConfig struct {
	DistDir string
}

// GlobalConfig is the process-wide configuration instance.
var GlobalConfig *Config

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	maxSizeMB, err := strconv.ParseInt(getEnv("MAX_UPLOAD_SIZE_MB", "100"), 10, 64)
	if err != nil || maxSizeMB <= 0 {
		maxSizeMB = 100
	}

	temperature, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.1"), 64)
	if err != nil {
		temperature = 0.1
	}

	// FEATHERLESS_API_KEY kept as a fallback for deployments configured
	// against the hosted Featherless endpoint directly.
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("FEATHERLESS_API_KEY")
	}

	cfg := &Config{
		Server: ServerConfig{
			Env:  getEnv("ENV", "dev"),
			Port: getEnv("PORT", "8000"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseStringList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "./uploads"),
			MaxSizeBytes: maxSizeMB * 1024 * 1024,
		},
		Whisper: WhisperConfig{
			APIURL:         getEnv("WHISPER_API_URL", "http://localhost:8082"),
			Model:          getEnv("WHISPER_MODEL", "small"),
			Language:       getEnv("WHISPER_LANGUAGE", "cs"),
			FallbackModels: parseStringList(getEnv("WHISPER_MODEL_FALLBACKS", "base,tiny")),
			CheckInterval:  getEnvInt("WHISPER_CHECK_INTERVAL_SECONDS", 300),
			FailThreshold:  getEnvInt("WHISPER_FAIL_THRESHOLD", 3),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.featherless.ai/v1"),
			APIKey:      apiKey,
			Model:       getEnv("LLM_MODEL", "meta-llama/Meta-Llama-3.1-70B-Instruct"),
			Temperature: temperature,
		},
		Prompt: PromptConfig{
			ConfigPath: getEnv("PROMPT_CONFIG_PATH", ""),
		},
		Audit: AuditConfig{
			LogPath: getEnv("AUDIT_LOG_PATH", "./audit_logs/evaluations.log"),
		},
		Demo: DemoConfig{
			Enabled: parseBool(getEnv("DEMO_MODE", "false")),
		},
		Frontend: FrontendConfig{
			DistDir: getEnv("FRONTEND_DIST_DIR", "./frontend/dist"),
		},
	}

	GlobalConfig = cfg
	return cfg, nil
}

// ValidateConfig checks the loaded configuration for usable values.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: console, json)", cfg.Log.Format))
	}

	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	// A live pipeline needs an LLM key. Demo mode runs fully offline.
	if !cfg.Demo.Enabled && cfg.LLM.APIKey == "" {
		errors = append(errors, "LLM_API_KEY (or FEATHERLESS_API_KEY) is required unless DEMO_MODE=true")
	}

	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		errors = append(errors, fmt.Sprintf("invalid LLM_TEMPERATURE: %.2f (must be 0-2)", cfg.LLM.Temperature))
	}

	if cfg.Whisper.FailThreshold < 1 {
		errors = append(errors, "WHISPER_FAIL_THRESHOLD must be at least 1")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment reports whether the server runs in a development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "dev" || c.Server.Env == "development"
}

// GetServerAddr returns the listen address for the HTTP server.
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig renders the configuration with secrets masked.
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Logging:
    - Level: %s
    - Format: %s
  CORS Origins: %v
  Upload:
    - Dir: %s
    - Max Size: %d bytes
  Whisper:
    - API URL: %s
    - Model: %s (fallbacks: %v)
    - Language: %s
  LLM:
    - Base URL: %s
    - Model: %s
    - Temperature: %.2f
    - API Key: %s
  Demo Mode: %v
  Frontend Dist: %s`,
		c.Server.Env,
		c.Server.Port,
		c.Log.Level,
		c.Log.Format,
		c.CORS.AllowedOrigins,
		c.Upload.Dir,
		c.Upload.MaxSizeBytes,
		c.Whisper.APIURL,
		c.Whisper.Model,
		c.Whisper.FallbackModels,
		c.Whisper.Language,
		c.LLM.BaseURL,
		c.LLM.Model,
		c.LLM.Temperature,
		maskSecret(c.LLM.APIKey),
		c.Demo.Enabled,
		c.Frontend.DistDir,
	)
}

// helpers

// getEnv returns the environment variable value or a default when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// parseStringList splits a comma-separated value into trimmed entries.
func parseStringList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// maskSecret hides secret values in printed output.
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
