// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// DefaultProvider is used when neither a flag nor ZERB_PROVIDER names one.
const DefaultProvider = "gemini"

// Settings holds all application configuration.
type Settings struct {
	LLM     LLMConfig
	Storage StorageConfig
	Log     LogConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   uint32
	Temperature float64
}

// StorageConfig holds session persistence configuration.
type StorageConfig struct {
	DBPath string
}

// LogConfig holds structured logging configuration.
type LogConfig struct {
	Level string
	// Path is the log file; empty means stderr.
	Path string
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-5.2", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-3-pro-preview", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// New creates settings for the specified provider, loading values from environment variables.
// An empty provider falls back to ZERB_PROVIDER and then DefaultProvider.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	provider = ResolveProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 8192)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.1)
	if err != nil {
		return Settings{}, err
	}
	if temperature < 0 || temperature > 2 {
		return Settings{}, fmt.Errorf("invalid value for LLM_TEMPERATURE: %v is outside [0, 2]", temperature)
	}

	level := strings.ToLower(getEnvString("ZERB_LOG_LEVEL", "warn"))
	if !logLevels[level] {
		return Settings{}, fmt.Errorf("invalid value for ZERB_LOG_LEVEL: %q", level)
	}

	return Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       getEnvString(info.modelEnv, info.defaultModel),
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Storage: StorageConfig{
			DBPath: getEnvString("ZERB_DB", ".zerb/zerb.db"),
		},
		Log: LogConfig{
			Level: level,
			Path:  os.Getenv("ZERB_LOG_FILE"),
		},
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// ResolveProvider applies the ZERB_PROVIDER fallback and alias normalization.
func ResolveProvider(provider string) string {
	if provider == "" {
		provider = getEnvString("ZERB_PROVIDER", DefaultProvider)
	}
	return normalizeProvider(provider)
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = ResolveProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = ResolveProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}
	return getEnvString(info.modelEnv, info.defaultModel), nil
}

// SupportedProviders returns the sorted list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
