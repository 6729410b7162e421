package llm

import "fmt"

// ProviderType names a model backend.
type ProviderType string

const (
	ProviderGemini    ProviderType = "gemini"
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderDeepSeek  ProviderType = "deepseek"
)

// DefaultMaxTokens is used when Config leaves MaxTokens zero.
const DefaultMaxTokens = 8192

// Config selects the model and its sampling limits. Model is required;
// defaults per provider live in the config package.
type Config struct {
	Model       string
	MaxTokens   uint32
	Temperature float32
}

// ParseProviderType accepts a canonical provider name.
func ParseProviderType(s string) (ProviderType, error) {
	switch t := ProviderType(s); t {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderDeepSeek:
		return t, nil
	default:
		return "", fmt.Errorf("unknown provider: %s", s)
	}
}

// NewProvider builds the streaming provider for t.
func NewProvider(t ProviderType, apiKey string, cfg Config) (Provider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: model is required", t)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s: API key is required", t)
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	switch t {
	case ProviderGemini:
		return NewGeminiProvider(apiKey, cfg.Model, cfg.MaxTokens, cfg.Temperature), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, cfg.Model, cfg.MaxTokens, cfg.Temperature), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, cfg.Model, cfg.MaxTokens, cfg.Temperature), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(apiKey, cfg.Model, cfg.MaxTokens, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q", t)
	}
}
