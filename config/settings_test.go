package config

import (
	"testing"
)

func TestNewValidProvider(t *testing.T) {
	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", settings.LLM.Provider)
	}
}

func TestNewWithAlias(t *testing.T) {
	settings, err := New("google")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "gemini" {
		t.Errorf("expected provider 'gemini' (normalized from 'google'), got %q", settings.LLM.Provider)
	}
}

func TestNewDefaults(t *testing.T) {
	t.Setenv("ZERB_PROVIDER", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("LLM_TEMPERATURE", "")
	t.Setenv("LLM_MAX_TOKENS", "")
	t.Setenv("ZERB_DB", "")
	t.Setenv("ZERB_LOG_LEVEL", "")

	settings, err := New("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != DefaultProvider {
		t.Errorf("expected default provider, got %q", settings.LLM.Provider)
	}
	if settings.LLM.Model != "gemini-3-pro-preview" {
		t.Errorf("unexpected default model %q", settings.LLM.Model)
	}
	if settings.LLM.Temperature != 0.1 {
		t.Errorf("expected temperature 0.1, got %v", settings.LLM.Temperature)
	}
	if settings.LLM.MaxTokens != 8192 {
		t.Errorf("expected 8192 max tokens, got %d", settings.LLM.MaxTokens)
	}
	if settings.Storage.DBPath != ".zerb/zerb.db" {
		t.Errorf("unexpected db path %q", settings.Storage.DBPath)
	}
	if settings.Log.Level != "warn" {
		t.Errorf("unexpected log level %q", settings.Log.Level)
	}
}

func TestNewProviderFromEnv(t *testing.T) {
	t.Setenv("ZERB_PROVIDER", "claude")
	settings, err := New("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "anthropic" {
		t.Errorf("expected anthropic, got %q", settings.LLM.Provider)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("unknown_provider")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestAPIKeyForValidProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	key, err := APIKeyFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "test-key" {
		t.Errorf("expected 'test-key', got %q", key)
	}
}

func TestAPIKeyForMissing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := APIKeyFor("gemini")
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestAPIKeyForUnknownProvider(t *testing.T) {
	_, err := APIKeyFor("unknown")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestModelForOverride(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "gpt-custom")
	model, err := ModelFor("gpt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model != "gpt-custom" {
		t.Errorf("expected override, got %q", model)
	}
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	cases := map[string]string{
		"LLM_MAX_TOKENS":  "not-a-number",
		"LLM_TEMPERATURE": "3.5",
		"ZERB_LOG_LEVEL":  "loud",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := New("openai"); err == nil {
				t.Errorf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for unknown provider")
		}
	}()
	MustNew("unknown_provider")
}

func TestSupportedProviders(t *testing.T) {
	got := SupportedProviders()
	want := []string{"anthropic", "deepseek", "gemini", "openai"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
