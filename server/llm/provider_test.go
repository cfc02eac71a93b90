package llm

import "testing"

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "OPENROUTER_API_KEY",
		"OPENAI_MODEL", "OPENROUTER_MODEL",
		"OPENAI_API_BASE", "OPENAI_BASE_URL",
		"OPENROUTER_API_BASE", "OPENROUTER_BASE_URL",
		"OPENAI_API_KEY_HEADER", "OPENROUTER_API_KEY_HEADER",
		"OPENAI_API_KEY_PREFIX", "OPENROUTER_API_KEY_PREFIX",
		"OPENAI_ORG", "LLM_PROVIDER",
		"OPENROUTER_SITE_URL", "OPENROUTER_TITLE",
	} {
		t.Setenv(k, "")
	}
}

func TestResolveAPIConfigOpenAIDefaults(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := resolveAPIConfig("gpt-5-mini")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Kind != providerOpenAI {
		t.Fatalf("kind = %v", cfg.Kind)
	}
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("base = %q", cfg.BaseURL)
	}
	if cfg.HeaderName != "Authorization" || cfg.HeaderPrefix != "Bearer " {
		t.Fatalf("auth header = %q / %q", cfg.HeaderName, cfg.HeaderPrefix)
	}
	if len(cfg.ExtraHeaders) != 0 {
		t.Fatalf("unexpected extra headers: %v", cfg.ExtraHeaders)
	}
}

func TestResolveAPIConfigOpenRouterFromBase(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_API_BASE", "https://openrouter.ai/api/v1/")

	cfg, err := resolveAPIConfig("anthropic/claude-sonnet")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Kind != providerOpenRouter {
		t.Fatalf("openrouter base should flip the provider, kind = %v", cfg.Kind)
	}
	if cfg.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("base should be trimmed: %q", cfg.BaseURL)
	}
	if cfg.ExtraHeaders["HTTP-Referer"] != defaultSiteURL {
		t.Fatalf("referer = %q", cfg.ExtraHeaders["HTTP-Referer"])
	}
	if cfg.ExtraHeaders["X-Title"] != defaultTitle {
		t.Fatalf("title = %q", cfg.ExtraHeaders["X-Title"])
	}
}

func TestResolveAPIConfigOpenRouterKeyOnly(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or-test")

	cfg, err := resolveAPIConfig("meta-llama/llama-3-70b")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Kind != providerOpenRouter {
		t.Fatalf("openrouter-only key should select openrouter, kind = %v", cfg.Kind)
	}
	if cfg.APIKey != "or-test" {
		t.Fatalf("key = %q", cfg.APIKey)
	}
	if cfg.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("base = %q", cfg.BaseURL)
	}
}

func TestResolveAPIConfigManualOverride(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_API_KEY", "or-test")
	t.Setenv("LLM_PROVIDER", "openai")

	cfg, err := resolveAPIConfig("gpt-5-mini")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Kind != providerOpenAI {
		t.Fatalf("override ignored, kind = %v", cfg.Kind)
	}
	if cfg.APIKey != "sk-test" {
		t.Fatalf("openai override should prefer the openai key, got %q", cfg.APIKey)
	}
}

func TestResolveAPIConfigMissingPieces(t *testing.T) {
	clearProviderEnv(t)
	if _, err := resolveAPIConfig("gpt-5-mini"); err == nil {
		t.Fatal("missing key should error")
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")
	if _, err := resolveAPIConfig(""); err == nil {
		t.Fatal("missing model should error")
	}
	t.Setenv("OPENAI_MODEL", "gpt-5-mini")
	cfg, err := resolveAPIConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "gpt-5-mini" {
		t.Fatalf("model fallback = %q", cfg.Model)
	}
}

func TestResolveAPIConfigCustomHeader(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_API_KEY_HEADER", "api-key")

	cfg, err := resolveAPIConfig("gpt-5-mini")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HeaderName != "api-key" {
		t.Fatalf("header = %q", cfg.HeaderName)
	}
	if cfg.HeaderPrefix != "" {
		t.Fatalf("non-Authorization header must not get a Bearer prefix, got %q", cfg.HeaderPrefix)
	}
}
