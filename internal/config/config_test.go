package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults_Recommend(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Recommend.DefaultAlpha != 0.5 {
		t.Errorf("default alpha = %g, want 0.5", cfg.Recommend.DefaultAlpha)
	}
	if cfg.Recommend.DefaultTopK != 10 {
		t.Errorf("default top_k = %d, want 10", cfg.Recommend.DefaultTopK)
	}
	if cfg.Recommend.DimensionPenalty != 0.4 {
		t.Errorf("dimension penalty = %g, want 0.4", cfg.Recommend.DimensionPenalty)
	}
	if cfg.Recommend.SimilarityEpsilon != 1e-8 {
		t.Errorf("similarity epsilon = %g, want 1e-8", cfg.Recommend.SimilarityEpsilon)
	}

	want := []string{"frame", "dining"}
	if len(cfg.Recommend.CategoryStripWords) != len(want) {
		t.Fatalf("strip words = %v, want %v", cfg.Recommend.CategoryStripWords, want)
	}
	for i, w := range want {
		if cfg.Recommend.CategoryStripWords[i] != w {
			t.Errorf("strip words[%d] = %q, want %q", i, cfg.Recommend.CategoryStripWords[i], w)
		}
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 0")
	}
}

func TestValidate_AlphaOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Recommend.DefaultAlpha = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for alpha > 1")
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding = EmbeddingConfig{
		Providers: map[string]ProviderConfig{
			"nebius": {
				APIKey: "test-key",
				Budget: BudgetConfig{
					DailyTokenLimit: 1000000,
					Action:          "invalid_action",
				},
			},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.providers.nebius.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	validActions := []string{"", "warn", "reject"}

	for _, action := range validActions {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding = EmbeddingConfig{
				Providers: map[string]ProviderConfig{
					"nebius": {
						APIKey: "test-key",
						Budget: BudgetConfig{Action: action},
					},
				},
			}

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_VectorizerUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding = EmbeddingConfig{
		Providers: map[string]ProviderConfig{"nebius": {APIKey: "k"}},
		Vectorizers: map[string]VectorizerConfig{
			"clip": {Provider: "missing", Model: "clip-vit-b-32"},
		},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for vectorizer referencing unknown provider")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FURNISH_TEST_KEY", "secret")
	os.Unsetenv("FURNISH_TEST_MISSING")

	in := []byte("api_key: ${FURNISH_TEST_KEY}\nport: ${FURNISH_TEST_MISSING:-8080}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nport: 8080\n"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
