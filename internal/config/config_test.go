package config

import "testing"

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Clustering.SimilarityThreshold != 0.85 {
		t.Errorf("similarity threshold default = %g, want 0.85", cfg.Clustering.SimilarityThreshold)
	}
	if cfg.Clustering.RecencyWindowHours != 72 {
		t.Errorf("recency window default = %d, want 72", cfg.Clustering.RecencyWindowHours)
	}
	if cfg.Hotness.Threshold != 0.7 {
		t.Errorf("hotness threshold default = %g, want 0.7", cfg.Hotness.Threshold)
	}
	if cfg.Pipeline.DefaultTopK != 5 {
		t.Errorf("default top-k = %d, want 5", cfg.Pipeline.DefaultTopK)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("llm provider default = %q, want openai", cfg.LLM.Provider)
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	cfg := validConfig()
	cfg.Hotness.Weights = WeightsConfig{Materiality: 0.5, Velocity: 0.5, Breadth: 0.5}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for weights summing to 1.5")
	}
}

func TestValidate_SimilarityThresholdRange(t *testing.T) {
	for _, bad := range []float64{-0.1, 1.5} {
		cfg := validConfig()
		cfg.Clustering.SimilarityThreshold = bad
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for similarity threshold %g", bad)
		}
	}
}

func TestValidate_InvalidLLMProvider(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = "cohere"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown llm provider")
	}
	expected := `llm.provider must be "openai" or "anthropic", got "cohere"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RADAR_TEST_KEY", "secret")

	out := string(expandEnvVars([]byte("api_key: ${RADAR_TEST_KEY}\nmodel: ${RADAR_TEST_MODEL:-gpt-4o-mini}")))
	want := "api_key: secret\nmodel: gpt-4o-mini"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
