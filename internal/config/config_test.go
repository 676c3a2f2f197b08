package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(map[string]string{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Port != "8000" || cfg.VisionModel != "gpt-4o-mini" || cfg.FallbackModel != "gpt-4o" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Temperature != 0.8 || cfg.RefineTemperature != 0.3 || cfg.MaxRetries != 2 {
		t.Fatalf("unexpected model defaults %+v", cfg)
	}
	if cfg.GenerateTimeout != 120*time.Second || cfg.RefineTimeout != 30*time.Second {
		t.Fatalf("unexpected timeouts %v %v", cfg.GenerateTimeout, cfg.RefineTimeout)
	}
	if cfg.DBPath != filepath.Join("./data", "adcopy.db") {
		t.Fatalf("unexpected db path %q", cfg.DBPath)
	}
	if cfg.MaxFileBytes() != 15*1024*1024 {
		t.Fatalf("unexpected max file bytes %d", cfg.MaxFileBytes())
	}
	if cfg.AIEnabled() {
		t.Fatalf("AI must be disabled without a key")
	}
	if cfg.DiversityK != 3 || cfg.SimilarityThreshold != 0.6 {
		t.Fatalf("unexpected selection defaults %+v", cfg)
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(map[string]string{
		"TEAM_GPT_API_KEY":     "sk-test",
		"TEAM_GPT_BASE_URL":    "https://proxy.local/v1/",
		"STORAGE_ROOT":         "/srv/adcopy",
		"ALLOWED_ORIGINS":      "http://localhost:8501, ,http://127.0.0.1:8501",
		"REFINE_TIMEOUT":       "5s",
		"DISABLE_AI":           "false",
		"SIMILARITY_THRESHOLD": "0.75",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cfg.AIEnabled() {
		t.Fatalf("expected AI enabled with a key")
	}
	if cfg.OpenAIBaseURL != "https://proxy.local/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.OpenAIBaseURL)
	}
	if cfg.UploadDir() != filepath.Join("/srv/adcopy", "uploads") || cfg.DBPath != filepath.Join("/srv/adcopy", "adcopy.db") {
		t.Fatalf("unexpected storage paths %q %q", cfg.UploadDir(), cfg.DBPath)
	}
	if diff := cmp.Diff([]string{"http://localhost:8501", "http://127.0.0.1:8501"}, cfg.AllowedOrigins); diff != "" {
		t.Fatalf("origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.RefineTimeout != 5*time.Second || cfg.SimilarityThreshold != 0.75 {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	aiCfg := cfg.AI()
	if aiCfg.APIKey != "sk-test" || aiCfg.BaseURL != "https://proxy.local/v1" || aiCfg.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected ai config %+v", aiCfg)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name string
		vars map[string]string
	}{
		{"bad number", map[string]string{"MAX_FILE_MB": "lots"}},
		{"zero file size", map[string]string{"MAX_FILE_MB": "0"}},
		{"zero k", map[string]string{"DIVERSITY_K": "0"}},
		{"negative retries", map[string]string{"OPENAI_MAX_RETRIES": "-1"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.vars); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
