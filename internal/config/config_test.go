package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "DEFAULT_MODEL", "UPLOAD_DIR", "DOCUMENT_DIR", "DOCUMENT_BUCKET", "CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT", "PROVIDER_RATE_LIMIT"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.DefaultModel != "gpt-4o" {
		t.Fatalf("expected default model gpt-4o, got %s", cfg.DefaultModel)
	}
	if cfg.XAIBaseURL != "https://api.x.ai/v1" {
		t.Fatalf("expected default xai base url, got %s", cfg.XAIBaseURL)
	}
	if cfg.UploadDir != "temp_images" || cfg.DocumentDir != "generated_pdfs" {
		t.Fatalf("unexpected default dirs %q %q", cfg.UploadDir, cfg.DocumentDir)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RequestTimeout != 2*time.Minute {
		t.Fatalf("expected default request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.ProviderRateLimit != 0 {
		t.Fatalf("expected provider rate limit disabled, got %v", cfg.ProviderRateLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEFAULT_MODEL", "gemini-2.5-pro")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("PROVIDER_RATE_LIMIT", "0.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example, ,https://b.example ")
	t.Setenv("REQUEST_TIMEOUT", "45s")
	t.Setenv("DOCUMENT_BUCKET", "wound-docs")
	t.Setenv("API_KEY", "k-123")
	t.Setenv("ALLOWED_MODELS", "gpt-4o, gemini-2.5-pro")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DefaultModel != "gemini-2.5-pro" {
		t.Fatalf("expected model override, got %s", cfg.DefaultModel)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Fatalf("expected upload limit override, got %d", cfg.MaxUploadBytes)
	}
	if cfg.ProviderRateLimit != 0.5 {
		t.Fatalf("expected provider rate override, got %v", cfg.ProviderRateLimit)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.RequestTimeout)
	}
	if cfg.DocumentBucket != "wound-docs" {
		t.Fatalf("expected bucket override, got %s", cfg.DocumentBucket)
	}
	if cfg.APIKey != "k-123" {
		t.Fatalf("expected api key override, got %s", cfg.APIKey)
	}
	if len(cfg.AllowedModels) != 2 || cfg.AllowedModels[1] != "gemini-2.5-pro" {
		t.Fatalf("unexpected allowed models %v", cfg.AllowedModels)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("HTTP_RATE_BURST", "lots")
	t.Setenv("REQUEST_TIMEOUT", "soon")
	cfg := Load()
	if cfg.HTTPRateBurst != 10 {
		t.Fatalf("expected default burst, got %d", cfg.HTTPRateBurst)
	}
	if cfg.RequestTimeout != 2*time.Minute {
		t.Fatalf("expected default timeout, got %s", cfg.RequestTimeout)
	}
}
