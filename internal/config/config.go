package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port         string
	Env          string
	LogLevel     string
	DefaultModel string
	// AllowedModels limits which model names requests may select.
	AllowedModels []string

	// Provider credentials
	OpenAIAPIKey string
	GeminiAPIKey string
	XAIAPIKey    string
	XAIBaseURL   string

	// AWS (Bedrock provider and document archive)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// File handling
	UploadDir      string
	DocumentDir    string
	DocumentBucket string
	MaxUploadBytes int64

	// Throttling
	ProviderRateLimit float64
	HTTPRateLimit     float64
	HTTPRateBurst     int

	CORSAllowedOrigins []string
	RequestTimeout     time.Duration

	// APIKey, when set, must accompany every analysis request.
	APIKey string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DefaultModel: getEnv("DEFAULT_MODEL", "gpt-4o"),

		AllowedModels: getEnvAsList("ALLOWED_MODELS"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		XAIAPIKey:    getEnv("XAI_API_KEY", ""),
		XAIBaseURL:   getEnv("XAI_BASE_URL", "https://api.x.ai/v1"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		UploadDir:      getEnv("UPLOAD_DIR", "temp_images"),
		DocumentDir:    getEnv("DOCUMENT_DIR", "generated_pdfs"),
		DocumentBucket: getEnv("DOCUMENT_BUCKET", ""),
		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 20<<20)),

		ProviderRateLimit: getEnvAsFloat("PROVIDER_RATE_LIMIT", 0),
		HTTPRateLimit:     getEnvAsFloat("HTTP_RATE_LIMIT", 5),
		HTTPRateBurst:     getEnvAsInt("HTTP_RATE_BURST", 10),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 2*time.Minute),

		APIKey: getEnv("API_KEY", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
