package mainconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"

	appconfig "github.com/wolfman30/woundlens-ai/internal/config"
	"github.com/wolfman30/woundlens-ai/internal/provider"
	"github.com/wolfman30/woundlens-ai/pkg/logging"
)

func TestLoadAWSConfigUsesStaticCredentials(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:          "us-west-2",
		AWSAccessKeyID:     "AKIDEXAMPLE",
		AWSSecretAccessKey: "secret",
	}
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("load aws config: %v", err)
	}
	if awsCfg.Region != "us-west-2" {
		t.Fatalf("expected region us-west-2, got %s", awsCfg.Region)
	}
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "AKIDEXAMPLE" {
		t.Fatalf("expected static access key, got %s", creds.AccessKeyID)
	}
}

func TestEndpointOverride(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:           "us-east-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
	}
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("load aws config: %v", err)
	}
	s3Client := NewS3Client(awsCfg, cfg)
	if got := s3Client.Options().BaseEndpoint; got == nil || *got != "http://localhost:4566" {
		t.Fatalf("expected s3 endpoint override, got %v", got)
	}
	if !s3Client.Options().UsePathStyle {
		t.Fatalf("expected path-style addressing with an override")
	}
	br := NewBedrockClient(awsCfg, cfg)
	if got := br.Options().BaseEndpoint; got == nil || *got != "http://localhost:4566" {
		t.Fatalf("expected bedrock endpoint override, got %v", got)
	}
}

func TestProviderCredentials(t *testing.T) {
	cfg := &appconfig.Config{OpenAIAPIKey: "o", GeminiAPIKey: "g", XAIAPIKey: "x", XAIBaseURL: "https://x"}
	creds := ProviderCredentials(cfg, nil, nil)
	if creds.OpenAIAPIKey != "o" || creds.GeminiAPIKey != "g" || creds.XAIAPIKey != "x" || creds.XAIBaseURL != "https://x" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if creds.Bedrock != nil || creds.BedrockCredentials != nil {
		t.Fatalf("expected no bedrock wiring")
	}
}

func TestProviderCredentialsChecksAWSCredentials(t *testing.T) {
	cfg := &appconfig.Config{AWSRegion: "us-east-1"}
	awsCfg := aws.Config{Region: "us-east-1"}
	br := NewBedrockClient(awsCfg, cfg)

	missing := ProviderCredentials(cfg, br, aws.AnonymousCredentials{})
	if err := missing.BedrockCredentials(context.Background()); err == nil {
		t.Fatalf("expected anonymous credentials to be rejected")
	}
	if err := ProviderCredentials(cfg, br, nil).BedrockCredentials(context.Background()); err == nil {
		t.Fatalf("expected nil provider to be rejected")
	}

	static := credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", "")
	if err := ProviderCredentials(cfg, br, static).BedrockCredentials(context.Background()); err != nil {
		t.Fatalf("expected static credentials to pass, got %v", err)
	}

	_, err := provider.NewSelector(missing, provider.Options{Logger: logging.Discard()}).
		Select(context.Background(), "anthropic.claude-3-5-sonnet-20240620-v1:0")
	if !errors.Is(err, provider.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestAllowedModels(t *testing.T) {
	got := AllowedModels(&appconfig.Config{DefaultModel: "gemini-2.5-pro"})
	if len(got) != len(provider.DefaultModels)+1 || got[len(got)-1] != "gemini-2.5-pro" {
		t.Fatalf("unexpected default allowlist %v", got)
	}

	got = AllowedModels(&appconfig.Config{AllowedModels: []string{"grok-4"}, DefaultModel: "gpt-4o"})
	if len(got) != 2 || got[0] != "grok-4" || got[1] != "gpt-4o" {
		t.Fatalf("unexpected configured allowlist %v", got)
	}
}
