package mainconfig

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/wolfman30/woundlens-ai/internal/config"
	"github.com/wolfman30/woundlens-ai/internal/provider"
)

// LoadAWSConfig centralizes AWS SDK initialization so both binaries share the
// same LocalStack/production wiring.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return config.LoadDefaultConfig(ctx, loaders...)
}

// NewS3Client returns an S3 client honoring the endpoint override. Path-style
// addressing is forced when an override is set so LocalStack works.
func NewS3Client(awsCfg aws.Config, cfg *appconfig.Config) *s3.Client {
	endpoint := strings.TrimSpace(cfg.AWSEndpointOverride)
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// NewBedrockClient returns a Bedrock runtime client honoring the endpoint override.
func NewBedrockClient(awsCfg aws.Config, cfg *appconfig.Config) *bedrockruntime.Client {
	endpoint := strings.TrimSpace(cfg.AWSEndpointOverride)
	return bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// ProviderCredentials collects the vendor credentials the selector needs.
// awsCreds is resolved when a Claude client is first built so missing AWS
// credentials surface as a configuration error.
func ProviderCredentials(cfg *appconfig.Config, bedrock provider.BedrockConverseAPI, awsCreds aws.CredentialsProvider) provider.Credentials {
	creds := provider.Credentials{
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		GeminiAPIKey: cfg.GeminiAPIKey,
		XAIAPIKey:    cfg.XAIAPIKey,
		XAIBaseURL:   cfg.XAIBaseURL,
		Bedrock:      bedrock,
	}
	if bedrock != nil {
		creds.BedrockCredentials = func(ctx context.Context) error {
			if awsCreds == nil {
				return errors.New("no aws credentials provider configured")
			}
			c, err := awsCreds.Retrieve(ctx)
			if err != nil {
				return err
			}
			if !c.HasKeys() {
				return errors.New("aws credentials have no access keys")
			}
			return nil
		}
	}
	return creds
}

// AllowedModels returns the models the API serves: the configured list, or
// provider.DefaultModels, plus the default model.
func AllowedModels(cfg *appconfig.Config) []string {
	base := cfg.AllowedModels
	if len(base) == 0 {
		base = provider.DefaultModels
	}
	out := make([]string, 0, len(base)+1)
	out = append(out, base...)
	if m := strings.TrimSpace(cfg.DefaultModel); m != "" {
		out = append(out, m)
	}
	return out
}
