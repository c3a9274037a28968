package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/wolfman30/woundlens-ai/internal/assessment"
	"github.com/wolfman30/woundlens-ai/internal/history"
)

const providerClaude = "claude"

// BedrockConverseAPI is the subset of *bedrockruntime.Client used here.
type BedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient runs Anthropic Claude models through the Bedrock Converse API.
type BedrockClient struct {
	api   BedrockConverseAPI
	model string
	inv   invoker
}

func NewBedrockClient(api BedrockConverseAPI, model string, opts Options) (*BedrockClient, error) {
	if api == nil {
		return nil, fmt.Errorf("%w: bedrock runtime client is not configured", ErrMissingCredentials)
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("provider: bedrock model id is required")
	}
	return &BedrockClient{api: api, model: model, inv: newInvoker(providerClaude, model, opts)}, nil
}

func (c *BedrockClient) Model() string { return c.model }

func (c *BedrockClient) Analyze(ctx context.Context, prompt string, image Image) (string, error) {
	format, err := bedrockImageFormat(image.mimeType())
	if err != nil {
		return "", err
	}
	if len(image.Data) == 0 {
		return "", errors.New("provider: claude analyze requires an image")
	}
	content := []brtypes.ContentBlock{
		&brtypes.ContentBlockMemberText{Value: prompt},
		&brtypes.ContentBlockMemberImage{Value: brtypes.ImageBlock{
			Format: format,
			Source: &brtypes.ImageSourceMemberBytes{Value: image.Data},
		}},
	}
	return c.inv.do(ctx, opAnalyze, func(ctx context.Context) (string, error) {
		return c.converse(ctx, claudeClinicalProtocol, content, 2000, 0.2)
	})
}

func (c *BedrockClient) ExpandPlan(ctx context.Context, rawAnalysis string, fa assessment.FormattedAssessment, location string) (json.RawMessage, error) {
	plan, err := treatmentPlanExcerpt(rawAnalysis)
	if err != nil {
		return nil, err
	}
	content := []brtypes.ContentBlock{
		&brtypes.ContentBlockMemberText{Value: fmt.Sprintf(claudeExpandPrompt, plan, location, joinOrNone(fa.PatientOverview.HealthRiskFactors))},
	}
	text, err := c.inv.do(ctx, opExpandPlan, func(ctx context.Context) (string, error) {
		return c.converse(ctx, claudeJSONSystem, content, 2000, 0.1)
	})
	if err != nil {
		return nil, err
	}
	return decodeJSONReply(text)
}

func (c *BedrockClient) ReviseProducts(ctx context.Context, rawAnalysis string, reason RevisionReason) (json.RawMessage, error) {
	products, err := productsExcerpt(rawAnalysis)
	if err != nil {
		return nil, err
	}
	instruction := instructionFor(claudeRevisionInstructions, reason)
	content := []brtypes.ContentBlock{
		&brtypes.ContentBlockMemberText{Value: fmt.Sprintf(claudeRevisePrompt, reason, instruction, products)},
	}
	text, err := c.inv.do(ctx, opReviseProducts, func(ctx context.Context) (string, error) {
		return c.converse(ctx, claudeJSONSystem, content, 1000, 0.1)
	})
	if err != nil {
		return nil, err
	}
	return decodeJSONReply(text)
}

func (c *BedrockClient) HealingProgress(ctx context.Context, doc *history.Document) (HealingProgress, error) {
	if doc == nil {
		return HealingProgress{}, errors.New("provider: claude healing progress requires a rendered history")
	}
	pdf, err := doc.ReadPDF()
	if err != nil {
		return HealingProgress{}, fmt.Errorf("provider: read history document: %w", err)
	}
	content := []brtypes.ContentBlock{
		&brtypes.ContentBlockMemberDocument{Value: brtypes.DocumentBlock{
			Format: brtypes.DocumentFormatPdf,
			Name:   aws.String("wound-history"),
			Source: &brtypes.DocumentSourceMemberBytes{Value: pdf},
		}},
		&brtypes.ContentBlockMemberText{Value: claudeHealingRubric},
	}
	text, err := c.inv.do(ctx, opHealingProgress, func(ctx context.Context) (string, error) {
		return c.converse(ctx, claudeJSONSystem, content, 1024, 0)
	})
	if err != nil {
		return HealingProgress{}, err
	}
	return decodeHealingReply(text)
}

func (c *BedrockClient) converse(ctx context.Context, system string, content []brtypes.ContentBlock, maxTokens int32, temperature float32) (string, error) {
	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.model),
		System: []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: system},
		},
		Messages: []brtypes.Message{{
			Role:    brtypes.ConversationRoleUser,
			Content: content,
		}},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(maxTokens),
			Temperature: aws.Float32(temperature),
		},
	})
	if err != nil {
		return "", fmt.Errorf("provider: bedrock converse: %w", err)
	}
	switch out.StopReason {
	case brtypes.StopReasonEndTurn, brtypes.StopReasonStopSequence, "":
	default:
		return "", &BlockedResponseError{Provider: providerClaude, Reason: string(out.StopReason)}
	}
	return bedrockOutputText(out)
}

func bedrockOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", fmt.Errorf("%w: bedrock response is nil", ErrEmptyResponse)
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("%w: bedrock response did not include a message", ErrEmptyResponse)
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: bedrock response contained no text", ErrEmptyResponse)
	}
	return b.String(), nil
}

func bedrockImageFormat(mime string) (brtypes.ImageFormat, error) {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return brtypes.ImageFormatJpeg, nil
	case "image/png":
		return brtypes.ImageFormatPng, nil
	case "image/gif":
		return brtypes.ImageFormatGif, nil
	case "image/webp":
		return brtypes.ImageFormatWebp, nil
	default:
		return "", fmt.Errorf("provider: claude does not accept %s images", mime)
	}
}
