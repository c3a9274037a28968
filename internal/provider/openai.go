package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/wolfman30/woundlens-ai/internal/assessment"
	"github.com/wolfman30/woundlens-ai/internal/history"
)

const providerOpenAI = "openai"

// OpenAIClient talks to the OpenAI chat completions API.
type OpenAIClient struct {
	api   chatCompletionAPI
	model string
	inv   invoker
}

// NewOpenAIClient builds a client from an API key.
func NewOpenAIClient(apiKey, model string, opts Options) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrMissingCredentials)
	}
	return newOpenAIClient(openai.NewClient(apiKey), model, opts), nil
}

func newOpenAIClient(api chatCompletionAPI, model string, opts Options) *OpenAIClient {
	if api == nil {
		panic("provider: openai client cannot be nil")
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o"
	}
	return &OpenAIClient{api: api, model: model, inv: newInvoker(providerOpenAI, model, opts)}
}

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) Analyze(ctx context.Context, prompt string, image Image) (string, error) {
	if len(image.Data) == 0 {
		return "", errors.New("provider: openai analyze requires an image")
	}
	req := openai.ChatCompletionRequest{
		Model:               c.model,
		MaxCompletionTokens: 2000,
		Temperature:         0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAIClinicalProtocol},
			{Role: openai.ChatMessageRoleUser, MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    image.DataURL(),
					Detail: openai.ImageURLDetailHigh,
				}},
			}},
		},
	}
	return c.inv.do(ctx, opAnalyze, func(ctx context.Context) (string, error) {
		return c.complete(ctx, req)
	})
}

func (c *OpenAIClient) ExpandPlan(ctx context.Context, rawAnalysis string, fa assessment.FormattedAssessment, location string) (json.RawMessage, error) {
	plan, err := treatmentPlanExcerpt(rawAnalysis)
	if err != nil {
		return nil, err
	}
	req := c.jsonRequest(openAIExpandSystem,
		fmt.Sprintf(openAIExpandPrompt, plan, location, joinOrNone(fa.PatientOverview.HealthRiskFactors)),
		2000)
	text, err := c.inv.do(ctx, opExpandPlan, func(ctx context.Context) (string, error) {
		return c.complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return decodeJSONReply(text)
}

func (c *OpenAIClient) ReviseProducts(ctx context.Context, rawAnalysis string, reason RevisionReason) (json.RawMessage, error) {
	products, err := productsExcerpt(rawAnalysis)
	if err != nil {
		return nil, err
	}
	instruction := instructionFor(openAIRevisionInstructions, reason)
	req := c.jsonRequest(openAIReviseSystem,
		fmt.Sprintf(openAIRevisePrompt, reason, instruction, products),
		1000)
	text, err := c.inv.do(ctx, opReviseProducts, func(ctx context.Context) (string, error) {
		return c.complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return decodeJSONReply(text)
}

func (c *OpenAIClient) HealingProgress(ctx context.Context, doc *history.Document) (HealingProgress, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return HealingProgress{}, errors.New("provider: openai healing progress requires a rendered history")
	}
	req := openai.ChatCompletionRequest{
		Model:               c.model,
		MaxCompletionTokens: 1024,
		Temperature:         deterministicTemperature,
		ResponseFormat:      &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: historyParts(openAIHealingRubric, doc)},
		},
	}
	text, err := c.inv.do(ctx, opHealingProgress, func(ctx context.Context) (string, error) {
		return c.complete(ctx, req)
	})
	if err != nil {
		return HealingProgress{}, err
	}
	return decodeHealingReply(text)
}

func (c *OpenAIClient) jsonRequest(system, user string, maxTokens int) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:               c.model,
		MaxCompletionTokens: maxTokens,
		Temperature:         0.1,
		ResponseFormat:      &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
}

func (c *OpenAIClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("provider: openai chat completion: %w", err)
	}
	return chatText(providerOpenAI, resp)
}
