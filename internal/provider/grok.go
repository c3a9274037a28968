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

const (
	providerGrok       = "grok"
	DefaultXAIBaseURL  = "https://api.x.ai/v1"
	defaultGrokModelID = "grok-4"
)

// Arguments: brief plan, wound location.
const grokExpandPrompt = `Based on the original treatment plan below, provide a comprehensive expanded treatment plan for a wound located on the %[2]s.
You MUST return a single, valid JSON object and nothing else. Do not include any introductory text or markdown formatting.
The JSON object must have three keys: "recommendations" (a list of objects, each with "action" and "rationale"), "ongoing_care" (a string), and "patient_education" (a string).

--- EXAMPLE of desired JSON structure ---
{
  "recommendations": [
    {
      "action": "Perform a focused in-person wound assessment including calibrated measurements...",
      "rationale": "Accurate characterization and microbiology are necessary to direct appropriate therapy."
    }
  ],
  "ongoing_care": "Change dressings every 48–72 hours or sooner if saturated...",
  "patient_education": "Educate the patient and caregiver on signs of infection and the importance of dressing changes."
}
--- END EXAMPLE ---

Now, generate the JSON for the following case:

**Original Brief Treatment Plan:**
%[1]s`

const grokHealingRubric = `You are a world-class wound care specialist. The messages that follow contain the complete history of a single wound, one assessment per page, oldest first.
Provide a nuanced 'Healing Progress Percentage' for the LATEST assessment compared to the earlier ones.

Definitions:
- 0% is the initial state of the wound (the first image).
- 100% is fully healed: a faint, pale, non-erythematous (not red) scar with fully restored skin integrity.
- A wound closed with sutures that still shows significant redness, swelling, or a prominent fresh scar is intermediate (e.g., 60-80%), NOT 100%.
- A wound that is smaller but still open with granulation tissue might be around 50%.

You MUST respond with only a single, valid JSON object containing one key: "healing_progress_percentage", an integer.`

// GrokClient talks to xAI's OpenAI-compatible chat completions endpoint.
type GrokClient struct {
	api   chatCompletionAPI
	model string
	inv   invoker
}

// NewGrokClient builds a client for baseURL (DefaultXAIBaseURL when empty).
func NewGrokClient(apiKey, baseURL, model string, opts Options) (*GrokClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: XAI_API_KEY is not set", ErrMissingCredentials)
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = DefaultXAIBaseURL
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return newGrokClient(openai.NewClientWithConfig(cfg), model, opts), nil
}

func newGrokClient(api chatCompletionAPI, model string, opts Options) *GrokClient {
	if api == nil {
		panic("provider: grok client cannot be nil")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultGrokModelID
	}
	return &GrokClient{api: api, model: model, inv: newInvoker(providerGrok, model, opts)}
}

func (c *GrokClient) Model() string { return c.model }

func (c *GrokClient) Analyze(ctx context.Context, prompt string, image Image) (string, error) {
	if len(image.Data) == 0 {
		return "", errors.New("provider: grok analyze requires an image")
	}
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   2000,
		Temperature: 0.2,
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

// ExpandPlan sends the brief plan and wound location only.
func (c *GrokClient) ExpandPlan(ctx context.Context, rawAnalysis string, _ assessment.FormattedAssessment, location string) (json.RawMessage, error) {
	plan, err := treatmentPlanExcerpt(rawAnalysis)
	if err != nil {
		return nil, err
	}
	req := c.textRequest(openAIExpandSystem, fmt.Sprintf(grokExpandPrompt, plan, location), 2000, 0.1)
	text, err := c.inv.do(ctx, opExpandPlan, func(ctx context.Context) (string, error) {
		return c.complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return decodeJSONReply(text)
}

func (c *GrokClient) ReviseProducts(ctx context.Context, rawAnalysis string, reason RevisionReason) (json.RawMessage, error) {
	products, err := productsExcerpt(rawAnalysis)
	if err != nil {
		return nil, err
	}
	instruction := instructionFor(openAIRevisionInstructions, reason)
	req := c.textRequest(openAIReviseSystem, fmt.Sprintf(openAIRevisePrompt, reason, instruction, products), 1000, 0.1)
	text, err := c.inv.do(ctx, opReviseProducts, func(ctx context.Context) (string, error) {
		return c.complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return decodeJSONReply(text)
}

func (c *GrokClient) HealingProgress(ctx context.Context, doc *history.Document) (HealingProgress, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return HealingProgress{}, errors.New("provider: grok healing progress requires a rendered history")
	}
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   1024,
		Temperature: deterministicTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: historyParts(grokHealingRubric, doc)},
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

func (c *GrokClient) textRequest(system, user string, maxTokens int, temperature float32) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
}

func (c *GrokClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("provider: grok chat completion: %w", err)
	}
	return chatText(providerGrok, resp)
}
