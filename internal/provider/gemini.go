package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/wolfman30/woundlens-ai/internal/assessment"
	"github.com/wolfman30/woundlens-ai/internal/history"
)

const (
	providerGemini       = "gemini"
	defaultGeminiModelID = "gemini-2.5-flash"
)

type geminiRequest struct {
	System      string
	Parts       []genai.Part
	Temperature float32
	MaxTokens   int32
	JSON        bool
}

// geminiAPI hides the per-call GenerativeModel configuration so tests can
// stub responses.
type geminiAPI interface {
	Generate(ctx context.Context, model string, req geminiRequest) (*genai.GenerateContentResponse, error)
}

type genaiAdapter struct {
	client *genai.Client
}

func (a *genaiAdapter) Generate(ctx context.Context, model string, req geminiRequest) (*genai.GenerateContentResponse, error) {
	m := a.client.GenerativeModel(model)
	m.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(req.MaxTokens)
	}
	if strings.TrimSpace(req.System) != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}
	if req.JSON {
		m.ResponseMIMEType = "application/json"
	}
	return m.GenerateContent(ctx, req.Parts...)
}

// GeminiClient talks to Google's Gemini API.
type GeminiClient struct {
	api    geminiAPI
	model  string
	inv    invoker
	closer func() error
}

// NewGeminiClient dials the Gemini API with an API key. Close releases the
// underlying connection.
func NewGeminiClient(ctx context.Context, apiKey, model string, opts Options) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrMissingCredentials)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("provider: failed to create gemini client: %w", err)
	}
	c := newGeminiClient(&genaiAdapter{client: client}, model, opts)
	c.closer = client.Close
	return c, nil
}

func newGeminiClient(api geminiAPI, model string, opts Options) *GeminiClient {
	if api == nil {
		panic("provider: gemini client cannot be nil")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModelID
	}
	return &GeminiClient{api: api, model: model, inv: newInvoker(providerGemini, model, opts)}
}

func (c *GeminiClient) Model() string { return c.model }

func (c *GeminiClient) Analyze(ctx context.Context, prompt string, image Image) (string, error) {
	if len(image.Data) == 0 {
		return "", errors.New("provider: gemini analyze requires an image")
	}
	req := geminiRequest{
		System:      geminiClinicalProtocol,
		Parts:       []genai.Part{genai.Text(prompt), genai.Blob{MIMEType: image.mimeType(), Data: image.Data}},
		Temperature: 0.2,
		MaxTokens:   2000,
	}
	return c.inv.do(ctx, opAnalyze, func(ctx context.Context) (string, error) {
		return c.generate(ctx, req)
	})
}

func (c *GeminiClient) ExpandPlan(ctx context.Context, rawAnalysis string, fa assessment.FormattedAssessment, location string) (json.RawMessage, error) {
	plan, err := treatmentPlanExcerpt(rawAnalysis)
	if err != nil {
		return nil, err
	}
	req := geminiRequest{
		System:      geminiExpandSystem,
		Parts:       []genai.Part{genai.Text(fmt.Sprintf(geminiExpandPrompt, plan, location, joinOrNone(fa.PatientOverview.HealthRiskFactors)))},
		Temperature: 0.1,
		MaxTokens:   2000,
		JSON:        true,
	}
	text, err := c.inv.do(ctx, opExpandPlan, func(ctx context.Context) (string, error) {
		return c.generate(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return decodeJSONReply(text)
}

func (c *GeminiClient) ReviseProducts(ctx context.Context, rawAnalysis string, reason RevisionReason) (json.RawMessage, error) {
	products, err := productsExcerpt(rawAnalysis)
	if err != nil {
		return nil, err
	}
	instruction := instructionFor(geminiRevisionInstructions, reason)
	req := geminiRequest{
		System:      geminiReviseSystem,
		Parts:       []genai.Part{genai.Text(fmt.Sprintf(geminiRevisePrompt, reason, instruction, products))},
		Temperature: 0.1,
		MaxTokens:   1000,
		JSON:        true,
	}
	text, err := c.inv.do(ctx, opReviseProducts, func(ctx context.Context) (string, error) {
		return c.generate(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return decodeJSONReply(text)
}

func (c *GeminiClient) HealingProgress(ctx context.Context, doc *history.Document) (HealingProgress, error) {
	if doc == nil {
		return HealingProgress{}, errors.New("provider: gemini healing progress requires a rendered history")
	}
	pdf, err := doc.ReadPDF()
	if err != nil {
		return HealingProgress{}, fmt.Errorf("provider: read history document: %w", err)
	}
	req := geminiRequest{
		Parts:     []genai.Part{genai.Text(geminiHealingRubric), genai.Blob{MIMEType: "application/pdf", Data: pdf}},
		MaxTokens: 1024,
		JSON:      true,
	}
	text, err := c.inv.do(ctx, opHealingProgress, func(ctx context.Context) (string, error) {
		return c.generate(ctx, req)
	})
	if err != nil {
		return HealingProgress{}, err
	}
	return decodeHealingReply(text)
}

// Close releases the SDK connection when the client owns one.
func (c *GeminiClient) Close() error {
	if c.closer != nil {
		return c.closer()
	}
	return nil
}

func (c *GeminiClient) generate(ctx context.Context, req geminiRequest) (string, error) {
	resp, err := c.api.Generate(ctx, c.model, req)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", &BlockedResponseError{Provider: providerGemini, Reason: blocked.Error()}
		}
		return "", fmt.Errorf("provider: gemini generate content: %w", err)
	}
	return geminiText(resp)
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: gemini response is nil", ErrEmptyResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", &BlockedResponseError{Provider: providerGemini, Reason: "prompt " + resp.PromptFeedback.BlockReason.String()}
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrEmptyResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
		return "", &BlockedResponseError{Provider: providerGemini, Reason: candidate.FinishReason.String()}
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: gemini returned empty content", ErrEmptyResponse)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: gemini returned no text", ErrEmptyResponse)
	}
	return b.String(), nil
}
