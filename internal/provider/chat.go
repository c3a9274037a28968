package provider

import (
	"context"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/wolfman30/woundlens-ai/internal/history"
)

// chatCompletionAPI is the subset of *openai.Client used by the OpenAI and
// Grok clients.
type chatCompletionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// go-openai omits a zero temperature from the request body, so deterministic
// calls send the smallest positive value instead.
const deterministicTemperature float32 = math.SmallestNonzeroFloat32

func chatText(provider string, resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no choices", ErrEmptyResponse, provider)
	}
	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Message.Refusal) != "" {
		return "", &BlockedResponseError{Provider: provider, Reason: "refusal: " + choice.Message.Refusal}
	}
	switch choice.FinishReason {
	case openai.FinishReasonStop, openai.FinishReasonNull, "":
	default:
		return "", &BlockedResponseError{Provider: provider, Reason: string(choice.FinishReason)}
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", fmt.Errorf("%w: %s returned no text", ErrEmptyResponse, provider)
	}
	return choice.Message.Content, nil
}

// historyParts lays a history document out as ordered text and image parts
// for chat APIs that cannot take a PDF.
func historyParts(rubric string, doc *history.Document) []openai.ChatMessagePart {
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: rubric}}
	total := len(doc.Pages)
	for _, page := range doc.Pages {
		var b strings.Builder
		fmt.Fprintf(&b, "Assessment %d of %d\nDate: %s\n", page.Number, total, page.AssessmentDate)
		fmt.Fprintf(&b, "Clinical Observations:\n%s\n", page.ClinicalObservations)
		fmt.Fprintf(&b, "Wound Tissue Evaluation:\n%s", page.WoundTissueEvaluation)
		if len(page.Image) == 0 {
			fmt.Fprintf(&b, "\n(Image unavailable: %s)", page.ImageError)
		}
		parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: b.String()})

		if len(page.Image) > 0 {
			img := Image{Data: page.Image, MIMEType: page.ImageMIME}
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    img.DataURL(),
					Detail: openai.ImageURLDetailHigh,
				},
			})
		}
	}
	return parts
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None reported"
	}
	return strings.Join(items, ", ")
}
