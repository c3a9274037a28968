package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/wolfman30/woundlens-ai/internal/history"
)

const sampleAnalysis = `**Case Information:**
Case date: 01/10/2025
**Clinical Observations:**
Shallow wound with pink granular bed.
**Treatment Plan:**
1. Cleanse with sterile saline.
2. Apply foam dressing.
**Recommended Products:**
- Sterile saline
- Foam dressing
**Wound Tissue Evaluation:**
- **Granulation:** 80%
**Wound Summary:**
Healing as expected.
**Tissue Percentages Over Time:**
**Day 0:**
- Granulation: 80%`

type stubChat struct {
	requests []openai.ChatCompletionRequest
	resp     openai.ChatCompletionResponse
	err      error
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	return s.resp, s.err
}

func chatReply(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text},
			FinishReason: openai.FinishReasonStop,
		}},
	}
}

func testImage() Image {
	return Image{Data: []byte{0xff, 0xd8, 0xff, 0xe0}, MIMEType: "image/jpeg"}
}

func testDocument(t *testing.T) *history.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o600); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return &history.Document{
		Path:      path,
		PatientID: "p-1",
		Pages: []history.Page{
			{Number: 1, AssessmentDate: "2025-10-01", Image: []byte{0x89, 'P', 'N', 'G'}, ImageMIME: "image/png", ClinicalObservations: "Open wound", WoundTissueEvaluation: "Granulation 60%"},
			{Number: 2, AssessmentDate: "2025-10-15", ImageError: "no image path", ClinicalObservations: "Smaller", WoundTissueEvaluation: "Granulation 80%"},
		},
	}
}
