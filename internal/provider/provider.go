// Package provider adapts multimodal LLM vendors (OpenAI, Gemini, Grok and
// Claude on Bedrock) to a single wound-analysis client contract.
package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/wolfman30/woundlens-ai/internal/assessment"
	"github.com/wolfman30/woundlens-ai/internal/history"
)

// Client is the per-vendor wound-analysis contract.
type Client interface {
	// Model returns the vendor model identifier the client sends requests to.
	Model() string
	// Analyze runs the initial multimodal wound analysis and returns the
	// free-text report with the bold section headers.
	Analyze(ctx context.Context, prompt string, image Image) (string, error)
	// ExpandPlan turns the brief treatment plan from rawAnalysis into a
	// structured plan object.
	ExpandPlan(ctx context.Context, rawAnalysis string, fa assessment.FormattedAssessment, location string) (json.RawMessage, error)
	// ReviseProducts proposes alternative products for the given reason.
	ReviseProducts(ctx context.Context, rawAnalysis string, reason RevisionReason) (json.RawMessage, error)
	// HealingProgress scores the latest assessment in doc against the first.
	HealingProgress(ctx context.Context, doc *history.Document) (HealingProgress, error)
}

// Image is a wound photograph ready to be sent to a vendor.
type Image struct {
	Data     []byte
	MIMEType string
}

func (i Image) mimeType() string {
	if strings.TrimSpace(i.MIMEType) == "" {
		return "image/jpeg"
	}
	return i.MIMEType
}

// DataURL renders the image as a base64 data URL.
func (i Image) DataURL() string {
	return "data:" + i.mimeType() + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// HealingProgress is the vendor's estimate of closure relative to the first
// assessment, 0 to 100.
type HealingProgress struct {
	Percentage int `json:"healing_progress_percentage"`
}

const (
	opAnalyze         = "analyze"
	opExpandPlan      = "expand_plan"
	opReviseProducts  = "revise_products"
	opHealingProgress = "healing_progress"
)
