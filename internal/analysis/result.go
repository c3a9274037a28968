package analysis

import (
	"encoding/json"

	"github.com/wolfman30/woundlens-ai/internal/assessment"
	"github.com/wolfman30/woundlens-ai/internal/sections"
)

// AnalysisResult is the outcome of an initial wound analysis.
type AnalysisResult struct {
	Success        bool                            `json:"success"`
	Timestamp      string                          `json:"timestamp,omitempty"`
	ModelUsed      string                          `json:"model_used,omitempty"`
	AssessmentData *assessment.FormattedAssessment `json:"assessment_data,omitempty"`
	JSONResponse   *sections.Response              `json:"json_response,omitempty"`
	RawAnalysis    string                          `json:"raw_analysis,omitempty"`
	Error          string                          `json:"error,omitempty"`

	// Err is the underlying failure, kept for status mapping by callers.
	Err error `json:"-"`
}

// FollowUpResult is the outcome of a plan expansion or product revision.
type FollowUpResult struct {
	Success      bool            `json:"success"`
	Timestamp    string          `json:"timestamp,omitempty"`
	ModelUsed    string          `json:"model_used,omitempty"`
	JSONResponse json.RawMessage `json:"json_response,omitempty"`
	Error        string          `json:"error,omitempty"`
	RawResponse  string          `json:"raw_response,omitempty"`

	Err error `json:"-"`
}

// HealingProgressResult is the outcome of a healing-progress estimate.
type HealingProgressResult struct {
	Success    bool   `json:"success"`
	Percentage int    `json:"healing_progress_percentage"`
	ModelUsed  string `json:"model_used,omitempty"`
	// DocumentPath is the rendered history file; it is kept on disk.
	DocumentPath string `json:"document_path,omitempty"`
	ArchiveKey   string `json:"archive_key,omitempty"`
	Error        string `json:"error,omitempty"`

	Err error `json:"-"`
}
