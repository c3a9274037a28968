// Package analysis sequences the wound-analysis workflow: format the
// clinical data, run the initial provider analysis, section it, and serve
// follow-up requests against the cached raw text.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/woundlens-ai/internal/assessment"
	"github.com/wolfman30/woundlens-ai/internal/history"
	"github.com/wolfman30/woundlens-ai/internal/observability/metrics"
	"github.com/wolfman30/woundlens-ai/internal/provider"
	"github.com/wolfman30/woundlens-ai/internal/sections"
	"github.com/wolfman30/woundlens-ai/pkg/logging"
)

var tracer = otel.Tracer("woundlens.internal.analysis")

var (
	// ErrNoAnalysis is returned by follow-ups when no analysis is cached.
	ErrNoAnalysis = errors.New("analysis: no analysis available, run an initial analysis first")
	// ErrInvalidRevisionReason is returned for reasons outside provider.RevisionReasons.
	ErrInvalidRevisionReason = errors.New("analysis: invalid revision reason")
)

const defaultLocation = "Right Arm"

// DocumentArchive stores rendered history documents outside the local disk.
type DocumentArchive interface {
	Archive(ctx context.Context, doc *history.Document) (string, error)
}

// Coordinator owns one provider client and the last successful analysis.
// It is not safe for concurrent use; build one per workflow.
type Coordinator struct {
	client    provider.Client
	formatter *assessment.Formatter
	sectioner sections.Sectioner
	builder   *history.Builder
	archive   DocumentArchive
	logger    *logging.Logger
	metrics   *metrics.ProviderMetrics
	now       func() time.Time

	lastAnalysis   string
	lastAssessment assessment.FormattedAssessment
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(logger *logging.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.ProviderMetrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithSectioner(s sections.Sectioner) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.sectioner = s
		}
	}
}

func WithHistoryBuilder(b *history.Builder) Option {
	return func(c *Coordinator) {
		if b != nil {
			c.builder = b
		}
	}
}

// WithArchive uploads every rendered history document after scoring.
func WithArchive(a DocumentArchive) Option {
	return func(c *Coordinator) { c.archive = a }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCoordinator(client provider.Client, opts ...Option) *Coordinator {
	if client == nil {
		panic("analysis: provider client cannot be nil")
	}
	c := &Coordinator{
		client:    client,
		sectioner: sections.NewRegexSectioner(),
		logger:    logging.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.formatter = assessment.NewFormatter().WithClock(c.now)
	if c.builder == nil {
		c.builder = history.NewBuilder("generated_pdfs", c.logger)
	}
	return c
}

// HasAnalysis reports whether follow-ups can run.
func (c *Coordinator) HasAnalysis() bool {
	return c.lastAnalysis != ""
}

// Resume seeds the cache with a raw analysis produced by an earlier request.
// Clinical context from that request is not carried over. Blank text leaves
// the coordinator without an analysis.
func (c *Coordinator) Resume(rawAnalysis string) {
	c.reset()
	if strings.TrimSpace(rawAnalysis) != "" {
		c.lastAnalysis = rawAnalysis
	}
}

func (c *Coordinator) reset() {
	c.lastAnalysis = ""
	c.lastAssessment = assessment.FormattedAssessment{}
}

// AnalyzeFile reads an image from disk and runs Analyze on it.
func (c *Coordinator) AnalyzeFile(ctx context.Context, path, location string, in assessment.ClinicalAssessment) AnalysisResult {
	data, err := os.ReadFile(path)
	if err != nil {
		c.reset()
		return c.analysisFailure(fmt.Errorf("analysis: read image: %w", err))
	}
	img := provider.Image{Data: data, MIMEType: http.DetectContentType(data)}
	return c.Analyze(ctx, img, location, in)
}

// Analyze runs the initial analysis. On success the raw text is cached for
// follow-ups; on any failure the cache is cleared.
func (c *Coordinator) Analyze(ctx context.Context, image provider.Image, location string, in assessment.ClinicalAssessment) (res AnalysisResult) {
	ctx, span := tracer.Start(ctx, "analysis.Analyze")
	defer span.End()
	span.SetAttributes(attribute.String("woundlens.model", c.client.Model()))
	defer func() {
		if r := recover(); r != nil {
			c.reset()
			res = c.analysisFailure(fmt.Errorf("analysis: workflow panic: %v", r))
		}
		c.finish(span, "analyze", res.Err)
	}()

	if location == "" {
		location = defaultLocation
	}
	fa := c.formatter.Format(in)
	prompt := c.formatter.BuildPrompt(fa, location, c.now())

	raw, err := c.client.Analyze(ctx, prompt, image)
	if err != nil {
		c.reset()
		return c.analysisFailure(fmt.Errorf("analysis: workflow error: %w", err))
	}

	sectioned := c.sectioner.Sectionize(raw)
	if sectioned.Failed() {
		c.metrics.ObserveSectioningFailure(c.client.Model())
		c.logger.Warn("analysis text had no recognized section headers",
			"model", c.client.Model(),
			"response_chars", len(raw),
		)
	}

	c.lastAnalysis = raw
	c.lastAssessment = fa
	return AnalysisResult{
		Success:        true,
		Timestamp:      c.timestamp(),
		ModelUsed:      c.client.Model(),
		AssessmentData: &fa,
		JSONResponse:   &sectioned,
		RawAnalysis:    raw,
	}
}

// ExpandPlan expands the cached analysis' treatment plan.
func (c *Coordinator) ExpandPlan(ctx context.Context, location string) (res FollowUpResult) {
	ctx, span := tracer.Start(ctx, "analysis.ExpandPlan")
	defer span.End()
	span.SetAttributes(attribute.String("woundlens.model", c.client.Model()))
	defer func() {
		if r := recover(); r != nil {
			res = c.followUpFailure(fmt.Errorf("analysis: expand plan panic: %v", r))
		}
		c.finish(span, "expand_plan", res.Err)
	}()

	if !c.HasAnalysis() {
		return c.followUpFailure(ErrNoAnalysis)
	}
	if location == "" {
		location = defaultLocation
	}
	plan, err := c.client.ExpandPlan(ctx, c.lastAnalysis, c.lastAssessment, location)
	if err != nil {
		return c.followUpFailure(err)
	}
	return FollowUpResult{
		Success:      true,
		Timestamp:    c.timestamp(),
		ModelUsed:    c.client.Model(),
		JSONResponse: plan,
	}
}

// ReviseProducts asks for alternative products for the cached analysis.
func (c *Coordinator) ReviseProducts(ctx context.Context, reason provider.RevisionReason) (res FollowUpResult) {
	ctx, span := tracer.Start(ctx, "analysis.ReviseProducts")
	defer span.End()
	span.SetAttributes(
		attribute.String("woundlens.model", c.client.Model()),
		attribute.String("woundlens.revision_reason", string(reason)),
	)
	defer func() {
		if r := recover(); r != nil {
			res = c.followUpFailure(fmt.Errorf("analysis: revise products panic: %v", r))
		}
		c.finish(span, "revise_products", res.Err)
	}()

	if !c.HasAnalysis() {
		return c.followUpFailure(ErrNoAnalysis)
	}
	if !reason.Valid() {
		return c.followUpFailure(fmt.Errorf("%w: %q", ErrInvalidRevisionReason, reason))
	}
	products, err := c.client.ReviseProducts(ctx, c.lastAnalysis, reason)
	if err != nil {
		return c.followUpFailure(err)
	}
	return FollowUpResult{
		Success:      true,
		Timestamp:    c.timestamp(),
		ModelUsed:    c.client.Model(),
		JSONResponse: products,
	}
}

// CalculateHealingProgress scores the latest record against the first.
// Fewer than two records score 0 without contacting the provider. The
// rendered document is retained on disk.
func (c *Coordinator) CalculateHealingProgress(ctx context.Context, patientID string, records []history.Record) (res HealingProgressResult) {
	ctx, span := tracer.Start(ctx, "analysis.CalculateHealingProgress")
	defer span.End()
	span.SetAttributes(
		attribute.String("woundlens.model", c.client.Model()),
		attribute.Int("woundlens.history_records", len(records)),
	)
	defer func() {
		if r := recover(); r != nil {
			res = c.healingFailure(fmt.Errorf("analysis: healing progress panic: %v", r))
		}
		c.finish(span, "healing_progress", res.Err)
	}()

	if len(records) < 2 {
		return HealingProgressResult{Success: true, Percentage: 0, ModelUsed: c.client.Model()}
	}

	doc, err := c.builder.Render(records, patientID)
	if err != nil {
		return c.healingFailure(fmt.Errorf("analysis: render history: %w", err))
	}
	progress, err := c.client.HealingProgress(ctx, doc)
	if err != nil {
		res = c.healingFailure(err)
		res.DocumentPath = doc.Path
		return res
	}

	res = HealingProgressResult{
		Success:      true,
		Percentage:   progress.Percentage,
		ModelUsed:    c.client.Model(),
		DocumentPath: doc.Path,
	}
	if c.archive != nil {
		key, err := c.archive.Archive(ctx, doc)
		if err != nil {
			c.logger.Warn("history document archive failed", "path", doc.Path, "error", err)
		} else {
			res.ArchiveKey = key
		}
	}
	return res
}

func (c *Coordinator) finish(span trace.Span, step string, err error) {
	c.metrics.ObserveWorkflowStep(step, err == nil)
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Error("analysis step failed", "step", step, "model", c.client.Model(), "error", err)
}

func (c *Coordinator) timestamp() string {
	return c.now().Format(time.RFC3339)
}

func (c *Coordinator) analysisFailure(err error) AnalysisResult {
	return AnalysisResult{Success: false, Error: err.Error(), Err: err}
}

func (c *Coordinator) followUpFailure(err error) FollowUpResult {
	res := FollowUpResult{Success: false, Error: err.Error(), Err: err}
	var invalid *provider.InvalidJSONError
	if errors.As(err, &invalid) {
		res.RawResponse = invalid.Raw
	}
	return res
}

func (c *Coordinator) healingFailure(err error) HealingProgressResult {
	return HealingProgressResult{Success: false, ModelUsed: c.client.Model(), Error: err.Error(), Err: err}
}
