package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/wolfman30/woundlens-ai/internal/analysis"
	"github.com/wolfman30/woundlens-ai/internal/assessment"
	"github.com/wolfman30/woundlens-ai/internal/history"
	"github.com/wolfman30/woundlens-ai/internal/provider"
	"github.com/wolfman30/woundlens-ai/internal/sections"
	"github.com/wolfman30/woundlens-ai/pkg/logging"
)

const defaultWoundLocation = "Right Arm"

// ClientSource resolves a model name to a provider client.
type ClientSource interface {
	Client(ctx context.Context, model string) (provider.Client, error)
}

// AnalysisHandlerConfig wires an AnalysisHandler.
type AnalysisHandlerConfig struct {
	Clients        ClientSource
	DefaultModel   string
	UploadDir      string
	MaxUploadBytes int64
	Logger         *logging.Logger
	// CoordinatorOptions are applied to the per-request Coordinator.
	CoordinatorOptions []analysis.Option
}

// AnalysisHandler exposes the wound-analysis workflow over HTTP. Requests
// are independent: follow-ups carry the original analysis text in the body.
type AnalysisHandler struct {
	clients        ClientSource
	defaultModel   string
	uploadDir      string
	maxUploadBytes int64
	logger         *logging.Logger
	coordOpts      []analysis.Option
}

func NewAnalysisHandler(cfg AnalysisHandlerConfig) *AnalysisHandler {
	if cfg.Clients == nil {
		panic("handlers: analysis client source cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	model := strings.TrimSpace(cfg.DefaultModel)
	if model == "" {
		model = "gpt-4o"
	}
	uploadDir := cfg.UploadDir
	if uploadDir == "" {
		uploadDir = "temp_images"
	}
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	opts := append([]analysis.Option{analysis.WithLogger(logger)}, cfg.CoordinatorOptions...)
	return &AnalysisHandler{
		clients:        cfg.Clients,
		defaultModel:   model,
		uploadDir:      uploadDir,
		maxUploadBytes: maxBytes,
		logger:         logger,
		coordOpts:      opts,
	}
}

type errorResponse struct {
	Detail      string `json:"detail"`
	RawResponse string `json:"raw_response,omitempty"`
}

type expandPlanRequest struct {
	OriginalAnalysis string `json:"original_analysis"`
	WoundLocation    string `json:"wound_location"`
	Model            string `json:"model"`
}

type reviseProductsRequest struct {
	OriginalAnalysis string `json:"original_analysis"`
	RevisionReason   string `json:"revision_reason"`
	Model            string `json:"model"`
}

type historyItem struct {
	AssessmentDate string            `json:"assessment_date"`
	ImageBase64    string            `json:"image_base64"`
	Analysis       sections.Response `json:"analysis"`
}

type healingProgressRequest struct {
	PatientID string        `json:"patient_id"`
	Model     string        `json:"model"`
	History   []historyItem `json:"history"`
}

// Initial handles POST /analysis/initial (multipart form).
func (h *AnalysisHandler) Initial(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, http.StatusRequestEntityTooLarge, errors.New("upload exceeds the maximum allowed size"))
			return
		}
		h.fail(w, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	in, err := parseClinicalForm(r)
	if err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.fail(w, http.StatusBadRequest, errors.New("image file is required"))
		return
	}
	defer file.Close()

	path, err := h.saveUpload(file, filepath.Ext(header.Filename))
	if err != nil {
		h.logger.Error("failed to store upload", "error", err)
		h.fail(w, http.StatusInternalServerError, errors.New("could not store uploaded image"))
		return
	}
	defer os.Remove(path)

	coord, ok := h.coordinator(w, r, r.FormValue("model"))
	if !ok {
		return
	}
	location := strings.TrimSpace(r.FormValue("wound_location"))
	if location == "" {
		location = defaultWoundLocation
	}

	res := coord.AnalyzeFile(r.Context(), path, location, in)
	if !res.Success {
		h.failWith(w, res.Err, "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ExpandTreatmentPlan handles POST /analysis/expand-treatment-plan.
func (h *AnalysisHandler) ExpandTreatmentPlan(w http.ResponseWriter, r *http.Request) {
	var req expandPlanRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.OriginalAnalysis) == "" {
		h.fail(w, http.StatusBadRequest, errors.New("original_analysis is required"))
		return
	}
	coord, ok := h.coordinator(w, r, req.Model)
	if !ok {
		return
	}
	coord.Resume(req.OriginalAnalysis)

	location := strings.TrimSpace(req.WoundLocation)
	if location == "" {
		location = defaultWoundLocation
	}
	res := coord.ExpandPlan(r.Context(), location)
	if !res.Success {
		h.failWith(w, res.Err, res.RawResponse)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ReviseProducts handles POST /analysis/revise-products.
func (h *AnalysisHandler) ReviseProducts(w http.ResponseWriter, r *http.Request) {
	var req reviseProductsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.OriginalAnalysis) == "" {
		h.fail(w, http.StatusBadRequest, errors.New("original_analysis is required"))
		return
	}
	reason := provider.RevisionReason(strings.TrimSpace(req.RevisionReason))
	if !reason.Valid() {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("revision_reason must be one of %s", reasonList()))
		return
	}
	coord, ok := h.coordinator(w, r, req.Model)
	if !ok {
		return
	}
	coord.Resume(req.OriginalAnalysis)

	res := coord.ReviseProducts(r.Context(), reason)
	if !res.Success {
		h.failWith(w, res.Err, res.RawResponse)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HealingProgress handles POST /analysis/healing-progress.
func (h *AnalysisHandler) HealingProgress(w http.ResponseWriter, r *http.Request) {
	var req healingProgressRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PatientID) == "" {
		h.fail(w, http.StatusBadRequest, errors.New("patient_id is required"))
		return
	}

	records := make([]history.Record, 0, len(req.History))
	for i, item := range req.History {
		rec := history.Record{AssessmentDate: item.AssessmentDate, Analysis: item.Analysis}
		if strings.TrimSpace(item.ImageBase64) != "" {
			data, err := decodeImageBase64(item.ImageBase64)
			if err != nil {
				h.fail(w, http.StatusBadRequest, fmt.Errorf("history[%d].image_base64: %w", i, err))
				return
			}
			path, err := h.saveUpload(bytes.NewReader(data), imageExtension(data))
			if err != nil {
				h.logger.Error("failed to store history image", "error", err)
				h.fail(w, http.StatusInternalServerError, errors.New("could not store history image"))
				return
			}
			defer os.Remove(path)
			rec.ImagePath = path
		}
		records = append(records, rec)
	}

	coord, ok := h.coordinator(w, r, req.Model)
	if !ok {
		return
	}
	res := coord.CalculateHealingProgress(r.Context(), req.PatientID, records)
	if !res.Success {
		h.failWith(w, res.Err, rawFrom(res.Err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Health handles GET /health.
func (h *AnalysisHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "default_model": h.defaultModel})
}

func (h *AnalysisHandler) coordinator(w http.ResponseWriter, r *http.Request, model string) (*analysis.Coordinator, bool) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = h.defaultModel
	}
	client, err := h.clients.Client(r.Context(), model)
	if err != nil {
		h.failWith(w, err, "")
		return nil, false
	}
	return analysis.NewCoordinator(client, h.coordOpts...), true
}

func (h *AnalysisHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxUploadBytes*4)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return false
	}
	return true
}

func (h *AnalysisHandler) saveUpload(src io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}
	ext = strings.ToLower(ext)
	if ext == "" || len(ext) > 6 {
		ext = ".img"
	}
	path := filepath.Join(h.uploadDir, uuid.NewString()+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (h *AnalysisHandler) failWith(w http.ResponseWriter, err error, raw string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("analysis request failed", "status", status, "error", err)
	} else {
		h.logger.Warn("analysis request rejected", "status", status, "error", err)
	}
	msg := "analysis failed"
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Detail: msg, RawResponse: raw})
}

func (h *AnalysisHandler) fail(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Detail: err.Error()})
}

// statusFor maps workflow errors onto HTTP status codes.
func statusFor(err error) int {
	var notFound *provider.SectionNotFoundError
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.Is(err, analysis.ErrNoAnalysis),
		errors.Is(err, analysis.ErrInvalidRevisionReason),
		errors.Is(err, provider.ErrUnsupportedModel),
		errors.Is(err, provider.ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, history.ErrEmptyHistory):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func rawFrom(err error) string {
	var invalid *provider.InvalidJSONError
	if errors.As(err, &invalid) {
		return invalid.Raw
	}
	return ""
}

// parseClinicalForm reads every known clinical flag plus the free-text note.
func parseClinicalForm(r *http.Request) (assessment.ClinicalAssessment, error) {
	in := assessment.ClinicalAssessment{
		Flags:            make(map[string]bool),
		OtherInformation: strings.TrimSpace(r.FormValue("other_information")),
	}
	for _, flag := range assessment.KnownFlags() {
		raw := strings.TrimSpace(r.FormValue(flag))
		if raw == "" {
			continue
		}
		v, ok := parseFormBool(raw)
		if !ok {
			return in, fmt.Errorf("field %s: %q is not a boolean", flag, raw)
		}
		in.Flags[flag] = v
	}
	return in, nil
}

func parseFormBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on", "t", "y":
		return true, true
	case "false", "0", "no", "off", "f", "n":
		return false, true
	default:
		return false, false
	}
}

func decodeImageBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	return data, nil
}

func imageExtension(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func reasonList() string {
	reasons := provider.RevisionReasons()
	names := make([]string, len(reasons))
	for i, r := range reasons {
		names[i] = fmt.Sprintf("%q", string(r))
	}
	return strings.Join(names, ", ")
}
