package history

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/wolfman30/woundlens-ai/internal/sections"
	"github.com/wolfman30/woundlens-ai/pkg/logging"
)

// ErrEmptyHistory is returned when Render is called without records.
var ErrEmptyHistory = errors.New("history: cannot render an empty history")

const (
	pageWidthMM  = 210.0
	imageWidthMM = 100.0
)

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Builder writes history documents into an output directory.
type Builder struct {
	outputDir string
	logger    *logging.Logger
}

// NewBuilder returns a Builder writing under outputDir.
func NewBuilder(outputDir string, logger *logging.Logger) *Builder {
	if strings.TrimSpace(outputDir) == "" {
		outputDir = "generated_pdfs"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Builder{outputDir: outputDir, logger: logger}
}

// Render sorts the records oldest first and writes one page per record.
// Images that cannot be loaded are replaced by an inline error note.
func (b *Builder) Render(records []Record, patientID string) (*Document, error) {
	if len(records) == 0 {
		return nil, ErrEmptyHistory
	}
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("history: create output dir: %w", err)
	}

	sorted := SortRecords(records)
	doc := &Document{
		PatientID: patientID,
		Path: filepath.Join(b.outputDir,
			fmt.Sprintf("healing_history_%s_%d_assessments.pdf", safeID(patientID), len(sorted))),
		Pages: make([]Page, 0, len(sorted)),
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)

	for i, rec := range sorted {
		page := Page{
			Number:                i + 1,
			AssessmentDate:        rec.AssessmentDate,
			ClinicalObservations:  excerpt(rec.Analysis, sections.ClinicalObservations),
			WoundTissueEvaluation: excerpt(rec.Analysis, sections.WoundTissueEvaluation),
		}

		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, fmt.Sprintf("Assessment %d of %d", page.Number, len(sorted)), "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 10, latin("Date: "+rec.AssessmentDate), "", 1, "C", false, 0, "")
		pdf.Ln(10)

		if err := b.placeImage(pdf, &page, rec.ImagePath); err != nil {
			page.ImageError = err.Error()
			b.logger.Warn("history image skipped", "path", rec.ImagePath, "error", err)
			pdf.SetTextColor(255, 0, 0)
			pdf.CellFormat(0, 10, latin("Error loading image: "+rec.ImagePath), "", 1, "", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
		}

		writeField(pdf, "Clinical Observations:", page.ClinicalObservations)
		writeField(pdf, "Wound Tissue Evaluation:", page.WoundTissueEvaluation)

		doc.Pages = append(doc.Pages, page)
	}

	if err := pdf.OutputFileAndClose(doc.Path); err != nil {
		return nil, fmt.Errorf("history: write %s: %w", doc.Path, err)
	}
	b.logger.Info("generated healing history document",
		"path", doc.Path,
		"patient_id", patientID,
		"pages", len(doc.Pages),
	)
	return doc, nil
}

// placeImage validates and embeds the record image, centred on the page.
func (b *Builder) placeImage(pdf *fpdf.Fpdf, page *Page, path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("no image path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	imageType, mime, err := detectImageType(data)
	if err != nil {
		return err
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	name := fmt.Sprintf("page-%d-%s", page.Number, filepath.Base(path))
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if !pdf.Ok() {
		err := pdf.Error()
		pdf.ClearError()
		return err
	}
	pdf.ImageOptions(name, (pageWidthMM-imageWidthMM)/2, 0, imageWidthMM, 0, true, fpdf.ImageOptions{ImageType: imageType}, 0, "")
	if !pdf.Ok() {
		err := pdf.Error()
		pdf.ClearError()
		return err
	}
	pdf.Ln(10)

	page.Image = data
	page.ImageMIME = mime
	return nil
}

func detectImageType(data []byte) (string, string, error) {
	mime := http.DetectContentType(data)
	switch mime {
	case "image/jpeg":
		return "JPG", mime, nil
	case "image/png":
		return "PNG", mime, nil
	case "image/gif":
		return "GIF", mime, nil
	default:
		return "", mime, fmt.Errorf("unsupported image type %s", mime)
	}
}

func writeField(pdf *fpdf.Fpdf, title, body string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 10, title, "", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, latin(body), "", "", false)
	pdf.Ln(5)
}

func excerpt(analysis sections.Response, name string) string {
	if text := analysis.Get(name); text != "" {
		return text
	}
	return "N/A"
}

// latin maps text onto Windows-1252, the encoding of the core PDF fonts.
// Characters outside it become '?'.
func latin(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		out = append(out, '?')
	}
	return string(out)
}

func safeID(id string) string {
	cleaned := strings.Trim(unsafeIDChars.ReplaceAllString(id, "_"), "_")
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}
