// Package history renders a patient's past wound assessments into a
// multi-page PDF used for healing-progress estimation.
package history

import (
	"os"
	"sort"
	"time"

	"github.com/wolfman30/woundlens-ai/internal/sections"
)

// Record is one prior assessment: the photo that was analyzed, when, and
// the sectioned analysis it produced.
type Record struct {
	ImagePath      string            `json:"image_path"`
	AssessmentDate string            `json:"assessment_date"`
	Analysis       sections.Response `json:"analysis"`
}

// Page describes one rendered page of a Document.
type Page struct {
	Number                int
	AssessmentDate        string
	Image                 []byte
	ImageMIME             string
	ImageError            string
	ClinicalObservations  string
	WoundTissueEvaluation string
}

// Document is a rendered history file plus the page content it was built from.
type Document struct {
	Path      string
	PatientID string
	Pages     []Page
}

// ReadPDF loads the rendered file.
func (d *Document) ReadPDF() ([]byte, error) {
	return os.ReadFile(d.Path)
}

var assessmentDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseAssessmentDate(raw string) (time.Time, bool) {
	for _, layout := range assessmentDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortRecords returns a copy of records ordered oldest first. Records whose
// date parses are ordered by time and come before the rest, which are
// ordered by their raw date string.
func SortRecords(records []Record) []Record {
	type keyed struct {
		rec    Record
		at     time.Time
		parsed bool
	}
	items := make([]keyed, len(records))
	for i, rec := range records {
		at, ok := parseAssessmentDate(rec.AssessmentDate)
		items[i] = keyed{rec: rec, at: at, parsed: ok}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.parsed != b.parsed {
			return a.parsed
		}
		if a.parsed {
			return a.at.Before(b.at)
		}
		return a.rec.AssessmentDate < b.rec.AssessmentDate
	})
	sorted := make([]Record, len(items))
	for i, it := range items {
		sorted[i] = it.rec
	}
	return sorted
}
