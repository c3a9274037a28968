package history

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/woundlens-ai/internal/sections"
	"github.com/wolfman30/woundlens-ai/pkg/logging"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		for y := 0; y < 6; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 20), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func analysisWith(obs, tissue string) sections.Response {
	resp := sections.NewResponse()
	resp.Set(sections.ClinicalObservations, obs)
	resp.Set(sections.WoundTissueEvaluation, tissue)
	return resp
}

func TestRender_SortsOldestFirst(t *testing.T) {
	dir := t.TempDir()
	later := writePNG(t, dir, "later.png")
	earlier := writePNG(t, dir, "earlier.png")

	b := NewBuilder(filepath.Join(dir, "out"), logging.Discard())
	doc, err := b.Render([]Record{
		{ImagePath: later, AssessmentDate: "2025-10-11", Analysis: analysisWith("Smaller wound", "Granulation 90%")},
		{ImagePath: earlier, AssessmentDate: "2025-10-01", Analysis: analysisWith("Large wound", "Slough 40%")},
	}, "patient-42")
	require.NoError(t, err)

	require.Len(t, doc.Pages, 2)
	assert.Equal(t, "2025-10-01", doc.Pages[0].AssessmentDate)
	assert.Equal(t, "Large wound", doc.Pages[0].ClinicalObservations)
	assert.Equal(t, "2025-10-11", doc.Pages[1].AssessmentDate)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Equal(t, "image/png", doc.Pages[0].ImageMIME)
	assert.NotEmpty(t, doc.Pages[0].Image)

	assert.Equal(t, filepath.Join(dir, "out", "healing_history_patient-42_2_assessments.pdf"), doc.Path)
	data, err := doc.ReadPDF()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRender_MissingAndCorruptImagesAreNotFatal(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "good.png")
	corrupt := filepath.Join(dir, "corrupt.jpg")
	require.NoError(t, os.WriteFile(corrupt, []byte("\xff\xd8\xff\xe0 not really a jpeg"), 0o600))

	doc, err := NewBuilder(dir, logging.Discard()).Render([]Record{
		{ImagePath: filepath.Join(dir, "missing.png"), AssessmentDate: "2025-09-01"},
		{ImagePath: corrupt, AssessmentDate: "2025-09-08"},
		{ImagePath: good, AssessmentDate: "2025-09-15"},
	}, "p1")
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)

	assert.NotEmpty(t, doc.Pages[0].ImageError)
	assert.NotEmpty(t, doc.Pages[1].ImageError)
	assert.Empty(t, doc.Pages[2].ImageError)
	assert.Equal(t, "N/A", doc.Pages[0].ClinicalObservations)

	info, err := os.Stat(doc.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRender_EmptyHistory(t *testing.T) {
	_, err := NewBuilder(t.TempDir(), logging.Discard()).Render(nil, "p1")
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestRender_NonLatinTextDoesNotFail(t *testing.T) {
	dir := t.TempDir()
	doc, err := NewBuilder(dir, logging.Discard()).Render([]Record{
		{AssessmentDate: "2025-10-01", Analysis: analysisWith("Size ≈ 14 × 8 cm — 伤口", "Granulation ≥ 60%")},
	}, "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "healing_history_etc_passwd_1_assessments.pdf"), doc.Path)
}

func TestSortRecords(t *testing.T) {
	in := []Record{
		{AssessmentDate: "2025-10-11"},
		{AssessmentDate: "2025-10-01T08:00:00Z"},
		{AssessmentDate: "2025-10-05"},
	}
	out := SortRecords(in)
	assert.Equal(t, []string{"2025-10-01T08:00:00Z", "2025-10-05", "2025-10-11"},
		[]string{out[0].AssessmentDate, out[1].AssessmentDate, out[2].AssessmentDate})
	assert.Equal(t, "2025-10-11", in[0].AssessmentDate, "input must not be reordered")
}

func TestSortRecords_DayFirstDates(t *testing.T) {
	out := SortRecords([]Record{{AssessmentDate: "11/10/2025"}, {AssessmentDate: "01/11/2025"}, {AssessmentDate: "02/10/2025"}})
	assert.Equal(t, "02/10/2025", out[0].AssessmentDate)
	assert.Equal(t, "01/11/2025", out[2].AssessmentDate)
}

func TestSortRecords_MixedParseableDates(t *testing.T) {
	want := []string{"2025-10-01", "2025-10-11", "Aug 3", "last week"}
	inputs := [][]string{
		{"last week", "2025-10-11", "Aug 3", "2025-10-01"},
		{"2025-10-11", "Aug 3", "2025-10-01", "last week"},
		{"Aug 3", "last week", "2025-10-01", "2025-10-11"},
	}
	for _, dates := range inputs {
		records := make([]Record, len(dates))
		for i, d := range dates {
			records[i] = Record{AssessmentDate: d}
		}
		out := SortRecords(records)
		got := make([]string, len(out))
		for i, r := range out {
			got[i] = r.AssessmentDate
		}
		assert.Equal(t, want, got, "input %v", dates)
	}
}

func TestLatin(t *testing.T) {
	assert.Equal(t, "a ? b", latin("a ≈ b"))
	assert.Equal(t, "caf\xe9", latin("café"))
	assert.Equal(t, "??", latin("伤口"))
}

func TestSafeID(t *testing.T) {
	assert.Equal(t, "abc-1_2", safeID("abc-1_2"))
	assert.Equal(t, "unknown", safeID("///"))
	assert.Equal(t, "a_b", safeID("a b"))
}
