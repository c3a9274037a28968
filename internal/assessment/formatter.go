// Package assessment turns clinical intake flags into the grouped structure
// and prompt text used by the initial wound analysis request.
package assessment

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PromptDateLayout is the day-first layout used for case dates in prompts.
const PromptDateLayout = "02/01/2006"

// Flag groups. Order inside each group is the order items are reported in.
var (
	healthRiskFlags  = []string{"diabetes", "peripheral_arterial_disease", "autoimmune_disorder", "malnutrition"}
	mobilityFlags    = []string{"ambulatory", "wheelchair_dependent", "bedbound"}
	livingFlags      = []string{"alone", "caregiver_support", "facility"}
	drainageAmtFlags = []string{"drainage_none", "drainage_scant", "drainage_moderate", "drainage_heavy"}
	drainageTypFlags = []string{"serous", "sanguinous", "serosanguinous", "purulent"}
	odorFlags        = []string{"odor_absent", "odor_present", "odor_foul"}
	temperatureFlags = []string{"temperature_same", "temperature_warmer_hot", "temperature_cooler"}
)

// KnownFlags lists every flag name the formatter understands.
func KnownFlags() []string {
	groups := [][]string{healthRiskFlags, mobilityFlags, livingFlags, drainageAmtFlags, drainageTypFlags, odorFlags, temperatureFlags}
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// ClinicalAssessment is the raw intake: named boolean flags plus a free-text note.
type ClinicalAssessment struct {
	Flags            map[string]bool
	OtherInformation string
}

// FormattedAssessment groups the true flags into clinical categories.
type FormattedAssessment struct {
	Timestamp          string           `json:"timestamp"`
	PatientOverview    PatientOverview  `json:"patient_overview"`
	ClinicalAssessment ClinicalFindings `json:"clinical_assessment"`
}

type PatientOverview struct {
	HealthRiskFactors []string `json:"health_risk_factors"`
	Mobility          []string `json:"mobility"`
	LivingSituation   []string `json:"living_situation"`
}

type ClinicalFindings struct {
	DrainageAmount           []string `json:"drainage_amount"`
	DrainageType             []string `json:"drainage_type"`
	OdorAssessment           []string `json:"odor_assessment"`
	PeriWoundSkinTemperature []string `json:"peri_wound_skin_temperature"`
	OtherRelevantInformation string   `json:"other_relevant_information"`
}

// Formatter builds FormattedAssessments and analysis prompts.
type Formatter struct {
	now func() time.Time
}

// NewFormatter returns a Formatter using the wall clock.
func NewFormatter() *Formatter {
	return &Formatter{now: time.Now}
}

// WithClock overrides the timestamp source.
func (f *Formatter) WithClock(now func() time.Time) *Formatter {
	if now != nil {
		f.now = now
	}
	return f
}

// Format groups the flags. Unknown flag names are ignored.
func (f *Formatter) Format(in ClinicalAssessment) FormattedAssessment {
	return FormattedAssessment{
		Timestamp: f.now().Format(time.RFC3339Nano),
		PatientOverview: PatientOverview{
			HealthRiskFactors: collect(in.Flags, healthRiskFlags),
			Mobility:          collect(in.Flags, mobilityFlags),
			LivingSituation:   collect(in.Flags, livingFlags),
		},
		ClinicalAssessment: ClinicalFindings{
			DrainageAmount:           collect(in.Flags, drainageAmtFlags),
			DrainageType:             collect(in.Flags, drainageTypFlags),
			OdorAssessment:           collect(in.Flags, odorFlags),
			PeriWoundSkinTemperature: collect(in.Flags, temperatureFlags),
			OtherRelevantInformation: strings.TrimSpace(in.OtherInformation),
		},
	}
}

// BuildPrompt renders the user prompt for the initial analysis call.
func (f *Formatter) BuildPrompt(fa FormattedAssessment, location string, date time.Time) string {
	caseDate := date.Format(PromptDateLayout)
	clinical := fa.ClinicalAssessment
	other := clinical.OtherRelevantInformation
	if other == "" {
		other = "None"
	}

	var b strings.Builder
	b.WriteString("For the Case Information section, use these exact details:\n")
	fmt.Fprintf(&b, "- Case Date: %s\n", caseDate)
	fmt.Fprintf(&b, "- Wound Location: %s\n", location)
	fmt.Fprintf(&b, "- Drainage Amount: %s\n", firstOrDefault(clinical.DrainageAmount))
	fmt.Fprintf(&b, "- Drainage Type: %s\n", firstOrDefault(clinical.DrainageType))
	fmt.Fprintf(&b, "- Odor Assessment: %s\n", firstOrDefault(clinical.OdorAssessment))
	fmt.Fprintf(&b, "- Additional Clinical Info: %s\n\n", other)

	fmt.Fprintf(&b, "WOUND ASSESSMENT REQUEST - %s\n\n", caseDate)
	b.WriteString("Analyze the wound image and integrate with the following clinical data to provide a structured response:\n\n")
	writeSection(&b, "Health Risk Factors", fa.PatientOverview.HealthRiskFactors)
	writeSection(&b, "Mobility", fa.PatientOverview.Mobility)
	writeSection(&b, "Living Situation", fa.PatientOverview.LivingSituation)

	b.WriteString("\nCLINICAL ASSESSMENT:\n")
	writeSection(&b, "Drainage Amount", clinical.DrainageAmount)
	writeSection(&b, "Drainage Type", clinical.DrainageType)
	writeSection(&b, "Odor Assessment", clinical.OdorAssessment)
	writeSection(&b, "Peri-wound Skin Temperature", clinical.PeriWoundSkinTemperature)
	if clinical.OtherRelevantInformation != "" {
		writeSection(&b, "Other Relevant Information", []string{clinical.OtherRelevantInformation})
	}

	b.WriteString("\nBased on your visual analysis of the wound image and the clinical data provided, provide your assessment in the exact format shown in the example.\n")
	return b.String()
}

func writeSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 || items[0] == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", strings.ToUpper(title), strings.Join(items, ", "))
}

func firstOrDefault(items []string) string {
	if len(items) == 0 {
		return "Not specified"
	}
	return items[0]
}

// collect returns the display labels of the true flags in keys order.
// Always non-nil so empty groups encode as [].
func collect(flags map[string]bool, keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if flags[key] {
			out = append(out, Label(key))
		}
	}
	return out
}

// Label converts a flag name to its display form: wheelchair_dependent
// becomes "Wheelchair Dependent".
func Label(flag string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(flag, "_", " "))
}
