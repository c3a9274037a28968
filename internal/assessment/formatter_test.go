package assessment

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestFormat_GroupsFlags(t *testing.T) {
	f := NewFormatter()
	fa := f.Format(ClinicalAssessment{
		Flags: map[string]bool{
			"diabetes":               true,
			"wheelchair_dependent":   true,
			"caregiver_support":      true,
			"purulent":               true,
			"odor_foul":              true,
			"temperature_warmer_hot": true,
			"drainage_heavy":         true,
			"malnutrition":           false,
		},
		OtherInformation: "  Chronic wound with signs of infection. ",
	})

	assert.Equal(t, []string{"Diabetes"}, fa.PatientOverview.HealthRiskFactors)
	assert.Equal(t, []string{"Wheelchair Dependent"}, fa.PatientOverview.Mobility)
	assert.Equal(t, []string{"Caregiver Support"}, fa.PatientOverview.LivingSituation)
	assert.Equal(t, []string{"Drainage Heavy"}, fa.ClinicalAssessment.DrainageAmount)
	assert.Equal(t, []string{"Purulent"}, fa.ClinicalAssessment.DrainageType)
	assert.Equal(t, []string{"Odor Foul"}, fa.ClinicalAssessment.OdorAssessment)
	assert.Equal(t, []string{"Temperature Warmer Hot"}, fa.ClinicalAssessment.PeriWoundSkinTemperature)
	assert.Equal(t, "Chronic wound with signs of infection.", fa.ClinicalAssessment.OtherRelevantInformation)
}

func TestFormat_IgnoresUnknownFlags(t *testing.T) {
	fa := NewFormatter().Format(ClinicalAssessment{Flags: map[string]bool{"left_handed": true, "diabetes": true}})
	assert.Equal(t, []string{"Diabetes"}, fa.PatientOverview.HealthRiskFactors)
	for _, label := range append(fa.PatientOverview.Mobility, fa.ClinicalAssessment.DrainageType...) {
		assert.NotEqual(t, "Left Handed", label)
	}
}

func TestFormat_OrderFollowsCategoryNotInput(t *testing.T) {
	fa := NewFormatter().Format(ClinicalAssessment{Flags: map[string]bool{
		"malnutrition":                true,
		"diabetes":                    true,
		"peripheral_arterial_disease": true,
	}})
	assert.Equal(t, []string{"Diabetes", "Peripheral Arterial Disease", "Malnutrition"}, fa.PatientOverview.HealthRiskFactors)
}

func TestFormat_DeterministicExceptTimestamp(t *testing.T) {
	in := ClinicalAssessment{Flags: map[string]bool{"bedbound": true, "serous": true, "odor_absent": true}, OtherInformation: "note"}

	first := NewFormatter().WithClock(fixedClock(time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC))).Format(in)
	second := NewFormatter().WithClock(fixedClock(time.Date(2025, 10, 2, 9, 0, 0, 0, time.UTC))).Format(in)

	assert.NotEqual(t, first.Timestamp, second.Timestamp)
	assert.Equal(t, first.PatientOverview, second.PatientOverview)
	assert.Equal(t, first.ClinicalAssessment, second.ClinicalAssessment)
}

func TestFormat_EmptyGroupsEncodeAsArrays(t *testing.T) {
	fa := NewFormatter().Format(ClinicalAssessment{})
	raw, err := json.Marshal(fa)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"health_risk_factors":[]`)
	assert.Contains(t, string(raw), `"drainage_type":[]`)
	assert.NotContains(t, string(raw), "null")
}

func TestBuildPrompt_CaseInformation(t *testing.T) {
	f := NewFormatter()
	fa := f.Format(ClinicalAssessment{Flags: map[string]bool{"drainage_scant": true, "serous": true}})
	prompt := f.BuildPrompt(fa, "Lower Left Leg/Shin", time.Date(2025, 10, 11, 0, 0, 0, 0, time.UTC))

	assert.Contains(t, prompt, "- Case Date: 11/10/2025")
	assert.Contains(t, prompt, "- Wound Location: Lower Left Leg/Shin")
	assert.Contains(t, prompt, "- Drainage Amount: Drainage Scant")
	assert.Contains(t, prompt, "- Drainage Type: Serous")
	assert.Contains(t, prompt, "- Odor Assessment: Not specified")
	assert.Contains(t, prompt, "- Additional Clinical Info: None")
	assert.Contains(t, prompt, "WOUND ASSESSMENT REQUEST - 11/10/2025")
}

func TestBuildPrompt_OmitsEmptySections(t *testing.T) {
	f := NewFormatter()
	fa := f.Format(ClinicalAssessment{Flags: map[string]bool{"diabetes": true, "autoimmune_disorder": true}})
	prompt := f.BuildPrompt(fa, "Right Arm", time.Now())

	assert.Contains(t, prompt, "HEALTH RISK FACTORS: Diabetes, Autoimmune Disorder\n")
	assert.NotContains(t, prompt, "MOBILITY:")
	assert.NotContains(t, prompt, "LIVING SITUATION:")
	assert.NotContains(t, prompt, "DRAINAGE TYPE:")
	assert.NotContains(t, prompt, "PERI-WOUND SKIN TEMPERATURE:")
	assert.NotContains(t, prompt, "OTHER RELEVANT INFORMATION:")
	assert.True(t, strings.Contains(prompt, "- Additional Clinical Info: None\n\nWOUND"))
}

func TestBuildPrompt_IncludesOtherInformation(t *testing.T) {
	f := NewFormatter()
	fa := f.Format(ClinicalAssessment{OtherInformation: "Recent debridement"})
	prompt := f.BuildPrompt(fa, "Sacrum", time.Now())
	assert.Contains(t, prompt, "OTHER RELEVANT INFORMATION: Recent debridement\n")
	assert.Contains(t, prompt, "- Additional Clinical Info: Recent debridement")
}

func TestKnownFlagsCoversEveryGroup(t *testing.T) {
	flags := KnownFlags()
	assert.Contains(t, flags, "diabetes")
	assert.Contains(t, flags, "temperature_cooler")
	assert.Len(t, flags, 24)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Peripheral Arterial Disease", Label("peripheral_arterial_disease"))
	assert.Equal(t, "Odor Absent", Label("odor_absent"))
}
