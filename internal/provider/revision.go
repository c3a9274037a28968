package provider

// RevisionReason is the clinician's reason for asking for different products.
type RevisionReason string

const (
	ReasonPatientWontTolerate RevisionReason = "Patient Won't Tolerate"
	ReasonTooCostly           RevisionReason = "Too Costly"
	ReasonProductsUnavailable RevisionReason = "Products Unavailable"
	ReasonOther               RevisionReason = "Other"
)

// RevisionReasons lists the accepted reasons in display order.
func RevisionReasons() []RevisionReason {
	return []RevisionReason{
		ReasonPatientWontTolerate,
		ReasonTooCostly,
		ReasonProductsUnavailable,
		ReasonOther,
	}
}

// Valid reports whether r is one of RevisionReasons.
func (r RevisionReason) Valid() bool {
	for _, known := range RevisionReasons() {
		if r == known {
			return true
		}
	}
	return false
}

// instructionFor looks r up in a vendor's instruction table, falling back
// to the Other entry.
func instructionFor(table map[RevisionReason]string, r RevisionReason) string {
	if text, ok := table[r]; ok {
		return text
	}
	return table[ReasonOther]
}
