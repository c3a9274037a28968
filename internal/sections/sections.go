// Package sections splits free-text wound reports into the fixed set of
// named sections the rest of the service works with.
package sections

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	CaseInformation           = "Case Information"
	ClinicalObservations      = "Clinical Observations"
	TreatmentPlan             = "Treatment Plan"
	RecommendedProducts       = "Recommended Products"
	WoundTissueEvaluation     = "Wound Tissue Evaluation"
	WoundSummary              = "Wound Summary"
	TissuePercentagesOverTime = "Tissue Percentages Over Time"
	errorKey                  = "error"
	ParseFailedMessage        = "Parsing failed. AI response did not contain expected headers."
)

// Headers is the fixed, ordered list of section names.
var Headers = []string{
	CaseInformation,
	ClinicalObservations,
	TreatmentPlan,
	RecommendedProducts,
	WoundTissueEvaluation,
	WoundSummary,
	TissuePercentagesOverTime,
}

// Sectioner converts a raw model response into a Response.
type Sectioner interface {
	Sectionize(text string) Response
}

// Response always carries every header in Headers. Unmatched sections hold
// the empty string. Error is set when no header could be recognized.
type Response struct {
	values map[string]string
	Error  string
}

// NewResponse returns a Response with every section empty.
func NewResponse() Response {
	values := make(map[string]string, len(Headers))
	for _, h := range Headers {
		values[h] = ""
	}
	return Response{values: values}
}

// IsHeader reports whether name is one of the fixed section names.
func IsHeader(name string) bool {
	for _, h := range Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Get returns the text of a section, or "" when absent.
func (r Response) Get(name string) string {
	return r.values[name]
}

// Set stores a section value. Names outside Headers are rejected.
func (r *Response) Set(name, value string) bool {
	if !IsHeader(name) {
		return false
	}
	if r.values == nil {
		*r = Response{values: NewResponse().values, Error: r.Error}
	}
	r.values[name] = value
	return true
}

// Failed reports whether sectioning found no recognizable header.
func (r Response) Failed() bool {
	return r.Error != ""
}

// Map returns a copy of the section values keyed by header.
func (r Response) Map() map[string]string {
	out := make(map[string]string, len(Headers))
	for _, h := range Headers {
		out[h] = r.values[h]
	}
	return out
}

// MarshalJSON writes the sections in header order, followed by the error
// marker when present.
func (r Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, h := range Headers {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writePair(&buf, h, r.values[h]); err != nil {
			return nil, err
		}
	}
	if r.Error != "" {
		buf.WriteByte(',')
		if err := writePair(&buf, errorKey, r.Error); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts any object; unknown keys are dropped.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sections: decode response: %w", err)
	}
	out := NewResponse()
	for k, v := range raw {
		if k == errorKey {
			out.Error = v
			continue
		}
		out.Set(k, v)
	}
	*r = out
	return nil
}

func writePair(buf *bytes.Buffer, key, value string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
