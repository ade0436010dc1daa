package analysis

import "strings"

// Verdict values produced by the vision provider.
const (
	VerdictAuthentic = "AUTHENTIC"
	VerdictFake      = "FAKE"
	VerdictUncertain = "UNCERTAIN"
)

// Completeness describes how much supporting information the provider had
// when judging the artwork. A zero CompletenessScore means "unknown".
type Completeness struct {
	CompletenessScore float64  `json:"completeness_score"`
	MissingFields     []string `json:"missing_fields,omitempty"`
}

// Context carries the optional artwork metadata supplied alongside an image.
type Context struct {
	Artist string `json:"artist,omitempty"`
	Period string `json:"period,omitempty"`
	Medium string `json:"medium,omitempty"`
}

// Result is the structured snapshot of one authenticity analysis. All fields
// are optional on the wire; absent numeric fields behave as 0.0 and absent
// lists as empty when the snapshot is aggregated later.
type Result struct {
	Verdict            string       `json:"verdict"`
	ConfidenceScore    float64      `json:"confidence_score"`
	DataCompleteness   Completeness `json:"data_completeness"`
	SuspiciousElements []string     `json:"suspicious_elements"`
	TextureAnalysis    string       `json:"texture_analysis,omitempty"`
	PigmentAnalysis    string       `json:"pigment_analysis,omitempty"`
	SignatureAnalysis  string       `json:"signature_analysis,omitempty"`
	ProvenanceNotes    string       `json:"provenance_notes,omitempty"`
	Context            Context      `json:"context,omitempty"`
}

// NormalizeVerdict maps free-form verdict text onto the recognized set,
// defaulting to UNCERTAIN.
func NormalizeVerdict(value string) string {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case VerdictAuthentic:
		return VerdictAuthentic
	case VerdictFake:
		return VerdictFake
	default:
		return VerdictUncertain
	}
}
