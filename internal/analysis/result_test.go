package analysis

import (
	"encoding/json"
	"testing"
)

func TestOptionalFieldDefaults(t *testing.T) {
	var result Result
	if err := json.Unmarshal([]byte(`{"verdict":"FAKE"}`), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.ConfidenceScore != 0.0 {
		t.Fatalf("expected 0.0 confidence default, got %f", result.ConfidenceScore)
	}
	if result.DataCompleteness.CompletenessScore != 0.0 {
		t.Fatalf("expected 0.0 completeness default, got %f", result.DataCompleteness.CompletenessScore)
	}
	if len(result.SuspiciousElements) != 0 {
		t.Fatalf("expected empty suspicious elements, got %v", result.SuspiciousElements)
	}
}

func TestNormalizeVerdict(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"authentic", "authentic", VerdictAuthentic},
		{"fake padded", " FAKE ", VerdictFake},
		{"uncertain", "UNCERTAIN", VerdictUncertain},
		{"unknown", "genuine", VerdictUncertain},
		{"empty", "", VerdictUncertain},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeVerdict(tc.input); got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}
