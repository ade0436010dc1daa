package ledger

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"haneye/internal/analysis"
)

func tempLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "feedback.json"))
}

func TestEmptyLedgerInsights(t *testing.T) {
	summary := tempLedger(t).Insights()

	if summary.TotalFeedback != 0 {
		t.Fatalf("expected 0 total feedback, got %d", summary.TotalFeedback)
	}
	if summary.AccuracyRate != 0.0 {
		t.Fatalf("expected 0.0 accuracy, got %f", summary.AccuracyRate)
	}
	if len(summary.CommonErrors) != 0 {
		t.Fatalf("expected no common errors, got %v", summary.CommonErrors)
	}
	if len(summary.ImprovementSuggestions) != 1 || summary.ImprovementSuggestions[0] != suggestMonitoring {
		t.Fatalf("expected single monitoring suggestion, got %v", summary.ImprovementSuggestions)
	}
}

func TestAccuracyRate(t *testing.T) {
	l := tempLedger(t)
	for _, feedback := range []string{FeedbackCorrect, FeedbackCorrect, FeedbackIncorrect} {
		if _, err := l.Record(analysis.Result{Verdict: analysis.VerdictAuthentic}, feedback, ""); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	summary := l.Insights()
	if summary.TotalFeedback != 3 {
		t.Fatalf("expected 3 records, got %d", summary.TotalFeedback)
	}
	want := 2.0 / 3.0
	if diff := summary.AccuracyRate - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected accuracy %f, got %f", want, summary.AccuracyRate)
	}
}

func TestImprovementNotes(t *testing.T) {
	tests := []struct {
		name     string
		feedback string
		expected string
	}{
		{"correct", FeedbackCorrect, notesAccurate},
		{"incorrect", FeedbackIncorrect, notesInaccurate},
		{"uncertain", FeedbackUncertain, notesInconclusive},
		{"unrecognized", "maybe", notesInconclusive},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := tempLedger(t)
			record, err := l.Record(analysis.Result{}, tc.feedback, "")
			if err != nil {
				t.Fatalf("record: %v", err)
			}
			if record.ImprovementNotes != tc.expected {
				t.Fatalf("expected notes %q, got %q", tc.expected, record.ImprovementNotes)
			}
			if record.UserFeedback != tc.feedback {
				t.Fatalf("feedback value not stored verbatim: %q", record.UserFeedback)
			}
		})
	}
}

func TestErrorLabelExtraction(t *testing.T) {
	l := tempLedger(t)
	result := analysis.Result{
		Verdict:            analysis.VerdictAuthentic,
		ConfidenceScore:    0.9,
		DataCompleteness:   analysis.Completeness{CompletenessScore: 0.5},
		SuspiciousElements: []string{},
	}
	if _, err := l.Record(result, FeedbackIncorrect, ""); err != nil {
		t.Fatalf("record: %v", err)
	}

	labels := l.Insights().CommonErrors
	if len(labels) != 2 {
		t.Fatalf("expected exactly 2 labels, got %v", labels)
	}
	if !containsLabel(labels, ErrorHighConfidenceWrong) || !containsLabel(labels, ErrorMissedSuspiciousElements) {
		t.Fatalf("unexpected labels %v", labels)
	}
	if containsLabel(labels, ErrorCompletenessOverestimate) {
		t.Fatalf("completeness label should not fire at 0.5: %v", labels)
	}
}

func TestTopThreeTruncationAndTieBreak(t *testing.T) {
	// Three distinct labels, each once, encountered in a fixed order across
	// separate incorrect records.
	incorrect := []Record{
		{UserFeedback: FeedbackIncorrect, AnalysisResult: analysis.Result{
			ConfidenceScore:    0.9,
			SuspiciousElements: []string{"brushwork"},
		}},
		{UserFeedback: FeedbackIncorrect, AnalysisResult: analysis.Result{
			DataCompleteness:   analysis.Completeness{CompletenessScore: 0.9},
			SuspiciousElements: []string{"crackle"},
		}},
		{UserFeedback: FeedbackIncorrect, AnalysisResult: analysis.Result{
			ConfidenceScore: 0.1,
		}},
	}
	labels := commonErrors(incorrect)
	want := []string{ErrorHighConfidenceWrong, ErrorCompletenessOverestimate, ErrorMissedSuspiciousElements}
	if len(labels) != 3 {
		t.Fatalf("expected 3 labels, got %v", labels)
	}
	for i, label := range want {
		if labels[i] != label {
			t.Fatalf("expected first-encountered order %v, got %v", want, labels)
		}
	}

	// A dominant label must outrank earlier-seen singletons.
	dominant := append(incorrect, Record{AnalysisResult: analysis.Result{}}, Record{AnalysisResult: analysis.Result{}})
	labels = commonErrors(dominant)
	if labels[0] != ErrorMissedSuspiciousElements {
		t.Fatalf("expected most frequent label first, got %v", labels)
	}
}

func TestSuggestionOrdering(t *testing.T) {
	labels := []string{
		ErrorMissedSuspiciousElements,
		ErrorCompletenessOverestimate,
		ErrorHighConfidenceWrong,
	}
	got := suggestions(0.5, labels, 10)
	want := []string{
		suggestOverallPerformance,
		suggestConfidence,
		suggestCompleteness,
		suggestSuspicious,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d suggestions, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected fixed order %v, got %v", want, got)
		}
	}
}

func TestRecentWindow(t *testing.T) {
	tests := []struct {
		name     string
		records  int
		expected int
	}{
		{"seven records", 7, 5},
		{"three records", 3, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := tempLedger(t)
			for i := 0; i < tc.records; i++ {
				result := analysis.Result{TextureAnalysis: "sample " + strconv.Itoa(i)}
				if _, err := l.Record(result, FeedbackUncertain, ""); err != nil {
					t.Fatalf("record: %v", err)
				}
			}

			recent := l.Insights().RecentFeedback
			if len(recent) != tc.expected {
				t.Fatalf("expected %d recent records, got %d", tc.expected, len(recent))
			}
			first := tc.records - tc.expected
			for i, record := range recent {
				want := "sample " + strconv.Itoa(first+i)
				if record.AnalysisResult.TextureAnalysis != want {
					t.Fatalf("expected %q at position %d, got %q", want, i, record.AnalysisResult.TextureAnalysis)
				}
			}
		})
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.json")
	l := New(path)

	const n = 4
	for i := 0; i < n; i++ {
		result := analysis.Result{
			Verdict:            analysis.VerdictFake,
			ConfidenceScore:    0.25 * float64(i),
			SuspiciousElements: []string{"pigment " + strconv.Itoa(i)},
		}
		if _, err := l.Record(result, FeedbackCorrect, "uploads/art-"+strconv.Itoa(i)+".jpg"); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	reloaded := New(path)
	if reloaded.Len() != n {
		t.Fatalf("expected %d records after reload, got %d", n, reloaded.Len())
	}

	before := l.Records()
	after := reloaded.Records()
	for i := range before {
		if !before[i].Timestamp.Equal(after[i].Timestamp) {
			t.Fatalf("timestamp mismatch at %d", i)
		}
		if before[i].UserFeedback != after[i].UserFeedback ||
			before[i].ImagePath != after[i].ImagePath ||
			before[i].ImprovementNotes != after[i].ImprovementNotes {
			t.Fatalf("record %d mismatch: %+v vs %+v", i, before[i], after[i])
		}
		if before[i].AnalysisResult.Verdict != after[i].AnalysisResult.Verdict ||
			before[i].AnalysisResult.ConfidenceScore != after[i].AnalysisResult.ConfidenceScore {
			t.Fatalf("analysis snapshot %d mismatch", i)
		}
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	l := New(path)
	if l.Len() != 0 {
		t.Fatalf("expected empty ledger from corrupt file, got %d records", l.Len())
	}
	if _, err := l.Record(analysis.Result{}, FeedbackCorrect, ""); err != nil {
		t.Fatalf("record after corrupt load: %v", err)
	}
}

func TestWriteFailureSurfaces(t *testing.T) {
	// Parent directory does not exist, so the persist step must fail.
	l := New(filepath.Join(t.TempDir(), "missing", "feedback.json"))
	if _, err := l.Record(analysis.Result{}, FeedbackCorrect, ""); err == nil {
		t.Fatal("expected error from failed durable write")
	}
	if l.Len() != 0 {
		t.Fatalf("failed write must not retain the record, got %d", l.Len())
	}
}
