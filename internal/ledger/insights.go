package ledger

// Error-pattern labels derived from incorrect-feedback records.
const (
	ErrorHighConfidenceWrong      = "high-confidence-wrong"
	ErrorCompletenessOverestimate = "completeness-overestimated"
	ErrorMissedSuspiciousElements = "missed-suspicious-elements"
)

const (
	suggestOverallPerformance = "overall model performance needs improvement"
	suggestConfidence         = "improve confidence-calibration algorithm"
	suggestCompleteness       = "improve completeness-analysis logic"
	suggestSuspicious         = "strengthen suspicious-element detection"
	suggestMonitoring         = "performance currently acceptable; continue monitoring."
)

const recentWindow = 5

// InsightSummary aggregates the ledger into descriptive statistics and canned
// improvement suggestions.
type InsightSummary struct {
	TotalFeedback          int      `json:"total_feedback"`
	AccuracyRate           float64  `json:"accuracy_rate"`
	CommonErrors           []string `json:"common_errors"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
	RecentFeedback         []Record `json:"recent_feedback"`
}

// Insights computes the summary over the full history.
func (l *Ledger) Insights() InsightSummary {
	l.mu.Lock()
	records := l.snapshotLocked()
	l.mu.Unlock()

	summary := InsightSummary{
		CommonErrors:   []string{},
		RecentFeedback: []Record{},
	}

	correct := 0
	var incorrect []Record
	for _, record := range records {
		switch record.UserFeedback {
		case FeedbackCorrect:
			correct++
		case FeedbackIncorrect:
			incorrect = append(incorrect, record)
		}
	}

	summary.TotalFeedback = len(records)
	if len(records) > 0 {
		summary.AccuracyRate = float64(correct) / float64(len(records))
	}
	summary.CommonErrors = commonErrors(incorrect)
	summary.ImprovementSuggestions = suggestions(summary.AccuracyRate, summary.CommonErrors, len(records))

	start := len(records) - recentWindow
	if start < 0 {
		start = 0
	}
	summary.RecentFeedback = append(summary.RecentFeedback, records[start:]...)

	return summary
}

// commonErrors tallies error-pattern labels across incorrect records and
// returns the top three by frequency, ties broken by first appearance.
func commonErrors(incorrect []Record) []string {
	counts := make(map[string]int)
	var order []string
	emit := func(label string) {
		if counts[label] == 0 {
			order = append(order, label)
		}
		counts[label]++
	}

	for _, record := range incorrect {
		result := record.AnalysisResult
		if result.ConfidenceScore > 0.8 {
			emit(ErrorHighConfidenceWrong)
		}
		if result.DataCompleteness.CompletenessScore > 0.8 {
			emit(ErrorCompletenessOverestimate)
		}
		if len(result.SuspiciousElements) == 0 {
			emit(ErrorMissedSuspiciousElements)
		}
	}

	top := make([]string, 0, 3)
	remaining := append([]string{}, order...)
	for len(top) < 3 && len(remaining) > 0 {
		bestIdx := 0
		for i := 1; i < len(remaining); i++ {
			if counts[remaining[i]] > counts[remaining[bestIdx]] {
				bestIdx = i
			}
		}
		top = append(top, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return top
}

// suggestions maps accuracy and error labels onto canned improvement advice.
// The check order is fixed and determines output order.
func suggestions(accuracyRate float64, commonErrors []string, total int) []string {
	var out []string
	if total > 0 && accuracyRate < 0.7 {
		out = append(out, suggestOverallPerformance)
	}
	if containsLabel(commonErrors, ErrorHighConfidenceWrong) {
		out = append(out, suggestConfidence)
	}
	if containsLabel(commonErrors, ErrorCompletenessOverestimate) {
		out = append(out, suggestCompleteness)
	}
	if containsLabel(commonErrors, ErrorMissedSuspiciousElements) {
		out = append(out, suggestSuspicious)
	}
	if len(out) == 0 {
		out = append(out, suggestMonitoring)
	}
	return out
}

func containsLabel(labels []string, target string) bool {
	for _, label := range labels {
		if label == target {
			return true
		}
	}
	return false
}
