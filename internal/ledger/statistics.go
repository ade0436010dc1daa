package ledger

// ConfidenceStats summarizes confidence scores across all records. Records
// without a score contribute 0.0.
type ConfidenceStats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// StatisticsSummary breaks the history down by feedback value and calendar
// day, with aggregate confidence figures.
type StatisticsSummary struct {
	FeedbackDistribution map[string]int  `json:"feedback_distribution"`
	DailyFeedbackTrend   map[string]int  `json:"daily_feedback_trend"`
	ConfidenceStatistics ConfidenceStats `json:"confidence_statistics"`
}

// Statistics computes the summary. An empty ledger yields an empty result.
func (l *Ledger) Statistics() StatisticsSummary {
	l.mu.Lock()
	records := l.snapshotLocked()
	l.mu.Unlock()

	summary := StatisticsSummary{
		FeedbackDistribution: map[string]int{},
		DailyFeedbackTrend:   map[string]int{},
	}
	if len(records) == 0 {
		return summary
	}

	var sum float64
	min := records[0].AnalysisResult.ConfidenceScore
	max := min
	for _, record := range records {
		summary.FeedbackDistribution[record.UserFeedback]++
		summary.DailyFeedbackTrend[record.Timestamp.Format("2006-01-02")]++

		score := record.AnalysisResult.ConfidenceScore
		sum += score
		if score < min {
			min = score
		}
		if score > max {
			max = score
		}
	}

	summary.ConfidenceStatistics = ConfidenceStats{
		Mean: sum / float64(len(records)),
		Min:  min,
		Max:  max,
	}
	return summary
}
