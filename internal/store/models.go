package store

import (
	"encoding/json"
	"strings"
	"time"

	"haneye/internal/analysis"
)

// Analysis is one persisted authenticity analysis, kept so the gallery view
// can list prior verdicts and so feedback can reference a stable ID.
type Analysis struct {
	ID                string `gorm:"primaryKey;size:64"`
	ImagePath         string `gorm:"size:512;index"`
	ImageHash         string `gorm:"size:64;index"`
	Verdict           string `gorm:"size:16;index"`
	ConfidenceScore   float64
	CompletenessScore float64
	SuspiciousJSON    string `gorm:"type:text"`
	ResultJSON        string `gorm:"type:text"`
	Artist            string `gorm:"size:128"`
	Period            string `gorm:"size:128"`
	Medium            string `gorm:"size:128"`
	ProcessingTimeMs  int64
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

// SetResult stores the full analysis snapshot plus the queryable columns.
func (a *Analysis) SetResult(result analysis.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	a.ResultJSON = string(payload)
	a.Verdict = result.Verdict
	a.ConfidenceScore = result.ConfidenceScore
	a.CompletenessScore = result.DataCompleteness.CompletenessScore
	a.Artist = result.Context.Artist
	a.Period = result.Context.Period
	a.Medium = result.Context.Medium
	suspicious, err := json.Marshal(result.SuspiciousElements)
	if err != nil {
		return err
	}
	a.SuspiciousJSON = string(suspicious)
	return nil
}

// Result decodes the stored analysis snapshot.
func (a *Analysis) Result() (analysis.Result, error) {
	var result analysis.Result
	if strings.TrimSpace(a.ResultJSON) == "" {
		return result, nil
	}
	if err := json.Unmarshal([]byte(a.ResultJSON), &result); err != nil {
		return analysis.Result{}, err
	}
	return result, nil
}

// SuspiciousElements returns the decoded suspicious-element list.
func (a *Analysis) SuspiciousElements() []string {
	if strings.TrimSpace(a.SuspiciousJSON) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(a.SuspiciousJSON), &out); err != nil {
		return nil
	}
	return out
}
