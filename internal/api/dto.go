package api

import (
	"time"

	"haneye/internal/analysis"
	"haneye/internal/ledger"
	"haneye/internal/store"
)

// UploadResponse reports where an uploaded artwork image was stored.
type UploadResponse struct {
	ImagePath string `json:"image_path"`
	ImageHash string `json:"image_hash"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
}

// AnalyzeRequest asks for an authenticity analysis of a stored image with
// optional artwork context.
type AnalyzeRequest struct {
	ImagePath string `json:"image_path"`
	Artist    string `json:"artist"`
	Period    string `json:"period"`
	Medium    string `json:"medium"`
	Force     bool   `json:"force"`
}

// AnalysisDTO is the API representation of a persisted analysis.
type AnalysisDTO struct {
	ID               string          `json:"id"`
	ImagePath        string          `json:"image_path"`
	ImageHash        string          `json:"image_hash"`
	Result           analysis.Result `json:"analysis_result"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	CreatedAt        time.Time       `json:"created_at"`
	Reused           bool            `json:"reused,omitempty"`
}

// AnalysesResponse holds a paginated history listing.
type AnalysesResponse struct {
	Items []AnalysisDTO `json:"items"`
	Total int64         `json:"total"`
}

// FeedbackRequest submits a verdict judgment on a prior analysis.
type FeedbackRequest struct {
	AnalysisID string `json:"analysis_id"`
	Feedback   string `json:"feedback"`
	ImagePath  string `json:"image_path"`
}

// FeedbackResponse returns the recorded ledger entry.
type FeedbackResponse struct {
	Record ledger.Record `json:"record"`
}

// FromModel converts a store.Analysis into the DTO representation.
func FromModel(a store.Analysis) (AnalysisDTO, error) {
	result, err := a.Result()
	if err != nil {
		return AnalysisDTO{}, err
	}
	return AnalysisDTO{
		ID:               a.ID,
		ImagePath:        a.ImagePath,
		ImageHash:        a.ImageHash,
		Result:           result,
		ProcessingTimeMs: a.ProcessingTimeMs,
		CreatedAt:        a.CreatedAt,
	}, nil
}
