package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ExportDocument bundles the full history with its current aggregations for
// download or offline inspection.
type ExportDocument struct {
	ExportTimestamp time.Time         `json:"export_timestamp"`
	TotalRecords    int               `json:"total_records"`
	Insights        InsightSummary    `json:"insights"`
	Statistics      StatisticsSummary `json:"statistics"`
	RawData         []Record          `json:"raw_data"`
}

// BuildExport assembles the export document from the current ledger state.
func (l *Ledger) BuildExport() ExportDocument {
	return ExportDocument{
		ExportTimestamp: l.now(),
		TotalRecords:    l.Len(),
		Insights:        l.Insights(),
		Statistics:      l.Statistics(),
		RawData:         l.Records(),
	}
}

// Export writes the export document to the given path.
func (l *Ledger) Export(path string) error {
	doc := l.BuildExport()
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
