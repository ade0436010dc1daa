package store

import (
	"path/filepath"
	"testing"

	"haneye/internal/analysis"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "haneye.db"), true)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSaveAndGetAnalysis(t *testing.T) {
	db := tempDB(t)

	result := analysis.Result{
		Verdict:            analysis.VerdictFake,
		ConfidenceScore:    0.82,
		DataCompleteness:   analysis.Completeness{CompletenessScore: 0.6},
		SuspiciousElements: []string{"signature added over varnish"},
		Context:            analysis.Context{Artist: "Kim Hong-do"},
	}
	row := &Analysis{ID: "a-1", ImagePath: "uploads/a.jpg", ImageHash: "abc123", ProcessingTimeMs: 120}
	if err := row.SetResult(result); err != nil {
		t.Fatalf("set result: %v", err)
	}
	if err := db.SaveAnalysis(row); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := db.GetAnalysis("a-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Verdict != analysis.VerdictFake || loaded.ConfidenceScore != 0.82 {
		t.Fatalf("unexpected row %+v", loaded)
	}
	decoded, err := loaded.Result()
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if decoded.Context.Artist != "Kim Hong-do" {
		t.Fatalf("context lost: %+v", decoded)
	}
	if got := loaded.SuspiciousElements(); len(got) != 1 || got[0] != "signature added over varnish" {
		t.Fatalf("unexpected suspicious elements %v", got)
	}
}

func TestSaveAnalysisRequiresID(t *testing.T) {
	db := tempDB(t)
	if err := db.SaveAnalysis(&Analysis{}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestListAnalysesFilters(t *testing.T) {
	db := tempDB(t)
	rows := []struct {
		id      string
		verdict string
		artist  string
	}{
		{"a-1", analysis.VerdictAuthentic, "Kim Hong-do"},
		{"a-2", analysis.VerdictFake, "Kim Hong-do"},
		{"a-3", analysis.VerdictFake, "Shin Yun-bok"},
	}
	for _, r := range rows {
		row := &Analysis{ID: r.id}
		if err := row.SetResult(analysis.Result{Verdict: r.verdict, Context: analysis.Context{Artist: r.artist}}); err != nil {
			t.Fatalf("set result: %v", err)
		}
		if err := db.SaveAnalysis(row); err != nil {
			t.Fatalf("save %s: %v", r.id, err)
		}
	}

	got, total, err := db.ListAnalyses(AnalysisQuery{Verdict: "fake", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("expected 2 fake rows, got total=%d len=%d", total, len(got))
	}

	got, total, err = db.ListAnalyses(AnalysisQuery{Artist: "Shin", Limit: 10})
	if err != nil {
		t.Fatalf("list by artist: %v", err)
	}
	if total != 1 || got[0].ID != "a-3" {
		t.Fatalf("unexpected artist filter result total=%d rows=%+v", total, got)
	}

	count, err := db.CountAnalyses()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 analyses, got %d", count)
	}
}
