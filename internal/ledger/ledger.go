package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"haneye/internal/analysis"
)

// Recognized feedback values. Anything else is accepted and stored verbatim
// but falls into the inconclusive branch for improvement notes.
const (
	FeedbackCorrect   = "correct"
	FeedbackIncorrect = "incorrect"
	FeedbackUncertain = "uncertain"
)

const (
	notesAccurate     = "analysis accurate, retain current parameters"
	notesInaccurate   = "analysis inaccurate, parameter adjustment needed"
	notesInconclusive = "feedback inconclusive, additional data needed"
)

// Record is one persisted feedback event. Field names are a stable contract
// with the backing file.
type Record struct {
	Timestamp        time.Time       `json:"timestamp"`
	UserFeedback     string          `json:"user_feedback"`
	AnalysisResult   analysis.Result `json:"analysis_result"`
	ImagePath        string          `json:"image_path,omitempty"`
	ImprovementNotes string          `json:"improvement_notes"`
}

// Ledger is the append-only feedback history, mirrored to a single JSON file.
// All methods are safe for concurrent use within one process; the file itself
// has no cross-process locking.
type Ledger struct {
	path    string
	mu      sync.Mutex
	records []Record
	now     func() time.Time
}

// New constructs a ledger backed by the file at path, loading any prior
// history. A missing file yields an empty ledger; an unreadable or corrupt
// file is reported via the log and likewise yields an empty ledger.
func New(path string) *Ledger {
	l := &Ledger{path: path, now: time.Now}
	l.records = loadRecords(path)
	return l
}

func loadRecords(path string) []Record {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logrus.WithError(err).WithField("path", path).Warn("read feedback ledger")
		}
		return nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("feedback ledger corrupt, starting empty")
		return nil
	}
	return records
}

// Record appends a feedback event for the supplied analysis snapshot and
// persists the full history. The record is only retained when the durable
// write succeeds.
func (l *Ledger) Record(result analysis.Result, userFeedback, imagePath string) (Record, error) {
	record := Record{
		Timestamp:        l.now(),
		UserFeedback:     userFeedback,
		AnalysisResult:   result,
		ImagePath:        imagePath,
		ImprovementNotes: improvementNotes(userFeedback),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, record)
	if err := l.persistLocked(); err != nil {
		l.records = l.records[:len(l.records)-1]
		return Record{}, fmt.Errorf("persist feedback: %w", err)
	}
	return record, nil
}

// persistLocked rewrites the backing file from the in-memory history. The
// caller must hold l.mu. The write goes through a temp file and rename so a
// crash mid-write cannot truncate prior history.
func (l *Ledger) persistLocked() error {
	payload, err := json.MarshalIndent(l.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}

func improvementNotes(userFeedback string) string {
	switch userFeedback {
	case FeedbackCorrect:
		return notesAccurate
	case FeedbackIncorrect:
		return notesInaccurate
	default:
		return notesInconclusive
	}
}

// Len reports the number of recorded feedback events.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Records returns a copy of the full history in insertion order.
func (l *Ledger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}
