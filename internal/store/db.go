package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Analysis{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveAnalysis persists a new analysis row.
func (d *Database) SaveAnalysis(a *Analysis) error {
	if a == nil {
		return errors.New("analysis is nil")
	}
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("analysis id is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(a).Error
}

// GetAnalysis fetches an analysis by ID.
func (d *Database) GetAnalysis(id string) (*Analysis, error) {
	var row Analysis
	if err := d.gorm.First(&row, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// LatestByImageHash returns the most recent analysis for an image hash, if any.
func (d *Database) LatestByImageHash(hash string) (*Analysis, error) {
	var row Analysis
	err := d.gorm.Where("image_hash = ?", strings.TrimSpace(hash)).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// AnalysisQuery encapsulates filters and pagination for listing analyses.
type AnalysisQuery struct {
	Verdict string
	Artist  string
	Offset  int
	Limit   int
}

// ListAnalyses returns paginated analysis rows, newest first.
func (d *Database) ListAnalyses(opts AnalysisQuery) ([]Analysis, int64, error) {
	base := d.gorm.Model(&Analysis{})
	if verdict := strings.TrimSpace(opts.Verdict); verdict != "" {
		base = base.Where("verdict = ?", strings.ToUpper(verdict))
	}
	if artist := strings.TrimSpace(opts.Artist); artist != "" {
		like := fmt.Sprintf("%%%s%%", artist)
		base = base.Where("artist LIKE ?", like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Order("created_at DESC").Offset(opts.Offset)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var rows []Analysis
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountAnalyses returns the number of stored analyses.
func (d *Database) CountAnalyses() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Analysis{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
