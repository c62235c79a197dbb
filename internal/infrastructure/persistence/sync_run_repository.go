// Package persistence stores the local run history: one row per sync run
// with its final counters, kept in an embedded SQLite database.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/catalogsync/internal/domain/catalog"
)

// SyncRunModel is the GORM model for one recorded sync run
type SyncRunModel struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string `gorm:"type:varchar(20);not null;index"`
	Total      int
	Created    int
	Updated    int
	Conflicts  int
	Failed     int
	Skipped    int
}

// TableName returns the table name for GORM
func (SyncRunModel) TableName() string {
	return "sync_runs"
}

// ToDomain converts the model to a domain summary
func (m *SyncRunModel) ToDomain() (*catalog.RunSummary, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("persistence: invalid run id %q: %w", m.ID, err)
	}
	return &catalog.RunSummary{
		RunID:      id,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Status:     catalog.RunStatus(m.Status),
		Total:      m.Total,
		Created:    m.Created,
		Updated:    m.Updated,
		Conflicts:  m.Conflicts,
		Failed:     m.Failed,
		Skipped:    m.Skipped,
	}, nil
}

// Open opens (or creates) the history database at path and migrates it.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("persistence: failed to open history db %s: %w", path, err)
	}
	if err := db.AutoMigrate(&SyncRunModel{}); err != nil {
		return nil, fmt.Errorf("persistence: failed to migrate history db: %w", err)
	}
	return db, nil
}

// GormSyncRunRepository implements run-history storage using GORM
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// Record persists the summary of one finished run.
func (r *GormSyncRunRepository) Record(ctx context.Context, summary catalog.RunSummary) error {
	model := SyncRunModel{
		ID:         summary.RunID.String(),
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Status:     string(summary.Status),
		Total:      summary.Total,
		Created:    summary.Created,
		Updated:    summary.Updated,
		Conflicts:  summary.Conflicts,
		Failed:     summary.Failed,
		Skipped:    summary.Skipped,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("persistence: failed to record sync run: %w", err)
	}
	return nil
}

// FindRecent returns the latest runs, most recent first.
func (r *GormSyncRunRepository) FindRecent(ctx context.Context, limit int) ([]catalog.RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	var models []SyncRunModel
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("persistence: failed to load sync runs: %w", err)
	}

	summaries := make([]catalog.RunSummary, 0, len(models))
	for i := range models {
		summary, err := models[i].ToDomain()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}
