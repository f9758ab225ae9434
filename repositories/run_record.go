package repositories

import (
	"context"

	"github.com/formulab-api/models"
	"gorm.io/gorm"
)

// RunRecordRepository handles database operations for completed runs.
// Records are immutable: there is no update or delete.
type RunRecordRepository struct {
	db *gorm.DB
}

// NewRunRecordRepository creates a new run record repository instance
func NewRunRecordRepository(db *gorm.DB) *RunRecordRepository {
	return &RunRecordRepository{db: db}
}

// Create inserts a run record
func (r *RunRecordRepository) Create(ctx context.Context, record models.RunRecord) error {
	return r.db.WithContext(ctx).Create(&record).Error
}

// FindByProjectID returns the most recent runs of a project, newest first
func (r *RunRecordRepository) FindByProjectID(ctx context.Context, projectID string, limit int) ([]models.RunRecord, error) {
	var records []models.RunRecord
	db := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("end_time desc")
	if limit > 0 {
		db = db.Limit(limit)
	}
	result := db.Find(&records)
	return records, result.Error
}

// CountByProjectID counts the runs of a project
func (r *RunRecordRepository) CountByProjectID(ctx context.Context, projectID string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.RunRecord{}).Where("project_id = ?", projectID).Count(&count)
	return count, result.Error
}
