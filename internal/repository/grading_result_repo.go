package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/scriptsure-ai/grading-api/internal/models"
)

// GradingResultRepository defines persistence operations for grading results.
// Results are immutable: there is deliberately no update or delete path.
type GradingResultRepository interface {
	// CreateGraded inserts the result and marks its assignment GRADED inside
	// a single transaction, so a stored result can never exist against an
	// assignment left in a pre-graded state.
	CreateGraded(ctx context.Context, result *models.GradingResult) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.GradingResult, error)
	GetByAssignmentForOwner(ctx context.Context, assignmentID, ownerID string) (models.GradingResult, error)
}

type gradingResultRepository struct {
	db *gorm.DB
}

// NewGradingResultRepository instantiates a GORM-backed repository.
func NewGradingResultRepository(db *gorm.DB) GradingResultRepository {
	return &gradingResultRepository{db: db}
}

func (r *gradingResultRepository) CreateGraded(ctx context.Context, result *models.GradingResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return err
		}

		update := tx.Model(&models.Assignment{}).
			Where("id = ?", result.AssignmentID).
			Update("status", models.AssignmentStatusGraded)
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}

func (r *gradingResultRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.GradingResult{}).Preload("Assignment")
}

func (r *gradingResultRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.GradingResult, error) {
	var results []models.GradingResult
	if err := r.baseQuery(ctx).
		Where("user_id = ?", ownerID).
		Order("processing_timestamp DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (r *gradingResultRepository) GetByAssignmentForOwner(ctx context.Context, assignmentID, ownerID string) (models.GradingResult, error) {
	var result models.GradingResult
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("user_id = ?", ownerID).
		Order("processing_timestamp DESC").
		First(&result).Error; err != nil {
		return models.GradingResult{}, err
	}

	return result, nil
}
