package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/scriptsure-ai/grading-api/internal/models"
)

// AssignmentRepository defines persistence operations for assignments. All
// lookups are owner-scoped: an assignment belonging to a different owner is
// indistinguishable from an absent one.
type AssignmentRepository interface {
	GetByIDForOwner(ctx context.Context, id, ownerID string) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Assignment, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) GetByIDForOwner(ctx context.Context, id, ownerID string) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("owner_id = ?", ownerID).
		First(&assignment).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("due_date ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
