package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/scriptsure-ai/grading-api/internal/models"
)

// TelemetryRepository stores and retrieves the dashboard telemetry snapshots.
type TelemetryRepository interface {
	LatestModelPerformance(ctx context.Context) (models.ModelPerformance, error)
	LatestSystemMetrics(ctx context.Context) (models.SystemMetrics, error)
	SaveModelPerformance(ctx context.Context, snapshot *models.ModelPerformance) error
	SaveSystemMetrics(ctx context.Context, snapshot *models.SystemMetrics) error
}

type telemetryRepository struct {
	db *gorm.DB
}

// NewTelemetryRepository instantiates a GORM-backed repository.
func NewTelemetryRepository(db *gorm.DB) TelemetryRepository {
	return &telemetryRepository{db: db}
}

func (r *telemetryRepository) LatestModelPerformance(ctx context.Context) (models.ModelPerformance, error) {
	var snapshot models.ModelPerformance
	if err := r.db.WithContext(ctx).Order("timestamp DESC").First(&snapshot).Error; err != nil {
		return models.ModelPerformance{}, err
	}

	return snapshot, nil
}

func (r *telemetryRepository) LatestSystemMetrics(ctx context.Context) (models.SystemMetrics, error) {
	var snapshot models.SystemMetrics
	if err := r.db.WithContext(ctx).Order("timestamp DESC").First(&snapshot).Error; err != nil {
		return models.SystemMetrics{}, err
	}

	return snapshot, nil
}

func (r *telemetryRepository) SaveModelPerformance(ctx context.Context, snapshot *models.ModelPerformance) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *telemetryRepository) SaveSystemMetrics(ctx context.Context, snapshot *models.SystemMetrics) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}
