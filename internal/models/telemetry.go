package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModelPerformance captures a snapshot of recognition model quality metrics
// shown on the insights dashboard.
type ModelPerformance struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	ModelName        string    `gorm:"size:255;not null" json:"model_name"`
	Accuracy         float64   `json:"accuracy"`
	Precision        float64   `json:"precision"`
	Recall           float64   `json:"recall"`
	F1Score          float64   `json:"f1_score"`
	InferenceSpeed   float64   `json:"inference_speed"`
	TrainingProgress float64   `json:"training_progress"`
	Timestamp        time.Time `gorm:"not null;index" json:"timestamp"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (m *ModelPerformance) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// SystemMetrics captures a snapshot of platform utilisation counters shown on
// the insights dashboard.
type SystemMetrics struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	CPUUsage     float64   `json:"cpu_usage"`
	MemoryUsage  float64   `json:"memory_usage"`
	GPUUsage     float64   `json:"gpu_usage"`
	StorageUsage float64   `json:"storage_usage"`
	ActiveUsers  int64     `json:"active_users"`
	APIRequests  int64     `json:"api_requests"`
	SuccessRate  float64   `json:"success_rate"`
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (m *SystemMetrics) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
