package dto

import (
	"time"

	"github.com/scriptsure-ai/grading-api/internal/models"
)

// ModelPerformanceResponse serializes the latest model telemetry snapshot.
type ModelPerformanceResponse struct {
	ModelName        string    `json:"model_name"`
	Accuracy         float64   `json:"accuracy"`
	Precision        float64   `json:"precision"`
	Recall           float64   `json:"recall"`
	F1Score          float64   `json:"f1_score"`
	InferenceSpeed   float64   `json:"inference_speed"`
	TrainingProgress float64   `json:"training_progress"`
	Timestamp        time.Time `json:"timestamp"`
}

// SystemMetricsResponse serializes the latest platform telemetry snapshot.
type SystemMetricsResponse struct {
	CPUUsage     float64   `json:"cpu_usage"`
	MemoryUsage  float64   `json:"memory_usage"`
	GPUUsage     float64   `json:"gpu_usage"`
	StorageUsage float64   `json:"storage_usage"`
	ActiveUsers  int64     `json:"active_users"`
	APIRequests  int64     `json:"api_requests"`
	SuccessRate  float64   `json:"success_rate"`
	Timestamp    time.Time `json:"timestamp"`
}

// GradingSummary aggregates the caller's grading activity.
type GradingSummary struct {
	TotalAssignments  int                     `json:"total_assignments"`
	GradedAssignments int                     `json:"graded_assignments"`
	AverageScore      float64                 `json:"average_score"`
	RecentResults     []GradingResultResponse `json:"recent_results"`
}

// InsightsDashboardResponse is the aggregated payload behind the insights
// dashboard panels.
type InsightsDashboardResponse struct {
	ModelPerformance *ModelPerformanceResponse `json:"model_performance"`
	SystemMetrics    *SystemMetricsResponse    `json:"system_metrics"`
	GradingSummary   GradingSummary            `json:"grading_summary"`
	CacheHit         bool                      `json:"cache_hit,omitempty"`
}

// NewModelPerformanceResponse converts a telemetry model into a DTO.
func NewModelPerformanceResponse(model models.ModelPerformance) ModelPerformanceResponse {
	return ModelPerformanceResponse{
		ModelName:        model.ModelName,
		Accuracy:         model.Accuracy,
		Precision:        model.Precision,
		Recall:           model.Recall,
		F1Score:          model.F1Score,
		InferenceSpeed:   model.InferenceSpeed,
		TrainingProgress: model.TrainingProgress,
		Timestamp:        model.Timestamp,
	}
}

// NewSystemMetricsResponse converts a telemetry model into a DTO.
func NewSystemMetricsResponse(model models.SystemMetrics) SystemMetricsResponse {
	return SystemMetricsResponse{
		CPUUsage:     model.CPUUsage,
		MemoryUsage:  model.MemoryUsage,
		GPUUsage:     model.GPUUsage,
		StorageUsage: model.StorageUsage,
		ActiveUsers:  model.ActiveUsers,
		APIRequests:  model.APIRequests,
		SuccessRate:  model.SuccessRate,
		Timestamp:    model.Timestamp,
	}
}
