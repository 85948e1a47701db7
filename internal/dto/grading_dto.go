package dto

import (
	"encoding/json"
	"time"

	"github.com/scriptsure-ai/grading-api/internal/models"
)

// GradingSubmitRequest describes the multipart payload accepted by the
// grading endpoint. Scores are never accepted from the client; the server
// runs the assessment itself.
type GradingSubmitRequest struct {
	AssignmentID   string `form:"assignment_id" validate:"omitempty,uuid"`
	AssignmentType string `form:"assignment_type" validate:"omitempty,max=64"`
}

// GradingStreamRequest is the single frame a websocket client sends to start
// a streamed grading run. The artifact travels base64-encoded.
type GradingStreamRequest struct {
	AssignmentID   string `json:"assignment_id" validate:"omitempty,uuid"`
	AssignmentType string `json:"assignment_type" validate:"omitempty,max=64"`
	FileName       string `json:"file_name" validate:"required,max=255"`
	Artifact       string `json:"artifact" validate:"required"`
}

// Grading stream states exposed to websocket clients.
const (
	StreamStateRunning   = "running"
	StreamStateCompleted = "completed"
	StreamStateAborted   = "aborted"
)

// GradingStreamFrame is one server-to-client frame of the grading progress
// stream: running frames carry stage/progress, the terminal frame carries
// either the outcome or an error.
type GradingStreamFrame struct {
	State      string             `json:"state"`
	Stage      string             `json:"stage,omitempty"`
	StageIndex int                `json:"stage_index,omitempty"`
	Progress   float64            `json:"progress,omitempty"`
	Outcome    *SubmissionOutcome `json:"outcome,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// AssignmentResponse serializes an assignment for API clients.
type AssignmentResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GradingResultResponse serializes a grading result for API clients.
type GradingResultResponse struct {
	ID                  string              `json:"id"`
	AssignmentID        string              `json:"assignment_id"`
	UserID              string              `json:"user_id"`
	Accuracy            float64             `json:"accuracy"`
	Completeness        float64             `json:"completeness"`
	Legibility          float64             `json:"legibility"`
	Presentation        float64             `json:"presentation"`
	OverallScore        float64             `json:"overall_score"`
	Grade               string              `json:"grade"`
	Feedback            []string            `json:"feedback"`
	Suggestions         []string            `json:"suggestions"`
	TimeSpent           int                 `json:"time_spent"`
	QualityMetrics      json.RawMessage     `json:"quality_metrics"`
	ArtifactURL         string              `json:"artifact_url,omitempty"`
	ProcessingTimestamp time.Time           `json:"processing_timestamp"`
	Assignment          *AssignmentResponse `json:"assignment,omitempty"`
}

// SubmissionOutcome combines the persisted assignment and grading result
// returned after a successful submission.
type SubmissionOutcome struct {
	GradingResult GradingResultResponse `json:"gradingResult"`
	Assignment    AssignmentResponse    `json:"assignment"`
}

// NewAssignmentResponse converts an assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          model.ID,
		Title:       model.Title,
		Subject:     model.Subject,
		Description: model.Description,
		DueDate:     model.DueDate,
		Status:      model.Status,
		OwnerID:     model.OwnerID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewGradingResultResponse converts a grading result model into a DTO. The
// quality metrics blob is passed through verbatim.
func NewGradingResultResponse(model models.GradingResult) GradingResultResponse {
	response := GradingResultResponse{
		ID:                  model.ID,
		AssignmentID:        model.AssignmentID,
		UserID:              model.UserID,
		Accuracy:            model.Accuracy,
		Completeness:        model.Completeness,
		Legibility:          model.Legibility,
		Presentation:        model.Presentation,
		OverallScore:        model.OverallScore,
		Grade:               model.Grade,
		Feedback:            model.FeedbackItems(),
		Suggestions:         model.SuggestionItems(),
		TimeSpent:           model.TimeSpent,
		QualityMetrics:      json.RawMessage(model.QualityMetrics),
		ArtifactURL:         model.ArtifactURL,
		ProcessingTimestamp: model.ProcessingTimestamp,
	}

	if model.Assignment.ID != "" {
		assignment := NewAssignmentResponse(model.Assignment)
		response.Assignment = &assignment
	}

	return response
}

// NewGradingResultResponseSlice converts grading result models into DTOs.
func NewGradingResultResponseSlice(results []models.GradingResult) []GradingResultResponse {
	responses := make([]GradingResultResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, NewGradingResultResponse(result))
	}

	return responses
}
