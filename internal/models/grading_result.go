package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GradingResult is the immutable outcome of one assessment run against one
// assignment. Results are append-only: an assignment may accumulate several
// results through resubmission, but a stored result is never updated.
type GradingResult struct {
	ID                  string         `gorm:"primaryKey;size:36" json:"id"`
	AssignmentID        string         `gorm:"size:36;not null;index" json:"assignment_id"`
	UserID              string         `gorm:"size:36;not null;index" json:"user_id"`
	Accuracy            float64        `gorm:"not null" json:"accuracy"`
	Completeness        float64        `gorm:"not null" json:"completeness"`
	Legibility          float64        `gorm:"not null" json:"legibility"`
	Presentation        float64        `gorm:"not null" json:"presentation"`
	OverallScore        float64        `gorm:"not null" json:"overall_score"`
	Grade               string         `gorm:"size:4;not null" json:"grade"`
	Feedback            datatypes.JSON `gorm:"type:json" json:"feedback"`
	Suggestions         datatypes.JSON `gorm:"type:json" json:"suggestions"`
	TimeSpent           int            `json:"time_spent"`
	QualityMetrics      datatypes.JSON `gorm:"type:json" json:"quality_metrics"`
	ArtifactURL         string         `gorm:"size:512" json:"artifact_url"`
	ProcessingTimestamp time.Time      `gorm:"not null;index" json:"processing_timestamp"`
	CreatedAt           time.Time      `json:"created_at"`
	Assignment          Assignment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (r *GradingResult) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// FeedbackItems decodes the stored feedback list. A malformed or empty column
// yields an empty slice rather than an error; the column is written by this
// service only.
func (r GradingResult) FeedbackItems() []string {
	return decodeStringList(r.Feedback)
}

// SuggestionItems decodes the stored suggestion list.
func (r GradingResult) SuggestionItems() []string {
	return decodeStringList(r.Suggestions)
}

// EncodeStringList serializes an ordered list of strings into a JSON column value.
func EncodeStringList(items []string) (datatypes.JSON, error) {
	if items == nil {
		items = []string{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(payload), nil
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	return items
}
