package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Insight validation errors
var (
	ErrInsightIDEmpty      = errors.New("insight ID cannot be empty")
	ErrInsightStudyEmpty   = errors.New("insight study ID cannot be empty")
	ErrInvalidInsightState = errors.New("invalid insight status")
)

// InsightStatus represents the lifecycle state of an insight.
type InsightStatus string

// Valid insight statuses.
const (
	InsightStatusPending   InsightStatus = "pending"
	InsightStatusCompleted InsightStatus = "completed"
	InsightStatusFailed    InsightStatus = "failed"
)

// Insight is an LLM-written narrative summary of a study's analytics,
// generated asynchronously after results are submitted. The summary is
// derived data: it can always be regenerated from the stored results.
type Insight struct {
	ID        uuid.UUID     `json:"id"`
	StudyID   uuid.UUID     `json:"study_id"`
	Summary   string        `json:"summary,omitempty"`
	Status    InsightStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewInsight creates a pending Insight for the given study.
func NewInsight(studyID uuid.UUID) (*Insight, error) {
	insight := &Insight{
		ID:        uuid.New(),
		StudyID:   studyID,
		Status:    InsightStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := insight.Validate(); err != nil {
		return nil, err
	}

	return insight, nil
}

// Validate checks if the Insight has valid data.
func (i *Insight) Validate() error {
	if i.ID == uuid.Nil {
		return ErrInsightIDEmpty
	}
	if i.StudyID == uuid.Nil {
		return ErrInsightStudyEmpty
	}

	switch i.Status {
	case InsightStatusPending, InsightStatusCompleted, InsightStatusFailed:
	default:
		return ErrInvalidInsightState
	}

	return nil
}

// Complete marks the insight as completed with the given summary.
func (i *Insight) Complete(summary string) {
	i.Summary = summary
	i.Status = InsightStatusCompleted
	i.UpdatedAt = time.Now().UTC()
}

// Fail marks the insight as failed.
func (i *Insight) Fail() {
	i.Status = InsightStatusFailed
	i.UpdatedAt = time.Now().UTC()
}
