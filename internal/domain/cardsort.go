package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-sort result validation errors
var (
	ErrResultIDEmpty          = errors.New("result ID cannot be empty")
	ErrResultStudyIDEmpty     = errors.New("result study ID cannot be empty")
	ErrResultParticipantEmpty = errors.New("result participant ID cannot be empty")
	ErrResultNoPlacements     = errors.New("result must contain at least one category placement")
)

// CardRef identifies a card by its numeric id within a study, together with
// the text shown to participants. The analytics engine indexes cards by id,
// so ids must be stable across a study's lifetime.
type CardRef struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// CategoryPlacement is one participant's grouping of a subset of cards into a
// single category. Cards within one result are expected to be disjoint across
// categories; the analytics engine does not enforce this and counts every
// occurrence (see analysis package docs).
type CategoryPlacement struct {
	CategoryID   int       `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Cards        []CardRef `json:"cards"`
}

// CardSortResult is a single participant's completed sort for one study.
// Results are immutable once submitted and are consumed read-only by the
// analytics engine.
type CardSortResult struct {
	ID            uuid.UUID           `json:"id"`
	StudyID       uuid.UUID           `json:"study_id"`
	ParticipantID string              `json:"participant_id"`
	Placements    []CategoryPlacement `json:"placements"`
	CreatedAt     time.Time           `json:"created_at"`
}

// NewCardSortResult creates a CardSortResult for the given study and
// participant.
func NewCardSortResult(studyID uuid.UUID, participantID string, placements []CategoryPlacement) (*CardSortResult, error) {
	result := &CardSortResult{
		ID:            uuid.New(),
		StudyID:       studyID,
		ParticipantID: participantID,
		Placements:    placements,
		CreatedAt:     time.Now().UTC(),
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}

	return result, nil
}

// Validate checks if the CardSortResult has valid data. Note that empty
// categories and cards outside the study deck are data-quality findings, not
// validation failures; they are surfaced by the analysis package instead.
func (r *CardSortResult) Validate() error {
	if r.ID == uuid.Nil {
		return ErrResultIDEmpty
	}
	if r.StudyID == uuid.Nil {
		return ErrResultStudyIDEmpty
	}
	if r.ParticipantID == "" {
		return ErrResultParticipantEmpty
	}
	if len(r.Placements) == 0 {
		return ErrResultNoPlacements
	}
	return nil
}

// CardCount returns the flattened number of card placements across all
// categories, counting repeats.
func (r *CardSortResult) CardCount() int {
	count := 0
	for _, placement := range r.Placements {
		count += len(placement.Cards)
	}
	return count
}
