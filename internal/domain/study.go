package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Study validation errors
var (
	ErrStudyIDEmpty      = errors.New("study ID cannot be empty")
	ErrStudyOwnerEmpty   = errors.New("study owner ID cannot be empty")
	ErrStudyTitleEmpty   = errors.New("study title cannot be empty")
	ErrStudyNoCards      = errors.New("study must define at least one card")
	ErrStudyDupCardID    = errors.New("study cards must have unique ids")
	ErrStudyCardTextGone = errors.New("study cards must have non-empty text")
	ErrInvalidStudyState = errors.New("invalid study status")
)

// StudyStatus represents the lifecycle state of a study.
type StudyStatus string

// Valid study statuses. A draft study can be edited freely; an active study
// accepts participant results; a closed study is read-only.
const (
	StudyStatusDraft  StudyStatus = "draft"
	StudyStatusActive StudyStatus = "active"
	StudyStatusClosed StudyStatus = "closed"
)

// Study is a card-sorting exercise defined by a researcher: a deck of cards
// and, for closed sorts, a predefined set of category names. Participants
// sort the deck into categories; their placements are collected as
// CardSortResult records.
type Study struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Cards       []CardRef   `json:"cards"`
	Categories  []string    `json:"categories,omitempty"` // Empty for open sorts
	Status      StudyStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewStudy creates a draft Study owned by the given researcher.
func NewStudy(ownerID uuid.UUID, title, description string, cards []CardRef, categories []string) (*Study, error) {
	study := &Study{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Cards:       cards,
		Categories:  categories,
		Status:      StudyStatusDraft,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := study.Validate(); err != nil {
		return nil, err
	}

	return study, nil
}

// Validate checks if the Study has valid data.
func (s *Study) Validate() error {
	if s.ID == uuid.Nil {
		return ErrStudyIDEmpty
	}
	if s.OwnerID == uuid.Nil {
		return ErrStudyOwnerEmpty
	}
	if s.Title == "" {
		return ErrStudyTitleEmpty
	}

	switch s.Status {
	case StudyStatusDraft, StudyStatusActive, StudyStatusClosed:
	default:
		return ErrInvalidStudyState
	}

	if len(s.Cards) == 0 {
		return ErrStudyNoCards
	}

	seen := make(map[int]struct{}, len(s.Cards))
	for _, card := range s.Cards {
		if card.Text == "" {
			return ErrStudyCardTextGone
		}
		if _, dup := seen[card.ID]; dup {
			return ErrStudyDupCardID
		}
		seen[card.ID] = struct{}{}
	}

	return nil
}

// AcceptsResults reports whether participant results may be submitted.
func (s *Study) AcceptsResults() bool {
	return s.Status == StudyStatusActive
}
