package api

import (
	"github.com/sortlab/sortlab-api/internal/domain"
)

// RegisterRequest is the payload for user registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"` // bcrypt limit is 72 bytes
}

// LoginRequest is the payload for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest is the payload for exchanging a refresh token for a new
// token pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned after successful registration, login, or refresh.
type AuthResponse struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"` // RFC 3339
}

// CardPayload is a card definition inside a study request.
type CardPayload struct {
	ID   int    `json:"id" validate:"gte=0"`
	Text string `json:"text" validate:"required,max=500"`
}

// CreateStudyRequest is the payload for creating a study.
type CreateStudyRequest struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description" validate:"max=2000"`
	Cards       []CardPayload `json:"cards" validate:"required,min=1,max=500,dive"`
	Categories  []string      `json:"categories" validate:"max=100,dive,required,max=200"`
}

// UpdateStudyRequest is the payload for updating a study. Cards and
// categories may only change while the study is in draft; omitting them keeps
// the existing deck.
type UpdateStudyRequest struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description" validate:"max=2000"`
	Cards       []CardPayload `json:"cards" validate:"omitempty,min=1,max=500,dive"`
	Categories  []string      `json:"categories" validate:"omitempty,max=100,dive,required,max=200"`
}

// UpdateStudyStatusRequest is the payload for a study lifecycle transition.
type UpdateStudyStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active closed"`
}

// PlacementPayload is one category grouping inside a result submission.
type PlacementPayload struct {
	CategoryID   int           `json:"category_id" validate:"gte=0"`
	CategoryName string        `json:"category_name" validate:"required,max=200"`
	Cards        []CardPayload `json:"cards" validate:"dive"`
}

// SubmitResultRequest is the payload for submitting a participant's completed
// sort.
type SubmitResultRequest struct {
	ParticipantID string             `json:"participant_id" validate:"required,max=200"`
	Placements    []PlacementPayload `json:"placements" validate:"required,min=1,dive"`
}

// StudyListResponse wraps a page of studies.
type StudyListResponse struct {
	Studies []*domain.Study `json:"studies"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

func toCardRefs(cards []CardPayload) []domain.CardRef {
	if len(cards) == 0 {
		return nil
	}
	refs := make([]domain.CardRef, len(cards))
	for i, c := range cards {
		refs[i] = domain.CardRef{ID: c.ID, Text: c.Text}
	}
	return refs
}

func toPlacements(placements []PlacementPayload) []domain.CategoryPlacement {
	if len(placements) == 0 {
		return nil
	}
	out := make([]domain.CategoryPlacement, len(placements))
	for i, p := range placements {
		out[i] = domain.CategoryPlacement{
			CategoryID:   p.CategoryID,
			CategoryName: p.CategoryName,
			Cards:        toCardRefs(p.Cards),
		}
	}
	return out
}
