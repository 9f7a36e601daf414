package analysis

import (
	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
)

// Test fixtures shared across the analysis package tests.

func card(id int, text string) domain.CardRef {
	return domain.CardRef{ID: id, Text: text}
}

func category(id int, name string, cards ...domain.CardRef) domain.CategoryPlacement {
	if cards == nil {
		cards = []domain.CardRef{}
	}
	return domain.CategoryPlacement{CategoryID: id, CategoryName: name, Cards: cards}
}

func result(participantID string, placements ...domain.CategoryPlacement) domain.CardSortResult {
	return domain.CardSortResult{
		ID:            uuid.New(),
		StudyID:       uuid.New(),
		ParticipantID: participantID,
		Placements:    placements,
	}
}

// twoParticipantFixture is the reference scenario used throughout the tests:
// four cards, two categories, with P1 grouping {1,2}/{3,4} and P2 grouping
// {1,2,3}/{4}.
func twoParticipantFixture() []domain.CardSortResult {
	c1, c2, c3, c4 := card(1, "Apple"), card(2, "Banana"), card(3, "Carrot"), card(4, "Daikon")

	return []domain.CardSortResult{
		result("p1",
			category(10, "Fruit", c1, c2),
			category(20, "Vegetable", c3, c4),
		),
		result("p2",
			category(10, "Fruit", c1, c2, c3),
			category(20, "Vegetable", c4),
		),
	}
}
