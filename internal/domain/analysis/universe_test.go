package analysis

import (
	"testing"

	"github.com/sortlab/sortlab-api/internal/domain"
)

func TestCardUniverseEmptyResults(t *testing.T) {
	t.Parallel()

	universe := CardUniverse(nil)
	if len(universe) != 0 {
		t.Errorf("expected empty universe, got %d cards", len(universe))
	}
}

func TestCardUniverseScansFirstResultOnly(t *testing.T) {
	t.Parallel()

	results := twoParticipantFixture()
	// A card only the second participant knows about must not enter the
	// universe.
	results[1].Placements[0].Cards = append(results[1].Placements[0].Cards, card(99, "Rogue"))

	universe := CardUniverse(results)

	if len(universe) != 4 {
		t.Fatalf("expected 4 cards in universe, got %d", len(universe))
	}
	for _, c := range universe {
		if c.ID == 99 {
			t.Errorf("card 99 from a later result leaked into the universe")
		}
	}
}

func TestCardUniverseOrderAndDeduplication(t *testing.T) {
	t.Parallel()

	// A duplicated id within the first result is kept once, at its first
	// position, with its first-seen text.
	first := result("p1",
		category(1, "A", card(3, "c"), card(1, "a")),
		category(2, "B", card(3, "c-again"), card(2, "b")),
	)

	universe := CardUniverse([]domain.CardSortResult{first})

	expected := []int{3, 1, 2}
	if len(universe) != len(expected) {
		t.Fatalf("expected %d cards, got %d", len(expected), len(universe))
	}
	for i, id := range expected {
		if universe[i].ID != id {
			t.Errorf("position %d: expected card id %d, got %d", i, id, universe[i].ID)
		}
	}
	if universe[0].Text != "c" {
		t.Errorf("duplicate card kept the later text %q, want first-seen \"c\"", universe[0].Text)
	}
}
