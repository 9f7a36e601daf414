package analysis

import (
	"github.com/sortlab/sortlab-api/internal/domain"
)

// CardUniverse extracts the canonical card universe for an analysis run: the
// ordered, de-duplicated-by-id list of cards found by scanning the FIRST
// result's categories, in the order first encountered.
//
// Every pairwise computation in this package indexes cards against this
// universe, so all analyses of the same result set agree on card identity and
// ordering. Cards referenced by later participants that do not appear in the
// first result are silently ignored, a documented limitation inherited from
// the platform's original design.
//
// An empty result set yields an empty universe.
func CardUniverse(results []domain.CardSortResult) []domain.CardRef {
	if len(results) == 0 {
		return []domain.CardRef{}
	}

	universe := []domain.CardRef{}
	seen := make(map[int]struct{})

	for _, placement := range results[0].Placements {
		for _, card := range placement.Cards {
			if _, ok := seen[card.ID]; ok {
				continue
			}
			seen[card.ID] = struct{}{}
			universe = append(universe, card)
		}
	}

	return universe
}

// universeIndex maps card ids to their position in the universe.
func universeIndex(universe []domain.CardRef) map[int]int {
	index := make(map[int]int, len(universe))
	for i, card := range universe {
		index[card.ID] = i
	}
	return index
}
