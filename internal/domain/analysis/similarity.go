package analysis

import (
	"sort"

	"github.com/sortlab/sortlab-api/internal/domain"
)

// SimilarityPair holds the co-occurrence statistics for one unordered pair of
// distinct cards in the universe. Similarity is the fraction of participants
// who placed both cards in the same category, in [0,1] for well-formed input.
type SimilarityPair struct {
	CardID1      int     `json:"card_id_1"`
	CardID2      int     `json:"card_id_2"`
	CardName1    string  `json:"card_name_1"`
	CardName2    string  `json:"card_name_2"`
	CoOccurrence int     `json:"co_occurrence"`
	Similarity   float64 `json:"similarity"`
}

// pairKey identifies an unordered card pair by universe indexes, low first.
// A struct key keeps the accumulator free of string-concatenation keys.
type pairKey struct {
	low, high int
}

// CardSimilarities computes the co-occurrence count and similarity for every
// unordered pair of distinct cards in the universe.
//
// For each result, each category containing both cards of a pair contributes
// one co-occurrence. Occurrences are counted as found, with no per-participant
// de-duplication: a card id repeated across categories within one result is
// tallied every time, matching the platform's historical behavior.
//
// The returned slice covers all pairs (i, j) with i < j by universe index and
// is sorted by similarity descending; ties retain the pair-enumeration order
// (i ascending, then j ascending). An empty result set yields an empty slice.
func CardSimilarities(results []domain.CardSortResult) []SimilarityPair {
	universe := CardUniverse(results)
	total := len(results)
	if total == 0 || len(universe) == 0 {
		return []SimilarityPair{}
	}

	index := universeIndex(universe)
	counts := make(map[pairKey]int)

	for _, result := range results {
		for _, placement := range result.Placements {
			// Map this category's cards onto universe indexes, dropping
			// cards outside the universe.
			members := make([]int, 0, len(placement.Cards))
			for _, card := range placement.Cards {
				if i, ok := index[card.ID]; ok {
					members = append(members, i)
				}
			}

			for a := 0; a < len(members); a++ {
				for b := a + 1; b < len(members); b++ {
					i, j := members[a], members[b]
					if i == j {
						continue
					}
					if i > j {
						i, j = j, i
					}
					counts[pairKey{i, j}]++
				}
			}
		}
	}

	pairs := make([]SimilarityPair, 0, len(universe)*(len(universe)-1)/2)
	for i := 0; i < len(universe); i++ {
		for j := i + 1; j < len(universe); j++ {
			count := counts[pairKey{i, j}]
			pairs = append(pairs, SimilarityPair{
				CardID1:      universe[i].ID,
				CardID2:      universe[j].ID,
				CardName1:    universe[i].Text,
				CardName2:    universe[j].Text,
				CoOccurrence: count,
				Similarity:   float64(count) / float64(total),
			})
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].Similarity > pairs[b].Similarity
	})

	return pairs
}

// SimilarityMatrix builds the n×n similarity matrix over the card universe:
// square, symmetric, with 1.0 on the diagonal. Off-diagonal cells carry the
// pairwise similarity from CardSimilarities; n is the universe size.
func SimilarityMatrix(results []domain.CardSortResult) [][]float64 {
	universe := CardUniverse(results)
	n := len(universe)

	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1.0
	}

	index := universeIndex(universe)
	for _, pair := range CardSimilarities(results) {
		i, j := index[pair.CardID1], index[pair.CardID2]
		matrix[i][j] = pair.Similarity
		matrix[j][i] = pair.Similarity
	}

	return matrix
}
