package analysis

import (
	"sort"

	"github.com/sortlab/sortlab-api/internal/domain"
)

// CardFrequency is the placement count for one card within one category.
type CardFrequency struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Frequency int    `json:"frequency"`
}

// CategoryFrequency aggregates usage of one category (keyed by id) across all
// participants. Usage counts participants, not occurrences: a participant
// contributes at most one to Usage no matter how often the category id
// repeats within their result.
type CategoryFrequency struct {
	CategoryID   int             `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Usage        int             `json:"usage"`
	Percentage   float64         `json:"percentage"`
	Cards        []CardFrequency `json:"cards"`
}

// PlacementFrequency is the popularity of one exact (card, category) pairing
// across all participants.
type PlacementFrequency struct {
	CardID       int     `json:"card_id"`
	CardText     string  `json:"card_text"`
	CategoryID   int     `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Frequency    int     `json:"frequency"`
	Percentage   float64 `json:"percentage"`
}

// categoryAccumulator gathers per-category tallies while keeping first-seen
// ordering for determinism.
type categoryAccumulator struct {
	name      string // From the category's first occurrence, never overwritten
	usage     int
	cardOrder []int
	cards     map[int]*CardFrequency
}

// CategoryFrequencies groups placements by category id across all results.
// Category identity is the id, not the name: the reported name is taken from
// the first occurrence. Card frequencies within a category count every
// occurrence found. Cards are sorted by frequency descending within each
// category, and categories by usage descending; ties keep first-seen order.
// Percentage is usage relative to the participant count, in [0,100].
func CategoryFrequencies(results []domain.CardSortResult) []CategoryFrequency {
	total := len(results)
	if total == 0 {
		return []CategoryFrequency{}
	}

	order := []int{}
	accs := make(map[int]*categoryAccumulator)

	for _, result := range results {
		seenThisResult := make(map[int]struct{})

		for _, placement := range result.Placements {
			acc, ok := accs[placement.CategoryID]
			if !ok {
				acc = &categoryAccumulator{
					name:  placement.CategoryName,
					cards: make(map[int]*CardFrequency),
				}
				accs[placement.CategoryID] = acc
				order = append(order, placement.CategoryID)
			}

			if _, counted := seenThisResult[placement.CategoryID]; !counted {
				seenThisResult[placement.CategoryID] = struct{}{}
				acc.usage++
			}

			for _, card := range placement.Cards {
				cf, ok := acc.cards[card.ID]
				if !ok {
					cf = &CardFrequency{ID: card.ID, Text: card.Text}
					acc.cards[card.ID] = cf
					acc.cardOrder = append(acc.cardOrder, card.ID)
				}
				cf.Frequency++
			}
		}
	}

	frequencies := make([]CategoryFrequency, 0, len(order))
	for _, categoryID := range order {
		acc := accs[categoryID]

		cards := make([]CardFrequency, 0, len(acc.cardOrder))
		for _, cardID := range acc.cardOrder {
			cards = append(cards, *acc.cards[cardID])
		}
		sort.SliceStable(cards, func(a, b int) bool {
			return cards[a].Frequency > cards[b].Frequency
		})

		frequencies = append(frequencies, CategoryFrequency{
			CategoryID:   categoryID,
			CategoryName: acc.name,
			Usage:        acc.usage,
			Percentage:   float64(acc.usage) / float64(total) * 100,
			Cards:        cards,
		})
	}

	sort.SliceStable(frequencies, func(a, b int) bool {
		return frequencies[a].Usage > frequencies[b].Usage
	})

	return frequencies
}

// placementKey identifies an exact (card, category) pairing.
type placementKey struct {
	cardID     int
	categoryID int
}

// MostPopularPlacements ranks exact (card, category) pairings by how many
// participant placements they received, sorted by frequency descending with
// ties in first-seen order. Names and texts come from the first occurrence of
// each pairing; percentage is relative to the participant count.
func MostPopularPlacements(results []domain.CardSortResult) []PlacementFrequency {
	total := len(results)
	if total == 0 {
		return []PlacementFrequency{}
	}

	order := []placementKey{}
	placements := make(map[placementKey]*PlacementFrequency)

	for _, result := range results {
		for _, placement := range result.Placements {
			for _, card := range placement.Cards {
				key := placementKey{cardID: card.ID, categoryID: placement.CategoryID}

				pf, ok := placements[key]
				if !ok {
					pf = &PlacementFrequency{
						CardID:       card.ID,
						CardText:     card.Text,
						CategoryID:   placement.CategoryID,
						CategoryName: placement.CategoryName,
					}
					placements[key] = pf
					order = append(order, key)
				}
				pf.Frequency++
			}
		}
	}

	ranked := make([]PlacementFrequency, 0, len(order))
	for _, key := range order {
		pf := placements[key]
		pf.Percentage = float64(pf.Frequency) / float64(total) * 100
		ranked = append(ranked, *pf)
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Frequency > ranked[b].Frequency
	})

	return ranked
}
