package analysis

import (
	"sort"

	"github.com/sortlab/sortlab-api/internal/domain"
)

// CardAgreement is the placement consensus for a single card: the fraction of
// participants whose placement matches the card's most common category.
type CardAgreement struct {
	CardID     int         `json:"card_id"`
	CardText   string      `json:"card_text"`
	Agreement  float64     `json:"agreement"`
	Placements map[int]int `json:"placements"` // category id → participant count
}

// AgreementResult holds per-card agreement scores and their arithmetic mean.
type AgreementResult struct {
	OverallAgreement float64         `json:"overall_agreement"`
	CardAgreements   []CardAgreement `json:"card_agreements"`
}

// Agreement measures how consistently participants placed each card in the
// universe. For each card it tallies placements per category id; the card's
// agreement is the largest tally divided by the participant count, and the
// overall agreement is the mean over all cards. Results are sorted by
// agreement descending, ties in universe order.
//
// Fewer than two results cannot agree or disagree, so the zero value is
// returned.
func Agreement(results []domain.CardSortResult) AgreementResult {
	if len(results) < 2 {
		return AgreementResult{OverallAgreement: 0, CardAgreements: []CardAgreement{}}
	}

	universe := CardUniverse(results)
	total := float64(len(results))

	agreements := make([]CardAgreement, 0, len(universe))
	sum := 0.0

	for _, card := range universe {
		placements := make(map[int]int)

		for _, result := range results {
			for _, placement := range result.Placements {
				for _, placed := range placement.Cards {
					if placed.ID == card.ID {
						placements[placement.CategoryID]++
					}
				}
			}
		}

		max := 0
		for _, count := range placements {
			if count > max {
				max = count
			}
		}

		agreement := float64(max) / total
		sum += agreement

		agreements = append(agreements, CardAgreement{
			CardID:     card.ID,
			CardText:   card.Text,
			Agreement:  agreement,
			Placements: placements,
		})
	}

	overall := 0.0
	if len(agreements) > 0 {
		overall = sum / float64(len(agreements))
	}

	sort.SliceStable(agreements, func(a, b int) bool {
		return agreements[a].Agreement > agreements[b].Agreement
	})

	return AgreementResult{OverallAgreement: overall, CardAgreements: agreements}
}
