package analysis

import (
	"github.com/sortlab/sortlab-api/internal/domain"
)

// Report bundles every analysis over one result set. All fields are derived,
// ephemeral values: nothing in a Report is persisted by the engine, and
// recomputing from the same results yields an identical Report.
type Report struct {
	TotalParticipants   int                  `json:"total_participants"`
	Universe            []domain.CardRef     `json:"universe"`
	Similarities        []SimilarityPair     `json:"similarities"`
	SimilarityMatrix    [][]float64          `json:"similarity_matrix"`
	Dendrogram          *ClusterNode         `json:"dendrogram"`
	CategoryFrequencies []CategoryFrequency  `json:"category_frequencies"`
	PopularPlacements   []PlacementFrequency `json:"popular_placements"`
	Agreement           AgreementResult      `json:"agreement"`
	Kappa               KappaResult          `json:"kappa"`
	Validation          ValidationReport     `json:"validation"`
	Outliers            OutlierReport        `json:"outliers"`
}

// Analyze runs the full analytics pipeline over a result set. The similarity
// matrix, dendrogram, and pairwise statistics all share the card universe
// extracted by CardUniverse, so their indexes line up.
func Analyze(results []domain.CardSortResult) *Report {
	universe := CardUniverse(results)
	matrix := SimilarityMatrix(results)

	names := make([]string, len(universe))
	for i, card := range universe {
		names[i] = card.Text
	}

	return &Report{
		TotalParticipants:   len(results),
		Universe:            universe,
		Similarities:        CardSimilarities(results),
		SimilarityMatrix:    matrix,
		Dendrogram:          Cluster(matrix, names),
		CategoryFrequencies: CategoryFrequencies(results),
		PopularPlacements:   MostPopularPlacements(results),
		Agreement:           Agreement(results),
		Kappa:               CohensKappa(results),
		Validation:          ValidateResults(results),
		Outliers:            DetectOutliers(results),
	}
}
