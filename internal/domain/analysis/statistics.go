package analysis

import (
	"math"
	"sort"

	"github.com/sortlab/sortlab-api/internal/domain"
)

// DefaultAlpha is the significance threshold used when none is supplied.
const DefaultAlpha = 0.05

// fixedExpectedAgreement is the chance-agreement constant used by the
// pairwise kappa. The platform has always used 0.5 here instead of deriving
// expected agreement from marginal frequencies; golden outputs depend on it.
const fixedExpectedAgreement = 0.5

// zScores maps supported confidence levels to their normal-distribution
// critical values. Unlisted levels fall back to the 95% value.
var zScores = map[float64]float64{
	0.90: 1.645,
	0.95: 1.96,
	0.99: 2.576,
}

// Interval is a confidence interval over a proportion, clamped to [0,1].
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ConfidenceInterval computes a Wald interval for a proportion at the given
// confidence level (0.90, 0.95, or 0.99; anything else uses the 95% z-value).
// A zero sample size yields the zero interval.
func ConfidenceInterval(proportion float64, sampleSize int, confidenceLevel float64) Interval {
	if sampleSize == 0 {
		return Interval{}
	}

	z, ok := zScores[confidenceLevel]
	if !ok {
		z = zScores[0.95]
	}

	standardError := math.Sqrt(proportion * (1 - proportion) / float64(sampleSize))

	return Interval{
		Lower: clamp01(proportion - z*standardError),
		Upper: clamp01(proportion + z*standardError),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PairwiseKappa is the kappa-style agreement between two participants over
// all card pairs in the universe.
type PairwiseKappa struct {
	ParticipantA      string  `json:"participant_a"`
	ParticipantB      string  `json:"participant_b"`
	ObservedAgreement float64 `json:"observed_agreement"`
	Kappa             float64 `json:"kappa"`
}

// KappaResult is the overall Cohen's-kappa-style agreement across all
// participant pairs, with a qualitative interpretation.
type KappaResult struct {
	Kappa              float64         `json:"kappa"`
	Interpretation     string          `json:"interpretation"`
	PairwiseAgreements []PairwiseKappa `json:"pairwise_agreements"`
}

// CohensKappa computes a simplified Cohen's-kappa-style agreement statistic.
//
// For every unordered pair of participants, every unordered pair of distinct
// universe cards is compared: do both participants agree on whether the two
// cards share a category? Observed agreement is the matching fraction, and
// kappa = (observed − expected) / (1 − expected) with expected fixed at 0.5.
// The fixed expected agreement is an intentional simplification preserved for
// behavioral compatibility; it overstates chance agreement for most sorts and
// should be presented to users as approximate.
//
// The overall kappa is the mean over all participant pairs, interpreted on
// the usual Landis-Koch-style scale. Pairwise entries are sorted by kappa
// descending, ties in enumeration order. Fewer than two results, or a
// universe with fewer than two cards (nothing to compare), yields the
// "Insufficient data" zero value.
func CohensKappa(results []domain.CardSortResult) KappaResult {
	if len(results) < 2 {
		return KappaResult{Kappa: 0, Interpretation: "Insufficient data", PairwiseAgreements: []PairwiseKappa{}}
	}

	universe := CardUniverse(results)
	n := len(universe)
	if n < 2 {
		return KappaResult{Kappa: 0, Interpretation: "Insufficient data", PairwiseAgreements: []PairwiseKappa{}}
	}

	// Precompute each participant's co-location relation over universe pairs.
	colocated := make([]map[pairKey]bool, len(results))
	index := universeIndex(universe)
	for p, result := range results {
		pairs := make(map[pairKey]bool)
		for _, placement := range result.Placements {
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
					pairs[pairKey{i, j}] = true
				}
			}
		}
		colocated[p] = pairs
	}

	totalComparisons := n * (n - 1) / 2
	pairwise := make([]PairwiseKappa, 0, len(results)*(len(results)-1)/2)
	kappaSum := 0.0

	for p := 0; p < len(results); p++ {
		for q := p + 1; q < len(results); q++ {
			matches := 0
			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					key := pairKey{i, j}
					if colocated[p][key] == colocated[q][key] {
						matches++
					}
				}
			}

			observed := float64(matches) / float64(totalComparisons)
			kappa := (observed - fixedExpectedAgreement) / (1 - fixedExpectedAgreement)
			kappaSum += kappa

			pairwise = append(pairwise, PairwiseKappa{
				ParticipantA:      results[p].ParticipantID,
				ParticipantB:      results[q].ParticipantID,
				ObservedAgreement: observed,
				Kappa:             kappa,
			})
		}
	}

	overall := kappaSum / float64(len(pairwise))

	sort.SliceStable(pairwise, func(a, b int) bool {
		return pairwise[a].Kappa > pairwise[b].Kappa
	})

	return KappaResult{
		Kappa:              overall,
		Interpretation:     interpretKappa(overall),
		PairwiseAgreements: pairwise,
	}
}

// interpretKappa maps a kappa value onto the conventional qualitative scale.
func interpretKappa(kappa float64) string {
	switch {
	case kappa < 0:
		return "Poor agreement"
	case kappa < 0.20:
		return "Slight agreement"
	case kappa < 0.40:
		return "Fair agreement"
	case kappa < 0.60:
		return "Moderate agreement"
	case kappa < 0.80:
		return "Substantial agreement"
	default:
		return "Almost perfect agreement"
	}
}

// SignificanceResult is the outcome of a chi-square test over a contingency
// table.
type SignificanceResult struct {
	ChiSquare        float64 `json:"chi_square"`
	PValue           float64 `json:"p_value"`
	IsSignificant    bool    `json:"is_significant"`
	DegreesOfFreedom int     `json:"degrees_of_freedom"`
}

// Significance runs a Pearson chi-square test on a contingency table of
// observed counts. Pass alpha <= 0 to use DefaultAlpha.
//
// The p-value is a coarse threshold lookup, exact only for one degree of
// freedom (critical values 3.841 / 6.635 / 10.828 mapping to 0.05 / 0.01 /
// 0.001); other shapes get the crude estimate 0.05 when the statistic exceeds
// the degrees of freedom and 0.5 otherwise. This approximation is part of the
// engine's contract: replacing it with a real chi-square CDF would change
// downstream golden outputs.
//
// An empty table, or one whose counts sum to zero, is reported as not
// significant with a p-value of 1.
func Significance(observed [][]float64, alpha float64) SignificanceResult {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}

	if len(observed) == 0 || len(observed[0]) == 0 {
		return SignificanceResult{ChiSquare: 0, PValue: 1, IsSignificant: false, DegreesOfFreedom: 0}
	}

	rows := len(observed)
	cols := len(observed[0])
	df := (rows - 1) * (cols - 1)

	rowTotals := make([]float64, rows)
	colTotals := make([]float64, cols)
	grand := 0.0

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := observed[i][j]
			rowTotals[i] += v
			colTotals[j] += v
			grand += v
		}
	}

	if grand == 0 {
		return SignificanceResult{ChiSquare: 0, PValue: 1, IsSignificant: false, DegreesOfFreedom: df}
	}

	chiSquare := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			expected := rowTotals[i] * colTotals[j] / grand
			if expected == 0 {
				continue
			}
			diff := observed[i][j] - expected
			chiSquare += diff * diff / expected
		}
	}

	pValue := approximatePValue(chiSquare, df)

	return SignificanceResult{
		ChiSquare:        chiSquare,
		PValue:           pValue,
		IsSignificant:    pValue <= alpha,
		DegreesOfFreedom: df,
	}
}

// CategoryCardTable builds the category-by-card contingency table consumed by
// Significance: one row per category, one column per universe card, each cell
// the number of participants who placed that card in that category. Cards
// outside the universe are ignored. Empty frequencies or an empty universe
// yield a nil table, which Significance reports as not significant.
func CategoryCardTable(frequencies []CategoryFrequency, universe []domain.CardRef) [][]float64 {
	if len(frequencies) == 0 || len(universe) == 0 {
		return nil
	}

	index := universeIndex(universe)
	table := make([][]float64, len(frequencies))
	for i, freq := range frequencies {
		row := make([]float64, len(universe))
		for _, card := range freq.Cards {
			if col, ok := index[card.ID]; ok {
				row[col] = float64(card.Frequency)
			}
		}
		table[i] = row
	}

	return table
}

// approximatePValue is the coarse lookup described on Significance.
func approximatePValue(chiSquare float64, df int) float64 {
	if df == 1 {
		switch {
		case chiSquare > 10.828:
			return 0.001
		case chiSquare > 6.635:
			return 0.01
		case chiSquare > 3.841:
			return 0.05
		default:
			return 0.5
		}
	}

	if chiSquare > float64(df) {
		return 0.05
	}
	return 0.5
}
