package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/sortlab/sortlab-api/internal/domain"
)

// ValidationReport is the structural health check of a result set. Issues
// mark results that cannot be compared against the rest of the batch;
// warnings mark oddities worth reviewing. Completeness is the fraction of
// results whose card count matches the baseline and that contain at least one
// category.
type ValidationReport struct {
	IsValid      bool     `json:"is_valid"`
	Issues       []string `json:"issues"`
	Warnings     []string `json:"warnings"`
	Completeness float64  `json:"completeness"`
}

// ValidateResults checks a result set for structural problems. The first
// result's flattened card count is the baseline every other result is
// measured against. An empty input is invalid.
func ValidateResults(results []domain.CardSortResult) ValidationReport {
	report := ValidationReport{Issues: []string{}, Warnings: []string{}}

	if len(results) == 0 {
		report.Issues = append(report.Issues, "no results to validate")
		return report
	}

	baseline := results[0].CardCount()
	complete := 0

	for _, result := range results {
		count := result.CardCount()

		if count != baseline {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"participant %s sorted %d cards, expected %d", result.ParticipantID, count, baseline))
		}
		if len(result.Placements) == 0 {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"participant %s has no categories", result.ParticipantID))
		}

		for _, placement := range result.Placements {
			if len(placement.Cards) == 0 {
				report.Warnings = append(report.Warnings, fmt.Sprintf(
					"participant %s left category %q empty", result.ParticipantID, placement.CategoryName))
			}
		}

		if count == baseline && len(result.Placements) >= 1 {
			complete++
		}
	}

	report.Completeness = float64(complete) / float64(len(results))
	if report.Completeness < 0.8 {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"only %.0f%% of results are complete", report.Completeness*100))
	}

	report.IsValid = len(report.Issues) == 0
	return report
}

// OutlierSeverity grades how far a result deviates from the batch.
type OutlierSeverity string

// Outlier severities, strongest first.
const (
	SeverityHigh   OutlierSeverity = "high"
	SeverityMedium OutlierSeverity = "medium"
	SeverityLow    OutlierSeverity = "low"
)

var severityRank = map[OutlierSeverity]int{
	SeverityHigh:   0,
	SeverityMedium: 1,
	SeverityLow:    2,
}

// Outlier flags one result for one triggered rule. A result that trips
// several rules appears once per rule.
type Outlier struct {
	ParticipantID string          `json:"participant_id"`
	ResultIndex   int             `json:"result_index"`
	Severity      OutlierSeverity `json:"severity"`
	Reason        string          `json:"reason"`
	CategoryCount int             `json:"category_count"`
	ZScore        float64         `json:"z_score"`
}

// OutlierSummary describes the distribution of per-result category counts.
type OutlierSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// OutlierReport is the outcome of outlier detection over a result set.
type OutlierReport struct {
	Outliers []Outlier      `json:"outliers"`
	Summary  OutlierSummary `json:"summary"`
}

// DetectOutliers flags results whose sorting behavior deviates from the
// batch. Category counts are z-scored against the batch mean and population
// standard deviation: |z| > 3 is high severity, |z| > 2 medium. Independent
// of the z-score, a result mixing empty and non-empty categories is flagged
// low, and one whose largest category holds more than five times its smallest
// (when every category is non-empty) is flagged medium. Output is sorted by severity
// (high, medium, low), otherwise stable.
func DetectOutliers(results []domain.CardSortResult) OutlierReport {
	if len(results) == 0 {
		return OutlierReport{Outliers: []Outlier{}}
	}

	counts := make([]float64, len(results))
	for i, result := range results {
		counts[i] = float64(len(result.Placements))
	}

	mean := meanOf(counts)
	stdDev := populationStdDev(counts, mean)
	summary := OutlierSummary{Mean: mean, Median: medianOf(counts), StdDev: stdDev}

	outliers := []Outlier{}

	for i, result := range results {
		z := 0.0
		if stdDev > 0 {
			z = (counts[i] - mean) / stdDev
		}

		switch {
		case math.Abs(z) > 3:
			outliers = append(outliers, Outlier{
				ParticipantID: result.ParticipantID,
				ResultIndex:   i,
				Severity:      SeverityHigh,
				Reason:        "category count deviates strongly from the group",
				CategoryCount: len(result.Placements),
				ZScore:        z,
			})
		case math.Abs(z) > 2:
			outliers = append(outliers, Outlier{
				ParticipantID: result.ParticipantID,
				ResultIndex:   i,
				Severity:      SeverityMedium,
				Reason:        "category count deviates from the group",
				CategoryCount: len(result.Placements),
				ZScore:        z,
			})
		}

		if hasEmptyAmongNonEmpty(result) {
			outliers = append(outliers, Outlier{
				ParticipantID: result.ParticipantID,
				ResultIndex:   i,
				Severity:      SeverityLow,
				Reason:        "empty category alongside non-empty categories",
				CategoryCount: len(result.Placements),
				ZScore:        z,
			})
		}

		if hasLopsidedCategories(result) {
			outliers = append(outliers, Outlier{
				ParticipantID: result.ParticipantID,
				ResultIndex:   i,
				Severity:      SeverityMedium,
				Reason:        "largest category is more than five times the smallest",
				CategoryCount: len(result.Placements),
				ZScore:        z,
			})
		}
	}

	sort.SliceStable(outliers, func(a, b int) bool {
		return severityRank[outliers[a].Severity] < severityRank[outliers[b].Severity]
	})

	return OutlierReport{Outliers: outliers, Summary: summary}
}

func hasEmptyAmongNonEmpty(result domain.CardSortResult) bool {
	empty, nonEmpty := false, false
	for _, placement := range result.Placements {
		if len(placement.Cards) == 0 {
			empty = true
		} else {
			nonEmpty = true
		}
	}
	return empty && nonEmpty
}

func hasLopsidedCategories(result domain.CardSortResult) bool {
	if len(result.Placements) == 0 {
		return false
	}
	min, max := math.MaxInt, 0
	for _, placement := range result.Placements {
		n := len(placement.Cards)
		if n > max {
			max = n
		}
		if n < min {
			min = n
		}
	}
	// The ratio rule only applies when every category has at least one card.
	return min > 0 && max > 5*min
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func medianOf(values []float64) float64 {
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func populationStdDev(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
