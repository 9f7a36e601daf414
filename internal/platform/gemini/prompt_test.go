package gemini

import (
	"strings"
	"testing"
	"text/template"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/domain/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStudy(t *testing.T) *domain.Study {
	t.Helper()
	study, err := domain.NewStudy(uuid.New(), "Grocery navigation", "How shoppers group products",
		[]domain.CardRef{{ID: 1, Text: "Apple"}, {ID: 2, Text: "Banana"}}, nil)
	require.NoError(t, err)
	return study
}

func testReport(t *testing.T) *analysis.Report {
	t.Helper()

	results := []domain.CardSortResult{}
	for _, pid := range []string{"p1", "p2", "p3"} {
		r, err := domain.NewCardSortResult(uuid.New(), pid, []domain.CategoryPlacement{
			{CategoryID: 10, CategoryName: "Fruit", Cards: []domain.CardRef{
				{ID: 1, Text: "Apple"}, {ID: 2, Text: "Banana"},
			}},
		})
		require.NoError(t, err)
		results = append(results, *r)
	}
	return analysis.Analyze(results)
}

func TestBuildPromptData(t *testing.T) {
	t.Parallel()

	data := buildPromptData(testStudy(t), testReport(t))

	assert.Equal(t, "Grocery navigation", data.StudyTitle)
	assert.Equal(t, 3, data.ParticipantCount)
	assert.Equal(t, 2, data.CardCount)
	assert.InDelta(t, 100.0, data.AgreementPercent, 1e-9)
	assert.InDelta(t, 100.0, data.CompletenessPercent, 1e-9)

	require.Len(t, data.TopPairs, 1)
	assert.Equal(t, "Apple", data.TopPairs[0].CardName1)
	assert.InDelta(t, 100.0, data.TopPairs[0].SimilarityPercent, 1e-9)

	require.Len(t, data.TopCategories, 1)
	assert.Equal(t, "Fruit", data.TopCategories[0].Name)
	assert.Equal(t, 3, data.TopCategories[0].Usage)
}

func TestBuildPromptDataCapsLists(t *testing.T) {
	t.Parallel()

	// Ten cards in one category produce 45 pairs; only the cap survives.
	cards := make([]domain.CardRef, 10)
	for i := range cards {
		cards[i] = domain.CardRef{ID: i + 1, Text: strings.Repeat("c", i+1)}
	}

	var results []domain.CardSortResult
	for _, pid := range []string{"p1", "p2"} {
		r, err := domain.NewCardSortResult(uuid.New(), pid, []domain.CategoryPlacement{
			{CategoryID: 1, CategoryName: "All", Cards: cards},
		})
		require.NoError(t, err)
		results = append(results, *r)
	}

	study, err := domain.NewStudy(uuid.New(), "Big study", "", cards, nil)
	require.NoError(t, err)

	data := buildPromptData(study, analysis.Analyze(results))
	assert.Len(t, data.TopPairs, maxPromptPairs)
}

func TestRenderPromptDefaultTemplate(t *testing.T) {
	t.Parallel()

	tmpl, err := template.New("insight").Parse(defaultPromptTemplate)
	require.NoError(t, err)

	prompt, err := renderPrompt(tmpl, testStudy(t), testReport(t))
	require.NoError(t, err)

	assert.Contains(t, prompt, "Grocery navigation")
	assert.Contains(t, prompt, "Participants: 3")
	assert.Contains(t, prompt, `"Apple" and "Banana"`)
	assert.Contains(t, prompt, `"Fruit" used by 3 participant(s)`)
	// No stray template syntax left behind.
	assert.NotContains(t, prompt, "{{")
}

func TestRenderPromptEmptyReport(t *testing.T) {
	t.Parallel()

	tmpl, err := template.New("insight").Parse(defaultPromptTemplate)
	require.NoError(t, err)

	prompt, err := renderPrompt(tmpl, testStudy(t), analysis.Analyze(nil))
	require.NoError(t, err)
	assert.Contains(t, prompt, "Participants: 0")
}
