package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReport(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	study := activeStudy(t, ownerID)

	resultStore := &fakeResultStore{}
	for _, pid := range []string{"p1", "p2"} {
		r, err := domain.NewCardSortResult(study.ID, pid, []domain.CategoryPlacement{
			{CategoryID: 1, CategoryName: "Top", Cards: []domain.CardRef{
				{ID: 1, Text: "Home"}, {ID: 2, Text: "Search"},
			}},
		})
		require.NoError(t, err)
		resultStore.results = append(resultStore.results, r)
	}

	studies := newTestStudyService(t, newFakeStudyStore(study), resultStore)
	svc := NewAnalysisService(studies, nil)

	report, err := svc.GetReport(context.Background(), study.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalParticipants)
	assert.Len(t, report.Universe, 2)
	assert.True(t, report.Validation.IsValid)
}

func TestGetReportChecksOwnership(t *testing.T) {
	t.Parallel()

	study := activeStudy(t, uuid.New())
	studies := newTestStudyService(t, newFakeStudyStore(study), &fakeResultStore{})
	svc := NewAnalysisService(studies, nil)

	_, err := svc.GetReport(context.Background(), study.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestGetReportEmptyStudy(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	study := activeStudy(t, ownerID)
	studies := newTestStudyService(t, newFakeStudyStore(study), &fakeResultStore{})
	svc := NewAnalysisService(studies, nil)

	// No results yet: the report is well formed but flagged invalid.
	report, err := svc.GetReport(context.Background(), study.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalParticipants)
	assert.False(t, report.Validation.IsValid)
}
