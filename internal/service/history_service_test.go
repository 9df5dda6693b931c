package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type historyStoreStub struct {
	entries []models.HistoryEntry
	err     error
	queries []models.HistoryQuery
}

func (s *historyStoreStub) List(ctx context.Context, q models.HistoryQuery) ([]models.HistoryEntry, error) {
	s.queries = append(s.queries, q)
	return s.entries, s.err
}

type deferredStoreStub struct {
	records []models.EquivalencyRecord
	err     error
}

func (s deferredStoreStub) ListDeferred(ctx context.Context, tenantID, studentID string) ([]models.EquivalencyRecord, error) {
	return s.records, s.err
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func grade(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(v))
}

func entry(discipline, name, year string, hours, attendance string, final decimal.NullDecimal, result models.HistoryResult) models.HistoryEntry {
	return models.HistoryEntry{
		DisciplineID:     discipline,
		DisciplineName:   name,
		AcademicYearName: year,
		WorkloadHours:    dec(hours),
		Credits:          dec("4"),
		AttendancePct:    dec(attendance),
		FinalGrade:       final,
		Result:           result,
	}
}

func deferredRecord(id, destination string, hours string) models.EquivalencyRecord {
	name := "External Calculus"
	return models.EquivalencyRecord{
		ID:                      id,
		DestinationDisciplineID: destination,
		OriginExternalName:      &name,
		OriginHours:             dec("90"),
		DestinationHours:        dec(hours),
		Criterion:               "syllabus match",
		Deferred:                true,
	}
}

func TestComposeOverlaysFailedDestination(t *testing.T) {
	entries := []models.HistoryEntry{
		entry("math", "Mathematics", "2024", "80", "90", grade("4.5"), models.HistoryResultFailed),
		entry("bio", "Biology", "2024", "60", "95", grade("8"), models.HistoryResultPassed),
	}
	rows := Compose(entries, []models.EquivalencyRecord{deferredRecord("eq-1", "math", "72")})

	require.Len(t, rows, 2)
	assert.Equal(t, models.HistoryResultEquivalency, rows[0].Result)
	assert.Equal(t, "Mathematics", rows[0].DisciplineName)
	assert.Equal(t, "2024", rows[0].AcademicYear)
	assert.True(t, dec("72").Equal(rows[0].WorkloadHours))
	require.NotNil(t, rows[0].Equivalency)
	assert.Equal(t, "External Calculus", rows[0].Equivalency.Origin)
	assert.Equal(t, models.HistoryResultPassed, rows[1].Result)

	// raw entries are untouched
	assert.Equal(t, models.HistoryResultFailed, entries[0].Result)
}

func TestComposeAppendsMissingDestinationAndSkipsPassed(t *testing.T) {
	name := "Statistics"
	appended := deferredRecord("eq-2", "stats", "40")
	appended.DestinationName = &name
	redundant := deferredRecord("eq-3", "bio", "60")

	rows := Compose([]models.HistoryEntry{
		entry("bio", "Biology", "2024", "60", "95", grade("8"), models.HistoryResultPassed),
	}, []models.EquivalencyRecord{appended, redundant})

	require.Len(t, rows, 2)
	assert.Equal(t, models.HistoryResultPassed, rows[0].Result)
	assert.Nil(t, rows[0].Equivalency)
	assert.Equal(t, "Statistics", rows[1].DisciplineName)
	assert.Equal(t, models.HistoryResultEquivalency, rows[1].Result)
}

func TestComputeMetrics(t *testing.T) {
	rows := Compose([]models.HistoryEntry{
		entry("math", "Mathematics", "2024", "80", "90", grade("7"), models.HistoryResultPassed),
		entry("bio", "Biology", "2024", "60", "85", grade("8.5"), models.HistoryResultPassed),
		entry("art", "Art", "2024", "40", "70", decimal.NullDecimal{}, models.HistoryResultFailed),
	}, []models.EquivalencyRecord{deferredRecord("eq-1", "chem", "30")})

	metrics := ComputeMetrics(rows)

	assert.Equal(t, 3, metrics.CompletedSubjects)
	assert.Equal(t, "170", metrics.TotalWorkloadHours.String())
	assert.Equal(t, "81.67", metrics.MeanAttendance.String())
	require.True(t, metrics.MeanFinalGrade.Valid)
	assert.Equal(t, "7.75", metrics.MeanFinalGrade.Decimal.String())
}

func TestComputeMetricsEmpty(t *testing.T) {
	metrics := ComputeMetrics(nil)
	assert.Zero(t, metrics.CompletedSubjects)
	assert.True(t, metrics.TotalWorkloadHours.IsZero())
	assert.True(t, metrics.MeanAttendance.IsZero())
	assert.False(t, metrics.MeanFinalGrade.Valid)
}

func TestHistoryServiceComposed(t *testing.T) {
	store := &historyStoreStub{entries: []models.HistoryEntry{
		entry("math", "Mathematics", "2024", "80", "90", grade("4"), models.HistoryResultFailed),
	}}
	svc := NewHistoryService(store, deferredStoreStub{records: []models.EquivalencyRecord{deferredRecord("eq-1", "math", "70")}})

	year := "year-1"
	entries, err := svc.Rows(context.Background(), "student-1", "tenant-1", &year)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, &year, store.queries[0].AcademicYearID)
	assert.False(t, store.queries[0].IncludeOpen)

	rows, err := svc.Composed(context.Background(), models.HistoryQuery{TenantID: "tenant-1", StudentID: "student-1"})
	require.NoError(t, err)
	assert.Equal(t, models.HistoryResultEquivalency, rows[0].Result)

	failing := NewHistoryService(&historyStoreStub{}, deferredStoreStub{err: errors.New("down")})
	_, err = failing.Composed(context.Background(), models.HistoryQuery{TenantID: "tenant-1", StudentID: "student-1"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStore))
}

func TestHistoryServiceComposedKeepsScope(t *testing.T) {
	store := &historyStoreStub{entries: []models.HistoryEntry{
		entry("a-1", "Algorithms", "2025", "60", "90", grade("8"), models.HistoryResultPassed),
		entry("a-2", "Databases", "2025", "60", "80", grade("4"), models.HistoryResultFailed),
	}}
	svc := NewHistoryService(store, deferredStoreStub{records: []models.EquivalencyRecord{
		deferredRecord("eq-1", "a-2", "60"),
		deferredRecord("eq-2", "b-9", "80"),
	}})

	course := "course-a"
	rows, err := svc.Composed(context.Background(), models.HistoryQuery{TenantID: "tenant-1", StudentID: "student-1", CourseID: &course})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.HistoryResultEquivalency, rows[1].Result)

	metrics := ComputeMetrics(rows)
	assert.Equal(t, 2, metrics.CompletedSubjects)
	assert.Equal(t, "120", metrics.TotalWorkloadHours.String())

	unscoped, err := svc.Composed(context.Background(), models.HistoryQuery{TenantID: "tenant-1", StudentID: "student-1"})
	require.NoError(t, err)
	assert.Len(t, unscoped, 3)
}
