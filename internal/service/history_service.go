package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type historyStore interface {
	List(ctx context.Context, q models.HistoryQuery) ([]models.HistoryEntry, error)
}

type deferredEquivalencyStore interface {
	ListDeferred(ctx context.Context, tenantID, studentID string) ([]models.EquivalencyRecord, error)
}

// HistoryService reads the immutable per-subject history and composes it with deferred equivalencies.
type HistoryService struct {
	history       historyStore
	equivalencies deferredEquivalencyStore
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(history historyStore, equivalencies deferredEquivalencyStore) *HistoryService {
	return &HistoryService{history: history, equivalencies: equivalencies}
}

// Rows returns closed-year history rows ordered by year then ordinal.
func (s *HistoryService) Rows(ctx context.Context, studentID, tenantID string, academicYearID *string) ([]models.HistoryEntry, error) {
	entries, err := s.history.List(ctx, models.HistoryQuery{TenantID: tenantID, StudentID: studentID, AcademicYearID: academicYearID})
	if err != nil {
		return nil, appErrors.Store(err, "failed to load academic history")
	}
	return entries, nil
}

// Composed returns the transcript view of the query: raw rows plus deferred substitutions.
func (s *HistoryService) Composed(ctx context.Context, q models.HistoryQuery) ([]models.HistoryRow, error) {
	entries, err := s.history.List(ctx, q)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load academic history")
	}
	deferred, err := s.equivalencies.ListDeferred(ctx, q.TenantID, q.StudentID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load equivalencies")
	}
	if q.Scoped() {
		deferred = coveringHistory(entries, deferred)
	}
	return Compose(entries, deferred), nil
}

// coveringHistory keeps the equivalencies whose destination appears in entries, so a scoped view
// never gains disciplines from another course or class.
func coveringHistory(entries []models.HistoryEntry, deferred []models.EquivalencyRecord) []models.EquivalencyRecord {
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		seen[entry.DisciplineID] = true
	}
	kept := make([]models.EquivalencyRecord, 0, len(deferred))
	for _, rec := range deferred {
		if seen[rec.DestinationDisciplineID] {
			kept = append(kept, rec)
		}
	}
	return kept
}

// Compose overlays deferred equivalencies onto history without touching the entries.
// A destination already passed is left alone; otherwise its last non-passed row is substituted,
// or a new row is appended when the destination never appeared in history.
func Compose(entries []models.HistoryEntry, deferred []models.EquivalencyRecord) []models.HistoryRow {
	rows := make([]models.HistoryRow, 0, len(entries)+len(deferred))
	passed := make(map[string]bool)
	lastOpen := make(map[string]int)
	for _, entry := range entries {
		rows = append(rows, models.HistoryRow{
			AcademicYear:   entry.AcademicYearName,
			DisciplineID:   entry.DisciplineID,
			DisciplineName: entry.DisciplineName,
			WorkloadHours:  entry.WorkloadHours,
			Credits:        entry.Credits,
			FinalGrade:     entry.FinalGrade,
			AttendancePct:  entry.AttendancePct,
			Result:         entry.Result,
		})
		if entry.Passed() {
			passed[entry.DisciplineID] = true
		} else {
			lastOpen[entry.DisciplineID] = len(rows) - 1
		}
	}

	for i := range deferred {
		rec := &deferred[i]
		if !rec.Deferred || passed[rec.DestinationDisciplineID] {
			continue
		}
		note := &models.EquivalencyNote{
			RecordID:    rec.ID,
			Origin:      rec.OriginLabel(),
			OriginHours: rec.OriginHours,
			Criterion:   rec.Criterion,
		}
		if rec.OriginInstitution != nil {
			note.Institution = *rec.OriginInstitution
		}
		substitute := models.HistoryRow{
			DisciplineID:  rec.DestinationDisciplineID,
			WorkloadHours: rec.DestinationHours,
			Result:        models.HistoryResultEquivalency,
			Equivalency:   note,
		}
		if idx, ok := lastOpen[rec.DestinationDisciplineID]; ok {
			substitute.AcademicYear = rows[idx].AcademicYear
			substitute.DisciplineName = rows[idx].DisciplineName
			substitute.Credits = rows[idx].Credits
			rows[idx] = substitute
		} else {
			substitute.DisciplineName = rec.DestinationDisciplineID
			if rec.DestinationName != nil {
				substitute.DisciplineName = *rec.DestinationName
			}
			rows = append(rows, substitute)
		}
		passed[rec.DestinationDisciplineID] = true
	}
	return rows
}

// ComputeMetrics consolidates composed rows: passing count, passing workload,
// mean attendance over graded rows and mean of the non-null final grades.
func ComputeMetrics(rows []models.HistoryRow) models.ConclusionMetrics {
	var (
		metrics         models.ConclusionMetrics
		attendanceSum   = decimal.Zero
		attendanceCount int64
		gradeSum        = decimal.Zero
		gradeCount      int64
	)
	metrics.TotalWorkloadHours = decimal.Zero
	metrics.MeanAttendance = decimal.Zero

	for _, row := range rows {
		if row.Passed() {
			metrics.CompletedSubjects++
			metrics.TotalWorkloadHours = metrics.TotalWorkloadHours.Add(row.WorkloadHours)
		}
		if row.Result == models.HistoryResultEquivalency {
			continue
		}
		attendanceSum = attendanceSum.Add(row.AttendancePct)
		attendanceCount++
		if row.FinalGrade.Valid {
			gradeSum = gradeSum.Add(row.FinalGrade.Decimal)
			gradeCount++
		}
	}

	metrics.TotalWorkloadHours = metrics.TotalWorkloadHours.Round(2)
	if attendanceCount > 0 {
		metrics.MeanAttendance = attendanceSum.Div(decimal.NewFromInt(attendanceCount)).Round(2)
	}
	if gradeCount > 0 {
		metrics.MeanFinalGrade = decimal.NewNullDecimal(gradeSum.Div(decimal.NewFromInt(gradeCount)).Round(2))
	}
	return metrics
}
