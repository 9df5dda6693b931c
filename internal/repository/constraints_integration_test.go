//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/testutil/containers"
)

func newSchemaDB(t *testing.T) *sqlx.DB {
	t.Helper()
	pg := containers.NewPostgresContainer(t, "../../migrations/0001_academic_records.up.sql")
	pg.Exec(t,
		`INSERT INTO tenants (id, name, academic_type) VALUES ('t1', 'North Campus', 'HIGHER')`,
		`INSERT INTO students (id, tenant_id, full_name, registration_number) VALUES ('s1', 't1', 'Ana Lima', 'R-1')`,
	)
	return pg.DB
}

func pendingEquivalency(destination string) *models.EquivalencyRecord {
	return &models.EquivalencyRecord{
		TenantID:                "t1",
		StudentID:               "s1",
		OriginExternalName:      strPtr("Calculus I"),
		OriginHours:             decimal.NewFromInt(60),
		DestinationDisciplineID: destination,
		DestinationHours:        decimal.NewFromInt(60),
		Criterion:               "syllabus match",
		CreatedBy:               "registrar-1",
	}
}

func TestEquivalencyRepositoryPostgresOptionalInstitution(t *testing.T) {
	db := newSchemaDB(t)
	repo := NewEquivalencyRepository(db)
	ctx := context.Background()

	record := pendingEquivalency("math-1")
	require.NoError(t, repo.Create(ctx, record))

	stored, err := repo.FindByID(ctx, "t1", record.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.OriginInstitution)
}

func TestEquivalencyRepositoryPostgresSingleDeferredPerDestination(t *testing.T) {
	db := newSchemaDB(t)
	repo := NewEquivalencyRepository(db)
	ctx := context.Background()

	first, second := pendingEquivalency("math-1"), pendingEquivalency("math-1")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	at := time.Now().UTC()
	for _, r := range []*models.EquivalencyRecord{first, second} {
		r.DeferredBy = strPtr("registrar-1")
		r.DeferredAt = &at
		r.UpdatedAt = at
	}
	rows, err := repo.Defer(ctx, first)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	_, err = repo.Defer(ctx, second)
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err, "uq_equivalency_records_deferred_destination"))
}

func TestConclusionRepositoryPostgresSingleRecordPerScope(t *testing.T) {
	db := newSchemaDB(t)
	repo := NewConclusionRepository(db)
	ctx := context.Background()

	record := func(courseID *string) *models.ConclusionRecord {
		return &models.ConclusionRecord{
			TenantID:  "t1",
			StudentID: "s1",
			CourseID:  courseID,
			Type:      models.ConclusionTypeHigher,
			Status:    models.ConclusionStatusValidated,
			ConclusionMetrics: models.ConclusionMetrics{
				CompletedSubjects:  3,
				TotalWorkloadHours: decimal.NewFromInt(180),
				MeanAttendance:     decimal.NewFromInt(90),
			},
			RegisteredBy: "registrar-1",
			ValidatedBy:  "registrar-1",
			ValidatedAt:  time.Now().UTC(),
		}
	}

	require.NoError(t, repo.Create(ctx, record(strPtr("course-1"))))
	err := repo.Create(ctx, record(strPtr("course-1")))
	assert.True(t, IsConstraintViolation(err, "uq_conclusion_records_scope"))

	require.NoError(t, repo.Create(ctx, record(nil)))
	err = repo.Create(ctx, record(nil))
	assert.True(t, IsConstraintViolation(err, "uq_conclusion_records_scope"), "unscoped records collide too")
}
