package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func equivalencyRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "tenant_id", "student_id", "origin_discipline_id", "origin_external_name", "origin_institution",
		"origin_hours", "destination_discipline_id", "destination_hours", "criterion", "observation", "deferred", "deferred_by",
		"deferred_at", "created_by", "created_at", "updated_at"}).
		AddRow("e1", "t1", "s1", nil, "Calculus I", "State University", "100", "d1", "80", "syllabus match", nil, false, nil, nil, "u1", now, now)
}

func TestEquivalencyRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEquivalencyRepository(db)

	mock.ExpectExec("INSERT INTO equivalency_records").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM equivalency_records WHERE id = $1 AND tenant_id = $2")).
		WithArgs("e1", "t1").
		WillReturnRows(equivalencyRows())

	record := &models.EquivalencyRecord{TenantID: "t1", StudentID: "s1", OriginExternalName: strPtr("Calculus I"),
		OriginHours: decimal.NewFromInt(100), DestinationDisciplineID: "d1", DestinationHours: decimal.NewFromInt(80), CreatedBy: "u1"}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)

	found, err := repo.FindByID(context.Background(), "t1", "e1")
	require.NoError(t, err)
	assert.Equal(t, "Calculus I", found.OriginLabel())
	assert.True(t, found.DestinationHours.Equal(decimal.NewFromInt(80)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquivalencyRepositoryWritesAreConditional(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEquivalencyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND tenant_id = ? AND deferred = false")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SET deferred = true")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM equivalency_records WHERE id = $1 AND tenant_id = $2 AND deferred = false")).
		WithArgs("e1", "t1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	record := &models.EquivalencyRecord{ID: "e1", TenantID: "t1"}
	n, err := repo.Update(context.Background(), record)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.Defer(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Delete(context.Background(), "t1", "e1")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquivalencyRepositoryDeferKeepsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEquivalencyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SET deferred = true")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_equivalency_records_deferred_destination"})

	_, err := repo.Defer(context.Background(), &models.EquivalencyRecord{ID: "e2", TenantID: "t1"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquivalencyRepositoryExistsDeferred(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEquivalencyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND destination_discipline_id = $3 AND deferred = true AND id <> $4 LIMIT 1")).
		WithArgs("t1", "s1", "d1", "e1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsDeferred(context.Background(), "t1", "s1", "d1", "e1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquivalencyRepositoryList(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEquivalencyRepository(db)

	deferred := false
	mock.ExpectQuery(regexp.QuoteMeta("FROM equivalency_records WHERE tenant_id = $1 AND student_id = $2 AND deferred = $3 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("t1", "s1", false).
		WillReturnRows(equivalencyRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM equivalency_records")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.EquivalencyFilter{TenantID: "t1", StudentID: "s1", Deferred: &deferred})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
