package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func TestHoldRepositoryActiveFinancial(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewHoldRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM financial_holds")).
		WithArgs("t1", "s1", models.HoldCategoryDocuments).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "student_id", "category", "reason"}).
			AddRow("h1", "t1", "s1", "DOCUMENTS", "outstanding tuition for March"))

	holds, err := repo.ActiveFinancial(context.Background(), "t1", "s1", models.HoldCategoryDocuments)
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, "outstanding tuition for March", holds[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldRepositoryActiveAcademic(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewHoldRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND (discipline_id IS NULL OR discipline_id = $3)")).
		WithArgs("t1", "s1", nil, "y1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "student_id", "discipline_id", "academic_year_id", "reason"}))

	holds, err := repo.ActiveAcademic(context.Background(), "t1", "s1", nil, strPtr("y1"))
	require.NoError(t, err)
	assert.Empty(t, holds)
	assert.NoError(t, mock.ExpectationsWereMet())
}
