package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func documentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "student_id", "kind", "series", "number", "verification_code", "hash", "payload",
		"storage_path", "status", "issued_by", "issued_at", "voided_by", "voided_at", "void_reason"}).
		AddRow("d1", "t1", "s1", "TRANSCRIPT", "HIST", "HIST-2026-000001", "0A1B2C3D", "abc", []byte(`{"student":"Ana"}`),
			"t1/HIST-2026-000001.pdf", "ACTIVE", "u1", time.Now(), nil, nil, nil)
}

func TestDocumentRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO issued_documents").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	doc := &models.IssuedDocument{TenantID: "t1", StudentID: "s1", Kind: models.DocumentKindTranscript, Series: models.SeriesTranscript,
		Number: "HIST-2026-000001", VerificationCode: "0A1B2C3D", Hash: "abc", Payload: json.RawMessage(`{}`), IssuedBy: "u1"}
	require.NoError(t, repo.Insert(context.Background(), tx, doc))
	require.NoError(t, tx.Commit())
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, models.DocumentStatusActive, doc.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryFindByCode(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM issued_documents WHERE verification_code = $1")).
		WithArgs("0A1B2C3D").
		WillReturnRows(documentRows())

	doc, err := repo.FindByCode(context.Background(), "0A1B2C3D")
	require.NoError(t, err)
	assert.Equal(t, "HIST-2026-000001", doc.Number)
	assert.JSONEq(t, `{"student":"Ana"}`, string(doc.Payload))
	require.NotNil(t, doc.StoragePath)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCodeExists(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM issued_documents WHERE verification_code = $1 LIMIT 1")).
		WithArgs("FFFFFFFF").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.CodeExists(context.Background(), db, "FFFFFFFF")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListWithRange(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM issued_documents WHERE tenant_id = $1 AND kind = $2 AND issued_at >= $3 ORDER BY issued_at DESC, number DESC LIMIT 20 OFFSET 0")).
		WithArgs("t1", models.DocumentKindTranscript, from).
		WillReturnRows(documentRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM issued_documents WHERE tenant_id = $1 AND kind = $2 AND issued_at >= $3")).
		WithArgs("t1", models.DocumentKindTranscript, from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	docs, total, err := repo.List(context.Background(), models.DocumentFilter{TenantID: "t1", Kind: models.DocumentKindTranscript, From: &from})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryVoidOnlyFromActive(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $5 AND tenant_id = $6 AND status = $7")).
		WithArgs(models.DocumentStatusVoid, "u1", sqlmock.AnyArg(), "issued in error", "d1", "t1", models.DocumentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.Void(context.Background(), "t1", "d1", "u1", "issued in error", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
