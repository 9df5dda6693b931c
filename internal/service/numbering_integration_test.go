//go:build integration

package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/pkg/database"
	"github.com/noah-isme/academic-records-api/pkg/testutil/containers"
)

const schemaScript = "../../migrations/0001_academic_records.up.sql"

func newIntegrationGenerator(t *testing.T) (*sqlx.DB, *NumberGenerator) {
	t.Helper()
	pg := containers.NewPostgresContainer(t, schemaScript)
	pg.Exec(t,
		`INSERT INTO tenants (id, name, academic_type) VALUES ('t1', 'North Campus', 'HIGHER'), ('t2', 'South Campus', 'SECONDARY')`,
		`INSERT INTO students (id, tenant_id, full_name, registration_number) VALUES ('s2', 't2', 'Ana Lima', 'R-2')`,
	)
	gen := NewNumberGenerator(repository.NewSequenceRepository())
	gen.now = func() time.Time { return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) }
	return pg.DB, gen
}

func allocate(ctx context.Context, db *sqlx.DB, gen *NumberGenerator, tenantID string, series models.DocumentSeries) (string, error) {
	var number string
	err := database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
		var err error
		number, err = gen.Next(ctx, tx, tenantID, series)
		return err
	})
	return number, err
}

func TestNumberGeneratorPostgresConcurrentAllocation(t *testing.T) {
	db, gen := newIntegrationGenerator(t)
	ctx := context.Background()

	const workers = 24
	numbers := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			numbers[i], errs[i] = allocate(ctx, db, gen, "t1", models.SeriesDeclaration)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	expected := make([]string, workers)
	for i := range expected {
		expected[i] = fmt.Sprintf("DECL-2026-%06d", i+1)
	}
	sort.Strings(numbers)
	assert.Equal(t, expected, numbers)
}

func TestNumberGeneratorSeriesAndTenantsAreIndependent(t *testing.T) {
	db, gen := newIntegrationGenerator(t)
	ctx := context.Background()

	first, err := allocate(ctx, db, gen, "t1", models.SeriesTranscript)
	require.NoError(t, err)
	assert.Equal(t, "HIST-2026-000001", first)

	other, err := allocate(ctx, db, gen, "t2", models.SeriesTranscript)
	require.NoError(t, err)
	assert.Equal(t, "HIST-2026-000001", other)

	decl, err := allocate(ctx, db, gen, "t1", models.SeriesDeclaration)
	require.NoError(t, err)
	assert.Equal(t, "DECL-2026-000001", decl)
}

func TestNumberGeneratorRollbackReleasesValue(t *testing.T) {
	db, gen := newIntegrationGenerator(t)
	ctx := context.Background()

	err := database.WithTx(ctx, db, nil, func(tx *sqlx.Tx) error {
		number, err := gen.Next(ctx, tx, "t1", models.SeriesGraduationRecord)
		require.NoError(t, err)
		assert.Equal(t, "GRAD-2026-000001", number)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	number, err := allocate(ctx, db, gen, "t1", models.SeriesGraduationRecord)
	require.NoError(t, err)
	assert.Equal(t, "GRAD-2026-000001", number)
}

func TestNumberGeneratorSeedsFromIssuedDocuments(t *testing.T) {
	db, gen := newIntegrationGenerator(t)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO issued_documents (id, tenant_id, student_id, kind, series, number, verification_code, hash,
        payload, status, issued_by, issued_at) VALUES ('d1', 't2', 's2', 'CERTIFICATE', 'CERT', 'CERT-2025-000007', 'ABCDEF12',
        'h', '{}', 'ACTIVE', 'u1', NOW())`)
	require.NoError(t, err)

	number, err := allocate(ctx, db, gen, "t2", models.SeriesCertificate)
	require.NoError(t, err)
	assert.Equal(t, "CERT-2026-000008", number)
}
