package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type sequenceStore interface {
	Increment(ctx context.Context, tx sqlx.ExtContext, tenantID string, series models.DocumentSeries) (int64, error)
	MaxIssued(ctx context.Context, tx sqlx.ExtContext, tenantID string, series models.DocumentSeries) (int64, error)
	Seed(ctx context.Context, tx sqlx.ExtContext, tenantID string, series models.DocumentSeries, value int64) error
}

// NumberGenerator allocates gap-free sequential numbers per (tenant, series).
// Allocation happens inside the caller's transaction: the counter row stays locked until commit,
// and a rollback releases the value.
type NumberGenerator struct {
	store sequenceStore
	now   func() time.Time
}

// NewNumberGenerator constructs a NumberGenerator.
func NewNumberGenerator(store sequenceStore) *NumberGenerator {
	return &NumberGenerator{store: store, now: time.Now}
}

// FormatNumber renders SERIES-YEAR-000042.
func FormatNumber(series models.DocumentSeries, year int, value int64) string {
	return fmt.Sprintf("%s-%d-%06d", series, year, value)
}

// Next returns the next number of the series for the tenant.
func (g *NumberGenerator) Next(ctx context.Context, tx sqlx.ExtContext, tenantID string, series models.DocumentSeries) (string, error) {
	if !series.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown document series %q", series))
	}
	if tenantID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "tenant is required")
	}

	value, err := g.store.Increment(ctx, tx, tenantID, series)
	if errors.Is(err, sql.ErrNoRows) {
		value, err = g.seedAndIncrement(ctx, tx, tenantID, series)
	}
	if err != nil {
		return "", appErrors.Store(err, "failed to allocate document number")
	}
	return FormatNumber(series, g.now().UTC().Year(), value), nil
}

// seedAndIncrement creates the counter from numbers already issued, then takes the next value.
func (g *NumberGenerator) seedAndIncrement(ctx context.Context, tx sqlx.ExtContext, tenantID string, series models.DocumentSeries) (int64, error) {
	max, err := g.store.MaxIssued(ctx, tx, tenantID, series)
	if err != nil {
		return 0, err
	}
	if err := g.store.Seed(ctx, tx, tenantID, series, max); err != nil {
		return 0, err
	}
	return g.store.Increment(ctx, tx, tenantID, series)
}
