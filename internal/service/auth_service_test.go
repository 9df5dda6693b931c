package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type failingTenantReader struct{ err error }

func (f failingTenantReader) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	return nil, f.err
}

func newTestAuthService(tenants tenantReader) *AuthService {
	return NewAuthService(tenants, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "identity"})
}

func TestAuthServiceTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(tenantReaderStub{})

	token, expiresAt, err := svc.IssueToken("user-1", "tenant-1", models.RoleSecretary)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, []models.UserRole{models.RoleSecretary}, claims.Roles)
}

func TestAuthServiceRejectsInvalidTokens(t *testing.T) {
	svc := newTestAuthService(tenantReaderStub{})

	other := NewAuthService(nil, nil, AuthConfig{AccessTokenSecret: "other", Issuer: "identity"})
	forged, _, err := other.IssueToken("user-1", "tenant-1")
	require.NoError(t, err)

	expired := newTestAuthService(tenantReaderStub{})
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expired.IssueToken("user-1", "tenant-1")
	require.NoError(t, err)

	wrongIssuer := NewAuthService(nil, nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "elsewhere"})
	foreign, _, err := wrongIssuer.IssueToken("user-1", "tenant-1")
	require.NoError(t, err)

	noTenant, _, err := svc.IssueToken("user-1", "")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "user-1", TenantID: "tenant-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"forged":       forged,
		"expired":      stale,
		"wrong issuer": foreign,
		"no tenant":    noTenant,
		"unsigned":     unsigned,
	} {
		_, err := svc.ValidateToken(token)
		require.Error(t, err, name)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized), name)
	}
}

func TestAuthServiceResolveTenant(t *testing.T) {
	higher := models.AcademicTypeHigher
	svc := newTestAuthService(tenantReaderStub{"tenant-1": {ID: "tenant-1", Name: "Harapan", AcademicType: &higher}})

	tenant, err := svc.ResolveTenant(context.Background(), &models.JWTClaims{
		UserID:   "user-1",
		TenantID: "tenant-1",
		Roles:    []models.UserRole{models.RoleCoordinator},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TenantContext{
		TenantID:     "tenant-1",
		AcademicType: models.AcademicTypeHigher,
		ActorID:      "user-1",
		ActorRoles:   []models.UserRole{models.RoleCoordinator},
	}, tenant)

	_, err = svc.ResolveTenant(context.Background(), &models.JWTClaims{UserID: "user-1", TenantID: "ghost"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))

	_, err = svc.ResolveTenant(context.Background(), nil)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))

	broken := newTestAuthService(failingTenantReader{err: errors.New("connection refused")})
	_, err = broken.ResolveTenant(context.Background(), &models.JWTClaims{UserID: "user-1", TenantID: "tenant-1"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStore))
}
