package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// AuthConfig defines how access tokens issued by the identity service are verified.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService verifies sessions and resolves them into a TenantContext.
type AuthService struct {
	tenants tenantReader
	logger  *zap.Logger
	config  AuthConfig
	now     func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(tenants tenantReader, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = time.Hour
	}
	return &AuthService{tenants: tenants, logger: logger, config: config, now: time.Now}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.UserID == "" || claims.TenantID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is missing tenant or user")
	}
	return claims, nil
}

// ResolveTenant builds the request scope. The academic type always comes from the tenant row.
func (s *AuthService) ResolveTenant(ctx context.Context, claims *models.JWTClaims) (models.TenantContext, error) {
	if claims == nil {
		return models.TenantContext{}, appErrors.ErrUnauthorized
	}
	tenant, err := s.tenants.FindByID(ctx, claims.TenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TenantContext{}, appErrors.Clone(appErrors.ErrForbidden, "tenant not found")
		}
		return models.TenantContext{}, appErrors.Store(err, "failed to load tenant")
	}
	return models.TenantContext{
		TenantID:     tenant.ID,
		AcademicType: tenant.Type(),
		ActorID:      claims.UserID,
		ActorRoles:   claims.Roles,
	}, nil
}

// IssueToken signs an access token. Used by local tooling and tests; production tokens come from the identity service.
func (s *AuthService) IssueToken(userID, tenantID string, roles ...models.UserRole) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:   userID,
		TenantID: tenantID,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
