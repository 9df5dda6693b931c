package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/logger"
)

type sessionResolverStub struct {
	claims     *models.JWTClaims
	tenant     models.TenantContext
	tokenErr   error
	resolveErr error
}

func (s sessionResolverStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if s.tokenErr != nil {
		return nil, s.tokenErr
	}
	return s.claims, nil
}

func (s sessionResolverStub) ResolveTenant(ctx context.Context, claims *models.JWTClaims) (models.TenantContext, error) {
	return s.tenant, s.resolveErr
}

type auditWriterStub struct {
	logs []*models.AuditLog
}

func (s *auditWriterStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func secretary() models.TenantContext {
	return models.TenantContext{TenantID: "tenant-1", AcademicType: models.AcademicTypeSecondary, ActorID: "user-1", ActorRoles: []models.UserRole{models.RoleSecretary}}
}

func newRouter(sessions sessionResolver, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append([]gin.HandlerFunc{Tenant(sessions)}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		tenant, _ := TenantFromContext(c)
		c.JSON(http.StatusOK, gin.H{"tenant": tenant.TenantID, "log": c.GetString(logger.TenantFieldKey)})
	})
	r.GET("/records", chain...)
	return r
}

func perform(r http.Handler, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/records?format=csv", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestTenantMiddleware(t *testing.T) {
	r := newRouter(sessionResolverStub{claims: &models.JWTClaims{UserID: "user-1", TenantID: "tenant-1"}, tenant: secretary()})

	w := perform(r, "Bearer token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tenant":"tenant-1","log":"tenant-1"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, perform(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Basic abc").Code)
}

func TestTenantMiddlewareErrors(t *testing.T) {
	invalid := newRouter(sessionResolverStub{tokenErr: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")})
	assert.Equal(t, http.StatusUnauthorized, perform(invalid, "Bearer bad").Code)

	unknown := newRouter(sessionResolverStub{claims: &models.JWTClaims{}, resolveErr: appErrors.Clone(appErrors.ErrForbidden, "tenant not found")})
	assert.Equal(t, http.StatusForbidden, perform(unknown, "Bearer token").Code)
}

func TestRequireRoles(t *testing.T) {
	sessions := sessionResolverStub{claims: &models.JWTClaims{}, tenant: secretary()}

	allowed := newRouter(sessions, RequireRoles(models.RoleSecretary, models.RoleAdmin))
	assert.Equal(t, http.StatusOK, perform(allowed, "Bearer token").Code)

	denied := newRouter(sessions, RequireRoles(models.RoleCoordinator))
	assert.Equal(t, http.StatusForbidden, perform(denied, "Bearer token").Code)
}

func TestAuditMiddleware(t *testing.T) {
	writer := &auditWriterStub{}
	r := newRouter(sessionResolverStub{claims: &models.JWTClaims{}, tenant: secretary()}, Audit(writer, models.AuditActionRegisterExport, "issued_documents"))

	require.Equal(t, http.StatusOK, perform(r, "Bearer token").Code)
	require.Len(t, writer.logs, 1)
	log := writer.logs[0]
	assert.Equal(t, "tenant-1", log.TenantID)
	assert.Equal(t, "user-1", *log.UserID)
	assert.Equal(t, models.AuditActionRegisterExport, log.Action)
	assert.Contains(t, string(log.NewValues), `"query":"format=csv"`)
}
