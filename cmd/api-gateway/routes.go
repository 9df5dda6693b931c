package main

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-records-api/internal/handler"
	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/internal/service"
)

type routeDeps struct {
	sessions     *service.AuthService
	audit        *repository.AuditRepository
	conclusions  *handler.ConclusionHandler
	equivalences *handler.EquivalencyHandler
	documents    *handler.DocumentHandler
}

func registerRoutes(api *gin.RouterGroup, deps routeDeps) {
	staff := []models.UserRole{models.RoleSecretary, models.RoleCoordinator, models.RoleAdmin, models.RoleSuperAdmin}
	managers := []models.UserRole{models.RoleCoordinator, models.RoleAdmin, models.RoleSuperAdmin}

	api.GET("/verify/:code", deps.documents.Verify)
	api.GET("/documents/download/:token", deps.documents.Download)

	secured := api.Group("")
	secured.Use(middleware.Tenant(deps.sessions), middleware.RequireRoles(staff...))

	conclusions := secured.Group("/conclusions")
	conclusions.GET("", deps.conclusions.List)
	conclusions.POST("/requirements", deps.conclusions.Requirements)
	conclusions.GET("/:id", deps.conclusions.Get)
	conclusions.PUT("/:id", deps.conclusions.Mutate)
	conclusions.PATCH("/:id", deps.conclusions.Mutate)
	conclusions.DELETE("/:id", deps.conclusions.Mutate)
	conclusions.POST("", middleware.RequireRoles(managers...), deps.conclusions.Create)
	conclusions.POST("/:id/conclude", middleware.RequireRoles(managers...), deps.conclusions.Conclude)
	conclusions.POST("/:id/graduation", middleware.RequireRoles(managers...), deps.conclusions.CreateGraduation)
	conclusions.POST("/:id/certificate-record", middleware.RequireRoles(managers...), deps.conclusions.CreateCertificateRecord)

	equivalencies := secured.Group("/equivalencies")
	equivalencies.GET("", deps.equivalences.List)
	equivalencies.GET("/:id", deps.equivalences.Get)
	equivalencies.POST("", deps.equivalences.Create)
	equivalencies.PUT("/:id", deps.equivalences.Update)
	equivalencies.DELETE("/:id", deps.equivalences.Delete)
	equivalencies.POST("/:id/defer", middleware.RequireRoles(managers...), deps.equivalences.Defer)

	documents := secured.Group("/documents")
	documents.POST("", deps.documents.Issue)
	documents.GET("", deps.documents.List)
	documents.GET("/register", middleware.Audit(deps.audit, models.AuditActionRegisterExport, "issued_documents"), deps.documents.Register)
	documents.GET("/:id", deps.documents.Get)
	documents.GET("/:id/pdf", deps.documents.PDF)
	documents.POST("/:id/void", middleware.RequireRoles(managers...), deps.documents.Void)
}
