package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-plan-api/internal/middleware"
	"github.com/noah-isme/lesson-plan-api/internal/models"
)

// TokenValidator verifies bearer tokens for protected routes.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// Routes groups the handlers mounted by RegisterRoutes.
type Routes struct {
	Auth         *AuthHandler
	Plans        *PlanHandler
	Calendar     *CalendarHandler
	Exports      *ExportHandler
	Lessons      *LessonHandler
	Metrics      *MetricsHandler
	Tokens       TokenValidator
	LoginLimiter gin.HandlerFunc
	AuditLogger  *zap.Logger
}

// RegisterRoutes mounts health checks at the root and the API under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, routes Routes) {
	r.GET("/health", routes.Metrics.Health)
	r.GET("/ready", routes.Metrics.Ready)
	r.GET("/metrics", routes.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	login := []gin.HandlerFunc{}
	if routes.LoginLimiter != nil {
		login = append(login, routes.LoginLimiter)
	}
	api.POST("/login", append(login, routes.Auth.Login)...)

	secured := api.Group("")
	secured.Use(middleware.JWT(routes.Tokens))
	audit := func(action string) gin.HandlerFunc { return middleware.Audit(routes.AuditLogger, action) }

	secured.GET("/me", routes.Auth.Me)
	secured.GET("/weeks", routes.Calendar.Weeks)

	secured.GET("/plans/:week", routes.Plans.Get)
	secured.GET("/all-classes", routes.Plans.AllClasses)
	secured.POST("/save-plan", middleware.RequireRoles(models.RoleAdmin), audit("plan.replace"), routes.Plans.SavePlan)
	secured.POST("/save-row", audit("plan.row.update"), routes.Plans.SaveRow)
	secured.POST("/save-rows", audit("plan.rows.update"), routes.Plans.SaveRows)
	secured.POST("/save-notes", audit("plan.notes.update"), routes.Plans.SaveNotes)

	secured.POST("/generate-word", routes.Exports.Word)
	secured.POST("/generate-pdf", routes.Exports.PDF)
	secured.POST("/generate-excel-workbook", routes.Exports.Workbook)
	secured.POST("/generate-csv", routes.Exports.CSV)
	secured.POST("/full-report-by-class", routes.Exports.FullReportByClass)

	secured.POST("/generate-ai-lesson-plan", routes.Lessons.Plan)
	secured.POST("/generate-ai-lesson-docx", routes.Lessons.Document)

	admin := secured.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/metrics", routes.Metrics.Snapshot)
	admin.POST("/cache/flush", audit("cache.flush"), routes.Metrics.FlushCache)
}
