package v1

import (
	"github.com/formulab-api/config"
	"github.com/formulab-api/lib/events"
	"github.com/formulab-api/middleware"
	"github.com/formulab-api/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are what the v1 routes are built on
type Dependencies struct {
	Projects    *services.ProjectService
	Formulation *services.FormulationService
	Runs        *services.RunService

	// readiness only, may be nil
	DB        *gorm.DB
	Redis     *redis.Client
	Publisher events.Publisher

	JWTSecret string
	Units     config.Units
	Log       *zap.Logger
}

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, deps Dependencies) {
	NewHealthController(deps.DB, deps.Redis, deps.Publisher).RegisterRoutes(router)

	auth := middleware.AuthMiddleware(deps.JWTSecret, deps.Log)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/logout", Logout)
		authGroup.GET("/me", auth, GetCurrentUser)
	}

	protected := router.Group("")
	protected.Use(auth)

	NewProjectController(deps.Projects, deps.Runs, deps.Units).RegisterRoutes(protected)
	NewFormulationController(deps.Formulation).RegisterRoutes(protected)

	runController := NewRunController(deps.Runs)
	runController.RegisterRoutes(protected)

	admin := protected.Group("/admin")
	admin.Use(middleware.AdminMiddleware())
	runController.RegisterAdminRoutes(admin)
}
