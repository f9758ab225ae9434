package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/formulab-api/lib/events"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceVersion = "1.0.0"

// connectionChecker is implemented by publishers holding a broker connection
type connectionChecker interface {
	IsConnected() bool
}

// HealthController reports liveness and readiness
type HealthController struct {
	db        *gorm.DB
	rdb       *redis.Client
	publisher events.Publisher
}

// NewHealthController creates a health controller. Nil dependencies are not checked.
func NewHealthController(db *gorm.DB, rdb *redis.Client, publisher events.Publisher) *HealthController {
	return &HealthController{db: db, rdb: rdb, publisher: publisher}
}

// RegisterRoutes registers the health routes
func (h *HealthController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.Ready)
}

// HealthCheck handles the health check endpoint
func (h *HealthController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "formulab-api",
		"version": serviceVersion,
	})
}

// Ready checks the database, redis and broker connections
func (h *HealthController) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis_not_ready", "error": err.Error()})
			return
		}
	}
	if mq, ok := h.publisher.(connectionChecker); ok && !mq.IsConnected() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
