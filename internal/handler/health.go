package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tutorattend/internal/store"
)

// Health reports database and redis reachability. Redis is only checked
// when configured.
type Health struct {
	db    *store.DB
	redis *store.Redis
}

// NewHealth creates a Health handler. redis may be nil.
func NewHealth(db *store.DB, redis *store.Redis) *Health {
	return &Health{db: db, redis: redis}
}

func (h *Health) check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbHealthy := h.db.Healthy(ctx)
	body := gin.H{"status": "ok", "db": dbHealthy}
	healthy := dbHealthy
	if h.redis != nil {
		redisHealthy := h.redis.Healthy(ctx)
		body["redis"] = redisHealthy
		healthy = healthy && redisHealthy
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
	}
	c.JSON(status, body)
}
