package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pom-bolt/pombolt-backend/internal/storage"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Store     string    `json:"store"`
}

// HealthHandler reports service liveness plus whether the backing store has
// degraded to the in-memory fallback.
type HealthHandler struct {
	serviceName string
	version     string
	store       *storage.Fallback
}

func NewHealthHandler(serviceName, version string, store *storage.Fallback) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		store:       store,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	storeStatus := "remote"
	if h.store != nil && h.store.Degraded() {
		storeStatus = "degraded"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Store:     storeStatus,
	})
}

// RegisterRoutes attaches the health endpoints.
func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.HealthCheck)
	r.GET("/api/v1/health", h.HealthCheck)
}
