package handler

import (
	"net/http"

	"agrikonnect/internal/middleware"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// /healthzと/metrics
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.healthz)
	e.GET("/metrics", middleware.PrometheusHandler())
}

func (h *HealthHandler) healthz(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "ng"})
	}
	if err := sqlDB.PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "ng"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
