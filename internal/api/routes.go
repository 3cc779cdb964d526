package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/internal/auth"
)

// InitRoutes initializes all API routes. A nil issuer leaves every route
// unauthenticated.
func InitRoutes(e *echo.Echo, h *Handler, issuer *auth.Issuer, logger *zap.Logger) {
	e.HTTPErrorHandler = HTTPErrorHandler(logger)
	e.Use(ErrorBoundary(logger))

	// Public
	e.GET("/health", h.Health)
	e.GET("/api/voices", h.Voices)
	e.GET("/audio/:filename", h.Audio)

	var protected []echo.MiddlewareFunc
	if issuer != nil {
		protected = append(protected, JWTAuth(issuer, logger))
	}

	e.POST("/api/transcribe", h.Transcribe, protected...)
	e.POST("/api/get-pose-3d", h.Pose3D, protected...)
	e.GET("/api/status", h.Status, protected...)
	e.GET("/ws/coach", h.Coach, protected...)
}
