package server

import (
	"net/http"

	"farmmarket/internal/config"
	"farmmarket/internal/handler"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, cfg config.Config, bidH *handler.BidHandler, auditH *handler.AuditLogHandler) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})

	bidH.RegisterRoutes(e, cfg)
	auditH.RegisterRoutes(e, cfg)
}
