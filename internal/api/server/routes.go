package server

import (
	"github.com/bz888/localchat/internal/api/server/handlers"
	"github.com/labstack/echo/v4"
)

func registerRoutes(e *echo.Echo, handler *handlers.Handler) {
	e.POST("/api/chat", handler.ChatHandler)
	e.GET("/api/models", handler.ModelHandler)
	e.GET("/api/status", handler.StatusHandler)
}
