// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripflow/internal/http/handlers"
	"tripflow/internal/http/middleware"
	"tripflow/internal/modules/trip"
)

// NewRouter maps one route per core entry point. The transport stays thin:
// commands come in tagged with a caller identity, reply text goes back out.
func NewRouter(tripService *trip.Service) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logging(), middleware.Recovery())

	chatHandler := handlers.NewChatHandler(tripService)
	router.POST("/api/chat/start", chatHandler.Start)
	router.POST("/api/chat/message", chatHandler.Message)
	router.GET("/api/chat/status", chatHandler.Status)
	router.POST("/api/chat/cancel", chatHandler.Cancel)
	router.GET("/api/chat/help", chatHandler.Help)

	adminHandler := handlers.NewAdminHandler(tripService)
	router.POST("/api/admin/reset", adminHandler.ResetQuota)
	router.GET("/api/admin/info", adminHandler.Info)

	tipsHandler := handlers.NewTipsHandler(tripService)
	router.GET("/api/tips", tipsHandler.QuickTips)

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return router
}
