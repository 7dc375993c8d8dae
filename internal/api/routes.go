package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sketch_web/internal/api/handlers"
	"sketch_web/internal/middleware"
	"sketch_web/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	wsHandler := handlers.NewWebSocketHandler(services.WebSocket)

	// 瀏覽器客戶端可能由其他位置提供，放行跨來源請求
	r.Use(middleware.CORS())

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	})

	// API 路由群組
	api := r.Group("/api")
	{
		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	// WebSocket 連接點，所有遊戲事件都走這條連線
	r.GET("/ws", wsHandler.HandleWebSocket)
}
