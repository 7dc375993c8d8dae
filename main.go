package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"sketch_web/internal/api"
	"sketch_web/internal/service"
	"sketch_web/pkg/config"
)

func main() {
	// 載入應用程式配置
	// 所有遊戲狀態都在記憶體中，重啟即消失，因此不需要任何資料庫連線
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化服務
	services := service.NewServices(cfg.Game)

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services)

	// 啟動伺服器
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
