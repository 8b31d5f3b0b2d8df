package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/spotmap-go/internal/config"
	"github.com/jengzang/spotmap-go/internal/fakeapi"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	gin.SetMode(gin.ReleaseMode)

	// 初始化模拟服务
	server := fakeapi.New(fakeapi.Config{
		JWTSecret: cfg.FakeAPI.JWTSecret,
		RateLimit: cfg.FakeAPI.RateLimit,
	})

	// 启动服务器
	if err := server.Run(cfg.FakeAPI.Addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
