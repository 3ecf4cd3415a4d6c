package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"reddit-news/config"
	"reddit-news/internal/api"
)

func main() {
	// 设置日志格式
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("启动 Reddit News 视频服务")

	// 加载配置
	cfg := config.LoadConfig()

	// 创建API服务器
	server := api.NewServer(cfg)

	// 按需启用定时抓取，REFRESH_CRON为空时不启动
	if spec := cfg.Server.RefreshCron; spec != "" {
		c := cron.New(cron.WithSeconds())
		_, err := c.AddFunc(spec, func() {
			log.Println("定时任务触发: 刷新内容源")
			go server.RefreshFeed()
		})
		if err != nil {
			log.Printf("添加定时任务失败: %v", err)
		} else {
			c.Start()
			defer c.Stop()
			log.Printf("定时抓取已启动: %s", spec)
		}
	}

	// 创建通道接收系统信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 启动服务器（非阻塞）
	go func() {
		log.Printf("服务器正在监听端口 %s", cfg.Server.Port)
		if err := server.Run(); err != nil {
			log.Fatalf("服务器运行失败: %v", err)
		}
	}()

	// 等待退出信号
	<-quit
	log.Println("收到退出信号，正在关闭服务")

	// 释放视频资源并关闭编码器
	if err := server.Close(); err != nil {
		log.Printf("关闭服务失败: %v", err)
	}
}
