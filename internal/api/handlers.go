package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"reddit-news/config"
	"reddit-news/internal/ai"
	"reddit-news/internal/encoder"
	"reddit-news/internal/feed"
	"reddit-news/internal/logstream"
	"reddit-news/internal/pipeline"
	"reddit-news/internal/render"
)

// Server 是API服务器结构
type Server struct {
	config   *config.Config
	router   *gin.Engine
	pipeline *pipeline.Pipeline
	aiClient *ai.Client
	logs     *logstream.Stream
}

// NewServer 创建一个新的API服务器，组装全部协作方
func NewServer(cfg *config.Config) *Server {
	logs := logstream.New(logstream.DefaultCapacity)

	// 未配置密钥时不启用AI润色
	var aiClient *ai.Client
	if cfg.OpenAI.APIKey != "" {
		aiClient = ai.NewClient(&cfg.OpenAI)
	} else {
		log.Println("未设置OPENAI_API_KEY，AI润色功能不可用")
	}

	pipe := pipeline.New(pipeline.Options{
		Feed:            feed.NewClient(cfg.Reddit.BaseURL, cfg.Reddit.Subreddit, cfg.Reddit.UserAgent),
		Renderer:        render.NewRenderer(nil),
		Encoder:         encoder.NewFFmpeg(logs, time.Duration(cfg.Video.EncodeTimeoutSeconds)*time.Second),
		Logs:            logs,
		MaxItems:        cfg.Reddit.MaxItems,
		FetchLimit:      cfg.Reddit.FetchLimit,
		Window:          cfg.Reddit.Window,
		MinTotalSeconds: cfg.Video.MinTotalSeconds,
		MinSlideSeconds: cfg.Video.MinSlideSeconds,
	})

	return newServer(cfg, pipe, aiClient, logs)
}

// newServer 用现成的协作方装配服务器
func newServer(cfg *config.Config, pipe *pipeline.Pipeline, aiClient *ai.Client, logs *logstream.Stream) *Server {
	// 创建Gin路由
	router := gin.Default()

	// 启用CORS
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	server := &Server{
		config:   cfg,
		router:   router,
		pipeline: pipe,
		aiClient: aiClient,
		logs:     logs,
	}

	// 注册路由
	server.registerRoutes()

	return server
}

// registerRoutes 注册API路由
func (s *Server) registerRoutes() {
	// 健康检查
	s.router.GET("/health", s.healthHandler)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// 抓取并归一化内容
		v1.POST("/fetch", s.fetchHandler)

		// 当前条目列表
		v1.GET("/items", s.itemsHandler)

		// 口播脚本的读取与整体替换
		v1.GET("/narration", s.getNarrationHandler)
		v1.PUT("/narration", s.putNarrationHandler)

		// AI润色脚本
		v1.POST("/narration/polish", s.polishNarrationHandler)

		// 生成视频
		v1.POST("/generate", s.generateHandler)

		// 获取编排状态
		v1.GET("/status", s.statusHandler)

		// 获取视频产物
		v1.GET("/video", s.videoHandler)

		// 日志窗口与实时跟随
		v1.GET("/logs", s.logsHandler)
		v1.GET("/logs/stream", s.streamLogsHandler)
	}
}

// Run 启动API服务器
func (s *Server) Run() error {
	return s.router.Run(":" + s.config.Server.Port)
}

// RefreshFeed 供定时任务调用的抓取入口
func (s *Server) RefreshFeed() {
	if _, _, err := s.pipeline.FetchUpdates(context.Background()); err != nil {
		log.Printf("定时抓取失败: %v", err)
	}
}

// Close 释放视频资源并关闭编码器
func (s *Server) Close() error {
	return s.pipeline.Close()
}

// healthHandler 健康检查处理程序
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// fetchHandler 抓取内容源并重建条目与口播脚本
func (s *Server) fetchHandler(c *gin.Context) {
	items, narration, err := s.pipeline.FetchUpdates(c.Request.Context())
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "抓取完成",
		"itemCount": len(items),
		"items":     items,
		"narration": narration,
	})
}

// itemsHandler 获取当前条目列表
func (s *Server) itemsHandler(c *gin.Context) {
	items := s.pipeline.Items()
	c.JSON(http.StatusOK, gin.H{
		"count": len(items),
		"items": items,
	})
}

// getNarrationHandler 获取口播脚本
func (s *Server) getNarrationHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"narration": s.pipeline.Narration(),
	})
}

// putNarrationHandler 整体替换口播脚本
func (s *Server) putNarrationHandler(c *gin.Context) {
	var req struct {
		Narration string `json:"narration" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数",
		})
		return
	}

	s.pipeline.SetNarration(req.Narration)
	c.JSON(http.StatusOK, gin.H{
		"message": "脚本已更新",
	})
}

// polishNarrationHandler 用AI把当前脚本润色成更顺口的播报文本
func (s *Server) polishNarrationHandler(c *gin.Context) {
	if s.aiClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "未配置AI接口，无法润色",
		})
		return
	}

	narration := s.pipeline.Narration()
	if narration == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "没有可润色的脚本，请先抓取内容",
		})
		return
	}

	polished, err := s.aiClient.PolishNarration(c.Request.Context(), narration)
	if err != nil {
		log.Printf("润色脚本失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "润色脚本失败",
		})
		return
	}

	s.pipeline.SetNarration(polished)
	c.JSON(http.StatusOK, gin.H{
		"message":   "润色完成",
		"narration": polished,
	})
}

// generateHandler 触发一次视频生成
// 前置检查同步完成，失败立即返回；实际生成在后台进行
func (s *Server) generateHandler(c *gin.Context) {
	if err := s.pipeline.CanGenerate(); err != nil {
		c.JSON(statusForError(err), gin.H{
			"error": err.Error(),
		})
		return
	}

	// 在后台生成
	go func() {
		if _, err := s.pipeline.GenerateVideo(context.Background()); err != nil {
			log.Printf("生成视频失败: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "生成已开始",
	})
}

// statusHandler 获取编排器状态
func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.pipeline.Status())
}

// videoHandler 获取最近一次生成的视频
func (s *Server) videoHandler(c *gin.Context) {
	video := s.pipeline.Video()
	if video == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "视频尚未生成",
		})
		return
	}

	// 设置响应头
	c.Writer.Header().Set("Content-Type", "video/mp4")
	c.Writer.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", video.Filename))
	c.Writer.Write(video.Data)
}

// logsHandler 获取最近的日志窗口
func (s *Server) logsHandler(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	lines := s.logs.Tail(limit)
	c.JSON(http.StatusOK, gin.H{
		"count": len(lines),
		"lines": lines,
	})
}

// streamLogsHandler 以SSE实时跟随日志
func (s *Server) streamLogsHandler(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ch, cancel := s.logs.Subscribe(64)
	defer cancel()

	// 先补发最近窗口再跟随推送，按序号去掉两边都出现的行
	var lastSeq uint64
	for _, line := range s.logs.Tail(50) {
		c.SSEvent("log", line)
		lastSeq = line.Seq
	}
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case line, ok := <-ch:
			if !ok {
				return false
			}
			if line.Seq <= lastSeq {
				return true
			}
			c.SSEvent("log", line)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// statusForError 把流水线错误映射为HTTP状态码
func statusForError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrPrecondition):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoContent):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrFeedUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
