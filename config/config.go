package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func init() {
	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		log.Printf("警告: 无法加载.env文件: %v", err)
	}
}

// Config 应用配置
type Config struct {
	Server ServerConfig
	Reddit RedditConfig
	Video  VideoConfig
	OpenAI OpenAIConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        string
	Env         string
	RefreshCron string // 为空时不启用定时抓取
}

// RedditConfig Reddit内容源配置
type RedditConfig struct {
	BaseURL    string
	Subreddit  string
	Window     string // top榜单的时间窗口: hour/day/week/month/year/all
	UserAgent  string
	MaxItems   int
	FetchLimit int
}

// VideoConfig 视频生成配置
type VideoConfig struct {
	MinTotalSeconds      int
	MinSlideSeconds      int
	EncodeTimeoutSeconds int
}

// OpenAIConfig OpenAI/Deepseek配置
type OpenAIConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// LoadConfig 从环境变量加载配置
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnvOrDefault("APP_PORT", "3001"),
			Env:         getEnvOrDefault("APP_ENV", "production"),
			RefreshCron: getEnvOrDefault("REFRESH_CRON", ""),
		},
		Reddit: RedditConfig{
			BaseURL:    getEnvOrDefault("REDDIT_BASE_URL", "https://www.reddit.com"),
			Subreddit:  getEnvOrDefault("REDDIT_SUBREDDIT", "worldnews"),
			Window:     getEnvOrDefault("REDDIT_WINDOW", "day"),
			UserAgent:  getEnvOrDefault("REDDIT_USER_AGENT", "reddit-news:video-bot:v1.0 (slideshow generator)"),
			MaxItems:   getEnvIntOrDefault("MAX_ITEMS", 10),
			FetchLimit: getEnvIntOrDefault("REDDIT_FETCH_LIMIT", 25),
		},
		Video: VideoConfig{
			MinTotalSeconds:      getEnvIntOrDefault("VIDEO_MIN_TOTAL_SECONDS", 240),
			MinSlideSeconds:      getEnvIntOrDefault("VIDEO_MIN_SLIDE_SECONDS", 40),
			EncodeTimeoutSeconds: getEnvIntOrDefault("VIDEO_ENCODE_TIMEOUT_SECONDS", 300),
		},
		OpenAI: OpenAIConfig{
			BaseURL:   getEnvOrDefault("OPENAI_BASE_URL", "https://api.deepseek.com/v1"),
			APIKey:    getEnvOrDefault("OPENAI_API_KEY", ""),
			Model:     getEnvOrDefault("OPENAI_MODEL", "deepseek-chat"),
			MaxTokens: getEnvIntOrDefault("OPENAI_MAX_TOKENS", 4096),
		},
	}
}

// getEnvOrDefault 获取环境变量或默认值
func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvIntOrDefault 获取环境变量(整数)或默认值
func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}
