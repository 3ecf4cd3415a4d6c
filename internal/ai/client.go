package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sashabaranov/go-openai"

	"reddit-news/config"
)

// Client 是AI接口的客户端
type Client struct {
	client    *openai.Client
	config    *config.OpenAIConfig
	maxTokens int
}

// NewClient 创建一个新的AI客户端
//
// 调用方负责保证APIKey非空，未配置密钥时不要构造客户端
func NewClient(cfg *config.OpenAIConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		config:    cfg,
		maxTokens: cfg.MaxTokens,
	}
}

// PolishNarration 把拼装出来的口播脚本润色成更顺口的播报文本
// 故事数量、顺序和事实不变，只改表达
func (c *Client) PolishNarration(ctx context.Context, script string) (string, error) {
	if script == "" {
		return "", fmt.Errorf("脚本为空，无法润色")
	}

	// 润色不允许丢内容，超长直接拒绝而不是截断
	maxLength := c.maxTokens * 4
	if len(script) > maxLength {
		return "", fmt.Errorf("脚本过长(%d字节)，超过润色上限%d", len(script), maxLength)
	}

	req := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: PolishNarrationPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: script,
			},
		},
		MaxTokens: c.maxTokens,
	}

	return c.generateText(ctx, req)
}

// generateText 发送AI请求并获取生成的文本
func (c *Client) generateText(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	log.Printf("生成AI内容，模型: %s", req.Model)

	// 添加重试逻辑
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		// 添加超时
		timeoutCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		// 发送请求
		resp, err := c.client.CreateChatCompletion(timeoutCtx, req)
		if err != nil {
			if i < maxRetries-1 {
				log.Printf("AI请求失败，正在重试 (%d/%d): %v", i+1, maxRetries, err)
				time.Sleep(time.Duration(i+1) * 2 * time.Second)
				continue
			}
			return "", fmt.Errorf("生成AI内容失败: %w", err)
		}

		// 检查响应是否有效
		if len(resp.Choices) == 0 {
			if i < maxRetries-1 {
				log.Printf("AI响应无效，正在重试 (%d/%d)", i+1, maxRetries)
				time.Sleep(time.Duration(i+1) * 2 * time.Second)
				continue
			}
			return "", fmt.Errorf("AI响应中没有内容")
		}

		log.Printf("AI内容生成成功，使用tokens: %d", resp.Usage.TotalTokens)
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("超过最大重试次数")
}
