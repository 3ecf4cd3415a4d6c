package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"reddit-news/internal/models"
)

// Client 用于访问Reddit列表接口的客户端
type Client struct {
	baseURL    string
	subreddit  string
	userAgent  string
	httpClient *http.Client
}

// NewClient 创建一个新的Reddit客户端
func NewClient(baseURL, subreddit, userAgent string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		subreddit:  subreddit,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchTop 获取指定时间窗口内的热门帖子
// window取值: hour/day/week/month/year/all
func (c *Client) FetchTop(ctx context.Context, limit int, window string) ([]models.Post, error) {
	url := fmt.Sprintf("%s/r/%s/top.json?limit=%d&t=%s", c.baseURL, c.subreddit, limit, window)
	log.Printf("获取Reddit热门帖子: %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	// Reddit要求描述性的User-Agent，否则会限流
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取帖子失败: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("获取帖子结果: %s", resp.Status)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Reddit返回非成功状态: %s", resp.Status)
	}

	var raw redditListing
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	posts := make([]models.Post, 0, len(raw.Data.Children))
	for _, child := range raw.Data.Children {
		p := child.Data
		posts = append(posts, models.Post{
			ID:           p.ID,
			Title:        p.Title,
			SelfText:     p.SelfText,
			SelfTextHTML: p.SelfTextHTML,
			URL:          p.URL,
			Permalink:    p.Permalink,
			Author:       p.Author,
			CreatedAt:    time.Unix(int64(p.CreatedUTC), 0).UTC(),
			NumComments:  p.NumComments,
			UpvoteRatio:  p.UpvoteRatio,
			Stickied:     p.Stickied,
			Over18:       p.Over18,
		})
	}

	log.Printf("找到 %d 条帖子", len(posts))
	return posts, nil
}

type redditListing struct {
	Data redditListingData `json:"data"`
}

type redditListingData struct {
	Children []redditChild `json:"children"`
}

type redditChild struct {
	Data redditPost `json:"data"`
}

type redditPost struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	SelfText     string  `json:"selftext"`
	SelfTextHTML string  `json:"selftext_html"`
	URL          string  `json:"url"`
	Permalink    string  `json:"permalink"`
	Author       string  `json:"author"`
	CreatedUTC   float64 `json:"created_utc"`
	NumComments  int     `json:"num_comments"`
	UpvoteRatio  float64 `json:"upvote_ratio"`
	Stickied     bool    `json:"stickied"`
	Over18       bool    `json:"over_18"`
}
