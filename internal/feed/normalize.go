package feed

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"reddit-news/internal/models"
)

const (
	// DefaultMaxItems 归一化后保留的条目数上限
	DefaultMaxItems = 10

	summaryRuneLimit = 600
	ellipsis         = "..."

	fallbackCTA = "Read the full story and join the discussion in the comments."
)

// Normalize 把原始帖子记录归一化为有界的条目列表
// 过滤规则: 缺少id、置顶公告(stickied)、成人内容(over_18)一律丢弃，
// 其余按原始顺序保留，最多maxItems条
func Normalize(posts []models.Post, maxItems int) []models.Item {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	items := make([]models.Item, 0, maxItems)
	for _, post := range posts {
		if post.ID == "" || post.Stickied || post.Over18 {
			continue
		}

		title := strings.TrimSpace(html.UnescapeString(post.Title))
		items = append(items, models.Item{
			ID:        post.ID,
			Title:     title,
			Summary:   buildSummary(post, title),
			SourceURL: sourceURL(post),
			Author:    post.Author,
			PostedAt:  post.CreatedAt,
			Stats: models.ItemStats{
				CommentCount: clampNonNegative(post.NumComments),
				UpvoteRatio:  clampRatio(post.UpvoteRatio),
			},
		})
		if len(items) == maxItems {
			break
		}
	}
	return items
}

// buildSummary 按优先级推导摘要: 正文文本 → 正文HTML提取 → 标题兜底句
func buildSummary(post models.Post, title string) string {
	summary := strings.TrimSpace(html.UnescapeString(post.SelfText))
	if summary == "" {
		summary = textFromHTML(post.SelfTextHTML)
	}
	if summary == "" {
		summary = fallbackSummary(title)
	}
	return truncateRunes(summary, summaryRuneLimit)
}

// textFromHTML 从selftext_html提取纯文本
// Reddit在列表JSON里对HTML本身做了实体转义，先还原再解析
func textFromHTML(escaped string) string {
	if strings.TrimSpace(escaped) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html.UnescapeString(escaped)))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// fallbackSummary 正文为空时用标题合成摘要，标题末尾的句号去掉后重新断句
func fallbackSummary(title string) string {
	base := strings.TrimSuffix(strings.TrimSpace(title), ".")
	return base + ". " + fallbackCTA
}

// truncateRunes 按rune数截断，超限时在limit-3处截断并追加省略号
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

// sourceURL 优先用帖子自身链接，自链接为空时退回Reddit永久链接
func sourceURL(post models.Post) string {
	if u := strings.TrimSpace(html.UnescapeString(post.URL)); u != "" {
		return u
	}
	if post.Permalink != "" {
		return "https://www.reddit.com" + post.Permalink
	}
	return ""
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clampRatio(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
