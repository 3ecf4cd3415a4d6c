package script

import (
	"fmt"
	"strings"
	"time"

	"reddit-news/internal/models"
)

// postedAtLayout 固定en-US/UTC展示格式，保证同样的条目生成同样的脚本
const postedAtLayout = "Jan 2, 2006, 3:04 PM MST"

// FormatPostedAt 把发布时间格式化为en-US/UTC的展示文本
func FormatPostedAt(t time.Time) string {
	return t.UTC().Format(postedAtLayout)
}

// Compose 把条目列表组装成可编辑的口播脚本
// 每个条目一段: 序号+标题行、摘要、作者与发布时间的署名行，段落之间空一行
// 生成后的脚本允许用户整体修改，只有重新抓取才会重新生成
func Compose(items []models.Item) string {
	paragraphs := make([]string, 0, len(items))
	for i, item := range items {
		var b strings.Builder
		fmt.Fprintf(&b, "Story %d: %s\n", i+1, item.Title)
		b.WriteString(item.Summary)
		b.WriteString("\n")
		fmt.Fprintf(&b, "Posted by u/%s on %s.", item.Author, FormatPostedAt(item.PostedAt))
		paragraphs = append(paragraphs, b.String())
	}
	return strings.Join(paragraphs, "\n\n")
}
