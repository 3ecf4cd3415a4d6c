package render

import (
	"fmt"
	"image/color"
	"net/url"
	"strings"

	"reddit-news/internal/models"
	"reddit-news/internal/script"
)

// 画布与布局常量，所有幻灯片使用同一套固定布局
const (
	CanvasWidth  = 1280
	CanvasHeight = 720

	panelMargin  = 60.0
	panelPadding = 48.0

	labelFontSize   = 22.0
	titleFontSize   = 44.0
	summaryFontSize = 26.0
	footerFontSize  = 20.0

	titleMaxLines   = 3
	summaryMaxLines = 6

	titleLineHeight   = 56.0
	summaryLineHeight = 38.0

	ellipsis = "..."

	attributionCaption = "Generated from Reddit community posts"
)

var (
	gradientStops = []GradientStop{
		{Offset: 0, Color: color.NRGBA{R: 15, G: 32, B: 39, A: 255}},
		{Offset: 0.5, Color: color.NRGBA{R: 32, G: 58, B: 67, A: 255}},
		{Offset: 1, Color: color.NRGBA{R: 44, G: 83, B: 100, A: 255}},
	}
	panelFill    = color.NRGBA{R: 255, G: 255, B: 255, A: 20}
	panelBorder  = color.NRGBA{R: 255, G: 255, B: 255, A: 64}
	labelColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 178}
	titleColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	summaryColor = color.NRGBA{R: 230, G: 235, B: 240, A: 255}
	footerColor  = color.NRGBA{R: 168, G: 188, B: 200, A: 255}
	captionColor = color.NRGBA{R: 140, G: 160, B: 172, A: 255}
)

// Renderer 把单个条目绘制成固定布局的幻灯片
type Renderer struct {
	newCanvas CanvasFactory
}

// NewRenderer 创建渲染器，factory为nil时使用默认的gg画布
func NewRenderer(factory CanvasFactory) *Renderer {
	if factory == nil {
		factory = NewGGCanvas
	}
	return &Renderer{newCanvas: factory}
}

// Render 渲染第index张(0起)共total张中的一张幻灯片，返回PNG字节
// 同样的条目和布局常量总是产出相同的图片
func (r *Renderer) Render(item models.Item, index, total int) ([]byte, error) {
	canvas, err := r.newCanvas(CanvasWidth, CanvasHeight)
	if err != nil {
		return nil, fmt.Errorf("创建绘制表面失败: %w", err)
	}

	canvas.FillVerticalGradient(gradientStops)

	panelW := CanvasWidth - 2*panelMargin
	panelH := CanvasHeight - 2*panelMargin
	canvas.FillRect(panelMargin, panelMargin, panelW, panelH, panelFill)
	canvas.StrokeRect(panelMargin, panelMargin, panelW, panelH, 2, panelBorder)

	textX := panelMargin + panelPadding
	maxTextWidth := CanvasWidth - 2*(panelMargin+panelPadding)
	y := panelMargin + panelPadding + labelFontSize

	// 序号标签
	if err := canvas.SetFont(FontRegular, labelFontSize); err != nil {
		return nil, err
	}
	canvas.DrawText(fmt.Sprintf("%d of %d", index+1, total), textX, y, labelColor)
	y += 54

	// 标题，最多3行
	if err := canvas.SetFont(FontBold, titleFontSize); err != nil {
		return nil, err
	}
	for _, line := range clampLines(wrapLines(canvas, item.Title, maxTextWidth), titleMaxLines) {
		canvas.DrawText(line, textX, y, titleColor)
		y += titleLineHeight
	}
	y += 18

	// 摘要，最多6行
	if err := canvas.SetFont(FontRegular, summaryFontSize); err != nil {
		return nil, err
	}
	for _, line := range clampLines(wrapLines(canvas, item.Summary, maxTextWidth), summaryMaxLines) {
		canvas.DrawText(line, textX, y, summaryColor)
		y += summaryLineHeight
	}

	// 页脚锚定在面板底部: 来源与发布时间一行，固定署名一行
	if err := canvas.SetFont(FontRegular, footerFontSize); err != nil {
		return nil, err
	}
	captionBaseline := CanvasHeight - panelMargin - panelPadding
	canvas.DrawText(footerLine(item), textX, captionBaseline-32, footerColor)
	canvas.DrawText(attributionCaption, textX, captionBaseline, captionColor)

	return canvas.EncodePNG()
}

// footerLine 页脚文本: 来源域名 · 发布时间
func footerLine(item models.Item) string {
	return sourceHost(item.SourceURL) + " · " + script.FormatPostedAt(item.PostedAt)
}

// sourceHost 提取来源域名作为归一化的来源展示，去掉www.前缀
func sourceHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "reddit.com"
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// wrapLines 按测量宽度贪心断行，调用前必须先设置好字体
// 单个超宽的词不做断字处理，独占一行
func wrapLines(canvas Canvas, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if canvas.MeasureWidth(candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// clampLines 限制最大行数
// 发生截断时丢弃溢出行，并把最后可见行的结尾改为单个省略号
func clampLines(lines []string, maxLines int) []string {
	if maxLines <= 0 {
		return nil
	}
	if len(lines) <= maxLines {
		return lines
	}
	clamped := make([]string, maxLines)
	copy(clamped, lines[:maxLines])
	clamped[maxLines-1] = strings.TrimRight(clamped[maxLines-1], ".") + ellipsis
	return clamped
}
