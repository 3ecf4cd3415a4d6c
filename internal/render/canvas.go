package render

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// FontWeight 字体粗细选择
type FontWeight int

const (
	// FontRegular 正文字重
	FontRegular FontWeight = iota
	// FontBold 标题字重
	FontBold
)

// GradientStop 垂直渐变中的一个色标，Offset取值[0,1]
type GradientStop struct {
	Offset float64
	Color  color.Color
}

// Canvas 幻灯片绘制所需的最小能力集合
// 文本测量+矩形绘制+文本绘制+光栅导出，任何满足该集合的表面都可以替换默认实现
type Canvas interface {
	FillVerticalGradient(stops []GradientStop)
	FillRect(x, y, w, h float64, col color.Color)
	StrokeRect(x, y, w, h, lineWidth float64, col color.Color)
	SetFont(weight FontWeight, size float64) error
	MeasureWidth(s string) float64
	DrawText(s string, x, y float64, col color.Color)
	EncodePNG() ([]byte, error)
}

// CanvasFactory 创建指定尺寸的画布
// 创建失败意味着绘制表面不可用，对整次生成是致命错误
type CanvasFactory func(width, height int) (Canvas, error)

var (
	fontOnce    sync.Once
	fontErr     error
	regularFont *sfnt.Font
	boldFont    *sfnt.Font
)

// loadFonts 解析内置的Go字体，进程内只解析一次
func loadFonts() error {
	fontOnce.Do(func() {
		regularFont, fontErr = opentype.Parse(goregular.TTF)
		if fontErr != nil {
			return
		}
		boldFont, fontErr = opentype.Parse(gobold.TTF)
	})
	return fontErr
}

type ggCanvas struct {
	dc     *gg.Context
	width  int
	height int
}

// NewGGCanvas 基于fogleman/gg的默认画布实现
func NewGGCanvas(width, height int) (Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("无效的画布尺寸: %dx%d", width, height)
	}
	if err := loadFonts(); err != nil {
		return nil, fmt.Errorf("加载内置字体失败: %w", err)
	}
	return &ggCanvas{dc: gg.NewContext(width, height), width: width, height: height}, nil
}

func (c *ggCanvas) FillVerticalGradient(stops []GradientStop) {
	grad := gg.NewLinearGradient(0, 0, 0, float64(c.height))
	for _, s := range stops {
		grad.AddColorStop(s.Offset, s.Color)
	}
	c.dc.SetFillStyle(grad)
	c.dc.DrawRectangle(0, 0, float64(c.width), float64(c.height))
	c.dc.Fill()
}

func (c *ggCanvas) FillRect(x, y, w, h float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.Fill()
}

func (c *ggCanvas) StrokeRect(x, y, w, h, lineWidth float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(lineWidth)
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.Stroke()
}

func (c *ggCanvas) SetFont(weight FontWeight, size float64) error {
	f := regularFont
	if weight == FontBold {
		f = boldFont
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("创建字体失败: %w", err)
	}
	c.dc.SetFontFace(face)
	return nil
}

func (c *ggCanvas) MeasureWidth(s string) float64 {
	w, _ := c.dc.MeasureString(s)
	return w
}

func (c *ggCanvas) DrawText(s string, x, y float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawString(s, x, y)
}

func (c *ggCanvas) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("导出PNG失败: %w", err)
	}
	return buf.Bytes(), nil
}
