package render

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"reddit-news/internal/models"
)

// fakeCanvas 以每rune固定10px宽度进行测量，并记录全部绘制调用
type fakeCanvas struct {
	texts     []string
	fontSizes []float64
	gradients int
	fills     int
	strokes   int
	encoded   bool
}

func (c *fakeCanvas) FillVerticalGradient(stops []GradientStop) { c.gradients++ }

func (c *fakeCanvas) FillRect(x, y, w, h float64, col color.Color) { c.fills++ }

func (c *fakeCanvas) StrokeRect(x, y, w, h, lw float64, col color.Color) { c.strokes++ }

func (c *fakeCanvas) MeasureWidth(s string) float64 { return float64(len([]rune(s))) * 10 }

func (c *fakeCanvas) DrawText(s string, x, y float64, col color.Color) { c.texts = append(c.texts, s) }

func (c *fakeCanvas) EncodePNG() ([]byte, error) { c.encoded = true; return []byte("png"), nil }

func (c *fakeCanvas) SetFont(weight FontWeight, size float64) error {
	c.fontSizes = append(c.fontSizes, size)
	return nil
}

func sampleItem() models.Item {
	return models.Item{
		ID:        "a1",
		Title:     "Quarterly results beat analyst expectations",
		Summary:   "The company reported record revenue and raised its full-year guidance.",
		SourceURL: "https://www.example.com/story",
		Author:    "reporter",
		PostedAt:  time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC),
		Stats:     models.ItemStats{CommentCount: 10, UpvoteRatio: 0.9},
	}
}

func TestWrapLinesGreedyPacking(t *testing.T) {
	c := &fakeCanvas{}
	lines := wrapLines(c, "alpha beta gamma delta epsilon", 120)

	assert.Equal(t, []string{"alpha beta", "gamma delta", "epsilon"}, lines)
	// 词都能放下时绝不拆词: 重新拼接应还原输入
	assert.Equal(t, "alpha beta gamma delta epsilon", strings.Join(lines, " "))
	for _, line := range lines {
		if c.MeasureWidth(line) > 120 {
			t.Fatalf("行宽超限: %q", line)
		}
	}
}

func TestWrapLinesOverlongWordPlacedAlone(t *testing.T) {
	c := &fakeCanvas{}
	lines := wrapLines(c, "hi extraordinarily ok", 100)

	// 超宽的词不做断字，独占一行
	assert.Equal(t, []string{"hi", "extraordinarily", "ok"}, lines)
}

func TestWrapLinesEmptyText(t *testing.T) {
	c := &fakeCanvas{}
	assert.Equal(t, 0, len(wrapLines(c, "   ", 100)))
}

func TestClampLinesTruncation(t *testing.T) {
	lines := []string{"one", "two", "three.", "four", "five"}
	clamped := clampLines(lines, 3)

	assert.Equal(t, 3, len(clamped))
	assert.Equal(t, "one", clamped[0])
	// 最后可见行以单个省略号结尾，原有的句号不保留
	assert.Equal(t, "three...", clamped[2])
}

func TestClampLinesNoTruncationNeeded(t *testing.T) {
	lines := []string{"one", "two"}
	assert.Equal(t, lines, clampLines(lines, 3))
}

func TestClampLinesSingleEllipsisMarker(t *testing.T) {
	lines := []string{"a", "ends with...", "c", "d"}
	clamped := clampLines(lines, 2)

	assert.Equal(t, "ends with...", clamped[1])
}

func TestRenderSlideDrawsExpectedText(t *testing.T) {
	fake := &fakeCanvas{}
	r := NewRenderer(func(w, h int) (Canvas, error) { return fake, nil })

	data, err := r.Render(sampleItem(), 1, 6)

	assert.Equal(t, nil, err)
	assert.Equal(t, []byte("png"), data)
	assert.Equal(t, 1, fake.gradients)
	assert.Equal(t, 1, fake.fills)
	assert.Equal(t, 1, fake.strokes)
	// 标签/标题/摘要/页脚各设置一次字体
	assert.Equal(t, []float64{labelFontSize, titleFontSize, summaryFontSize, footerFontSize}, fake.fontSizes)

	all := strings.Join(fake.texts, "\n")
	for _, want := range []string{
		"2 of 6",
		"Quarterly results beat analyst expectations",
		"example.com · Aug 24, 2026, 12:00 PM UTC",
		attributionCaption,
	} {
		if !strings.Contains(all, want) {
			t.Fatalf("绘制文本缺少 %q:\n%s", want, all)
		}
	}
}

func TestRenderSlidePNGDimensions(t *testing.T) {
	r := NewRenderer(nil)

	data, err := r.Render(sampleItem(), 0, 3)
	assert.Equal(t, nil, err)

	img, err := png.Decode(bytes.NewReader(data))
	assert.Equal(t, nil, err)
	assert.Equal(t, CanvasWidth, img.Bounds().Dx())
	assert.Equal(t, CanvasHeight, img.Bounds().Dy())
}

func TestRenderSlideDeterministic(t *testing.T) {
	r := NewRenderer(nil)
	item := sampleItem()

	first, err := r.Render(item, 0, 3)
	assert.Equal(t, nil, err)
	second, err := r.Render(item, 0, 3)
	assert.Equal(t, nil, err)

	if !bytes.Equal(first, second) {
		t.Fatal("同样的条目两次渲染应产出完全一致的字节")
	}
}

func TestRenderSurfaceUnavailable(t *testing.T) {
	r := NewRenderer(func(w, h int) (Canvas, error) {
		return nil, errors.New("no surface")
	})

	_, err := r.Render(sampleItem(), 0, 1)
	assert.NotEqual(t, nil, err)
}

func TestSourceHost(t *testing.T) {
	assert.Equal(t, "example.com", sourceHost("https://www.example.com/a/b"))
	assert.Equal(t, "news.site.org", sourceHost("https://news.site.org/x"))
	assert.Equal(t, "reddit.com", sourceHost(""))
}
