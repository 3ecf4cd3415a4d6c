package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"reddit-news/internal/feed"
	"reddit-news/internal/logstream"
	"reddit-news/internal/media"
	"reddit-news/internal/models"
	"reddit-news/internal/script"
)

// State 编排器状态
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateReady     State = "ready"
	StateRendering State = "rendering"
	StateDone      State = "done"
	StateError     State = "error"
)

// Feed 内容源协作方
type Feed interface {
	FetchTop(ctx context.Context, limit int, window string) ([]models.Post, error)
}

// SlideRenderer 幻灯片渲染协作方
type SlideRenderer interface {
	Render(item models.Item, index, total int) ([]byte, error)
}

// Encoder 外部编码器协作方，进程内单实例复用
type Encoder interface {
	Encode(ctx context.Context, job models.EncodeJob) ([]byte, error)
	Close() error
}

// Options 编排器依赖与参数
type Options struct {
	Feed     Feed
	Renderer SlideRenderer
	Encoder  Encoder
	Logs     *logstream.Stream

	MaxItems        int
	FetchLimit      int
	Window          string
	MinTotalSeconds int
	MinSlideSeconds int
}

// Pipeline 把抓取、归一化、渲染、编码编排成单线状态机
// 同一时间只允许一次抓取或一次生成在途
type Pipeline struct {
	feed     Feed
	renderer SlideRenderer
	encoder  Encoder
	logs     *logstream.Stream

	maxItems   int
	fetchLimit int
	window     string
	minTotal   int
	minSlide   int

	mu        sync.Mutex
	state     State
	items     []models.Item
	narration string
	lastError string
	video     *models.VideoResult
}

// New 创建编排器，零值参数回退到默认常量
func New(opts Options) *Pipeline {
	if opts.Logs == nil {
		opts.Logs = logstream.New(0)
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = feed.DefaultMaxItems
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 25
	}
	if opts.Window == "" {
		opts.Window = "day"
	}
	if opts.MinTotalSeconds <= 0 {
		opts.MinTotalSeconds = MinTotalSeconds
	}
	if opts.MinSlideSeconds <= 0 {
		opts.MinSlideSeconds = MinSlideSeconds
	}
	return &Pipeline{
		feed:       opts.Feed,
		renderer:   opts.Renderer,
		encoder:    opts.Encoder,
		logs:       opts.Logs,
		maxItems:   opts.MaxItems,
		fetchLimit: opts.FetchLimit,
		window:     opts.Window,
		minTotal:   opts.MinTotalSeconds,
		minSlide:   opts.MinSlideSeconds,
		state:      StateIdle,
	}
}

// FetchUpdates 抓取并归一化条目，重建口播脚本
// 抓取或生成进行中时拒绝；失败时保留上一次的条目和脚本
func (p *Pipeline) FetchUpdates(ctx context.Context) ([]models.Item, string, error) {
	p.mu.Lock()
	if p.state == StateFetching || p.state == StateRendering {
		p.mu.Unlock()
		return nil, "", ErrBusy
	}
	p.state = StateFetching
	p.mu.Unlock()

	runID := newRunID()
	p.logs.Logf("[%s] 开始抓取内容源 limit=%d window=%s", runID, p.fetchLimit, p.window)

	posts, err := p.feed.FetchTop(ctx, p.fetchLimit, p.window)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
		p.fail(runID, wrapped)
		return nil, "", wrapped
	}

	items := feed.Normalize(posts, p.maxItems)
	if len(items) == 0 {
		wrapped := fmt.Errorf("%w: 原始%d条全部被过滤", ErrNoContent, len(posts))
		p.fail(runID, wrapped)
		return nil, "", wrapped
	}

	narration := script.Compose(items)

	p.mu.Lock()
	p.items = items
	p.narration = narration
	p.state = StateReady
	p.lastError = ""
	p.mu.Unlock()

	p.logs.Logf("[%s] 抓取完成: %d条(原始%d条)", runID, len(items), len(posts))
	return items, narration, nil
}

// CanGenerate 同步前置检查，不改变任何状态、不分配任何资源
func (p *Pipeline) CanGenerate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canGenerateLocked()
}

func (p *Pipeline) canGenerateLocked() error {
	if p.state == StateFetching || p.state == StateRendering {
		return ErrBusy
	}
	if len(p.items) == 0 {
		return ErrPrecondition
	}
	return nil
}

// GenerateVideo 执行一次完整生成: 时长计划→逐张渲染→清单→静音轨→编码
// 进入渲染阶段时先释放上一次的视频；任何阶段失败都不会暴露半成品
func (p *Pipeline) GenerateVideo(ctx context.Context) (*models.VideoResult, error) {
	p.mu.Lock()
	if err := p.canGenerateLocked(); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	items := p.items
	p.video = nil
	p.state = StateRendering
	p.mu.Unlock()

	runID := newRunID()
	result, err := p.run(ctx, runID, items)
	if err != nil {
		p.fail(runID, err)
		return nil, err
	}

	p.mu.Lock()
	p.video = result
	p.state = StateDone
	p.lastError = ""
	p.mu.Unlock()

	p.logs.Logf("[%s] 生成完成: %s %d秒 %d字节",
		runID, result.Filename, result.DurationSeconds, len(result.Data))
	return result, nil
}

// run 渲染阶段的实际工作，全程不持锁，状态和日志读取不会被阻塞
func (p *Pipeline) run(ctx context.Context, runID string, items []models.Item) (*models.VideoResult, error) {
	plan := ComputePlan(len(items), p.minTotal, p.minSlide)
	p.logs.Logf("[%s] 时长计划: %d条 x %d秒 = %d秒",
		runID, plan.ItemCount, plan.PerSlideSeconds, plan.TotalSeconds)

	// 逐张顺序渲染，资产名就是清单顺序
	slides := make([]models.Asset, 0, len(items))
	names := make([]string, 0, len(items))
	for i, item := range items {
		data, err := p.renderer.Render(item, i, len(items))
		if err != nil {
			return nil, fmt.Errorf("%w: 第%d张: %v", ErrRenderSurface, i+1, err)
		}
		name := media.SlideAssetName(i)
		slides = append(slides, models.Asset{Name: name, Data: data})
		names = append(names, name)
		p.logs.Logf("[%s] 渲染幻灯片 %d/%d", runID, i+1, len(items))
	}

	manifest := media.BuildManifest(names, plan.PerSlideSeconds)

	silence, err := media.Silence(plan.TotalSeconds)
	if err != nil {
		return nil, fmt.Errorf("%w: 生成静音轨: %v", ErrEncoderFailure, err)
	}

	data, err := p.encoder.Encode(ctx, models.EncodeJob{
		RunID:    runID,
		Slides:   slides,
		Silence:  models.Asset{Name: media.SilenceAssetName, Data: silence},
		Manifest: models.Asset{Name: media.ManifestAssetName, Data: []byte(manifest)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoderFailure, err)
	}

	now := time.Now()
	return &models.VideoResult{
		Data:            data,
		DurationSeconds: plan.TotalSeconds,
		Filename:        VideoFilename(now),
		GeneratedAt:     now.UTC(),
	}, nil
}

// fail 记录失败并进入error状态，已有的成功产物保持不动
func (p *Pipeline) fail(runID string, err error) {
	p.logs.Logf("[%s] %v", runID, err)
	p.mu.Lock()
	p.state = StateError
	p.lastError = err.Error()
	p.mu.Unlock()
}

// Status 编排器状态快照
type Status struct {
	State     State               `json:"state"`
	Error     string              `json:"error,omitempty"`
	ItemCount int                 `json:"itemCount"`
	Plan      *models.RenderPlan  `json:"plan,omitempty"`
	Video     *models.VideoResult `json:"video,omitempty"`
}

// Status 返回当前状态快照
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{
		State:     p.state,
		Error:     p.lastError,
		ItemCount: len(p.items),
	}
	if len(p.items) > 0 {
		plan := ComputePlan(len(p.items), p.minTotal, p.minSlide)
		st.Plan = &plan
	}
	if p.video != nil {
		v := *p.video
		v.Data = nil // 快照只带元信息，视频字节走Video()
		st.Video = &v
	}
	return st
}

// Items 返回当前条目列表的副本
func (p *Pipeline) Items() []models.Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Item, len(p.items))
	copy(out, p.items)
	return out
}

// Narration 返回当前口播脚本
func (p *Pipeline) Narration() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.narration
}

// SetNarration 用户整体替换脚本，只有重新抓取才会重新生成
func (p *Pipeline) SetNarration(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.narration = text
}

// Video 返回最近一次成功的视频，没有时为nil
func (p *Pipeline) Video() *models.VideoResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.video
}

// Close 释放视频句柄并关闭编码器
func (p *Pipeline) Close() error {
	p.mu.Lock()
	p.video = nil
	p.mu.Unlock()
	if p.encoder != nil {
		return p.encoder.Close()
	}
	return nil
}

// VideoFilename 产物的固定命名约定
func VideoFilename(t time.Time) string {
	return fmt.Sprintf("reddit-news-%s.mp4", t.Format("2006-01-02"))
}

// newRunID 生成一次运行的短关联ID，只用于日志
func newRunID() string {
	return uuid.New().String()[:8]
}
