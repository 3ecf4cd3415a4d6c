package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"reddit-news/internal/logstream"
	"reddit-news/internal/media"
	"reddit-news/internal/models"
)

type fakeFeed struct {
	posts []models.Post
	err   error
	calls int
}

func (f *fakeFeed) FetchTop(ctx context.Context, limit int, window string) ([]models.Post, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

type fakeRenderer struct {
	err     error
	indexes []int
}

func (r *fakeRenderer) Render(item models.Item, index, total int) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.indexes = append(r.indexes, index)
	return []byte(fmt.Sprintf("png-%d", index)), nil
}

type fakeEncoder struct {
	err    error
	jobs   []models.EncodeJob
	closed bool
}

func (e *fakeEncoder) Encode(ctx context.Context, job models.EncodeJob) ([]byte, error) {
	e.jobs = append(e.jobs, job)
	if e.err != nil {
		return nil, e.err
	}
	return []byte("mp4-bytes"), nil
}

func (e *fakeEncoder) Close() error {
	e.closed = true
	return nil
}

// blockingEncoder 卡在Encode里直到release关闭，用于验证在途互斥
type blockingEncoder struct {
	started chan struct{}
	release chan struct{}
}

func (e *blockingEncoder) Encode(ctx context.Context, job models.EncodeJob) ([]byte, error) {
	close(e.started)
	<-e.release
	return []byte("mp4-bytes"), nil
}

func (e *blockingEncoder) Close() error { return nil }

func makePosts(n int) []models.Post {
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{
			ID:        fmt.Sprintf("p%d", i),
			Title:     fmt.Sprintf("Headline number %d", i),
			SelfText:  fmt.Sprintf("Body text for story %d.", i),
			Permalink: fmt.Sprintf("/r/worldnews/comments/p%d/", i),
			Author:    "tester",
			CreatedAt: time.Date(2026, time.August, 24, 10, 0, 0, 0, time.UTC),
		}
	}
	return posts
}

func newTestPipeline(f Feed, r SlideRenderer, e Encoder) *Pipeline {
	return New(Options{
		Feed:     f,
		Renderer: r,
		Encoder:  e,
		Logs:     logstream.New(50),
	})
}

func TestFetchUpdatesSuccess(t *testing.T) {
	p := newTestPipeline(&fakeFeed{posts: makePosts(6)}, &fakeRenderer{}, &fakeEncoder{})
	assert.Equal(t, StateIdle, p.Status().State)

	items, narration, err := p.FetchUpdates(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 6, len(items))
	if !strings.Contains(narration, "Story 1: Headline number 0") {
		t.Fatalf("脚本缺少第一条: %q", narration)
	}

	st := p.Status()
	assert.Equal(t, StateReady, st.State)
	assert.Equal(t, 6, st.ItemCount)
	assert.Equal(t, 40, st.Plan.PerSlideSeconds)
	assert.Equal(t, 240, st.Plan.TotalSeconds)
}

func TestFetchUpdatesFeedError(t *testing.T) {
	p := newTestPipeline(&fakeFeed{err: errors.New("connection refused")}, &fakeRenderer{}, &fakeEncoder{})

	_, _, err := p.FetchUpdates(context.Background())
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("期望内容源错误, 实际 %v", err)
	}

	st := p.Status()
	assert.Equal(t, StateError, st.State)
	if st.Error == "" {
		t.Fatal("错误状态必须带出错原因")
	}
}

func TestFetchUpdatesNoContent(t *testing.T) {
	posts := makePosts(3)
	for i := range posts {
		posts[i].Stickied = true
	}
	p := newTestPipeline(&fakeFeed{posts: posts}, &fakeRenderer{}, &fakeEncoder{})

	_, _, err := p.FetchUpdates(context.Background())
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("期望无内容错误, 实际 %v", err)
	}
	assert.Equal(t, StateError, p.Status().State)
}

func TestFetchFailureKeepsPreviousItems(t *testing.T) {
	f := &fakeFeed{posts: makePosts(4)}
	p := newTestPipeline(f, &fakeRenderer{}, &fakeEncoder{})

	_, narration, err := p.FetchUpdates(context.Background())
	assert.Equal(t, nil, err)

	f.err = errors.New("gateway timeout")
	_, _, err = p.FetchUpdates(context.Background())
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("期望内容源错误, 实际 %v", err)
	}

	// 失败不回滚上一次的成果
	assert.Equal(t, 4, len(p.Items()))
	assert.Equal(t, narration, p.Narration())
	assert.Equal(t, StateError, p.Status().State)
}

func TestGenerateVideoEndToEnd(t *testing.T) {
	enc := &fakeEncoder{}
	rend := &fakeRenderer{}
	p := newTestPipeline(&fakeFeed{posts: makePosts(6)}, rend, enc)

	_, _, err := p.FetchUpdates(context.Background())
	assert.Equal(t, nil, err)

	result, err := p.GenerateVideo(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 240, result.DurationSeconds)
	assert.Equal(t, "mp4-bytes", string(result.Data))
	if !strings.HasPrefix(result.Filename, "reddit-news-") || !strings.HasSuffix(result.Filename, ".mp4") {
		t.Fatalf("文件名不符合约定: %q", result.Filename)
	}
	assert.Equal(t, StateDone, p.Status().State)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, rend.indexes)

	// 编码任务携带全部资产: 按序命名的幻灯片、清单、静音轨
	assert.Equal(t, 1, len(enc.jobs))
	job := enc.jobs[0]
	assert.Equal(t, 6, len(job.Slides))
	assert.Equal(t, "slide-000.png", job.Slides[0].Name)
	assert.Equal(t, "slide-005.png", job.Slides[5].Name)
	assert.Equal(t, media.SilenceAssetName, job.Silence.Name)
	assert.Equal(t, media.ManifestAssetName, job.Manifest.Name)

	manifest := string(job.Manifest.Data)
	if !strings.Contains(manifest, "file 'slide-000.png'\nduration 40\n") {
		t.Fatalf("清单缺少首张条目:\n%s", manifest)
	}
	if !strings.HasSuffix(manifest, "file 'slide-005.png'\n") {
		t.Fatalf("清单末尾必须重复最后一张:\n%s", manifest)
	}

	// 240秒 x 44100Hz x 16bit单声道 + WAV头
	assert.Equal(t, 44+240*44100*2, len(job.Silence.Data))

	// 状态快照只带元信息，不携带视频字节
	st := p.Status()
	assert.Equal(t, 240, st.Video.DurationSeconds)
	if st.Video.Data != nil {
		t.Fatal("状态快照不应包含视频数据")
	}
	if p.Video() == nil || len(p.Video().Data) == 0 {
		t.Fatal("视频句柄应保留完整数据")
	}
}

func TestGenerateVideoWithoutItems(t *testing.T) {
	enc := &fakeEncoder{}
	p := newTestPipeline(&fakeFeed{}, &fakeRenderer{}, enc)

	err := p.CanGenerate()
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("期望前置条件错误, 实际 %v", err)
	}

	_, err = p.GenerateVideo(context.Background())
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("期望前置条件错误, 实际 %v", err)
	}
	// 被拒绝的请求不触碰任何资源，状态原地不动
	assert.Equal(t, StateIdle, p.Status().State)
	assert.Equal(t, 0, len(enc.jobs))
}

func TestGenerateVideoBusy(t *testing.T) {
	enc := &blockingEncoder{started: make(chan struct{}), release: make(chan struct{})}
	p := newTestPipeline(&fakeFeed{posts: makePosts(3)}, &fakeRenderer{}, enc)

	_, _, err := p.FetchUpdates(context.Background())
	assert.Equal(t, nil, err)

	done := make(chan error, 1)
	go func() {
		_, err := p.GenerateVideo(context.Background())
		done <- err
	}()
	<-enc.started

	assert.Equal(t, StateRendering, p.Status().State)
	if err := p.CanGenerate(); !errors.Is(err, ErrBusy) {
		t.Fatalf("期望忙碌错误, 实际 %v", err)
	}
	if _, _, err := p.FetchUpdates(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("渲染中抓取应被拒绝, 实际 %v", err)
	}
	if _, err := p.GenerateVideo(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("渲染中再次生成应被拒绝, 实际 %v", err)
	}

	close(enc.release)
	assert.Equal(t, nil, <-done)
	assert.Equal(t, StateDone, p.Status().State)
}

func TestGenerateVideoRenderFailure(t *testing.T) {
	enc := &fakeEncoder{}
	p := newTestPipeline(&fakeFeed{posts: makePosts(2)}, &fakeRenderer{err: errors.New("font missing")}, enc)

	_, _, err := p.FetchUpdates(context.Background())
	assert.Equal(t, nil, err)

	_, err = p.GenerateVideo(context.Background())
	if !errors.Is(err, ErrRenderSurface) {
		t.Fatalf("期望渲染错误, 实际 %v", err)
	}
	assert.Equal(t, StateError, p.Status().State)
	// 渲染都没过，编码器不应被调用
	assert.Equal(t, 0, len(enc.jobs))
}

func TestGenerateVideoEncoderFailure(t *testing.T) {
	p := newTestPipeline(&fakeFeed{posts: makePosts(2)}, &fakeRenderer{}, &fakeEncoder{err: errors.New("exit status 1")})

	_, _, err := p.FetchUpdates(context.Background())
	assert.Equal(t, nil, err)

	_, err = p.GenerateVideo(context.Background())
	if !errors.Is(err, ErrEncoderFailure) {
		t.Fatalf("期望编码错误, 实际 %v", err)
	}
	st := p.Status()
	assert.Equal(t, StateError, st.State)
	// 旧视频在进入渲染阶段时已释放，失败后不留半成品
	if p.Video() != nil {
		t.Fatal("失败的运行不应暴露视频")
	}
}

func TestGenerateReleasesPreviousVideo(t *testing.T) {
	enc := &fakeEncoder{}
	p := newTestPipeline(&fakeFeed{posts: makePosts(2)}, &fakeRenderer{}, enc)

	_, _, err := p.FetchUpdates(context.Background())
	assert.Equal(t, nil, err)
	_, err = p.GenerateVideo(context.Background())
	assert.Equal(t, nil, err)
	first := p.Video()
	if first == nil {
		t.Fatal("第一次生成应产出视频")
	}

	// 第二次运行失败: 旧视频已在渲染开始时释放
	enc.err = errors.New("exit status 1")
	_, err = p.GenerateVideo(context.Background())
	if !errors.Is(err, ErrEncoderFailure) {
		t.Fatalf("期望编码错误, 实际 %v", err)
	}
	if p.Video() != nil {
		t.Fatal("失败后不应还持有旧视频")
	}
}

func TestSetNarration(t *testing.T) {
	p := newTestPipeline(&fakeFeed{posts: makePosts(2)}, &fakeRenderer{}, &fakeEncoder{})

	_, _, err := p.FetchUpdates(context.Background())
	assert.Equal(t, nil, err)

	p.SetNarration("edited script")
	assert.Equal(t, "edited script", p.Narration())

	// 重新抓取会重建脚本，覆盖手工编辑
	_, _, err = p.FetchUpdates(context.Background())
	assert.Equal(t, nil, err)
	if p.Narration() == "edited script" {
		t.Fatal("重新抓取后脚本应被重建")
	}
}

func TestCloseReleasesResources(t *testing.T) {
	enc := &fakeEncoder{}
	p := newTestPipeline(&fakeFeed{posts: makePosts(2)}, &fakeRenderer{}, enc)

	_, _, err := p.FetchUpdates(context.Background())
	assert.Equal(t, nil, err)
	_, err = p.GenerateVideo(context.Background())
	assert.Equal(t, nil, err)

	assert.Equal(t, nil, p.Close())
	assert.Equal(t, true, enc.closed)
	if p.Video() != nil {
		t.Fatal("关闭后不应再持有视频")
	}
}

func TestVideoFilename(t *testing.T) {
	ts := time.Date(2026, time.August, 25, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "reddit-news-2026-08-25.mp4", VideoFilename(ts))
}
