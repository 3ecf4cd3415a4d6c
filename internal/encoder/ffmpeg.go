package encoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"reddit-news/internal/logstream"
	"reddit-news/internal/media"
	"reddit-news/internal/models"
)

// FFmpeg 基于本机ffmpeg的编码器
// 进程内创建一次长期复用，用Close显式释放
type FFmpeg struct {
	logs    *logstream.Stream
	timeout time.Duration

	lookupOnce sync.Once
	lookupErr  error
	binPath    string

	mu     sync.Mutex
	closed bool
}

// NewFFmpeg 创建编码器，timeout<=0时不限制单次编码时长
func NewFFmpeg(logs *logstream.Stream, timeout time.Duration) *FFmpeg {
	if logs == nil {
		logs = logstream.New(0)
	}
	return &FFmpeg{logs: logs, timeout: timeout}
}

// ensureBinary 首次调用时查找ffmpeg可执行文件，结果进程内记忆
func (f *FFmpeg) ensureBinary() error {
	f.lookupOnce.Do(func() {
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			f.lookupErr = fmt.Errorf("找不到ffmpeg可执行文件: %w", err)
			return
		}
		f.binPath = path
		log.Printf("找到ffmpeg: %s", path)
	})
	return f.lookupErr
}

// Encode 把一组命名资产编码成一个MP4
// 幻灯片经concat demuxer按清单时长拼接，混入静音轨，
// 以两条流中较短者为准，30fps，libx264+yuv420p，aac 192k
func (f *FFmpeg) Encode(ctx context.Context, job models.EncodeJob) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, fmt.Errorf("编码器已关闭")
	}
	f.mu.Unlock()
	if err := f.ensureBinary(); err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "reddit-news-encode")
	if err != nil {
		return nil, fmt.Errorf("创建临时目录失败: %w", err)
	}
	defer os.RemoveAll(tempDir)

	// 资产按名字落盘，清单里的相对名字在tempDir下解析
	for _, slide := range job.Slides {
		if err := os.WriteFile(filepath.Join(tempDir, slide.Name), slide.Data, 0644); err != nil {
			return nil, fmt.Errorf("写入幻灯片失败: %w", err)
		}
	}
	silencePath := filepath.Join(tempDir, job.Silence.Name)
	if err := os.WriteFile(silencePath, job.Silence.Data, 0644); err != nil {
		return nil, fmt.Errorf("写入静音轨失败: %w", err)
	}
	manifestPath := filepath.Join(tempDir, job.Manifest.Name)
	if err := os.WriteFile(manifestPath, job.Manifest.Data, 0644); err != nil {
		return nil, fmt.Errorf("写入清单失败: %w", err)
	}
	outPath := filepath.Join(tempDir, media.OutputAssetName)

	f.logs.Logf("开始编码 run=%s 幻灯片=%d张", job.RunID, len(job.Slides))

	slides := ffmpeg.Input(manifestPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"})
	silence := ffmpeg.Input(silencePath)

	// stderr逐行进入日志流，渲染期间可以实时观察进度
	logw := f.logs.NewLineWriter("ffmpeg")
	defer logw.Flush()

	cmd := ffmpeg.Output([]*ffmpeg.Stream{slides, silence}, outPath, ffmpeg.KwArgs{
		"r":        30,
		"c:v":      "libx264",
		"pix_fmt":  "yuv420p",
		"c:a":      "aac",
		"b:a":      "192k",
		"shortest": "",
	}).OverWriteOutput().WithOutput(io.Discard, logw)
	if f.timeout > 0 {
		cmd = cmd.WithTimeout(f.timeout)
	}
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg编码失败: %w", err)
	}

	if probe, err := ffmpeg.Probe(outPath); err == nil {
		if d := probeDuration(probe); d > 0 {
			f.logs.Logf("编码完成 run=%s 探测时长=%.1f秒", job.RunID, d)
		}
	} else {
		log.Printf("探测编码产物失败: %v", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("读取编码产物失败: %w", err)
	}
	return out, nil
}

// Close 显式释放编码器，之后的Encode调用会被拒绝
func (f *FFmpeg) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// probeDuration 从ffprobe的JSON输出提取时长(秒)，解析失败返回0
func probeDuration(probeJSON string) float64 {
	var p probeResult
	if err := json.Unmarshal([]byte(probeJSON), &p); err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(p.Format.Duration, 64)
	if err != nil {
		return 0
	}
	return d
}
