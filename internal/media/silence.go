package media

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// SampleRate 静音轨采样率(Hz)
	SampleRate = 44100
	// BitDepth 每个采样的位数
	BitDepth = 16
	// NumChannels 单声道
	NumChannels = 1
)

// Silence 生成seconds秒的16-bit单声道静音WAV
// 字节契约: 总长44+seconds*44100*2，RIFF长度字段36+data长度，
// data长度字段seconds*44100*2，全部小端
// 头部长度字段与零填充长度不一致会被下游编码器拒收，这里必须严格成立
func Silence(seconds int) ([]byte, error) {
	if seconds < 1 {
		return nil, fmt.Errorf("静音时长必须不小于1秒: %d", seconds)
	}

	ws := &memWriteSeeker{}
	enc := wav.NewEncoder(ws, SampleRate, BitDepth, NumChannels, 1)

	// 按秒分块写入，避免一次性分配整条音轨的采样缓冲
	chunk := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: NumChannels, SampleRate: SampleRate},
		Data:           make([]int, SampleRate),
		SourceBitDepth: BitDepth,
	}
	for i := 0; i < seconds; i++ {
		if err := enc.Write(chunk); err != nil {
			return nil, fmt.Errorf("写入静音采样失败: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("关闭WAV编码器失败: %w", err)
	}
	return ws.buf, nil
}

// memWriteSeeker 基于内存的io.WriteSeeker
// WAV编码器在Close时需要回seek补写长度字段，bytes.Buffer满足不了
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		if end <= cap(m.buf) {
			m.buf = m.buf[:end]
		} else {
			grown := make([]byte, end, end+end/2)
			copy(grown, m.buf)
			m.buf = grown
		}
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = m.pos + int(offset)
	case io.SeekEnd:
		next = len(m.buf) + int(offset)
	default:
		return 0, fmt.Errorf("不支持的whence: %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("seek位置为负: %d", next)
	}
	m.pos = next
	return int64(next), nil
}
