package logstream

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity 环形缓冲默认保留的行数
const DefaultCapacity = 200

// Line 表示日志环形缓冲中的一行
type Line struct {
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Stream 固定容量的日志环形缓冲，支持订阅推送
type Stream struct {
	mu       sync.Mutex
	capacity int
	buffer   []Line
	nextSeq  uint64
	subs     map[chan Line]struct{}
}

// New 创建日志流
func New(capacity int) *Stream {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stream{
		capacity: capacity,
		subs:     make(map[chan Line]struct{}),
	}
}

// Publish 追加一行日志并推送给所有订阅者
// 订阅者通道已满时丢弃本行，绝不阻塞发布方
func (s *Stream) Publish(text string) {
	text = strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(text) == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	line := Line{Seq: s.nextSeq, Time: time.Now().UTC(), Text: text}
	if len(s.buffer) == s.capacity {
		copy(s.buffer, s.buffer[1:])
		s.buffer = s.buffer[:s.capacity-1]
	}
	s.buffer = append(s.buffer, line)
	for ch := range s.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// Logf 同时写入标准日志和环形缓冲
func (s *Stream) Logf(format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	// calldepth=2 让Lshortfile指向调用方而不是这里
	_ = log.Output(2, text)
	s.Publish(text)
}

// Tail 返回最近的limit行，limit<=0时返回整个缓冲
func (s *Stream) Tail(limit int) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.buffer) {
		limit = len(s.buffer)
	}
	out := make([]Line, limit)
	copy(out, s.buffer[len(s.buffer)-limit:])
	return out
}

// Subscribe 注册一个订阅通道，返回通道和取消函数
// 取消函数可以安全地重复调用
func (s *Stream) Subscribe(buffer int) (<-chan Line, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Line, buffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// LineWriter 把字节流按行切分后写入日志流，用于捕获子进程的stderr
type LineWriter struct {
	mu     sync.Mutex
	stream *Stream
	tag    string
	rest   []byte
}

// NewLineWriter 创建行切分写入器，tag非空时作为每行前缀
func (s *Stream) NewLineWriter(tag string) *LineWriter {
	return &LineWriter{stream: s, tag: tag}
}

// Write 实现io.Writer，\n和\r都视为行结束（ffmpeg进度行以\r刷新）
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rest = append(w.rest, p...)
	for {
		i := bytes.IndexAny(w.rest, "\r\n")
		if i < 0 {
			break
		}
		w.publish(string(w.rest[:i]))
		w.rest = w.rest[i+1:]
	}
	// 异常的超长行直接冲刷，避免缓冲无限增长
	if len(w.rest) > 4096 {
		w.publish(string(w.rest))
		w.rest = w.rest[:0]
	}
	return len(p), nil
}

// Flush 把末尾不带换行的残余内容写入日志流
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.rest) > 0 {
		w.publish(string(w.rest))
		w.rest = w.rest[:0]
	}
}

func (w *LineWriter) publish(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if w.tag != "" {
		line = w.tag + ": " + line
	}
	w.stream.Publish(line)
}
