package models

import "time"

// Asset 表示一个按名字引用的内存字节资产（图片、音频或清单文本）
type Asset struct {
	Name string
	Data []byte
}

// EncodeJob 表示交给编码器的一次完整输入集合
type EncodeJob struct {
	RunID    string
	Slides   []Asset
	Silence  Asset
	Manifest Asset
}

// VideoResult 表示最终编码出的视频及其元信息
type VideoResult struct {
	Data            []byte    `json:"-"`
	DurationSeconds int       `json:"durationSeconds"`
	Filename        string    `json:"filename"`
	GeneratedAt     time.Time `json:"generatedAt"`
}
