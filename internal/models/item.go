package models

import "time"

// Post 表示Reddit列表接口返回的一条原始帖子记录
type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	SelfText     string    `json:"selfText"`
	SelfTextHTML string    `json:"selfTextHtml"`
	URL          string    `json:"url"`
	Permalink    string    `json:"permalink"`
	Author       string    `json:"author"`
	CreatedAt    time.Time `json:"createdAt"`
	NumComments  int       `json:"numComments"`
	UpvoteRatio  float64   `json:"upvoteRatio"`
	Stickied     bool      `json:"stickied"`
	Over18       bool      `json:"over18"`
}

// Item 表示归一化后的内容条目，对应视频中的一张幻灯片
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	SourceURL string    `json:"sourceUrl"`
	Author    string    `json:"author"`
	PostedAt  time.Time `json:"postedAt"`
	Stats     ItemStats `json:"stats"`
}

// ItemStats 表示条目的互动统计
type ItemStats struct {
	CommentCount int     `json:"commentCount"`
	UpvoteRatio  float64 `json:"upvoteRatio"`
}

// RenderPlan 表示一次生成的时长计划
type RenderPlan struct {
	ItemCount       int `json:"itemCount"`
	PerSlideSeconds int `json:"perSlideSeconds"`
	TotalSeconds    int `json:"totalSeconds"`
}
