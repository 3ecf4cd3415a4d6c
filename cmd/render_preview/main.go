package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"reddit-news/internal/media"
	"reddit-news/internal/models"
	"reddit-news/internal/pipeline"
	"reddit-news/internal/render"
)

// 手动预览工具: 把几条样例内容渲染成PNG，并生成配套的清单和静音轨
// 不访问网络，产物写到当前目录
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("开始渲染预览素材...")

	items := []models.Item{
		{
			ID:        "preview1",
			Title:     "Global climate summit reaches landmark agreement on emissions",
			Summary:   "Delegates from more than 40 countries signed a binding accord to cut industrial emissions by 30 percent before 2035. The deal includes a monitoring framework and annual public reporting.",
			SourceURL: "https://example.com/climate-summit",
			Author:    "newswatcher",
			PostedAt:  time.Date(2026, time.August, 24, 9, 30, 0, 0, time.UTC),
			Stats:     models.ItemStats{CommentCount: 321, UpvoteRatio: 0.93},
		},
		{
			ID:        "preview2",
			Title:     "Markets rally after central bank holds interest rates steady",
			Summary:   "Stock indexes climbed for a third straight session. Analysts point to easing inflation data and stronger than expected manufacturing output. Read the full story and join the discussion in the comments.",
			SourceURL: "https://www.reddit.com/r/worldnews/comments/preview2/",
			Author:    "marketdesk",
			PostedAt:  time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC),
			Stats:     models.ItemStats{CommentCount: 58, UpvoteRatio: 0.88},
		},
		{
			ID:        "preview3",
			Title:     "Researchers map deep sea trench with autonomous submarine fleet",
			Summary:   "A five month survey produced the most detailed charts yet of the trench floor, revealing dozens of previously unknown species and two active thermal vents.",
			SourceURL: "https://example.org/deep-sea-survey",
			Author:    "oceanlab",
			PostedAt:  time.Date(2026, time.August, 23, 22, 15, 0, 0, time.UTC),
			Stats:     models.ItemStats{CommentCount: 204, UpvoteRatio: 0.97},
		},
	}

	renderer := render.NewRenderer(nil)

	names := make([]string, 0, len(items))
	for i, item := range items {
		start := time.Now()
		data, err := renderer.Render(item, i, len(items))
		if err != nil {
			log.Printf("❌ 渲染第%d张失败: %v", i+1, err)
			continue
		}

		filename := fmt.Sprintf("preview-%s", media.SlideAssetName(i))
		if err := os.WriteFile(filename, data, 0644); err != nil {
			log.Printf("❌ 保存 %s 失败: %v", filename, err)
			continue
		}
		names = append(names, filename)
		log.Printf("✅ %s 已生成, 大小: %d 字节, 耗时: %v", filename, len(data), time.Since(start))
	}

	if len(names) == 0 {
		log.Fatal("没有成功渲染任何幻灯片")
	}

	// 与正式生成相同的时长计划
	plan := pipeline.ComputePlan(len(names), pipeline.MinTotalSeconds, pipeline.MinSlideSeconds)
	log.Printf("时长计划: %d条 x %d秒 = %d秒", plan.ItemCount, plan.PerSlideSeconds, plan.TotalSeconds)

	manifest := media.BuildManifest(names, plan.PerSlideSeconds)
	if err := os.WriteFile("preview-filelist.txt", []byte(manifest), 0644); err != nil {
		log.Fatalf("保存清单失败: %v", err)
	}
	log.Println("✅ preview-filelist.txt 已生成")

	start := time.Now()
	silence, err := media.Silence(plan.TotalSeconds)
	if err != nil {
		log.Fatalf("生成静音轨失败: %v", err)
	}
	if err := os.WriteFile("preview-silence.wav", silence, 0644); err != nil {
		log.Fatalf("保存静音轨失败: %v", err)
	}
	log.Printf("✅ preview-silence.wav 已生成, 大小: %d 字节, 耗时: %v", len(silence), time.Since(start))

	wd, _ := os.Getwd()
	log.Printf("预览素材已生成，可用ffmpeg手动合成检查效果。当前工作目录: %s", wd)
}
