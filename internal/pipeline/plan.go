package pipeline

import "reddit-news/internal/models"

const (
	// MinTotalSeconds 目标总时长下限(秒)
	MinTotalSeconds = 240
	// MinSlideSeconds 单张幻灯片时长下限(秒)
	MinSlideSeconds = 40
)

// ComputePlan 由条目数推导时长计划，纯函数，条目数变化时重新计算
// per = max(ceil(minTotal/count), minSlide)，total = per*count
func ComputePlan(itemCount, minTotalSeconds, minSlideSeconds int) models.RenderPlan {
	if itemCount < 1 {
		return models.RenderPlan{}
	}
	per := (minTotalSeconds + itemCount - 1) / itemCount
	if per < minSlideSeconds {
		per = minSlideSeconds
	}
	return models.RenderPlan{
		ItemCount:       itemCount,
		PerSlideSeconds: per,
		TotalSeconds:    per * itemCount,
	}
}
