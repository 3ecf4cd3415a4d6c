package pipeline

import "errors"

// 失败分类，编排器边界把各阶段的错误折叠成这组哨兵
// 调用方用errors.Is判别，不解析错误文本
var (
	// ErrFeedUnavailable 内容源不可达或返回非成功状态
	ErrFeedUnavailable = errors.New("内容源不可用")
	// ErrNoContent 过滤后没有任何符合条件的条目
	ErrNoContent = errors.New("没有符合条件的内容")
	// ErrRenderSurface 绘制表面不可用，本次生成整体失败
	ErrRenderSurface = errors.New("绘制表面不可用")
	// ErrEncoderFailure 编码器拒收输入或内部失败
	ErrEncoderFailure = errors.New("编码失败")
	// ErrPrecondition 没有条目时请求生成，同步拒绝且不发生状态迁移
	ErrPrecondition = errors.New("没有可用于生成的条目")
	// ErrBusy 已有抓取或生成在进行中
	ErrBusy = errors.New("已有任务在进行中")
)
