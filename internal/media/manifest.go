package media

import (
	"fmt"
	"strings"
)

const (
	// SilenceAssetName 静音轨资产名
	SilenceAssetName = "silence.wav"
	// ManifestAssetName 清单资产名
	ManifestAssetName = "filelist.txt"
	// OutputAssetName 编码产物资产名
	OutputAssetName = "output.mp4"
)

// SlideAssetName 第index张(0起)幻灯片的资产名
// 零填充保证字典序与渲染顺序一致
func SlideAssetName(index int) string {
	return fmt.Sprintf("slide-%03d.png", index)
}

// BuildManifest 生成concat demuxer清单文本
// 每张幻灯片一对file/duration指令
// demuxer把每条duration应用到下一个file条目，所以末尾重复一条最后的file指令，
// 否则最后一张的时长会被丢弃，这个怪癖必须原样保留
func BuildManifest(slideNames []string, perSlideSeconds int) string {
	if len(slideNames) == 0 {
		return ""
	}
	var b strings.Builder
	for _, name := range slideNames {
		fmt.Fprintf(&b, "file '%s'\n", name)
		fmt.Fprintf(&b, "duration %d\n", perSlideSeconds)
	}
	fmt.Fprintf(&b, "file '%s'\n", slideNames[len(slideNames)-1])
	return b.String()
}
