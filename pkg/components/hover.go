package components

import "github.com/gonewx/skelpose/pkg/region"

// HoverComponent 悬停检测组件
type HoverComponent struct {
	// BoneID 承载悬停区域的骨骼，空表示第一个根骨骼
	BoneID string

	// Region 悬停区域（通常来自描述文件的 interaction.hover_area）
	Region region.Region

	// Hovered 当前是否被指针悬停（由 HoverSystem 写入）
	Hovered bool
}
