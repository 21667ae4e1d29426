package components

import (
	"github.com/gonewx/skelpose/pkg/ecs"
	"github.com/gonewx/skelpose/pkg/geom"
)

// AttachmentComponent 把实体挂到另一个实体的骨骼上（如手持道具）
//
// AttachmentSystem 每帧把 Parent 的骨骼世界变换（再叠加 Offset）
// 写入本实体的 TransformComponent。
type AttachmentComponent struct {
	Parent ecs.EntityID
	BoneID string

	// Offset 相对骨骼的局部偏移，零值按单位变换处理
	Offset geom.Transform
}
