package components

import (
	"github.com/gonewx/skelpose/pkg/geom"
	"github.com/gonewx/skelpose/pkg/skeleton"
)

// TransformComponent 实体在世界中的放置（位置、旋转、缩放）
// 骨骼世界变换 = Transform.Then(骨骼局部姿态)
type TransformComponent struct {
	Transform geom.Transform
}

// PoseComponent 当前帧的骨骼姿态（骨骼空间，不含实体变换）
// 由 AnimationSystem 每帧写入
type PoseComponent struct {
	Local skeleton.Pose
}
