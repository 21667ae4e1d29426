package systems

import (
	"github.com/gonewx/skelpose/pkg/components"
	"github.com/gonewx/skelpose/pkg/ecs"
	"github.com/gonewx/skelpose/pkg/geom"
	"github.com/gonewx/skelpose/pkg/skeleton"
)

// EntityTransform 返回实体的放置变换，没有 TransformComponent 时为单位变换
func EntityTransform(em *ecs.EntityManager, id ecs.EntityID) geom.Transform {
	if tc, ok := ecs.GetComponent[*components.TransformComponent](em, id); ok {
		return tc.Transform
	}
	return geom.Identity()
}

// BoneWorld 返回实体某根骨骼的世界变换
// 实体没有姿态或骨骼不存在时 ok 为 false
func BoneWorld(em *ecs.EntityManager, id ecs.EntityID, boneID string) (geom.Transform, bool) {
	pc, ok := ecs.GetComponent[*components.PoseComponent](em, id)
	if !ok {
		return geom.Transform{}, false
	}
	bone, ok := pc.Local[boneID]
	if !ok {
		return geom.Transform{}, false
	}
	return EntityTransform(em, id).Then(bone), true
}

// WorldPose 返回实体所有骨骼的世界变换
func WorldPose(em *ecs.EntityManager, id ecs.EntityID) skeleton.Pose {
	pc, ok := ecs.GetComponent[*components.PoseComponent](em, id)
	if !ok {
		return nil
	}
	root := EntityTransform(em, id)
	world := make(skeleton.Pose, len(pc.Local))
	for boneID, local := range pc.Local {
		world[boneID] = root.Then(local)
	}
	return world
}
