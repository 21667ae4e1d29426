package systems

import (
	"github.com/gonewx/skelpose/pkg/components"
	"github.com/gonewx/skelpose/pkg/ecs"
)

// HoverSystem 指针悬停检测
//
// 多个角色重叠时，实体 id 最大的（最后创建、最后绘制）视为最上层，
// 只有它的 Hovered 为 true。
type HoverSystem struct {
	entityManager *ecs.EntityManager
}

// NewHoverSystem 创建悬停系统
func NewHoverSystem(em *ecs.EntityManager) *HoverSystem {
	return &HoverSystem{entityManager: em}
}

// Update 用世界坐标 (wx, wy) 更新 Hovered，返回最上层命中的实体
func (s *HoverSystem) Update(wx, wy float64) (ecs.EntityID, bool) {
	entities := ecs.GetEntitiesWith2[*components.HoverComponent, *components.AnimatorComponent](s.entityManager)

	var top ecs.EntityID
	found := false
	for _, id := range entities {
		hover, _ := ecs.GetComponent[*components.HoverComponent](s.entityManager, id)
		hover.Hovered = false
		if s.hit(id, hover, wx, wy) {
			top, found = id, true
		}
	}
	if found {
		hover, _ := ecs.GetComponent[*components.HoverComponent](s.entityManager, top)
		hover.Hovered = true
	}
	return top, found
}

// HitTest 测试世界坐标是否命中实体的悬停区域
func (s *HoverSystem) HitTest(id ecs.EntityID, wx, wy float64) bool {
	hover, ok := ecs.GetComponent[*components.HoverComponent](s.entityManager, id)
	if !ok {
		return false
	}
	return s.hit(id, hover, wx, wy)
}

func (s *HoverSystem) hit(id ecs.EntityID, hover *components.HoverComponent, wx, wy float64) bool {
	anim, ok := ecs.GetComponent[*components.AnimatorComponent](s.entityManager, id)
	if !ok || anim.Player == nil {
		return false
	}
	skel := anim.Player.Skeleton()

	boneID := hover.BoneID
	if boneID == "" {
		if len(skel.Bones) == 0 {
			return false
		}
		boneID = skel.Bones[0].ID
	}
	bone, ok := skel.Bone(boneID)
	if !ok {
		return false
	}
	world, ok := BoneWorld(s.entityManager, id, boneID)
	if !ok {
		return false
	}
	return hover.Region.ContainsWorld(world, bone.Source, bone.SpriteScale, wx, wy)
}
