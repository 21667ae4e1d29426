package systems

import (
	"log"

	"github.com/gonewx/skelpose/pkg/components"
	"github.com/gonewx/skelpose/pkg/ecs"
	"github.com/gonewx/skelpose/pkg/geom"
)

// AttachmentSystem 把挂载实体放到父实体的骨骼上
//
// 必须在 AnimationSystem 之后运行，父实体的姿态才是本帧的。
// 挂载可以嵌套（道具挂在另一个挂载角色上），父实体总是先于子实体解析。
type AttachmentSystem struct {
	entityManager *ecs.EntityManager
}

// NewAttachmentSystem 创建挂载系统
func NewAttachmentSystem(em *ecs.EntityManager) *AttachmentSystem {
	return &AttachmentSystem{entityManager: em}
}

// Update 更新所有挂载实体的 TransformComponent
func (s *AttachmentSystem) Update() {
	entities := ecs.GetEntitiesWith1[*components.AttachmentComponent](s.entityManager)

	resolved := make(map[ecs.EntityID]geom.Transform, len(entities))
	visiting := make(map[ecs.EntityID]bool)

	var resolve func(id ecs.EntityID) geom.Transform
	resolve = func(id ecs.EntityID) geom.Transform {
		if t, ok := resolved[id]; ok {
			return t
		}
		att, ok := ecs.GetComponent[*components.AttachmentComponent](s.entityManager, id)
		if !ok || !s.entityManager.Exists(att.Parent) {
			t := EntityTransform(s.entityManager, id)
			resolved[id] = t
			return t
		}
		if visiting[id] {
			log.Printf("[AttachmentSystem] Attachment cycle through entity %d, detaching", id)
			t := EntityTransform(s.entityManager, id)
			resolved[id] = t
			return t
		}

		visiting[id] = true
		parent := resolve(att.Parent)
		delete(visiting, id)

		if t, ok := resolved[id]; ok {
			// 在环中已被解析
			return t
		}

		world := parent
		if pc, ok := ecs.GetComponent[*components.PoseComponent](s.entityManager, att.Parent); ok {
			if bone, ok := pc.Local[att.BoneID]; ok {
				world = parent.Then(bone)
			}
		}
		world = world.Then(offsetOrIdentity(att.Offset))

		s.setTransform(id, world)
		resolved[id] = world
		return world
	}

	for _, id := range entities {
		resolve(id)
	}
}

func (s *AttachmentSystem) setTransform(id ecs.EntityID, t geom.Transform) {
	if tc, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
		tc.Transform = t
		return
	}
	s.entityManager.AddComponent(id, &components.TransformComponent{Transform: t})
}

// offsetOrIdentity 零值偏移视为单位变换
func offsetOrIdentity(t geom.Transform) geom.Transform {
	if t == (geom.Transform{}) {
		return geom.Identity()
	}
	return t
}
