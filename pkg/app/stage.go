package app

import (
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/gonewx/skelpose/pkg/assets"
	"github.com/gonewx/skelpose/pkg/components"
	"github.com/gonewx/skelpose/pkg/config"
	"github.com/gonewx/skelpose/pkg/ecs"
	"github.com/gonewx/skelpose/pkg/engine"
	"github.com/gonewx/skelpose/pkg/game"
	"github.com/gonewx/skelpose/pkg/geom"
	"github.com/gonewx/skelpose/pkg/systems"
)

// OpenSource 按配置打开描述文件来源
//
// 优先级：资源文件 > 内嵌文件系统 > 磁盘目录。
// 返回的 closer 总是非 nil。
func OpenSource(cfg config.AssetsConfig, embeddedFS fs.FS) (assets.Source, func() error, error) {
	noop := func() error { return nil }

	switch {
	case cfg.ResourceFile != "":
		rf, err := assets.OpenResourceFile(cfg.ResourceFile, true)
		if err != nil {
			return nil, noop, err
		}
		log.Printf("[App] Using resource file %s", cfg.ResourceFile)
		return rf, rf.Close, nil

	case cfg.Embedded:
		if embeddedFS == nil {
			return nil, noop, fmt.Errorf("embedded assets requested but no embedded file system is available")
		}
		log.Printf("[App] Using embedded assets %s", cfg.Dir)
		return assets.DirSource{FS: embeddedFS, Dir: cfg.Dir}, noop, nil

	default:
		if _, err := os.Stat(cfg.Dir); err != nil {
			return nil, noop, fmt.Errorf("failed to open assets dir: %w", err)
		}
		log.Printf("[App] Using assets dir %s", cfg.Dir)
		return assets.DirSource{FS: os.DirFS(cfg.Dir), Dir: "."}, noop, nil
	}
}

// Stage 查看器中的角色世界：实体、系统和角色名称
type Stage struct {
	EntityManager *ecs.EntityManager
	Animation     *systems.AnimationSystem
	Attachments   *systems.AttachmentSystem
	Hover         *systems.HoverSystem

	library *assets.Library
	speed   float64

	actors []ecs.EntityID
	names  map[ecs.EntityID]string
}

// NewStage 创建空场景，speed 为新角色的默认播放速度
func NewStage(library *assets.Library, speed float64) *Stage {
	em := ecs.NewEntityManager()
	return &Stage{
		EntityManager: em,
		Animation:     systems.NewAnimationSystem(em),
		Attachments:   systems.NewAttachmentSystem(em),
		Hover:         systems.NewHoverSystem(em),
		library:       library,
		speed:         speed,
		names:         make(map[ecs.EntityID]string),
	}
}

// Spawn 创建角色：播放集合 setName 中骨骼 skeletonID 的动画 animationID
// name 在场景中唯一，用于快照
func (s *Stage) Spawn(name, setName, skeletonID, animationID string, at geom.Transform) (ecs.EntityID, error) {
	for _, id := range s.actors {
		if s.names[id] == name {
			return 0, fmt.Errorf("actor %q already exists", name)
		}
	}

	eng, ok := s.library.Get(setName)
	if !ok {
		return 0, fmt.Errorf("unknown descriptor set %q", setName)
	}
	p, err := eng.CreatePlayer(skeletonID, animationID)
	if err != nil {
		return 0, fmt.Errorf("failed to spawn %q: %w", name, err)
	}
	p.SetSpeed(s.speed)

	id := s.EntityManager.CreateEntity()
	s.EntityManager.AddComponent(id, &components.AnimatorComponent{SetName: setName, Player: p})
	s.EntityManager.AddComponent(id, &components.TransformComponent{Transform: at})
	s.EntityManager.AddComponent(id, &components.HoverComponent{Region: eng.Region()})

	s.actors = append(s.actors, id)
	s.names[id] = name
	log.Printf("[Stage] Spawned %q (%s/%s, %s) as entity %d", name, setName, skeletonID, animationID, id)
	return id, nil
}

// Attach 把角色 child 挂到 parent 的骨骼上
func (s *Stage) Attach(child, parent ecs.EntityID, boneID string, offset geom.Transform) {
	s.EntityManager.AddComponent(child, &components.AttachmentComponent{
		Parent: parent,
		BoneID: boneID,
		Offset: offset,
	})
}

// Command 向角色发送动画命令，在下一次 Update 时执行
func (s *Stage) Command(id ecs.EntityID, cmd components.AnimationCommandComponent) {
	s.EntityManager.AddComponent(id, &cmd)
}

// Update 推进动画并更新挂载
func (s *Stage) Update(dt float64) {
	s.Animation.Update(dt)
	s.Attachments.Update()
}

// Actors 按创建顺序返回角色
func (s *Stage) Actors() []ecs.EntityID {
	out := make([]ecs.EntityID, len(s.actors))
	copy(out, s.actors)
	return out
}

// Name 返回角色名称
func (s *Stage) Name(id ecs.EntityID) string {
	return s.names[id]
}

// Find 按名称查找角色
func (s *Stage) Find(name string) (ecs.EntityID, bool) {
	for _, id := range s.actors {
		if s.names[id] == name {
			return id, true
		}
	}
	return 0, false
}

// Animator 返回角色的动画组件
func (s *Stage) Animator(id ecs.EntityID) (*components.AnimatorComponent, bool) {
	return ecs.GetComponent[*components.AnimatorComponent](s.EntityManager, id)
}

// Engine 返回角色所用描述集合的引擎
func (s *Stage) Engine(id ecs.EntityID) (*engine.Engine, bool) {
	anim, ok := s.Animator(id)
	if !ok {
		return nil, false
	}
	return s.library.Get(anim.SetName)
}

// Remove 删除单个角色
func (s *Stage) Remove(id ecs.EntityID) {
	for i, v := range s.actors {
		if v == id {
			s.actors = append(s.actors[:i], s.actors[i+1:]...)
			break
		}
	}
	delete(s.names, id)
	s.EntityManager.DestroyEntity(id)
	s.EntityManager.RemoveMarkedEntities()
}

// Clear 删除所有角色
func (s *Stage) Clear() {
	for _, id := range s.actors {
		s.EntityManager.DestroyEntity(id)
	}
	s.EntityManager.RemoveMarkedEntities()
	s.actors = s.actors[:0]
	clear(s.names)
}

// Snapshot 保存所有角色的播放状态
func (s *Stage) Snapshot() game.SceneSnapshot {
	var scene game.SceneSnapshot
	for _, id := range s.actors {
		anim, ok := s.Animator(id)
		if !ok || anim.Player == nil {
			continue
		}
		scene.Actors = append(scene.Actors, game.ActorSnapshot{
			Name:    s.names[id],
			SetName: anim.SetName,
			Player:  anim.Player.Snapshot(),
		})
	}
	return scene
}

// Restore 按名称恢复角色的播放状态
// 场景中不存在的角色被忽略，返回恢复的角色数和遇到的第一个错误
func (s *Stage) Restore(scene game.SceneSnapshot) (int, error) {
	restored := 0
	var firstErr error
	for _, actor := range scene.Actors {
		id, ok := s.Find(actor.Name)
		if !ok {
			log.Printf("[Stage] Snapshot actor %q not on stage, skipped", actor.Name)
			continue
		}
		anim, _ := s.Animator(id)
		if err := anim.Player.Restore(actor.Player); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("restore %q: %w", actor.Name, err)
			}
			continue
		}
		anim.QueuedAnimation = ""
		restored++
	}
	return restored, firstErr
}

// SaveActor 以角色名称为键保存单个角色的播放状态
func (s *Stage) SaveActor(store *game.SnapshotStore, id ecs.EntityID) error {
	anim, ok := s.Animator(id)
	if !ok || anim.Player == nil {
		return fmt.Errorf("entity %d has no player", id)
	}
	return store.Save(s.names[id], anim.Player.Snapshot())
}

// LoadActor 恢复 SaveActor 保存的播放状态，没有快照时 found 为 false
func (s *Stage) LoadActor(store *game.SnapshotStore, id ecs.EntityID) (found bool, err error) {
	anim, ok := s.Animator(id)
	if !ok || anim.Player == nil {
		return false, fmt.Errorf("entity %d has no player", id)
	}
	snap, found, err := store.Load(s.names[id])
	if err != nil || !found {
		return false, err
	}
	if err := anim.Player.Restore(snap); err != nil {
		return true, fmt.Errorf("restore %q: %w", s.names[id], err)
	}
	anim.QueuedAnimation = ""
	return true, nil
}
