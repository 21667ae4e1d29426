package systems

import (
	"errors"
	"log"

	"github.com/gonewx/skelpose/pkg/components"
	"github.com/gonewx/skelpose/pkg/ecs"
	"github.com/gonewx/skelpose/pkg/engine"
	"github.com/gonewx/skelpose/pkg/player"
)

var errNoAnimator = errors.New("entity has no animator")

// AnimationSystem 推进所有角色的播放器并写出骨骼姿态
//
// 每帧流程：
//  1. 处理 AnimationCommandComponent
//  2. Tick 每个 AnimatorComponent 的播放器
//  3. 非循环动画结束后播放排队的动画
//  4. 把姿态写入 PoseComponent（不存在时添加）
type AnimationSystem struct {
	entityManager *ecs.EntityManager

	// 已注册事件回调的播放器，避免重复注册
	bound map[ecs.EntityID]*player.Player
}

// NewAnimationSystem 创建动画系统
func NewAnimationSystem(em *ecs.EntityManager) *AnimationSystem {
	return &AnimationSystem{
		entityManager: em,
		bound:         make(map[ecs.EntityID]*player.Player),
	}
}

// Update 推进 dt 秒
func (s *AnimationSystem) Update(dt float64) {
	s.processAnimationCommands()

	entities := ecs.GetEntitiesWith1[*components.AnimatorComponent](s.entityManager)
	alive := make(map[ecs.EntityID]struct{}, len(entities))

	for _, id := range entities {
		anim, _ := ecs.GetComponent[*components.AnimatorComponent](s.entityManager, id)
		if anim.Player == nil {
			continue
		}
		alive[id] = struct{}{}
		s.bind(id, anim)

		anim.Player.Tick(dt)

		if anim.Player.State() == player.Finished && anim.QueuedAnimation != "" {
			next := anim.QueuedAnimation
			anim.QueuedAnimation = ""
			if err := anim.Player.Play(next); err != nil {
				log.Printf("[AnimationSystem] Failed to play queued animation %q (entity %d): %v", next, id, err)
			}
		}

		pose := anim.Player.Pose()
		if pc, ok := ecs.GetComponent[*components.PoseComponent](s.entityManager, id); ok {
			pc.Local = pose
		} else {
			s.entityManager.AddComponent(id, &components.PoseComponent{Local: pose})
		}
	}

	for id := range s.bound {
		if _, ok := alive[id]; !ok {
			delete(s.bound, id)
		}
	}
}

// bind 为新的播放器注册事件回调
func (s *AnimationSystem) bind(id ecs.EntityID, anim *components.AnimatorComponent) {
	if s.bound[id] == anim.Player {
		return
	}
	s.bound[id] = anim.Player
	anim.Player.OnEvent(func(e player.Event) {
		switch e.Type {
		case player.EventFinished:
			anim.FinishedCount++
			log.Printf("[AnimationSystem] Animation %q finished (entity %d)", e.AnimationID, id)
		case player.EventLooped:
			anim.LoopCount += e.Loops
		}
	})
}

// processAnimationCommands 处理所有待执行的动画命令
//
// 执行失败只记录日志，命令同样视为已处理（避免无限重试），处理后移除组件
func (s *AnimationSystem) processAnimationCommands() {
	entities := ecs.GetEntitiesWith1[*components.AnimationCommandComponent](s.entityManager)

	for _, id := range entities {
		cmd, ok := ecs.GetComponent[*components.AnimationCommandComponent](s.entityManager, id)
		if !ok || cmd.Processed {
			continue
		}
		if err := s.execute(id, cmd); err != nil {
			log.Printf("[AnimationSystem] Command failed (entity %d, animation %q): %v", id, cmd.AnimationID, err)
		}
		cmd.Processed = true
		ecs.RemoveComponent[*components.AnimationCommandComponent](s.entityManager, id)
	}
}

func (s *AnimationSystem) execute(id ecs.EntityID, cmd *components.AnimationCommandComponent) error {
	anim, ok := ecs.GetComponent[*components.AnimatorComponent](s.entityManager, id)
	if !ok || anim.Player == nil {
		return errNoAnimator
	}

	if cmd.Speed != nil {
		anim.Player.SetSpeed(*cmd.Speed)
	}
	if cmd.Stop {
		anim.Player.Stop()
		anim.QueuedAnimation = ""
		return nil
	}
	if cmd.AnimationID == "" {
		return nil
	}

	p := anim.Player
	if cmd.Queue && !p.Looped() && p.State() == player.Playing {
		anim.QueuedAnimation = cmd.AnimationID
		return nil
	}
	anim.QueuedAnimation = ""
	return playAnimation(p, cmd.AnimationID, cmd.PreserveProgress)
}

// PlayAnimation 立即切换实体的动画
func (s *AnimationSystem) PlayAnimation(id ecs.EntityID, animationID string) error {
	anim, ok := ecs.GetComponent[*components.AnimatorComponent](s.entityManager, id)
	if !ok || anim.Player == nil {
		return errNoAnimator
	}
	anim.QueuedAnimation = ""
	return playAnimation(anim.Player, animationID, false)
}

// playAnimation preserveProgress 为 true 时新动画从相同的相对进度开始
func playAnimation(p *player.Player, animationID string, preserveProgress bool) error {
	progress := 0.0
	if preserveProgress && p.Length() > 0 {
		progress = p.Clock() / p.Length()
	}
	if err := p.Play(animationID); err != nil {
		return err
	}
	if progress > 0 {
		p.Seek(progress * p.Length())
	}
	return nil
}

// Rebind 描述集合 setName 重新加载后，为使用它的角色重建播放器
//
// 新播放器恢复旧播放器的快照；旧动画已不存在时从该骨骼的第一个动画开始。
// 角色的悬停区域同时更新为新的 hover_area。
// eng 为 nil（集合被删除）时保留旧播放器。返回重建的角色数。
func (s *AnimationSystem) Rebind(setName string, eng *engine.Engine) int {
	if eng == nil {
		log.Printf("[AnimationSystem] Set %q removed, keeping existing players", setName)
		return 0
	}

	count := 0
	for _, id := range ecs.GetEntitiesWith1[*components.AnimatorComponent](s.entityManager) {
		anim, _ := ecs.GetComponent[*components.AnimatorComponent](s.entityManager, id)
		if anim.SetName != setName || anim.Player == nil {
			continue
		}

		snap := anim.Player.Snapshot()
		next, err := eng.CreatePlayer(snap.SkeletonID, snap.AnimationID)
		if err != nil {
			ids := eng.Set().AnimationIDs(snap.SkeletonID)
			if len(ids) == 0 {
				log.Printf("[AnimationSystem] Failed to rebind entity %d: %v", id, err)
				continue
			}
			if next, err = eng.CreatePlayer(snap.SkeletonID, ids[0]); err != nil {
				log.Printf("[AnimationSystem] Failed to rebind entity %d: %v", id, err)
				continue
			}
			snap.AnimationID = ids[0]
			snap.Clock = 0
		}
		if err := next.Restore(snap); err != nil {
			log.Printf("[AnimationSystem] Failed to restore state of entity %d: %v", id, err)
		}

		anim.Player = next
		// 悬停区域同样来自描述文件
		if hover, ok := ecs.GetComponent[*components.HoverComponent](s.entityManager, id); ok {
			hover.Region = eng.Region()
		}
		count++
	}

	if count > 0 {
		log.Printf("[AnimationSystem] Rebound %d actor(s) to reloaded set %q", count, setName)
	}
	return count
}
