package player

import "fmt"

// Snapshot 可序列化的播放状态
type Snapshot struct {
	SkeletonID  string  `yaml:"skeleton_id"`
	AnimationID string  `yaml:"animation_id"`
	Clock       float64 `yaml:"clock"`
	Speed       float64 `yaml:"speed"`
	State       string  `yaml:"state"`
}

// Snapshot 保存当前播放状态
func (p *Player) Snapshot() Snapshot {
	return Snapshot{
		SkeletonID:  p.skel.ID,
		AnimationID: p.clip.ID,
		Clock:       p.clock,
		Speed:       p.speed,
		State:       p.state.String(),
	}
}

// Restore 恢复同一骨骼的播放状态快照，不触发事件
// 出错时播放器保持不变
func (p *Player) Restore(s Snapshot) error {
	if s.SkeletonID != "" && s.SkeletonID != p.skel.ID {
		return fmt.Errorf("restore snapshot of skeleton %q onto %q", s.SkeletonID, p.skel.ID)
	}
	state, err := ParseState(s.State)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	clip, err := p.lookup(s.AnimationID)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	p.clip = clip
	p.state = state
	p.clock = p.normalize(s.Clock)
	p.SetSpeed(s.Speed)
	return nil
}
