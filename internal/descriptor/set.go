package descriptor

import "log"

// buildIndex 构建查询索引
// 同一骨骼下动画 id 可以重复，后定义的覆盖先定义的
func (s *Set) buildIndex() {
	s.sources = make(map[string]int, len(s.Sources))
	for i := range s.Sources {
		s.sources[s.Sources[i].ID] = i
	}

	s.skeletons = make(map[string]int, len(s.Skeletons))
	for i := range s.Skeletons {
		s.skeletons[s.Skeletons[i].ID] = i
	}

	s.animations = make(map[animationKey]int, len(s.Animations))
	s.animOrder = make(map[string][]string)
	for i := range s.Animations {
		anim := &s.Animations[i]
		key := animationKey{skeletonID: anim.SkeletonID, id: anim.ID}
		if prev, exists := s.animations[key]; exists {
			log.Printf("[Descriptor] animation %q of skeleton %q defined again at animations[%d], overriding animations[%d]",
				anim.ID, anim.SkeletonID, i, prev)
		} else {
			s.animOrder[anim.SkeletonID] = append(s.animOrder[anim.SkeletonID], anim.ID)
		}
		s.animations[key] = i
	}
}

// Source 按 id 查询图片源
func (s *Set) Source(id string) (*Source, bool) {
	i, ok := s.sources[id]
	if !ok {
		return nil, false
	}
	return &s.Sources[i], true
}

// Skeleton 按 id 查询骨骼
func (s *Set) Skeleton(id string) (*Skeleton, bool) {
	i, ok := s.skeletons[id]
	if !ok {
		return nil, false
	}
	return &s.Skeletons[i], true
}

// Animation 查询骨骼动画的生效定义
// id 重复声明时返回最后一个
func (s *Set) Animation(skeletonID, id string) (*Animation, bool) {
	i, ok := s.animations[animationKey{skeletonID: skeletonID, id: id}]
	if !ok {
		return nil, false
	}
	return &s.Animations[i], true
}

// AnimationIDs 按首次出现顺序列出骨骼的动画 id（去重）
func (s *Set) AnimationIDs(skeletonID string) []string {
	ids := s.animOrder[skeletonID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// SkeletonIDs 按声明顺序列出骨骼 id
func (s *Set) SkeletonIDs() []string {
	ids := make([]string, 0, len(s.Skeletons))
	for i := range s.Skeletons {
		ids = append(ids, s.Skeletons[i].ID)
	}
	return ids
}
