// Package skeleton 将描述文件中的骨骼解析为姿态骨骼（PoseSkeleton）
//
// 骨骼按"父在前"的顺序存放在数组中，静止变换由图片源锚点和骨骼缩放计算。
package skeleton

import (
	"fmt"
	"sync"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/geom"
)

// Bone 解析后的骨骼
type Bone struct {
	// ID 描述文件中的骨骼 id
	ID string

	// Index 在 PoseSkeleton.Bones 中的下标
	Index int

	// Parent 父骨骼下标，根骨骼为 -1
	// 父骨骼总是排在子骨骼之前
	Parent int

	// Source 绑定的图片源
	Source descriptor.Source

	// Rest 局部静止变换：锚点换算到世界单位，无旋转，缩放为 1
	Rest geom.Transform

	// SpriteScale 绘制图片时使用的缩放（即骨骼缩放）
	SpriteScale float64
}

// PoseSkeleton 不可变、可共享的骨骼层级
type PoseSkeleton struct {
	ID    string
	Scale float64
	Bones []Bone

	index map[string]int
}

// Pose 骨骼 id -> 世界变换
type Pose map[string]geom.Transform

// Build 解析骨骼（不缓存）
//
// id 不存在时返回包装 descriptor.ErrUnknownSkeleton 的 *descriptor.RuntimeError
func Build(set *descriptor.Set, skeletonID string) (*PoseSkeleton, error) {
	skel, ok := set.Skeleton(skeletonID)
	if !ok {
		return nil, descriptor.NewRuntimeError(descriptor.ErrUnknownSkeleton, skeletonID)
	}

	scale := skel.ScaleOrDefault()
	declared := make(map[string]int, len(skel.Bones))
	for i, bone := range skel.Bones {
		declared[bone.ID] = i
	}

	ps := &PoseSkeleton{
		ID:    skel.ID,
		Scale: scale,
		Bones: make([]Bone, 0, len(skel.Bones)),
		index: make(map[string]int, len(skel.Bones)),
	}

	// 深度优先放置：父骨骼先于子骨骼，兄弟骨骼之间保持声明顺序
	placingSet := make(map[string]struct{})
	var place func(i int) (int, error)
	place = func(i int) (int, error) {
		decl := skel.Bones[i]
		if idx, done := ps.index[decl.ID]; done {
			return idx, nil
		}

		parent := -1
		if decl.ParentID != "" {
			pi, ok := declared[decl.ParentID]
			if !ok {
				return 0, fmt.Errorf("bone %q: unknown parent %q", decl.ID, decl.ParentID)
			}
			if _, placing := placingSet[decl.ID]; placing {
				return 0, fmt.Errorf("bone %q: hierarchy cycle", decl.ID)
			}
			placingSet[decl.ID] = struct{}{}
			p, err := place(pi)
			delete(placingSet, decl.ID)
			if err != nil {
				return 0, err
			}
			parent = p
		}

		src, ok := set.Source(decl.Pose.SourceID)
		if !ok {
			return 0, fmt.Errorf("bone %q: unknown source %q", decl.ID, decl.Pose.SourceID)
		}

		idx := len(ps.Bones)
		ps.Bones = append(ps.Bones, Bone{
			ID:          decl.ID,
			Index:       idx,
			Parent:      parent,
			Source:      *src,
			Rest:        geom.Translation(src.PivotX*scale, src.PivotY*scale),
			SpriteScale: scale,
		})
		ps.index[decl.ID] = idx
		return idx, nil
	}

	for i := range skel.Bones {
		if _, err := place(i); err != nil {
			return nil, fmt.Errorf("resolve skeleton %q: %w", skeletonID, err)
		}
	}

	return ps, nil
}

// Bone 按 id 查询骨骼
func (ps *PoseSkeleton) Bone(id string) (*Bone, bool) {
	i, ok := ps.index[id]
	if !ok {
		return nil, false
	}
	return &ps.Bones[i], true
}

// Compose 根据各骨骼增量计算世界姿态
// 没有增量的骨骼保持静止，未知骨骼的增量被忽略
func (ps *PoseSkeleton) Compose(deltas map[string]geom.Transform) Pose {
	world := make([]geom.Transform, len(ps.Bones))
	pose := make(Pose, len(ps.Bones))

	for i := range ps.Bones {
		bone := &ps.Bones[i]
		local := bone.Rest
		if delta, ok := deltas[bone.ID]; ok {
			local = local.Offset(delta)
		}
		if bone.Parent >= 0 {
			world[i] = world[bone.Parent].Then(local)
		} else {
			world[i] = local
		}
		pose[bone.ID] = world[i]
	}

	return pose
}

// RestPose 所有骨骼处于静止状态的姿态
func (ps *PoseSkeleton) RestPose() Pose {
	return ps.Compose(nil)
}

// Resolver 按骨骼 id 缓存 PoseSkeleton（并发安全）
type Resolver struct {
	set   *descriptor.Set
	mu    sync.Mutex
	cache map[string]*PoseSkeleton
}

// NewResolver 创建解析器
func NewResolver(set *descriptor.Set) *Resolver {
	return &Resolver{
		set:   set,
		cache: make(map[string]*PoseSkeleton),
	}
}

// Resolve 返回骨骼，首次调用时构建并缓存
func (r *Resolver) Resolve(skeletonID string) (*PoseSkeleton, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ps, ok := r.cache[skeletonID]; ok {
		return ps, nil
	}

	ps, err := Build(r.set, skeletonID)
	if err != nil {
		return nil, err
	}
	r.cache[skeletonID] = ps
	return ps, nil
}
