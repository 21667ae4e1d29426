package timeline

import (
	"fmt"
	"sync"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/geom"
)

// Clip 编译后的动画，每个 muscle 对应一个 Track
// 不可变，可共享
type Clip struct {
	ID         string
	SkeletonID string
	Length     float64
	Looped     bool

	Tracks []*Track
}

// Compile 编译动画的所有 muscle
func Compile(anim *descriptor.Animation) (*Clip, error) {
	clip := &Clip{
		ID:         anim.ID,
		SkeletonID: anim.SkeletonID,
		Length:     anim.Length,
		Looped:     anim.IsLooped,
		Tracks:     make([]*Track, 0, len(anim.Muscles)),
	}
	for i := range anim.Muscles {
		track, err := CompileTrack(anim, &anim.Muscles[i])
		if err != nil {
			return nil, fmt.Errorf("compile animation %q: %w", anim.ID, err)
		}
		clip.Tracks = append(clip.Tracks, track)
	}
	return clip, nil
}

// Evaluate 返回时间 t 所有受驱动骨骼的增量
func (c *Clip) Evaluate(t float64) map[string]geom.Transform {
	return c.EvaluateInto(t, make(map[string]geom.Transform, len(c.Tracks)))
}

// EvaluateInto 把增量写入 dst 并返回（复用 map）
// dst 会先被清空，nil 时新分配
func (c *Clip) EvaluateInto(t float64, dst map[string]geom.Transform) map[string]geom.Transform {
	if dst == nil {
		dst = make(map[string]geom.Transform, len(c.Tracks))
	} else {
		clear(dst)
	}
	for _, track := range c.Tracks {
		dst[track.BoneID] = track.Evaluate(t)
	}
	return dst
}

// Track 查询驱动 boneID 的轨道
func (c *Clip) Track(boneID string) (*Track, bool) {
	for _, track := range c.Tracks {
		if track.BoneID == boneID {
			return track, true
		}
	}
	return nil, false
}

type clipKey struct {
	skeletonID  string
	animationID string
}

// Cache 首次使用时编译 Clip 并缓存（并发安全）
type Cache struct {
	set   *descriptor.Set
	mu    sync.Mutex
	clips map[clipKey]*Clip
}

// NewCache 创建 Clip 缓存
func NewCache(set *descriptor.Set) *Cache {
	return &Cache{
		set:   set,
		clips: make(map[clipKey]*Clip),
	}
}

// Clip 返回动画生效定义编译后的 Clip
// 未知 id 返回包装 descriptor.ErrUnknownAnimation 的 *descriptor.RuntimeError
func (c *Cache) Clip(skeletonID, animationID string) (*Clip, error) {
	key := clipKey{skeletonID: skeletonID, animationID: animationID}

	c.mu.Lock()
	defer c.mu.Unlock()

	if clip, ok := c.clips[key]; ok {
		return clip, nil
	}

	anim, ok := c.set.Animation(skeletonID, animationID)
	if !ok {
		return nil, descriptor.NewRuntimeError(descriptor.ErrUnknownAnimation, animationID)
	}
	clip, err := Compile(anim)
	if err != nil {
		return nil, err
	}
	c.clips[key] = clip
	return clip, nil
}
