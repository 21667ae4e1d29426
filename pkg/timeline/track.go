// Package timeline 将 muscle 时间轴编译为逐分量曲线并按时间求值
//
// 编译时一次性把关键帧名解析为绝对时间，每帧求值只是二分查找加一次插值，
// 不会失败。
package timeline

import (
	"fmt"
	"sort"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/geom"
	"github.com/gonewx/skelpose/pkg/utils"
)

// Component 骨骼动画分量
type Component int

const (
	PositionX Component = iota
	PositionY
	Angle
	ScaleX
	ScaleY

	numComponents
)

var componentNames = [numComponents]string{"position_x", "position_y", "angle", "scale_x", "scale_y"}

func (c Component) String() string {
	if c < 0 || c >= numComponents {
		return fmt.Sprintf("Component(%d)", int(c))
	}
	return componentNames[c]
}

// restValue 未指定分量时的静止值（位置/角度为 0，缩放为 1）
func (c Component) restValue() float64 {
	if c == ScaleX || c == ScaleY {
		return 1
	}
	return 0
}

type point struct {
	time  float64
	value float64
	ease  utils.EasingFunc
}

// curve 单个分量按时间排序的关键点
// 时间相同的点保持声明顺序
type curve struct {
	points []point
	rest   float64
}

func (c *curve) at(t float64) float64 {
	n := len(c.points)
	if n == 0 {
		return c.rest
	}

	// 第一个严格晚于 t 的点；时间相同时最后声明的点生效
	k := sort.Search(n, func(i int) bool { return c.points[i].time > t })
	if k == 0 {
		return c.points[0].value
	}
	if k == n {
		return c.points[n-1].value
	}

	a, b := c.points[k-1], c.points[k]
	u := (t - a.time) / (b.time - a.time)
	return utils.Lerp(a.value, b.value, a.ease(u))
}

// Track 编译后的单个 muscle 时间轴
type Track struct {
	BoneID string

	curves [numComponents]curve
}

type timedEntry struct {
	time  float64
	entry *descriptor.TimelineEntry
}

// CompileTrack 根据 anim.Keys 解析时间轴
//
// 经过 descriptor.Load 的数据 key 和缓动名都已校验，
// 这里的错误只会出现在手工构造的未校验数据上
func CompileTrack(anim *descriptor.Animation, muscle *descriptor.Muscle) (*Track, error) {
	entries := make([]timedEntry, 0, len(muscle.Timeline))
	for i := range muscle.Timeline {
		entry := &muscle.Timeline[i]
		t, ok := anim.Keys[entry.Key]
		if !ok {
			return nil, fmt.Errorf("muscle %q: timeline[%d] references unknown key %q", muscle.BoneID, i, entry.Key)
		}
		entries = append(entries, timedEntry{time: t, entry: entry})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].time < entries[j].time })

	track := &Track{BoneID: muscle.BoneID}
	for c := Component(0); c < numComponents; c++ {
		track.curves[c].rest = c.restValue()
	}

	for _, te := range entries {
		fn, ok := utils.EasingByName(te.entry.Easing)
		if !ok {
			return nil, fmt.Errorf("muscle %q: unknown easing %q at key %q", muscle.BoneID, te.entry.Easing, te.entry.Key)
		}
		values := [numComponents]*float64{
			te.entry.PositionX,
			te.entry.PositionY,
			te.entry.Angle,
			te.entry.ScaleX,
			te.entry.ScaleY,
		}
		for c, v := range values {
			if v == nil {
				continue
			}
			track.curves[c].points = append(track.curves[c].points, point{time: te.time, value: *v, ease: fn})
		}
	}

	return track, nil
}

// Evaluate 返回时间 t 的骨骼增量
// 时间轴之外保持最近的值（clamp）
func (tr *Track) Evaluate(t float64) geom.Transform {
	return geom.Transform{
		X:      tr.curves[PositionX].at(t),
		Y:      tr.curves[PositionY].at(t),
		Angle:  tr.curves[Angle].at(t),
		ScaleX: tr.curves[ScaleX].at(t),
		ScaleY: tr.curves[ScaleY].at(t),
	}
}

// Component 返回单个分量在时间 t 的值
func (tr *Track) Component(c Component, t float64) float64 {
	if c < 0 || c >= numComponents {
		return 0
	}
	return tr.curves[c].at(t)
}

// Animated 时间轴是否指定过分量 c
func (tr *Track) Animated(c Component) bool {
	if c < 0 || c >= numComponents {
		return false
	}
	return len(tr.curves[c].points) > 0
}

// Span 返回所有分量中最早和最晚关键点的时间，空时间轴 ok 为 false
func (tr *Track) Span() (start, end float64, ok bool) {
	for c := range tr.curves {
		pts := tr.curves[c].points
		if len(pts) == 0 {
			continue
		}
		if !ok || pts[0].time < start {
			start = pts[0].time
		}
		if !ok || pts[len(pts)-1].time > end {
			end = pts[len(pts)-1].time
		}
		ok = true
	}
	return start, end, ok
}
