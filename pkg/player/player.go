// Package player 动画播放器：驱动单个骨骼上一个动画的播放时钟，输出当前姿态
package player

import (
	"fmt"
	"math"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/geom"
	"github.com/gonewx/skelpose/pkg/skeleton"
	"github.com/gonewx/skelpose/pkg/timeline"
)

// State 播放状态
type State int

const (
	Stopped State = iota
	Playing
	Finished
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState 解析 State.String 的输出
func ParseState(s string) (State, error) {
	switch s {
	case "stopped":
		return Stopped, nil
	case "playing":
		return Playing, nil
	case "finished":
		return Finished, nil
	}
	return Stopped, fmt.Errorf("unknown player state %q", s)
}

// EventType 播放事件类型
type EventType int

const (
	// EventFinished 非循环动画播放到结尾时触发一次
	EventFinished EventType = iota + 1

	// EventLooped 循环动画在某次 Tick 中回绕时触发
	EventLooped
)

func (e EventType) String() string {
	switch e {
	case EventFinished:
		return "finished"
	case EventLooped:
		return "looped"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// Event 播放事件
type Event struct {
	Type        EventType
	AnimationID string

	// Loops 本次 Tick 回绕的次数（EventLooped）
	Loops int
}

// ClipSource 编译后动画的查询接口，*timeline.Cache 实现了它
type ClipSource interface {
	Clip(skeletonID, animationID string) (*timeline.Clip, error)
}

// Player 单个动画实例的播放状态
//
// 非并发安全：只能由一个所有者推进和读取。不同 Player 之间没有共享的可变状态。
type Player struct {
	skel  *skeleton.PoseSkeleton
	clips ClipSource
	clip  *timeline.Clip

	state State
	clock float64
	speed float64

	handlers []func(Event)

	// Pose 调用之间复用
	deltas map[string]geom.Transform
}

// New 创建播放器，初始状态为 Playing，时钟为 0
func New(skel *skeleton.PoseSkeleton, clips ClipSource, animationID string) (*Player, error) {
	p := &Player{
		skel:  skel,
		clips: clips,
		speed: 1.0,
	}
	if err := p.Play(animationID); err != nil {
		return nil, err
	}
	return p, nil
}

// Play 切换到 animationID 并从 0 开始播放
// 出错时播放器保持不变
func (p *Player) Play(animationID string) error {
	clip, err := p.lookup(animationID)
	if err != nil {
		return err
	}
	p.clip = clip
	p.clock = 0
	p.state = Playing
	return nil
}

func (p *Player) lookup(animationID string) (*timeline.Clip, error) {
	clip, err := p.clips.Clip(p.skel.ID, animationID)
	if err != nil {
		return nil, err
	}
	if clip.SkeletonID != p.skel.ID {
		return nil, fmt.Errorf("animation %q is bound to skeleton %q, not %q: %w",
			animationID, clip.SkeletonID, p.skel.ID, descriptor.ErrSkeletonMismatch)
	}
	return clip, nil
}

// Stop 从任意状态进入 Stopped，时钟保留（姿态停在当前位置）
func (p *Player) Stop() {
	p.state = Stopped
}

// Tick 按 dt * speed 推进时钟
// 非 Playing 状态或 dt <= 0 时不做任何事
func (p *Player) Tick(dt float64) {
	if p.state != Playing || !(dt > 0) || math.IsInf(dt, 0) {
		return
	}

	length := p.clip.Length
	if p.clip.Looped {
		if length <= 0 {
			p.clock = 0
			return
		}
		p.clock += dt * p.speed
		if p.clock >= length {
			loops := loopCount(p.clock, length)
			p.clock = math.Mod(p.clock, length)
			if math.IsNaN(p.clock) {
				p.clock = 0
			}
			p.emit(Event{Type: EventLooped, AnimationID: p.clip.ID, Loops: loops})
		}
		return
	}

	p.clock += dt * p.speed
	if p.clock >= length {
		p.clock = length
		p.state = Finished
		p.emit(Event{Type: EventFinished, AnimationID: p.clip.ID})
	}
}

// loopCount 时钟 clock 包含的完整循环次数，上限 math.MaxInt32
// 极大的 dt*speed 除以极小的 length 时直接转换为 int 的结果未定义
func loopCount(clock, length float64) int {
	q := clock / length
	if !(q < math.MaxInt32) {
		return math.MaxInt32
	}
	return int(q)
}

// Seek 设置时钟，不改变状态也不触发事件
// 循环动画对 t 取模，非循环动画 clamp 到 [0, length]
func (p *Player) Seek(t float64) {
	p.clock = p.normalize(t)
}

func (p *Player) normalize(t float64) float64 {
	length := p.clip.Length
	if math.IsNaN(t) || t < 0 || length <= 0 {
		return 0
	}
	if p.clip.Looped {
		if math.IsInf(t, 0) {
			return 0
		}
		return math.Mod(t, length)
	}
	return math.Min(t, length)
}

// SetSpeed 设置播放速度倍率，负数按 0 处理
func (p *Player) SetSpeed(speed float64) {
	if !(speed > 0) || math.IsInf(speed, 0) {
		speed = 0
	}
	p.speed = speed
}

// OnEvent 注册事件回调，在 Tick 内按注册顺序同步调用
func (p *Player) OnEvent(fn func(Event)) {
	p.handlers = append(p.handlers, fn)
}

func (p *Player) emit(e Event) {
	for _, fn := range p.handlers {
		fn(e)
	}
}

// Pose 在当前时钟对所有 muscle 求值并合成到骨骼上
// 返回新分配的 map
func (p *Player) Pose() skeleton.Pose {
	p.deltas = p.clip.EvaluateInto(p.clock, p.deltas)
	return p.skel.Compose(p.deltas)
}

func (p *Player) State() State { return p.state }
func (p *Player) Clock() float64 { return p.clock }
func (p *Player) Speed() float64 { return p.speed }
func (p *Player) AnimationID() string { return p.clip.ID }
func (p *Player) Length() float64 { return p.clip.Length }
func (p *Player) Looped() bool { return p.clip.Looped }

// Skeleton 返回播放器驱动的骨骼
func (p *Player) Skeleton() *skeleton.PoseSkeleton { return p.skel }

// Clip 返回当前动画
func (p *Player) Clip() *timeline.Clip { return p.clip }
