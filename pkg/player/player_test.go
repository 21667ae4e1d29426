package player

import (
	"errors"
	"math"
	"testing"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/geom"
	"github.com/gonewx/skelpose/pkg/skeleton"
	"github.com/gonewx/skelpose/pkg/timeline"
)

const eps = 1e-9

const testDescriptor = `
sources:
  - {id: body, size_x: 60, size_y: 140, pivot_x: 30, pivot_y: 70}
skeletons:
  - id: warrior
    scale: 0.01
    bones:
      - {id: body, pose: {source_id: body}}
  - id: knight
    bones:
      - {id: body, pose: {source_id: body}}
animations:
  - id: loop
    skeleton_id: warrior
    length: 1.0
    is_looped: true
    keys: {start: 0, end: 1}
    muscles:
      - bone_id: body
        timeline:
          - {key: start, position_x: 0}
          - {key: end, position_x: 10}
  - id: once
    skeleton_id: warrior
    length: 1.0
    keys: {start: 0, end: 1}
    muscles:
      - bone_id: body
        timeline:
          - {key: start, angle: 0}
          - {key: end, angle: 1}
  - id: static
    skeleton_id: warrior
    length: 0
    is_looped: true
    keys: {idle: 0}
  - id: idle
    skeleton_id: warrior
    length: 1.0
    keys: {idle: 0}
  - id: flicker
    skeleton_id: warrior
    length: 0.000000000001
    is_looped: true
    keys: {idle: 0}
  - id: joust
    skeleton_id: knight
    length: 1.0
`

type fixture struct {
	set   *descriptor.Set
	skel  *skeleton.PoseSkeleton
	cache *timeline.Cache
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	set, err := descriptor.Load([]byte(testDescriptor))
	if err != nil {
		t.Fatalf("Failed to load descriptor: %v", err)
	}
	skel, err := skeleton.Build(set, "warrior")
	if err != nil {
		t.Fatalf("Failed to build skeleton: %v", err)
	}
	return fixture{set: set, skel: skel, cache: timeline.NewCache(set)}
}

func (fx fixture) player(t *testing.T, animationID string) *Player {
	t.Helper()
	p, err := New(fx.skel, fx.cache, animationID)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", animationID, err)
	}
	return p
}

func TestNewStartsPlaying(t *testing.T) {
	p := newFixture(t).player(t, "loop")
	if p.State() != Playing {
		t.Errorf("Expected Playing, got %v", p.State())
	}
	if p.Clock() != 0 || p.Speed() != 1 {
		t.Errorf("Expected clock 0 speed 1, got %v / %v", p.Clock(), p.Speed())
	}
	if p.AnimationID() != "loop" || !p.Looped() || p.Length() != 1 {
		t.Error("Unexpected clip metadata")
	}
}

func TestNewUnknownAnimation(t *testing.T) {
	fx := newFixture(t)
	_, err := New(fx.skel, fx.cache, "dance")
	if !errors.Is(err, descriptor.ErrUnknownAnimation) {
		t.Fatalf("Expected ErrUnknownAnimation, got %v", err)
	}

	// joust 存在，但属于另一个骨骼
	_, err = New(fx.skel, fx.cache, "joust")
	if !errors.Is(err, descriptor.ErrUnknownAnimation) {
		t.Fatalf("Expected ErrUnknownAnimation for a foreign animation, got %v", err)
	}
}

type foreignClips struct{}

func (foreignClips) Clip(_, animationID string) (*timeline.Clip, error) {
	return &timeline.Clip{ID: animationID, SkeletonID: "knight", Length: 1}, nil
}

func TestNewSkeletonMismatch(t *testing.T) {
	fx := newFixture(t)
	_, err := New(fx.skel, foreignClips{}, "joust")
	if !errors.Is(err, descriptor.ErrSkeletonMismatch) {
		t.Fatalf("Expected ErrSkeletonMismatch, got %v", err)
	}
}

func TestTickLoopWraps(t *testing.T) {
	p := newFixture(t).player(t, "loop")

	var events []Event
	p.OnEvent(func(e Event) { events = append(events, e) })

	p.Tick(1.3)
	if math.Abs(p.Clock()-0.3) > eps {
		t.Errorf("Expected clock 0.3 after Tick(1.3), got %v", p.Clock())
	}
	if p.State() != Playing {
		t.Errorf("Looped animation must keep playing, got %v", p.State())
	}
	if len(events) != 1 || events[0].Type != EventLooped || events[0].Loops != 1 {
		t.Errorf("Expected one looped event, got %+v", events)
	}

	p.Tick(2.5)
	if math.Abs(p.Clock()-0.8) > eps {
		t.Errorf("Expected clock 0.8, got %v", p.Clock())
	}
	if len(events) != 2 || events[1].Loops != 2 {
		t.Errorf("Expected a second looped event with 2 loops, got %+v", events)
	}

	p.Tick(0.1)
	if len(events) != 2 {
		t.Error("No event expected without a wrap")
	}
}

func TestTickOneShotFinishes(t *testing.T) {
	p := newFixture(t).player(t, "once")

	finished := 0
	p.OnEvent(func(e Event) {
		if e.Type == EventFinished {
			finished++
		}
	})

	p.Tick(0.4)
	if p.State() != Playing || math.Abs(p.Clock()-0.4) > eps {
		t.Fatalf("Expected Playing at 0.4, got %v at %v", p.State(), p.Clock())
	}

	p.Tick(1.3)
	if p.Clock() != 1.0 {
		t.Errorf("Expected clock clamped to 1.0, got %v", p.Clock())
	}
	if p.State() != Finished {
		t.Errorf("Expected Finished, got %v", p.State())
	}

	p.Tick(1)
	p.Tick(1)
	if finished != 1 {
		t.Errorf("Expected exactly one finished event, got %d", finished)
	}
	if p.Clock() != 1.0 {
		t.Errorf("Clock moved after Finished: %v", p.Clock())
	}
}

func TestTickZeroLengthLoop(t *testing.T) {
	p := newFixture(t).player(t, "static")
	p.Tick(0.5)
	p.Tick(100)
	if p.Clock() != 0 || p.State() != Playing {
		t.Errorf("Expected clock 0 and Playing, got %v / %v", p.Clock(), p.State())
	}
}

// 极短的循环动画遇到很大的 dt 时，循环次数被截断而不是溢出
func TestTickHugeLoopCount(t *testing.T) {
	p := newFixture(t).player(t, "flicker")

	var loops []int
	p.OnEvent(func(e Event) { loops = append(loops, e.Loops) })

	p.SetSpeed(1e300)
	p.Tick(1e6) // dt*speed 溢出为 +Inf
	p.SetSpeed(1)
	p.Tick(1e6)

	if len(loops) != 2 {
		t.Fatalf("Expected 2 looped events, got %v", loops)
	}
	for i, n := range loops {
		if n != math.MaxInt32 {
			t.Errorf("loops[%d] = %d, want %d", i, n, math.MaxInt32)
		}
	}
	if c := p.Clock(); math.IsNaN(c) || c < 0 || c >= p.Length() {
		t.Errorf("Clock %v outside [0, %v)", c, p.Length())
	}
}

func TestLoopCount(t *testing.T) {
	tests := []struct {
		name          string
		clock, length float64
		want          int
	}{
		{"one loop", 1.3, 1, 1},
		{"exact", 3, 1, 3},
		{"large quotient", 1e6, 1e-12, math.MaxInt32},
		{"infinite clock", math.Inf(1), 1, math.MaxInt32},
		{"nan", math.NaN(), 1, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loopCount(tt.clock, tt.length); got != tt.want {
				t.Errorf("loopCount(%v, %v) = %d, want %d", tt.clock, tt.length, got, tt.want)
			}
		})
	}
}

func TestTickIgnoresInvalidDelta(t *testing.T) {
	p := newFixture(t).player(t, "loop")
	p.Tick(0.2)
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		p.Tick(dt)
	}
	if math.Abs(p.Clock()-0.2) > eps {
		t.Errorf("Expected clock 0.2, got %v", p.Clock())
	}
}

func TestStopAndPlay(t *testing.T) {
	p := newFixture(t).player(t, "loop")
	p.Tick(0.5)
	p.Stop()
	if p.State() != Stopped {
		t.Fatalf("Expected Stopped, got %v", p.State())
	}

	p.Tick(0.2)
	if math.Abs(p.Clock()-0.5) > eps {
		t.Errorf("Tick while stopped moved the clock to %v", p.Clock())
	}

	if err := p.Play("once"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if p.State() != Playing || p.Clock() != 0 || p.AnimationID() != "once" {
		t.Error("Play must restart at clock 0 in Playing")
	}

	p.Tick(2)
	if p.State() != Finished {
		t.Fatalf("Expected Finished, got %v", p.State())
	}
	p.Stop()
	if p.State() != Stopped {
		t.Error("Stop must work from Finished")
	}

	if err := p.Play("dance"); !errors.Is(err, descriptor.ErrUnknownAnimation) {
		t.Errorf("Expected ErrUnknownAnimation, got %v", err)
	}
	if p.AnimationID() != "once" || p.State() != Stopped {
		t.Error("A failed Play must leave the player unchanged")
	}
}

func TestSpeed(t *testing.T) {
	p := newFixture(t).player(t, "loop")
	p.SetSpeed(0.5)
	p.Tick(0.4)
	if math.Abs(p.Clock()-0.2) > eps {
		t.Errorf("Expected clock 0.2 at half speed, got %v", p.Clock())
	}

	p.SetSpeed(-3)
	if p.Speed() != 0 {
		t.Errorf("Expected negative speed to clamp to 0, got %v", p.Speed())
	}
	p.Tick(1)
	if math.Abs(p.Clock()-0.2) > eps {
		t.Errorf("Clock moved at speed 0: %v", p.Clock())
	}
}

func TestSeek(t *testing.T) {
	fx := newFixture(t)

	loop := fx.player(t, "loop")
	loop.Seek(2.25)
	if math.Abs(loop.Clock()-0.25) > eps {
		t.Errorf("Looped Seek(2.25) = %v, want 0.25", loop.Clock())
	}

	once := fx.player(t, "once")
	once.Seek(5)
	if once.Clock() != 1 {
		t.Errorf("One-shot Seek(5) = %v, want 1", once.Clock())
	}
	once.Seek(-1)
	if once.Clock() != 0 {
		t.Errorf("Seek(-1) = %v, want 0", once.Clock())
	}
	if once.State() != Playing {
		t.Error("Seek must not change state")
	}
}

func TestPose(t *testing.T) {
	fx := newFixture(t)

	p := fx.player(t, "loop")
	p.Tick(0.5)
	pose := p.Pose()
	want := geom.Transform{X: 5.3, Y: 0.7, ScaleX: 1, ScaleY: 1}
	if !geom.ApproxEqual(pose["body"], want, eps) {
		t.Errorf("body = %+v, want %+v", pose["body"], want)
	}

	// 返回的姿态不会被后续调用覆盖
	p.Tick(0.25)
	_ = p.Pose()
	if !geom.ApproxEqual(pose["body"], want, eps) {
		t.Error("Pose result was mutated by a later Pose call")
	}
}

func TestPoseWithoutMusclesIsRest(t *testing.T) {
	fx := newFixture(t)
	p := fx.player(t, "idle")

	pose := p.Pose()
	rest := fx.skel.RestPose()
	if !geom.ApproxEqual(pose["body"], rest["body"], 0) {
		t.Errorf("Expected rest pose %+v, got %+v", rest["body"], pose["body"])
	}
}

func TestSnapshotRestore(t *testing.T) {
	fx := newFixture(t)

	p := fx.player(t, "once")
	p.SetSpeed(2)
	p.Tick(0.2)
	p.Stop()
	snap := p.Snapshot()

	if snap.SkeletonID != "warrior" || snap.AnimationID != "once" || snap.State != "stopped" {
		t.Errorf("Unexpected snapshot %+v", snap)
	}

	q := fx.player(t, "loop")
	finished := 0
	q.OnEvent(func(Event) { finished++ })
	if err := q.Restore(snap); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if q.AnimationID() != "once" || q.State() != Stopped || math.Abs(q.Clock()-0.4) > eps || q.Speed() != 2 {
		t.Errorf("Restore mismatch: %v %v %v %v", q.AnimationID(), q.State(), q.Clock(), q.Speed())
	}
	if finished != 0 {
		t.Error("Restore must not emit events")
	}

	bad := []Snapshot{
		{SkeletonID: "knight", AnimationID: "once", State: "playing"},
		{AnimationID: "dance", State: "playing"},
		{AnimationID: "once", State: "sleeping"},
	}
	for _, s := range bad {
		if err := q.Restore(s); err == nil {
			t.Errorf("Expected Restore(%+v) to fail", s)
		}
	}
	if q.AnimationID() != "once" || q.State() != Stopped {
		t.Error("A failed Restore must leave the player unchanged")
	}
}

func TestStateStrings(t *testing.T) {
	for _, s := range []State{Stopped, Playing, Finished} {
		got, err := ParseState(s.String())
		if err != nil || got != s {
			t.Errorf("ParseState(%q) = %v, %v", s.String(), got, err)
		}
	}
	if EventLooped.String() != "looped" || EventFinished.String() != "finished" {
		t.Error("Unexpected event names")
	}
}
