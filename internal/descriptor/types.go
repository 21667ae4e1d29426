// Package descriptor 骨骼精灵描述文件的数据结构与加载器
//
// 一个描述集合声明了精灵图片源（sources）、绑定到图片源的骨骼（skeletons），
// 以及随时间驱动骨骼的关键帧动画（animations / muscles）。
package descriptor

// Set 已加载的描述集合
// Load 返回后只读，可在多个 goroutine 间无锁共享
type Set struct {
	// Interaction 精灵的指针命中区域
	Interaction Interaction `yaml:"interaction"`

	// Sources 图片源列表，按 id 引用
	Sources []Source `yaml:"sources"`

	// Skeletons 骨骼层级列表
	Skeletons []Skeleton `yaml:"skeletons"`

	// Animations 按声明顺序保留全部定义（包括重复 id）
	// 生效的定义通过 Animation 查询
	Animations []Animation `yaml:"animations"`

	sources    map[string]int
	skeletons  map[string]int
	animations map[animationKey]int
	animOrder  map[string][]string
}

// Interaction 精灵交互配置
type Interaction struct {
	HoverArea HoverArea `yaml:"hover_area"`
}

// HoverArea 精灵局部归一化坐标系中的矩形
// 单位为精灵尺寸的比例，Y 轴向上
type HoverArea struct {
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
}

// Source 精灵图片源
type Source struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	SizeX float64 `yaml:"size_x"`
	SizeY float64 `yaml:"size_y"`

	// PivotX/PivotY 锚点（图片像素坐标），对应使用该图片的骨骼原点
	PivotX float64 `yaml:"pivot_x"`
	PivotY float64 `yaml:"pivot_y"`
}

// Skeleton 骨骼定义：一组骨骼加统一缩放
type Skeleton struct {
	ID string `yaml:"id"`

	// Scale 图片像素到世界单位的换算，nil 表示 1.0
	Scale *float64 `yaml:"scale,omitempty"`

	Bones []Bone `yaml:"bones"`
}

// ScaleOrDefault 返回缩放，未设置时为 1.0
func (s *Skeleton) ScaleOrDefault() float64 {
	if s.Scale == nil {
		return 1.0
	}
	return *s.Scale
}

// Bone 绑定到图片源的骨骼节点
type Bone struct {
	ID string `yaml:"id"`

	// ParentID 同一骨骼内的父骨骼 id，根骨骼为空
	ParentID string `yaml:"parent_id,omitempty"`

	Pose BonePose `yaml:"pose"`
}

// BonePose 骨骼与图片源的绑定
type BonePose struct {
	SourceID string `yaml:"source_id"`
}

// Animation 绑定到单个骨骼的动画
type Animation struct {
	ID         string  `yaml:"id"`
	SkeletonID string  `yaml:"skeleton_id"`
	Length     float64 `yaml:"length"`
	IsLooped   bool    `yaml:"is_looped"`

	// Keys 关键帧名 -> 绝对时间，取值范围 [0, Length]
	Keys map[string]float64 `yaml:"keys"`

	Muscles []Muscle `yaml:"muscles"`
}

// Muscle 驱动单个骨骼的动画通道
type Muscle struct {
	BoneID   string          `yaml:"bone_id"`
	Timeline []TimelineEntry `yaml:"timeline"`
}

// TimelineEntry 时间轴上的一个关键帧
// 所有变换分量都是可选的指针类型：nil 表示本帧未指定，
// 求值时取最近的指定了该分量的关键帧
type TimelineEntry struct {
	// Key 关键帧名，时间由 Animation.Keys 决定
	Key string `yaml:"key"`

	// PositionX X 偏移（世界单位）
	PositionX *float64 `yaml:"position_x,omitempty"`

	// PositionY Y 偏移（世界单位，Y 轴向上）
	PositionY *float64 `yaml:"position_y,omitempty"`

	// Angle 旋转角度（弧度，逆时针）
	Angle *float64 `yaml:"angle,omitempty"`

	// ScaleX X 轴缩放（1.0 = 原始大小）
	ScaleX *float64 `yaml:"scale_x,omitempty"`

	// ScaleY Y 轴缩放（1.0 = 原始大小）
	ScaleY *float64 `yaml:"scale_y,omitempty"`

	// Easing 从本帧到下一帧使用的缓动曲线，空表示 "linear"
	Easing string `yaml:"easing,omitempty"`
}

type animationKey struct {
	skeletonID string
	id         string
}
