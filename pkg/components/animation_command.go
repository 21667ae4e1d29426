package components

// AnimationCommandComponent 动画播放命令组件(纯数据)
//
// 设计目的:
//
//	解除系统间的直接耦合,使动画播放请求通过 ECS 组件机制传递
//
// 生命周期:
//  1. 其他系统或调试查看器添加此组件到实体
//  2. AnimationSystem 在 Update() 中查询并执行命令
//  3. 执行后标记 Processed = true，并在同一帧移除组件
//
// 示例:
//
//	em.AddComponent(actorID, &components.AnimationCommandComponent{
//	    AnimationID: "walk",
//	})
//
// 注意事项:
//   - 一个实体同时只应有一个 AnimationCommand(后续命令会覆盖前一个)
//   - AnimationID 为空且 Stop 为 false 时只修改速度
type AnimationCommandComponent struct {
	// AnimationID 要播放的动画 id（属于实体当前骨骼）
	AnimationID string

	// Stop 为 true 时停止当前动画，忽略 AnimationID
	Stop bool

	// Speed 可选：新的播放速度倍率，nil 表示不修改
	Speed *float64

	// Queue 为 true 时不打断当前动画：等当前非循环动画播放结束后再播放
	// 当前动画是循环动画时立即切换
	Queue bool

	// PreserveProgress 是否保留动画进度
	// true: 新动画从当前动画的相对进度位置开始播放(平滑过渡)
	// false: 新动画从头开始播放(默认行为)
	PreserveProgress bool

	// Processed 是否已被 AnimationSystem 处理
	Processed bool
}
