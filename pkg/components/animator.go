package components

import (
	"github.com/gonewx/skelpose/pkg/player"
)

// AnimatorComponent 动画播放组件
//
// 每个角色实体持有一个 Player。Player 非并发安全，
// 只由 AnimationSystem 在更新线程中推进。
type AnimatorComponent struct {
	// SetName 描述集合名称（assets.Library 中的名称），热重载时用于重建 Player
	SetName string

	// Player 播放器
	Player *player.Player

	// QueuedAnimation 当前动画结束后要播放的动画（空表示无）
	QueuedAnimation string

	// FinishedCount 非循环动画播放完成的次数（调试/测试用）
	FinishedCount int

	// LoopCount 循环动画回绕的累计次数
	LoopCount int
}
