package utils

import (
	"math"
	"sort"

	"github.com/fogleman/ease"
)

// Easing Functions (缓动函数)
//
// 缓动函数控制时间轴上一段插值的速度曲线。
// 所有函数接受进度值 t ∈ [0, 1]，满足 f(0) = 0, f(1) = 1。
//
// 参考：https://easings.net/

// EasingFunc 缓动函数类型
type EasingFunc func(t float64) float64

// EasingLinear 默认缓动曲线名称
const EasingLinear = "linear"

// EaseLinear 线性缓动（无缓动）
// 返回值 = 输入值（匀速运动）
func EaseLinear(t float64) float64 {
	return t
}

// EaseOutExpo 指数缓出
// 特点：开始非常快，结束非常慢
// 公式：f(t) = 1 - 2^(-10t)，t >= 1 时固定为 1
func EaseOutExpo(t float64) float64 {
	if t >= 1.0 {
		return 1.0
	}
	return 1 - math.Pow(2, -10*t)
}

// EaseStep 阶跃
// 整段保持起始值，t = 1 时跳到结束值
func EaseStep(t float64) float64 {
	if t >= 1.0 {
		return 1.0
	}
	return 0
}

var easings = map[string]EasingFunc{
	EasingLinear:   EaseLinear,
	"step":         EaseStep,
	"in_quad":      ease.InQuad,
	"out_quad":     ease.OutQuad,
	"in_out_quad":  ease.InOutQuad,
	"in_cubic":     ease.InCubic,
	"out_cubic":    ease.OutCubic,
	"in_out_cubic": ease.InOutCubic,
	"in_sine":      ease.InSine,
	"out_sine":     ease.OutSine,
	"in_out_sine":  ease.InOutSine,
	"out_expo":     EaseOutExpo,
}

// EasingByName 按名称查询缓动函数
// 空名称返回线性缓动
func EasingByName(name string) (EasingFunc, bool) {
	if name == "" {
		return EaseLinear, true
	}
	fn, ok := easings[name]
	return fn, ok
}

// EasingNames 返回已注册的缓动名称（已排序）
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lerp 线性插值
// t=0 返回 a，t=1 返回 b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
