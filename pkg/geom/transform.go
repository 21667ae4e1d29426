// Package geom 骨骼姿态使用的 2D 变换
//
// 坐标系 Y 轴向上，角度为弧度、逆时针为正。
package geom

import "math"

// Transform 2D 平移、旋转与轴向缩放
// 作用于点时顺序为：先缩放，再旋转，最后平移
//
// 注意：零值不是单位变换（缩放为 0），请使用 Identity
type Transform struct {
	X      float64
	Y      float64
	Angle  float64
	ScaleX float64
	ScaleY float64
}

// Identity 单位变换
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// Translation 纯平移变换
func Translation(x, y float64) Transform {
	return Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1}
}

// Apply 将点从局部空间映射到父空间
func (t Transform) Apply(x, y float64) (float64, float64) {
	sx, sy := x*t.ScaleX, y*t.ScaleY
	c, s := math.Cos(t.Angle), math.Sin(t.Angle)
	return t.X + c*sx - s*sy, t.Y + s*sx + c*sy
}

// ApplyInverse 将点从父空间映射回局部空间
// 缩放为 0 的轴映射为 0
func (t Transform) ApplyInverse(x, y float64) (float64, float64) {
	dx, dy := x-t.X, y-t.Y
	c, s := math.Cos(t.Angle), math.Sin(t.Angle)
	rx, ry := c*dx+s*dy, -s*dx+c*dy
	return safeDiv(rx, t.ScaleX), safeDiv(ry, t.ScaleY)
}

// Then 计算挂在 t 下、局部变换为 child 的子节点的世界变换
//
// 子节点位置经 t 精确映射；角度相加，缩放逐轴相乘。
// 父节点为非均匀缩放时不产生切变（骨骼精灵的常规近似）。
func (t Transform) Then(child Transform) Transform {
	x, y := t.Apply(child.X, child.Y)
	return Transform{
		X:      x,
		Y:      y,
		Angle:  t.Angle + child.Angle,
		ScaleX: t.ScaleX * child.ScaleX,
		ScaleY: t.ScaleY * child.ScaleY,
	}
}

// Offset 在同一空间内把关键帧增量叠加到静止变换上
// 位置和角度相加，缩放相乘
func (t Transform) Offset(delta Transform) Transform {
	return Transform{
		X:      t.X + delta.X,
		Y:      t.Y + delta.Y,
		Angle:  t.Angle + delta.Angle,
		ScaleX: t.ScaleX * delta.ScaleX,
		ScaleY: t.ScaleY * delta.ScaleY,
	}
}

// ApproxEqual 各分量之差均不超过 eps 时返回 true
func ApproxEqual(a, b Transform, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps &&
		math.Abs(a.Y-b.Y) <= eps &&
		math.Abs(a.Angle-b.Angle) <= eps &&
		math.Abs(a.ScaleX-b.ScaleX) <= eps &&
		math.Abs(a.ScaleY-b.ScaleY) <= eps
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
