// Package region 精灵悬停区域的命中测试
package region

import (
	"math"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/geom"
)

// Region 精灵局部归一化坐标系中的矩形
// 单位为精灵尺寸的比例，Y 轴向上，原点为锚点。边界顺序任意（left 可以大于 right）
type Region struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// FromHoverArea 从描述文件的 hover_area 创建
func FromHoverArea(area descriptor.HoverArea) Region {
	return Region{
		Left:   area.Left,
		Right:  area.Right,
		Top:    area.Top,
		Bottom: area.Bottom,
	}
}

// Bounds 返回规范化后的边界
func (r Region) Bounds() (minX, minY, maxX, maxY float64) {
	return math.Min(r.Left, r.Right), math.Min(r.Bottom, r.Top),
		math.Max(r.Left, r.Right), math.Max(r.Bottom, r.Top)
}

// Contains (x, y) 是否在矩形内（包含边界）
func (r Region) Contains(x, y float64) bool {
	minX, minY, maxX, maxY := r.Bounds()
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}

// Empty 面积为 0
func (r Region) Empty() bool {
	return r.Left == r.Right || r.Top == r.Bottom
}

// Normalize 将相对锚点的图片像素坐标转换为精灵尺寸比例
// 尺寸为 0 的轴映射为 0
func Normalize(localX, localY, sizeX, sizeY float64) (float64, float64) {
	var nx, ny float64
	if sizeX != 0 {
		nx = localX / sizeX
	}
	if sizeY != 0 {
		ny = localY / sizeY
	}
	return nx, ny
}

// ContainsWorld 测试世界坐标点是否命中骨骼上的精灵区域
//
// 流程：世界坐标 -> 骨骼局部坐标 -> 图片像素（除以 spriteScale）-> 归一化
func (r Region) ContainsWorld(bone geom.Transform, src descriptor.Source, spriteScale, wx, wy float64) bool {
	if spriteScale == 0 {
		return false
	}
	lx, ly := bone.ApplyInverse(wx, wy)
	nx, ny := Normalize(lx/spriteScale, ly/spriteScale, src.SizeX, src.SizeY)
	return r.Contains(nx, ny)
}
