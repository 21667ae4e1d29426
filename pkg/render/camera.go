// Package render 调试用的姿态绘制：骨骼精灵、骨骼连线和悬停区域
//
// 姿态坐标系 Y 轴向上、单位为世界单位；屏幕坐标 Y 轴向下、单位为像素，
// 两者之间的转换由 Camera 完成。
package render

// Camera 世界坐标到屏幕坐标的映射
type Camera struct {
	// OriginX, OriginY 世界原点在屏幕上的像素位置
	OriginX float64
	OriginY float64

	// PixelsPerUnit 每个世界单位对应的像素数
	PixelsPerUnit float64
}

// NewCamera 创建原点位于 (originX, originY) 的相机
func NewCamera(originX, originY, pixelsPerUnit float64) Camera {
	return Camera{OriginX: originX, OriginY: originY, PixelsPerUnit: pixelsPerUnit}
}

// ToScreen 世界坐标 -> 屏幕坐标
func (c Camera) ToScreen(wx, wy float64) (float64, float64) {
	return c.OriginX + wx*c.PixelsPerUnit, c.OriginY - wy*c.PixelsPerUnit
}

// ToWorld 屏幕坐标 -> 世界坐标
// PixelsPerUnit 为 0 时返回世界原点
func (c Camera) ToWorld(sx, sy float64) (float64, float64) {
	if c.PixelsPerUnit == 0 {
		return 0, 0
	}
	return (sx - c.OriginX) / c.PixelsPerUnit, (c.OriginY - sy) / c.PixelsPerUnit
}

// Pan 平移相机（屏幕像素）
func (c *Camera) Pan(dx, dy float64) {
	c.OriginX += dx
	c.OriginY += dy
}

// Zoom 以屏幕点 (sx, sy) 为中心缩放，该点下的世界坐标保持不变
func (c *Camera) Zoom(factor, sx, sy float64) {
	if !(factor > 0) {
		return
	}
	wx, wy := c.ToWorld(sx, sy)
	c.PixelsPerUnit *= factor
	nx, ny := c.ToScreen(wx, wy)
	c.OriginX += sx - nx
	c.OriginY += sy - ny
}
