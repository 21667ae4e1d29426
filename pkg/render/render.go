package render

import (
	"image/color"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/geom"
	"github.com/gonewx/skelpose/pkg/region"
	"github.com/gonewx/skelpose/pkg/skeleton"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// BoneGeoM 计算绘制骨骼精灵图片的 GeoM
//
// 变换顺序：
//  1. 平移图片使锚点位于原点
//  2. 按精灵缩放换算为世界单位，同时翻转 Y 轴（图片 Y 向下，骨骼空间 Y 向上）
//  3. 应用骨骼世界变换（缩放、旋转、平移）
//  4. 相机：世界单位 -> 像素，再次翻转 Y 轴
func BoneGeoM(world geom.Transform, src descriptor.Source, spriteScale float64, cam Camera) ebiten.GeoM {
	var m ebiten.GeoM
	m.Translate(-src.PivotX, -src.PivotY)
	m.Scale(spriteScale, -spriteScale)
	m.Scale(world.ScaleX, world.ScaleY)
	m.Rotate(world.Angle)
	m.Translate(world.X, world.Y)
	m.Scale(cam.PixelsPerUnit, -cam.PixelsPerUnit)
	m.Translate(cam.OriginX, cam.OriginY)
	return m
}

// DrawPose 按骨骼顺序（父骨骼在前）绘制所有骨骼的精灵
// world 为世界姿态，缺少的骨骼或图片被跳过
func DrawPose(dst *ebiten.Image, skel *skeleton.PoseSkeleton, world skeleton.Pose, images Images, cam Camera) {
	for i := range skel.Bones {
		bone := &skel.Bones[i]
		t, ok := world[bone.ID]
		if !ok {
			continue
		}
		img := images.Image(bone.Source)
		if img == nil {
			continue
		}
		opts := &ebiten.DrawImageOptions{}
		opts.GeoM = BoneGeoM(t, bone.Source, bone.SpriteScale, cam)
		opts.Filter = ebiten.FilterLinear
		dst.DrawImage(img, opts)
	}
}

// DrawBones 绘制骨骼连线（父骨骼原点 -> 子骨骼原点）和原点标记
func DrawBones(dst *ebiten.Image, skel *skeleton.PoseSkeleton, world skeleton.Pose, cam Camera) {
	palette := BonePalette(len(skel.Bones))
	for i := range skel.Bones {
		bone := &skel.Bones[i]
		t, ok := world[bone.ID]
		if !ok {
			continue
		}
		x, y := cam.ToScreen(t.X, t.Y)
		if bone.Parent >= 0 {
			if pt, ok := world[skel.Bones[bone.Parent].ID]; ok {
				px, py := cam.ToScreen(pt.X, pt.Y)
				vector.StrokeLine(dst, float32(px), float32(py), float32(x), float32(y), 2, palette[i], true)
			}
		}
		vector.DrawFilledCircle(dst, float32(x), float32(y), 3, palette[i], true)
	}
}

// RegionCorners 返回悬停区域在屏幕上的四个角（左下、右下、右上、左上）
func RegionCorners(r region.Region, world geom.Transform, src descriptor.Source, spriteScale float64, cam Camera) [4][2]float64 {
	minX, minY, maxX, maxY := r.Bounds()
	local := [4][2]float64{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}}

	var out [4][2]float64
	for i, p := range local {
		wx, wy := world.Apply(p[0]*src.SizeX*spriteScale, p[1]*src.SizeY*spriteScale)
		out[i][0], out[i][1] = cam.ToScreen(wx, wy)
	}
	return out
}

// DrawRegion 绘制悬停区域轮廓
func DrawRegion(dst *ebiten.Image, r region.Region, world geom.Transform, src descriptor.Source, spriteScale float64, cam Camera, clr color.Color) {
	corners := RegionCorners(r, world, src, spriteScale, cam)
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		vector.StrokeLine(dst, float32(a[0]), float32(a[1]), float32(b[0]), float32(b[1]), 1, clr, true)
	}
}
