package render

import (
	"hash/fnv"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// BonePalette 为 n 根骨骼生成色相均匀分布的颜色（HCL 空间，亮度一致）
func BonePalette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		h := 360 * float64(i) / float64(n)
		out[i] = colorful.Hcl(h, 0.6, 0.7).Clamped()
	}
	return out
}

// SourceColor 占位图片的颜色，同一 id 总是得到相同的颜色
func SourceColor(id string) color.Color {
	hash := fnv.New32a()
	hash.Write([]byte(id))
	h := float64(hash.Sum32() % 360)
	return colorful.Hcl(h, 0.4, 0.6).Clamped()
}
