package render

import (
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"log"
	"path"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/hajimehoshi/ebiten/v2"
)

// Images 按图片源提供精灵图片
type Images interface {
	// Image 返回 nil 表示不绘制
	Image(src descriptor.Source) *ebiten.Image
}

// ImageCache 从文件系统加载图片源（src.Name 相对 Dir），加载结果被缓存
// 图片缺失或无法解码时使用纯色占位图，每个源只记录一次日志
type ImageCache struct {
	FS  fs.FS
	Dir string

	cache map[string]*ebiten.Image
}

// NewImageCache 创建图片缓存，fsys 为 nil 时全部使用占位图
func NewImageCache(fsys fs.FS, dir string) *ImageCache {
	return &ImageCache{
		FS:    fsys,
		Dir:   dir,
		cache: make(map[string]*ebiten.Image),
	}
}

// Image 实现 Images
func (c *ImageCache) Image(src descriptor.Source) *ebiten.Image {
	if img, ok := c.cache[src.ID]; ok {
		return img
	}

	var img *ebiten.Image
	if c.FS != nil && src.Name != "" {
		decoded, err := decodeImage(c.FS, path.Join(c.Dir, src.Name))
		if err != nil {
			log.Printf("[ImageCache] Failed to load image for source %q: %v (using placeholder)", src.ID, err)
		} else {
			img = ebiten.NewImageFromImage(decoded)
		}
	}
	if img == nil {
		img = placeholder(src)
	}

	c.cache[src.ID] = img
	return img
}

// Invalidate 清空缓存（描述集合重新加载后调用）
func (c *ImageCache) Invalidate() {
	clear(c.cache)
}

func decodeImage(fsys fs.FS, name string) (image.Image, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", name, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}
	return img, nil
}

// placeholder 与图片源同尺寸的纯色矩形
func placeholder(src descriptor.Source) *ebiten.Image {
	w, h := placeholderSize(src)
	img := ebiten.NewImage(w, h)
	img.Fill(SourceColor(src.ID))
	return img
}

func placeholderSize(src descriptor.Source) (int, int) {
	return max(1, int(src.SizeX)), max(1, int(src.SizeY))
}
