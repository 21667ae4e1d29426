package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
	"testing/fstest"

	"github.com/gonewx/skelpose/internal/descriptor"
	"github.com/gonewx/skelpose/pkg/geom"
	"github.com/gonewx/skelpose/pkg/region"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

func TestCamera(t *testing.T) {
	cam := NewCamera(400, 300, 100)

	x, y := cam.ToScreen(1, 2)
	if !near(x, 500) || !near(y, 100) {
		t.Errorf("ToScreen(1, 2) = (%v, %v), want (500, 100)", x, y)
	}
	wx, wy := cam.ToWorld(x, y)
	if !near(wx, 1) || !near(wy, 2) {
		t.Errorf("ToWorld(ToScreen(1, 2)) = (%v, %v), want (1, 2)", wx, wy)
	}

	// 缩放中心下的世界坐标保持不变
	bx, by := cam.ToWorld(250, 420)
	cam.Zoom(2.5, 250, 420)
	ax, ay := cam.ToWorld(250, 420)
	if !near(ax, bx) || !near(ay, by) {
		t.Errorf("world point under zoom center moved from (%v, %v) to (%v, %v)", bx, by, ax, ay)
	}
	if !near(cam.PixelsPerUnit, 250) {
		t.Errorf("PixelsPerUnit = %v, want 250", cam.PixelsPerUnit)
	}

	cam.Zoom(0, 0, 0)
	if !near(cam.PixelsPerUnit, 250) {
		t.Errorf("Zoom(0) changed PixelsPerUnit to %v", cam.PixelsPerUnit)
	}

	if x, y := (Camera{}).ToWorld(10, 10); x != 0 || y != 0 {
		t.Errorf("ToWorld with zero PixelsPerUnit = (%v, %v), want (0, 0)", x, y)
	}
}

func TestBoneGeoM(t *testing.T) {
	src := descriptor.Source{ID: "body", SizeX: 60, SizeY: 140, PivotX: 30, PivotY: 70}
	cam := NewCamera(400, 300, 100)

	tests := []struct {
		name   string
		world  geom.Transform
		px, py float64 // 图片像素
		lx, ly float64 // 期望的骨骼局部坐标（世界单位，Y 向上）
	}{
		{"锚点", geom.Translation(1, 2), 30, 70, 0, 0},
		{"左上角", geom.Translation(1, 2), 0, 0, -0.3, 0.7},
		{"右下角", geom.Translation(-1, 0), 60, 140, 0.3, -0.7},
		{"旋转", geom.Transform{X: 1, Y: 1, Angle: math.Pi / 2, ScaleX: 1, ScaleY: 1}, 40, 70, 0.1, 0},
		{"缩放", geom.Transform{ScaleX: 2, ScaleY: 0.5}, 30, 50, 0, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := BoneGeoM(tt.world, src, 0.01, cam)
			sx, sy := m.Apply(tt.px, tt.py)

			wx, wy := tt.world.Apply(tt.lx, tt.ly)
			wantX, wantY := cam.ToScreen(wx, wy)
			if math.Abs(sx-wantX) > 1e-6 || math.Abs(sy-wantY) > 1e-6 {
				t.Errorf("GeoM.Apply(%v, %v) = (%v, %v), want (%v, %v)", tt.px, tt.py, sx, sy, wantX, wantY)
			}
		})
	}
}

func TestRegionCorners(t *testing.T) {
	src := descriptor.Source{SizeX: 40, SizeY: 100, PivotX: 20, PivotY: 50}
	r := region.Region{Left: -0.5, Right: 0.5, Top: 0.5, Bottom: -0.5}
	cam := NewCamera(0, 0, 1)

	corners := RegionCorners(r, geom.Translation(10, 0), src, 0.02, cam)
	want := [4][2]float64{{9.6, 1}, {10.4, 1}, {10.4, -1}, {9.6, -1}}
	for i := range want {
		if !near(corners[i][0], want[i][0]) || !near(corners[i][1], want[i][1]) {
			t.Errorf("corner %d = %v, want %v", i, corners[i], want[i])
		}
	}

	// 角点反推回世界坐标都在区域内
	for i, c := range corners {
		wx, wy := cam.ToWorld(c[0], c[1])
		if !r.ContainsWorld(geom.Translation(10, 0), src, 0.02, wx*0.999+10*0.001, wy*0.999) {
			t.Errorf("corner %d (%v, %v) not contained", i, wx, wy)
		}
	}
}

func TestBonePalette(t *testing.T) {
	palette := BonePalette(6)
	if len(palette) != 6 {
		t.Fatalf("len(BonePalette(6)) = %d, want 6", len(palette))
	}
	seen := make(map[[4]uint32]bool)
	for i, c := range palette {
		r, g, b, a := c.RGBA()
		if a != 0xffff {
			t.Errorf("color %d is not opaque", i)
		}
		key := [4]uint32{r, g, b, a}
		if seen[key] {
			t.Errorf("color %d duplicates an earlier color", i)
		}
		seen[key] = true
	}

	if len(BonePalette(0)) != 0 {
		t.Error("BonePalette(0) should be empty")
	}
}

func TestSourceColorStable(t *testing.T) {
	a1, a2, b := SourceColor("arm"), SourceColor("arm"), SourceColor("body")
	if a1 != a2 {
		t.Error("SourceColor is not deterministic")
	}
	if a1 == b {
		t.Error("different sources got the same color")
	}
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(1, 1, color.RGBA{R: 255, A: 255})
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}

	fsys := fstest.MapFS{
		"sprites/body.png": {Data: buf.Bytes()},
		"sprites/bad.png":  {Data: []byte("not a png")},
	}

	img, err := decodeImage(fsys, "sprites/body.png")
	if err != nil {
		t.Fatalf("decodeImage failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("bounds = %v, want 3x2", b)
	}

	if _, err := decodeImage(fsys, "sprites/bad.png"); err == nil {
		t.Error("decodeImage of invalid data should fail")
	}
	if _, err := decodeImage(fsys, "sprites/missing.png"); err == nil {
		t.Error("decodeImage of missing file should fail")
	}
}

func TestPlaceholderSize(t *testing.T) {
	tests := []struct {
		src  descriptor.Source
		w, h int
	}{
		{descriptor.Source{SizeX: 60, SizeY: 140}, 60, 140},
		{descriptor.Source{SizeX: 0, SizeY: 0.5}, 1, 1},
	}
	for _, tt := range tests {
		if w, h := placeholderSize(tt.src); w != tt.w || h != tt.h {
			t.Errorf("placeholderSize(%v x %v) = %dx%d, want %dx%d", tt.src.SizeX, tt.src.SizeY, w, h, tt.w, tt.h)
		}
	}
}
